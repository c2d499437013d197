package models

import "time"

// ActivityItem is a denormalized wallet event kept in the redis feed.
// The ledger remains the source of truth; the feed is best-effort.
type ActivityItem struct {
	Kind         string    `msgpack:"kind" json:"kind"`
	Amount       int       `msgpack:"amount" json:"amount"`
	Counterparty string    `msgpack:"counterparty" json:"counterparty"`
	Description  string    `msgpack:"description" json:"description"`
	CreatedAt    time.Time `msgpack:"created_at" json:"created_at"`
}
