package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	MessageKindText    = "text"
	MessageKindContent = "content"
	MessageKindSystem  = "system"
)

type Message struct {
	bun.BaseModel `bun:"table:message"`
	ID            string    `bun:"id,pk" json:"id"`
	FromID        string    `bun:"from_id" json:"from_id"`
	ToID          string    `bun:"to_id" json:"to_id"`
	Body          string    `bun:"body" json:"body"`
	Kind          string    `bun:"kind,default:'text'" json:"kind"`
	UnlockedFor   []string  `bun:"unlocked_for,type:jsonb" json:"unlocked_for"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

func (message *Message) UnlockedForUser(userID string) bool {
	for _, id := range message.UnlockedFor {
		if id == userID {
			return true
		}
	}
	return false
}
