package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ContentPack is a seller-owned bundle of content URLs delivered
// automatically when a transfer references the pack.
type ContentPack struct {
	bun.BaseModel `bun:"table:content_pack"`
	ID            string    `bun:"id,pk" json:"id"`
	OwnerID       string    `bun:"owner_id" json:"owner_id"`
	Title         string    `bun:"title" json:"title"`
	ContentURLs   []string  `bun:"content_urls,type:jsonb" json:"content_urls"`
	Price         int       `bun:"price,default:0" json:"price"`
	Active        bool      `bun:"active,default:true" json:"active"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}
