package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleMember    = "member"
	RoleAnnouncer = "announcer"
	RoleAdmin     = "admin"
)

type User struct {
	bun.BaseModel  `bun:"table:user"`
	ID             string    `bun:"id,pk" json:"id"`
	Username       string    `bun:"username" json:"username"`
	FirstName      string    `bun:"first_name" json:"first_name"`
	LastName       string    `bun:"last_name" json:"last_name"`
	Role           string    `bun:"role,default:'member'" json:"role"`
	TelegramChatID *int64    `bun:"telegram_chat_id" json:"-"`
	WebhookURL     *string   `bun:"webhook_url" json:"-"`
	CreatedAt      time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at" json:"updated_at"`

	IsNewUser bool `bun:"-" json:"is_new_user"`
}

func (user *User) IsAdmin() bool {
	return user.Role == RoleAdmin
}

// CanWithdraw reports whether the user's role allows withdrawal requests.
func (user *User) CanWithdraw() bool {
	return user.Role == RoleAnnouncer || user.Role == RoleAdmin
}

// AuthUser only use in middleware
type AuthUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}
