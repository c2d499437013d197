package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Ad struct {
	bun.BaseModel `bun:"table:ad"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	OwnerID       string     `bun:"owner_id" json:"owner_id"`
	Title         string     `bun:"title" json:"title"`
	Active        bool       `bun:"active,default:true" json:"active"`
	IsBoosted     bool       `bun:"is_boosted,default:false" json:"is_boosted"`
	BoostedUntil  *time.Time `bun:"boosted_until" json:"boosted_until"`
	LastBoostDate *time.Time `bun:"last_boost_date" json:"last_boost_date"`
	LastBumpDate  *time.Time `bun:"last_bump_date" json:"last_bump_date"`
	CreatedAt     time.Time  `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at" json:"updated_at"`
}

// BoostActive is the lazy expiry check; no sweeper ever clears is_boosted.
func (ad *Ad) BoostActive(now time.Time) bool {
	return ad.IsBoosted && ad.BoostedUntil != nil && ad.BoostedUntil.After(now)
}

// BoostCooldownRemaining returns how long until the ad may be boosted again,
// measured from the last boost over a rolling window. Zero means no wait.
func (ad *Ad) BoostCooldownRemaining(cooldown time.Duration, now time.Time) time.Duration {
	if ad.LastBoostDate == nil {
		return 0
	}
	remaining := cooldown - now.Sub(*ad.LastBoostDate)
	if remaining < 0 {
		return 0
	}
	return remaining
}
