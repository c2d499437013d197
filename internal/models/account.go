package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	PlanNone    = "none"
	PlanGold    = "gold"
	PlanDiamond = "diamond"
)

type Account struct {
	bun.BaseModel `bun:"table:account"`
	UserID        string     `bun:"user_id,pk" json:"user_id"`
	Balance       int        `bun:"balance,default:0" json:"balance"`
	PremiumPlan   string     `bun:"premium_plan,default:'none'" json:"premium_plan"`
	PremiumUntil  *time.Time `bun:"premium_until" json:"premium_until"`
	BonusBoosts   int        `bun:"bonus_boosts,default:0" json:"bonus_boosts"`
	CreatedAt     time.Time  `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at" json:"updated_at"`
}

// PremiumActive reports whether the account's plan benefits apply at the
// given instant. Expiry is never written back; it is always inferred here.
func (account *Account) PremiumActive(now time.Time) bool {
	if account.PremiumPlan == PlanNone || account.PremiumUntil == nil {
		return false
	}
	return account.PremiumUntil.After(now)
}

// CanUseBonusBoost reports whether a boost purchase is free for this account.
func (account *Account) CanUseBonusBoost(now time.Time) bool {
	return account.PremiumPlan == PlanDiamond && account.PremiumActive(now) && account.BonusBoosts > 0
}

// NextPremiumUntil chains a renewal of the same unexpired plan from the
// current expiry; anything else starts from now.
func NextPremiumUntil(account *Account, plan string, now time.Time, months int) time.Time {
	days := time.Duration(30*months) * 24 * time.Hour
	if account != nil && account.PremiumPlan == plan && account.PremiumActive(now) {
		return account.PremiumUntil.Add(days)
	}
	return now.Add(days)
}
