package datastore

import (
	"context"
	"time"

	"safeconnect/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableAccount(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Account)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Account)(nil)).Index("index_account_premium_until").IfNotExists().Column("premium_until").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateAccount(ctx context.Context, db *bun.DB, account *models.Account) (*models.Account, error) {
	_, err := db.NewInsert().Model(account).On("CONFLICT (user_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return nil, err
	}

	return account, nil
}

func FindAccountByUserID(ctx context.Context, db *bun.DB, userID string) (*models.Account, error) {
	var account models.Account
	err := db.NewSelect().Model(&account).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DebitBalance is the single conditional update standing in for a lock:
// the decrement only happens when the balance still covers it. A
// sql.ErrNoRows result means the predicate failed, not that the row is gone.
func DebitBalance(ctx context.Context, db *bun.DB, userID string, amount int) (*models.Account, error) {
	var account models.Account
	err := db.NewUpdate().
		Model(&account).
		Set("balance = balance - ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// CreditBalance has no predicate beyond row existence; sql.ErrNoRows
// therefore means the account does not exist.
func CreditBalance(ctx context.Context, db *bun.DB, userID string, amount int) (*models.Account, error) {
	var account models.Account
	err := db.NewUpdate().
		Model(&account).
		Set("balance = balance + ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DebitBalanceWithRole combines the role check and the sufficiency check in
// one statement so authorization and balance cannot race apart.
func DebitBalanceWithRole(ctx context.Context, db *bun.DB, userID string, amount int, roles []string) (*models.Account, error) {
	var account models.Account
	err := db.NewUpdate().
		Model(&account).
		Set("balance = balance - ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Where(`user_id IN (SELECT id FROM "user" WHERE role IN (?))`, bun.In(roles)).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ApplySubscription debits the plan price and writes the new plan state in
// the same conditional update; balance >= cost is the only guard.
func ApplySubscription(ctx context.Context, db *bun.DB, userID string, cost int, plan string, until time.Time, bonusBoosts int) (*models.Account, error) {
	var account models.Account
	query := db.NewUpdate().
		Model(&account).
		Set("balance = balance - ?", cost).
		Set("premium_plan = ?", plan).
		Set("premium_until = ?", until).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ? AND balance >= ?", userID, cost)
	if plan == models.PlanDiamond {
		query = query.Set("bonus_boosts = ?", bonusBoosts)
	}

	err := query.Returning("*").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GrantPremium applies a deferred subscription effect (manual approval path);
// no balance predicate because no coins move here.
func GrantPremium(ctx context.Context, db *bun.DB, userID string, plan string, until time.Time, bonusBoosts int) (*models.Account, error) {
	var account models.Account
	query := db.NewUpdate().
		Model(&account).
		Set("premium_plan = ?", plan).
		Set("premium_until = ?", until).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID)
	if plan == models.PlanDiamond {
		query = query.Set("bonus_boosts = ?", bonusBoosts)
	}

	err := query.Returning("*").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ConsumeBonusBoost decrements a plan-granted free boost credit. The plan
// and expiry checks happen in the service read; the decrement itself still
// guards against going below zero.
func ConsumeBonusBoost(ctx context.Context, db *bun.DB, userID string) (*models.Account, error) {
	var account models.Account
	err := db.NewUpdate().
		Model(&account).
		Set("bonus_boosts = bonus_boosts - 1").
		Set("updated_at = ?", time.Now()).
		Where("user_id = ? AND bonus_boosts > 0 AND premium_plan = ?", userID, models.PlanDiamond).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &account, nil
}
