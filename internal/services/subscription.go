package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"safeconnect/internal/datastore"
	"safeconnect/internal/models"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceSubscription struct {
	container  *do.Injector
	redisDB    redis.UniversalClient
	postgresDB *bun.DB

	serviceUser *ServiceUser
	notifier    *ServiceNotifier
}

func NewServiceSubscription(container *do.Injector) (*ServiceSubscription, error) {
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	serviceUser, err := do.Invoke[*ServiceUser](container)
	if err != nil {
		return nil, err
	}

	notifier, err := do.Invoke[*ServiceNotifier](container)
	if err != nil {
		return nil, err
	}

	return &ServiceSubscription{container, redisDB, postgresDB, serviceUser, notifier}, nil
}

// BuyWithCoins purchases or extends a premium plan from the coin balance.
// The balance guard, plan, expiry and diamond bonus grant land in one
// conditional update; balance >= cost is the only predicate.
func (service *ServiceSubscription) BuyWithCoins(ctx context.Context, user *models.User, plan string) (*models.Account, error) {
	planPackage, ok := models.FindPremiumPlanPackage(plan)
	if !ok {
		return nil, errorx.Wrap(errors.New("unknown premium plan"), errorx.Invalid)
	}

	account, err := service.serviceUser.EnsureAccount(ctx, user.ID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	now := time.Now()
	until := models.NextPremiumUntil(account, planPackage.Plan, now, 1)

	account, err = datastore.ApplySubscription(ctx, service.postgresDB, user.ID, planPackage.CoinPrice, planPackage.Plan, until, planPackage.BonusBoosts)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errorx.Wrap(ErrInsufficientFunds, errorx.Invalid)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	service.serviceUser.ClearAccountCache(ctx, user.ID)

	entry := &models.LedgerEntry{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Kind:        models.LedgerKindSpend,
		Amount:      planPackage.CoinPrice,
		Currency:    models.CurrencyCoins,
		Status:      models.LedgerStatusCompleted,
		Plan:        &planPackage.Plan,
		Months:      1,
		Description: fmt.Sprintf("%s subscription until %s", planPackage.Plan, until.Format("2006-01-02")),
		CreatedAt:   now,
	}
	if _, err := datastore.InsertLedgerEntry(ctx, service.postgresDB, entry); err != nil {
		log.Println("subscription ledger append failed:", "user:", user.ID, err)
	}

	return account, nil
}
