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

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type BoostResult struct {
	Ad          *models.Ad      `json:"ad"`
	Account     *models.Account `json:"account"`
	UsedBonus   bool            `json:"used_bonus"`
	CostInCoins int             `json:"cost_in_coins"`
}

type ServiceBoost struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	rs                 *redsync.Redsync

	serviceUser *ServiceUser
}

func NewServiceBoost(container *do.Injector) (*ServiceBoost, error) {
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	serviceUser, err := do.Invoke[*ServiceUser](container)
	if err != nil {
		return nil, err
	}

	return &ServiceBoost{container, redisDB, postgresDB, readonlyPostgresDB, rs, serviceUser}, nil
}

// BoostAd promotes one ad for the fixed duration. All preconditions run
// before any charge so a rejected attempt never costs coins.
func (service *ServiceBoost) BoostAd(ctx context.Context, caller *models.User, adID int64) (*BoostResult, error) {
	ad, err := datastore.FindAdByID(ctx, service.postgresDB, adID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errorx.Wrap(errors.New("ad not found"), errorx.NotExist)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	if ad.OwnerID != caller.ID && !caller.IsAdmin() {
		return nil, errorx.Wrap(errors.New("not your ad"), errorx.Authn)
	}

	mutex := service.rs.NewMutex(LockKeyBoostPurchase(ad.OwnerID))
	if err := mutex.TryLock(); err != nil {
		return nil, errorx.Wrap(ErrBoostLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	now := time.Now()
	if err := checkBoostPreconditions(ctx, service.postgresDB, ad, now); err != nil {
		return nil, err
	}

	account, err := service.serviceUser.FindAccountByUserIDNoCache(ctx, ad.OwnerID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	usedBonus := false
	cost := BOOST_COST_COINS
	if account.CanUseBonusBoost(now) {
		account, err = datastore.ConsumeBonusBoost(ctx, service.postgresDB, ad.OwnerID)
		if err != nil && err != sql.ErrNoRows {
			return nil, errorx.Wrap(err, errorx.Service)
		}
		if err == nil {
			usedBonus = true
			cost = 0
		}
	}

	if !usedBonus {
		account, err = datastore.DebitBalance(ctx, service.postgresDB, ad.OwnerID, BOOST_COST_COINS)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, errorx.Wrap(ErrInsufficientFunds, errorx.Invalid)
			}
			return nil, errorx.Wrap(err, errorx.Service)
		}
	}

	service.serviceUser.ClearAccountCache(ctx, ad.OwnerID)

	boosted, err := datastore.ApplyBoost(ctx, service.postgresDB, ad.ID, now, now.Add(BOOST_DURATION))
	if err != nil {
		// the boost write failed after a successful charge; give it back
		if !usedBonus {
			if _, refundErr := datastore.CreditBalance(ctx, service.postgresDB, ad.OwnerID, BOOST_COST_COINS); refundErr != nil {
				log.Println("REFUND FAILED:", "user:", ad.OwnerID, "amount:", BOOST_COST_COINS, "cause: boost apply failed", refundErr)
			}
			service.serviceUser.ClearAccountCache(ctx, ad.OwnerID)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}
	ad = boosted

	if !usedBonus {
		entry := &models.LedgerEntry{
			ID:          uuid.NewString(),
			OwnerID:     ad.OwnerID,
			Kind:        models.LedgerKindSpend,
			Amount:      BOOST_COST_COINS,
			Currency:    models.CurrencyCoins,
			Status:      models.LedgerStatusCompleted,
			AdID:        &ad.ID,
			Description: fmt.Sprintf("boost for ad %d", ad.ID),
			CreatedAt:   now,
		}
		if _, err := datastore.InsertLedgerEntry(ctx, service.postgresDB, entry); err != nil {
			log.Println("boost ledger append failed:", "ad:", ad.ID, err)
		}
	}

	return &BoostResult{Ad: ad, Account: account, UsedBonus: usedBonus, CostInCoins: cost}, nil
}

// checkBoostPreconditions runs the ordered gate: cooldown, already boosted,
// then single-active-boost-per-account. The first failing check wins.
func checkBoostPreconditions(ctx context.Context, db *bun.DB, ad *models.Ad, now time.Time) error {
	if remaining := ad.BoostCooldownRemaining(BOOST_COOLDOWN, now); remaining > 0 {
		return errorx.Wrap(fmt.Errorf("ad can be boosted again in %s", remaining.Round(time.Minute)), errorx.Invalid)
	}

	if ad.BoostActive(now) {
		return errorx.Wrap(errors.New("ad is already boosted"), errorx.Invalid)
	}

	count, err := datastore.CountOtherActiveBoosts(ctx, db, ad.OwnerID, ad.ID, now)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	if count > 0 {
		return errorx.Wrap(errors.New("another ad is already boosted"), errorx.Invalid)
	}

	return nil
}
