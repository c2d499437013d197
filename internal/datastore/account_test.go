package datastore

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"safeconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebitBalance(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice", models.RoleMember, 100)

	account, err := DebitBalance(ctx, db, "alice", 60)
	require.NoError(t, err)
	assert.Equal(t, 40, account.Balance)

	// second debit exceeds what is left; the row must be untouched
	_, err = DebitBalance(ctx, db, "alice", 60)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	account, err = FindAccountByUserID(ctx, db, "alice")
	require.NoError(t, err)
	assert.Equal(t, 40, account.Balance)
}

func TestDebitBalance_UnknownAccount(t *testing.T) {
	db := newTestDB(t)

	_, err := DebitBalance(context.Background(), db, "nobody", 10)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDebitBalance_NeverGoesNegative(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice", models.RoleMember, 100)

	var wg sync.WaitGroup
	successes := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := DebitBalance(ctx, db, "alice", 30); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	assert.Equal(t, 3, count)

	account, err := FindAccountByUserID(ctx, db, "alice")
	require.NoError(t, err)
	assert.Equal(t, 10, account.Balance)
}

func TestCreditBalance(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "bob", models.RoleMember, 5)

	account, err := CreditBalance(ctx, db, "bob", 80)
	require.NoError(t, err)
	assert.Equal(t, 85, account.Balance)

	_, err = CreditBalance(ctx, db, "nobody", 80)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDebitBalanceWithRole(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "member", models.RoleMember, 500)
	seedUser(t, db, "announcer", models.RoleAnnouncer, 500)

	roles := []string{models.RoleAnnouncer, models.RoleAdmin}

	account, err := DebitBalanceWithRole(ctx, db, "announcer", 100, roles)
	require.NoError(t, err)
	assert.Equal(t, 400, account.Balance)

	// a funded member fails the role predicate, not the balance one
	_, err = DebitBalanceWithRole(ctx, db, "member", 100, roles)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	account, err = FindAccountByUserID(ctx, db, "member")
	require.NoError(t, err)
	assert.Equal(t, 500, account.Balance)

	// announcer without funds fails too
	_, err = DebitBalanceWithRole(ctx, db, "announcer", 1000, roles)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestApplySubscription(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice", models.RoleMember, 1000)

	until := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	account, err := ApplySubscription(ctx, db, "alice", 900, models.PlanDiamond, until, 5)
	require.NoError(t, err)
	assert.Equal(t, 100, account.Balance)
	assert.Equal(t, models.PlanDiamond, account.PremiumPlan)
	assert.Equal(t, 5, account.BonusBoosts)

	// cannot afford a second one
	_, err = ApplySubscription(ctx, db, "alice", 900, models.PlanDiamond, until, 5)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestApplySubscription_GoldKeepsBonusBoosts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice", models.RoleMember, 2000)

	until := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	_, err := ApplySubscription(ctx, db, "alice", 900, models.PlanDiamond, until, 5)
	require.NoError(t, err)

	// switching to gold leaves the leftover diamond credits in place;
	// they are unusable anyway once the plan is not diamond
	account, err := ApplySubscription(ctx, db, "alice", 500, models.PlanGold, until.Add(30*24*time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, models.PlanGold, account.PremiumPlan)
	assert.Equal(t, 5, account.BonusBoosts)
}

func TestConsumeBonusBoost(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "alice", models.RoleMember, 1000)

	until := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err := ApplySubscription(ctx, db, "alice", 900, models.PlanDiamond, until, 2)
	require.NoError(t, err)

	account, err := ConsumeBonusBoost(ctx, db, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, account.BonusBoosts)

	account, err = ConsumeBonusBoost(ctx, db, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, account.BonusBoosts)

	_, err = ConsumeBonusBoost(ctx, db, "alice")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
