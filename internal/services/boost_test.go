package services

import (
	"context"
	"testing"
	"time"

	"safeconnect/internal/datastore"
	"safeconnect/internal/models"

	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func seedAd(t *testing.T, db *bun.DB, ownerID string) *models.Ad {
	t.Helper()
	ad, err := datastore.CreateAd(context.Background(), db, &models.Ad{
		OwnerID: ownerID,
		Title:   "test ad",
		Active:  true,
	})
	require.NoError(t, err)
	return ad
}

func TestServiceBoost_BoostAd(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	owner := seedFlowUser(t, db, "anna", models.RoleAnnouncer, 500)
	ad := seedAd(t, db, "anna")

	boost, err := do.Invoke[*ServiceBoost](injector)
	require.NoError(t, err)

	result, err := boost.BoostAd(ctx, owner, ad.ID)
	require.NoError(t, err)

	assert.True(t, result.Ad.IsBoosted)
	require.NotNil(t, result.Ad.BoostedUntil)
	assert.False(t, result.UsedBonus)
	assert.Equal(t, BOOST_COST_COINS, result.CostInCoins)
	assert.Equal(t, 400, accountBalance(t, db, "anna"))

	entries, err := datastore.ListLedgerEntriesByOwner(ctx, db, "anna", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LedgerKindSpend, entries[0].Kind)
	assert.Equal(t, BOOST_COST_COINS, entries[0].Amount)
}

func TestServiceBoost_BoostAd_InsufficientFundsChargesNothing(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	owner := seedFlowUser(t, db, "anna", models.RoleAnnouncer, 50)
	ad := seedAd(t, db, "anna")

	boost, err := do.Invoke[*ServiceBoost](injector)
	require.NoError(t, err)

	_, err = boost.BoostAd(ctx, owner, ad.ID)
	require.Error(t, err)
	assert.ErrorContains(t, err, "insufficient")

	assert.Equal(t, 50, accountBalance(t, db, "anna"))

	stored, err := datastore.FindAdByID(ctx, db, ad.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsBoosted)

	entries, err := datastore.ListLedgerEntriesByOwner(ctx, db, "anna", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServiceBoost_BoostAd_CooldownChargesNothing(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	owner := seedFlowUser(t, db, "anna", models.RoleAnnouncer, 500)
	ad := seedAd(t, db, "anna")

	// a boost an hour ago is still inside both the active window and the
	// cooldown; the cooldown check fires first
	lastBoost := time.Now().Add(-time.Hour)
	_, err := datastore.ApplyBoost(ctx, db, ad.ID, lastBoost, lastBoost.Add(BOOST_DURATION))
	require.NoError(t, err)

	boost, err := do.Invoke[*ServiceBoost](injector)
	require.NoError(t, err)

	_, err = boost.BoostAd(ctx, owner, ad.ID)
	require.Error(t, err)
	assert.ErrorContains(t, err, "boosted again")

	// the rejection happened before any charge
	assert.Equal(t, 500, accountBalance(t, db, "anna"))
}

func TestServiceBoost_BoostAd_NotOwner(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	seedFlowUser(t, db, "anna", models.RoleAnnouncer, 500)
	stranger := seedFlowUser(t, db, "mia", models.RoleMember, 500)
	ad := seedAd(t, db, "anna")

	boost, err := do.Invoke[*ServiceBoost](injector)
	require.NoError(t, err)

	_, err = boost.BoostAd(ctx, stranger, ad.ID)
	require.Error(t, err)
	assert.ErrorContains(t, err, "not your ad")
	assert.Equal(t, 500, accountBalance(t, db, "mia"))
}

func TestServiceBoost_BoostAd_BonusBoostIsFree(t *testing.T) {
	injector := newTestContainer(t)
	db := testDB(t, injector)
	ctx := context.Background()

	owner, err := datastore.CreateUser(ctx, db, &models.User{ID: "dana", Username: "dana", Role: models.RoleAnnouncer})
	require.NoError(t, err)

	until := time.Now().Add(10 * 24 * time.Hour)
	_, err = datastore.CreateAccount(ctx, db, &models.Account{
		UserID:       "dana",
		Balance:      500,
		PremiumPlan:  models.PlanDiamond,
		PremiumUntil: &until,
		BonusBoosts:  2,
	})
	require.NoError(t, err)

	ad := seedAd(t, db, "dana")

	boost, err := do.Invoke[*ServiceBoost](injector)
	require.NoError(t, err)

	result, err := boost.BoostAd(ctx, owner, ad.ID)
	require.NoError(t, err)

	assert.True(t, result.UsedBonus)
	assert.Equal(t, 0, result.CostInCoins)
	assert.True(t, result.Ad.IsBoosted)

	// the credit is consumed instead of the balance
	account, err := datastore.FindAccountByUserID(ctx, db, "dana")
	require.NoError(t, err)
	assert.Equal(t, 500, account.Balance)
	assert.Equal(t, 1, account.BonusBoosts)

	// a free boost leaves no spend entry
	entries, err := datastore.ListLedgerEntriesByOwner(ctx, db, "dana", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
