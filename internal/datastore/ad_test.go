package datastore

import (
	"context"
	"testing"
	"time"

	"safeconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyBoost(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ad, err := CreateAd(ctx, db, &models.Ad{OwnerID: "alice", Title: "vintage bike", Active: true})
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(12 * time.Hour)

	boosted, err := ApplyBoost(ctx, db, ad.ID, now, until)
	require.NoError(t, err)
	assert.True(t, boosted.IsBoosted)
	require.NotNil(t, boosted.BoostedUntil)
	assert.True(t, boosted.BoostedUntil.Equal(until))
	require.NotNil(t, boosted.LastBoostDate)
	assert.True(t, boosted.LastBoostDate.Equal(now))
}

func TestCountOtherActiveBoosts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := CreateAd(ctx, db, &models.Ad{OwnerID: "alice", Title: "first", Active: true})
	require.NoError(t, err)
	second, err := CreateAd(ctx, db, &models.Ad{OwnerID: "alice", Title: "second", Active: true})
	require.NoError(t, err)
	other, err := CreateAd(ctx, db, &models.Ad{OwnerID: "bob", Title: "other", Active: true})
	require.NoError(t, err)

	_, err = ApplyBoost(ctx, db, first.ID, now, now.Add(12*time.Hour))
	require.NoError(t, err)
	_, err = ApplyBoost(ctx, db, other.ID, now, now.Add(12*time.Hour))
	require.NoError(t, err)

	// boosting the second ad must see exactly one competing boost
	count, err := CountOtherActiveBoosts(ctx, db, "alice", second.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// the boosted ad itself is excluded
	count, err = CountOtherActiveBoosts(ctx, db, "alice", first.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// after the window lapses the stale flag no longer counts
	count, err = CountOtherActiveBoosts(ctx, db, "alice", second.ID, now.Add(13*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
