package datastore

import (
	"context"
	"time"

	"safeconnect/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableAd(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Ad)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Ad)(nil)).Index("index_ad_owner_id").IfNotExists().Column("owner_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Ad)(nil)).Index("index_ad_boosted_until").IfNotExists().Column("is_boosted", "boosted_until").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateAd(ctx context.Context, db *bun.DB, ad *models.Ad) (*models.Ad, error) {
	_, err := db.NewInsert().Model(ad).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return ad, nil
}

func FindAdByID(ctx context.Context, db *bun.DB, id int64) (*models.Ad, error) {
	var ad models.Ad
	err := db.NewSelect().Model(&ad).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ad, nil
}

func ListAdsByOwner(ctx context.Context, db *bun.DB, ownerID string) ([]*models.Ad, error) {
	var ads []*models.Ad
	err := db.NewSelect().
		Model(&ads).
		Where("owner_id = ?", ownerID).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return ads, nil
}

// CountOtherActiveBoosts counts the owner's currently boosted ads other than
// the given one. Expired boosts are excluded by the time comparison, never
// by a stored flag flip.
func CountOtherActiveBoosts(ctx context.Context, db *bun.DB, ownerID string, excludeAdID int64, now time.Time) (int, error) {
	count, err := db.NewSelect().
		Model((*models.Ad)(nil)).
		Where("owner_id = ? AND id != ?", ownerID, excludeAdID).
		Where("is_boosted = ? AND boosted_until > ?", true, now).
		Count(ctx)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func ApplyBoost(ctx context.Context, db *bun.DB, adID int64, now time.Time, until time.Time) (*models.Ad, error) {
	var ad models.Ad
	err := db.NewUpdate().
		Model(&ad).
		Set("is_boosted = ?", true).
		Set("boosted_until = ?", until).
		Set("last_boost_date = ?", now).
		Set("last_bump_date = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", adID).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ad, nil
}
