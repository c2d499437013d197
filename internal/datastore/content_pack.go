package datastore

import (
	"context"

	"safeconnect/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableContentPack(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.ContentPack)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.ContentPack)(nil)).Index("index_content_pack_owner_id").IfNotExists().Column("owner_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateContentPack(ctx context.Context, db *bun.DB, pack *models.ContentPack) (*models.ContentPack, error) {
	_, err := db.NewInsert().Model(pack).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return pack, nil
}

func FindContentPackByID(ctx context.Context, db *bun.DB, id string) (*models.ContentPack, error) {
	var pack models.ContentPack
	err := db.NewSelect().Model(&pack).Where("id = ? AND active = ?", id, true).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &pack, nil
}

func ListContentPacksByOwner(ctx context.Context, db *bun.DB, ownerID string) ([]*models.ContentPack, error) {
	var packs []*models.ContentPack
	err := db.NewSelect().
		Model(&packs).
		Where("owner_id = ?", ownerID).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return packs, nil
}
