package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"safeconnect/internal/datastore"
	"safeconnect/internal/models"
	"safeconnect/internal/pkg/caching"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceContentPack struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceContentPack(container *do.Injector) (*ServiceContentPack, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceContentPack{container, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

func (service *ServiceContentPack) CreatePack(ctx context.Context, owner *models.User, title string, urls []string, price int) (*models.ContentPack, error) {
	if title == "" {
		return nil, errorx.Wrap(errors.New("missing title"), errorx.Invalid)
	}
	if len(urls) == 0 {
		return nil, errorx.Wrap(errors.New("pack needs at least one content url"), errorx.Invalid)
	}
	if price < 0 {
		return nil, errorx.Wrap(errors.New("price cannot be negative"), errorx.Invalid)
	}

	now := time.Now()
	pack := &models.ContentPack{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Title:       title,
		ContentURLs: urls,
		Price:       price,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	pack, err := datastore.CreateContentPack(ctx, service.postgresDB, pack)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return pack, nil
}

func (service *ServiceContentPack) ListOwnPacks(ctx context.Context, owner *models.User) ([]*models.ContentPack, error) {
	packs, err := datastore.ListContentPacksByOwner(ctx, service.readonlyPostgresDB, owner.ID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return packs, nil
}

func (service *ServiceContentPack) FindPack(ctx context.Context, packID string) (*models.ContentPack, error) {
	callback := func() (*models.ContentPack, error) {
		return datastore.FindContentPackByID(ctx, service.readonlyPostgresDB, packID)
	}
	pack, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyContentPack(packID), CACHE_TTL_5_MINS, callback)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errorx.Wrap(errors.New("pack not found"), errorx.NotExist)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return pack, nil
}
