package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"safeconnect/internal/datastore"
	"safeconnect/internal/models"
	"safeconnect/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceAd carries just enough ad surface for the boost flow; listing and
// search live elsewhere.
type ServiceAd struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceAd(container *do.Injector) (*ServiceAd, error) {
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

	return &ServiceAd{container, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

func (service *ServiceAd) CreateAd(ctx context.Context, owner *models.User, title string) (*models.Ad, error) {
	if title == "" {
		return nil, errorx.Wrap(errors.New("missing title"), errorx.Invalid)
	}

	now := time.Now()
	ad := &models.Ad{
		OwnerID:   owner.ID,
		Title:     title,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ad, err := datastore.CreateAd(ctx, service.postgresDB, ad)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return ad, nil
}

// GetAd serves the public read path through a very short cache; the boost
// flow reads the write database directly and never goes through here.
func (service *ServiceAd) GetAd(ctx context.Context, adID int64) (*models.Ad, error) {
	callback := func() (*models.Ad, error) {
		return datastore.FindAdByID(ctx, service.readonlyPostgresDB, adID)
	}
	ad, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyAd(adID), CACHE_TTL_5_SECONDS, callback)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errorx.Wrap(errors.New("ad not found"), errorx.NotExist)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return ad, nil
}

func (service *ServiceAd) ListOwnAds(ctx context.Context, owner *models.User) ([]*models.Ad, error) {
	ads, err := datastore.ListAdsByOwner(ctx, service.readonlyPostgresDB, owner.ID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return ads, nil
}
