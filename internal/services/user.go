package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"safeconnect/internal/datastore"
	"safeconnect/internal/models"
	"safeconnect/internal/pkg/caching"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceUser struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceUser(container *do.Injector) (*ServiceUser, error) {
	db, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
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

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	return &ServiceUser{container, db, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

// FindOrCreateUser resolves the authenticated principal to a stored user,
// creating the user and its zero-balance account on first contact.
func (service *ServiceUser) FindOrCreateUser(ctx context.Context, userAuth *models.AuthUser) (*models.User, error) {
	if userAuth == nil {
		return nil, errors.New("userAuth is nil")
	}

	user, _ := service.FindUserByID(ctx, userAuth.ID)
	if user != nil {
		if user.Username != strings.ToLower(userAuth.Username) ||
			user.FirstName != userAuth.FirstName ||
			user.LastName != userAuth.LastName {
			user.Username = strings.ToLower(userAuth.Username)
			user.FirstName = userAuth.FirstName
			user.LastName = userAuth.LastName
			if _, err := datastore.UpdateUserProfile(ctx, service.postgresDB, user); err != nil {
				log.Println("update profile failed:", "user:", user.ID, err)
			}
			service.ClearUserCache(ctx, user.ID)
		}
		return user, nil
	}

	now := time.Now()
	role := userAuth.Role
	if role == "" {
		role = models.RoleMember
	}

	newUser := &models.User{
		ID:        userAuth.ID,
		Username:  strings.ToLower(userAuth.Username),
		FirstName: userAuth.FirstName,
		LastName:  userAuth.LastName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	log.Println("Create new user:", "user:", newUser.ID, "username:", newUser.Username)
	user, err := datastore.CreateUser(ctx, service.postgresDB, newUser)
	if err != nil {
		return nil, err
	}

	// every user starts with an empty coin account
	_, err = datastore.CreateAccount(ctx, service.postgresDB, &models.Account{
		UserID:      user.ID,
		Balance:     0,
		PremiumPlan: models.PlanNone,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	user.IsNewUser = true
	return user, nil
}

func (service *ServiceUser) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	callback := func() (*models.User, error) {
		return datastore.FindUserByID(ctx, service.readonlyPostgresDB, userID)
	}
	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyUser(userID), CACHE_TTL_5_MINS, callback)
}

// FindAccountByUserID reads through a short-lived cache; every balance
// mutation clears it via ClearAccountCache.
func (service *ServiceUser) FindAccountByUserID(ctx context.Context, userID string) (*models.Account, error) {
	callback := func() (*models.Account, error) {
		return datastore.FindAccountByUserID(ctx, service.readonlyPostgresDB, userID)
	}
	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyAccount(userID), CACHE_TTL_15_SECONDS, callback)
}

// FindAccountByUserIDNoCache reads the write database to avoid replica lag.
func (service *ServiceUser) FindAccountByUserIDNoCache(ctx context.Context, userID string) (*models.Account, error) {
	return datastore.FindAccountByUserID(ctx, service.postgresDB, userID)
}

func (service *ServiceUser) EnsureAccount(ctx context.Context, userID string) (*models.Account, error) {
	account, err := service.FindAccountByUserIDNoCache(ctx, userID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	if account != nil {
		return account, nil
	}

	now := time.Now()
	return datastore.CreateAccount(ctx, service.postgresDB, &models.Account{
		UserID:      userID,
		Balance:     0,
		PremiumPlan: models.PlanNone,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (service *ServiceUser) ClearAccountCache(ctx context.Context, userID string) {
	if err := service.cache.Delete(ctx, DBKeyAccount(userID)); err != nil {
		log.Println(err)
	}
}

func (service *ServiceUser) ClearUserCache(ctx context.Context, userID string) {
	if err := service.cache.Delete(ctx, DBKeyUser(userID)); err != nil {
		log.Println(err)
	}
}
