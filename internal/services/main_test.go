package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"safeconnect/internal/datastore"
	"safeconnect/internal/interfaces"
	"safeconnect/internal/models"
	"safeconnect/internal/pkg/caching"

	"github.com/go-redis/cache/v9"
	"github.com/go-redis/redis_rate/v10"
	"github.com/go-redsync/redsync/v4"
	redsyncredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// missCache always misses, so every read goes to the database and the flow
// assertions observe real state instead of a stale entry.
type missCache struct{}

func (missCache) Get(ctx context.Context, key string, target any) error { return cache.ErrCacheMiss }
func (missCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}
func (missCache) Delete(ctx context.Context, key string) error { return nil }

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(ctx context.Context, key string, limit redis_rate.Limit) error {
	return nil
}

// memLockPool backs redsync with a process-local map so the locked flows run
// without a redis server. One pool gives redsync a quorum of one.
type memLockPool struct {
	mu     sync.Mutex
	values map[string]string
}

func (p *memLockPool) Get(ctx context.Context) (redsyncredis.Conn, error) {
	return &memLockConn{pool: p}, nil
}

type memLockConn struct {
	pool *memLockPool
}

func (c *memLockConn) Get(name string) (string, error) {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	return c.pool.values[name], nil
}

func (c *memLockConn) Set(name string, value string) (bool, error) {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	c.pool.values[name] = value
	return true, nil
}

func (c *memLockConn) SetNX(name string, value string, expiry time.Duration) (bool, error) {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	if _, held := c.pool.values[name]; held {
		return false, nil
	}
	c.pool.values[name] = value
	return true, nil
}

func (c *memLockConn) Eval(script *redsyncredis.Script, keysAndArgs ...interface{}) (interface{}, error) {
	c.pool.mu.Lock()
	defer c.pool.mu.Unlock()
	// only the unlock/extend scripts reach here; releasing the key is the
	// behavior both depend on
	if len(keysAndArgs) > 0 {
		if key, ok := keysAndArgs[0].(string); ok {
			delete(c.pool.values, key)
		}
	}
	return int64(1), nil
}

func (c *memLockConn) PTTL(name string) (time.Duration, error) { return 0, nil }

func (c *memLockConn) Expire(name string, expiry time.Duration) (bool, error) { return true, nil }

func (c *memLockConn) Close() error { return nil }

func newTestContainer(t *testing.T) *do.Injector {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, datastore.CreateTableUser(ctx, db))
	require.NoError(t, datastore.CreateTableAccount(ctx, db))
	require.NoError(t, datastore.CreateTableLedgerEntry(ctx, db))
	require.NoError(t, datastore.CreateTableAd(ctx, db))
	require.NoError(t, datastore.CreateTableMessage(ctx, db))
	require.NoError(t, datastore.CreateTableContentPack(ctx, db))
	require.NoError(t, datastore.CreateTableConfig(ctx, db))

	injector := do.New()
	t.Cleanup(func() { _ = injector.Shutdown() })

	do.ProvideValue(injector, db)
	do.ProvideNamedValue(injector, "db-readonly", db)
	// the feed writes are fire-and-forget; an unreachable client only logs
	do.ProvideNamedValue[redis.UniversalClient](injector, "redis-db", redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	do.ProvideValue[caching.Cache](injector, missCache{})
	do.ProvideValue[caching.ReadOnlyCache](injector, missCache{})
	do.ProvideValue(injector, redsync.New(&memLockPool{values: map[string]string{}}))
	do.ProvideValue[interfaces.Limiter](injector, allowAllLimiter{})

	do.Provide(injector, NewServiceConfig)
	do.Provide(injector, NewServiceUser)
	do.Provide(injector, func(i *do.Injector) (*ServiceNotifier, error) {
		return NewServiceNotifier(i, "")
	})
	do.Provide(injector, NewServiceWallet)
	do.Provide(injector, NewServiceBoost)
	do.Provide(injector, NewServiceSubscription)

	return injector
}

func testDB(t *testing.T, injector *do.Injector) *bun.DB {
	t.Helper()
	db, err := do.Invoke[*bun.DB](injector)
	require.NoError(t, err)
	return db
}

func seedFlowUser(t *testing.T, db *bun.DB, id string, role string, balance int) *models.User {
	t.Helper()
	ctx := context.Background()

	user, err := datastore.CreateUser(ctx, db, &models.User{ID: id, Username: id, Role: role})
	require.NoError(t, err)

	_, err = datastore.CreateAccount(ctx, db, &models.Account{UserID: id, Balance: balance, PremiumPlan: models.PlanNone})
	require.NoError(t, err)

	return user
}

func accountBalance(t *testing.T, db *bun.DB, userID string) int {
	t.Helper()
	account, err := datastore.FindAccountByUserID(context.Background(), db, userID)
	require.NoError(t, err)
	return account.Balance
}
