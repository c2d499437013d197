package datastore

import (
	"context"
	"time"

	"safeconnect/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUser(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_user_username").Unique().IfNotExists().Column("username").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateUser(ctx context.Context, db *bun.DB, user *models.User) (*models.User, error) {
	_, err := db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func FindUserByID(ctx context.Context, db *bun.DB, userID string) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func UpdateUserProfile(ctx context.Context, db *bun.DB, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now()
	_, err := db.NewUpdate().
		Model(user).
		Column("username", "first_name", "last_name", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ListUsersWithPremiumExpiring returns users whose plan lapses inside the
// window; used by the reminder cron only, never to enforce expiry.
func ListUsersWithPremiumExpiring(ctx context.Context, db *bun.DB, from time.Time, until time.Time) ([]*models.User, error) {
	var users []*models.User
	err := db.NewSelect().
		Model(&users).
		Join(`JOIN account AS a ON a.user_id = "user".id`).
		Where("a.premium_plan != ?", models.PlanNone).
		Where("a.premium_until > ? AND a.premium_until <= ?", from, until).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return users, nil
}
