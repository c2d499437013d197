package datastore

import (
	"context"

	"safeconnect/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableMessage(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Message)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Message)(nil)).Index("index_message_to_id_created").IfNotExists().Column("to_id", "created_at").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertMessage(ctx context.Context, db *bun.DB, message *models.Message) (*models.Message, error) {
	_, err := db.NewInsert().Model(message).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return message, nil
}

func FindMessageByID(ctx context.Context, db *bun.DB, id string) (*models.Message, error) {
	var message models.Message
	err := db.NewSelect().Model(&message).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func ListMessagesForUser(ctx context.Context, db *bun.DB, userID string, limit int, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	err := db.NewSelect().
		Model(&messages).
		Where("to_id = ?", userID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// UnlockMessageForUser adds the user to the message's unlock set. The jsonb
// containment check makes repeated unlocks a no-op.
func UnlockMessageForUser(ctx context.Context, db *bun.DB, messageID string, userID string) error {
	_, err := db.NewUpdate().
		Model((*models.Message)(nil)).
		Set(`unlocked_for = CASE
			WHEN coalesce(unlocked_for, '[]'::jsonb) @> to_jsonb(?::text) THEN unlocked_for
			ELSE coalesce(unlocked_for, '[]'::jsonb) || to_jsonb(?::text)
		END`, userID, userID).
		Where("id = ?", messageID).
		Exec(ctx)
	return err
}
