package datastore

import (
	"context"
	"time"

	"safeconnect/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableLedgerEntry(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.LedgerEntry)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.LedgerEntry)(nil)).Index("index_ledger_entry_owner_created").IfNotExists().Column("owner_id", "created_at").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.LedgerEntry)(nil)).Index("index_ledger_entry_status").IfNotExists().Column("status").Exec(ctx)
	if err != nil {
		return err
	}

	// partial unique: closes the race between two concurrent submissions of
	// the same payment proof; rejected entries fall out of the predicate so
	// the reference can be resubmitted
	_, err = db.NewCreateIndex().
		Model((*models.LedgerEntry)(nil)).
		Index("index_ledger_entry_owner_reference_live").
		IfNotExists().
		Unique().
		Column("owner_id", "reference_id").
		Where("reference_id IS NOT NULL AND status IN ('pending', 'completed')").
		Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertLedgerEntry(ctx context.Context, db *bun.DB, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	_, err := db.NewInsert().Model(entry).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func FindLedgerEntryByID(ctx context.Context, db *bun.DB, id string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := db.NewSelect().Model(&entry).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// HasEntryWithReference reports whether the owner already used a payment
// proof reference on a pending or completed entry. Rejected entries do not
// block a resubmission.
func HasEntryWithReference(ctx context.Context, db *bun.DB, ownerID string, referenceID string) (bool, error) {
	count, err := db.NewSelect().
		Model((*models.LedgerEntry)(nil)).
		Where("owner_id = ? AND reference_id = ?", ownerID, referenceID).
		Where("status IN (?)", bun.In([]string{models.LedgerStatusPending, models.LedgerStatusCompleted})).
		Count(ctx)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func ListLedgerEntriesByOwner(ctx context.Context, db *bun.DB, ownerID string, limit int, offset int) ([]*models.LedgerEntry, error) {
	var entries []*models.LedgerEntry
	err := db.NewSelect().
		Model(&entries).
		Where("owner_id = ?", ownerID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func ListPendingLedgerEntries(ctx context.Context, db *bun.DB, limit int, offset int) ([]*models.LedgerEntry, error) {
	var entries []*models.LedgerEntry
	err := db.NewSelect().
		Model(&entries).
		Where("status = ?", models.LedgerStatusPending).
		OrderExpr("created_at ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// DecideLedgerEntry flips a pending entry to its final status. The WHERE on
// status makes the transition one-directional and at-most-once: deciding an
// already-decided entry returns sql.ErrNoRows.
func DecideLedgerEntry(ctx context.Context, db *bun.DB, id string, status string, reason *string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := db.NewUpdate().
		Model(&entry).
		Set("status = ?", status).
		Set("rejection_reason = ?", reason).
		Set("decided_at = ?", time.Now()).
		Where("id = ? AND status = ?", id, models.LedgerStatusPending).
		Returning("*").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
