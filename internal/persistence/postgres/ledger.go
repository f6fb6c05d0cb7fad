package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fitbitsync/internal/domain"
)

// ResourceLedger persists the raw resources already synced for each user.
type ResourceLedger struct {
	pool *pgxpool.Pool
}

// NewResourceLedger constructs a ResourceLedger.
func NewResourceLedger(pool *pgxpool.Pool) *ResourceLedger {
	return &ResourceLedger{pool: pool}
}

// Exists probes for a raw resource by its category natural key.
func (l *ResourceLedger) Exists(ctx context.Context, query domain.LedgerQuery) (bool, error) {
	stmt := `SELECT EXISTS(SELECT 1 FROM synced_resources WHERE user_id=$1 AND category=$2 AND log_id=$3`
	args := []interface{}{query.UserID, query.Category, query.LogID}

	if query.Weight != nil {
		stmt += ` AND weight=$4`
		args = append(args, *query.Weight)
	}
	stmt += `)`

	var exists bool
	if err := l.pool.QueryRow(ctx, stmt, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// DeleteAll removes every entry of one category for the user.
func (l *ResourceLedger) DeleteAll(ctx context.Context, userID string, category domain.LedgerCategory) error {
	const stmt = `DELETE FROM synced_resources WHERE user_id=$1 AND category=$2`
	_, err := l.pool.Exec(ctx, stmt, userID, category)
	return err
}

// Insert appends one raw resource entry.
func (l *ResourceLedger) Insert(ctx context.Context, entry domain.LedgerEntry) error {
	const stmt = `INSERT INTO synced_resources (id, user_id, category, log_id, weight, payload, provider, synced_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := l.pool.Exec(ctx, stmt,
		entry.ID,
		entry.UserID,
		entry.Category,
		entry.LogID,
		entry.Weight,
		entry.Resource,
		entry.Provider,
		entry.DateSync,
	)
	return err
}
