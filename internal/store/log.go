package store

import (
	"context"
	"database/sql"

	"github.com/fc-integration/inventory/types"
)

// LogRepository handles the append-only audit log.
type LogRepository struct {
	db *sql.DB
}

func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) Append(ctx context.Context, entry types.LogEntry) (types.LogEntry, error) {
	const query = `
		INSERT INTO logs (stock_id, user_name, item_description, action, quantity_before, quantity_after, commentaire)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, log_time`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		entry.StockID,
		entry.UserName,
		entry.ItemDescription,
		entry.Action,
		entry.QuantityBefore,
		entry.QuantityAfter,
		entry.Commentaire,
	).Scan(&entry.ID, &entry.LogTime); err != nil {
		return types.LogEntry{}, err
	}
	return entry, nil
}

// Latest returns the most recent entries of userName, newest first.
func (r *LogRepository) Latest(ctx context.Context, userName string, limit int) ([]types.LogEntry, error) {
	const query = `
		SELECT id, stock_id, user_name, item_description, action, quantity_before, quantity_after, log_time, commentaire
		FROM logs
		WHERE user_name = $1
		ORDER BY log_time DESC, id DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]types.LogEntry, 0, limit)
	for rows.Next() {
		var e types.LogEntry
		if err := rows.Scan(
			&e.ID,
			&e.StockID,
			&e.UserName,
			&e.ItemDescription,
			&e.Action,
			&e.QuantityBefore,
			&e.QuantityAfter,
			&e.LogTime,
			&e.Commentaire,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
