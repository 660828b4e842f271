// Package storage provides the SQLite-backed grocery list.
package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/list"
	"github.com/teranos/pantry/logger"
)

// Query constants
const (
	ItemSelectColumns = `id, name, quantity, note, sort_order`

	ItemSnapshotQuery = `
		SELECT ` + ItemSelectColumns + `
		FROM grocery_items
		ORDER BY sort_order ASC`

	// New rows append after the current last row; existing rows keep their
	// position and have quantity added. A nil note leaves the stored note.
	ItemUpsertQuery = `
		INSERT INTO grocery_items (id, name, name_key, quantity, note, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(sort_order), -1) + 1 FROM grocery_items), ?, ?)
		ON CONFLICT(name_key) DO UPDATE SET
			quantity = grocery_items.quantity + excluded.quantity,
			note = COALESCE(excluded.note, grocery_items.note),
			updated_at = excluded.updated_at
		RETURNING ` + ItemSelectColumns

	ItemAdjustQuery = `
		UPDATE grocery_items
		SET quantity = quantity + ?, updated_at = ?
		WHERE name_key = ?
		RETURNING ` + ItemSelectColumns

	ItemDeleteQuery = `DELETE FROM grocery_items WHERE name_key = ?`

	ItemClearQuery = `DELETE FROM grocery_items`

	ItemCountQuery = `SELECT COUNT(*) FROM grocery_items`
)

// SQLStore implements list.Store on the grocery_items table.
type SQLStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewSQLStore creates a store over an already-migrated database.
func NewSQLStore(db *sql.DB, l *zap.SugaredLogger) *SQLStore {
	return &SQLStore{
		db:     db,
		logger: logger.OrNop(l),
		now:    time.Now,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (list.Item, error) {
	var (
		it   list.Item
		note sql.NullString
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Quantity, &note, &it.Order); err != nil {
		return list.Item{}, err
	}
	if note.Valid {
		n := note.String
		it.Note = &n
	}
	return it, nil
}

// Snapshot returns every item in list order.
func (s *SQLStore) Snapshot(ctx context.Context) ([]list.Item, error) {
	rows, err := s.db.QueryContext(ctx, ItemSnapshotQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query grocery items")
	}
	defer rows.Close()

	items := []list.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan grocery item")
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate grocery items")
	}
	return items, nil
}

// AdjustQuantityByName adds delta to the matching row.
func (s *SQLStore) AdjustQuantityByName(ctx context.Context, name string, delta int) (list.Item, error) {
	row := s.db.QueryRowContext(ctx, ItemAdjustQuery, delta, s.now().UTC(), list.MatchKey(name))
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return list.Item{}, errors.Wrapf(list.ErrNoMatch, "adjust %q", name)
	}
	if err != nil {
		return list.Item{}, errors.WrapWriteFailed(err, "failed to adjust "+name)
	}

	s.logger.Debugw("Adjusted item",
		logger.FieldName, it.Name,
		logger.FieldDelta, delta,
		logger.FieldQuantity, it.Quantity,
	)
	return it, nil
}

// RemoveByName deletes the matching row.
func (s *SQLStore) RemoveByName(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, ItemDeleteQuery, list.MatchKey(name))
	if err != nil {
		return errors.WrapWriteFailed(err, "failed to remove "+name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WrapWriteFailed(err, "failed to read rows affected")
	}
	if n == 0 {
		return errors.Wrapf(list.ErrNoMatch, "remove %q", name)
	}

	s.logger.Debugw("Removed item", logger.FieldName, name)
	return nil
}

// AddOrIncreaseByName inserts name or increases the existing row in one
// statement.
func (s *SQLStore) AddOrIncreaseByName(ctx context.Context, name string, quantity int, note *string) (list.Item, error) {
	if quantity < 1 {
		return list.Item{}, errors.NewInvalidRequestError("quantity for %q must be at least 1, got %d", name, quantity)
	}

	var noteArg sql.NullString
	if note != nil {
		noteArg = sql.NullString{String: *note, Valid: true}
	}
	now := s.now().UTC()

	row := s.db.QueryRowContext(ctx, ItemUpsertQuery,
		uuid.NewString(),
		name,
		list.MatchKey(name),
		quantity,
		noteArg,
		now,
		now,
	)
	it, err := scanItem(row)
	if err != nil {
		return list.Item{}, errors.WrapWriteFailed(err, "failed to add "+name)
	}

	s.logger.Debugw("Added item",
		logger.FieldName, it.Name,
		logger.FieldQuantity, it.Quantity,
	)
	return it, nil
}

// Clear deletes every item and reports how many were removed.
func (s *SQLStore) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, ItemClearQuery)
	if err != nil {
		return 0, errors.WrapWriteFailed(err, "failed to clear list")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read rows affected")
	}
	return int(n), nil
}

// Count returns the number of items on the list.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, ItemCountQuery).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count grocery items")
	}
	return n, nil
}

var _ list.Store = (*SQLStore)(nil)
