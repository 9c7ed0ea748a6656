package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sprout-farm/sprout/internal/platform/db"
	"github.com/sprout-farm/sprout/internal/shared"
)

// Repository persists items and ledger entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
// Serialization failures surface wrapped in ErrWriteConflict so the service
// can replay them.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
	if err != nil && db.IsRetryable(err) {
		return fmt.Errorf("%w: %v", ErrWriteConflict, err)
	}
	return err
}

const itemColumns = `id, owner_id, name, category, stock, unit, price_per_unit, low_stock_threshold, last_updated`

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Category, &item.Stock,
		&item.Unit, &item.PricePerUnit, &item.LowStockThreshold, &item.LastUpdated)
	return item, err
}

// GetItem fetches one item scoped to its owner.
func (r *Repository) GetItem(ctx context.Context, ownerID, itemID string) (Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id=$1 AND owner_id=$2`, itemID, ownerID)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, fmt.Errorf("item %s: %w", itemID, shared.ErrNotFound)
		}
		return Item{}, err
	}
	return item, nil
}

// ListItems lists all items of an owner ordered by name.
func (r *Repository) ListItems(ctx context.Context, ownerID string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE owner_id=$1 ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

// ListLowStock lists items whose stock sits below their threshold.
func (r *Repository) ListLowStock(ctx context.Context, ownerID string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items
WHERE owner_id=$1 AND stock < low_stock_threshold ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListOwnerIDs lists every distinct item owner. Used by the low-stock sweep.
func (r *Repository) ListOwnerIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT owner_id FROM inventory_items ORDER BY owner_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	owners := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return owners, nil
}

// QueryEntries returns entries matching the filter, newest first. Relies on
// the (user_id, occurred_at) and (plant_id, occurred_at) indexes.
func (r *Repository) QueryEntries(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != "" {
		add("user_id=$%d", filter.UserID)
	}
	if filter.ItemID != "" {
		add("item_id=$%d", filter.ItemID)
	}
	if filter.PlantID != "" {
		add("plant_id=$%d", filter.PlantID)
	}
	if filter.ItemNameContains != "" {
		add("item_name ILIKE $%d", "%"+filter.ItemNameContains+"%")
	}
	if !filter.From.IsZero() {
		add("occurred_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("occurred_at < $%d", filter.To)
	}

	query := `SELECT id, item_id, item_name, unit, occurred_at, entry_type, quantity_change, unit_price, total_value, notes, user_id, COALESCE(plant_id::text, '')
FROM ledger_entries`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY occurred_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.ItemName, &e.Unit, &e.OccurredAt, &e.Type,
			&e.QuantityChange, &e.UnitPrice, &e.TotalValue, &e.Notes, &e.UserID, &e.PlantID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, ownerID, itemID string) (Item, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id=$1 AND owner_id=$2 FOR UPDATE`, itemID, ownerID)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, fmt.Errorf("item %s: %w", itemID, shared.ErrNotFound)
		}
		return Item{}, err
	}
	return item, nil
}

func (r *txRepository) UpdateItemStock(ctx context.Context, itemID string, stock float64, at time.Time) error {
	tag, err := r.tx.Exec(ctx, `UPDATE inventory_items SET stock=$2, last_updated=$3 WHERE id=$1`, itemID, stock, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", itemID, shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) InsertEntry(ctx context.Context, entry Entry) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO ledger_entries
(id, item_id, item_name, unit, occurred_at, entry_type, quantity_change, unit_price, total_value, notes, user_id, plant_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NULLIF($12,'')::uuid)`,
		entry.ID, entry.ItemID, entry.ItemName, entry.Unit, entry.OccurredAt, string(entry.Type),
		entry.QuantityChange, entry.UnitPrice, entry.TotalValue, entry.Notes, entry.UserID, entry.PlantID)
	return err
}
