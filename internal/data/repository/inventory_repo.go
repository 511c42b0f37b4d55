package repository

import (
	"context"
	"fmt"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// InventoryRepository owns the seat and room counters. Every mutation is a
// single conditional UPDATE so concurrent callers cannot oversell a unit.
type InventoryRepository interface {
	Reserve(ctx context.Context, itemType entity.BookingType, itemID int64, quantity int) (bool, error)
	Release(ctx context.Context, itemType entity.BookingType, itemID int64, quantity int) error
	Available(ctx context.Context, itemType entity.BookingType, itemID int64) (int, error)
}

type inventoryRepository struct {
	db  database.DBTX
	log *zap.Logger
}

func NewInventoryRepository(db database.DBTX, log *zap.Logger) InventoryRepository {
	return &inventoryRepository{
		db:  db,
		log: log.With(zap.String("repository", "inventory")),
	}
}

type counter struct {
	table  string
	column string
}

var counters = map[entity.BookingType]counter{
	entity.BookingTypeFlight: {table: "flights", column: "available_seats"},
	entity.BookingTypeHotel:  {table: "hotels", column: "rooms_available"},
}

func counterFor(itemType entity.BookingType) (counter, error) {
	c, ok := counters[itemType]
	if !ok {
		return counter{}, fmt.Errorf("%w: %q", ErrUnknownInventory, itemType)
	}
	return c, nil
}

// Reserve decrements the counter by quantity when enough capacity is left.
// It returns false without touching the row when capacity is short, and
// ErrNotFound when the item does not exist.
func (r *inventoryRepository) Reserve(ctx context.Context, itemType entity.BookingType, itemID int64, quantity int) (bool, error) {
	if quantity < 1 {
		return false, fmt.Errorf("reserve %s %d: %w", itemType, itemID, ErrInvalidQuantity)
	}
	c, err := counterFor(itemType)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = %[2]s - $2, updated_at = NOW()
		WHERE id = $1 AND %[2]s >= $2
	`, c.table, c.column)

	result, err := r.db.Exec(ctx, query, itemID, quantity)
	if err != nil {
		r.log.Error("Failed to reserve inventory",
			zap.Error(err),
			zap.String("type", string(itemType)),
			zap.Int64("item_id", itemID),
			zap.Int("quantity", quantity),
		)
		return false, fmt.Errorf("reserve %s %d: %w", itemType, itemID, err)
	}
	if result.RowsAffected() == 1 {
		return true, nil
	}

	exists, err := r.exists(ctx, c, itemID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("reserve %s %d: %w", itemType, itemID, ErrNotFound)
	}

	r.log.Debug("Inventory exhausted",
		zap.String("type", string(itemType)),
		zap.Int64("item_id", itemID),
	)
	return false, nil
}

// Release adds quantity back. Calling it twice for one booking releases twice.
func (r *inventoryRepository) Release(ctx context.Context, itemType entity.BookingType, itemID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("release %s %d: %w", itemType, itemID, ErrInvalidQuantity)
	}
	c, err := counterFor(itemType)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = %[2]s + $2, updated_at = NOW()
		WHERE id = $1
	`, c.table, c.column)

	result, err := r.db.Exec(ctx, query, itemID, quantity)
	if err != nil {
		r.log.Error("Failed to release inventory",
			zap.Error(err),
			zap.String("type", string(itemType)),
			zap.Int64("item_id", itemID),
			zap.Int("quantity", quantity),
		)
		return fmt.Errorf("release %s %d: %w", itemType, itemID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("release %s %d: %w", itemType, itemID, ErrNotFound)
	}

	return nil
}

func (r *inventoryRepository) Available(ctx context.Context, itemType entity.BookingType, itemID int64) (int, error) {
	c, err := counterFor(itemType)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, c.column, c.table)

	var available int
	err = r.db.QueryRow(ctx, query, itemID).Scan(&available)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("available %s %d: %w", itemType, itemID, ErrNotFound)
	}
	if err != nil {
		r.log.Error("Failed to read inventory",
			zap.Error(err),
			zap.String("type", string(itemType)),
			zap.Int64("item_id", itemID),
		)
		return 0, fmt.Errorf("available %s %d: %w", itemType, itemID, err)
	}

	return available, nil
}

func (r *inventoryRepository) exists(ctx context.Context, c counter, itemID int64) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, c.table)

	var exists bool
	if err := r.db.QueryRow(ctx, query, itemID).Scan(&exists); err != nil {
		r.log.Error("Failed to probe inventory item",
			zap.Error(err),
			zap.String("table", c.table),
			zap.Int64("item_id", itemID),
		)
		return false, fmt.Errorf("probe %s %d: %w", c.table, itemID, err)
	}
	return exists, nil
}
