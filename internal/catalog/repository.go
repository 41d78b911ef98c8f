package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Store is the read side of the catalog the order and booking flows consume.
type Store interface {
	GetCafe(ctx context.Context, id int64) (*Cafe, error)
	GetMenuItem(ctx context.Context, id int64) (*MenuItem, error)
	GetTable(ctx context.Context, id int64) (*Table, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Store {
	return &repository{db: db}
}

func (r *repository) GetCafe(ctx context.Context, id int64) (*Cafe, error) {
	var c Cafe
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, owner_id, active
		FROM cafes
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.OwnerID, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrCafeNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetMenuItem(ctx context.Context, id int64) (*MenuItem, error) {
	var m MenuItem
	err := r.db.QueryRowContext(ctx, `
		SELECT id, cafe_id, name, price, available
		FROM menu_items
		WHERE id = $1
	`, id).Scan(&m.ID, &m.CafeID, &m.Name, &m.Price, &m.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrMenuItemNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) GetTable(ctx context.Context, id int64) (*Table, error) {
	var t Table
	err := r.db.QueryRowContext(ctx, `
		SELECT id, cafe_id, table_number, capacity, status, active
		FROM cafe_tables
		WHERE id = $1
	`, id).Scan(&t.ID, &t.CafeID, &t.TableNumber, &t.Capacity, &t.Status, &t.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrTableNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
