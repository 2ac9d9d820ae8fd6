package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/port"
)

// queryer is the subset of *sql.DB and *sql.Tx the repositories need.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// WithinTransaction runs fn on a READ COMMITTED transaction. Errors returned
// by fn are passed through untouched after rollback.
func (m *MySQLAdapter) WithinTransaction(ctx context.Context, fn port.TxFunc) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, mysqlStore{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type mysqlStore struct {
	q queryer
}

func (s mysqlStore) Listings() port.ListingRepository {
	return listingRepository{q: s.q}
}

func (s mysqlStore) Carts() port.CartRepository {
	return cartRepository{q: s.q}
}

func (s mysqlStore) Purchases() port.PurchaseRepository {
	return purchaseRepository{q: s.q}
}
