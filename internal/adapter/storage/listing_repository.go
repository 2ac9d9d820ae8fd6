package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/domain"
)

type listingRepository struct {
	q queryer
}

func (r listingRepository) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	var l domain.Listing
	err := r.q.QueryRowContext(ctx, `
		SELECT l.id, l.seller_id, COALESCE(u.nickname, ''), l.title, l.price, l.status,
			l.is_suppressed, l.created_at, l.updated_at
		FROM listings l
		LEFT JOIN users u ON u.id = l.seller_id
		WHERE l.id = ?`, listingID,
	).Scan(&l.ID, &l.SellerID, &l.SellerNickname, &l.Title, &l.Price, &l.Status,
		&l.Suppressed, &l.CreatedAt, &l.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query listing: %w", err)
	}

	return &l, nil
}

// TryMarkSold is the sale gate. The expected prior state lives in the WHERE
// clause so concurrent callers serialize on the row lock and only one of them
// sees a changed row.
func (r listingRepository) TryMarkSold(ctx context.Context, listingID string) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE listings
		SET status = 'sold', updated_at = NOW(6)
		WHERE id = ? AND status = 'on_sale' AND is_suppressed = FALSE`,
		listingID,
	)
	if err != nil {
		return false, fmt.Errorf("update listing status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return rows == 1, nil
}

func (r listingRepository) CreateListing(ctx context.Context, l domain.Listing) error {
	status := l.Status
	if status == "" {
		status = domain.SaleStatusOnSale
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO listings (id, seller_id, title, price, status, is_suppressed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.SellerID, l.Title, l.Price, status, l.Suppressed, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}
