package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/domain"
)

const cartLineColumns = `
	c.id, c.buyer_id, c.listing_id, c.quantity, c.selected, c.created_at,
	l.id, l.seller_id, u.nickname, l.title, l.price, l.status, l.is_suppressed, l.created_at, l.updated_at`

const cartLineJoins = `
	FROM cart_entries c
	LEFT JOIN listings l ON l.id = c.listing_id
	LEFT JOIN users u ON u.id = l.seller_id`

type cartRepository struct {
	q queryer
}

func (r cartRepository) UpsertEntry(ctx context.Context, e domain.CartEntry) (string, error) {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO cart_entries (id, buyer_id, listing_id, quantity, selected, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = 1, selected = TRUE`,
		e.ID, e.BuyerID, e.ListingID, domain.UniqueItemQuantity, true, e.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("upsert cart entry: %w", err)
	}

	var id string
	err = r.q.QueryRowContext(ctx, `
		SELECT id FROM cart_entries WHERE buyer_id = ? AND listing_id = ?`,
		e.BuyerID, e.ListingID,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("query cart entry id: %w", err)
	}

	return id, nil
}

func (r cartRepository) GetEntry(ctx context.Context, buyerID, entryID string) (*domain.CartEntry, error) {
	var e domain.CartEntry
	err := r.q.QueryRowContext(ctx, `
		SELECT id, buyer_id, listing_id, quantity, selected, created_at
		FROM cart_entries WHERE id = ? AND buyer_id = ?`, entryID, buyerID,
	).Scan(&e.ID, &e.BuyerID, &e.ListingID, &e.Quantity, &e.Selected, &e.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cart entry: %w", err)
	}

	return &e, nil
}

func (r cartRepository) UpdateEntry(ctx context.Context, e domain.CartEntry) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE cart_entries SET quantity = ?, selected = ?
		WHERE id = ? AND buyer_id = ?`,
		e.Quantity, e.Selected, e.ID, e.BuyerID,
	)
	if err != nil {
		return fmt.Errorf("update cart entry: %w", err)
	}
	return nil
}

func (r cartRepository) DeleteEntry(ctx context.Context, buyerID, entryID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM cart_entries WHERE id = ? AND buyer_id = ?`, entryID, buyerID)
	if err != nil {
		return fmt.Errorf("delete cart entry: %w", err)
	}
	return nil
}

func (r cartRepository) DeleteEntryByListing(ctx context.Context, buyerID, listingID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM cart_entries WHERE buyer_id = ? AND listing_id = ?`, buyerID, listingID)
	if err != nil {
		return fmt.Errorf("delete cart entry by listing: %w", err)
	}
	return nil
}

func (r cartRepository) ListEntries(ctx context.Context, buyerID string) ([]domain.CartLine, error) {
	return r.queryLines(ctx, `SELECT`+cartLineColumns+cartLineJoins+`
		WHERE c.buyer_id = ?
		ORDER BY c.created_at DESC, c.id`, buyerID)
}

func (r cartRepository) ListSelected(ctx context.Context, buyerID string) ([]domain.CartLine, error) {
	return r.queryLines(ctx, `SELECT`+cartLineColumns+cartLineJoins+`
		WHERE c.buyer_id = ? AND c.selected = TRUE
		ORDER BY c.created_at, c.id`, buyerID)
}

func (r cartRepository) queryLines(ctx context.Context, query string, args ...any) ([]domain.CartLine, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		line, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}

	return lines, nil
}

func scanCartLine(rows *sql.Rows) (domain.CartLine, error) {
	var (
		e          domain.CartEntry
		listingID  sql.NullString
		sellerID   sql.NullString
		nickname   sql.NullString
		title      sql.NullString
		price      sql.NullInt64
		status     sql.NullString
		suppressed sql.NullBool
		createdAt  sql.NullTime
		updatedAt  sql.NullTime
	)

	err := rows.Scan(&e.ID, &e.BuyerID, &e.ListingID, &e.Quantity, &e.Selected, &e.CreatedAt,
		&listingID, &sellerID, &nickname, &title, &price, &status, &suppressed, &createdAt, &updatedAt)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("scan cart line: %w", err)
	}

	line := domain.CartLine{Entry: e}
	if listingID.Valid {
		line.Listing = &domain.Listing{
			ID:             listingID.String,
			SellerID:       sellerID.String,
			SellerNickname: nickname.String,
			Title:          title.String,
			Price:          price.Int64,
			Status:         domain.SaleStatus(status.String),
			Suppressed:     suppressed.Bool,
			CreatedAt:      createdAt.Time,
			UpdatedAt:      updatedAt.Time,
		}
	}
	return line, nil
}
