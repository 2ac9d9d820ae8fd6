package storage

import (
	"context"
	"fmt"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/domain"
)

type purchaseRepository struct {
	q queryer
}

func (r purchaseRepository) CreatePurchase(ctx context.Context, p domain.PurchaseRecord) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO purchases (id, buyer_id, seller_id, listing_id, quantity, amount, purchased_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.BuyerID, p.SellerID, p.ListingID, p.Quantity, p.Amount, p.PurchasedAt,
	)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (r purchaseRepository) ListByBuyer(ctx context.Context, buyerID string) ([]domain.PurchaseView, error) {
	return r.list(ctx, "p.buyer_id", buyerID)
}

func (r purchaseRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.PurchaseView, error) {
	return r.list(ctx, "p.seller_id", sellerID)
}

// column is one of the two constants above, never user input.
func (r purchaseRepository) list(ctx context.Context, column, id string) ([]domain.PurchaseView, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT p.id, p.buyer_id, p.seller_id, p.listing_id, p.quantity, p.amount, p.purchased_at,
			COALESCE(l.title, '')
		FROM purchases p
		LEFT JOIN listings l ON l.id = p.listing_id
		WHERE `+column+` = ?
		ORDER BY p.purchased_at DESC, p.id`, id)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var views []domain.PurchaseView
	for rows.Next() {
		var v domain.PurchaseView
		if err := rows.Scan(&v.ID, &v.BuyerID, &v.SellerID, &v.ListingID, &v.Quantity, &v.Amount,
			&v.PurchasedAt, &v.ListingTitle); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}

	return views, nil
}
