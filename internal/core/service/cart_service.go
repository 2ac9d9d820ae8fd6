package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/domain"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/port"
)

type CartService struct {
	tx    port.TxManager
	now   func() time.Time
	newID func() string
}

func NewCartService(tx port.TxManager) *CartService {
	return &CartService{
		tx:    tx,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Add puts the listing in the buyer's cart. Re-adding resets the existing
// entry to quantity 1 and selected instead of failing.
func (s *CartService) Add(ctx context.Context, buyerID, listingID string) (string, error) {
	var entryID string

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store port.Store) error {
		listing, err := store.Listings().GetListing(ctx, listingID)
		if err != nil {
			return fmt.Errorf("get listing: %w", err)
		}
		if listing == nil {
			return domain.NotFoundf("Product not found")
		}
		if !listing.Purchasable() {
			return domain.InvalidStatef("Product is not available")
		}
		if listing.SellerID == buyerID {
			return domain.InvalidStatef("Cannot add your own product")
		}

		entryID, err = store.Carts().UpsertEntry(ctx, domain.CartEntry{
			ID:        s.newID(),
			BuyerID:   buyerID,
			ListingID: listing.ID,
			Quantity:  domain.UniqueItemQuantity,
			Selected:  true,
			CreatedAt: s.now(),
		})
		if err != nil {
			return fmt.Errorf("upsert cart entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return entryID, nil
}

func (s *CartService) List(ctx context.Context, buyerID string) (domain.CartSummary, error) {
	var lines []domain.CartLine
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store port.Store) error {
		var err error
		lines, err = store.Carts().ListEntries(ctx, buyerID)
		return err
	})
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("list cart: %w", err)
	}
	return domain.Summarize(lines), nil
}

func (s *CartService) Update(ctx context.Context, buyerID, entryID string, update domain.CartUpdate) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context, store port.Store) error {
		entry, err := store.Carts().GetEntry(ctx, buyerID, entryID)
		if err != nil {
			return fmt.Errorf("get cart entry: %w", err)
		}
		if entry == nil {
			return domain.NotFoundf("Cart item not found")
		}

		if update.Quantity != nil {
			if *update.Quantity != domain.UniqueItemQuantity {
				return domain.InvalidStatef("Secondhand item quantity must be 1")
			}
			entry.Quantity = *update.Quantity
		}
		if update.Selected != nil {
			entry.Selected = *update.Selected
		}

		if err := store.Carts().UpdateEntry(ctx, *entry); err != nil {
			return fmt.Errorf("update cart entry: %w", err)
		}
		return nil
	})
}

func (s *CartService) Remove(ctx context.Context, buyerID, entryID string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context, store port.Store) error {
		entry, err := store.Carts().GetEntry(ctx, buyerID, entryID)
		if err != nil {
			return fmt.Errorf("get cart entry: %w", err)
		}
		if entry == nil {
			return domain.NotFoundf("Cart item not found")
		}

		if err := store.Carts().DeleteEntry(ctx, buyerID, entry.ID); err != nil {
			return fmt.Errorf("delete cart entry: %w", err)
		}
		return nil
	})
}
