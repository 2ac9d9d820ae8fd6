package port

import (
	"context"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/domain"
)

type ListingRepository interface {
	// GetListing returns nil when the listing does not exist
	GetListing(ctx context.Context, listingID string) (*domain.Listing, error)

	// TryMarkSold flips on_sale to sold in one conditional write and reports
	// whether this call performed the transition
	TryMarkSold(ctx context.Context, listingID string) (bool, error)

	CreateListing(ctx context.Context, listing domain.Listing) error
}

type CartRepository interface {
	// UpsertEntry inserts the entry or resets an existing (buyer, listing) row
	// to quantity 1 and selected, returning the stored entry id
	UpsertEntry(ctx context.Context, entry domain.CartEntry) (string, error)

	// GetEntry returns nil when the entry does not exist or belongs to someone else
	GetEntry(ctx context.Context, buyerID, entryID string) (*domain.CartEntry, error)

	UpdateEntry(ctx context.Context, entry domain.CartEntry) error
	DeleteEntry(ctx context.Context, buyerID, entryID string) error
	DeleteEntryByListing(ctx context.Context, buyerID, listingID string) error

	// ListEntries returns every entry of the buyer with its listing, newest first
	ListEntries(ctx context.Context, buyerID string) ([]domain.CartLine, error)

	// ListSelected returns the selected entries of the buyer with their listings
	ListSelected(ctx context.Context, buyerID string) ([]domain.CartLine, error)
}

type PurchaseRepository interface {
	CreatePurchase(ctx context.Context, purchase domain.PurchaseRecord) error
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.PurchaseView, error)
	ListBySeller(ctx context.Context, sellerID string) ([]domain.PurchaseView, error)
}

// Store exposes the repositories bound to one transaction.
type Store interface {
	Listings() ListingRepository
	Carts() CartRepository
	Purchases() PurchaseRepository
}

type TxFunc func(ctx context.Context, store Store) error

type TxManager interface {
	// WithinTransaction commits when fn returns nil and rolls back otherwise
	WithinTransaction(ctx context.Context, fn TxFunc) error
}
