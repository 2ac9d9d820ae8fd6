package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/domain"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/logging"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/port"
)

var ErrDuplicateRequest = domain.Conflictf("duplicate request")

const (
	opBuyNow      = "buy-now"
	opBuySelected = "checkout-selected"
)

type CheckoutService struct {
	tx     port.TxManager
	cache  port.CacheRepository
	logger logging.Logger
	now    func() time.Time
	newID  func() string
}

// NewCheckoutService builds the orchestrator. cache may be nil, in which case
// the idempotent variants skip the duplicate check.
func NewCheckoutService(tx port.TxManager, cache port.CacheRepository, logger logging.Logger) *CheckoutService {
	return &CheckoutService{
		tx:     tx,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

func (s *CheckoutService) BuyNow(ctx context.Context, buyerID, listingID string) (domain.PurchaseRecord, error) {
	var purchase domain.PurchaseRecord

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store port.Store) error {
		listing, err := store.Listings().GetListing(ctx, listingID)
		if err != nil {
			return fmt.Errorf("get listing: %w", err)
		}
		if listing == nil {
			return domain.NotFoundf("Product not found")
		}
		if listing.Suppressed {
			return domain.InvalidStatef("Blinded product cannot be purchased")
		}
		if listing.SellerID == buyerID {
			return domain.InvalidStatef("Cannot buy your own product")
		}

		ok, err := store.Listings().TryMarkSold(ctx, listing.ID)
		if err != nil {
			return fmt.Errorf("mark sold: %w", err)
		}
		if !ok {
			return domain.Conflictf("Product is already sold or unavailable")
		}

		purchase = s.newPurchase(buyerID, listing)
		if err := store.Purchases().CreatePurchase(ctx, purchase); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}

		if err := store.Carts().DeleteEntryByListing(ctx, buyerID, listing.ID); err != nil {
			return fmt.Errorf("remove cart entry: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Info("buy now lost race", "listing_id", listingID, "buyer_id", buyerID)
		}
		return domain.PurchaseRecord{}, err
	}

	return purchase, nil
}

// BuySelected purchases every selected cart entry it can. Ineligible entries
// are skipped; all successes are committed together at the end, and nothing
// is committed when no entry succeeds.
func (s *CheckoutService) BuySelected(ctx context.Context, buyerID string) ([]domain.PurchaseRecord, error) {
	var purchases []domain.PurchaseRecord

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store port.Store) error {
		purchases = nil

		lines, err := store.Carts().ListSelected(ctx, buyerID)
		if err != nil {
			return fmt.Errorf("list selected: %w", err)
		}
		if len(lines) == 0 {
			return domain.InvalidStatef("No selected cart items")
		}

		for _, line := range lines {
			listing := line.Listing
			if listing == nil || listing.SellerID == buyerID {
				continue
			}

			ok, err := store.Listings().TryMarkSold(ctx, listing.ID)
			if err != nil {
				return fmt.Errorf("mark sold %s: %w", listing.ID, err)
			}
			if !ok {
				s.logger.Info("checkout skipped unavailable listing", "listing_id", listing.ID, "buyer_id", buyerID)
				continue
			}

			purchase := s.newPurchase(buyerID, listing)
			if err := store.Purchases().CreatePurchase(ctx, purchase); err != nil {
				return fmt.Errorf("create purchase %s: %w", listing.ID, err)
			}
			if err := store.Carts().DeleteEntry(ctx, buyerID, line.Entry.ID); err != nil {
				return fmt.Errorf("remove cart entry %s: %w", line.Entry.ID, err)
			}
			purchases = append(purchases, purchase)
		}

		if len(purchases) == 0 {
			return domain.InvalidStatef("No purchasable selected items")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return purchases, nil
}

// BuyNowOnce is BuyNow guarded by a client supplied request key.
func (s *CheckoutService) BuyNowOnce(ctx context.Context, requestKey, buyerID, listingID string) (domain.PurchaseRecord, error) {
	var purchase domain.PurchaseRecord
	err := s.once(ctx, opBuyNow, requestKey, buyerID, func() error {
		var err error
		purchase, err = s.BuyNow(ctx, buyerID, listingID)
		return err
	})
	return purchase, err
}

func (s *CheckoutService) BuySelectedOnce(ctx context.Context, requestKey, buyerID string) ([]domain.PurchaseRecord, error) {
	var purchases []domain.PurchaseRecord
	err := s.once(ctx, opBuySelected, requestKey, buyerID, func() error {
		var err error
		purchases, err = s.BuySelected(ctx, buyerID)
		return err
	})
	return purchases, err
}

func (s *CheckoutService) PurchasesOf(ctx context.Context, buyerID string) ([]domain.PurchaseView, error) {
	var views []domain.PurchaseView
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store port.Store) error {
		var err error
		views, err = store.Purchases().ListByBuyer(ctx, buyerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return views, nil
}

func (s *CheckoutService) SalesOf(ctx context.Context, sellerID string) ([]domain.PurchaseView, error) {
	var views []domain.PurchaseView
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, store port.Store) error {
		var err error
		views, err = store.Purchases().ListBySeller(ctx, sellerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return views, nil
}

func (s *CheckoutService) once(ctx context.Context, op, requestKey, buyerID string, fn func() error) error {
	if s.cache == nil || requestKey == "" {
		return fn()
	}

	idempotencyKey := fmt.Sprintf("idempotency:%s:%s:%s", op, buyerID, requestKey)

	ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
	if err != nil {
		return fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return ErrDuplicateRequest
	}

	if err := fn(); err != nil {
		if releaseErr := s.cache.ReleaseIdempotency(ctx, idempotencyKey); releaseErr != nil {
			s.logger.Error("failed to release idempotency key", "key", idempotencyKey, "error", releaseErr)
		}
		return err
	}
	return nil
}

func (s *CheckoutService) newPurchase(buyerID string, listing *domain.Listing) domain.PurchaseRecord {
	return domain.PurchaseRecord{
		ID:          s.newID(),
		BuyerID:     buyerID,
		SellerID:    listing.SellerID,
		ListingID:   listing.ID,
		Quantity:    domain.UniqueItemQuantity,
		Amount:      listing.Price,
		PurchasedAt: s.now(),
	}
}

// IsDuplicateRequest reports whether err came from the idempotency filter
// rather than from losing the sale.
func IsDuplicateRequest(err error) bool {
	var de *domain.Error
	return errors.As(err, &de) && de == ErrDuplicateRequest
}
