package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/auth"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/domain"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/service"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/logging"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/metrics"
)

const testSecret = "test-secret"

type fakeCart struct {
	add    func(ctx context.Context, buyerID, listingID string) (string, error)
	list   func(ctx context.Context, buyerID string) (domain.CartSummary, error)
	update func(ctx context.Context, buyerID, entryID string, update domain.CartUpdate) error
	remove func(ctx context.Context, buyerID, entryID string) error
}

func (f *fakeCart) Add(ctx context.Context, buyerID, listingID string) (string, error) {
	return f.add(ctx, buyerID, listingID)
}

func (f *fakeCart) List(ctx context.Context, buyerID string) (domain.CartSummary, error) {
	return f.list(ctx, buyerID)
}

func (f *fakeCart) Update(ctx context.Context, buyerID, entryID string, update domain.CartUpdate) error {
	return f.update(ctx, buyerID, entryID, update)
}

func (f *fakeCart) Remove(ctx context.Context, buyerID, entryID string) error {
	return f.remove(ctx, buyerID, entryID)
}

type fakeCheckout struct {
	buyNow      func(ctx context.Context, requestKey, buyerID, listingID string) (domain.PurchaseRecord, error)
	buySelected func(ctx context.Context, requestKey, buyerID string) ([]domain.PurchaseRecord, error)
	purchases   func(ctx context.Context, buyerID string) ([]domain.PurchaseView, error)
	sales       func(ctx context.Context, sellerID string) ([]domain.PurchaseView, error)
}

func (f *fakeCheckout) BuyNowOnce(ctx context.Context, requestKey, buyerID, listingID string) (domain.PurchaseRecord, error) {
	return f.buyNow(ctx, requestKey, buyerID, listingID)
}

func (f *fakeCheckout) BuySelectedOnce(ctx context.Context, requestKey, buyerID string) ([]domain.PurchaseRecord, error) {
	return f.buySelected(ctx, requestKey, buyerID)
}

func (f *fakeCheckout) PurchasesOf(ctx context.Context, buyerID string) ([]domain.PurchaseView, error) {
	return f.purchases(ctx, buyerID)
}

func (f *fakeCheckout) SalesOf(ctx context.Context, sellerID string) ([]domain.PurchaseView, error) {
	return f.sales(ctx, sellerID)
}

func newTestRouter(t *testing.T, cart CartUseCase, checkout CheckoutUseCase, m *metrics.ServerMetrics) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	NewHTTPHandler(cart, checkout, m, logging.Discard).Routes(r, auth.NewJWTTokenParser(testSecret))
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, userID, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		token, err := auth.IssueToken(testSecret, userID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestHealthCheck_NoAuth(t *testing.T) {
	h := newTestRouter(t, &fakeCart{}, &fakeCheckout{}, nil)

	rec := doRequest(t, h, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthentication(t *testing.T) {
	h := newTestRouter(t, &fakeCart{}, &fakeCheckout{}, nil)

	t.Run("missing token", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/cart", "", "")

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
		assert.Equal(t, "Not authenticated", env.Error.Message)
		assert.Equal(t, "/cart", env.Error.Path)
		assert.NotEmpty(t, env.Error.Timestamp)
	})

	t.Run("bad signature", func(t *testing.T) {
		token, err := auth.IssueToken("other-secret", "buyer-1", time.Hour)
		require.NoError(t, err)

		rec := doRequest(t, h, http.MethodGet, "/purchases/me", "", "", "Authorization", "Bearer "+token)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid token", decodeEnvelope(t, rec).Error.Message)
	})
}

func TestAddToCart(t *testing.T) {
	var gotBuyer, gotListing string
	cart := &fakeCart{
		add: func(_ context.Context, buyerID, listingID string) (string, error) {
			gotBuyer, gotListing = buyerID, listingID
			if listingID == "missing" {
				return "", domain.NotFoundf("Product not found")
			}
			if listingID == "sold" {
				return "", domain.InvalidStatef("Product is not available")
			}
			return "entry-1", nil
		},
	}
	h := newTestRouter(t, cart, &fakeCheckout{}, nil)

	t.Run("created", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/cart", "buyer-1", `{"listing_id":"listing-1"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"id":"entry-1"}`, rec.Body.String())
		assert.Equal(t, "buyer-1", gotBuyer)
		assert.Equal(t, "listing-1", gotListing)
	})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{name: "malformed json", body: `{"listing_id":`, wantStatus: http.StatusUnprocessableEntity, wantCode: "VALIDATION_ERROR", wantMsg: "Validation failed"},
		{name: "missing listing", body: `{}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "VALIDATION_ERROR", wantMsg: "Validation failed"},
		{name: "quantity out of range", body: `{"listing_id":"listing-1","quantity":100}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "VALIDATION_ERROR", wantMsg: "Validation failed"},
		{name: "unknown listing", body: `{"listing_id":"missing"}`, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND", wantMsg: "Product not found"},
		{name: "unavailable listing", body: `{"listing_id":"sold"}`, wantStatus: http.StatusBadRequest, wantCode: "BAD_REQUEST", wantMsg: "Product is not available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/cart", "buyer-1", tt.body)

			require.Equal(t, tt.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.Equal(t, tt.wantMsg, env.Error.Message)
		})
	}
}

func TestGetCart(t *testing.T) {
	lines := []domain.CartLine{
		{
			Entry:   domain.CartEntry{ID: "e1", ListingID: "l1", Quantity: 1, Selected: true},
			Listing: &domain.Listing{ID: "l1", Title: "Camera", Price: 12000, Status: domain.SaleStatusOnSale},
		},
		{
			Entry:   domain.CartEntry{ID: "e2", ListingID: "l2", Quantity: 1, Selected: false},
			Listing: &domain.Listing{ID: "l2", Title: "Lens", Price: 5000, Status: domain.SaleStatusSold},
		},
	}
	cart := &fakeCart{
		list: func(context.Context, string) (domain.CartSummary, error) {
			return domain.Summarize(lines), nil
		},
	}
	h := newTestRouter(t, cart, &fakeCheckout{}, nil)

	rec := doRequest(t, h, http.MethodGet, "/cart", "buyer-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CartResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(12000), resp.TotalAmount)
	assert.Equal(t, CartItemResponse{
		ID: "e2", ListingID: "l2", Title: "Lens", Status: "sold", Price: 5000, Quantity: 1, Selected: false, Subtotal: 5000,
	}, resp.Items[1])
}

func TestGetCart_InternalErrorHidesDetail(t *testing.T) {
	cart := &fakeCart{
		list: func(context.Context, string) (domain.CartSummary, error) {
			return domain.CartSummary{}, errors.New("dial tcp: connection refused")
		},
	}
	h := newTestRouter(t, cart, &fakeCheckout{}, nil)

	rec := doRequest(t, h, http.MethodGet, "/cart", "buyer-1", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", env.Error.Code)
	assert.Equal(t, "Internal server error", env.Error.Message)
	assert.Nil(t, env.Error.Details)
}

func TestUpdateCartEntry(t *testing.T) {
	var got domain.CartUpdate
	cart := &fakeCart{
		update: func(_ context.Context, _, entryID string, update domain.CartUpdate) error {
			if entryID == "missing" {
				return domain.NotFoundf("Cart item not found")
			}
			if update.Quantity != nil && *update.Quantity != 1 {
				return domain.InvalidStatef("Secondhand item quantity must be 1")
			}
			got = update
			return nil
		},
	}
	h := newTestRouter(t, cart, &fakeCheckout{}, nil)

	t.Run("deselect", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPatch, "/cart/e1", "buyer-1", `{"selected":false}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Cart updated"}`, rec.Body.String())
		require.NotNil(t, got.Selected)
		assert.False(t, *got.Selected)
		assert.Nil(t, got.Quantity)
	})

	t.Run("quantity two", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPatch, "/cart/e1", "buyer-1", `{"quantity":2}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Secondhand item quantity must be 1", decodeEnvelope(t, rec).Error.Message)
	})

	t.Run("quantity zero fails validation", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPatch, "/cart/e1", "buyer-1", `{"quantity":0}`)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown entry", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPatch, "/cart/missing", "buyer-1", `{"selected":true}`)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Cart item not found", decodeEnvelope(t, rec).Error.Message)
	})
}

func TestRemoveCartEntry(t *testing.T) {
	cart := &fakeCart{
		remove: func(_ context.Context, _, entryID string) error {
			if entryID != "e1" {
				return domain.NotFoundf("Cart item not found")
			}
			return nil
		},
	}
	h := newTestRouter(t, cart, &fakeCheckout{}, nil)

	rec := doRequest(t, h, http.MethodDelete, "/cart/e1", "buyer-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Cart item deleted"}`, rec.Body.String())

	rec = doRequest(t, h, http.MethodDelete, "/cart/e9", "buyer-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuyNow(t *testing.T) {
	var gotKey string
	checkout := &fakeCheckout{
		buyNow: func(_ context.Context, requestKey, buyerID, listingID string) (domain.PurchaseRecord, error) {
			gotKey = requestKey
			switch listingID {
			case "sold":
				return domain.PurchaseRecord{}, domain.Conflictf("Product is already sold or unavailable")
			case "mine":
				return domain.PurchaseRecord{}, domain.InvalidStatef("Cannot buy your own product")
			case "dup":
				return domain.PurchaseRecord{}, service.ErrDuplicateRequest
			}
			return domain.PurchaseRecord{ID: "p1", BuyerID: buyerID, ListingID: listingID}, nil
		},
	}
	reg := prometheus.NewRegistry()
	m := metrics.NewServerMetrics(reg)
	h := newTestRouter(t, &fakeCart{}, checkout, m)

	rec := doRequest(t, h, http.MethodPost, "/purchases/buy-now/l1", "buyer-1", "", IdempotencyKeyHeader, "key-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"purchase_id":"p1"}`, rec.Body.String())
	assert.Equal(t, "key-1", gotKey)

	tests := []struct {
		listing    string
		wantStatus int
		wantCode   string
	}{
		{listing: "sold", wantStatus: http.StatusConflict, wantCode: "CONFLICT"},
		{listing: "mine", wantStatus: http.StatusBadRequest, wantCode: "BAD_REQUEST"},
		{listing: "dup", wantStatus: http.StatusConflict, wantCode: "CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.listing, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/purchases/buy-now/"+tt.listing, "buyer-1", "")

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeEnvelope(t, rec).Error.Code)
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("buy_now", metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("buy_now", metrics.OutcomeConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("buy_now", metrics.OutcomeDuplicate)))
}

func TestCheckoutSelected(t *testing.T) {
	selected := []domain.PurchaseRecord{{ID: "p1"}, {ID: "p2"}}
	empty := false
	checkout := &fakeCheckout{
		buySelected: func(context.Context, string, string) ([]domain.PurchaseRecord, error) {
			if empty {
				return nil, domain.InvalidStatef("No selected cart items")
			}
			return selected, nil
		},
	}
	h := newTestRouter(t, &fakeCart{}, checkout, nil)

	rec := doRequest(t, h, http.MethodPost, "/purchases/checkout-selected", "buyer-1", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"purchase_ids":["p1","p2"]}`, rec.Body.String())

	empty = true
	rec = doRequest(t, h, http.MethodPost, "/purchases/checkout-selected", "buyer-1", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No selected cart items", decodeEnvelope(t, rec).Error.Message)
}

func TestPurchaseHistory(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	view := domain.PurchaseView{
		PurchaseRecord: domain.PurchaseRecord{ID: "p1", ListingID: "l1", Quantity: 1, Amount: 12000, PurchasedAt: at},
		ListingTitle:   "Camera",
	}
	var salesFor string
	checkout := &fakeCheckout{
		purchases: func(context.Context, string) ([]domain.PurchaseView, error) {
			return []domain.PurchaseView{view}, nil
		},
		sales: func(_ context.Context, sellerID string) ([]domain.PurchaseView, error) {
			salesFor = sellerID
			return nil, nil
		},
	}
	h := newTestRouter(t, &fakeCart{}, checkout, nil)

	rec := doRequest(t, h, http.MethodGet, "/purchases/me", "buyer-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"purchases":[{"id":"p1","listing_id":"l1","listing_title":"Camera","quantity":1,"amount":12000,"purchased_at":"2026-03-01T12:00:00Z"}]}`, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/purchases/sales/me", "seller-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"purchases":[]}`, rec.Body.String())
	assert.Equal(t, "seller-1", salesFor)
}
