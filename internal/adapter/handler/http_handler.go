package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/auth"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/domain"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/logging"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/metrics"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"

	maxQuantity = 99
)

type CartUseCase interface {
	Add(ctx context.Context, buyerID, listingID string) (string, error)
	List(ctx context.Context, buyerID string) (domain.CartSummary, error)
	Update(ctx context.Context, buyerID, entryID string, update domain.CartUpdate) error
	Remove(ctx context.Context, buyerID, entryID string) error
}

type CheckoutUseCase interface {
	BuyNowOnce(ctx context.Context, requestKey, buyerID, listingID string) (domain.PurchaseRecord, error)
	BuySelectedOnce(ctx context.Context, requestKey, buyerID string) ([]domain.PurchaseRecord, error)
	PurchasesOf(ctx context.Context, buyerID string) ([]domain.PurchaseView, error)
	SalesOf(ctx context.Context, sellerID string) ([]domain.PurchaseView, error)
}

type HTTPHandler struct {
	cart     CartUseCase
	checkout CheckoutUseCase
	metrics  *metrics.ServerMetrics
	logger   logging.Logger
}

type AddToCartRequest struct {
	ListingID string `json:"listing_id"`
	Quantity  *int   `json:"quantity"`
}

type UpdateCartRequest struct {
	Quantity *int  `json:"quantity"`
	Selected *bool `json:"selected"`
}

type CartItemResponse struct {
	ID        string `json:"id"`
	ListingID string `json:"listing_id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Selected  bool   `json:"selected"`
	Subtotal  int64  `json:"subtotal"`
}

type CartResponse struct {
	Items       []CartItemResponse `json:"items"`
	TotalAmount int64              `json:"total_amount"`
}

type PurchaseItemResponse struct {
	ID           string    `json:"id"`
	ListingID    string    `json:"listing_id"`
	ListingTitle string    `json:"listing_title"`
	Quantity     int       `json:"quantity"`
	Amount       int64     `json:"amount"`
	PurchasedAt  time.Time `json:"purchased_at"`
}

type PurchasesResponse struct {
	Purchases []PurchaseItemResponse `json:"purchases"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// NewHTTPHandler wires the use cases. m may be nil when metrics are off.
func NewHTTPHandler(cart CartUseCase, checkout CheckoutUseCase, m *metrics.ServerMetrics, logger logging.Logger) *HTTPHandler {
	return &HTTPHandler{cart: cart, checkout: checkout, metrics: m, logger: logger}
}

// Routes mounts the authenticated marketplace API on r.
func (h *HTTPHandler) Routes(r chi.Router, parser auth.TokenParser) {
	r.Get("/health", h.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(parser))

		r.Route("/cart", func(r chi.Router) {
			r.Post("/", h.AddToCart)
			r.Get("/", h.GetCart)
			r.Patch("/{id}", h.UpdateCartEntry)
			r.Delete("/{id}", h.RemoveCartEntry)
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Post("/buy-now/{listingID}", h.BuyNow)
			r.Post("/checkout-selected", h.CheckoutSelected)
			r.Get("/me", h.MyPurchases)
			r.Get("/sales/me", h.MySales)
		})
	})
}

func (h *HTTPHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())

	var req AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, r, FieldError{Field: "body", Message: "invalid JSON body"})
		return
	}
	if req.ListingID == "" {
		writeValidationError(w, r, FieldError{Field: "listing_id", Message: "field required"})
		return
	}
	if req.Quantity != nil && (*req.Quantity < 1 || *req.Quantity > maxQuantity) {
		writeValidationError(w, r, FieldError{Field: "quantity", Message: "must be between 1 and 99"})
		return
	}

	id, err := h.cart.Add(r.Context(), userID, req.ListingID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())

	summary, err := h.cart.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	resp := CartResponse{Items: make([]CartItemResponse, 0, len(summary.Lines)), TotalAmount: summary.TotalAmount}
	for _, line := range summary.Lines {
		item := CartItemResponse{
			ID:        line.Entry.ID,
			ListingID: line.Entry.ListingID,
			Quantity:  line.Entry.Quantity,
			Selected:  line.Entry.Selected,
			Subtotal:  line.Subtotal(),
		}
		if line.Listing != nil {
			item.Title = line.Listing.Title
			item.Status = string(line.Listing.Status)
			item.Price = line.Listing.Price
		}
		resp.Items = append(resp.Items, item)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) UpdateCartEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())

	var req UpdateCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, r, FieldError{Field: "body", Message: "invalid JSON body"})
		return
	}
	if req.Quantity != nil && (*req.Quantity < 1 || *req.Quantity > maxQuantity) {
		writeValidationError(w, r, FieldError{Field: "quantity", Message: "must be between 1 and 99"})
		return
	}

	err := h.cart.Update(r.Context(), userID, chi.URLParam(r, "id"), domain.CartUpdate{
		Quantity: req.Quantity,
		Selected: req.Selected,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Cart updated"})
}

func (h *HTTPHandler) RemoveCartEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())

	if err := h.cart.Remove(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Cart item deleted"})
}

func (h *HTTPHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())

	purchase, err := h.checkout.BuyNowOnce(r.Context(), r.Header.Get(IdempotencyKeyHeader), userID, chi.URLParam(r, "listingID"))
	h.observe("buy_now", err)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"purchase_id": purchase.ID})
}

func (h *HTTPHandler) CheckoutSelected(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())

	purchases, err := h.checkout.BuySelectedOnce(r.Context(), r.Header.Get(IdempotencyKeyHeader), userID)
	h.observe("checkout_selected", err)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	ids := make([]string, 0, len(purchases))
	for _, p := range purchases {
		ids = append(ids, p.ID)
	}

	writeJSON(w, http.StatusCreated, map[string][]string{"purchase_ids": ids})
}

func (h *HTTPHandler) MyPurchases(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())

	views, err := h.checkout.PurchasesOf(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toPurchasesResponse(views))
}

func (h *HTTPHandler) MySales(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFrom(r.Context())

	views, err := h.checkout.SalesOf(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toPurchasesResponse(views))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) observe(operation string, err error) {
	if h.metrics != nil {
		h.metrics.ObserveCheckout(operation, err)
	}
}

func toPurchasesResponse(views []domain.PurchaseView) PurchasesResponse {
	resp := PurchasesResponse{Purchases: make([]PurchaseItemResponse, 0, len(views))}
	for _, v := range views {
		resp.Purchases = append(resp.Purchases, PurchaseItemResponse{
			ID:           v.ID,
			ListingID:    v.ListingID,
			ListingTitle: v.ListingTitle,
			Quantity:     v.Quantity,
			Amount:       v.Amount,
			PurchasedAt:  v.PurchasedAt,
		})
	}
	return resp
}
