package handler

import (
	"context"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/adapter/handler/pb"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/auth"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/domain"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/logging"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/metrics"
)

const (
	authorizationMetadata  = "authorization"
	idempotencyKeyMetadata = "idempotency-key"
)

type GRPCHandler struct {
	pb.UnimplementedCheckoutServiceServer
	checkout CheckoutUseCase
	metrics  *metrics.ServerMetrics
	logger   logging.Logger
}

func NewGRPCHandler(checkout CheckoutUseCase, m *metrics.ServerMetrics, logger logging.Logger) *GRPCHandler {
	return &GRPCHandler{checkout: checkout, metrics: m, logger: logger}
}

func (h *GRPCHandler) BuyNow(ctx context.Context, req *pb.BuyNowRequest) (*pb.BuyNowResponse, error) {
	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing identity")
	}
	if req.GetListingId() == "" {
		return nil, status.Error(codes.InvalidArgument, "listing_id is required")
	}

	purchase, err := h.checkout.BuyNowOnce(ctx, incomingValue(ctx, idempotencyKeyMetadata), userID, req.GetListingId())
	h.observe("buy_now", err)
	if err != nil {
		code, message := h.failure(err)
		return &pb.BuyNowResponse{Success: false, Message: message, Code: code}, nil
	}

	return &pb.BuyNowResponse{
		Success:    true,
		Message:    "purchase completed",
		PurchaseId: purchase.ID,
	}, nil
}

func (h *GRPCHandler) CheckoutSelected(ctx context.Context, _ *pb.CheckoutSelectedRequest) (*pb.CheckoutSelectedResponse, error) {
	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing identity")
	}

	purchases, err := h.checkout.BuySelectedOnce(ctx, incomingValue(ctx, idempotencyKeyMetadata), userID)
	h.observe("checkout_selected", err)
	if err != nil {
		code, message := h.failure(err)
		return &pb.CheckoutSelectedResponse{Success: false, Message: message, Code: code}, nil
	}

	ids := make([]string, 0, len(purchases))
	for _, p := range purchases {
		ids = append(ids, p.ID)
	}

	return &pb.CheckoutSelectedResponse{
		Success:     true,
		Message:     "checkout completed",
		PurchaseIds: ids,
	}, nil
}

// failure reports a checkout error with the same code and message the HTTP
// envelope would carry.
func (h *GRPCHandler) failure(err error) (string, string) {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		h.logger.Error("grpc checkout failed", "error", err)
		return codeFromStatus(http.StatusInternalServerError), msgInternal
	}
	return codeFromStatus(statusFromKind(kind)), domain.MessageOf(err)
}

func (h *GRPCHandler) observe(operation string, err error) {
	if h.metrics != nil {
		h.metrics.ObserveCheckout(operation, err)
	}
}

// AuthUnaryInterceptor resolves the bearer token in the authorization
// metadata into a user id on the handler context.
func AuthUnaryInterceptor(parser auth.TokenParser) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		token, err := auth.BearerToken(incomingValue(ctx, authorizationMetadata))
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "not authenticated")
		}

		claims, err := parser.ParseToken(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		return handler(auth.WithUserID(ctx, claims.Subject), req)
	}
}

func incomingValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}
