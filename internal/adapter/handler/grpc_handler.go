package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/acp-checkout/internal/core/domain"
	"github.com/rl1809/acp-checkout/internal/core/service"
	"github.com/rl1809/acp-checkout/internal/logger"
)

// GRPCHandler reports rejected operations inside the reply. Only internal
// failures become gRPC status errors.
type GRPCHandler struct {
	checkouts *service.CheckoutService
	log       *logger.Logger
}

var _ CheckoutServiceServer = (*GRPCHandler)(nil)

func NewGRPCHandler(checkouts *service.CheckoutService, log *logger.Logger) *GRPCHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GRPCHandler{checkouts: checkouts, log: log}
}

func (h *GRPCHandler) CreateCheckout(ctx context.Context, req *CreateCheckoutRequest) (*CheckoutReply, error) {
	return h.reply(h.checkouts.Create(ctx, req.CreateRequest))
}

func (h *GRPCHandler) GetCheckout(ctx context.Context, req *GetCheckoutRequest) (*CheckoutReply, error) {
	return h.reply(h.checkouts.Get(ctx, req.ID))
}

func (h *GRPCHandler) UpdateCheckout(ctx context.Context, req *UpdateCheckoutRequest) (*CheckoutReply, error) {
	return h.reply(h.checkouts.Update(ctx, req.ID, req.UpdateRequest))
}

func (h *GRPCHandler) CompleteCheckout(ctx context.Context, req *CompleteCheckoutRequest) (*CheckoutReply, error) {
	return h.reply(h.checkouts.Complete(ctx, req.ID, req.CompleteRequest))
}

func (h *GRPCHandler) CancelCheckout(ctx context.Context, req *CancelCheckoutRequest) (*CheckoutReply, error) {
	return h.reply(h.checkouts.Cancel(ctx, req.ID))
}

func (h *GRPCHandler) ListProducts(ctx context.Context, req *ListProductsRequest) (*ProductsReply, error) {
	return &ProductsReply{Products: h.checkouts.ListProducts()}, nil
}

func (h *GRPCHandler) reply(session *domain.Session, err error) (*CheckoutReply, error) {
	if err == nil {
		return &CheckoutReply{Checkout: session}, nil
	}
	var derr *domain.Error
	if errors.As(err, &derr) && derr.Kind != domain.KindInternal {
		return &CheckoutReply{Error: derr}, nil
	}
	h.log.Error("grpc checkout call failed", "error", err)
	return nil, status.Error(codes.Internal, service.ErrInternal.Message)
}
