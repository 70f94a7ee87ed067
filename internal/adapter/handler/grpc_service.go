package handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/rl1809/acp-checkout/internal/core/domain"
	"github.com/rl1809/acp-checkout/internal/core/service"
)

const checkoutServiceName = "checkout.v1.CheckoutService"

type CreateCheckoutRequest struct {
	service.CreateRequest
}

type GetCheckoutRequest struct {
	ID string `json:"id"`
}

type UpdateCheckoutRequest struct {
	ID string `json:"id"`
	service.UpdateRequest
}

type CompleteCheckoutRequest struct {
	ID string `json:"id"`
	service.CompleteRequest
}

type CancelCheckoutRequest struct {
	ID string `json:"id"`
}

type ListProductsRequest struct{}

// CheckoutReply holds either the resulting checkout or the reason it was
// rejected.
type CheckoutReply struct {
	Checkout *domain.Session `json:"checkout,omitempty"`
	Error    *domain.Error   `json:"error,omitempty"`
}

type ProductsReply struct {
	Products []domain.Product `json:"products"`
}

type CheckoutServiceServer interface {
	CreateCheckout(context.Context, *CreateCheckoutRequest) (*CheckoutReply, error)
	GetCheckout(context.Context, *GetCheckoutRequest) (*CheckoutReply, error)
	UpdateCheckout(context.Context, *UpdateCheckoutRequest) (*CheckoutReply, error)
	CompleteCheckout(context.Context, *CompleteCheckoutRequest) (*CheckoutReply, error)
	CancelCheckout(context.Context, *CancelCheckoutRequest) (*CheckoutReply, error)
	ListProducts(context.Context, *ListProductsRequest) (*ProductsReply, error)
}

func RegisterCheckoutServiceServer(s grpc.ServiceRegistrar, srv CheckoutServiceServer) {
	s.RegisterService(&checkoutServiceDesc, srv)
}

var checkoutServiceDesc = grpc.ServiceDesc{
	ServiceName: checkoutServiceName,
	HandlerType: (*CheckoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateCheckout", Handler: unaryHandler("CreateCheckout", CheckoutServiceServer.CreateCheckout)},
		{MethodName: "GetCheckout", Handler: unaryHandler("GetCheckout", CheckoutServiceServer.GetCheckout)},
		{MethodName: "UpdateCheckout", Handler: unaryHandler("UpdateCheckout", CheckoutServiceServer.UpdateCheckout)},
		{MethodName: "CompleteCheckout", Handler: unaryHandler("CompleteCheckout", CheckoutServiceServer.CompleteCheckout)},
		{MethodName: "CancelCheckout", Handler: unaryHandler("CancelCheckout", CheckoutServiceServer.CancelCheckout)},
		{MethodName: "ListProducts", Handler: unaryHandler("ListProducts", CheckoutServiceServer.ListProducts)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "checkout/v1/checkout.json",
}

func fullMethod(method string) string {
	return "/" + checkoutServiceName + "/" + method
}

func unaryHandler[Req, Resp any](
	method string,
	call func(CheckoutServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CheckoutServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(CheckoutServiceServer), ctx, req.(*Req))
		})
	}
}

// CheckoutClient calls CheckoutService over a connection using the JSON codec.
type CheckoutClient struct {
	cc grpc.ClientConnInterface
}

func NewCheckoutClient(cc grpc.ClientConnInterface) *CheckoutClient {
	return &CheckoutClient{cc: cc}
}

func (c *CheckoutClient) CreateCheckout(ctx context.Context, in *CreateCheckoutRequest, opts ...grpc.CallOption) (*CheckoutReply, error) {
	out := new(CheckoutReply)
	return out, c.invoke(ctx, "CreateCheckout", in, out, opts)
}

func (c *CheckoutClient) GetCheckout(ctx context.Context, in *GetCheckoutRequest, opts ...grpc.CallOption) (*CheckoutReply, error) {
	out := new(CheckoutReply)
	return out, c.invoke(ctx, "GetCheckout", in, out, opts)
}

func (c *CheckoutClient) UpdateCheckout(ctx context.Context, in *UpdateCheckoutRequest, opts ...grpc.CallOption) (*CheckoutReply, error) {
	out := new(CheckoutReply)
	return out, c.invoke(ctx, "UpdateCheckout", in, out, opts)
}

func (c *CheckoutClient) CompleteCheckout(ctx context.Context, in *CompleteCheckoutRequest, opts ...grpc.CallOption) (*CheckoutReply, error) {
	out := new(CheckoutReply)
	return out, c.invoke(ctx, "CompleteCheckout", in, out, opts)
}

func (c *CheckoutClient) CancelCheckout(ctx context.Context, in *CancelCheckoutRequest, opts ...grpc.CallOption) (*CheckoutReply, error) {
	out := new(CheckoutReply)
	return out, c.invoke(ctx, "CancelCheckout", in, out, opts)
}

func (c *CheckoutClient) ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ProductsReply, error) {
	out := new(ProductsReply)
	return out, c.invoke(ctx, "ListProducts", in, out, opts)
}

func (c *CheckoutClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}
