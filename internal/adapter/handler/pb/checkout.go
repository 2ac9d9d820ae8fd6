// Package pb holds the wire types and service descriptor of
// marketplace.v1.CheckoutService. Messages travel as JSON through a codec
// registered under the "json" content-subtype.
package pb

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

const Codec = "json"

const (
	CheckoutService_BuyNow_FullMethodName           = "/marketplace.v1.CheckoutService/BuyNow"
	CheckoutService_CheckoutSelected_FullMethodName = "/marketplace.v1.CheckoutService/CheckoutSelected"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return Codec
}

type BuyNowRequest struct {
	ListingId string `json:"listing_id,omitempty"`
}

func (x *BuyNowRequest) GetListingId() string {
	if x != nil {
		return x.ListingId
	}
	return ""
}

type BuyNowResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	PurchaseId string `json:"purchase_id,omitempty"`
}

func (x *BuyNowResponse) GetSuccess() bool {
	if x != nil {
		return x.Success
	}
	return false
}

func (x *BuyNowResponse) GetMessage() string {
	if x != nil {
		return x.Message
	}
	return ""
}

func (x *BuyNowResponse) GetCode() string {
	if x != nil {
		return x.Code
	}
	return ""
}

func (x *BuyNowResponse) GetPurchaseId() string {
	if x != nil {
		return x.PurchaseId
	}
	return ""
}

type CheckoutSelectedRequest struct{}

type CheckoutSelectedResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	Code        string   `json:"code,omitempty"`
	PurchaseIds []string `json:"purchase_ids,omitempty"`
}

func (x *CheckoutSelectedResponse) GetSuccess() bool {
	if x != nil {
		return x.Success
	}
	return false
}

func (x *CheckoutSelectedResponse) GetMessage() string {
	if x != nil {
		return x.Message
	}
	return ""
}

func (x *CheckoutSelectedResponse) GetCode() string {
	if x != nil {
		return x.Code
	}
	return ""
}

func (x *CheckoutSelectedResponse) GetPurchaseIds() []string {
	if x != nil {
		return x.PurchaseIds
	}
	return nil
}

type CheckoutServiceClient interface {
	BuyNow(ctx context.Context, in *BuyNowRequest, opts ...grpc.CallOption) (*BuyNowResponse, error)
	CheckoutSelected(ctx context.Context, in *CheckoutSelectedRequest, opts ...grpc.CallOption) (*CheckoutSelectedResponse, error)
}

type checkoutServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCheckoutServiceClient(cc grpc.ClientConnInterface) CheckoutServiceClient {
	return &checkoutServiceClient{cc}
}

func (c *checkoutServiceClient) BuyNow(ctx context.Context, in *BuyNowRequest, opts ...grpc.CallOption) (*BuyNowResponse, error) {
	out := new(BuyNowResponse)
	err := c.cc.Invoke(ctx, CheckoutService_BuyNow_FullMethodName, in, out, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *checkoutServiceClient) CheckoutSelected(ctx context.Context, in *CheckoutSelectedRequest, opts ...grpc.CallOption) (*CheckoutSelectedResponse, error) {
	out := new(CheckoutSelectedResponse)
	err := c.cc.Invoke(ctx, CheckoutService_CheckoutSelected_FullMethodName, in, out, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(Codec)}, opts...)
}

// CheckoutServiceServer is the server API for CheckoutService.
// All implementations must embed UnimplementedCheckoutServiceServer.
type CheckoutServiceServer interface {
	BuyNow(context.Context, *BuyNowRequest) (*BuyNowResponse, error)
	CheckoutSelected(context.Context, *CheckoutSelectedRequest) (*CheckoutSelectedResponse, error)
	mustEmbedUnimplementedCheckoutServiceServer()
}

type UnimplementedCheckoutServiceServer struct{}

func (UnimplementedCheckoutServiceServer) BuyNow(context.Context, *BuyNowRequest) (*BuyNowResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method BuyNow not implemented")
}

func (UnimplementedCheckoutServiceServer) CheckoutSelected(context.Context, *CheckoutSelectedRequest) (*CheckoutSelectedResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CheckoutSelected not implemented")
}

func (UnimplementedCheckoutServiceServer) mustEmbedUnimplementedCheckoutServiceServer() {}

func RegisterCheckoutServiceServer(s grpc.ServiceRegistrar, srv CheckoutServiceServer) {
	s.RegisterService(&CheckoutService_ServiceDesc, srv)
}

func _CheckoutService_BuyNow_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BuyNowRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CheckoutServiceServer).BuyNow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CheckoutService_BuyNow_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CheckoutServiceServer).BuyNow(ctx, req.(*BuyNowRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CheckoutService_CheckoutSelected_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckoutSelectedRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CheckoutServiceServer).CheckoutSelected(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CheckoutService_CheckoutSelected_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CheckoutServiceServer).CheckoutSelected(ctx, req.(*CheckoutSelectedRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var CheckoutService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "marketplace.v1.CheckoutService",
	HandlerType: (*CheckoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "BuyNow",
			Handler:    _CheckoutService_BuyNow_Handler,
		},
		{
			MethodName: "CheckoutSelected",
			Handler:    _CheckoutService_CheckoutSelected_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketplace/v1/checkout.proto",
}
