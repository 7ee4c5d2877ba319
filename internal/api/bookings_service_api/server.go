package bookings_service_api

import (
	"context"

	"github.com/Domenick1991/fitbooking/internal/api/grpcjson"
	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/Domenick1991/fitbooking/internal/service/booking"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

const ServiceName = "fitbooking.v1.Bookings"

type BookClassRequest struct {
	ClassID     string `json:"class_id"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
}

type ListBookingsRequest struct {
	Email        string `json:"email"`
	UpcomingOnly *bool  `json:"upcoming_only,omitempty"`
}

type ListBookingsResponse struct {
	Bookings []domain.BookingView `json:"bookings"`
}

type BookingsServer interface {
	BookClass(ctx context.Context, req *BookClassRequest) (*domain.BookingView, error)
	ListBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error)
}

// Server exposes the booking ledger over gRPC.
type Server struct {
	bookings booking.BookingUseCase
	log      zerolog.Logger
}

func NewServer(bookings booking.BookingUseCase, log zerolog.Logger) *Server {
	return &Server{bookings: bookings, log: log}
}

func (s *Server) BookClass(ctx context.Context, req *BookClassRequest) (*domain.BookingView, error) {
	view, err := s.bookings.Book(ctx, booking.BookInput{
		ClassID:     req.ClassID,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
	})
	if err != nil {
		if domain.KindOf(err) == nil {
			s.log.Error().Err(err).Str("class_id", req.ClassID).Msg("grpc BookClass failed")
		}
		return nil, grpcjson.Error(err)
	}
	return view, nil
}

func (s *Server) ListBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error) {
	views, err := s.bookings.ListForUser(ctx, req.Email, grpcjson.UpcomingOnly(req.UpcomingOnly))
	if err != nil {
		if domain.KindOf(err) == nil {
			s.log.Error().Err(err).Msg("grpc ListBookings failed")
		}
		return nil, grpcjson.Error(err)
	}
	return &ListBookingsResponse{Bookings: views}, nil
}

func Register(registrar grpc.ServiceRegistrar, srv BookingsServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "BookClass", Handler: bookClassHandler},
		{MethodName: "ListBookings", Handler: listBookingsHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func bookClassHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BookClassRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingsServer).BookClass(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/BookClass"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingsServer).BookClass(ctx, req.(*BookClassRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listBookingsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListBookingsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingsServer).ListBookings(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ListBookings"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingsServer).ListBookings(ctx, req.(*ListBookingsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the bookings service on a connection dialled with
// grpcjson.CallOption.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) BookClass(ctx context.Context, req *BookClassRequest, opts ...grpc.CallOption) (*domain.BookingView, error) {
	out := new(domain.BookingView)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/BookClass", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListBookings(ctx context.Context, req *ListBookingsRequest, opts ...grpc.CallOption) (*ListBookingsResponse, error) {
	out := new(ListBookingsResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ListBookings", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

var _ BookingsServer = (*Server)(nil)
