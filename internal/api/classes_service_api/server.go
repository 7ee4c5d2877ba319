package classes_service_api

import (
	"context"
	"time"

	"github.com/Domenick1991/fitbooking/internal/api/grpcjson"
	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/Domenick1991/fitbooking/internal/service/classes"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

const ServiceName = "fitbooking.v1.Classes"

type ListClassesRequest struct {
	Timezone     string `json:"timezone_str"`
	UpcomingOnly *bool  `json:"upcoming_only,omitempty"`
}

type ListClassesResponse struct {
	Classes []domain.ClassView `json:"classes"`
}

type CreateClassRequest struct {
	Name        string `json:"name"`
	Instructor  string `json:"instructor"`
	DatetimeStr string `json:"datetime_str"`
	TotalSlots  int    `json:"total_slots"`
	Timezone    string `json:"timezone_str"`
}

type GetClassRequest struct {
	ID string `json:"id"`
}

type Class struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Instructor string    `json:"instructor"`
	StartsAt   time.Time `json:"starts_at"`
	Timezone   string    `json:"timezone"`
	TotalSlots int       `json:"total_slots"`
}

type ClassesServer interface {
	ListClasses(ctx context.Context, req *ListClassesRequest) (*ListClassesResponse, error)
	CreateClass(ctx context.Context, req *CreateClassRequest) (*domain.ClassView, error)
	GetClass(ctx context.Context, req *GetClassRequest) (*Class, error)
}

// Server exposes the class catalog over gRPC.
type Server struct {
	classes classes.ClassUseCase
	log     zerolog.Logger
}

func NewServer(classes classes.ClassUseCase, log zerolog.Logger) *Server {
	return &Server{classes: classes, log: log}
}

func (s *Server) ListClasses(ctx context.Context, req *ListClassesRequest) (*ListClassesResponse, error) {
	views, err := s.classes.List(ctx, req.Timezone, grpcjson.UpcomingOnly(req.UpcomingOnly))
	if err != nil {
		return nil, s.fail(err, "ListClasses")
	}
	return &ListClassesResponse{Classes: views}, nil
}

func (s *Server) CreateClass(ctx context.Context, req *CreateClassRequest) (*domain.ClassView, error) {
	view, err := s.classes.Create(ctx, classes.CreateClassInput{
		Name:        req.Name,
		Instructor:  req.Instructor,
		DatetimeStr: req.DatetimeStr,
		TotalSlots:  req.TotalSlots,
		Timezone:    req.Timezone,
	})
	if err != nil {
		return nil, s.fail(err, "CreateClass")
	}
	return view, nil
}

func (s *Server) GetClass(ctx context.Context, req *GetClassRequest) (*Class, error) {
	c, err := s.classes.Get(ctx, req.ID)
	if err != nil {
		return nil, s.fail(err, "GetClass")
	}
	return &Class{
		ID:         c.ID,
		Name:       c.Name,
		Instructor: c.Instructor,
		StartsAt:   c.StartsAt,
		Timezone:   c.Timezone,
		TotalSlots: c.TotalSlots,
	}, nil
}

func (s *Server) fail(err error, method string) error {
	if domain.KindOf(err) == nil {
		s.log.Error().Err(err).Str("method", method).Msg("grpc call failed")
	}
	return grpcjson.Error(err)
}

func Register(registrar grpc.ServiceRegistrar, srv ClassesServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ClassesServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListClasses", Handler: listClassesHandler},
		{MethodName: "CreateClass", Handler: createClassHandler},
		{MethodName: "GetClass", Handler: getClassHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func listClassesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListClassesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassesServer).ListClasses(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ListClasses"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ClassesServer).ListClasses(ctx, req.(*ListClassesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func createClassHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateClassRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassesServer).CreateClass(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CreateClass"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ClassesServer).CreateClass(ctx, req.(*CreateClassRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getClassHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetClassRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassesServer).GetClass(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetClass"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ClassesServer).GetClass(ctx, req.(*GetClassRequest))
	}
	return interceptor(ctx, in, info, handler)
}

type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ListClasses(ctx context.Context, req *ListClassesRequest, opts ...grpc.CallOption) (*ListClassesResponse, error) {
	out := new(ListClassesResponse)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ListClasses", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateClass(ctx context.Context, req *CreateClassRequest, opts ...grpc.CallOption) (*domain.ClassView, error) {
	out := new(domain.ClassView)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/CreateClass", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetClass(ctx context.Context, req *GetClassRequest, opts ...grpc.CallOption) (*Class, error) {
	out := new(Class)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetClass", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

var _ ClassesServer = (*Server)(nil)
