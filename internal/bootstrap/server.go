package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/fitbooking/api"
	"github.com/Domenick1991/fitbooking/config"
	bookingsapi "github.com/Domenick1991/fitbooking/internal/api/bookings_service_api"
	classesapi "github.com/Domenick1991/fitbooking/internal/api/classes_service_api"
	"github.com/Domenick1991/fitbooking/internal/clock"
	"github.com/Domenick1991/fitbooking/internal/service/booking"
	"github.com/Domenick1991/fitbooking/internal/service/classes"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const swaggerFile = "fitbooking.swagger.json"

type Services struct {
	Classes  classes.ClassUseCase
	Bookings booking.BookingUseCase
}

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
	log        zerolog.Logger
}

// Run starts the HTTP server and, when configured, the gRPC server, and
// blocks until ctx is cancelled or a server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services, log zerolog.Logger) error {
	s := newServers(cfg, svc, log)

	errCh := make(chan error, 2)

	if s.grpcServer != nil {
		lis, err := net.Listen("tcp", cfg.GRPC.Address)
		if err != nil {
			return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
		}
		log.Info().Str("address", cfg.GRPC.Address).Msg("grpc server listening")
		go func() { errCh <- s.grpcServer.Serve(lis) }()
	}

	log.Info().Str("address", cfg.HTTP.Address).Msg("http server listening")
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed, shutting down")
		if shutdownErr := s.shutdown(); shutdownErr != nil {
			log.Warn().Err(shutdownErr).Msg("shutdown after failure")
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down servers")
		return s.shutdown()
	}
}

func (s *Servers) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.grpcServer != nil {
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	}
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func newServers(cfg *config.Config, svc Services, log zerolog.Logger) *Servers {
	s := &Servers{log: log}

	if cfg.GRPC.Address != "" {
		s.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(log)))
		classesapi.Register(s.grpcServer, classesapi.NewServer(svc.Classes, log))
		bookingsapi.Register(s.grpcServer, bookingsapi.NewServer(svc.Bookings, log))

		s.health = health.NewServer()
		healthpb.RegisterHealthServer(s.grpcServer, s.health)
		s.health.SetServingStatus(classesapi.ServiceName, healthpb.HealthCheckResponse_SERVING)
		s.health.SetServingStatus(bookingsapi.ServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      NewRouter(cfg.HTTP, svc, log),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSeconds) * time.Second,
	}
	return s
}

// NewRouter builds the gin engine with every HTTP route of the service.
func NewRouter(cfg config.HTTPConfig, svc Services, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(log))

	api.NewHealthHandler(clock.NewSystem()).Register(router)
	api.NewClassHandler(svc.Classes, log).Register(router)
	api.NewBookingHandler(svc.Bookings, log).Register(router)

	if cfg.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.SwaggerDir))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/"+swaggerFile),
		)))
	}
	return router
}

func unaryLogger(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		event := log.Info()
		if err != nil {
			event = log.Warn().Err(err)
		}
		event.Str("method", info.FullMethod).Dur("latency", time.Since(start)).Msg("grpc request")
		return resp, err
	}
}
