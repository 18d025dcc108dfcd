package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/caravalia/reservas/api"
	"github.com/caravalia/reservas/config"
	"github.com/gin-gonic/gin"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const swaggerSpecPath = "/swagger/reservations.swagger.json"

type Handlers struct {
	Models       *api.ModelHandler
	Wizard       *api.WizardHandler
	Reservations *api.ReservationHandler
}

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	health     *health.Server
	healthConn *grpc.ClientConn
}

// Run starts the gRPC health server and the HTTP API and blocks until context is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, handlers Handlers) error {
	s, err := newServers(cfg, handlers)
	if err != nil {
		return err
	}
	defer s.healthConn.Close()

	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()

	go func() {
		log.Printf("http: listening on %s", cfg.HTTP.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.health.Shutdown()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.grpcServer.GracefulStop()
		return nil
	}
}

func newServers(cfg *config.Config, handlers Handlers) (*Servers, error) {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	conn, err := grpc.NewClient(dialTarget(cfg.GRPC.Address), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial gRPC health: %w", err)
	}

	router, err := NewRouter(cfg, handlers, healthpb.NewHealthClient(conn))
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{Addr: cfg.HTTP.Address, Handler: router},
		health:     healthSrv,
		healthConn: conn,
	}, nil
}

// NewRouter mounts the JSON API under /api, the gateway health check at
// /healthz and the swagger UI at /docs.
func NewRouter(cfg *config.Config, handlers Handlers, healthClient healthpb.HealthClient) (*gin.Engine, error) {
	if err := api.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	group := router.Group("/api")
	handlers.Models.Register(group.Group("/models"))
	handlers.Wizard.Register(group.Group("/wizard"))
	handlers.Reservations.Register(group.Group("/reservations"))

	gateway := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthClient))
	router.GET("/healthz", gin.WrapH(gateway))

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(swaggerSpecPath))))
	}
	return router, nil
}

func dialTarget(address string) string {
	if strings.HasPrefix(address, ":") {
		return "localhost" + address
	}
	return address
}
