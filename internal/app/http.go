package app

import (
	"context"
	"errors"
	"net"
	"net/http"

	"alcyxob/gym-saas/internal/api"
	"alcyxob/gym-saas/internal/config"
	"alcyxob/gym-saas/internal/logger"
	"alcyxob/gym-saas/internal/metrics"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var HTTPModule = fx.Options(
	fx.Provide(provideServices, ProvideRouter),
	fx.Invoke(StartServer),
)

// servicesIn collects every service the API exposes.
type servicesIn struct {
	fx.In

	Auth         service.AuthService
	Identity     service.IdentityService
	Tenant       service.TenantService
	Member       service.MemberService
	Subscription service.SubscriptionService
	Attendance   service.AttendanceService
	Class        service.ClassService
	Workout      service.WorkoutService
	Content      service.ContentService
	Notification service.NotificationService
	Report       service.ReportService
}

func provideServices(in servicesIn) api.Services {
	return api.Services{
		Auth:         in.Auth,
		Identity:     in.Identity,
		Tenant:       in.Tenant,
		Member:       in.Member,
		Subscription: in.Subscription,
		Attendance:   in.Attendance,
		Class:        in.Class,
		Workout:      in.Workout,
		Content:      in.Content,
		Notification: in.Notification,
		Report:       in.Report,
	}
}

// ProvideRouter builds the gin engine with request logging, metrics and the
// API routes.
func ProvideRouter(cfg config.Config, log *zap.Logger, m *metrics.Metrics, svc api.Services) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)
	if err := api.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	if cfg.Metrics.Enabled {
		r.Use(m.Middleware())
		r.GET(cfg.Metrics.Path, m.Handler())
	}

	api.SetupRoutes(r, svc)
	return r, nil
}

func StartServer(lc fx.Lifecycle, cfg config.ServerConfig, engine *gin.Engine, log *zap.Logger) {
	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Address)
			if err != nil {
				return err
			}
			log.Info("starting HTTP server", zap.String("address", cfg.Address))
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("HTTP server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			ctx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(ctx)
		},
	})
}
