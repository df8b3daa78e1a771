// Package app composes the server from its parts with fx.
package app

import (
	"context"
	"fmt"

	"alcyxob/gym-saas/internal/config"
	"alcyxob/gym-saas/internal/jobs"
	"alcyxob/gym-saas/internal/logger"
	"alcyxob/gym-saas/internal/metrics"
	"alcyxob/gym-saas/internal/repository"
	mongorepo "alcyxob/gym-saas/internal/repository/mongo"
	"alcyxob/gym-saas/internal/service"
	"alcyxob/gym-saas/internal/storage"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Options returns the full application graph. configPath is the directory
// holding config.yaml and .env.
func Options(configPath string) fx.Option {
	return fx.Options(
		fx.Supply(configPath),
		ConfigModule,
		LoggerModule,
		DatabaseModule,
		RepositoryModule,
		StorageModule,
		ServiceModule,
		JobsModule,
		HTTPModule,
	)
}

var ConfigModule = fx.Provide(
	config.LoadConfig,
	func(cfg config.Config) config.ServerConfig { return cfg.Server },
	func(cfg config.Config) config.JobsConfig { return cfg.Jobs },
)

var LoggerModule = fx.Options(
	fx.Provide(provideLogger),
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	}),
)

func provideLogger(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	undo := zap.ReplaceGlobals(log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			undo()
			_ = log.Sync()
			return nil
		},
	})
	return log, nil
}

var DatabaseModule = fx.Provide(provideMongoClient, provideDatabase, mongorepo.NewTxRunner)

func provideMongoClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*mongo.Client, error) {
	client, err := mongorepo.ConnectDB(cfg.Database.URI, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	log.Info("database connection established")
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("disconnecting mongodb")
			return mongorepo.DisconnectDB(ctx, client)
		},
	})
	return client, nil
}

// provideDatabase builds the indexes before anything can write; the unique
// ones back the code and attendance invariants.
func provideDatabase(lc fx.Lifecycle, client *mongo.Client, cfg config.Config, log *zap.Logger) *mongo.Database {
	db := client.Database(cfg.Database.Name)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
				return fmt.Errorf("ensure indexes: %w", err)
			}
			log.Info("database indexes ensured")
			return nil
		},
	})
	return db
}

var RepositoryModule = fx.Provide(
	mongorepo.NewMongoCounterRepository,
	mongorepo.NewMongoGymRepository,
	mongorepo.NewMongoBranchRepository,
	mongorepo.NewMongoProfileRepository,
	mongorepo.NewMongoPlanRepository,
	mongorepo.NewMongoTenantSubscriptionRepository,
	mongorepo.NewMongoMemberSubscriptionRepository,
	mongorepo.NewMongoAttendanceRepository,
	mongorepo.NewMongoClassRepository,
	mongorepo.NewMongoBookingRepository,
	mongorepo.NewMongoWorkoutPlanRepository,
	mongorepo.NewMongoWorkoutProgramRepository,
	mongorepo.NewMongoContentRepository,
	mongorepo.NewMongoNotificationRepository,
	mongorepo.NewMongoAuditRepository,
)

var StorageModule = fx.Provide(func(cfg config.Config, log *zap.Logger) (storage.FileStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	defer cancel()
	return storage.NewS3Storage(ctx, cfg.S3, log)
})

var ServiceModule = fx.Options(
	fx.Provide(
		func() service.Clock { return service.SystemClock },
		metrics.New,
		service.NewAuditor,
		service.NewCodeIssuer,
		service.NewIdentityService,
		service.NewSubscriptionService,
		service.NewMemberService,
		service.NewAttendanceService,
		service.NewClassService,
		service.NewWorkoutService,
		service.NewNotificationService,
		service.NewReportService,
		provideAuthService,
		provideTenantService,
		provideContentService,
	),
)

func provideAuthService(cfg config.Config, profiles repository.ProfileRepository, clock service.Clock) service.AuthService {
	return service.NewAuthService(profiles, cfg.JWT.Secret, cfg.JWT.Expiration, clock)
}

func provideTenantService(
	cfg config.Config,
	tx repository.TxRunner,
	gyms repository.GymRepository,
	branches repository.BranchRepository,
	profiles repository.ProfileRepository,
	codes *service.CodeIssuer,
	subscriptions service.SubscriptionService,
	audit *service.Auditor,
	m *metrics.Metrics,
) service.TenantService {
	return service.NewTenantService(tx, gyms, branches, profiles, codes, subscriptions, audit, m, cfg.Tenancy.DefaultTimezone)
}

func provideContentService(
	cfg config.Config,
	items repository.ContentRepository,
	files storage.FileStorage,
	subscriptions service.SubscriptionService,
	clock service.Clock,
) service.ContentService {
	return service.NewContentService(items, files, subscriptions, cfg.S3.PresignExpiry, clock)
}

var JobsModule = fx.Invoke(startScheduler)

func startScheduler(lc fx.Lifecycle, cfg config.JobsConfig, subs service.SubscriptionService, log *zap.Logger) error {
	if !cfg.Enabled {
		log.Info("background jobs disabled")
		return nil
	}
	scheduler, err := jobs.NewScheduler(cfg, subs, log.Named("jobs"))
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: scheduler.Stop,
	})
	return nil
}
