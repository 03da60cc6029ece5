package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/caiyueliang/fundnav-backend/internal/adapter/eastmoney"
	grpcadapter "github.com/caiyueliang/fundnav-backend/internal/adapter/grpc"
	navsyncv1 "github.com/caiyueliang/fundnav-backend/internal/adapter/grpc/navsync/v1"
	"github.com/caiyueliang/fundnav-backend/internal/adapter/repository/sqlstore"
	"github.com/caiyueliang/fundnav-backend/internal/common"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/listing"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/navsync"
	"github.com/caiyueliang/fundnav-backend/internal/usecase/seeder"
)

func main() {
	configPath := flag.String("config", os.Getenv("FUNDNAV_CONFIG"), "path to the TOML config file")
	flag.Parse()

	// 1. Load configuration and logging
	config, err := common.LoadConfig("config.toml", *configPath)
	if err != nil {
		common.NewLogger("info", "json").Fatal().Err(err).Msg("Failed to load config")
	}
	logger := common.NewLogger(config.Logging.Level, config.Logging.Format)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 2. Setup Database
	db, err := sqlstore.NewDB(config.Database.Driver, config.Database.ConnectionString())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create schema")
	}

	// 3. Initialize Repositories
	fundRepo := sqlstore.NewFundRepository(db)
	navRepo := sqlstore.NewNavRepository(db)

	// 4. Initialize Services (Use Cases)
	fetcher := eastmoney.NewClientFromConfig(config.Source, logger.Named("eastmoney"))
	syncService := navsync.NewSyncService(fundRepo, navRepo, fetcher,
		navsync.WithConcurrency(config.Sync.Concurrency),
		navsync.WithFundTimeout(config.Sync.GetFundTimeout()),
		navsync.WithLocation(config.Sync.GetLocation()),
		navsync.WithLogger(logger.Named("navsync")),
	)
	listingService := listing.NewListingService(fundRepo, navRepo)

	// Register the configured funds
	fundSeeder := seeder.NewFundSeeder(fundRepo, logger.Named("seeder"))
	if err := fundSeeder.Seed(ctx, seeder.FundsFromConfig(config.Funds)); err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed funds")
	}
	logger.Info().Int("funds", len(config.Funds)).Msg("Configured funds seeded")

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.UnaryInterceptor(grpcadapter.AuthInterceptor(config.Server.APIToken, healthpb.Health_Check_FullMethodName)),
	)

	grpcAdapter := grpcadapter.NewServer(syncService, listingService, fundSeeder, config.Sync.Days)
	navsyncv1.RegisterFundServiceServer(grpcServer, grpcAdapter)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(navsyncv1.FundService_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", config.Server.Address())
	if err != nil {
		logger.Fatal().Err(err).Str("address", config.Server.Address()).Msg("Failed to listen")
	}

	go func() {
		logger.Info().Str("address", config.Server.Address()).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal().Err(err).Msg("Failed to serve gRPC server")
		}
	}()

	// 6. Periodic sync
	if interval := config.Sync.GetInterval(); interval > 0 {
		go runPeriodicSync(ctx, syncService, config.Sync.Days, interval, logger)
	}

	// Graceful shutdown
	waitForShutdown(grpcServer, healthServer, stop, logger)
}

// runPeriodicSync runs SyncAll every interval until ctx is done
func runPeriodicSync(ctx context.Context, syncService *navsync.SyncService, days int, interval time.Duration, logger *common.Logger) {
	logger.Info().Dur("interval", interval).Int("days", days).Msg("Periodic NAV sync enabled")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := syncService.SyncAll(ctx, days)
			switch {
			case errors.Is(err, navsync.ErrSyncInProgress):
				logger.Warn().Msg("Skipping periodic sync, previous run still active")
			case err != nil:
				logger.Error().Err(err).Msg("Periodic sync failed")
			}
		}
	}
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server, healthServer *health.Server, stop context.CancelFunc, logger *common.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	healthServer.Shutdown()
	stop()
	grpcServer.GracefulStop()
	logger.Info().Msg("gRPC server stopped")
}
