package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	v1 "github.com/dshalev/slide-explainer/gen/proto/explainer/v1"
	"github.com/dshalev/slide-explainer/internal/common"
	"github.com/dshalev/slide-explainer/internal/export"
	"github.com/dshalev/slide-explainer/internal/filestore"
	"github.com/dshalev/slide-explainer/internal/intake"
	repo "github.com/dshalev/slide-explainer/internal/repository"
	svc "github.com/dshalev/slide-explainer/internal/server"
	"github.com/dshalev/slide-explainer/internal/status"
)

func main() {
	inmem := flag.Bool("inmem", false, "use in-memory SQLite database")
	flag.Parse()

	_ = godotenv.Load()

	// Setup structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if !*inmem {
		if err := cfg.Validate(); err != nil {
			logger.Error("invalid configuration", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbResult, err := repo.InitDatabase(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbResult.Cleanup()

	// Ping DB to ensure connectivity
	if err := dbResult.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	store, err := filestore.New(cfg.Files.UploadsDir, logger)
	if err != nil {
		logger.Error("failed to prepare uploads directory", "dir", cfg.Files.UploadsDir, "error", err)
		os.Exit(1)
	}

	jobsRepo := repo.NewJobRepository(dbResult.Client, logger)
	usersRepo := repo.NewUserRepository(dbResult.Client, logger)

	intakeService := intake.NewService(jobsRepo, usersRepo, store, logger)
	statusService := status.NewService(jobsRepo, usersRepo, logger)
	exportService := export.NewService(statusService, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(svc.RequestIDInterceptor(logger)))

	explainerService := svc.NewExplainerService(intakeService, statusService, exportService, logger)
	v1.RegisterExplainerServiceServer(grpcServer, explainerService)

	// Register gRPC health service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	// Set the service as serving (empty string means overall server health)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	// Reflection for grpcurl
	reflection.Register(grpcServer)

	logger.Info("explainerd listening", "addr", cfg.Server.GRPCAddr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	grpcServer.GracefulStop()
}
