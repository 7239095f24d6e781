package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Billy-Davies-2/lottery-draft/internal/clickhouse"
	"github.com/Billy-Davies-2/lottery-draft/internal/config"
	"github.com/Billy-Davies-2/lottery-draft/internal/dal"
	grpcserver "github.com/Billy-Davies-2/lottery-draft/internal/grpc"
	"github.com/Billy-Davies-2/lottery-draft/internal/handlers"
	"github.com/Billy-Davies-2/lottery-draft/internal/logger"
	"github.com/Billy-Davies-2/lottery-draft/internal/lottery"
	"github.com/Billy-Davies-2/lottery-draft/internal/mcpserver"
	"github.com/Billy-Davies-2/lottery-draft/internal/pubsub"
	"github.com/Billy-Davies-2/lottery-draft/internal/source"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	logger.Info("Starting lottery draft service",
		"environment", cfg.Environment,
		"team_source", cfg.TeamSource,
		"player_count", cfg.PlayerCount,
		"competition_count", cfg.CompetitionCount)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Team source
	src, closeSource, err := buildSource(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize team source", "error", err, "source", cfg.TeamSource)
		log.Fatalf("Failed to initialize team source: %v", err)
	}
	defer closeSource()

	engine := lottery.New(ctx, src, lottery.Options{
		PlayerCount:      cfg.PlayerCount,
		CompetitionCount: cfg.CompetitionCount,
		Sampler:          lottery.NewSampler(cfg.Seed),
	})
	if integrity := engine.Integrity(); !integrity.OK {
		logger.Warn("Team points do not match the expected total",
			"sum", integrity.Sum,
			"expected", integrity.Expected)
	}

	// Pub/sub (embedded NATS for local development, NATS JetStream otherwise)
	ps, closeBroker, err := buildBroker(cfg)
	if err != nil {
		logger.Error("Failed to initialize NATS", "error", err)
		log.Fatalf("Failed to initialize NATS: %v", err)
	}
	defer closeBroker()

	// HTTP routes
	mux := http.NewServeMux()
	handlers.NewAPIHandlers(engine, ps).Register(mux)
	if cfg.MCPPath != "" {
		mux.Handle(cfg.MCPPath, mcpserver.Handler(mcpserver.NewServer(engine, ps)))
		logger.Info("MCP endpoint enabled", "path", cfg.MCPPath)
	}

	httpServer := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           handlers.CORS(cfg.AllowedOrigins, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, healthServer := grpcserver.NewGRPCServer(engine, ps)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lis, err := net.Listen("tcp", "0.0.0.0:"+cfg.GRPCPort)
		if err != nil {
			return fmt.Errorf("listen for gRPC on %s: %w", cfg.GRPCPort, err)
		}
		logger.Info("gRPC server starting", "address", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		healthServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown incomplete", "error", err)
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

// buildSource returns the team source selected by TEAM_SOURCE and a func
// that releases it. Database sources are seeded from TEAMS_FILE when empty.
func buildSource(ctx context.Context, cfg config.Config) (lottery.Source, func(), error) {
	noop := func() {}

	switch cfg.TeamSource {
	case config.SourceFile:
		logger.Info("Reading teams from file", "file", cfg.TeamsFile)
		return source.NewFileSource(cfg.TeamsFile), noop, nil

	case config.SourceHTTP:
		logger.Info("Reading teams from URL", "url", cfg.TeamsURL, "cache_ttl", cfg.TeamsCacheTTL)
		return source.NewHTTPSource(cfg.TeamsURL, cfg.TeamsCacheTTL), noop, nil

	case config.SourceS3:
		s3src, err := source.NewS3Source(ctx, cfg.S3Bucket, cfg.S3Key)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Reading teams from S3", "bucket", cfg.S3Bucket, "key", cfg.S3Key)
		return s3src, noop, nil

	case config.SourceSQLite:
		store, err := dal.NewSQLiteDAL(cfg.SQLiteFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to SQLite database", "file", cfg.SQLiteFile)
		return seeded(ctx, store, cfg.TeamsFile)

	case config.SourcePostgres:
		store, err := dal.NewPostgresDAL(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to Postgres database")
		return seeded(ctx, store, cfg.TeamsFile)

	case config.SourceClickHouse:
		ch, err := clickhouse.NewClient(ctx, cfg.ClickHouseAddr, cfg.ClickHouseDB,
			cfg.ClickHouseUser, cfg.ClickHousePassword, cfg.PlayerCount)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to ClickHouse", "address", cfg.ClickHouseAddr, "database", cfg.ClickHouseDB)
		return ch, closer(ch), nil

	case config.SourceMemory:
		logger.Info("Using built-in team list")
		return dal.NewMemoryDAL(), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown TEAM_SOURCE %q", cfg.TeamSource)
	}
}

func seeded(ctx context.Context, store dal.TeamStore, seedFile string) (lottery.Source, func(), error) {
	if _, err := dal.SeedFromFile(ctx, store, seedFile); err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, closer(store), nil
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close team source", "error", err)
		}
	}
}

// buildBroker returns the local fan-out broker, bridged through NATS so every
// instance sees every draft event
func buildBroker(cfg config.Config) (pubsub.Broker, func(), error) {
	if cfg.IsDevelopment() {
		logger.Info("Starting embedded NATS server for local development")
		opts := pubsub.DefaultEmbeddedNATSOptions()
		opts.Subject = cfg.NATSSubject
		embedded, err := pubsub.NewEmbeddedNATSPubSub(opts)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Embedded NATS server ready", "url", embedded.ServerURL())
		return pubsub.NewWithUpstream(embedded), embedded.Close, nil
	}

	logger.Info("Using NATS JetStream", "url", cfg.NATSURL)
	upstream, err := pubsub.NewNATSPubSub(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, nil, err
	}
	return pubsub.NewWithUpstream(upstream), upstream.Close, nil
}
