package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MarkoPoloResearchLab/terramarya/internal/config"
	"github.com/MarkoPoloResearchLab/terramarya/internal/events"
	"github.com/MarkoPoloResearchLab/terramarya/internal/grpcserver"
	"github.com/MarkoPoloResearchLab/terramarya/internal/httpapi"
	"github.com/MarkoPoloResearchLab/terramarya/internal/oplog"
	"github.com/MarkoPoloResearchLab/terramarya/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/terramarya/internal/store/memorystore"
	"github.com/MarkoPoloResearchLab/terramarya/internal/store/pgstore"
	"github.com/MarkoPoloResearchLab/terramarya/internal/store/redisstore"
	"github.com/MarkoPoloResearchLab/terramarya/pkg/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	envPrefix = "TERRAMARYA"

	flagHTTPAddr        = "http-addr"
	flagGRPCAddr        = "grpc-addr"
	flagStorage         = "storage"
	flagDatabaseURL     = "database-url"
	flagRedisAddr       = "redis-addr"
	flagRedisPassword   = "redis-password"
	flagRedisDB         = "redis-db"
	flagRedisTLS        = "redis-tls"
	flagRedisPrefix     = "redis-prefix"
	flagAMQPURL         = "amqp-url"
	flagAMQPQueue       = "amqp-queue"
	flagAllowedOrigins  = "allowed-origins"
	flagJWTSigningKey   = "jwt-signing-key"
	flagMemberName      = "member-name"
	flagPublishTimeout  = "publish-timeout"
	flagShutdownTimeout = "shutdown-timeout"

	defaultHTTPAddr    = ":8080"
	defaultGRPCAddr    = ":7000"
	defaultStorage     = "sql"
	defaultDatabaseURL = "sqlite:///tmp/terramarya.db"
	defaultRedisAddr   = "localhost:6379"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "terramarya: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &config.Config{}
	settings := viper.New()
	cmd := &cobra.Command{
		Use:           "terramarya",
		Short:         "Terramarya reservations and loyalty server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, settings, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, *cfg)
		},
	}

	flags := cmd.Flags()
	flags.String(flagHTTPAddr, defaultHTTPAddr, "HTTP listen address")
	flags.String(flagGRPCAddr, defaultGRPCAddr, "gRPC health listen address")
	flags.String(flagStorage, defaultStorage, "storage backend: sql, pgx, redis or memory")
	flags.String(flagDatabaseURL, defaultDatabaseURL, "database url for sql (sqlite, postgres, mysql) and pgx storage")
	flags.String(flagRedisAddr, defaultRedisAddr, "Redis address")
	flags.String(flagRedisPassword, "", "Redis password")
	flags.Int(flagRedisDB, 0, "Redis database number")
	flags.Bool(flagRedisTLS, false, "connect to Redis over TLS")
	flags.String(flagRedisPrefix, "terramarya", "Redis key prefix")
	flags.String(flagAMQPURL, "", "RabbitMQ url; empty disables reservation events")
	flags.String(flagAMQPQueue, events.DefaultQueueName, "queue receiving confirmed reservations")
	flags.String(flagAllowedOrigins, "", "comma-separated CORS origins")
	flags.String(flagJWTSigningKey, "", "HS256 key for admin tokens; empty disables admin routes")
	flags.String(flagMemberName, "", "loyalty member name used when no profile is stored")
	flags.Duration(flagPublishTimeout, 5*time.Second, "timeout for publishing one reservation event")
	flags.Duration(flagShutdownTimeout, 5*time.Second, "graceful shutdown timeout")

	return cmd
}

func loadConfig(cmd *cobra.Command, settings *viper.Viper, cfg *config.Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	settings.SetEnvPrefix(envPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	if err := settings.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	*cfg = config.Config{
		HTTPAddr:        settings.GetString(flagHTTPAddr),
		GRPCAddr:        settings.GetString(flagGRPCAddr),
		Storage:         config.Storage(settings.GetString(flagStorage)),
		DatabaseURL:     settings.GetString(flagDatabaseURL),
		RedisAddr:       settings.GetString(flagRedisAddr),
		RedisPassword:   settings.GetString(flagRedisPassword),
		RedisDB:         settings.GetInt(flagRedisDB),
		RedisTLS:        settings.GetBool(flagRedisTLS),
		RedisPrefix:     settings.GetString(flagRedisPrefix),
		AMQPURL:         settings.GetString(flagAMQPURL),
		AMQPQueue:       settings.GetString(flagAMQPQueue),
		AllowedOrigins:  config.ParseAllowedOrigins(settings.GetString(flagAllowedOrigins)),
		JWTSigningKey:   settings.GetString(flagJWTSigningKey),
		MemberName:      settings.GetString(flagMemberName),
		PublishTimeout:  settings.GetDuration(flagPublishTimeout),
		ShutdownTimeout: settings.GetDuration(flagShutdownTimeout),
	}
	return cfg.Validate()
}

func runServer(ctx context.Context, cfg config.Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			logger.Warn("store close error", zap.Error(closeErr))
		}
	}()

	options := []booking.ServiceOption{
		booking.WithOperationLogger(oplog.New(logger)),
		booking.WithPublishTimeout(cfg.PublishTimeout),
	}
	if cfg.MemberName != "" {
		options = append(options, booking.WithDefaultProfile(booking.LoyaltyProfile{Name: cfg.MemberName}))
	}
	if cfg.PublishingEnabled() {
		publisher, err := events.Dial(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer func() { _ = publisher.Close() }()
		options = append(options, booking.WithReservationPublisher(publisher))
	}

	clock := func() time.Time { return time.Now() }
	service, err := booking.NewService(store, clock, options...)
	if err != nil {
		return fmt.Errorf("booking service init: %w", err)
	}
	if err := service.Open(ctx); err != nil {
		return fmt.Errorf("booking service open: %w", err)
	}
	logger.Info("booking state loaded",
		zap.String("storage", string(cfg.Storage)),
		zap.Int("reservations", len(service.Reservations())),
	)

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	grpcServer := grpcserver.New(logger)
	grpcServer.MarkServing()
	router := httpapi.NewRouter(cfg, service, logger, clock)

	group, groupContext := errgroup.WithContext(ctx)
	group.Go(func() error {
		return grpcServer.Serve(groupContext, listener)
	})
	group.Go(func() error {
		return httpapi.Serve(groupContext, logger, cfg.HTTPAddr, cfg.ShutdownTimeout, router)
	})
	return group.Wait()
}

func openStore(ctx context.Context, cfg config.Config) (booking.Store, func() error, error) {
	switch cfg.Storage {
	case config.StorageSQL:
		gormDB, cleanup, _, err := openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database open: %w", err)
		}
		if err := prepareSchema(gormDB); err != nil {
			_ = cleanup()
			return nil, nil, err
		}
		return gormstore.New(gormDB), cleanup, nil
	case config.StoragePGX:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("pgx pool: %w", err)
		}
		store := pgstore.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, func() error { pool.Close(); return nil }, nil
	case config.StorageRedis:
		client, err := redisstore.Dial(ctx, redisstore.ClientConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TLS:      cfg.RedisTLS,
		})
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(client, cfg.RedisPrefix), client.Close, nil
	case config.StorageMemory:
		return memorystore.New(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage %q", cfg.Storage)
	}
}
