// Command zs-server starts the zone-sharing record store over gRPC.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/zone-sharing/internal/api"
	"github.com/and161185/zone-sharing/internal/config"
	pkgcrypto "github.com/and161185/zone-sharing/internal/crypto"
	"github.com/and161185/zone-sharing/internal/limiter"
	"github.com/and161185/zone-sharing/internal/migrate"
	"github.com/and161185/zone-sharing/internal/repository"
	"github.com/and161185/zone-sharing/internal/repository/memory"
	"github.com/and161185/zone-sharing/internal/repository/postgres"
	grpcserver "github.com/and161185/zone-sharing/internal/server/grpc"
	"github.com/and161185/zone-sharing/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

type repos struct {
	accounts repository.AccountRepository
	zones    repository.ZoneRepository
	records  repository.RecordRepository
	shares   repository.ShareRepository
	lim      limiter.Limiter
	close    func()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// openRepos connects to PostgreSQL and applies migrations, or falls back to
// the in-memory store when no DSN is configured.
func openRepos(ctx context.Context, cfg *config.Server, log *zap.Logger) (*repos, error) {
	policy := limiter.Policy{
		Window:      cfg.LoginWindow,
		MaxFailures: cfg.LoginMaxFails,
		BlockFor:    cfg.LoginBlockFor,
	}
	if cfg.DSN == "" {
		log.Warn("no dsn configured, data is kept in memory")
		st := memory.New()
		return &repos{
			accounts: st.Accounts(),
			zones:    st.Zones(),
			records:  st.Records(),
			shares:   st.Shares(),
			lim:      limiter.NewMemory(policy),
			close:    func() {},
		}, nil
	}

	n, err := migrate.Up(ctx, cfg.DSN, log)
	if err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	log.Info("schema ready", zap.Int("applied", n))

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &repos{
		accounts: postgres.NewAccountRepo(db),
		zones:    postgres.NewZoneRepo(db),
		records:  postgres.NewRecordRepo(db),
		shares:   postgres.NewShareRepo(db),
		lim:      limiter.NewPG(db.Pool, policy),
		close:    db.Close,
	}, nil
}

// main parses configuration, prepares storage and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.LoadServer(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log level:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("container", cfg.ContainerID),
	)

	if cfg.JWTKey == "" {
		logger.Fatal("missing jwt signing key (-jwt-key)")
	}
	signKey := []byte(cfg.JWTKey)

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.AuthUnary(signKey, logger),
			grpcserver.LoggingUnary(logger),
		),
	}
	if !cfg.Plaintext {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			logger.Fatal("failed to load TLS cert/key", zap.Error(err))
		}
		opts = append(opts, grpc.Creds(creds))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := openRepos(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}
	defer r.close()

	accounts := service.NewAccountService(r.accounts, pkgcrypto.NewHasher(pkgcrypto.DefaultParams), signKey, cfg.AccessTTL, r.lim)
	zones := service.NewZoneService(r.zones)
	records := service.NewRecordService(r.zones, r.shares, r.records, cfg.PageSize)
	shares := service.NewShareService(r.zones, r.shares, r.records, signKey, cfg.ContainerID)

	s := grpc.NewServer(opts...)
	api.RegisterZoneStoreServer(s, grpcserver.New(accounts, zones, records, shares, signKey))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if cfg.Dev {
		reflection.Register(s)
	}

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("tls", !cfg.Plaintext))
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		hs.Shutdown()
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		r.close()
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
