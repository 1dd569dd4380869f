package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cacheadapter "github.com/invoicescan/account-service/internal/adapters/cache"
	eventadapter "github.com/invoicescan/account-service/internal/adapters/events"
	httpadapter "github.com/invoicescan/account-service/internal/adapters/http"
	"github.com/invoicescan/account-service/internal/adapters/postgres"
	"github.com/invoicescan/account-service/internal/adapters/security"
	"github.com/invoicescan/account-service/internal/application"
	"github.com/invoicescan/account-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	dispatcher *application.Dispatcher
	sweeper    *application.Sweeper
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping account service", "http_port", cfg.HTTPPort)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	repos := postgres.NewRepositories(db)

	tokenSigner, err := security.NewJWTSigner(cfg.JWTKeyID, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
	if err != nil {
		if !cfg.AllowEphemeralJWT {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init jwt signer: %w", err)
		}
		logger.Warn("using ephemeral JWT keys for local/dev runtime")
		tokenSigner, err = security.NewEphemeralJWTSigner(cfg.JWTKeyID)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init ephemeral jwt signer: %w", err)
		}
	}

	var publisher ports.MailPublisher
	var closePublisher func() error
	if cfg.MailLogOnly {
		publisher = eventadapter.NewLoggingMailPublisher(logger)
	} else {
		kafkaPublisher, pubErr := eventadapter.NewKafkaMailPublisher(cfg.KafkaBrokers, map[string]string{
			ports.MailKindVerification: cfg.MailVerificationTopic,
			ports.MailKindReset:        cfg.MailResetTopic,
		})
		if pubErr != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init kafka mail publisher: %w", pubErr)
		}
		publisher = kafkaPublisher
		closePublisher = kafkaPublisher.Close
	}

	dispatcher := application.NewDispatcher(logger, publisher, cfg.DispatchQueueSize, cfg.DispatchEnqueueTimeout)
	sweeper := application.NewSweeper(logger, repos.OTPs, cfg.OTPSweepInterval)

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			PasswordMinLength:     cfg.PasswordMinLength,
			OTPLength:             cfg.OTPLength,
			OTPTTL:                cfg.OTPTTL,
			TokenTTL:              cfg.TokenTTL,
			FailedSignInThreshold: cfg.FailedThreshold,
			LockoutDuration:       cfg.LockoutDuration,
		},
		Accounts:    repos.Accounts,
		Credentials: repos.Credentials,
		OTP:         application.NewOTPGenerator(repos.OTPs, cfg.OTPLength, cfg.OTPTTL),
		Lockouts:    cacheadapter.NewRedisLockoutStore(redisClient),
		Hasher:      security.NewBcryptHasher(cfg.BcryptCost),
		TokenSigner: tokenSigner,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	ready := func(ctx context.Context) error {
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres not ready: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis not ready: %w", err)
		}
		return nil
	}

	handler := httpadapter.NewHandler(svc, ready)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		dispatcher: dispatcher,
		sweeper:    sweeper,
		cleanupFn: func(ctx context.Context) {
			if closePublisher != nil {
				_ = closePublisher()
			}
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

// RunAPI serves HTTP and drains the mail-intent queue until a shutdown
// signal arrives. The dispatcher stops after the server so in-flight
// requests can still enqueue.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		_ = r.dispatcher.Run(dispatchCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)

	cancelDispatch()
	select {
	case <-dispatchDone:
	case <-shutdownCtx.Done():
	}

	r.cleanupFn(shutdownCtx)
	return nil
}

// RunWorker runs the expired-challenge sweeper until a shutdown signal.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("otp sweeper started", "interval", r.cfg.OTPSweepInterval.String())
	err := r.sweeper.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
