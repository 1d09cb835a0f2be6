package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/medibook/internal/config"
	"github.com/simp-lee/medibook/internal/domain"
	"github.com/simp-lee/medibook/internal/middleware"
	"github.com/simp-lee/medibook/internal/module/appointment"
	"github.com/simp-lee/medibook/internal/module/auth"
	"github.com/simp-lee/medibook/internal/module/user"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine  *gin.Engine
	db      *gorm.DB
	redis   *redis.Client
	limiter *middleware.RateLimiter
	logger  *logger.Logger
	cfg     *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, the database and its schema, the token revocation
// store, repositories, services, handlers, middleware, and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	// 1. Setup logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// 2. Setup database and bring the schema up to date.
	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		closeDB(db)
	}()

	if err := config.Migrate(db, &domain.User{}, &domain.Appointment{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("auto migration completed")

	// 3. Token revocation store: Redis when configured, in-process otherwise.
	rdb, err := config.SetupRedis(context.Background(), &cfg.Auth.Redis, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup redis: %w", err)
	}
	defer func() {
		if success || rdb == nil {
			return
		}
		_ = rdb.Close()
	}()

	var store auth.RevocationStore
	if rdb != nil {
		store = auth.NewRedisStore(rdb, cfg.Auth.Redis.KeyPrefix)
	} else {
		store = auth.NewMemoryStore()
		log.Warn("redis disabled: revoked tokens are kept in memory and lost on restart")
	}

	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenTTL(),
		Issuer: cfg.Auth.Issuer,
	}, store)

	// 4. Manual dependency injection: repository → service → handler.
	userSvc := user.NewUserService(user.NewUserRepository(db), tokens)
	if admin := cfg.Auth.BootstrapAdmin; admin.Enabled() {
		if _, _, err := userSvc.EnsureAdmin(context.Background(), domain.NewUser{
			DNI:      admin.DNI,
			Name:     admin.Name,
			Email:    admin.Email,
			Password: admin.Password,
		}); err != nil {
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}
	apptSvc := appointment.NewAppointmentService(appointment.NewAppointmentRepository(db))

	var (
		limiter     *middleware.RateLimiter
		loginGuards []gin.HandlerFunc
	)
	if rl := cfg.Server.RateLimit; rl.Enabled {
		limiter = middleware.NewRateLimiter(rl.RPS, rl.Burst)
		loginGuards = append(loginGuards, middleware.RateLimit(limiter))
	}
	defer func() {
		if success || limiter == nil {
			return
		}
		limiter.Close()
	}()

	// 5. Create Gin engine with custom middleware (not gin.Default()).
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	requestTimeout, err := parseOptionalDuration(cfg.Server.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid server.timeout: %w", err)
	}

	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger),
		middleware.CORS(middleware.NewCORSConfig(cfg.Server.Mode, cfg.Server.CORS)),
		middleware.Timeout(requestTimeout),
	)

	// 6. Register all routes.
	if err := RegisterRoutes(engine, &RouteDeps{
		Modules: []Module{
			user.NewModule(user.NewUserHandler(userSvc), loginGuards...),
			appointment.NewModule(appointment.NewAppointmentHandler(apptSvc)),
			auth.NewModule(auth.NewHandler(tokens)),
		},
		Tokens: tokens,
		DB:     db,
		Redis:  rdb,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	success = true
	return &App{
		engine:  engine,
		db:      db,
		redis:   rdb,
		limiter: limiter,
		logger:  log,
		cfg:     cfg,
	}, nil
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// parseOptionalDuration treats a blank value as unset.
func parseOptionalDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	return time.ParseDuration(v)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("database close error", slog.Any("error", err))
		return err
	}
	return nil
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It performs graceful shutdown with a 5-second timeout, then releases the
// rate limiter, the Redis client and the database connection.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		// Graceful shutdown with 5-second deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	a.close(log)

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}

// close releases everything New acquired except the logger.
func (a *App) close(log *slog.Logger) {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Error("redis close error", slog.Any("error", err))
		} else {
			log.Info("redis connection closed")
		}
	}
	if a.db != nil {
		if err := closeDB(a.db); err == nil {
			log.Info("database connection closed")
		}
	}
}
