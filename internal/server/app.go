// Package server wires the API process together: storage backends,
// collaborators, services and the supervised HTTP, gRPC health and
// notification components.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/dbx"
	"github.com/dmitrijs2005/datingapp/internal/logging"
	"github.com/dmitrijs2005/datingapp/internal/server/auth"
	"github.com/dmitrijs2005/datingapp/internal/server/authz"
	"github.com/dmitrijs2005/datingapp/internal/server/breaker"
	"github.com/dmitrijs2005/datingapp/internal/server/config"
	gs "github.com/dmitrijs2005/datingapp/internal/server/grpc"
	"github.com/dmitrijs2005/datingapp/internal/server/httpapi"
	"github.com/dmitrijs2005/datingapp/internal/server/hub"
	"github.com/dmitrijs2005/datingapp/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/datingapp/internal/server/scanner"
	"github.com/dmitrijs2005/datingapp/internal/server/services"
	"github.com/dmitrijs2005/datingapp/internal/server/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// MemoryDSN selects the in-memory store instead of PostgreSQL.
const MemoryDSN = "memory"

const janitorInterval = time.Hour

type App struct {
	config   *config.Config
	logger   logging.Logger
	slog     *slog.Logger
	db       *sql.DB
	accounts *services.AccountService
	hub      *hub.Hub
	http     *http.Server
	health   *gs.HealthServer
}

// NewApp opens the database, runs migrations and builds every component.
// The returned App owns the database handle until Run returns.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger, slog: supervisorLogger(logger, c.LogLevel)}

	var (
		tx dbx.Transactor
		rm repomanager.RepositoryManager
	)
	if c.DatabaseDSN == MemoryDSN {
		logger.Warn(ctx, "using in-memory store, data is lost on exit")
		tx, rm = dbx.NoTx{}, repomanager.NewMemoryRepositoryManager()
	} else {
		db, err := sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
		app.db = db
		tx = dbx.NewSQLTransactor(db, nil)
	}

	if err := app.build(ctx, tx, rm); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func supervisorLogger(l logging.Logger, level string) *slog.Logger {
	if sl, ok := l.(*logging.SlogLogger); ok {
		return sl.Slog()
	}
	lvl, _ := logging.ParseLevel(level)
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func (app *App) imageStorage(ctx context.Context) (storage.ImageStorage, error) {
	c := app.config
	switch c.StorageBackend {
	case config.StorageS3:
		return storage.NewS3Storage(ctx, storage.S3Options{
			Bucket:        c.S3Bucket,
			Region:        c.S3Region,
			Endpoint:      c.S3BaseEndpoint,
			AccessKey:     c.S3RootUser,
			SecretKey:     c.S3RootPassword,
			Folder:        c.PhotoFolder,
			PublicBaseURL: c.S3PublicBaseURL,
			MaxBytes:      c.MaxUploadBytes,
		})
	default:
		return storage.NewCloudinaryStorage(c.CloudinaryCloudName, c.CloudinaryAPIKey, c.CloudinaryAPISecret,
			c.PhotoFolder, c.PhotoFetchTimeout, c.MaxUploadBytes)
	}
}

func (app *App) build(ctx context.Context, tx dbx.Transactor, rm repomanager.RepositoryManager) error {
	c := app.config

	tokens, err := auth.NewTokenService(c.TokenKey, c.AccessTokenValidityDuration)
	if err != nil {
		return fmt.Errorf("token service init error: %w", err)
	}

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return fmt.Errorf("authz init error: %w", err)
	}

	store, err := app.imageStorage(ctx)
	if err != nil {
		return fmt.Errorf("image storage init error: %w", err)
	}
	store = storage.NewGuarded(store, breaker.Settings{}, app.logger)
	scan := scanner.NewGuarded(scanner.NewClamdScanner(c.ClamAVAddr, c.ScanTimeout), breaker.Settings{}, app.logger)

	photos, err := services.NewPhotoService(tx, rm, scan, store, c, app.logger)
	if err != nil {
		return fmt.Errorf("photo service init error: %w", err)
	}

	app.hub = hub.New(app.logger)
	app.accounts = services.NewAccountService(tx, rm, tokens, c, app.logger)

	var pinger httpapi.Pinger
	if app.db != nil {
		pinger = app.db
	}

	api := httpapi.NewServer(httpapi.Deps{
		Config:   c,
		Logger:   app.logger,
		Tokens:   tokens,
		Accounts: app.accounts,
		Members:  services.NewMemberService(tx, rm),
		Photos:   photos,
		Messages: services.NewMessageService(tx, rm, app.hub, app.logger),
		Admin:    services.NewAdminService(tx, rm),
		Enforcer: enforcer,
		Hub:      app.hub,
		DB:       pinger,
	})

	app.http = &http.Server{
		Addr:              c.HTTPAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if c.GRPCHealthAddr != "" {
		app.health = gs.NewHealthServer(c.GRPCHealthAddr, app.logger, pinger, c.HealthCheckInterval)
	}
	return nil
}

func (app *App) close() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "closing database", "error", err)
		}
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run seeds the administrator and serves until a signal arrives or ctx is
// cancelled.
func (app *App) Run(ctx context.Context) error {
	defer app.close()

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	if app.config.AdminUsername != "" && app.config.AdminPassword != "" {
		if err := app.accounts.SeedAdmin(ctx, app.config.AdminUsername, app.config.AdminPassword); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	handler := &sutureslog.Handler{Logger: app.slog}
	root := suture.New("datingapp", suture.Spec{
		EventHook: handler.MustHook(),
		Timeout:   app.config.ShutdownTimeout,
	})
	root.Add(app.hub)
	root.Add(newHTTPService(app.http, app.config.ShutdownTimeout))
	if app.health != nil {
		root.Add(app.health)
	}
	root.Add(newTokenJanitor(app.accounts, janitorInterval, app.logger))

	app.logger.Info(ctx, "serving", "http", app.config.HTTPAddr, "grpc_health", app.config.GRPCHealthAddr)
	err := root.Serve(ctx)
	app.logger.Info(context.Background(), "app stopped")
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
