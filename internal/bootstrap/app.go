package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	googleauth "resume-portal/internal/auth"
	"resume-portal/internal/dashboard"
	"resume-portal/internal/files"
	"resume-portal/internal/identity"
	"resume-portal/internal/identity/firebase"
	"resume-portal/internal/identity/local"
	"resume-portal/internal/ledger"
	"resume-portal/internal/processor"
	"resume-portal/internal/services/health"
	"resume-portal/internal/shared/config"
	"resume-portal/internal/shared/storage/db"
	"resume-portal/internal/shared/storage/object"
	localstore "resume-portal/internal/shared/storage/object/local"
	s3store "resume-portal/internal/shared/storage/object/s3"
	"resume-portal/internal/shared/telemetry"
	"resume-portal/internal/users"
	"resume-portal/internal/web"
)

// App holds shared dependencies. Everything below Sessions is per process;
// NewClient and NewController build the per-session pieces.
type App struct {
	Config      config.Config
	DB          *sql.DB
	Store       object.Store
	LedgerStore ledger.Store
	Ledger      *ledger.Sync
	Files       *files.Service
	Users       *users.Service
	Directory   *local.Directory
	GoogleAuth  *googleauth.GoogleService
	Health      *health.Service
	Sessions    *web.Registry
	Router      *gin.Engine
}

// Build prepares shared dependencies and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Files:  files.NewService(store),
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	var objects object.Store
	if cfg.ObjectStoreType == "local" {
		objects = store
	}
	app.Sessions = web.NewRegistry(func() (identity.Client, *dashboard.Controller) {
		client, err := app.NewClient()
		if err != nil {
			// Options were validated in buildServices.
			panic(err)
		}
		return client, app.NewController(client)
	}, cfg.SessionIdleTTL, cfg.MaxSessions)

	handler, err := web.NewHandler(cfg, app.Sessions, app.GoogleAuth, objects)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	app.Router = web.NewRouter(cfg, handler, app.Health)
	return app, nil
}

// NewClient builds a signed-out identity client for one session.
func (a *App) NewClient() (identity.Client, error) {
	if a.Config.IdentityProvider == "firebase" {
		return firebase.New(firebase.Options{
			APIKey:     a.Config.FirebaseAPIKey,
			RequestURI: a.Config.PublicBaseURL,
		})
	}
	return a.Directory.NewClient(), nil
}

// NewController wires a dashboard controller around client.
func (a *App) NewController(client identity.Client) *dashboard.Controller {
	return dashboard.New(dashboard.Deps{
		Identity:   client,
		Ledger:     a.Ledger,
		Files:      a.Files,
		Processor:  processor.New(a.Config.BackendBaseURL, client, nil),
		ClearAfter: a.Config.StatusClearAfter,
	})
}

// Close releases sessions and the database pool.
func (a *App) Close() {
	if a.Sessions != nil {
		a.Sessions.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_fallback", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_fallback", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID, cfg.S3URLTTL)
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL+"/objects"), nil
	}
}

func buildServices(app *App) error {
	cfg := app.Config
	var userRepo users.Repo
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		app.LedgerStore = ledger.NewPGStore(app.DB, cfg.DatabaseURL)
	} else {
		userRepo = users.NewMemoryRepo()
		app.LedgerStore = ledger.NewMemoryStore()
	}
	app.Ledger = ledger.NewSync(app.LedgerStore)
	app.Users = users.NewService(userRepo)
	app.GoogleAuth = googleauth.NewGoogleService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	app.Health = health.NewService()
	if app.DB != nil {
		app.Health.Add("database", app.DB.PingContext)
	}
	store := app.Store
	app.Health.Add("objects", func(ctx context.Context) error {
		_, err := store.List(ctx, "users/")
		return err
	})

	switch cfg.IdentityProvider {
	case "firebase":
		if strings.TrimSpace(cfg.FirebaseAPIKey) == "" {
			return fmt.Errorf("IDENTITY_PROVIDER=firebase requires FIREBASE_API_KEY")
		}
	default:
		dir, err := local.NewDirectory(app.Users, cfg.JWTSecret, cfg.TokenTTL, refreshTTL(cfg), !cfg.IsDevLike())
		if err != nil {
			return err
		}
		app.Directory = dir
	}

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"identity":     cfg.IdentityProvider,
		"object_store": cfg.ObjectStoreType,
		"database":     app.DB != nil,
		"google_oauth": app.GoogleAuth.Configured(),
	})
	return nil
}

func refreshTTL(cfg config.Config) time.Duration {
	if cfg.RefreshTTL > 0 {
		return cfg.RefreshTTL
	}
	return 30 * 24 * time.Hour
}
