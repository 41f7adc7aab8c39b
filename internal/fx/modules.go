// Package fx assembles the application graph: config, logger, store, engine, services and HTTP.
package fx

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/maxviazov/sideline-stats-service/internal/config"
	"github.com/maxviazov/sideline-stats-service/internal/engine"
	"github.com/maxviazov/sideline-stats-service/internal/handler"
	"github.com/maxviazov/sideline-stats-service/internal/logger"
	"github.com/maxviazov/sideline-stats-service/internal/middleware"
	"github.com/maxviazov/sideline-stats-service/internal/repository"
	"github.com/maxviazov/sideline-stats-service/internal/repository/postgres"
	"github.com/maxviazov/sideline-stats-service/internal/repository/sqlite"
	"github.com/maxviazov/sideline-stats-service/internal/service"
)

// ConfigPathEnv names the variable holding the config file path.
const ConfigPathEnv = "APP_CONFIG"

const defaultConfigPath = "config.yaml"

// ConfigPath resolves the config file. A missing default file means env and defaults only.
func ConfigPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

func ProvideConfig() (*config.Config, error) {
	return config.Load(ConfigPath())
}

func ProvideLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(&cfg.Logger)
}

// ProvideStore opens the configured backend and closes it when the app stops.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (repository.Store, error) {
	var store repository.Store
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := repository.OpenPostgres(context.Background(), cfg.Postgres, &log)
		if err != nil {
			return repository.Store{}, err
		}
		store = postgres.NewStore(pool)
	default:
		db, err := repository.OpenSQLite(cfg.Storage.SQLitePath, log)
		if err != nil {
			return repository.Store{}, err
		}
		store = sqlite.NewStore(db)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			log.Info().Str("driver", cfg.Storage.Driver).Msg("closing store")
			store.Close()
			return nil
		},
	})
	return store, nil
}

func ProvideSpaceGuard(store repository.Store, cfg *config.Config, log zerolog.Logger) *repository.SpaceGuard {
	return repository.NewSpaceGuard(store.Usage, cfg.Storage.QuotaBytes, log)
}

// ProvideEngine builds the ledger and restores the working match before the server starts.
func ProvideEngine(lc fx.Lifecycle, store repository.Store, guard *repository.SpaceGuard, log zerolog.Logger) *engine.Engine {
	eng := engine.New(store.Current, log,
		engine.WithHistory(store.History),
		engine.WithSpaceGuard(guard),
	)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_, err := eng.Restore(ctx)
			return err
		},
	})
	return eng
}

func ProvideMatchService(eng *engine.Engine, store repository.Store, log zerolog.Logger) service.MatchService {
	return service.NewMatchService(eng, store.History, log)
}

func ProvideHistoryService(store repository.Store, log zerolog.Logger) service.HistoryService {
	return service.NewHistoryService(store.History, log)
}

func ProvideSquadService(store repository.Store, guard *repository.SpaceGuard, log zerolog.Logger) service.SquadService {
	return service.NewSquadService(store.Squads, store.Attendance, store.Tx, guard, log)
}

func ProvideBackupService(store repository.Store, guard *repository.SpaceGuard, cfg *config.Config, log zerolog.Logger) service.BackupService {
	return service.NewBackupService(store, guard, cfg.Backup.ReminderDays, log)
}

// Routes is everything the router needs.
type Routes struct {
	fx.In

	Store   repository.Store
	Guard   *repository.SpaceGuard
	Match   service.MatchService
	History service.HistoryService
	Squads  service.SquadService
	Backup  service.BackupService
}

func ProvideRouter(cfg *config.Config, r Routes) *gin.Engine {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	handler.Register(engine, r.Store.Pinger, r.Guard, handler.Services{
		Match:   r.Match,
		History: r.History,
		Squads:  r.Squads,
		Backup:  r.Backup,
	})
	return engine
}

// NewHandler wraps the router with CORS and request logging.
func NewHandler(cfg *config.Config, router *gin.Engine, log zerolog.Logger) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.App.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition", middleware.HeaderRequestID},
	})
	return middleware.RequestID(log)(c.Handler(router))
}

// RunServer serves HTTP for the lifetime of the app and shuts down within the configured timeout.
func RunServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, h http.Handler, log zerolog.Logger) {
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: h,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("server failed")
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			log.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

// Core is the graph minus the config source, so tests can supply their own *config.Config.
var Core = fx.Options(
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideStore),
	fx.Provide(ProvideSpaceGuard),
	fx.Provide(ProvideEngine),
	// svc
	fx.Provide(ProvideMatchService),
	fx.Provide(ProvideHistoryService),
	fx.Provide(ProvideSquadService),
	fx.Provide(ProvideBackupService),
	// http
	fx.Provide(ProvideRouter),
	fx.Provide(NewHandler),
)

// Module is Core fed from config.yaml and APP_* variables.
var Module = fx.Options(
	fx.Provide(ProvideConfig),
	Core,
)
