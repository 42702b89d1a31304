// Package bootstrap assembles the application: configuration, database,
// repositories, services, controllers and the router.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appAuth "github.com/dyilmaz/schoolhub/internal/app/auth"
	appControllers "github.com/dyilmaz/schoolhub/internal/app/controllers"
	appEffects "github.com/dyilmaz/schoolhub/internal/app/effects"
	appMigrations "github.com/dyilmaz/schoolhub/internal/app/migrations"
	appRepos "github.com/dyilmaz/schoolhub/internal/app/repositories"
	appRoutes "github.com/dyilmaz/schoolhub/internal/app/routes"
	appServices "github.com/dyilmaz/schoolhub/internal/app/services"
	"github.com/dyilmaz/schoolhub/internal/config"
	"github.com/dyilmaz/schoolhub/internal/db"
	appMiddleware "github.com/dyilmaz/schoolhub/internal/middleware"
	pkgAuth "github.com/dyilmaz/schoolhub/internal/pkg/auth"
	"github.com/dyilmaz/schoolhub/internal/pkg/filestorage"
	"github.com/dyilmaz/schoolhub/internal/pkg/helpers"
	"github.com/dyilmaz/schoolhub/internal/pkg/identity"
	"github.com/dyilmaz/schoolhub/internal/pkg/logger"
	"github.com/dyilmaz/schoolhub/internal/pkg/websocket"
)

// Dependencies holds all the application dependencies.
type Dependencies struct {
	Repos          *appRepos.Repositories
	Services       *appServices.Services
	Controllers    *appControllers.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	JWTService     *pkgAuth.JWTService
	FileStorage    *filestorage.LocalStorage
	Hub            *websocket.Hub
	WSHandler      *websocket.Handler
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection established")

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		dbPool.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(dbPool, lgr)
	if err := migrator.MigrateFromDirectory(context.Background(), migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations applied")

	return dbPool, nil
}

// BuildDependencies initializes repositories, services, controllers and
// middleware over the shared pool.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Storage.Path)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		TokenExp:    helpers.ParseDuration(cfg.JWT.TokenExpiration, 24*time.Hour),
		TokenIssuer: cfg.JWT.Issuer,
	})

	var federated identity.TokenVerifier
	if cfg.Federated.Enabled {
		federated = identity.NewIssuerVerifier(identity.Config{
			Issuer:   cfg.Federated.Issuer,
			Audience: cfg.Federated.Audience,
			CertsURL: cfg.Federated.CertsURL,
			CacheTTL: helpers.ParseDuration(cfg.Federated.CacheTTL, time.Hour),
		})
		lgr.Info().Str("issuer", cfg.Federated.Issuer).Msg("Federated login enabled")
	}

	deps.Hub = websocket.NewHub(lgr)
	deps.WSHandler = websocket.NewHandler(deps.Hub, lgr)

	dispatcher := appEffects.NewDispatcher(
		deps.Repos.Notification,
		deps.Hub,
		deps.Repos.User,
		deps.Repos.Course,
		deps.Repos.Grade,
		lgr,
	)

	deps.Services = appServices.NewServices(deps.Repos, deps.JWTService, federated, deps.FileStorage, dispatcher)
	deps.Controllers = appControllers.NewControllers(deps.Services)

	resolver := appAuth.NewResolver(deps.Repos.User)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, resolver)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger())
	router.Use(appMiddleware.CORS(cfg.Server.ClientURL))

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.WSHandler, deps.AuthMiddleware)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
