// Package main is the entry point of the arbiter server
package main

import (
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tecu23/chess-arbiter/internal/auth"
	"github.com/tecu23/chess-arbiter/pkg/config"
	"github.com/tecu23/chess-arbiter/pkg/events"
	"github.com/tecu23/chess-arbiter/pkg/manager"
	"github.com/tecu23/chess-arbiter/pkg/repository"
	"github.com/tecu23/chess-arbiter/pkg/server"
)

// application encapsulates global dependencies
type application struct {
	Auth      *auth.APIKeyAuth
	Logger    *zap.Logger
	Config    *config.Config
	Publisher *events.Publisher
	Manager   *manager.Manager
	Hub       *server.Hub
	Server    *http.Server

	StartTime time.Time
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.String("port", "", "server port, overrides PORT")
	configPath := flag.String("config", "config.yml", "path to an optional YAML config file")
	flag.Parse()

	// A missing .env is fine, the environment may already be set.
	envErr := godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	if *debug {
		cfg.Debug = true
	}
	if *port != "" {
		cfg.Port = *port
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("loading .env failed", zap.Error(envErr))
	}

	app := newApplication(cfg, logger)

	go app.Hub.Run()

	if err := app.serve(); err != nil {
		logger.Fatal("error serving", zap.Error(err))
	}
}

func newApplication(cfg *config.Config, logger *zap.Logger) *application {
	publisher := events.NewPublisher()
	repo := repository.NewInMemoryRepository(logger)
	gm := manager.NewManager(repo, publisher, logger, cfg.MaxConcurrentGames)

	return &application{
		Auth:      auth.NewAPIKeyAuth(cfg.APIKeys),
		Logger:    logger,
		Config:    cfg,
		Publisher: publisher,
		Manager:   gm,
		Hub:       server.NewHub(gm, publisher, logger),
		StartTime: time.Now(),
	}
}

func initLogger(cfg *config.Config) *zap.Logger {
	var zcfg zap.Config
	if cfg.Debug {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zcfg = zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = zapcore.InfoLevel
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zcfg.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	return logger
}

// Shutdown cleans up resources
func (app *application) Shutdown() {
	if app.Hub != nil {
		app.Hub.Shutdown()
	}
	if app.Manager != nil {
		app.Manager.Shutdown()
	}

	app.Logger.Info("All components shut down successfully")
}
