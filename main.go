package main

import (
	"fmt"
	"log"
	"net/http"

	"atelier/internal/agent"
	"atelier/internal/api"
	"atelier/internal/build"
	"atelier/internal/config"
	"atelier/internal/logging"
	"atelier/internal/middleware"
	"atelier/internal/store"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.json")
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Pick up log level changes without a restart
	watcher, err := config.Watch("config.json", logger.Logger, func(updated *config.Config) {
		if err := logger.SetLevel(updated.LogLevel); err != nil {
			logger.Warn("invalid log level in config", zap.String("level", updated.LogLevel))
		}
	})
	if err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
	} else {
		defer watcher.Close()
	}

	// Initialize the project store
	backing, cleanup, err := openStore(cfg)
	if err != nil {
		logger.Fatal("failed to initialize project store", zap.Error(err))
	}
	defer cleanup()

	cached, err := store.NewCached(backing, cfg.Store.CacheSize)
	if err != nil {
		logger.Fatal("failed to initialize store cache", zap.Error(err))
	}
	files := store.NewFiles(cached)

	// Initialize collaborator clients
	agentClient := agent.NewClient(cfg.Agent.URL)
	builder := build.NewClient(cfg.Build.URL)

	// Initialize handlers
	handlers := api.NewHandlers(agentClient, builder, files, logger)

	// Set up router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.HandleFunc("POST /{project}/create", handlers.HandleCreate)
	mux.HandleFunc("POST /{project}/edit", handlers.HandleEdit)
	mux.HandleFunc("POST /{project}/chat", handlers.HandleChat)
	mux.HandleFunc("GET /{project}/view", handlers.HandleView)
	mux.HandleFunc("GET /{project}/view/assets/{path...}", handlers.HandleAsset)
	mux.HandleFunc("GET /{project}/state", handlers.HandleState)
	mux.HandleFunc("POST /{project}/conversation", handlers.HandleSaveConversation)

	// Apply middleware
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recover(logger),
	)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server",
		zap.String("address", addr),
		zap.String("store", cfg.Store.Driver),
		zap.String("agent", cfg.Agent.URL),
		zap.String("build", cfg.Build.URL),
	)

	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// openStore builds the configured store driver: the remote project store
// service, or an embedded badger database for single-node setups.
func openStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case "remote":
		return store.NewRemote(cfg.Store.URL), func() {}, nil

	case "local":
		db, err := badger.Open(badger.DefaultOptions(cfg.Store.Path))
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		local, err := store.NewLocal(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		cleanup := func() {
			local.Close()
			db.Close()
		}
		return local, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
}
