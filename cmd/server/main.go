package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rinooks/pixel-war/pkg/api"
	authproviders "github.com/rinooks/pixel-war/pkg/auth/providers"
	"github.com/rinooks/pixel-war/pkg/config"
	"github.com/rinooks/pixel-war/pkg/game"
	"github.com/rinooks/pixel-war/pkg/log"
	"github.com/rinooks/pixel-war/pkg/metrics"
	"github.com/rinooks/pixel-war/pkg/network"
	"github.com/rinooks/pixel-war/pkg/pubsub"
	"github.com/rinooks/pixel-war/pkg/queue"
	"github.com/rinooks/pixel-war/pkg/repositories"
	"github.com/rinooks/pixel-war/pkg/workers"
)

func main() {
	logLevel := flag.String("log-level", "", "Log level (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	parsedLogLevel, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repository, err := newRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		panic(fmt.Sprintf("Failed to open repository: %v", err))
	}
	defer repository.Close(ctx)

	var broadcaster pubsub.Broadcaster
	if cfg.RedisAddr != "" {
		broadcaster, err = pubsub.NewRedisBroadcaster(ctx, cfg.RedisAddr)
		if err != nil {
			panic(fmt.Sprintf("Failed to connect to redis: %v", err))
		}
	} else {
		broadcaster = pubsub.NewInMemoryBroadcaster()
	}
	defer broadcaster.Close()

	var authProvider authproviders.AuthProvider
	if cfg.FirebaseProjectID != "" {
		authProvider, err = authproviders.NewFirebaseAuthProvider(ctx, cfg.FirebaseProjectID, cfg.FirebaseAPIKey)
		if err != nil {
			panic(fmt.Sprintf("Failed to create auth provider: %v", err))
		}
	} else {
		log.Warn("No Firebase project configured, instructor auth is insecure")
		authProvider = authproviders.NewInsecureAuthProvider()
	}

	metricsManager := metrics.NewManager()
	clientManager := network.NewClientManager()
	clientMessageQueue := queue.NewInMemoryQueue(cfg.MessageQueueSize)
	connectionEventQueue := queue.NewInMemoryQueue(1000)

	networkManager := network.NewNetworkManager(network.NewNetworkManagerOptions{
		ClientManager: clientManager,
		MessageQueue:  clientMessageQueue,
		WSPort:        cfg.WSPort,
		Metrics:       metricsManager,
	})
	networkManager.Start(ctx)

	clientEventWorker := workers.NewClientEventWorker(workers.NewClientEventWorkerOptions{
		ClientManager:        clientManager,
		ConnectionEventQueue: connectionEventQueue,
	})
	go clientEventWorker.Start()

	saveChannels := workers.NewSaveChannels(100)
	saveWorker := workers.NewSaveSessionWorker(workers.NewSaveSessionWorkerOptions{
		Repository:  repository,
		Channels:    saveChannels,
		Broadcaster: broadcaster,
		Metrics:     metricsManager,
	})
	go saveWorker.Start(ctx)

	serverMessageChan := make(chan workers.ServerMessage, 1000)
	serverMessageWorker := workers.NewServerMessageWorker(workers.NewServerMessageWorkerOptions{
		NetworkManager:    networkManager,
		ServerMessageChan: serverMessageChan,
	})
	go serverMessageWorker.Start(ctx)

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Addr:          cfg.APIAddr,
		AuthProvider:  authProvider,
		Repository:    repository,
		Metrics:       metricsManager,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	go apiServer.Start()
	defer apiServer.Stop(ctx)

	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		ClientManager:        clientManager,
		ClientMessageQueue:   clientMessageQueue,
		ConnectionEventQueue: connectionEventQueue,
		Repository:           repository,
		ServerMessageChan:    serverMessageChan,
		SaveChannels:         saveChannels,
		Metrics:              metricsManager,
		GameLoopInterval:     time.Duration(cfg.TickIntervalMS) * time.Millisecond,
		SaveInterval:         time.Duration(cfg.SaveIntervalSec) * time.Second,
		SyncCycleInterval:    time.Duration(cfg.SyncCycleSec) * time.Second,
	})

	log.Info("Starting game manager")
	if err := gameManager.Start(ctx); err != nil {
		panic(fmt.Sprintf("Game manager stopped: %v", err))
	}
}

// newRepository selects the backend from the database URL scheme.
func newRepository(ctx context.Context, databaseURL string) (repositories.Repository, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return repositories.NewPostgresRepository(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return repositories.NewSQLiteRepository(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.HasPrefix(databaseURL, "memory://"):
		return repositories.NewInMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported database URL: %s", databaseURL)
	}
}
