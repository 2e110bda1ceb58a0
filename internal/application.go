package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/noughts-and-crosses/internal/config"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/repository"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/repository/memory"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/repository/storage"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/usecase"
	"github.com/rocketscienceinc/noughts-and-crosses/transport/rest"
	"github.com/rocketscienceinc/noughts-and-crosses/transport/websocket"
)

var (
	ErrAddrNotFound       = errors.New("redis address string is empty")
	ErrUnknownStorageType = errors.New("unknown storage type")
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	gameRepo, closeRepo, err := newGameRepository(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closeRepo(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	gameManager := usecase.NewGameManager(logger, gameRepo)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, rest.NewHandlers(logger, gameManager)); httpErr != nil {
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameManager)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newGameRepository - picks the session store configured for this instance.
func newGameRepository(ctx context.Context, conf *config.Config) (repository.GameRepository, func() error, error) {
	switch conf.Storage {
	case config.StorageMemory:
		return memory.NewGameRepository(), func() error { return nil }, nil
	case config.StorageRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.New(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewGameRepository(redisStorage, conf.SessionTTL), redisStorage.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownStorageType, conf.Storage)
	}
}
