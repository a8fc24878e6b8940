package main

import (
	"context"
	"log"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/SVANT888/CosmoTune/logging"
)

func main() {

	var (
		store KeyValueRepository
		err   error
	)

	logger, err := logging.InitLogger(envOrDefault("LOG_LEVEL", "info"), envOrDefault("LOG_FORMAT", "json"))
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync()

	dbUrl := envOrDefault("DB_URL", "sqlite://cosmotune.db")
	logger.Info("database url", zap.String("db_url", dbUrl))

	u, err := url.Parse(dbUrl)
	if err != nil {
		logger.Fatal("invalid DB_URL", zap.Error(err))
	}
	switch u.Scheme {
	case "sqlite":
		store, err = NewSQLiteRepository(u.Host + u.Path)
	case "postgres":
		store, err = NewPostgresRepository(dbUrl)
	default:
		logger.Fatal("unsupported DB_URL scheme", zap.String("scheme", u.Scheme))
	}
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}

	service := NewService(store, logger)
	defer service.close()

	notifier := NewLogNotifier(logger)
	radio := NewRadio(NewBeepOutput(), service, notifier, logger)
	defer radio.Shutdown()

	directory := NewDirectoryClient(logger)
	searcher := NewSearcher(directory.SearchStations, func(q Query, result SearchResult) {
		radio.SetStations(result.Stations)
		if result.Source == SourceFallback {
			notifier.Toast("Showing built-in stations while the directory is unreachable.", ToastInfo)
		} else if len(result.Stations) == 0 {
			notifier.Toast("No stations found. Try a different search term.", ToastInfo)
		}
	}, logger)
	defer searcher.Close()

	// populate the list before the UI asks for it
	initial := directory.SearchStations(context.Background(), Query{})
	radio.SetStations(initial.Stations)
	if service.Preferences().Autoplay && len(initial.Stations) > 0 {
		radio.Play(0)
	}

	echoRouter := NewHTTPRouter(service, radio, searcher)
	if err := echoRouter.Start(envOrDefault("HTTP_ADDR", ":3000")); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
