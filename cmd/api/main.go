package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"optemus/internal/generate"
	"optemus/internal/http/handlers"
	"optemus/internal/http/httpapi"
	"optemus/internal/imagegen"
	"optemus/internal/infra"
	"optemus/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	generator, err := imagegen.NewOpenAIGenerator(imagegen.OpenAIOptions{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		BaseURL:    cfg.OpenAIBaseURL,
		Timeout:    cfg.OpenAITimeout,
		MaxRetries: cfg.OpenAIMaxRetries,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure image generator")
	}

	backends, err := buildBackends(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage backends")
	}
	for _, b := range backends {
		logger.Info().Str("backend", b.Name()).Msg("storage backend enabled")
	}

	fetcher := generate.NewFetcher(nil)
	orchestrator := generate.NewOrchestrator(generator, backends, fetcher, logger)
	app := handlers.NewApp(cfg, logger, orchestrator, backends, fetcher)
	router := httpapi.NewRouter(app, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// buildBackends instantiates every store named in STORAGE_BACKENDS, in
// order. Config validation has already checked each backend's credentials.
func buildBackends(cfg *infra.Config, logger infra.Logger) ([]storage.Backend, error) {
	var backends []storage.Backend
	for _, name := range cfg.StorageBackends {
		switch name {
		case storage.BackendLocal:
			store, err := storage.NewFileStore(cfg.ImagesDir, cfg.ImagesBaseURL)
			if err != nil {
				return nil, err
			}
			backends = append(backends, store)
		case storage.BackendBlob:
			client := s3.New(s3.Options{
				Region: cfg.S3Region,
				Credentials: aws.NewCredentialsCache(
					credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, ""),
				),
			})
			store, err := storage.NewBlobStore(storage.BlobStoreOptions{
				Client:        client,
				Bucket:        cfg.S3Bucket,
				Region:        cfg.S3Region,
				IndexKey:      cfg.S3IndexKey,
				PublicBaseURL: cfg.S3PublicBaseURL,
			})
			if err != nil {
				return nil, err
			}
			backends = append(backends, store)
		case storage.BackendDocDB:
			store, err := storage.NewNotionStore(storage.NotionOptions{
				Token:      cfg.NotionToken,
				DatabaseID: cfg.NotionDatabaseID,
				BaseURL:    cfg.NotionBaseURL,
				Logger:     logger,
			})
			if err != nil {
				return nil, err
			}
			backends = append(backends, store)
		}
	}
	return backends, nil
}
