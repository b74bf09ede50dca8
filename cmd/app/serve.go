package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/BloggingApp/artblog-service/internal/filestore"
	"github.com/BloggingApp/artblog-service/internal/handler"
	"github.com/BloggingApp/artblog-service/internal/imagegen"
	"github.com/BloggingApp/artblog-service/internal/rabbitmq"
	"github.com/BloggingApp/artblog-service/internal/server"
	"github.com/BloggingApp/artblog-service/internal/service"
	"github.com/BloggingApp/artblog-service/internal/telemetry"
	"github.com/BloggingApp/artblog-service/internal/transcode"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tel, err := telemetry.Setup(cfg.App.Name, cfg.Telemetry, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(flushCtx); err != nil {
			logger.Sugar().Errorf("failed to flush telemetry: %s", err.Error())
		}
	}()

	repos, closeRepos, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepos()

	provider := imagegen.NewOpenAIProvider(logger, imagegen.NewOpenAIClient(cfg.OpenAI), cfg.OpenAI, cfg.Image)
	deps := service.Deps{
		Provider: provider,
		Fetcher: transcode.New(&http.Client{}, transcode.Options{
			Quality:  cfg.Image.Quality,
			Timeout:  cfg.Image.DownloadTimeout,
			MaxBytes: cfg.Image.MaxDownloadBytes,
			Local:    provider.Placeholders(),
		}),
	}

	files, err := filestore.NewOS(cfg.Image.UploadsDir)
	if err != nil {
		return err
	}
	deps.Files = files

	if cfg.RabbitMQ.URL != "" {
		mq, err := rabbitmq.New(cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		defer mq.Close()
		deps.Broker = mq
		logger.Info("Successfully connected to RabbitMQ")
	} else {
		logger.Info("RabbitMQ is not configured, post events are disabled")
	}

	services := service.New(logger, repos, cfg, deps)
	handlers := handler.New(logger, services, cfg, files.HTTPFileSystem())

	srv := server.New()
	serverConfig := cfg.Server
	serverConfig.Handler = handlers.InitRoutes()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(serverConfig)
	}()

	go services.StartConsumeAll(ctx)

	logger.Sugar().Infof("Server started on port %s", serverConfig.Port)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Sugar().Errorf("http server stopped: %s", err.Error())
			return err
		}
	}

	logger.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to shut down http server: %s", err.Error())
		return err
	}

	return nil
}
