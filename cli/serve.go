package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	qhttp "claimguard/http"
	"claimguard/ml"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the claim form and scoring API",
	Long: `Serve loads the model artifact, then starts the HTTP server with the claim
form at /, the JSON API under /api and Prometheus metrics at /metrics.

A missing or unreadable artifact does not stop the server: the form shows
a warning and the API answers 503 until the model is reloaded.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := ml.NewProvider(cfg.Model.Path, nil, log)
	if err := provider.Load(ctx); err != nil {
		log.Warn("serving without a model", zap.Error(err))
	}
	if cfg.Model.Watch {
		if err := provider.Watch(ctx); err != nil {
			log.Warn("model watch disabled", zap.Error(err))
		}
	}

	handlers, err := qhttp.NewHandlers(provider, qhttp.HandlersConfig{
		Locale:          cfg.UI.Locale,
		SessionCapacity: cfg.UI.SessionCapacity,
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		RateLimit:       cfg.HTTP.RateLimit,
		RateBurst:       cfg.HTTP.RateBurst,
	}, log)
	if err != nil {
		return err
	}

	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		Timeout:        cfg.HTTP.Timeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
	}, handlers, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := server.Stop(); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	return nil
}
