package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"askdoc/internal/api"
	"askdoc/internal/config"
	"askdoc/internal/logging"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var cli struct {
	Config  string `help:"Path to an optional YAML config file" default:""`
	Addr    string `help:"Listen address, overrides ASKDOC_API_ADDR" default:""`
	EnvFile string `help:"dotenv file loaded before reading the environment" default:".env"`
}

func main() {
	_ = kong.Parse(&cli,
		kong.Name("askdoc-api"),
		kong.Description("Answers questions about uploaded documents."),
	)
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if cli.EnvFile != "" {
		_ = godotenv.Load(cli.EnvFile)
	}
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.Addr != "" {
		cfg.APIAddr = cli.Addr
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	s, err := api.NewServer(cfg, log)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("askdoc api listening",
			zap.String("addr", cfg.APIAddr),
			zap.String("llm_providers", cfg.LLMProviders),
			zap.String("free_text_mode", cfg.FreeTextMode),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
