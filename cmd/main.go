package main

import (
	"fmt"
	"os"

	"assistant-client/internal/apiclient"
	"assistant-client/internal/config"
	"assistant-client/internal/health"
	"assistant-client/internal/metrics"
	"assistant-client/internal/service"
	"assistant-client/internal/storage"
	"assistant-client/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "assistant-client",
		Short:         "Chat client for the insurance assistant API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "config file path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at the configured level on the terminal commands")

	root.AddCommand(serveCMD(), chatCMD(), askCMD(), statusCMD())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app is everything one command needs, built from the loaded config.
type app struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	client  *apiclient.Client
	store   storage.Storage
	chat    *service.ChatService
	checker *health.Checker
}

// loadConfig reads the config file when it exists; a missing default file
// falls back to defaults and environment.
func loadConfig() (*config.Config, error) {
	path := configPath
	if _, err := os.Stat(path); err != nil {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newApp loads config, sets up logging and wires the client context. The
// terminal commands keep logs on stderr and quiet unless --verbose is set.
func newApp(terminal bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if terminal {
		level := cfg.Log.Level
		if !verbose {
			level = "warn"
		}
		err = logger.InitWithOutput(level, cfg.Log.Format, os.Stderr)
	} else {
		err = logger.Init(cfg.Log.Level, cfg.Log.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	m := metrics.New()
	client := apiclient.New(cfg.API.BaseURL, cfg.API.Timeout, apiclient.WithObserver(m))

	store := storage.NewMemoryStorage()
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	chat := service.NewChatService(client, service.Options{
		UserID:     cfg.API.UserID,
		Platform:   cfg.API.Platform,
		MaxResults: cfg.API.MaxResults,
		Storage:    store,
		Recorder:   m,
	})

	return &app{
		cfg:     cfg,
		metrics: m,
		client:  client,
		store:   store,
		chat:    chat,
		checker: health.NewChecker(client, cfg.Health.CacheTTL),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Errorf("Failed to close storage: %v", err)
	}
}
