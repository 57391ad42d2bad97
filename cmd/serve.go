package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assistant-client/internal/handler"
	"assistant-client/internal/notify"
	"assistant-client/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCMD() *cobra.Command {
	var port int
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the web chat client",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			if port > 0 {
				a.cfg.Server.Port = port
			}
			return runServer(cmd.Context(), a)
		},
	}
	serve.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")

	return serve
}

func runServer(ctx context.Context, a *app) error {
	if a.cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	notifier := notify.NewCenter(a.cfg.Notify.TTL)

	if _, err := a.checker.Probe(ctx); err != nil {
		notifier.Push(notify.LevelWarning, notify.MsgUnreachable)
	}
	a.chat.EstablishSession(ctx)

	chatHandler := handler.NewChatHandler(a.chat, a.checker, notifier, a.cfg.UI)
	router := handler.NewRouter(a.cfg, chatHandler, notifier, a.metrics.Handler())

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    a.cfg.Server.ReadTimeout,
		WriteTimeout:   a.cfg.Server.WriteTimeout,
		MaxHeaderBytes: a.cfg.Server.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server listening on port %d (API %s)", a.cfg.Server.Port, a.client.BaseURL())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
		return err
	}
	logger.Info("Server stopped")
	return nil
}
