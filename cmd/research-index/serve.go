package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-index/internal/api"
	"github.com/pdiddy/research-index/internal/lifecycle"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the outline lifecycle over HTTP",
	Long: `Serve loads the stored outline, if any, and exposes viewing, editing,
regeneration, scoring, and export under /api. When a serve-api-key secret
(or serve.api_key) is configured, /api requests need it as a bearer token.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	s, err := openSession(log)
	if err != nil {
		return err
	}
	defer s.Close()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		s.cfg.Serve.Addr = addr
	}

	if err := s.controller.Load(cmd.Context()); err != nil {
		if !errors.Is(err, lifecycle.ErrNoDocument) {
			return err
		}
		log.Info("no stored outline, starting unloaded")
	}

	apiKey := secretDefault(secretServeKey, viper.GetString("serve.api_key"))
	srv := api.NewServer(s.controller, log, apiKey)

	httpServer := &http.Server{
		Addr:        s.cfg.Serve.Addr,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
		// Generation requests hold the connection until the service answers.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting research-index", "addr", s.cfg.Serve.Addr, "generator", s.cfg.Generator.BaseURL, "auth", apiKey != "")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides serve.addr)")

	rootCmd.AddCommand(serveCmd)
}
