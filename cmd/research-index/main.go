// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-index CLI. Each
// subcommand opens the persisted state, drives the outline lifecycle one
// step, and exits; serve keeps the lifecycle alive behind an HTTP API.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-index/internal/generator"
	"github.com/pdiddy/research-index/internal/lifecycle"
	"github.com/pdiddy/research-index/internal/secrets"
	"github.com/pdiddy/research-index/internal/state"
	"github.com/pdiddy/research-index/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	secretGeneratorKey = "generator-api-key"
	secretServeKey     = "serve-api-key"
)

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, otherwise the secret stored under key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

var rootCmd = &cobra.Command{
	Use:   "research-index",
	Short: "Generate, score, edit, and export Arabic research outlines",
	Long: `research-index requests a research outline (فهرس البحث) from the outline
generation service, scores it with three lexical quality heuristics, and keeps
it in a local state directory so it can be shown, edited, regenerated with the
same parameters, or exported.

Each lifecycle step is a subcommand. serve exposes the same lifecycle over
HTTP for a display layer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		s, err := secrets.Load(".secrets/", log)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-index.yaml or ~/.config/research-index/research-index.yaml)")
	rootCmd.PersistentFlags().String("state-dir", "", "directory holding the persisted outline (overrides state.dir)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	viper.BindPFlag("state.dir", rootCmd.PersistentFlags().Lookup("state-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-index")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-index"))
		}
	}

	setConfigDefaults(viper.GetViper())

	viper.SetEnvPrefix("RESEARCH_INDEX")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger returns a text logger on stderr, at debug level with --verbose.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// session is the state a lifecycle subcommand works against.
type session struct {
	cfg        types.AppConfig
	log        *slog.Logger
	store      *state.Store
	controller *lifecycle.Controller
}

func openSession(log *slog.Logger) (*session, error) {
	cfg := appConfig(viper.GetViper())
	cfg.Generator.APIKey = secretDefault(secretGeneratorKey, cfg.Generator.APIKey)

	store, err := state.Open(cfg.State)
	if err != nil {
		return nil, err
	}
	gen := generator.New(cfg.Generator, log)
	return &session{
		cfg:        cfg,
		log:        log,
		store:      store,
		controller: lifecycle.New(gen, store, log),
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// load makes the persisted outline active.
func (s *session) load(cmd *cobra.Command) error {
	if err := s.controller.Load(cmd.Context()); err != nil {
		if errors.Is(err, lifecycle.ErrNoDocument) {
			return fmt.Errorf("no outline yet: run 'research-index generate --title ...' first")
		}
		return err
	}
	return nil
}

// warnPersist reports a persistence failure without failing the command.
// The outline was produced; only storing it failed.
func warnPersist(err error) error {
	var pe *lifecycle.PersistError
	if errors.As(err, &pe) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", pe)
		return nil
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
