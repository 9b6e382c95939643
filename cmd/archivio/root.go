package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gsandoval82/archivio-backend/internal/config"
	"github.com/gsandoval82/archivio-backend/internal/domain/library"
	"github.com/gsandoval82/archivio-backend/internal/infra/archive"
	"github.com/gsandoval82/archivio-backend/internal/infra/cache"
	"github.com/gsandoval82/archivio-backend/internal/version"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "archivio",
	Short: "Archivio exposes the Internet Archive as a browsable music source.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired-up backend components a command works with.
type app struct {
	cfg      *config.Config
	client   *archive.Client
	provider *library.Provider
}

func newApp() *app {
	cfg := config.Load()
	c := cache.New(cfg.CacheSize, cfg.CacheTTL)
	client := archive.New(
		archive.WithBaseURL(cfg.BaseURL),
		archive.WithTimeout(cfg.Timeout),
		archive.WithRetries(cfg.Retries),
		archive.WithCache(c),
		archive.WithUserAgent(version.GetInfo().UserAgent()),
	)
	return &app{
		cfg:      cfg,
		client:   client,
		provider: library.NewProvider(cfg, client, c),
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
