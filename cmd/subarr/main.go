// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autobrr/subarr/internal/api"
	"github.com/autobrr/subarr/internal/availability"
	"github.com/autobrr/subarr/internal/buildinfo"
	"github.com/autobrr/subarr/internal/config"
	"github.com/autobrr/subarr/internal/domain"
	"github.com/autobrr/subarr/internal/janitor"
	"github.com/autobrr/subarr/internal/metrics"
	"github.com/autobrr/subarr/internal/providers"
	"github.com/autobrr/subarr/internal/resolve"
	"github.com/autobrr/subarr/internal/search"
)

func main() {
	// Load a .env file when present, mainly for development setups
	_ = godotenv.Load()

	config.InitDefaultLogger(buildinfo.Version)

	var rootCmd = &cobra.Command{
		Use:   "subarr",
		Short: "A self-hosted subtitle search aggregator",
		Long: `subarr - aggregates subtitle search results across multiple
providers with caching, match scoring, and rate-limit awareness.`,
	}

	rootCmd.Version = buildinfo.Version

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunVersionCommand(buildinfo.Version))
	rootCmd.AddCommand(RunGenerateConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunServeCommand() *cobra.Command {
	var (
		configDir string
		dataDir   string
		logPath   string
	)

	var command = &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/subarr/ or %APPDATA%\\subarr\\). For backward compatibility, can also be a direct path to a .toml file")
	command.Flags().StringVar(&dataDir, "data-dir", "", "data directory for the availability cache and other files (default is next to config file)")
	command.Flags().StringVar(&logPath, "log-path", "", "log file path (default is stdout)")

	command.Run = func(cmd *cobra.Command, args []string) {
		app := NewApplication(configDir, dataDir, logPath)
		app.runServer()
	}

	return command
}

func RunVersionCommand(version string) *cobra.Command {
	var command = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of subarr",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	return command
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file without starting the server.
Writes config.toml into the given directory, or the OS-specific default
location when none is provided.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := configDir
			if dir == "" {
				dir = config.GetDefaultConfigDir()
			}

			path := dir
			if !isTomlPath(path) {
				path = fmt.Sprintf("%s/config.toml", dir)
			}

			if err := config.WriteDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			cmd.Printf("Wrote default config to %s\n", path)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory or file path")

	return command
}

func isTomlPath(path string) bool {
	return len(path) > 5 && path[len(path)-5:] == ".toml"
}

type Application struct {
	configDir string
	dataDir   string
	logPath   string
}

func NewApplication(configDir, dataDir, logPath string) *Application {
	return &Application{
		configDir: configDir,
		dataDir:   dataDir,
		logPath:   logPath,
	}
}

func (app *Application) runServer() {
	// Initialize configuration
	cfg, err := config.New(app.configDir, buildinfo.Version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize configuration")
	}

	// Override with CLI flags if provided
	if app.dataDir != "" {
		os.Setenv("SUBARR__DATA_DIR", app.dataDir)
		cfg.SetDataDir(app.dataDir)
	}
	if app.logPath != "" {
		os.Setenv("SUBARR__LOG_PATH", app.logPath)
		cfg.Config.LogPath = app.logPath
	}

	cfg.ApplyLogConfig()

	log.Info().Str("version", buildinfo.Version).Msg("Starting subarr")

	cooldowns := providers.NewCooldownTracker(time.Duration(cfg.Config.DefaultCooldownSeconds) * time.Second)
	providerList := buildProviders(cfg.Config, cooldowns)

	availabilityCache := availability.New(
		cfg.GetAvailabilityCachePath(),
		time.Duration(cfg.Config.AvailabilityTTLDays)*24*time.Hour,
	)
	availabilityCache.Load()

	searchMetrics := search.NewServiceMetrics()
	resultCache := search.NewResultCache(
		time.Duration(cfg.Config.SearchCacheTTLMinutes)*time.Minute,
		searchMetrics,
	)

	searchService, err := search.NewService(
		providerList,
		cooldowns,
		resultCache,
		availabilityCache,
		search.Options{
			ProviderTimeout:       time.Duration(cfg.Config.ProviderTimeoutSeconds) * time.Second,
			CompactMode:           cfg.Config.CompactMode,
			MaxResults:            cfg.Config.MaxResults,
			MaxResultsPerProvider: cfg.Config.MaxResultsPerProvider,
		},
		searchMetrics,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize search service, enable at least one provider")
	}

	resolver := resolve.NewResolver(providerList, time.Duration(cfg.Config.ResolveCacheTTLSeconds)*time.Second)

	maintenance := janitor.New(resultCache, availabilityCache)
	if err := maintenance.Start(cfg.Config.CacheSweepMinutes, cfg.Config.AvailabilityFlushMinutes); err != nil {
		log.Fatal().Err(err).Msg("Failed to start cache maintenance")
	}

	httpServer := api.NewServer(&api.Dependencies{
		Config:            cfg,
		Version:           buildinfo.Version,
		SearchService:     searchService,
		Resolver:          resolver,
		AvailabilityCache: availabilityCache,
	})

	errorChannel := make(chan error)
	serverReady := make(chan struct{}, 1)
	go func() {
		if err := httpServer.ListenAndServeReady(serverReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorChannel <- err
		}
	}()

	select {
	case <-serverReady:
	case err := <-errorChannel:
		log.Fatal().Err(err).Msg("failed to start HTTP server")
	}

	if cfg.Config.MetricsEnabled {
		// Start metrics server on separate port
		go func() {
			metricsServer := metrics.NewMetricsServer(
				cfg.Config.MetricsHost,
				cfg.Config.MetricsPort,
			)

			errorChannel <- metricsServer.ListenAndServe()
		}()
	}

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Msgf("got signal %v, shutting down server", sig.String())
	case err := <-errorChannel:
		log.Error().Err(err).Msg("got unexpected error from server")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("got error during graceful http shutdown")
	}

	// Stop maintenance last so the final availability flush runs after the
	// API stopped accepting writes.
	maintenance.Stop()
}

func buildProviders(cfg *domain.Config, cooldowns *providers.CooldownTracker) []providers.Provider {
	timeout := time.Duration(cfg.ProviderTimeoutSeconds) * time.Second

	var list []providers.Provider
	if cfg.OpenSubtitles.Enabled {
		list = append(list, providers.NewOpenSubtitles(cfg.OpenSubtitles.BaseURL, cfg.OpenSubtitles.APIKey, timeout, cooldowns))
		log.Debug().Str("provider", providers.OpenSubtitlesID).Msg("provider enabled")
	}
	if cfg.Podnapisi.Enabled {
		list = append(list, providers.NewPodnapisi(cfg.Podnapisi.BaseURL, timeout, cooldowns))
		log.Debug().Str("provider", providers.PodnapisiID).Msg("provider enabled")
	}
	if cfg.SubDL.Enabled {
		list = append(list, providers.NewSubDL(cfg.SubDL.BaseURL, cfg.SubDL.APIKey, timeout, cooldowns))
		log.Debug().Str("provider", providers.SubDLID).Msg("provider enabled")
	}

	return list
}
