// Package main provides the entry point for the envmap layer service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/envmap/internal/app"
	"github.com/jobrunner/envmap/internal/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "envmap",
	Short: "envmap - Dominica environmental map layer service",
	Long: `envmap loads the map layers of Dominica and serves them as GeoJSON.

Layers are read from KMZ, Shapefile, GeoJSON and GeoPackage assets,
reprojected from UTM zone 20N to WGS84 and cleaned of invalid geometry.
Flood risk and eco-tourism data come from the environmental API, with
built-in sample data when it is unreachable.

Features:
  - Concurrent layer loading with per-layer error isolation
  - Multiple storage backends (local, AWS S3, Azure, HTTP)
  - Hot-reload of local assets
  - TLS with automatic certificate management
  - Prometheus metrics`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("envmap %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Build Date: %s\n", buildDate)
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load all layers once and print the load report",
	RunE:  runLoad,
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Download all layer assets into a local directory",
	RunE:  runMirror,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().String("storage-type", "local", "storage type (local, s3, azure, http)")
	rootCmd.PersistentFlags().String("storage-path", "./public", "local storage path")
	rootCmd.PersistentFlags().String("api-url", "", "environmental API base URL")
	rootCmd.PersistentFlags().String("api-mode", "live", "environmental data mode (live, static)")

	// Server flags
	rootCmd.Flags().String("host", "0.0.0.0", "server host")
	rootCmd.Flags().Int("port", 3000, "server port")
	rootCmd.Flags().Bool("tls", false, "enable TLS")
	rootCmd.Flags().StringSlice("tls-domains", nil, "TLS domains")
	rootCmd.Flags().String("tls-email", "", "TLS email for Let's Encrypt")
	rootCmd.Flags().StringSlice("cors", nil, "allowed CORS origins (e.g., https://example.com,*.sub.domain.tld)")
	rootCmd.Flags().Duration("reload-interval", 0, "periodic layer reload interval (0 disables)")
	rootCmd.Flags().Bool("watch", true, "reload layers when local assets change")

	// Load flags
	loadCmd.Flags().StringP("out", "o", "", "write the report to a file instead of stdout")
	loadCmd.Flags().Bool("with-features", false, "include the cleaned features in the report")
	loadCmd.Flags().Bool("strict", false, "exit with an error when any layer fails")

	// Mirror flags
	mirrorCmd.Flags().String("dir", "", "destination directory (default: mirror.dir)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("storage.type", rootCmd.PersistentFlags().Lookup("storage-type"))
	_ = viper.BindPFlag("storage.local_path", rootCmd.PersistentFlags().Lookup("storage-path"))
	_ = viper.BindPFlag("api.mode", rootCmd.PersistentFlags().Lookup("api-mode"))
	_ = viper.BindPFlag("server.host", rootCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("tls.enabled", rootCmd.Flags().Lookup("tls"))
	_ = viper.BindPFlag("tls.domains", rootCmd.Flags().Lookup("tls-domains"))
	_ = viper.BindPFlag("tls.email", rootCmd.Flags().Lookup("tls-email"))
	_ = viper.BindPFlag("server.cors.allowed_origins", rootCmd.Flags().Lookup("cors"))
	_ = viper.BindPFlag("layers.reload_interval", rootCmd.Flags().Lookup("reload-interval"))
	_ = viper.BindPFlag("watch.enabled", rootCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("mirror.dir", mirrorCmd.Flags().Lookup("dir"))

	rootCmd.AddCommand(versionCmd, loadCmd, mirrorCmd)
}

// loadConfig reads the configuration. --api-url is applied explicitly so
// that an unset flag does not shadow ENVMAP_API_URL or VITE_API_URL.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if f := cmd.Flags().Lookup("api-url"); f != nil && f.Changed {
		viper.Set("api.url", f.Value.String())
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Setup logger
	logger := setupLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting envmap",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage_type", cfg.Storage.Type,
		"api_mode", cfg.API.Mode,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize application
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	// Start server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", cfg.Server.Address())
		if err := application.Start(ctx); err != nil {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server error
	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case runErr = <-serverErr:
		logger.Error("server error", "error", runErr)
		cancel()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down server")
	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return errors.Join(runErr, err)
	}

	logger.Info("server stopped")
	return runErr
}

func runLoad(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The report may go to stdout
	logger := setupLogger(cfg.Logging, os.Stderr)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader, err := app.NewLoader(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing loader: %w", err)
	}

	report, err := loader.Layers.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading layers: %w", err)
	}

	out, _ := cmd.Flags().GetString("out")
	withFeatures, _ := cmd.Flags().GetBool("with-features")

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := app.WriteReport(w, report, withFeatures); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if strict, _ := cmd.Flags().GetBool("strict"); strict && len(report.Failed()) > 0 {
		return fmt.Errorf("layers failed: %s", report.ErrorSummary())
	}
	return nil
}

func runMirror(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, os.Stderr)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader, err := app.NewLoader(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing loader: %w", err)
	}

	result, err := loader.Mirror(ctx, cfg.Mirror.Dir)
	fmt.Fprintf(cmd.OutOrStdout(), "mirrored %d files to %s\n", len(result.Downloaded), cfg.Mirror.Dir)
	if err != nil {
		return fmt.Errorf("mirroring assets: %w", err)
	}
	return nil
}

func setupLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(time.Now().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}
