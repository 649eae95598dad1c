// pkg/cli/root.go
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/filmscan/scantag/internal/config"
	"github.com/filmscan/scantag/internal/logger"
	"github.com/spf13/cobra"
)

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interruption signals
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	rootCmd := &cobra.Command{
		Use:   "scantag",
		Short: "Restore shooting metadata on scanned film images",
		Long: `A tool for scanned film images: resolves EXIF metadata from directory
metafiles, encoded file names and scanner maker notes, applies geometric
corrections, and writes the result through exiftool. Includes a crop mask
detector for recovering crop geometry from masked scans.`,
	}

	// Global flags
	cfg := config.New()
	var configFile string
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a configuration file")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := cfg.LoadFile(configFile); err != nil {
				return err
			}
		}
		logger.SetLevel(cfg.LogLevel)
		return nil
	}

	// Add commands
	rootCmd.AddCommand(newWriteCommand(cfg))
	rootCmd.AddCommand(newCropfindCommand(cfg))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Error executing command: %v", err)
		os.Exit(1)
	}
}
