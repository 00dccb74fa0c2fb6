package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	cfgpkg "github.com/KaramelBytes/groupfill-cli/internal/config"
	"github.com/KaramelBytes/groupfill-cli/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "groupfill",
	Short: "groupfill: fill missing quantities with per-group means",
	Long: `groupfill cleans tabular data (CSV/TSV/XLSX). For every distinct value of a group
column (default "material") it coerces a target column (default "qty_final") to
numbers and replaces missing or unparseable entries with the mean of that group.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.groupfill/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging to stderr")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: flags alone are enough to clean a file
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// newLogger returns the run logger; a no-op unless --debug is set.
func newLogger() *zap.Logger {
	mode := "dev"
	if cfg != nil && cfg.LogMode != "" {
		mode = cfg.LogMode
	}
	l, err := logging.New(debug, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: debug logging unavailable: %v\n", err)
		return zap.NewNop()
	}
	return l
}
