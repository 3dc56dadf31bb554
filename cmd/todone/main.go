// Package main is the entry point for the todone CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Jayphen/todone/internal/config"
	"github.com/Jayphen/todone/internal/logging"
)

// Version is set at build time.
var Version = "dev"

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	initLogging()

	if err := newRootCmd().Execute(); err != nil {
		logging.WithError(err).Debug("command failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "todone",
		Short: "A task manager with a query language",
		Long: `todone keeps tasks, projects, labels and saved filters in a local
SQLite database or in Redis.

Tasks can be found with queries such as "today @errand #work p1", can repeat
daily, on weekdays, weekly, monthly or yearly, and pick up due dates from text
like "Buy milk tomorrow".`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newTaskCmd(),
		newAddCmd(),
		newListCmd(),
		newProjectCmd(),
		newLabelCmd(),
		newFilterCmd(),
		newBoardCmd(),
		newWeekCmd(),
		newImportCmd(),
		newExportCmd(),
		newRemindCmd(),
		newServeCmd(),
		newTUICmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// initLogging initializes the logger from config.
func initLogging() {
	cfg, err := config.Get()
	if err != nil {
		// If config fails, use defaults (console output)
		_ = logging.Init(nil)
		return
	}

	if err := logging.InitFromOptions(logOptions(cfg.Logging)); err != nil {
		// Fall back to defaults on error
		_ = logging.Init(nil)
		logging.Warnf("invalid logging config, using defaults: %v", err)
	}
}

func logOptions(lc config.LoggingConfig) logging.Options {
	return logging.Options{
		Level:      lc.Level,
		FilePath:   lc.FilePath,
		JSON:       lc.JSON,
		Console:    lc.Console,
		MaxSize:    lc.MaxSize,
		MaxBackups: lc.MaxBackups,
		MaxAge:     lc.MaxAge,
		Compress:   lc.Compress,
	}
}
