package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Jayphen/todone/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage todone configuration files.`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the current configuration values from all sources.`,
		RunE:  runConfigShow,
	}
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		asTOML bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create example configuration file",
		Long: `Create an example configuration file at ~/.config/todone/config.yaml
(or config.toml with --toml).

The generated file contains all available options with their default values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, force, asTOML)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config file")
	cmd.Flags().BoolVar(&asTOML, "toml", false, "Write TOML instead of YAML")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Long:  `Display the paths where configuration files are searched.`,
		RunE:  runConfigPath,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Get()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  backend:         %s\n", cfg.Backend)
	fmt.Fprintf(out, "  db_path:         %s\n", cfg.DBPath)
	fmt.Fprintf(out, "  redis_url:       %s\n", maskURL(cfg.RedisURL))
	fmt.Fprintf(out, "  api_addr:        %s\n", cfg.APIAddr)
	fmt.Fprintf(out, "  default_project: %s\n", valueOrDefault(cfg.DefaultProject, "(not set)"))
	fmt.Fprintf(out, "  remind_notify:   %t\n", cfg.RemindNotify)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Logging:")
	fmt.Fprintf(out, "    level:     %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "    file_path: %s\n", valueOrDefault(cfg.Logging.FilePath, "(not set)"))
	fmt.Fprintf(out, "    json:      %t\n", cfg.Logging.JSON)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Keys:")
	k := cfg.Keys
	for _, kv := range [][2]string{
		{"quit", k.Quit}, {"up", k.Up}, {"down", k.Down}, {"toggle", k.Toggle},
		{"delete", k.Delete}, {"move_up", k.MoveUp}, {"move_down", k.MoveDown},
		{"filter", k.Filter}, {"add", k.Add},
	} {
		fmt.Fprintf(out, "    %-10s %q\n", kv[0]+":", kv[1])
	}

	return nil
}

func runConfigInit(cmd *cobra.Command, force, asTOML bool) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	name := "config.yaml"
	if asTOML {
		name = "config.toml"
	}
	configPath := filepath.Join(homeDir, ".config", "todone", name)

	// Check if file exists
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	if err := config.WriteExample(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at: %s\n", configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Edit this file to customize your settings.")
	fmt.Fprintln(out, "Run 'todone config show' to see current values.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration file search paths (in priority order):")
	fmt.Fprintln(out)

	paths := config.ConfigPaths()
	for i, p := range paths {
		exists := "not found"
		if _, err := os.Stat(p); err == nil {
			exists = "found"
		}
		fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, p, exists)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "A .env file in the working directory is loaded first.")
	fmt.Fprintln(out, "Environment variables can override file settings.")
	fmt.Fprintln(out, "Supported env vars:")
	fmt.Fprintln(out, "  TODONE_BACKEND")
	fmt.Fprintln(out, "  TODONE_DB_PATH")
	fmt.Fprintln(out, "  TODONE_REDIS_URL (or REDIS_URL)")
	fmt.Fprintln(out, "  TODONE_API_ADDR")
	fmt.Fprintln(out, "  TODONE_DEFAULT_PROJECT")
	fmt.Fprintln(out, "  TODONE_REMIND_NOTIFY")
	fmt.Fprintln(out, "  TODONE_LOG_LEVEL")
	fmt.Fprintln(out, "  TODONE_LOG_FILE")

	return nil
}

func valueOrDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

// maskURL hides the password of a connection URL.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	return u.Redacted()
}
