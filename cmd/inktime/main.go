package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/inktime/inktime/internal/config"
	"github.com/inktime/inktime/internal/version"
)

var (
	flagConfigPath string
	flagVerbose    bool
	cfg            config.Config
)

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "config.json", "path to config file (json)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")

	rootCmd.SilenceErrors = true
	rootCmd.PersistentPreRunE = initInktime

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("inktime failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "inktime",
	Short:        "Daily e-ink photo frame: guarded renderer runs and the photo server",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inktime: %s\n", version.Version)
		if version.Commit != "" {
			fmt.Printf("commit:  %s\n", version.Commit)
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Printf("go:      %s\n", info.GoVersion)
		}
	},
}

func initInktime(cmd *cobra.Command, _ []string) error {
	if err := config.EnsureConfigFile(flagConfigPath); err != nil {
		return fmt.Errorf("ensure config: %w", err)
	}
	var err error
	cfg, err = config.Load(flagConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Debug("config loaded", "path", flagConfigPath, "root", cfg.Paths.Root)
	return nil
}
