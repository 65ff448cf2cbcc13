package commands

import (
	"fmt"

	"github.com/ghiro/autoupload/internal/config"
	"github.com/ghiro/autoupload/pkg/logx"
	"github.com/spf13/cobra"
)

var (
	// Used for flags.
	flagConfig string

	rootCmd = &cobra.Command{
		Use:          "autoupload",
		Short:        "Directory monitor and images upload",
		Long:         "autoupload - watches per-case directories and submits new images for analysis",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "autoupload.yaml", "config file path")

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(casesCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration file given by --config and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	if err := logx.Initialize(cfg.Log); err != nil {
		return nil, err
	}

	return cfg, nil
}
