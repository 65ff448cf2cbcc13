package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghiro/autoupload/internal/config"
	"github.com/ghiro/autoupload/internal/host"
	"github.com/ghiro/autoupload/internal/monitor"
	"github.com/ghiro/autoupload/internal/storage"
	"github.com/ghiro/autoupload/pkg/logx"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor the watch root and submit new images",
	Long:  "Monitor the watch root, create one directory per case and submit new files for analysis",
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Context() == nil {
			fmt.Println("Context is nil")
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		runMonitor(cmd.Context(), cfg)
	},
}

func runMonitor(ctx context.Context, cfg *config.Config) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	logx.StartTimer()

	if err := config.ValidateMonitorConfig(*cfg.Monitor); err != nil {
		logx.As().Fatal().Err(err).Msg("Invalid monitor configuration, aborting")
	}

	lock, err := monitor.AcquireLock(cfg.Monitor.LockFilePath())
	if err != nil {
		logx.As().Fatal().Err(err).Msg("Failed to lock watch root")
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logx.As().Warn().Err(err).Msg("Failed to release lock")
		}
	}()

	store, err := host.Open(ctx, *cfg.Host)
	if err != nil {
		logx.As().Fatal().Err(err).Msg("Failed to open host database")
	}
	defer closeStore(store)

	st, err := storage.New(*cfg.Storage, *cfg.Retry)
	if err != nil {
		logx.As().Fatal().Err(err).Msg("Failed to create storage")
	}

	m, err := monitor.NewMonitor("monitor", *cfg.Monitor, store, host.NewTaskSubmitter(store, st))
	if err != nil {
		logx.As().Fatal().Err(err).Msg("Failed to create monitor")
	}

	logx.As().Info().
		Str("monitor", m.Info()).
		Str("watch_root", m.Root()).
		Str("lock", lock.Path()).
		Str("database", store.Path()).
		Str("storage_type", st.Type()).
		Str("storage", st.Info()).
		Bool("delete_original", cfg.Monitor.DeleteOriginal).
		Str("delete_policy", cfg.Monitor.DeletePolicy).
		Str("interval", cfg.Monitor.Interval).
		Str("schedule", cfg.Monitor.Schedule).
		Msg("Starting monitor")

	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()

	// Handle OS signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		logx.As().Trace().Msg("Received exit signal, stopping monitor...")
		cancelFunc()
		<-done
		fmt.Println("Exiting... (requested by user)")
	case err := <-done:
		if err != nil {
			logx.As().Error().Err(err).Msg("Monitor stopped with error")
		}
	}

	logx.As().Info().Str("total_time", logx.ExecutionTime()).Msg("Monitor has stopped")
}
