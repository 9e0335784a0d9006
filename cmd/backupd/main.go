package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/venuekit/backupd/internal/admin"
	"github.com/venuekit/backupd/internal/catalog"
	"github.com/venuekit/backupd/internal/config"
	"github.com/venuekit/backupd/internal/coordinator"
	"github.com/venuekit/backupd/internal/logging"
	"github.com/venuekit/backupd/internal/version"
)

type rootFlags struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

func main() {
	root := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "backupd",
		Short: "Snapshot coordinator for the application database",
		Long:  "backupd snapshots the application's embedded database file to an S3-compatible object store, restores it, and retires old snapshots.",
	}

	rootCmd.PersistentFlags().StringVar(&root.ConfigPath, "config", "", "Path to config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&root.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&root.LogFormat, "log-format", "", "Log format (json, console)")

	rootCmd.AddCommand(newBackupCmd(root))
	rootCmd.AddCommand(newRestoreCmd(root))
	rootCmd.AddCommand(newListCmd(root))
	rootCmd.AddCommand(newCleanupCmd(root))
	rootCmd.AddCommand(newCheckCmd(root))
	rootCmd.AddCommand(newStatusCmd(root))
	rootCmd.AddCommand(newServeCmd(root))
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(root *rootFlags) (*config.Config, *coordinator.Coordinator, zerolog.Logger, error) {
	cfg, err := config.Load(root.ConfigPath)
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	if root.LogLevel != "" {
		cfg.Global.LogLevel = root.LogLevel
	}
	if root.LogFormat != "" {
		cfg.Global.LogFormat = root.LogFormat
	}
	logger := logging.Configure(cfg.Global.LogLevel, cfg.Global.LogFormat)
	return cfg, coordinator.New(cfg, logger), logger, nil
}

func newBackupCmd(root *rootFlags) *cobra.Command {
	var backupType string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a snapshot now",
		RunE: func(cmd *cobra.Command, args []string) error {
			provenance, err := parseProvenance(backupType)
			if err != nil {
				return err
			}
			_, coord, logger, err := setup(root)
			if err != nil {
				return err
			}
			record, err := coord.CreateBackup(cmd.Context(), provenance)
			if err != nil {
				return err
			}
			logger.Info().Str("id", record.ID).Int64("size", record.SizeBytes).Msg("backup completed")
			return nil
		},
	}
	cmd.Flags().StringVar(&backupType, "type", "manual", "Backup provenance (manual, shutdown, periodic)")
	return cmd
}

func newRestoreCmd(root *rootFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the latest snapshot if it is newer than the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, coord, logger, err := setup(root)
			if err != nil {
				return err
			}
			record, err := coord.RestoreLatest(cmd.Context(), force)
			if err != nil {
				return err
			}
			if record == nil {
				logger.Info().Msg("nothing to restore")
				return nil
			}
			logger.Info().Str("id", record.ID).Msg("restore completed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Restore even when the local database is newer")
	return cmd
}

func newListCmd(root *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots in the store, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, coord, _, err := setup(root)
			if err != nil {
				return err
			}
			records, err := coord.ListBackups(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, record := range records {
				fmt.Printf("%s\t%s\t%d\t%s\t%s\n",
					record.ID, record.Provenance, record.SizeBytes,
					record.CreatedAt.Format(time.RFC3339), record.SchemaVersion)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of snapshots to list")
	return cmd
}

func newCleanupCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete snapshots older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, coord, logger, err := setup(root)
			if err != nil {
				return err
			}
			if err := coord.Cleanup(cmd.Context()); err != nil {
				return err
			}
			logger.Info().Msg("cleanup completed")
			return nil
		},
	}
}

func newCheckCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe object store connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, coord, logger, err := setup(root)
			if err != nil {
				return err
			}
			if !coord.TestConnection(cmd.Context()) {
				return fmt.Errorf("object store unreachable")
			}
			logger.Info().Msg("object store reachable")
			return nil
		},
	}
}

func newStatusCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show aggregate backup status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, coord, _, err := setup(root)
			if err != nil {
				return err
			}
			status := coord.GetStatus(cmd.Context())
			payload, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
			return nil
		},
	}
}

func newServeCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and admin API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, coord, logger, err := setup(root)
			if err != nil {
				return err
			}

			coord.StartScheduler()
			defer coord.StopScheduler()

			server := admin.NewServer(cfg.Admin.ListenAddr, coord, logger)
			errCh := make(chan error, 1)
			go func() { errCh <- server.ListenAndServe() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info().Str("signal", sig.String()).Msg("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			// Snapshot before exit; any failure is logged inside and must
			// not block shutdown.
			coord.BackupOnShutdown(shutdownCtx)
			return server.Shutdown(shutdownCtx)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("backupd %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

func parseProvenance(raw string) (catalog.Provenance, error) {
	switch catalog.Provenance(raw) {
	case catalog.ProvenanceManual, catalog.ProvenanceShutdown, catalog.ProvenancePeriodic:
		return catalog.Provenance(raw), nil
	default:
		return "", fmt.Errorf("invalid backup type %q (expected manual, shutdown, or periodic)", raw)
	}
}
