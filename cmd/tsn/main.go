package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/EvModder/438-TSN/internal/cmd/client"
	serverrun "github.com/EvModder/438-TSN/internal/cmd/server"
	"github.com/EvModder/438-TSN/internal/legacy"
	"github.com/EvModder/438-TSN/internal/runtime"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tsn",
		Short: "TSN timeline service CLI",
		Long:  "TSN is a single-binary social timeline service. This CLI runs the server, migrates legacy data and talks to a running server.",
	}
	rootCmd.PersistentFlags().String("config", os.Getenv("TSN_CONFIG"), "Config file (JSON or YAML)")

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the TSN server (gRPC and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	addServerFlags(serverStartCmd)
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	legacyCmd := &cobra.Command{Use: "legacy", Short: "Import or export the flat-file data layout"}
	legacyCmd.PersistentFlags().String("dir", "", "Legacy data directory")
	legacyCmd.PersistentFlags().String("data-dir", "", "Data directory of the store")
	_ = legacyCmd.MarkPersistentFlagRequired("dir")
	legacyCmd.AddCommand(
		newLegacyCommand("import", "Load userlist, followers and timelines into the store", (*legacy.Migrator).Import),
		newLegacyCommand("export", "Write the store out in the flat-file layout", (*legacy.Migrator).Export),
	)
	rootCmd.AddCommand(legacyCmd)

	rootCmd.AddCommand(clientcmd.NewRoot())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLegacyCommand(use, short string, run func(*legacy.Migrator, context.Context, string) (legacy.Stats, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("dir")
			logger := serverrun.BuildLogger(cfg.Log)
			rtOpts, err := serverrun.StorageOptions(cfg)
			if err != nil {
				return err
			}
			rtOpts.Logger = logger
			rt, err := runtime.Open(rtOpts)
			if err != nil {
				return err
			}
			defer rt.Close()

			m := &legacy.Migrator{Registry: rt.Registry(), Graph: rt.Graph(), Store: rt.Timelines(), Logger: logger.WithComponent("legacy")}
			stats, err := run(m, cmd.Context(), dir)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: users=%d follows=%d posts=%d skipped=%d\n", use, stats.Users, stats.Follows, stats.Posts, stats.Skipped)
			if err != nil {
				logger.Error("legacy "+use+" failed", logpkg.Str("dir", dir), logpkg.Err(err))
			}
			return err
		},
	}
}
