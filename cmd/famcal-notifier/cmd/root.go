package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/famcal-notifier/internal/config"
	"github.com/oshokin/famcal-notifier/internal/service/probe"
	"github.com/oshokin/famcal-notifier/internal/service/server"
	"github.com/oshokin/famcal-notifier/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for running the notifier.
	rootCmd = &cobra.Command{
		Use:   "famcal-notifier [listen-address]",
		Short: "Dispatch family calendar push notifications.",
		Long: `Starts the HTTP trigger ingress that turns calendar event writes, confirmations
and fired escalation tasks into push notifications.

The daily unassigned sweep runs in-process on its cron schedule unless disabled.
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:8080).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
			}

			return server.Run(ctx, options)
		},
	}

	// sweepCmd runs a single sweep and exits.
	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Alert family owners about tomorrow's unassigned events once.",
		Long: `Runs the unassigned sweep a single time with the configured store and push transport.
Useful when an external scheduler drives the sweep instead of the in-process cron.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			stats, err := server.RunSweep(ctx, configPath)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "families: %d, alerted: %d, skipped: %d, failed: %d\n",
				stats.Families, stats.Alerted, stats.Skipped, stats.Failed)

			return nil
		},
	}

	// healthAddress overrides grpc_health_addr for the healthcheck command.
	healthAddress string

	// healthcheckCmd probes a running notifier through its gRPC health endpoint.
	healthcheckCmd = &cobra.Command{
		Use:   "healthcheck",
		Short: "Exit non-zero unless the running notifier reports SERVING.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			address := healthAddress
			if address == "" {
				settings, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load settings: %w", err)
				}

				address = settings.GRPCHealthAddress
			}

			client, err := probe.Dial(cmd.Context(), address)
			if err != nil {
				return err
			}

			defer client.Close()

			if err := client.Check(cmd.Context(), version.Name); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "SERVING")

			return nil
		},
	}
)

// Execute runs the famcal-notifier CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	healthcheckCmd.Flags().StringVar(&healthAddress, "address", "", "health endpoint, defaults to grpc_health_addr")
	rootCmd.AddCommand(sweepCmd, healthcheckCmd)
}
