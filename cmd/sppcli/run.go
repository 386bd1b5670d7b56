package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/sppcli/runner"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Exchange one request/response with the paired serial device",
	Long: `Pick the last paired Bluetooth device whose name is on the allow-list,
open an RFCOMM connection to its serial port service, send the payload, wait
for the response window and print whatever the device answered.

The connection is always closed before the command returns, whatever stage
failed.`,
	Example: `  sppcli run
  sppcli run --allow HC-05 --payload $'AT\r\n' --response-timeout 2s
  sppcli run --adapter simulated --config testdata/echo.yaml`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runAllow           []string
	runPayload         string
	runServiceUUID     string
	runResponseTimeout time.Duration
	runConnectTimeout  time.Duration
)

func init() {
	runCmd.Flags().StringSliceVar(&runAllow, "allow", nil, "Accepted device names (default HC-05, HC-06, linvor, BTM-222)")
	runCmd.Flags().StringVarP(&runPayload, "payload", "p", "", "Request sent to the device (default \"Hello\\n\")")
	runCmd.Flags().StringVar(&runServiceUUID, "service-uuid", "", "RFCOMM service UUID (default serial port profile)")
	runCmd.Flags().DurationVarP(&runResponseTimeout, "response-timeout", "t", 0, "How long to wait for the response (default 1s)")
	runCmd.Flags().DurationVar(&runConnectTimeout, "connect-timeout", 0, "Connection timeout (default 30s)")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("allow") {
		cfg.AllowList = runAllow
	}
	if flags.Changed("payload") {
		cfg.Payload = runPayload
	}
	if flags.Changed("service-uuid") {
		cfg.ServiceUUID = runServiceUUID
	}
	if flags.Changed("response-timeout") {
		cfg.ResponseTimeout = runResponseTimeout
	}
	if flags.Changed("connect-timeout") {
		cfg.ConnectTimeout = runConnectTimeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	opts, err := cfg.RunnerOptions()
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	adapter, err := openAdapter(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := adapter.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close adapter")
		}
	}()

	r := runner.New(adapter, opts, logger)
	defer r.Close()

	console := NewConsoleObserver(cmd.OutOrStdout(), opts.ResponseTimeout, logger)
	defer console.Close()
	r.Register(console)
	defer r.Unregister()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inv, err := r.Start(ctx)
	if err != nil {
		return err
	}
	outcome := inv.Wait()

	logger.WithFields(logrus.Fields{
		"run_id":       inv.ID,
		"address":      outcome.Target.Address,
		"bytes":        len(outcome.Response),
		"close_errors": len(outcome.CloseErrors),
	}).Debug("Run finished")

	return outcome.Err
}
