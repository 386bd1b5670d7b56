package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/srg/sppcli/catalog"
	"github.com/srg/sppcli/internal/device"
	"github.com/srg/sppcli/pkg/config"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List paired devices",
	Long: `List the paired Bluetooth devices in enumeration order and show which
ones match the allow-list. The device marked as selected is the one the run
command would connect to: the last match wins.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listFormat string
	listAllow  []string
)

func init() {
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "", "Output format (table, json)")
	listCmd.Flags().StringSliceVar(&listAllow, "allow", nil, "Accepted device names")
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("format") {
		cfg.OutputFormat = listFormat
	}
	if cmd.Flags().Changed("allow") {
		cfg.AllowList = listAllow
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cmd.SilenceUsage = true

	adapter, err := openAdapter(cfg, logger)
	if err != nil {
		return err
	}
	defer adapter.Close()

	ctx := cmd.Context()
	if !adapter.IsAvailable(ctx) {
		return device.ErrAdapterUnavailable
	}
	devices, err := adapter.BondedDevices(ctx)
	if err != nil {
		return err
	}

	entries := catalog.Annotate(devices, device.NewAllowList(cfg.AllowList...))
	logger.WithField("count", len(entries)).Debug("Listed paired devices")

	if cfg.OutputFormat == config.FormatJSON {
		return displayEntriesJSON(cmd.OutOrStdout(), entries)
	}
	return displayEntriesTable(cmd.OutOrStdout(), entries)
}

func displayEntriesTable(out io.Writer, entries []catalog.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No paired devices")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tNAME\tALLOWED\tSELECTED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Address, e.DisplayName, yesNo(e.Allowed), mark(e.Selected))
	}
	return w.Flush()
}

func displayEntriesJSON(out io.Writer, entries []catalog.Entry) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}
