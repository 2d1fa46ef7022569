package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/bft-labs/imgship/internal/adapters/serial"
	"github.com/bft-labs/imgship/pkg/state"
	"github.com/bft-labs/imgship/pkg/transfer"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List protocol presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printPresets(cmd.OutOrStdout(), transfer.Presets())
			return nil
		},
	}
}

func printPresets(w io.Writer, presets []transfer.Preset) {
	table := newTable(w, "Name", "Header", "Unit", "Settle", "Delay", "Backpressure", "Description")
	for _, p := range presets {
		table.Append([]string{
			p.Name,
			p.Format.String(),
			strconv.Itoa(p.Plan.UnitSize),
			p.Plan.HeaderSettle.String(),
			p.Plan.UnitDelay.String(),
			strconv.FormatBool(p.Plan.Backpressure),
			p.Description,
		})
	}
	table.Render()
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports on this host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := serial.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last recorded transfer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return fmt.Errorf("--state-dir is required")
			}
			rec, err := state.NewFileRepository(dir).Load(context.Background())
			if err != nil {
				return fmt.Errorf("load status: %w", err)
			}
			if rec.IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), "no transfer recorded")
				return nil
			}
			printRecord(cmd.OutOrStdout(), rec)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "state-dir", "", "directory holding status.json")
	return cmd
}

func printRecord(w io.Writer, rec state.Record) {
	table := newTable(w, "Field", "Value")
	rows := [][]string{
		{"Status", string(rec.Status)},
		{"Image", rec.Image},
		{"Digest", rec.Digest},
		{"Device", rec.Device},
		{"Preset", rec.Preset},
		{"Header", rec.Header},
		{"Bytes", fmt.Sprintf("%d/%d", rec.BytesSent, rec.TotalBytes)},
		{"Elapsed", rec.Elapsed().String()},
		{"Finished", rec.FinishedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if rec.Error != "" {
		rows = append(rows, []string{"Error", rec.Error})
	}
	table.AppendBulk(rows)
	table.Render()
}

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
