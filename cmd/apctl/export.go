package main

import (
	"fmt"
	"os"
	"strings"

	"aptracker/internal/service"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		format string
		output string
		filter service.InvoiceListFilter
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the invoice register as CSV or PDF",
		Example: `  apctl export --format pdf --status APPROVED
  apctl export --out register.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			filter.Status = strings.ToUpper(filter.Status)
			var file service.ExportFile
			switch strings.ToLower(format) {
			case "csv":
				file, err = a.Reports.ExportCSV(ctx, filter)
			case "pdf":
				file, err = a.Reports.ExportPDF(ctx, filter)
			default:
				return fmt.Errorf("unknown format %q (csv or pdf)", format)
			}
			if err != nil {
				return err
			}

			if output == "-" {
				_, err = cmd.OutOrStdout().Write(file.Body)
				return err
			}
			if output == "" {
				output = file.FileName
			}
			if err := os.WriteFile(output, file.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(file.Body))
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or pdf")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output file, - for stdout (default: generated name)")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Free-text filter")
	cmd.Flags().StringVar(&filter.Status, "status", "", "Status filter")
	cmd.Flags().StringVar(&filter.VendorID, "vendor", "", "Vendor ID filter")
	cmd.Flags().StringVar(&filter.From, "from", "", "Invoice date from, YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.To, "to", "", "Invoice date to, YYYY-MM-DD")
	return cmd
}
