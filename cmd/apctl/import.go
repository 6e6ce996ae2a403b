package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import [csv-file]",
		Short: "Bulk-create DRAFT invoices from a CSV file",
		Long: `Columns: invoice no, PO no, vendor name, entry date, due date (ignored), amount,
currency. The first line is a header. Vendors are matched by name, ignoring case.
Each row is created independently; failures are reported per line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer file.Close()

			a, err := opts.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Invoices.ImportCSV(ctx, cliActor, file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, res)
			}
			for _, inv := range res.Invoices {
				fmt.Fprintf(out, "created %s  vendor=%s  due=%s\n", inv.InvoiceNumber, inv.VendorName, inv.DueDate)
			}
			for _, re := range res.Errors {
				fmt.Fprintf(out, "line %d: %s\n", re.Line, re.Message)
			}
			_, err = fmt.Fprintf(out, "%d created, %d failed\n", res.Created, res.Failed)
			return err
		},
	}
}
