package main

import (
	"fmt"
	"text/tabwriter"

	"aptracker/internal/service"

	"github.com/spf13/cobra"
)

func newForecastCmd(opts *options) *cobra.Command {
	var req service.ForecastRequest

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the cash-outflow forecast",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			fc, err := a.Forecast.Forecast(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, fc)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "DATE\tINVOICES\tAMOUNT (%s)\n", fc.ReportingCurrency)
			for _, d := range fc.Daily {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", d.Date, d.Count, d.Amount)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "MONTH\tINVOICES\tAMOUNT")
			for _, m := range fc.Monthly {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", m.Label, m.Count, m.Amount)
			}
			fmt.Fprintf(tw, "\nTOTAL\t%d\t%s\n", fc.Count, fc.Total)
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&req.DelayDays, "delay", 0, "Shift every planned payment by N days")
	cmd.Flags().StringVar(&req.VendorID, "vendor", "", "Only invoices of this vendor ID")
	return cmd
}
