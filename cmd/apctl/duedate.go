package main

import (
	"errors"
	"fmt"

	"aptracker/internal/calendar"
	"aptracker/internal/duedate"

	"github.com/spf13/cobra"
)

func newDueDateCmd(opts *options) *cobra.Command {
	var (
		term        int
		entryDate   string
		invoiceDate string
	)

	cmd := &cobra.Command{
		Use:   "duedate",
		Short: "Compute an invoice due date from a payment-term code",
		Example: `  # 60-day cycle term received after the cutoff
  apctl duedate --term 60 --entry 2024-03-26

  # plain 14-day term counted from the invoice date
  apctl duedate --term 14 --invoice 2024-03-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := calendar.ParseOptional(entryDate)
			if err != nil {
				return fmt.Errorf("--entry: %w", err)
			}
			invoice, err := calendar.ParseOptional(invoiceDate)
			if err != nil {
				return fmt.Errorf("--invoice: %w", err)
			}

			rules := opts.cfg.Rules.DueDateRules()
			due, err := rules.DueDate(entry, invoice, term)
			if errors.Is(err, duedate.ErrNoAnchorDate) {
				return errors.New("pass --entry or --invoice")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, map[string]interface{}{
					"term_code":  term,
					"cycle_term": rules.IsCycleCode(term),
					"due_date":   calendar.Format(due),
				})
			}
			kind := "day count"
			if rules.IsCycleCode(term) {
				kind = "cycle"
			}
			_, err = fmt.Fprintf(out, "%s (term %d, %s)\n", calendar.Format(due), term, kind)
			return err
		},
	}

	cmd.Flags().IntVarP(&term, "term", "t", 30, "Payment-term code")
	cmd.Flags().StringVar(&entryDate, "entry", "", "Entry (received) date, YYYY-MM-DD")
	cmd.Flags().StringVar(&invoiceDate, "invoice", "", "Invoice date, YYYY-MM-DD")
	return cmd
}
