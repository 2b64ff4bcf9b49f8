package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"blackswans/adapters/report"
	"blackswans/domain/verdict"
	"blackswans/internal/claims"

	"github.com/spf13/cobra"
)

// WorkbookFile is the name of the optional Excel export
const WorkbookFile = "validation.xlsx"

func newValidateCmd(a *app) *cobra.Command {
	var src source
	var outputDir string
	var xlsx bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Test the four claims and print CONFIRMED / NOT CONFIRMED for each",
		Example: `  blackswans validate --ticker sp500
  blackswans validate --csv prices.csv --output-dir results --xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			label, prices, err := src.load(a.cfg)
			if err != nil {
				return err
			}
			v, err := claims.NewValidator(a.cfg.Analysis.ClaimsConfig(), claims.WithLogger(a.logger))
			if err != nil {
				return err
			}
			summary, err := v.Validate(cmd.Context(), label, prices)
			if err != nil {
				return err
			}

			dir := outputDir
			if dir == "" {
				dir = filepath.Join("output", summary.RunID)
			}
			if _, err := report.WriteSummaryJSON(dir, summary); err != nil {
				return err
			}
			if _, err := report.WriteValidationTables(dir, summary); err != nil {
				return err
			}
			if xlsx {
				if err := report.WriteValidationWorkbook(filepath.Join(dir, WorkbookFile), summary); err != nil {
					return err
				}
			}

			printSummary(cmd.OutOrStdout(), summary)
			fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to %s\n", dir)
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the summary and tables (default output/<run-id>)")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "Also write the tables as one Excel workbook")
	return cmd
}

func printSummary(w io.Writer, s *verdict.ValidationSummary) {
	fmt.Fprintf(w, "%s: %s (%d trading days)\n\n", s.Ticker, s.Period, s.TradingDays)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLAIM\tVERDICT\tP-VALUE\tEVIDENCE")
	for _, d := range s.Details {
		p := "-"
		if d.PValue != nil {
			p = fmt.Sprintf("%.4g", *d.PValue)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Claim, d.Status, p, evidence(d))
	}
	tw.Flush()

	confirmed := 0
	for _, d := range s.Details {
		if d.Status == verdict.StatusConfirmed {
			confirmed++
		}
	}
	fmt.Fprintf(w, "\n%d/%d claims confirmed\n", confirmed, len(s.Details))
}

// evidence is the one-line headline number of a claim
func evidence(d verdict.ClaimVerdict) string {
	switch {
	case d.FatTails != nil:
		return fmt.Sprintf("excess kurtosis %.2f", d.FatTails.ExcessKurtosis)
	case d.Influence != nil:
		for _, r := range d.Influence.Scenarios {
			if r.Days == d.Influence.MainDays {
				return fmt.Sprintf("missing best %d days costs %.2f%% a year", r.Days, r.ImpactMissBest*100)
			}
		}
	case d.Clustering != nil:
		return d.Clustering.RobustCount
	case d.TrendFollowing != nil:
		m := d.TrendFollowing.MainCase
		return fmt.Sprintf("max drawdown %.1f%% vs %.1f%% buy-and-hold", m.StrategyMaxDrawdown*100, m.BuyHoldMaxDrawdown*100)
	}
	return ""
}
