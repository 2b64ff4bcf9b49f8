package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"blackswans/adapters/report"
	"blackswans/internal/analysis"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var src source
	var quantiles []float64
	var window, best, worst int
	var outputDir string

	defaults := analysis.DefaultAnalysisParams()
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Describe extreme days, miss-the-extremes scenarios and regime performance",
		Example: `  blackswans analyze --ticker sp500 --start 1950-01-01
  blackswans analyze --csv prices.csv --quantiles 0.99,0.999 --ma-window 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := a.cfg.Analysis.Params()
			flags := cmd.Flags()
			if flags.Changed("quantiles") {
				params.Quantiles = quantiles
			}
			if flags.Changed("ma-window") {
				params.Window = window
			}
			if flags.Changed("best-count") {
				params.BestN = best
			}
			if flags.Changed("worst-count") {
				params.WorstN = worst
			}
			if err := params.Validate(); err != nil {
				return err
			}

			label, prices, err := src.load(a.cfg)
			if err != nil {
				return err
			}
			runID := uuid.NewString()
			log := a.logger.With().Str("run_id", runID).Str("ticker", label).Logger()
			log.Info().Int("prices", prices.Len()).Msg("analysis started")

			rep, err := analysis.Analyze(prices, params)
			if err != nil {
				return err
			}

			dir := outputDir
			if dir == "" {
				dir = filepath.Join("output", runID)
			}
			paths, err := report.WriteAnalysisTables(dir, rep)
			if err != nil {
				return err
			}
			log.Info().Strs("files", paths).Msg("analysis written")

			printAnalysis(cmd.OutOrStdout(), label, rep)
			fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to %s\n", dir)
			return nil
		},
	}

	src.register(cmd)
	cmd.Flags().Float64SliceVar(&quantiles, "quantiles", defaults.Quantiles, "Outlier quantiles")
	cmd.Flags().IntVar(&window, "ma-window", defaults.Window, "Moving-average window for regimes")
	cmd.Flags().IntVar(&best, "best-count", defaults.BestN, "Best days removed in scenarios")
	cmd.Flags().IntVar(&worst, "worst-count", defaults.WorstN, "Worst days removed in scenarios")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for result tables (default output/<run-id>)")
	return cmd
}

func printAnalysis(w io.Writer, label string, rep analysis.AnalysisReport) {
	fmt.Fprintf(w, "%s: %s (%d trading days, %d-day moving average)\n\n", label, rep.Period, rep.TradingDays, rep.Window)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QUANTILE\tLOW\tHIGH\tN LOW\tN HIGH")
	for _, o := range rep.OutlierStats {
		fmt.Fprintf(tw, "%g\t%.4f\t%.4f\t%d\t%d\n", o.Quantile, o.ThresholdLow, o.ThresholdHigh, o.CountLow, o.CountHigh)
	}
	tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tDAYS\tANNUALISED")
	for _, s := range rep.Scenarios {
		fmt.Fprintf(tw, "%s\t%d\t%.2f%%\n", s.Scenario, s.Days, s.AnnualisedReturn*100)
	}
	tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REGIME\tDAYS\tANNUALISED\tSHARPE")
	for _, p := range rep.RegimePerformance {
		fmt.Fprintf(tw, "%s\t%d\t%.2f%%\t%.2f\n", p.Regime, p.Count, p.AnnualisedReturn*100, p.SharpeRatio)
	}
	tw.Flush()
}
