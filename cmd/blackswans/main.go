package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"blackswans/adapters/pricefile"
	"blackswans/domain/market"
	"blackswans/internal/config"
	"blackswans/internal/errors"
	"blackswans/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root has loaded it
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string

	root := &cobra.Command{
		Use:   "blackswans",
		Short: "Test four claims about equity-index returns",
		Long: `blackswans measures extreme daily returns of an equity index and tests whether
returns are fat-tailed, whether a handful of days drive long-run growth, whether
extreme days cluster in downtrends, and whether a moving-average rule cuts drawdowns.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configPath != "" {
				a.cfg, err = config.LoadFile(configPath)
			} else {
				a.cfg, err = config.Load()
			}
			if err != nil {
				return err
			}
			a.logger = logging.New(a.cfg.Log, cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file; when set, environment overrides are not applied")

	root.AddCommand(
		newAnalyzeCmd(a),
		newValidateCmd(a),
		newServeCmd(a),
	)
	return root
}

// source is where a command reads its prices from
type source struct {
	csv    string
	ticker string
	start  string
	end    string
}

func (s *source) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.csv, "csv", "", "Price file (.csv or .xlsx) with Date and Close columns")
	cmd.Flags().StringVar(&s.ticker, "ticker", "", "Ticker code from the data catalog (e.g. sp500)")
	cmd.Flags().StringVar(&s.start, "start", "", "First date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&s.end, "end", "", "Last date to include (YYYY-MM-DD)")
	cmd.MarkFlagsMutuallyExclusive("csv", "ticker")
	cmd.MarkFlagsOneRequired("csv", "ticker")
}

// load returns a label for the series and its prices inside [start, end]
func (s *source) load(cfg *config.Config) (string, market.PriceSeries, error) {
	from, err := optionalDate(s.start)
	if err != nil {
		return "", market.PriceSeries{}, err
	}
	to, err := optionalDate(s.end)
	if err != nil {
		return "", market.PriceSeries{}, err
	}

	label, path := strings.TrimSuffix(filepath.Base(s.csv), filepath.Ext(s.csv)), s.csv
	if s.ticker != "" {
		catalog, err := pricefile.LoadCatalog(cfg.Data.Dir, cfg.Data.CatalogFile)
		if err != nil {
			return "", market.PriceSeries{}, err
		}
		entry, err := catalog.Resolve(s.ticker)
		if err != nil {
			return "", market.PriceSeries{}, err
		}
		label, path = entry.Symbol, entry.DataFile
	}

	prices, err := pricefile.Load(path, from, to)
	if err != nil {
		return "", market.PriceSeries{}, err
	}
	if prices.Len() < 2 {
		return "", market.PriceSeries{}, errors.InsufficientData("only %d prices in %s for the selected range", prices.Len(), path)
	}
	return label, prices, nil
}

func optionalDate(s string) (t time.Time, err error) {
	if s == "" {
		return t, nil
	}
	return pricefile.ParseDate(s)
}
