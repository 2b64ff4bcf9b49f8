package claims

import (
	"fmt"

	"blackswans/domain/verdict"
	"blackswans/internal/analysis"
	"blackswans/internal/errors"
	"blackswans/internal/significance"
)

// Clustering checks that extreme days concentrate in downtrends: confirmed iff
// the chi-square test at (MainWindow, MainQuantile) is significant. Every
// other window and quantile pair is reported as a robustness sweep.
type Clustering struct {
	Config Config
}

func (Clustering) ID() verdict.ClaimID { return verdict.ClaimClustering }
func (Clustering) Name() string        { return "Outliers cluster during bear markets" }
func (Clustering) Weight() int64       { return 2 }

func (c Clustering) Evaluate(in Input) (verdict.ClaimVerdict, error) {
	rows := make([]verdict.ClusteringRow, 0, len(c.Config.Windows)*len(c.Config.ClusterQuantiles))
	main := -1
	significant := 0

	for _, window := range c.Config.Windows {
		regimes, err := analysis.Classify(in.Prices, window)
		if err != nil {
			return verdict.ClaimVerdict{}, err
		}
		totalDown, totalUp := analysis.RegimeTotals(regimes)

		for _, q := range c.Config.ClusterQuantiles {
			down, up, err := analysis.OutlierRegimeCounts(in.Returns, regimes, q)
			if err != nil {
				return verdict.ClaimVerdict{}, err
			}
			chi2 := significance.ChiSquareClustering(down, up, totalDown, totalUp)
			z := significance.TwoProportionZTest(down, up, totalDown, totalUp)

			pctDown := 0.0
			if down+up > 0 {
				pctDown = float64(down) / float64(down+up) * 100
			}
			if chi2.Significant(c.Config.Alpha) {
				significant++
			}
			if window == c.Config.MainWindow && q == c.Config.MainQuantile {
				main = len(rows)
			}
			rows = append(rows, verdict.ClusteringRow{
				Window:                 window,
				Quantile:               q,
				OutliersDown:           down,
				OutliersUp:             up,
				TotalDown:              totalDown,
				TotalUp:                totalUp,
				PctOutliersInDowntrend: pctDown,
				ChiSquare:              chi2,
				ZTest:                  z,
			})
		}
	}
	if main < 0 {
		return verdict.ClaimVerdict{}, errors.InvalidParameter("main case (%d, %v) is not in the sweep", c.Config.MainWindow, c.Config.MainQuantile)
	}

	mainRow := rows[main]
	confirmed := mainRow.ChiSquare.Significant(c.Config.Alpha)

	return verdict.ClaimVerdict{
		ID:     c.ID(),
		Claim:  c.Name(),
		Status: verdict.StatusOf(confirmed),
		PValue: pvalue(mainRow.ChiSquare.PValue),
		Clustering: &verdict.ClusteringEvidence{
			Sensitivity:          rows,
			MainWindow:           c.Config.MainWindow,
			MainQuantile:         c.Config.MainQuantile,
			MainCasePValue:       mainRow.ChiSquare.PValue,
			MainCasePctDowntrend: mainRow.PctOutliersInDowntrend,
			SignificantCount:     significant,
			RobustCount:          fmt.Sprintf("%d/%d parameter combinations significant at p<%g", significant, len(rows), c.Config.Alpha),
		},
	}, nil
}
