package report

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"blackswans/domain/verdict"
	"blackswans/internal/analysis"
	"blackswans/internal/errors"
	"blackswans/internal/jsonx"

	"github.com/xuri/excelize/v2"
)

// SummaryFile is the name of the JSON validation summary
const SummaryFile = "validation_summary.json"

// WriteCSV stores t as <dir>/<t.Name>.csv and returns the path
func WriteCSV(dir string, t Table) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	path := filepath.Join(dir, t.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Headers); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	record := make([]string, len(t.Headers))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = formatCell(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return "", errors.Wrapf(err, "write %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}

func writeAll(dir string, tables []Table) ([]string, error) {
	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		p, err := WriteCSV(dir, t)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// WriteValidationTables writes clustering_sensitivity.csv,
// backtest_results.csv and scenario_sensitivity.csv
func WriteValidationTables(dir string, s *verdict.ValidationSummary) ([]string, error) {
	return writeAll(dir, ValidationTables(s))
}

// WriteAnalysisTables writes outlier_stats.csv, return_scenarios.csv,
// regime_performance.csv and outlier_regime_counts.csv
func WriteAnalysisTables(dir string, r analysis.AnalysisReport) ([]string, error) {
	return writeAll(dir, AnalysisTables(r))
}

// WriteSummaryJSON writes the validation summary with NaN rendered as null
func WriteSummaryJSON(dir string, s *verdict.ValidationSummary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	path := filepath.Join(dir, SummaryFile)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	if err := jsonx.Encode(f, s); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}

// WriteWorkbook stores each table on its own sheet of one .xlsx file
func WriteWorkbook(path string, tables []Table) error {
	if len(tables) == 0 {
		return errors.InvalidParameter("workbook needs at least one table")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		sheet := t.Name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return errors.Wrap(err, "rename first sheet")
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrapf(err, "add sheet %s", sheet)
		}

		header := make([]any, len(t.Headers))
		for j, h := range t.Headers {
			header[j] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return errors.Wrapf(err, "write %s header", sheet)
		}
		for r, row := range t.Rows {
			cells := make([]any, len(row))
			for j, v := range row {
				cells[j] = xlsxCell(v)
			}
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return errors.Wrapf(err, "write %s row %d", sheet, r+1)
			}
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

// WriteValidationWorkbook is the summary sheet followed by the validation tables
func WriteValidationWorkbook(path string, s *verdict.ValidationSummary) error {
	return WriteWorkbook(path, append([]Table{SummaryTable(s)}, ValidationTables(s)...))
}
