package pricefile

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"blackswans/internal/errors"

	"gopkg.in/yaml.v3"
)

// Ticker maps a short code to its market symbol and price file name
type Ticker struct {
	Code   string `yaml:"code"`
	Symbol string `yaml:"symbol"`
	File   string `yaml:"file"`
}

// Entry is a resolved ticker whose file exists
type Entry struct {
	Code      string `json:"ticker_code"`
	Symbol    string `json:"ticker_symbol"`
	DataFile  string `json:"data_file"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// DefaultTickers lists the bundled index files, named <SYM>_<start>_to_<end>.csv
func DefaultTickers() []Ticker {
	return []Ticker{
		{"sp500", "^GSPC", "_GSPC_1928-09-01_to_2010-12-31.csv"},
		{"nikkei", "^N225", "_N225_1970-01-01_to_2010-12-31.csv"},
		{"ftse", "^FTSE", "_FTSE_1970-01-01_to_2010-12-31.csv"},
		{"dax", "^GDAXI", "_GDAXI_1970-01-01_to_2010-12-31.csv"},
		{"cac", "^FCHI", "_FCHI_1970-01-01_to_2010-12-31.csv"},
		{"asx", "^AXJO", "_AXJO_1970-01-01_to_2010-12-31.csv"},
		{"tsx", "^GSPTSE", "_GSPTSE_1970-01-01_to_2010-12-31.csv"},
		{"hsi", "^HSI", "_HSI_1970-01-01_to_2010-12-31.csv"},
		{"efa", "EFA", "EFA_1970-01-01_to_2010-12-31.csv"},
		{"eem", "EEM", "EEM_1988-01-01_to_2010-12-31.csv"},
		{"reit", "VNQ", "VNQ_1970-01-01_to_2010-12-31.csv"},
		{"bonds", "AGG", "AGG_1976-01-01_to_2010-12-31.csv"},
	}
}

// Catalog resolves ticker codes against one data directory
type Catalog struct {
	dir     string
	tickers []Ticker
}

// NewCatalog uses DefaultTickers when tickers is empty
func NewCatalog(dir string, tickers []Ticker) *Catalog {
	if len(tickers) == 0 {
		tickers = DefaultTickers()
	}
	return &Catalog{dir: dir, tickers: tickers}
}

// LoadCatalog reads a YAML list of tickers; an empty file name gives the defaults
func LoadCatalog(dir, file string) (*Catalog, error) {
	if file == "" {
		return NewCatalog(dir, nil), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "read ticker catalog %s", file))
	}
	var doc struct {
		Tickers []Ticker `yaml:"tickers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "parse ticker catalog %s", file))
	}
	for _, t := range doc.Tickers {
		if t.Code == "" || t.File == "" {
			return nil, errors.ConfigInvalid("ticker catalog entries need a code and a file")
		}
	}
	return NewCatalog(dir, doc.Tickers), nil
}

// Dir returns the data directory
func (c *Catalog) Dir() string { return c.dir }

// Codes returns the ticker codes in catalog order
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.tickers))
	for i, t := range c.tickers {
		out[i] = t.Code
	}
	return out
}

// Resolve finds code's file inside the data directory and reads its date
// range from the file name
func (c *Catalog) Resolve(code string) (Entry, error) {
	var t *Ticker
	for i := range c.tickers {
		if c.tickers[i].Code == code {
			t = &c.tickers[i]
			break
		}
	}
	if t == nil {
		return Entry{}, errors.Newf(errors.CodeNotFound, "ticker '%s' not found. Available: %s", code, strings.Join(c.Codes(), ", "))
	}

	path := filepath.Join(c.dir, t.File)
	rel, err := filepath.Rel(c.dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Entry{}, errors.InvalidInput("ticker file resolves outside the data directory: " + t.File)
	}
	if _, err := os.Stat(path); err != nil {
		return Entry{}, errors.Newf(errors.CodeNotFound, "data file not found: %s", path)
	}

	start, end := rangeFromName(t.File)
	return Entry{
		Code:      t.Code,
		Symbol:    t.Symbol,
		DataFile:  path,
		StartDate: start,
		EndDate:   end,
	}, nil
}

// Available lists the tickers whose files exist
func (c *Catalog) Available() []Entry {
	out := make([]Entry, 0, len(c.tickers))
	for _, t := range c.tickers {
		e, err := c.Resolve(t.Code)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// rangeFromName reads "<SYM>_<start>_to_<end>.ext"; unknown shapes give empty strings
func rangeFromName(file string) (start, end string) {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	parts := strings.Split(base, "_")
	if len(parts) < 3 || parts[len(parts)-2] != "to" {
		return "", ""
	}
	return parts[len(parts)-3], parts[len(parts)-1]
}

// SanitizeTicker keeps letters, digits and ^-_; everything else becomes _
func SanitizeTicker(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("^-_", r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// CacheFileName is the file name a symbol's downloaded range is stored under
func CacheFileName(symbol, start, end string) string {
	return strings.ReplaceAll(SanitizeTicker(symbol), "^", "_") + "_" + start + "_to_" + end + ".csv"
}
