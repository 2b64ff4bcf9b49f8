package api

import (
	"net/http"
	"strconv"
	"time"

	"blackswans/adapters/pricefile"
	"blackswans/domain/market"
	"blackswans/domain/verdict"
	"blackswans/internal/analysis"
	"blackswans/internal/config"
	"blackswans/internal/errors"
	"blackswans/internal/jsonx"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

// Query bounds of the analysis and chart endpoints
const (
	minWindow        = 10
	maxWindow        = 500
	minChartQuantile = 0.9
	maxChartQuantile = 0.9999
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// TickersResponse lists the tickers with data on disk
type TickersResponse struct {
	Tickers []pricefile.Entry `json:"tickers"`
}

// AnalysisResponse is the descriptive analysis of one ticker
type AnalysisResponse struct {
	RunID     string `json:"run_id"`
	Ticker    string `json:"ticker"`
	Symbol    string `json:"ticker_symbol"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	analysis.AnalysisReport
}

// ValidationResponse is the verdict on the four claims for one ticker
type ValidationResponse struct {
	RunID        string                             `json:"run_id"`
	Ticker       string                             `json:"ticker"`
	Symbol       string                             `json:"ticker_symbol"`
	Period       string                             `json:"period"`
	TradingDays  int                                `json:"n_trading_days"`
	Claims       map[verdict.ClaimID]verdict.Status `json:"claims"`
	ClaimDetails []verdict.ClaimVerdict             `json:"claim_details"`
}

// ChartResponse is the chart payload of one ticker
type ChartResponse struct {
	Ticker    string `json:"ticker"`
	Symbol    string `json:"ticker_symbol"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	analysis.Chart
}

// selection is a resolved ticker with its prices inside the requested range
type selection struct {
	entry      pricefile.Entry
	prices     market.PriceSeries
	start, end string
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, TickersResponse{Tickers: s.catalog.Available()})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	params := s.defaults.Params()
	var err error
	if params.Window, err = intQuery(r, "ma_window", params.Window, minWindow, maxWindow); err != nil {
		s.fail(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("quantiles"); raw != "" {
		if params.Quantiles, err = config.ParseFloats(raw); err != nil {
			s.fail(w, r, errors.Wrap(err, "quantiles"))
			return
		}
	}
	if err := params.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	sel, err := s.load(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	report, err := analysis.Analyze(sel.prices, params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, AnalysisResponse{
		RunID:          uuid.NewString(),
		Ticker:         sel.entry.Code,
		Symbol:         sel.entry.Symbol,
		StartDate:      sel.start,
		EndDate:        sel.end,
		AnalysisReport: report,
	})
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	sel, err := s.load(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	summary, err := s.validator.Validate(r.Context(), sel.entry.Symbol, sel.prices)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.RecordSummary(summary)
	s.respond(w, r, http.StatusOK, ValidationResponse{
		RunID:        summary.RunID,
		Ticker:       sel.entry.Code,
		Symbol:       sel.entry.Symbol,
		Period:       summary.Period,
		TradingDays:  summary.TradingDays,
		Claims:       summary.Claims,
		ClaimDetails: summary.Details,
	})
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	params := analysis.DefaultChartParams()
	params.Window = s.defaults.MAWindow
	var err error
	if params.Window, err = intQuery(r, "ma_window", params.Window, minWindow, maxWindow); err != nil {
		s.fail(w, r, err)
		return
	}
	if params.Quantile, err = floatQuery(r, "quantile", params.Quantile, minChartQuantile, maxChartQuantile); err != nil {
		s.fail(w, r, err)
		return
	}

	sel, err := s.load(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	chart, err := analysis.ChartData(sel.prices, params)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, ChartResponse{
		Ticker:    sel.entry.Code,
		Symbol:    sel.entry.Symbol,
		StartDate: sel.start,
		EndDate:   sel.end,
		Chart:     chart,
	})
}

// load resolves the {ticker} path parameter and reads its prices between the
// start and end query parameters, which default to the file's own range
func (s *Server) load(r *http.Request) (selection, error) {
	entry, err := s.catalog.Resolve(chi.URLParam(r, "ticker"))
	if err != nil {
		return selection{}, err
	}
	q := r.URL.Query()
	sel := selection{entry: entry, start: entry.StartDate, end: entry.EndDate}
	if v := q.Get("start"); v != "" {
		sel.start = v
	}
	if v := q.Get("end"); v != "" {
		sel.end = v
	}

	var from, to time.Time
	if sel.start != "" {
		if from, err = pricefile.ParseDate(sel.start); err != nil {
			return selection{}, err
		}
	}
	if sel.end != "" {
		if to, err = pricefile.ParseDate(sel.end); err != nil {
			return selection{}, err
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return selection{}, errors.InvalidParameter("end %s is before start %s", sel.end, sel.start)
	}

	sel.prices, err = pricefile.Load(entry.DataFile, from, to)
	if err != nil {
		return selection{}, err
	}
	if sel.prices.Len() < 2 {
		return selection{}, errors.InsufficientData("only %d prices for %s between %s and %s", sel.prices.Len(), entry.Code, sel.start, sel.end)
	}
	return sel, nil
}

func intQuery(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.InvalidParameter("%s must be an integer, got %q", key, raw)
	}
	if v < lo || v > hi {
		return 0, errors.InvalidParameter("%s must be in [%d, %d], got %d", key, lo, hi, v)
	}
	return v, nil
}

func floatQuery(r *http.Request, key string, def, lo, hi float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.InvalidParameter("%s must be a number, got %q", key, raw)
	}
	if v < lo || v > hi {
		return 0, errors.InvalidParameter("%s must be in [%g, %g], got %g", key, lo, hi, v)
	}
	return v, nil
}

// respond writes v as JSON; non-finite floats become null
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, jsonx.Sanitize(v))
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	s.respond(w, r, status, ErrorResponse{Error: errors.GetCode(err), Detail: err.Error()})
}

// statusFor maps an error code to its HTTP status
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidParameter, errors.CodeInsufficientData, errors.CodeDegenerateInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
