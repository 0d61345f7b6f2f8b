package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/fbaprofit/internal/analytics"
	"github.com/andresuchdata/fbaprofit/internal/cache"
	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/ingest"
	"github.com/andresuchdata/fbaprofit/internal/pipeline/portfolio"
	"github.com/andresuchdata/fbaprofit/internal/rates"
)

const (
	metricsNamespace  = "metrics"
	findingsNamespace = "findings"
)

// Kind selects which analysis an upload feeds.
type Kind string

const (
	KindMetrics  Kind = "metrics"
	KindFindings Kind = "findings"
)

// ParseKind validates an analysis kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMetrics, KindFindings:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown analysis kind %q (want metrics or findings)", s)
	}
}

// UploadResult is the outcome of analyzing one uploaded file.
type UploadResult struct {
	Kind      Kind                       `json:"kind"`
	FileName  string                     `json:"file_name"`
	Records   int                        `json:"records"`
	Metrics   []domain.BulkProductResult `json:"metrics,omitempty"`
	Findings  *domain.FindingsReport     `json:"findings,omitempty"`
	RowErrors []ingest.RowError          `json:"row_errors"`
}

// AnalyticsService runs the bulk calculator and the findings engine behind
// a result cache.
type AnalyticsService struct {
	rates      rates.Rates
	calculator *portfolio.Calculator
	engine     *analytics.Engine
	cache      cache.ResultCache
}

// NewAnalyticsService creates the service. A nil cache disables caching.
func NewAnalyticsService(r rates.Rates, workers int, cacheImpl cache.ResultCache) *AnalyticsService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopResultCache()
	}
	return &AnalyticsService{
		rates:      r,
		calculator: portfolio.NewCalculator(r.Portfolio, workers),
		engine:     analytics.NewEngine(r),
		cache:      cacheImpl,
	}
}

// Rates returns the effective rate table.
func (s *AnalyticsService) Rates() rates.Rates {
	return s.rates
}

// InvalidateCache drops every cached result.
func (s *AnalyticsService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// Metrics computes bulk calculator results for rows, in input order.
func (s *AnalyticsService) Metrics(ctx context.Context, rows []domain.UploadRow) ([]domain.BulkProductResult, error) {
	key := struct {
		Rates rates.PortfolioRates `json:"rates"`
		Rows  []domain.UploadRow   `json:"rows"`
	}{s.rates.Portfolio, rows}

	var cached []domain.BulkProductResult
	if ok, err := s.cache.Get(ctx, metricsNamespace, key, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("analytics: cache get metrics failed")
	}

	start := time.Now()
	results, err := s.calculator.CalculateBatch(ctx, rows)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("rows", len(rows)).Dur("elapsed", time.Since(start)).Msg("analytics: metrics calculated")

	if err := s.cache.Set(ctx, metricsNamespace, key, results); err != nil {
		log.Warn().Err(err).Msg("analytics: cache set metrics failed")
	}

	return results, nil
}

// Findings runs the detectors over a portfolio.
func (s *AnalyticsService) Findings(ctx context.Context, products []domain.Product) (domain.FindingsReport, error) {
	if err := ctx.Err(); err != nil {
		return domain.FindingsReport{}, err
	}

	key := struct {
		Rates    rates.Rates      `json:"rates"`
		Products []domain.Product `json:"products"`
	}{s.rates, products}

	var cached domain.FindingsReport
	if ok, err := s.cache.Get(ctx, findingsNamespace, key, &cached); err == nil && ok {
		if cached.Findings == nil {
			cached.Findings = []domain.Finding{}
		}
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("analytics: cache get findings failed")
	}

	report := s.engine.Run(products)

	log.Debug().
		Int("products", len(products)).
		Int("findings", report.Summary.TotalFindings).
		Msg("analytics: findings computed")

	if err := s.cache.Set(ctx, findingsNamespace, key, report); err != nil {
		log.Warn().Err(err).Msg("analytics: cache set findings failed")
	}

	return report, nil
}

// AnalyzeUpload parses an uploaded CSV or XLSX file and runs the analysis
// selected by kind. Unparsable rows are reported, not fatal.
func (s *AnalyticsService) AnalyzeUpload(ctx context.Context, kind Kind, fileName string, r io.Reader) (*UploadResult, error) {
	format, err := ingest.DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{Kind: kind, FileName: fileName}

	switch kind {
	case KindMetrics:
		rows, rowErrs, err := ingest.ParseUploadRows(r, format)
		if err != nil {
			return nil, err
		}
		metrics, err := s.Metrics(ctx, rows)
		if err != nil {
			return nil, err
		}
		result.Records = len(rows)
		result.Metrics = metrics
		result.RowErrors = rowErrs

	case KindFindings:
		products, rowErrs, err := ingest.ParseProducts(r, format)
		if err != nil {
			return nil, err
		}
		report, err := s.Findings(ctx, products)
		if err != nil {
			return nil, err
		}
		result.Records = len(products)
		result.Findings = &report
		result.RowErrors = rowErrs

	default:
		return nil, fmt.Errorf("unknown analysis kind %q", kind)
	}

	if result.RowErrors == nil {
		result.RowErrors = []ingest.RowError{}
	}

	log.Info().
		Str("kind", string(kind)).
		Str("file", fileName).
		Int("records", result.Records).
		Int("row_errors", len(result.RowErrors)).
		Msg("analytics: upload analyzed")

	return result, nil
}
