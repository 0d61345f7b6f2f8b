package portfolio

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/ingest"
	"github.com/andresuchdata/fbaprofit/internal/pipeline"
	"github.com/andresuchdata/fbaprofit/internal/rates"
)

// MetricsPipeline implements pipeline.Pipeline for bulk calculator uploads.
type MetricsPipeline struct {
	calculator *Calculator
}

// NewMetricsPipeline creates a metrics pipeline instance.
func NewMetricsPipeline(r rates.PortfolioRates, cfg Config) *MetricsPipeline {
	return &MetricsPipeline{
		calculator: NewCalculator(r, cfg.Workers),
	}
}

// Name returns the unique identifier of this pipeline.
func (p *MetricsPipeline) Name() string {
	return "portfolio_metrics"
}

// Columns returns the output CSV header.
func (p *MetricsPipeline) Columns() []string {
	return metricsColumns
}

// Validate accepts CSV and XLSX files.
func (p *MetricsPipeline) Validate(inputFile string) error {
	return pipeline.ValidateUploadFile(inputFile)
}

// Transform parses upload rows and computes their metrics. Rows that fail to
// parse are logged and skipped.
func (p *MetricsPipeline) Transform(ctx context.Context, inputFile string) ([]pipeline.TransformedRow, error) {
	// 1) Parse upload rows
	rows, rowErrs, err := ingest.ParseUploadRowsFile(inputFile)
	if err != nil {
		return nil, err
	}
	for _, rowErr := range rowErrs {
		log.Warn().Str("file", inputFile).Err(rowErr).Msg("skipping upload row")
	}

	// 2) Calculate metrics
	results, err := p.calculator.CalculateBatch(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate metrics for %s: %w", inputFile, err)
	}

	// 3) Flatten into generic rows
	source := filepath.Base(inputFile)
	out := make([]pipeline.TransformedRow, 0, len(results))
	for i := range results {
		out = append(out, pipeline.TransformedRow{Data: metricsRow(source, &results[i])})
	}

	return out, nil
}

func metricsRow(source string, r *domain.BulkProductResult) map[string]interface{} {
	return map[string]interface{}{
		"source_file":          source,
		"id":                   r.ID,
		"name":                 r.Name,
		"category":             r.Category,
		"price":                r.Price,
		"cogs":                 r.COGS,
		"velocity":             r.Velocity,
		"profit_per_unit":      r.ProfitPerUnit,
		"profit_margin":        r.ProfitMargin,
		"total_monthly_profit": r.TotalMonthlyProfit,
		"break_even_days":      r.BreakEvenDays,
		"cash_runway":          r.CashRunway,
		"turnover_days":        r.TurnoverDays,
		"health_score":         r.HealthScore,
		"profitability_risk":   string(r.ProfitabilityRisk),
		"break_even_risk":      string(r.BreakEvenRisk),
		"cash_flow_risk":       string(r.CashFlowRisk),
		"competition_risk":     string(r.CompetitionRisk),
		"inventory_risk":       string(r.InventoryRisk),
	}
}
