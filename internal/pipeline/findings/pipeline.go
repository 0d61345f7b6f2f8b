// Package findings adapts the findings engine to the batch pipeline. Each
// input file is treated as one portfolio.
package findings

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/fbaprofit/internal/analytics"
	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/ingest"
	"github.com/andresuchdata/fbaprofit/internal/pipeline"
)

var columns = []string{
	"source_file",
	"rank",
	"product_id",
	"product_name",
	"category",
	"finding_type",
	"severity",
	"impact_priority",
	"financial_impact_annual_eur",
	"headline",
	"primary_action",
}

// Pipeline implements pipeline.Pipeline for product files.
type Pipeline struct {
	engine *analytics.Engine
}

// NewPipeline creates a findings pipeline over engine.
func NewPipeline(engine *analytics.Engine) *Pipeline {
	return &Pipeline{engine: engine}
}

// Name returns the unique identifier of this pipeline.
func (p *Pipeline) Name() string {
	return "portfolio_findings"
}

// Columns returns the output CSV header.
func (p *Pipeline) Columns() []string {
	return columns
}

// Validate accepts CSV and XLSX files.
func (p *Pipeline) Validate(inputFile string) error {
	return pipeline.ValidateUploadFile(inputFile)
}

// Transform runs the engine over the products of one file and emits one row
// per ranked finding.
func (p *Pipeline) Transform(ctx context.Context, inputFile string) ([]pipeline.TransformedRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	products, rowErrs, err := ingest.ParseProductsFile(inputFile)
	if err != nil {
		return nil, err
	}
	for _, rowErr := range rowErrs {
		log.Warn().Str("file", inputFile).Err(rowErr).Msg("skipping product row")
	}

	report := p.engine.Run(products)

	log.Info().
		Str("file", inputFile).
		Int("products", len(products)).
		Int("findings", report.Summary.TotalFindings).
		Float64("annual_opportunity_eur", report.Summary.TotalAnnualOpportunityEUR).
		Msg("portfolio analyzed")

	source := filepath.Base(inputFile)
	rows := make([]pipeline.TransformedRow, 0, len(report.Findings))
	for i, f := range report.Findings {
		rows = append(rows, pipeline.TransformedRow{Data: findingRow(source, i+1, f)})
	}

	return rows, nil
}

func findingRow(source string, rank int, f domain.Finding) map[string]interface{} {
	return map[string]interface{}{
		"source_file":                 source,
		"rank":                        rank,
		"product_id":                  f.ProductID,
		"product_name":                f.ProductName,
		"category":                    f.Category,
		"finding_type":                string(f.FindingType),
		"severity":                    string(f.Severity),
		"impact_priority":             f.ImpactPriority,
		"financial_impact_annual_eur": f.FinancialImpactAnnualEUR,
		"headline":                    f.Headline,
		"primary_action":              primaryAction(f.Actions),
	}
}

func primaryAction(actions []domain.Action) string {
	for _, a := range actions {
		if a.Primary {
			return a.Title
		}
	}
	if len(actions) > 0 {
		return actions[0].Title
	}
	return ""
}
