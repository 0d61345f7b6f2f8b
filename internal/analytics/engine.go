package analytics

import (
	"sort"

	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/rates"
)

// Detector produces findings for a product list.
type Detector func(products []domain.Product, r rates.Rates) []domain.Finding

// Engine runs the detectors over a portfolio and merges their findings.
type Engine struct {
	rates     rates.Rates
	detectors []Detector
}

// NewEngine creates an engine running dead-inventory, low-margin and
// slow-velocity detection, in that order.
func NewEngine(r rates.Rates) *Engine {
	return &Engine{
		rates: r,
		detectors: []Detector{
			DetectDeadInventory,
			DetectLowMargin,
			DetectSlowVelocity,
		},
	}
}

// Rates returns the rate table the engine was built with.
func (e *Engine) Rates() rates.Rates {
	return e.rates
}

// Run detects, deduplicates by product and ranks findings. Each product keeps
// only its largest-impact finding; ties keep the earlier detector's. The
// result is ordered by priority, then impact, both descending.
func (e *Engine) Run(products []domain.Product) domain.FindingsReport {
	var all []domain.Finding
	for _, detect := range e.detectors {
		all = append(all, detect(products, e.rates)...)
	}

	findings := Dedupe(all)
	Rank(findings)

	return domain.FindingsReport{
		Findings: findings,
		Summary:  Summarize(findings),
	}
}

// Dedupe keeps one finding per product id: the one with the largest annual
// impact, first seen on ties. First-seen order is preserved. The result is
// never nil.
func Dedupe(findings []domain.Finding) []domain.Finding {
	out := make([]domain.Finding, 0, len(findings))
	pos := make(map[string]int, len(findings))

	for _, f := range findings {
		i, seen := pos[f.ProductID]
		if !seen {
			pos[f.ProductID] = len(out)
			out = append(out, f)
			continue
		}
		if f.FinancialImpactAnnualEUR > out[i].FinancialImpactAnnualEUR {
			out[i] = f
		}
	}

	return out
}

// Rank sorts findings in place by priority then annual impact, descending.
func Rank(findings []domain.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].ImpactPriority != findings[j].ImpactPriority {
			return findings[i].ImpactPriority > findings[j].ImpactPriority
		}
		return findings[i].FinancialImpactAnnualEUR > findings[j].FinancialImpactAnnualEUR
	})
}

// Summarize aggregates counts and totals of a ranked findings list.
func Summarize(findings []domain.Finding) domain.FindingsSummary {
	summary := domain.FindingsSummary{TotalFindings: len(findings)}

	var total float64
	top := -1
	for i, f := range findings {
		switch f.Severity {
		case domain.SeverityCritical:
			summary.CriticalCount++
		case domain.SeverityOpportunity:
			summary.OpportunityCount++
		}

		total += f.FinancialImpactAnnualEUR
		if top < 0 || f.FinancialImpactAnnualEUR > findings[top].FinancialImpactAnnualEUR {
			top = i
		}
	}

	summary.TotalAnnualOpportunityEUR = rates.Round2(total)
	if top >= 0 {
		summary.TopProductID = findings[top].ProductID
		summary.TopImpactAnnualEUR = rates.Round2(findings[top].FinancialImpactAnnualEUR)
	}

	return summary
}
