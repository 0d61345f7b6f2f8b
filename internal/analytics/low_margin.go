package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/rates"
)

// DetectLowMargin flags stocked products selling below MaxMarginPct and
// models one repricing step toward the target margin. Price rises cost
// volume at the configured elasticity. Results are sorted by monthly gain,
// highest first.
func DetectLowMargin(products []domain.Product, r rates.Rates) []domain.Finding {
	model := NewScreeningProfitModel(r.Screening)
	cfg := r.LowMargin

	var findings []domain.Finding
	for _, p := range products {
		if !isValid(p) || p.SellingPrice <= 0 || p.QuantityInStock <= cfg.MinQuantity {
			continue
		}

		margin := model.MarginPct(p.SellingPrice, p.CostPerUnit, p.SizeTier)
		if margin >= cfg.MaxMarginPct {
			continue
		}

		velocity, inferred, ok := monthlyVelocity(p)
		if !ok {
			continue
		}

		detail := repricing(p, margin, velocity, model, cfg)
		detail.SalesInferred = inferred

		impact := math.Max(0, detail.AnnualGain)
		findings = append(findings, domain.Finding{
			FindingType: domain.FindingLowMargin,
			Severity:    domain.SeverityCritical,
			ProductID:   p.ASIN,
			ProductName: p.Name,
			Category:    p.Category,
			Headline: fmt.Sprintf("%s earns only %.1f%% margin; repricing to %s adds %s a month",
				p.Name, margin, domain.FormatEUR(detail.RecommendedPrice), domain.FormatEUR(detail.MonthlyGain)),
			Description: fmt.Sprintf("At %.1f units a month the product makes %s per unit. A %.1f%% price rise keeps %.1f units and lifts profit per unit to %s.",
				velocity, domain.FormatEUR(detail.CurrentProfitPerUnit), detail.PriceIncreasePct,
				detail.NewMonthlySales, domain.FormatEUR(detail.NewProfitPerUnit)),
			FinancialImpactAnnualEUR: impact,
			ImpactPriority:           ImpactPriority(impact, domain.SeverityCritical, r.Priority),
			Actions:                  lowMarginActions(detail),
			LowMargin:                detail,
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].LowMargin.MonthlyGain > findings[j].LowMargin.MonthlyGain
	})

	return findings
}

// repricing computes the before/after scenario of one price step.
func repricing(p domain.Product, margin, velocity float64, model ScreeningProfitModel, cfg rates.LowMarginRates) *domain.LowMarginDetail {
	currentUnit := model.NetProfit(p.SellingPrice, p.CostPerUnit, p.SizeTier)
	currentMonthly := currentUnit * velocity

	// Close part of the gap, then land on a .99 price point
	increase := math.Max(0, (cfg.TargetMarginPct-margin)/100*cfg.GapCapture)
	newPrice := math.Floor(p.SellingPrice*(1+increase)) + 0.99

	increasePct := (newPrice - p.SellingPrice) / p.SellingPrice * 100
	volumeLossPct := math.Min(100, math.Max(0, increasePct*cfg.PriceElasticity))
	newSales := velocity * (1 - volumeLossPct/100)

	newUnit := model.NetProfit(newPrice, p.CostPerUnit, p.SizeTier)
	newMonthly := newUnit * newSales
	monthlyGain := newMonthly - currentMonthly

	return &domain.LowMarginDetail{
		CurrentMarginPct:     rates.Round2(margin),
		TargetMarginPct:      cfg.TargetMarginPct,
		MonthlySales:         rates.Round2(velocity),
		CurrentProfitPerUnit: rates.Round2(currentUnit),
		CurrentMonthlyProfit: rates.Round2(currentMonthly),
		CurrentAnnualProfit:  rates.Round2(currentMonthly * 12),
		RecommendedPrice:     rates.Round2(newPrice),
		PriceIncreasePct:     rates.Round2(increasePct),
		VolumeLossPct:        rates.Round2(volumeLossPct),
		NewMonthlySales:      rates.Round2(newSales),
		NewProfitPerUnit:     rates.Round2(newUnit),
		NewMarginPct:         rates.Round2(model.MarginPct(newPrice, p.CostPerUnit, p.SizeTier)),
		NewMonthlyProfit:     rates.Round2(newMonthly),
		NewAnnualProfit:      rates.Round2(newMonthly * 12),
		MonthlyGain:          rates.Round2(monthlyGain),
		AnnualGain:           rates.Round2(monthlyGain * 12),
	}
}

func lowMarginActions(d *domain.LowMarginDetail) []domain.Action {
	return []domain.Action{
		{
			Title:            fmt.Sprintf("Reprice to %s", domain.FormatEUR(d.RecommendedPrice)),
			Description:      fmt.Sprintf("Raise the price %.1f%% and accept about %.1f%% fewer sales.", d.PriceIncreasePct, d.VolumeLossPct),
			Effort:           domain.LevelLow,
			Timeline:         "Immediate",
			EstimatedGainEUR: domain.Float(d.MonthlyGain),
			Risk:             domain.LevelMedium,
			Primary:          true,
		},
		{
			Title:       "Reduce landed cost",
			Description: "Renegotiate the supplier price or consolidate shipments.",
			Effort:      domain.LevelMedium,
			Timeline:    "2-4 weeks",
			Risk:        domain.LevelLow,
		},
		{
			Title:            "Delist and redeploy capital",
			Description:      "Sell through remaining stock and move the budget to a higher-margin product.",
			Effort:           domain.LevelHigh,
			Timeline:         "1-3 months",
			EstimatedGainEUR: domain.Float(0),
			Risk:             domain.LevelMedium,
		},
	}
}
