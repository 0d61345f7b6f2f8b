package analytics

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/rates"
)

// DetectDeadInventory flags stock that has sat longer than MinDaysInStock at
// a thin margin and prices what holding it costs per year: storage plus the
// opportunity cost of the capital. Results are sorted by annual cost,
// highest first.
func DetectDeadInventory(products []domain.Product, r rates.Rates) []domain.Finding {
	model := NewScreeningProfitModel(r.Screening)
	cfg := r.DeadInventory

	var findings []domain.Finding
	for _, p := range products {
		if !isValid(p) || p.QuantityInStock <= 0 {
			continue
		}

		days, ok := daysInStock(p)
		if !ok || days <= cfg.MinDaysInStock {
			continue
		}

		margin := model.MarginPct(p.SellingPrice, p.CostPerUnit, p.SizeTier)
		if margin >= cfg.MaxMarginPct {
			continue
		}

		capital := p.QuantityInStock * p.CostPerUnit
		monthlyStorage := p.QuantityInStock * cfg.StorageRate
		annualStorage := monthlyStorage * 12
		opportunity := capital * cfg.OpportunityCostRate
		total := annualStorage + opportunity

		detail := &domain.DeadInventoryDetail{
			MarginPct:             rates.Round2(margin),
			DaysInStock:           days,
			CapitalTiedUp:         rates.Round2(capital),
			MonthlyStorageCost:    rates.Round2(monthlyStorage),
			AnnualStorageCost:     rates.Round2(annualStorage),
			AnnualOpportunityCost: rates.Round2(opportunity),
			TotalAnnualCost:       rates.Round2(total),
			MonthlyBleed:          rates.Round2(total / 12),
		}

		impact := detail.TotalAnnualCost
		findings = append(findings, domain.Finding{
			FindingType: domain.FindingDeadInventory,
			Severity:    domain.SeverityCritical,
			ProductID:   p.ASIN,
			ProductName: p.Name,
			Category:    p.Category,
			Headline: fmt.Sprintf("%s has sat %.0f days and costs %s a year to hold",
				p.Name, days, domain.FormatEUR(impact)),
			Description: fmt.Sprintf("%.0f units at a %.1f%% margin tie up %s of capital. Storage and lost returns bleed %s every month.",
				p.QuantityInStock, margin, domain.FormatEUR(detail.CapitalTiedUp), domain.FormatEUR(detail.MonthlyBleed)),
			FinancialImpactAnnualEUR: impact,
			ImpactPriority:           ImpactPriority(impact, domain.SeverityCritical, r.Priority),
			Actions:                  deadInventoryActions(capital, cfg),
			DeadInventory:            detail,
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].DeadInventory.TotalAnnualCost > findings[j].DeadInventory.TotalAnnualCost
	})

	return findings
}

func deadInventoryActions(capital float64, cfg rates.DeadInventoryRates) []domain.Action {
	return []domain.Action{
		{
			Title:            "Liquidate remaining stock",
			Description:      fmt.Sprintf("Sell through a liquidation channel and recover about %.0f%% of the capital.", cfg.LiquidationRecovery*100),
			Effort:           domain.LevelLow,
			Timeline:         "Immediate",
			EstimatedGainEUR: domain.Float(rates.Round2(capital * cfg.LiquidationRecovery)),
			Risk:             domain.LevelLow,
			Primary:          true,
		},
		{
			Title:            fmt.Sprintf("Discount %.0f%% to clear", cfg.DiscountPct),
			Description:      fmt.Sprintf("Run a price promotion and recover about %.0f%% of the capital.", cfg.DiscountRecovery*100),
			Effort:           domain.LevelLow,
			Timeline:         "30-60 days",
			EstimatedGainEUR: domain.Float(rates.Round2(capital * cfg.DiscountRecovery)),
			Risk:             domain.LevelMedium,
		},
		{
			Title:       "Bundle with a best seller",
			Description: "Pair the slow unit with a fast mover to ride its traffic.",
			Effort:      domain.LevelMedium,
			Timeline:    "Open-ended",
			Risk:        domain.LevelMedium,
		},
	}
}
