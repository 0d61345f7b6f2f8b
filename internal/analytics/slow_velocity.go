package analytics

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/rates"
)

// DetectSlowVelocity flags healthy-margin products that sell too slowly to
// matter and compares two growth paths: paid advertising and a free listing
// refresh. Results are sorted by PPC monthly net gain, highest first.
func DetectSlowVelocity(products []domain.Product, r rates.Rates) []domain.Finding {
	model := NewScreeningProfitModel(r.Screening)
	cfg := r.SlowVelocity

	var findings []domain.Finding
	for _, p := range products {
		if !isValid(p) {
			continue
		}

		days, ok := daysInStock(p)
		if !ok || days <= cfg.MinDaysInStock {
			continue
		}

		margin := model.MarginPct(p.SellingPrice, p.CostPerUnit, p.SizeTier)
		if margin <= cfg.MinMarginPct {
			continue
		}

		velocity, _, ok := monthlyVelocity(p)
		if !ok {
			continue
		}

		unit := model.NetProfit(p.SellingPrice, p.CostPerUnit, p.SizeTier)
		monthly := unit * velocity
		if monthly*12 >= cfg.MaxAnnualProfit {
			continue
		}

		ppc := growthPath(velocity, unit, monthly, cfg.PPCMonthlyBudget, cfg.PPCSalesLift)
		listing := growthPath(velocity, unit, monthly, 0, cfg.ListingSalesLift)

		detail := &domain.SlowVelocityDetail{
			MarginPct:            rates.Round2(margin),
			DaysInStock:          days,
			MonthlySales:         rates.Round2(velocity),
			ProfitPerUnit:        rates.Round2(unit),
			CurrentMonthlyProfit: rates.Round2(monthly),
			CurrentAnnualProfit:  rates.Round2(monthly * 12),
			DoubledMonthlyProfit: rates.Round2(monthly * 2),
			DoubledAnnualProfit:  rates.Round2(monthly * 24),
			PPC:                  ppc,
			Listing:              listing,
		}

		best := max(ppc.MonthlyNetGain, listing.MonthlyNetGain, 0)
		impact := rates.Round2(best * 12)

		findings = append(findings, domain.Finding{
			FindingType: domain.FindingSlowVelocity,
			Severity:    domain.SeverityOpportunity,
			ProductID:   p.ASIN,
			ProductName: p.Name,
			Category:    p.Category,
			Headline: fmt.Sprintf("%s has a %.1f%% margin but sells only %.1f units a month",
				p.Name, margin, velocity),
			Description: fmt.Sprintf("It makes %s a year. Doubling sales would make %s.",
				domain.FormatEUR(detail.CurrentAnnualProfit), domain.FormatEUR(detail.DoubledAnnualProfit)),
			FinancialImpactAnnualEUR: impact,
			ImpactPriority:           ImpactPriority(ppc.AnnualNetGain, domain.SeverityOpportunity, r.Priority),
			Actions:                  slowVelocityActions(ppc, listing, cfg),
			SlowVelocity:             detail,
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].SlowVelocity.PPC.MonthlyNetGain > findings[j].SlowVelocity.PPC.MonthlyNetGain
	})

	return findings
}

// growthPath models a sales lift bought at monthlyCost.
func growthPath(velocity, unit, monthly, monthlyCost, lift float64) domain.GrowthPath {
	newSales := velocity * (1 + lift)
	newMonthly := newSales * unit
	net := newMonthly - monthly - monthlyCost

	path := domain.GrowthPath{
		MonthlyCost:      monthlyCost,
		SalesLiftPct:     rates.Round2(lift * 100),
		NewMonthlySales:  rates.Round2(newSales),
		NewMonthlyProfit: rates.Round2(newMonthly),
		MonthlyNetGain:   rates.Round2(net),
		AnnualNetGain:    rates.Round2(net * 12),
	}

	if monthlyCost > 0 {
		if net > 0 {
			path.PaybackWeeks = rates.Round2(monthlyCost / net * 4)
		}
		path.ROIPct = rates.Round2(net / monthlyCost * 100)
	}

	return path
}

func slowVelocityActions(ppc, listing domain.GrowthPath, cfg rates.SlowVelocityRates) []domain.Action {
	return []domain.Action{
		{
			Title: fmt.Sprintf("Launch a %s/month PPC campaign", domain.FormatEUR(cfg.PPCMonthlyBudget)),
			Description: fmt.Sprintf("Sponsored ads typically lift sales %.0f%% for a %.0f%% ROI.",
				ppc.SalesLiftPct, ppc.ROIPct),
			Effort:           domain.LevelMedium,
			Timeline:         "2-4 weeks",
			EstimatedGainEUR: domain.Float(ppc.MonthlyNetGain),
			Risk:             domain.LevelMedium,
			Primary:          true,
		},
		{
			Title:            "Optimize the listing",
			Description:      fmt.Sprintf("Refresh the title and images for about %.0f%% more sales at no cost.", listing.SalesLiftPct),
			Effort:           domain.LevelLow,
			Timeline:         "1-2 weeks",
			EstimatedGainEUR: domain.Float(listing.MonthlyNetGain),
			Risk:             domain.LevelLow,
		},
	}
}
