package portfolio

import (
	"math"

	"github.com/andresuchdata/fbaprofit/internal/domain"
)

// Sub-score weights of the composite health score.
const (
	weightProfitability = 0.25
	weightBreakEven     = 0.25
	weightCashFlow      = 0.25
	weightCompetition   = 0.15
	weightInventory     = 0.10
)

// stepScores are the five stepwise values every sub-score can take.
var stepScores = [5]float64{100, 75, 50, 25, 0}

// stepAtLeast scores v against descending thresholds with v >= t.
func stepAtLeast(v float64, thresholds [4]float64) float64 {
	for i, t := range thresholds {
		if v >= t {
			return stepScores[i]
		}
	}
	return stepScores[4]
}

// stepAbove scores v against descending thresholds with v > t.
func stepAbove(v float64, thresholds [4]float64) float64 {
	for i, t := range thresholds {
		if v > t {
			return stepScores[i]
		}
	}
	return stepScores[4]
}

// stepBelow scores v against ascending thresholds with v < t.
func stepBelow(v float64, thresholds [4]float64) float64 {
	for i, t := range thresholds {
		if v < t {
			return stepScores[i]
		}
	}
	return stepScores[4]
}

// stepAtMost scores v against ascending thresholds with v <= t.
func stepAtMost(v float64, thresholds [4]float64) float64 {
	for i, t := range thresholds {
		if v <= t {
			return stepScores[i]
		}
	}
	return stepScores[4]
}

// healthScore combines the five weighted sub-scores into an integer in [0,100].
func healthScore(marginPct, breakEvenDays float64, runwayMonths int, competitors, turnoverDays float64) int {
	score := stepAtLeast(marginPct, [4]float64{30, 20, 10, 5})*weightProfitability +
		stepBelow(breakEvenDays, [4]float64{14, 30, 60, 90})*weightBreakEven +
		stepAbove(float64(runwayMonths), [4]float64{6, 3, 1, 0})*weightCashFlow +
		stepAtMost(competitors, [4]float64{5, 10, 20, 30})*weightCompetition +
		stepAtMost(turnoverDays, [4]float64{21, 45, 60, 90})*weightInventory

	rounded := int(math.Round(score))
	switch {
	case rounded < 0:
		return 0
	case rounded > 100:
		return 100
	}
	return rounded
}

func profitabilityRisk(marginPct float64) domain.RiskLevel {
	switch {
	case marginPct > 20:
		return domain.RiskGreen
	case marginPct > 10:
		return domain.RiskYellow
	default:
		return domain.RiskRed
	}
}

func breakEvenRisk(days float64) domain.RiskLevel {
	switch {
	case days < 14:
		return domain.RiskGreen
	case days < 30:
		return domain.RiskYellow
	default:
		return domain.RiskRed
	}
}

func cashFlowRisk(months int) domain.RiskLevel {
	switch {
	case months >= 6:
		return domain.RiskGreen
	case months >= 3:
		return domain.RiskYellow
	default:
		return domain.RiskRed
	}
}

func competitionRisk(competitors float64) domain.RiskLevel {
	switch {
	case competitors <= 5:
		return domain.RiskGreen
	case competitors <= 15:
		return domain.RiskYellow
	default:
		return domain.RiskRed
	}
}

func inventoryRisk(turnoverDays float64) domain.RiskLevel {
	switch {
	case turnoverDays < 21:
		return domain.RiskGreen
	case turnoverDays < 45:
		return domain.RiskYellow
	default:
		return domain.RiskRed
	}
}
