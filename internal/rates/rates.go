package rates

import (
	"math"

	"github.com/shopspring/decimal"
)

// SentinelDays replaces an infinite day count (zero velocity, no profit).
const SentinelDays = 999.0

// ScreeningRates are the baked-in fee assumptions of the single-SKU screening
// model used by the detectors.
type ScreeningRates struct {
	ReferralRate        float64 // fraction of price
	FulfillmentStandard float64 // EUR per unit
	FulfillmentOversize float64 // EUR per unit
}

// DeadInventoryRates configures the dead-inventory detector.
type DeadInventoryRates struct {
	MinDaysInStock      float64
	MaxMarginPct        float64
	StorageRate         float64 // EUR per unit per month
	OpportunityCostRate float64 // annual fraction of tied-up capital
	LiquidationRecovery float64
	DiscountPct         float64
	DiscountRecovery    float64
}

// LowMarginRates configures the low-margin detector.
type LowMarginRates struct {
	MinQuantity     float64
	MaxMarginPct    float64
	TargetMarginPct float64
	GapCapture      float64 // share of the margin gap closed by one repricing step
	PriceElasticity float64 // volume loss % per price increase %
}

// SlowVelocityRates configures the slow-velocity detector.
type SlowVelocityRates struct {
	MinDaysInStock   float64
	MinMarginPct     float64
	MaxAnnualProfit  float64
	PPCMonthlyBudget float64
	PPCSalesLift     float64
	ListingSalesLift float64
}

// PortfolioRates configures the bulk calculator.
type PortfolioRates struct {
	InventoryBuffer float64 // multiplier on the initial order cost
	ReorderBuffer   float64 // safety-stock multiplier on monthly reorders
	RunwayMonths    int
}

// PriorityRates configures the shared impact priority scorer.
type PriorityRates struct {
	ImpactDivisor float64
	CriticalBoost float64
}

// Rates is the immutable table of every fee, threshold and business
// assumption used by the engine. Build it once and pass it by value.
type Rates struct {
	Screening     ScreeningRates
	DeadInventory DeadInventoryRates
	LowMargin     LowMarginRates
	SlowVelocity  SlowVelocityRates
	Portfolio     PortfolioRates
	Priority      PriorityRates
}

// Default returns the 2024 rate card.
func Default() Rates {
	return Rates{
		Screening: ScreeningRates{
			ReferralRate:        0.15,
			FulfillmentStandard: 2.50,
			FulfillmentOversize: 4.50,
		},
		DeadInventory: DeadInventoryRates{
			MinDaysInStock:      180,
			MaxMarginPct:        15,
			StorageRate:         0.87,
			OpportunityCostRate: 0.20,
			LiquidationRecovery: 0.60,
			DiscountPct:         30,
			DiscountRecovery:    0.75,
		},
		LowMargin: LowMarginRates{
			MinQuantity:     5,
			MaxMarginPct:    10,
			TargetMarginPct: 20,
			GapCapture:      0.5,
			PriceElasticity: 1.0,
		},
		SlowVelocity: SlowVelocityRates{
			MinDaysInStock:   90,
			MinMarginPct:     15,
			MaxAnnualProfit:  500,
			PPCMonthlyBudget: 175,
			PPCSalesLift:     0.40,
			ListingSalesLift: 0.15,
		},
		Portfolio: PortfolioRates{
			InventoryBuffer: 1.02,
			ReorderBuffer:   1.2,
			RunwayMonths:    12,
		},
		Priority: PriorityRates{
			ImpactDivisor: 100,
			CriticalBoost: 20,
		},
	}
}

// Round2 rounds v half away from zero to 2 decimal places.
// Non-finite input collapses to 0.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
