package domain

import (
	"github.com/Rhymond/go-money"
)

// FindingType identifies the detector that produced a finding.
type FindingType string

const (
	FindingDeadInventory FindingType = "dead_inventory"
	FindingLowMargin     FindingType = "low_margin"
	FindingSlowVelocity  FindingType = "slow_velocity"
)

// Severity separates money being lost from money being left on the table.
type Severity string

const (
	SeverityCritical    Severity = "critical"
	SeverityOpportunity Severity = "opportunity"
)

// Level is used for both action effort and action risk.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Action is one recommended remediation step.
type Action struct {
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Effort           Level    `json:"effort"`
	Timeline         string   `json:"timeline"`
	EstimatedGainEUR *float64 `json:"estimated_gain_eur"` // nil when the gain cannot be estimated
	Risk             Level    `json:"risk"`
	Primary          bool     `json:"primary,omitempty"`
}

// DeadInventoryDetail carries the cost breakdown of a dead-inventory finding.
type DeadInventoryDetail struct {
	MarginPct             float64 `json:"margin_pct"`
	DaysInStock           float64 `json:"days_in_stock"`
	CapitalTiedUp         float64 `json:"capital_tied_up_eur"`
	MonthlyStorageCost    float64 `json:"monthly_storage_cost_eur"`
	AnnualStorageCost     float64 `json:"annual_storage_cost_eur"`
	AnnualOpportunityCost float64 `json:"annual_opportunity_cost_eur"`
	TotalAnnualCost       float64 `json:"total_annual_cost_eur"`
	MonthlyBleed          float64 `json:"monthly_bleed_eur"`
}

// LowMarginDetail carries the repricing scenario of a low-margin finding.
type LowMarginDetail struct {
	CurrentMarginPct     float64 `json:"current_margin_pct"`
	TargetMarginPct      float64 `json:"target_margin_pct"`
	MonthlySales         float64 `json:"monthly_sales"`
	SalesInferred        bool    `json:"sales_inferred"`
	CurrentProfitPerUnit float64 `json:"current_profit_per_unit_eur"`
	CurrentMonthlyProfit float64 `json:"current_monthly_profit_eur"`
	CurrentAnnualProfit  float64 `json:"current_annual_profit_eur"`
	RecommendedPrice     float64 `json:"recommended_price_eur"`
	PriceIncreasePct     float64 `json:"price_increase_pct"`
	VolumeLossPct        float64 `json:"volume_loss_pct"`
	NewMonthlySales      float64 `json:"new_monthly_sales"`
	NewProfitPerUnit     float64 `json:"new_profit_per_unit_eur"`
	NewMarginPct         float64 `json:"new_margin_pct"`
	NewMonthlyProfit     float64 `json:"new_monthly_profit_eur"`
	NewAnnualProfit      float64 `json:"new_annual_profit_eur"`
	MonthlyGain          float64 `json:"monthly_gain_eur"`
	AnnualGain           float64 `json:"annual_gain_eur"`
}

// GrowthPath is one way to accelerate a slow seller.
type GrowthPath struct {
	MonthlyCost      float64 `json:"monthly_cost_eur"`
	SalesLiftPct     float64 `json:"sales_lift_pct"`
	NewMonthlySales  float64 `json:"new_monthly_sales"`
	NewMonthlyProfit float64 `json:"new_monthly_profit_eur"`
	MonthlyNetGain   float64 `json:"monthly_net_gain_eur"`
	AnnualNetGain    float64 `json:"annual_net_gain_eur"`
	PaybackWeeks     float64 `json:"payback_weeks,omitempty"`
	ROIPct           float64 `json:"roi_pct,omitempty"`
}

// SlowVelocityDetail carries the growth scenarios of a slow-velocity finding.
type SlowVelocityDetail struct {
	MarginPct            float64    `json:"margin_pct"`
	DaysInStock          float64    `json:"days_in_stock"`
	MonthlySales         float64    `json:"monthly_sales"`
	ProfitPerUnit        float64    `json:"profit_per_unit_eur"`
	CurrentMonthlyProfit float64    `json:"current_monthly_profit_eur"`
	CurrentAnnualProfit  float64    `json:"current_annual_profit_eur"`
	DoubledMonthlyProfit float64    `json:"doubled_monthly_profit_eur"`
	DoubledAnnualProfit  float64    `json:"doubled_annual_profit_eur"`
	PPC                  GrowthPath `json:"ppc"`
	Listing              GrowthPath `json:"listing_optimization"`
}

// Finding is one quantified portfolio problem. Findings are produced once
// and never mutated.
type Finding struct {
	FindingType              FindingType `json:"finding_type"`
	Severity                 Severity    `json:"severity"`
	ProductID                string      `json:"product_id"`
	ProductName              string      `json:"product_name"`
	Category                 string      `json:"category,omitempty"`
	Headline                 string      `json:"headline"`
	Description              string      `json:"description"`
	FinancialImpactAnnualEUR float64     `json:"financial_impact_annual_eur"`
	ImpactPriority           int         `json:"impact_priority"`
	Actions                  []Action    `json:"actions"`

	DeadInventory *DeadInventoryDetail `json:"dead_inventory,omitempty"`
	LowMargin     *LowMarginDetail     `json:"low_margin,omitempty"`
	SlowVelocity  *SlowVelocityDetail  `json:"slow_velocity,omitempty"`
}

// FindingsSummary aggregates a findings list.
type FindingsSummary struct {
	TotalFindings             int     `json:"total_findings"`
	CriticalCount             int     `json:"critical_count"`
	OpportunityCount          int     `json:"opportunity_count"`
	TotalAnnualOpportunityEUR float64 `json:"total_annual_opportunity_eur"`
	TopProductID              string  `json:"top_product_id,omitempty"`
	TopImpactAnnualEUR        float64 `json:"top_impact_annual_eur"`
}

// FindingsReport is the portfolio-level output of the findings engine.
type FindingsReport struct {
	Findings []Finding       `json:"findings"`
	Summary  FindingsSummary `json:"summary"`
}

// FormatEUR renders an amount as a euro string, e.g. "€2,226.00".
func FormatEUR(amount float64) string {
	return money.NewFromFloat(amount, money.EUR).Display()
}
