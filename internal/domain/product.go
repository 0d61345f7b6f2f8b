package domain

import "strings"

// SizeTier selects the fulfillment fee of the screening model.
type SizeTier string

const (
	SizeStandard SizeTier = "standard"
	SizeOversize SizeTier = "oversize"
)

// ParseSizeTier maps free-form tier labels onto a SizeTier, defaulting to standard.
func ParseSizeTier(s string) SizeTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oversize", "oversized", "large", "bulky":
		return SizeOversize
	default:
		return SizeStandard
	}
}

// Product is one SKU as seen by the detectors.
type Product struct {
	ASIN                  string   `json:"asin"`
	Name                  string   `json:"name"`
	CostPerUnit           float64  `json:"cost_per_unit"`
	SellingPrice          float64  `json:"selling_price"`
	QuantityInStock       float64  `json:"quantity_in_stock"`
	DaysInStock           *float64 `json:"days_in_stock,omitempty"`
	Category              string   `json:"category"`
	SizeTier              SizeTier `json:"size_tier,omitempty"`
	EstimatedMonthlySales *float64 `json:"estimated_monthly_sales,omitempty"`
}

// UploadRow is one row of the bulk calculator upload. Rates are percentages
// (15 means 15%), ShippingCost and InitialCash are currency.
type UploadRow struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	COGS            float64 `json:"cogs"`
	Velocity        float64 `json:"velocity"`
	ReturnRate      float64 `json:"returnRate"`
	ReferralFee     float64 `json:"referralFee"`
	FBAFee          float64 `json:"fbaFee"`
	VAT             float64 `json:"vat"`
	ShippingCost    float64 `json:"shippingCost"`
	InitialOrder    float64 `json:"initialOrder"`
	InitialCash     float64 `json:"initialCash"`
	CompetitorCount float64 `json:"competitorCount"`
	Rating          float64 `json:"rating"`
	Category        string  `json:"category"`
}

// BulkProductResult is an UploadRow enriched with derived metrics.
type BulkProductResult struct {
	UploadRow

	ProfitPerUnit      float64 `json:"profitPerUnit"`
	ProfitMargin       float64 `json:"profitMargin"`
	TotalMonthlyProfit float64 `json:"totalMonthlyProfit"`
	BreakEvenDays      float64 `json:"breakEvenDays"`
	CashRunway         int     `json:"cashRunway"`
	TurnoverDays       float64 `json:"turnoverDays"`
	HealthScore        int     `json:"healthScore"`

	ProfitabilityRisk RiskLevel `json:"profitabilityRisk"`
	BreakEvenRisk     RiskLevel `json:"breakEvenRisk"`
	CashFlowRisk      RiskLevel `json:"cashFlowRisk"`
	CompetitionRisk   RiskLevel `json:"competitionRisk"`
	InventoryRisk     RiskLevel `json:"inventoryRisk"`
}

// Float returns a pointer to v, for the optional Product fields.
func Float(v float64) *float64 {
	return &v
}
