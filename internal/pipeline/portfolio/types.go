package portfolio

// Config holds configuration for the portfolio metrics pipeline
type Config struct {
	Workers int // CalculateBatch fan-out per file
}

// Output columns of the metrics pipeline, in CSV order
var metricsColumns = []string{
	"source_file",
	"id",
	"name",
	"category",
	"price",
	"cogs",
	"velocity",
	"profit_per_unit",
	"profit_margin",
	"total_monthly_profit",
	"break_even_days",
	"cash_runway",
	"turnover_days",
	"health_score",
	"profitability_risk",
	"break_even_risk",
	"cash_flow_risk",
	"competition_risk",
	"inventory_risk",
}
