package rates

import "github.com/andresuchdata/fbaprofit/internal/config"

// FromConfig applies the non-zero overrides of cfg on top of Default.
func FromConfig(cfg config.AnalyticsConfig) Rates {
	r := Default()

	override(&r.Screening.ReferralRate, cfg.ReferralRate)
	override(&r.Screening.FulfillmentStandard, cfg.FulfillmentStandard)
	override(&r.Screening.FulfillmentOversize, cfg.FulfillmentOversize)
	override(&r.DeadInventory.StorageRate, cfg.StorageRate)
	override(&r.DeadInventory.OpportunityCostRate, cfg.OpportunityCostRate)
	override(&r.LowMargin.TargetMarginPct, cfg.TargetMarginPct)
	override(&r.LowMargin.PriceElasticity, cfg.PriceElasticity)
	override(&r.SlowVelocity.PPCMonthlyBudget, cfg.PPCMonthlyBudget)
	override(&r.SlowVelocity.PPCSalesLift, cfg.PPCSalesLift)
	override(&r.SlowVelocity.ListingSalesLift, cfg.ListingSalesLift)

	return r
}

func override(dst *float64, v float64) {
	if v > 0 && Finite(v) {
		*dst = v
	}
}
