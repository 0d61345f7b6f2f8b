// Package analytics holds the rule-based portfolio detectors and the engine
// that aggregates their findings.
package analytics

import (
	"math"

	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/rates"
)

// ScreeningProfitModel is the quick single-SKU model the detectors share:
// price minus cost, a flat referral fee and a size-tier fulfillment fee. It
// deliberately ignores returns, VAT and shipping, which only the bulk
// calculator's portfolio model carries.
type ScreeningProfitModel struct {
	rates rates.ScreeningRates
}

// NewScreeningProfitModel creates a screening model over the given rates.
func NewScreeningProfitModel(r rates.ScreeningRates) ScreeningProfitModel {
	return ScreeningProfitModel{rates: r}
}

// FulfillmentFee returns the per-unit fulfillment fee of a size tier.
func (m ScreeningProfitModel) FulfillmentFee(tier domain.SizeTier) float64 {
	if tier == domain.SizeOversize {
		return m.rates.FulfillmentOversize
	}
	return m.rates.FulfillmentStandard
}

// NetProfit returns the per-unit profit at price.
func (m ScreeningProfitModel) NetProfit(price, cost float64, tier domain.SizeTier) float64 {
	return price - cost - price*m.rates.ReferralRate - m.FulfillmentFee(tier)
}

// MarginPct returns net profit as a percentage of price, 0 when price <= 0.
func (m ScreeningProfitModel) MarginPct(price, cost float64, tier domain.SizeTier) float64 {
	if price <= 0 {
		return 0
	}
	return m.NetProfit(price, cost, tier) / price * 100
}

// ImpactPriority ranks a finding in [1,100]: one point per ImpactDivisor
// euros of annual impact (capped at 100) plus a boost for critical findings.
func ImpactPriority(annualImpact float64, severity domain.Severity, r rates.PriorityRates) int {
	if !rates.Finite(annualImpact) {
		annualImpact = 0
	}

	divisor := r.ImpactDivisor
	if divisor <= 0 {
		divisor = 100
	}

	score := math.Min(100, annualImpact/divisor)
	if severity == domain.SeverityCritical {
		score += r.CriticalBoost
	}

	priority := int(math.Round(score))
	switch {
	case priority < 1:
		return 1
	case priority > 100:
		return 100
	}
	return priority
}

// isValid is the minimal sanity check every detector applies before looking
// at a product. Invalid products are skipped without error.
func isValid(p domain.Product) bool {
	if p.ASIN == "" {
		return false
	}

	for _, v := range []float64{p.CostPerUnit, p.SellingPrice, p.QuantityInStock} {
		if !rates.Finite(v) || v < 0 {
			return false
		}
	}

	if p.DaysInStock != nil && !rates.Finite(*p.DaysInStock) {
		return false
	}
	if p.EstimatedMonthlySales != nil && !rates.Finite(*p.EstimatedMonthlySales) {
		return false
	}

	return true
}

// monthlyVelocity resolves units sold per month: the seller's estimate when
// positive, otherwise stock divided by age. ok is false when neither signal
// yields a positive figure.
func monthlyVelocity(p domain.Product) (velocity float64, inferred bool, ok bool) {
	if p.EstimatedMonthlySales != nil && *p.EstimatedMonthlySales > 0 {
		return *p.EstimatedMonthlySales, false, true
	}

	if p.DaysInStock == nil || *p.DaysInStock <= 0 || p.QuantityInStock <= 0 {
		return 0, true, false
	}

	velocity = p.QuantityInStock / *p.DaysInStock * 30
	return velocity, true, velocity > 0 && rates.Finite(velocity)
}

// daysInStock returns the product age, ok false when unknown.
func daysInStock(p domain.Product) (float64, bool) {
	if p.DaysInStock == nil {
		return 0, false
	}
	return *p.DaysInStock, true
}
