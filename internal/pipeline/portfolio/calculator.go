package portfolio

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/rates"
)

// PortfolioProfitModel is the user-parameterized accounting model of the bulk
// calculator: every fee (returns, referral, FBA, VAT as % of price, shipping
// per unit) comes from the row itself. The detectors answer a different
// question with analytics.ScreeningProfitModel; the two are kept apart.
type PortfolioProfitModel struct{}

// UnitEconomics holds the per-unit result of the portfolio profit model.
type UnitEconomics struct {
	RevenueAfterReturns float64
	ReferralFeeAmount   float64
	FBAFeeAmount        float64
	VATAmount           float64
	ProfitPerUnit       float64
	ProfitMargin        float64 // percent of price
}

// Unit computes per-unit profit for a row.
func (PortfolioProfitModel) Unit(row *domain.UploadRow) UnitEconomics {
	price := num(row.Price)

	u := UnitEconomics{
		RevenueAfterReturns: price * (1 - num(row.ReturnRate)/100),
		ReferralFeeAmount:   price * (num(row.ReferralFee) / 100),
		FBAFeeAmount:        price * (num(row.FBAFee) / 100),
		VATAmount:           price * (num(row.VAT) / 100),
	}
	u.ProfitPerUnit = u.RevenueAfterReturns - num(row.COGS) - u.ReferralFeeAmount -
		u.FBAFeeAmount - u.VATAmount - num(row.ShippingCost)

	if price > 0 {
		u.ProfitMargin = u.ProfitPerUnit / price * 100
	}
	return u
}

// Calculator derives the bulk metrics of upload rows.
type Calculator struct {
	model   PortfolioProfitModel
	rates   rates.PortfolioRates
	workers int
}

// NewCalculator creates a calculator. workers bounds CalculateBatch fan-out.
func NewCalculator(r rates.PortfolioRates, workers int) *Calculator {
	if workers < 1 {
		workers = 1
	}
	return &Calculator{
		rates:   r,
		workers: workers,
	}
}

// Calculate computes all derived metrics for one row. It is pure.
func (c *Calculator) Calculate(row *domain.UploadRow) domain.BulkProductResult {
	velocity := math.Max(0, num(row.Velocity))
	cogs := num(row.COGS)
	initialOrder := num(row.InitialOrder)

	// 1. Per-unit profit from the full fee stack
	unit := c.model.Unit(row)

	// 2. Monthly profit at the stated velocity
	monthlyProfit := unit.ProfitPerUnit * velocity

	// 3. Initial inventory cost with purchasing buffer
	inventoryCost := cogs * initialOrder * c.rates.InventoryBuffer

	// 4. Break-even days; zero velocity or zero monthly profit gets the sentinel.
	// A loss-making row keeps the negative day count of the formula.
	breakEven := rates.SentinelDays
	if velocity > 0 && monthlyProfit != 0 {
		breakEven = inventoryCost / monthlyProfit * 30
	}

	// 5. Inventory turnover days
	turnover := rates.SentinelDays
	if velocity > 0 {
		turnover = initialOrder / velocity * 30
	}

	// 6. Cash runway simulation
	runway := c.cashRunway(num(row.InitialCash), inventoryCost, monthlyProfit, velocity, cogs)

	competitors := num(row.CompetitorCount)

	result := domain.BulkProductResult{
		UploadRow:          *row,
		ProfitPerUnit:      rates.Round2(unit.ProfitPerUnit),
		ProfitMargin:       rates.Round2(unit.ProfitMargin),
		TotalMonthlyProfit: rates.Round2(monthlyProfit),
		BreakEvenDays:      rates.Round2(breakEven),
		CashRunway:         runway,
		TurnoverDays:       rates.Round2(turnover),
		HealthScore:        healthScore(unit.ProfitMargin, breakEven, runway, competitors, turnover),
		ProfitabilityRisk:  profitabilityRisk(unit.ProfitMargin),
		BreakEvenRisk:      breakEvenRisk(breakEven),
		CashFlowRisk:       cashFlowRisk(runway),
		CompetitionRisk:    competitionRisk(competitors),
		InventoryRisk:      inventoryRisk(turnover),
	}

	return result
}

// cashRunway returns how many months (0..RunwayMonths) the simulated cash
// position stays non-negative. The loop is bounded by RunwayMonths.
func (c *Calculator) cashRunway(initialCash, inventoryCost, monthlyProfit, velocity, cogs float64) int {
	cash := initialCash - inventoryCost
	if cash <= 0 {
		return 0
	}

	reorderCost := velocity * c.rates.ReorderBuffer * cogs
	for month := 1; month <= c.rates.RunwayMonths; month++ {
		cash += monthlyProfit - reorderCost
		if cash < 0 {
			return month - 1
		}
	}

	return c.rates.RunwayMonths
}

// CalculateAll runs Calculate sequentially, preserving input order.
func (c *Calculator) CalculateAll(rows []domain.UploadRow) []domain.BulkProductResult {
	results := make([]domain.BulkProductResult, len(rows))
	for i := range rows {
		results[i] = c.Calculate(&rows[i])
	}
	return results
}

// CalculateBatch fans rows out over the configured number of workers. Each
// result lands at its input index, so the output equals CalculateAll.
func (c *Calculator) CalculateBatch(ctx context.Context, rows []domain.UploadRow) ([]domain.BulkProductResult, error) {
	results := make([]domain.BulkProductResult, len(rows))
	if len(rows) == 0 {
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = c.Calculate(&rows[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// num maps NaN and ±Inf to 0 so they never reach the outputs.
func num(v float64) float64 {
	if !rates.Finite(v) {
		return 0
	}
	return v
}
