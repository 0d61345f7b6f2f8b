package portfolio

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/rates"
)

func newCalculator() *Calculator {
	return NewCalculator(rates.Default().Portfolio, 4)
}

func sampleRow() domain.UploadRow {
	return domain.UploadRow{
		ID:              "SKU-1",
		Name:            "Bamboo Board",
		Price:           30,
		COGS:            8,
		Velocity:        100,
		ReturnRate:      5,
		ReferralFee:     15,
		FBAFee:          10,
		VAT:             19,
		ShippingCost:    1,
		InitialOrder:    200,
		InitialCash:     5000,
		CompetitorCount: 4,
		Rating:          4.5,
		Category:        "Kitchen",
	}
}

func TestCalculate(t *testing.T) {
	row := sampleRow()
	got := newCalculator().Calculate(&row)

	assert.Equal(t, row, got.UploadRow)
	assert.Equal(t, 6.3, got.ProfitPerUnit)
	assert.Equal(t, 21.0, got.ProfitMargin)
	assert.Equal(t, 630.0, got.TotalMonthlyProfit)
	assert.Equal(t, 77.71, got.BreakEvenDays)
	assert.Equal(t, 60.0, got.TurnoverDays)
	assert.Equal(t, 10, got.CashRunway)
	assert.Equal(t, 70, got.HealthScore)

	assert.Equal(t, domain.RiskGreen, got.ProfitabilityRisk)
	assert.Equal(t, domain.RiskRed, got.BreakEvenRisk)
	assert.Equal(t, domain.RiskGreen, got.CashFlowRisk)
	assert.Equal(t, domain.RiskGreen, got.CompetitionRisk)
	assert.Equal(t, domain.RiskRed, got.InventoryRisk)
}

func TestCalculateDegenerateInputs(t *testing.T) {
	calc := newCalculator()

	t.Run("all zero", func(t *testing.T) {
		got := calc.Calculate(&domain.UploadRow{ID: "Z"})

		assert.Equal(t, 0.0, got.ProfitMargin)
		assert.Equal(t, rates.SentinelDays, got.BreakEvenDays)
		assert.Equal(t, rates.SentinelDays, got.TurnoverDays)
		assert.Equal(t, 0, got.CashRunway)
		assert.Equal(t, 15, got.HealthScore)
		assert.Equal(t, domain.RiskRed, got.ProfitabilityRisk)
		assert.Equal(t, domain.RiskGreen, got.CompetitionRisk)
	})

	t.Run("non-finite inputs never leak", func(t *testing.T) {
		got := calc.Calculate(&domain.UploadRow{
			ID:       "N",
			Price:    math.NaN(),
			COGS:     math.Inf(1),
			Velocity: math.Inf(-1),
		})

		for _, v := range []float64{got.ProfitPerUnit, got.ProfitMargin, got.TotalMonthlyProfit, got.BreakEvenDays, got.TurnoverDays} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
		assert.Equal(t, rates.SentinelDays, got.BreakEvenDays)
	})

	t.Run("loss making row keeps the formula value", func(t *testing.T) {
		got := calc.Calculate(&domain.UploadRow{ID: "L", Price: 10, COGS: 20, Velocity: 10, InitialOrder: 5})

		assert.Equal(t, -100.0, got.TotalMonthlyProfit)
		// 20 x 5 x 1.02 / -100 x 30
		assert.Equal(t, -30.6, got.BreakEvenDays)
		assert.Equal(t, domain.RiskGreen, got.BreakEvenRisk)
		assert.Equal(t, 15.0, got.TurnoverDays)
	})

	t.Run("zero monthly profit gets the sentinel", func(t *testing.T) {
		got := calc.Calculate(&domain.UploadRow{ID: "Z", Price: 10, COGS: 10, Velocity: 10, InitialOrder: 5})

		assert.Equal(t, 0.0, got.TotalMonthlyProfit)
		assert.Equal(t, rates.SentinelDays, got.BreakEvenDays)
	})
}

func TestBreakEvenSentinelOnlyWithoutVelocity(t *testing.T) {
	calc := newCalculator()

	tests := []struct {
		name         string
		row          domain.UploadRow
		wantSentinel bool
	}{
		{name: "zero velocity", row: domain.UploadRow{ID: "A", Price: 30, COGS: 8, InitialOrder: 200}, wantSentinel: true},
		{name: "negative velocity", row: domain.UploadRow{ID: "B", Price: 30, COGS: 8, Velocity: -5, InitialOrder: 200}, wantSentinel: true},
		{name: "profitable", row: domain.UploadRow{ID: "C", Price: 30, COGS: 8, Velocity: 100, InitialOrder: 200}},
		{name: "loss making", row: domain.UploadRow{ID: "D", Price: 10, COGS: 20, Velocity: 10, InitialOrder: 5}},
		{name: "no initial order", row: domain.UploadRow{ID: "E", Price: 30, COGS: 8, Velocity: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Calculate(&tt.row)
			assert.Equal(t, tt.wantSentinel, got.BreakEvenDays == rates.SentinelDays, "breakEvenDays=%v", got.BreakEvenDays)
		})
	}
}

func TestCashRunway(t *testing.T) {
	calc := newCalculator()

	tests := []struct {
		name string
		row  domain.UploadRow
		want int
	}{
		{name: "no cash after the first order", row: domain.UploadRow{Price: 50, COGS: 10, Velocity: 50, InitialOrder: 100, InitialCash: 1020}, want: 0},
		{name: "survives the full horizon", row: domain.UploadRow{Price: 50, COGS: 10, Velocity: 50, InitialOrder: 10, InitialCash: 10000}, want: 12},
		{name: "runs dry in month three", row: domain.UploadRow{Price: 10, COGS: 9, Velocity: 100, InitialCash: 2500}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Calculate(&tt.row)
			assert.Equal(t, tt.want, got.CashRunway)
			assert.GreaterOrEqual(t, got.CashRunway, 0)
			assert.LessOrEqual(t, got.CashRunway, 12)
		})
	}
}

func TestHealthScoreBounds(t *testing.T) {
	assert.Equal(t, 100, healthScore(35, 10, 12, 2, 10))
	assert.Equal(t, 0, healthScore(-50, 999, 0, 100, 999))

	for _, margin := range []float64{-100, 0, 5, 10, 20, 30, 90} {
		for _, days := range []float64{0, 14, 30, 60, 90, 999} {
			score := healthScore(margin, days, 3, 12, days)
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		}
	}
}

func TestRiskThresholds(t *testing.T) {
	assert.Equal(t, domain.RiskYellow, profitabilityRisk(20))
	assert.Equal(t, domain.RiskRed, profitabilityRisk(10))
	assert.Equal(t, domain.RiskYellow, breakEvenRisk(14))
	assert.Equal(t, domain.RiskRed, breakEvenRisk(30))
	assert.Equal(t, domain.RiskGreen, cashFlowRisk(6))
	assert.Equal(t, domain.RiskYellow, cashFlowRisk(3))
	assert.Equal(t, domain.RiskRed, cashFlowRisk(2))
	assert.Equal(t, domain.RiskYellow, competitionRisk(15))
	assert.Equal(t, domain.RiskRed, competitionRisk(16))
	assert.Equal(t, domain.RiskYellow, inventoryRisk(21))
	assert.Equal(t, domain.RiskRed, inventoryRisk(45))
}

func TestCalculateBatchMatchesSequential(t *testing.T) {
	calc := newCalculator()

	rows := make([]domain.UploadRow, 50)
	for i := range rows {
		rows[i] = sampleRow()
		rows[i].ID = fmt.Sprintf("SKU-%02d", i)
		rows[i].Velocity = float64(i * 7)
		rows[i].Price = 10 + float64(i)
	}

	got, err := calc.CalculateBatch(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, calc.CalculateAll(rows), got)
}

func TestCalculateBatchHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newCalculator().CalculateBatch(ctx, []domain.UploadRow{sampleRow()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBatchEmpty(t *testing.T) {
	got, err := newCalculator().CalculateBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMetricsPipelineTransform(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upload.csv")
	content := "id,name,price,cogs,velocity,returnRate,referralFee,fbaFee,vat,shippingCost,initialOrder,initialCash,competitorCount\n" +
		"SKU-1,Bamboo Board,30,8,100,5,15,10,19,1,200,5000,4\n" +
		"SKU-2,Broken,oops,8,100,5,15,10,19,1,200,5000,4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := NewMetricsPipeline(rates.Default().Portfolio, Config{Workers: 2})
	require.NoError(t, p.Validate(path))
	assert.Error(t, p.Validate(dir))

	rows, err := p.Transform(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	data := rows[0].Data
	assert.Equal(t, "upload.csv", data["source_file"])
	assert.Equal(t, "SKU-1", data["id"])
	assert.Equal(t, 6.3, data["profit_per_unit"])
	assert.Equal(t, 70, data["health_score"])
	assert.Equal(t, "red", data["inventory_risk"])

	for _, col := range p.Columns() {
		assert.Contains(t, data, col)
	}
}
