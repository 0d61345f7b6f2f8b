package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/fbaprofit/internal/domain"
	"github.com/andresuchdata/fbaprofit/internal/ingest"
	"github.com/andresuchdata/fbaprofit/internal/rates"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, namespace string, input any, dest any) (bool, error) {
	args := m.Called(ctx, namespace, input, dest)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, namespace string, input any, value any) error {
	return m.Called(ctx, namespace, input, value).Error(0)
}

func (m *mockCache) InvalidateAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func sampleRows() []domain.UploadRow {
	return []domain.UploadRow{
		{ID: "A", Price: 30, COGS: 8, Velocity: 100, ReferralFee: 15, InitialOrder: 200, InitialCash: 5000},
		{ID: "B", Price: 12, COGS: 11, Velocity: 10, ReferralFee: 15},
	}
}

func TestMetricsCachesOnMiss(t *testing.T) {
	ctx := context.Background()
	c := new(mockCache)
	c.On("Get", ctx, "metrics", mock.Anything, mock.Anything).Return(false, nil).Once()
	c.On("Set", ctx, "metrics", mock.Anything, mock.AnythingOfType("[]domain.BulkProductResult")).Return(nil).Once()

	svc := NewAnalyticsService(rates.Default(), 2, c)
	results, err := svc.Metrics(ctx, sampleRows())
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].ID)
	assert.Equal(t, "B", results[1].ID)
	c.AssertExpectations(t)
}

func TestMetricsReturnsCachedResult(t *testing.T) {
	ctx := context.Background()
	c := new(mockCache)
	c.On("Get", ctx, "metrics", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(3).(*[]domain.BulkProductResult)
			*dest = []domain.BulkProductResult{{HealthScore: 99}}
		}).
		Return(true, nil).Once()

	svc := NewAnalyticsService(rates.Default(), 2, c)
	results, err := svc.Metrics(ctx, sampleRows())
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, 99, results[0].HealthScore)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFindingsIgnoresCacheFailures(t *testing.T) {
	ctx := context.Background()
	c := new(mockCache)
	c.On("Get", ctx, "findings", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	c.On("Set", ctx, "findings", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	products := []domain.Product{{
		ASIN:            "DEAD-1",
		Name:            "Garlic Press",
		CostPerUnit:     22,
		SellingPrice:    29.99,
		QuantityInStock: 150,
		DaysInStock:     domain.Float(426),
	}}

	report, err := NewAnalyticsService(rates.Default(), 1, c).Findings(ctx, products)
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, 2226.0, report.Summary.TotalAnnualOpportunityEUR)
}

func TestAnalyzeUpload(t *testing.T) {
	svc := NewAnalyticsService(rates.Default(), 2, nil)
	ctx := context.Background()

	t.Run("metrics", func(t *testing.T) {
		csv := "id,price,cogs,velocity\nA,30,8,100\nB,x,1,1\n"
		res, err := svc.AnalyzeUpload(ctx, KindMetrics, "rows.csv", strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, res.Records)
		require.Len(t, res.Metrics, 1)
		assert.Nil(t, res.Findings)
		require.Len(t, res.RowErrors, 1)
		assert.Equal(t, 3, res.RowErrors[0].Row)
	})

	t.Run("findings", func(t *testing.T) {
		csv := "asin,cost_per_unit,selling_price,quantity_in_stock\nA,10,40,5\n"
		res, err := svc.AnalyzeUpload(ctx, KindFindings, "products.csv", strings.NewReader(csv))
		require.NoError(t, err)

		require.NotNil(t, res.Findings)
		assert.Empty(t, res.Findings.Findings)
		assert.NotNil(t, res.RowErrors)
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := svc.AnalyzeUpload(ctx, KindMetrics, "rows.pdf", strings.NewReader(""))
		assert.ErrorIs(t, err, ingest.ErrUnsupportedFormat)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := svc.AnalyzeUpload(ctx, KindFindings, "p.csv", strings.NewReader("asin\nA\n"))
		assert.ErrorIs(t, err, ingest.ErrMissingColumn)
	})
}

func TestInvalidateCache(t *testing.T) {
	ctx := context.Background()
	c := new(mockCache)
	c.On("InvalidateAll", ctx).Return(errors.New("redis down")).Once()

	svc := NewAnalyticsService(rates.Default(), 1, c)
	assert.EqualError(t, svc.InvalidateCache(ctx), "redis down")
	c.AssertExpectations(t)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("findings")
	require.NoError(t, err)
	assert.Equal(t, KindFindings, k)

	_, err = ParseKind("forecast")
	assert.Error(t, err)
}
