package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alttrack/alttrack/internal/model"
)

var now = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func makeAsset(price int64, value int64, lastUpdatedDaysAgo int, baseRisk int) model.Asset {
	asset := model.Asset{
		Name:          "Test Asset",
		PurchasePrice: decimal.NewFromInt(price),
		CurrentValue:  decimal.NewFromInt(value),
		PurchaseDate:  now.AddDate(-1, 0, 0),
		LastUpdated:   now.AddDate(0, 0, -lastUpdatedDaysAgo),
		Active:        true,
	}

	if baseRisk > 0 {
		asset.Category = &model.Category{Name: "Test Class", BaseRiskScore: baseRisk}
	}

	return asset
}

func TestSummarizeEmptyPortfolio(t *testing.T) {
	summary := Summarize(nil)

	assert.True(t, summary.TotalCost.IsZero())
	assert.True(t, summary.TotalValue.IsZero())
	assert.True(t, summary.UnrealizedGain.IsZero())
}

func TestSummarizeGainIdentity(t *testing.T) {
	assetList := []model.Asset{
		makeAsset(8500, 14500, 0, 3),
		makeAsset(120000, 45000, 45, 9),
		makeAsset(50000, 50000, 200, 8),
	}

	summary := Summarize(assetList)

	assert.True(t, summary.TotalCost.Equal(decimal.NewFromInt(178500)))
	assert.True(t, summary.TotalValue.Equal(decimal.NewFromInt(109500)))
	assert.True(t, summary.UnrealizedGain.Equal(summary.TotalValue.Sub(summary.TotalCost)))
}

func TestSummarizeSkipsArchivedAssets(t *testing.T) {
	archived := makeAsset(2000, 9999, 0, 6)
	archived.Active = false

	summary := Summarize([]model.Asset{makeAsset(100, 150, 0, 2), archived})

	assert.True(t, summary.TotalCost.Equal(decimal.NewFromInt(100)))
	assert.True(t, summary.TotalValue.Equal(decimal.NewFromInt(150)))
	assert.True(t, summary.UnrealizedGain.Equal(decimal.NewFromInt(50)))
}

func TestScoreStaysInRange(t *testing.T) {
	scenarios := []struct {
		name  string
		asset model.Asset
		total int64
	}{
		{"best case", makeAsset(100, 100, 0, 1), 10000},
		{"worst case", makeAsset(1000, 100, 400, 10), 100},
		{"uncategorised", makeAsset(100, 100, 0, 0), 200},
		{"zero purchase price", makeAsset(0, 50, 10, 5), 50},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			assessment := Score(&scenario.asset, decimal.NewFromInt(scenario.total), now)

			assert.GreaterOrEqual(t, assessment.Score, 0.0)
			assert.LessOrEqual(t, assessment.Score, 10.0)
		})
	}
}

func TestStalenessBucketBoundaries(t *testing.T) {
	// Buckets are half-open: exactly 30 days old is already stale.
	scenarios := []struct {
		daysAgo  int
		expected int
	}{
		{0, 0},
		{29, 0},
		{30, 2},
		{89, 2},
		{90, 5},
		{179, 5},
		{180, 8},
		{400, 8},
	}

	for _, scenario := range scenarios {
		vsr := stalenessRisk(now.AddDate(0, 0, -scenario.daysAgo), now)
		assert.Equal(t, scenario.expected, vsr, "days ago: %d", scenario.daysAgo)
	}
}

func TestConcentrationOfWholePortfolio(t *testing.T) {
	// A fresh, uncategorised asset that is 100% of the portfolio:
	// raw = 0.40*5 + 0.20*10 = 4.0, with concentration contributing 2.0.
	asset := makeAsset(5000, 5000, 0, 0)

	assessment := Score(&asset, asset.CurrentValue, now)

	assert.Equal(t, 4.0, assessment.Score)
	assert.Equal(t, "Class:5 Stale:0 Conc:10.0", assessment.Factors)
}

func TestConcentrationOfEmptyPortfolio(t *testing.T) {
	asset := makeAsset(100, 0, 0, 0)

	// All-zero portfolios must not divide by zero.
	assessment := Score(&asset, decimal.Zero, now)

	assert.Equal(t, "Class:5 Stale:0 Conc:0.0", assessment.Factors)
}

func TestLossProxyBoundary(t *testing.T) {
	// 21% down trips the loss proxy, exactly 20% down does not.
	loser := makeAsset(100, 79, 0, 0)
	boundary := makeAsset(100, 80, 0, 0)

	assert.Equal(t, 5, lossProxy(&loser))
	assert.Equal(t, 0, lossProxy(&boundary))
}

func TestScoreSpeculativeHalfPortfolioLoss(t *testing.T) {
	// Base risk 9, fresh, 50% of the portfolio, 62.5% loss:
	// raw = 0.40*9 + 0.30*0 + 0.20*5 + 0.10*5 = 5.1, which still rates "Med".
	asset := makeAsset(120000, 45000, 0, 9)

	assessment := Score(&asset, decimal.NewFromInt(90000), now)

	require.InDelta(t, 5.1, assessment.Score, 0.0001)
	assert.Equal(t, "Med", assessment.Label)
	assert.Equal(t, "yellow", assessment.Color)
}

func TestScoreLabels(t *testing.T) {
	scenarios := []struct {
		name          string
		asset         model.Asset
		total         int64
		expectedLabel string
		expectedColor string
	}{
		// 0.40*1 = 0.4
		{"cash equivalents", makeAsset(100, 100, 0, 1), 100000, "Low", "green"},
		// 0.40*9 = 3.6, just over the Low cutoff
		{"fresh crypto", makeAsset(100, 100, 0, 9), 100000, "Med", "yellow"},
		// 0.40*10 + 0.30*8 + 0.20*10 + 0.10*5 = 8.9
		{"stale concentrated loser", makeAsset(1000, 500, 200, 10), 500, "High", "red"},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			assessment := Score(&scenario.asset, decimal.NewFromInt(scenario.total), now)

			assert.Equal(t, scenario.expectedLabel, assessment.Label)
			assert.Equal(t, scenario.expectedColor, assessment.Color)
		})
	}
}

func TestScoreUsesCategoryBaseRisk(t *testing.T) {
	watches := makeAsset(8500, 14500, 0, 3)
	uncategorised := makeAsset(8500, 14500, 0, 0)

	total := decimal.NewFromInt(1000000)

	withCategory := Score(&watches, total, now)
	withDefault := Score(&uncategorised, total, now)

	assert.Less(t, withCategory.Score, withDefault.Score)
	assert.Contains(t, withDefault.Factors, "Class:5")
}
