// Package risk computes portfolio totals and per-asset risk scores.
//
// Everything in this package is a pure function over data already loaded for
// the request, so it is safe to call from concurrent requests.
package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alttrack/alttrack/internal/model"
)

// Factor weights. Asset class risk is weighted heaviest so speculative
// categories can reach a "High" rating even when fresh and non-concentrated.
const (
	classWeight         = 0.40
	stalenessWeight     = 0.30
	concentrationWeight = 0.20
	lossWeight          = 0.10
)

// DefaultClassRisk is the asset class risk for uncategorised assets.
const DefaultClassRisk = 5

// lossThreshold is the return below which an asset counts as a heavy loser.
var lossThreshold = decimal.NewFromFloat(-0.20)

// Assessment is the read-only risk view for one asset. It is derived on every
// request and never stored.
type Assessment struct {
	Score   float64
	Label   string
	Color   string
	Factors string
}

// Summary holds portfolio totals over a user's active assets.
type Summary struct {
	TotalCost      decimal.Decimal
	TotalValue     decimal.Decimal
	UnrealizedGain decimal.Decimal
}

// Summarize computes exact portfolio totals. Archived assets are skipped, and
// an empty asset list yields all-zero totals.
func Summarize(assetList []model.Asset) Summary {
	totalCost := decimal.Zero
	totalValue := decimal.Zero

	for i := range assetList {
		asset := &assetList[i]

		if !asset.Active {
			continue
		}

		totalCost = totalCost.Add(asset.PurchasePrice)
		totalValue = totalValue.Add(asset.CurrentValue)
	}

	return Summary{
		TotalCost:      totalCost,
		TotalValue:     totalValue,
		UnrealizedGain: totalValue.Sub(totalCost),
	}
}

func classRisk(asset *model.Asset) int {
	if asset.Category != nil {
		return asset.Category.BaseRiskScore
	}

	return DefaultClassRisk
}

// stalenessRisk buckets whole days since the value was last confirmed.
// A valuation exactly 30 days old already counts as stale.
func stalenessRisk(lastUpdated time.Time, now time.Time) int {
	days := int(now.Sub(lastUpdated).Hours() / 24)

	switch {
	case days < 30:
		return 0
	case days < 90:
		return 2
	case days < 180:
		return 5
	default:
		return 8
	}
}

// concentrationRisk scales the asset's share of the portfolio to 0-10.
//
// The result is deliberately unclamped. A single asset holding the whole
// portfolio scores 10 here, and the 0.20 weight caps its contribution.
func concentrationRisk(value decimal.Decimal, totalValue decimal.Decimal) float64 {
	if !totalValue.IsPositive() {
		return 0
	}

	share, _ := value.Div(totalValue).Float64()

	return share * 10
}

// lossProxy flags assets that lost strictly more than 20% of their purchase
// value. Assets with a nonpositive purchase price are never flagged.
func lossProxy(asset *model.Asset) int {
	if !asset.PurchasePrice.IsPositive() {
		return 0
	}

	returnRate := asset.CurrentValue.Sub(asset.PurchasePrice).Div(asset.PurchasePrice)

	if returnRate.LessThan(lossThreshold) {
		return 5
	}

	return 0
}

func rateScore(raw float64) (string, string) {
	switch {
	case raw < 3.5:
		return "Low", "green"
	case raw < 6.0:
		return "Med", "yellow"
	default:
		return "High", "red"
	}
}

// Score assesses one asset against the total active portfolio value.
//
// The label is derived from the raw weighted sum; the displayed score is the
// same sum rounded to one decimal.
func Score(asset *model.Asset, totalValue decimal.Decimal, now time.Time) Assessment {
	acr := classRisk(asset)
	vsr := stalenessRisk(asset.LastUpdated, now)
	cr := concentrationRisk(asset.CurrentValue, totalValue)
	vp := lossProxy(asset)

	raw := classWeight*float64(acr) +
		stalenessWeight*float64(vsr) +
		concentrationWeight*cr +
		lossWeight*float64(vp)

	label, color := rateScore(raw)

	return Assessment{
		Score:   math.Round(raw*10) / 10,
		Label:   label,
		Color:   color,
		Factors: fmt.Sprintf("Class:%d Stale:%d Conc:%.1f", acr, vsr, cr),
	}
}
