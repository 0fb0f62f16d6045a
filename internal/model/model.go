package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a user in the database
type User struct {
	ID    int
	Email string
}

// Category represents an asset class owned by a user.
//
// BaseRiskScore rates the inherent risk of the asset class from 1 to 10.
// LiquidityDays is a hint for how long a sale takes and is not used by the
// risk scorer.
type Category struct {
	ID            int
	Name          string
	BaseRiskScore int
	LiquidityDays *int
}

// Asset represents a tracked asset owned by a user.
//
// Category is nil for uncategorised assets. Archived assets keep their rows
// and history and only flip Active to false.
type Asset struct {
	ID            int
	Name          string
	Category      *Category
	PurchasePrice decimal.Decimal
	PurchaseDate  time.Time
	CurrentValue  decimal.Decimal
	LastUpdated   time.Time
	Active        bool
}

// ValuationEntry represents one immutable row of an asset's audit trail.
type ValuationEntry struct {
	ID         int
	AssetID    int
	OldValue   decimal.Decimal
	NewValue   decimal.Decimal
	ChangeDate time.Time
	Note       string
}
