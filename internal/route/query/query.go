// Package query holds loaders shared between route packages.
package query

import (
	"database/sql"
	"time"

	"github.com/alttrack/alttrack/internal/database"
	"github.com/alttrack/alttrack/internal/model"
	"github.com/alttrack/alttrack/internal/risk"
)

var categoryQuery = `select id, name, base_risk_score, liquidity_days from asset_category `

func scanCategory(row database.Row, category *model.Category) error {
	var liquidityDays sql.NullInt64

	if err := row.Scan(
		&category.ID,
		&category.Name,
		&category.BaseRiskScore,
		&liquidityDays,
	); err != nil {
		return err
	}

	category.LiquidityDays = nil

	if liquidityDays.Valid {
		days := int(liquidityDays.Int64)
		category.LiquidityDays = &days
	}

	return nil
}

// LoadCategoryList loads all of a user's categories into a list.
func LoadCategoryList(conn *database.Conn, userID int, categoryList *[]model.Category) error {
	return model.LoadList(
		conn,
		categoryList,
		10,
		scanCategory,
		categoryQuery+"where user_id = $1 order by base_risk_score desc, name",
		userID,
	)
}

// LoadCategoryByID loads a single category scoped to its owner.
//
// Categories belonging to other users come back as ErrNoRows, so callers
// cannot tell foreign rows apart from missing ones.
func LoadCategoryByID(conn database.Queryable, category *model.Category, userID int, categoryID int) error {
	row := conn.QueryRow(categoryQuery+"where user_id = $1 and id = $2", userID, categoryID)

	return scanCategory(row, category)
}

var assetQuery = `
select
	asset.id,
	asset.name,
	asset.purchase_price,
	asset.purchase_date,
	asset.current_value,
	asset.last_updated,
	asset.is_active,
	asset_category.id,
	asset_category.name,
	asset_category.base_risk_score,
	asset_category.liquidity_days
from asset
left join asset_category
on asset_category.id = asset.category_id
`

// ScanAsset scans an asset row with its optional category joined in.
func ScanAsset(row database.Row, asset *model.Asset) error {
	var categoryID sql.NullInt64
	var categoryName sql.NullString
	var baseRiskScore sql.NullInt64
	var liquidityDays sql.NullInt64

	if err := row.Scan(
		&asset.ID,
		&asset.Name,
		&asset.PurchasePrice,
		&asset.PurchaseDate,
		&asset.CurrentValue,
		&asset.LastUpdated,
		&asset.Active,
		&categoryID,
		&categoryName,
		&baseRiskScore,
		&liquidityDays,
	); err != nil {
		return err
	}

	asset.Category = nil

	if categoryID.Valid {
		category := model.Category{
			ID:            int(categoryID.Int64),
			Name:          categoryName.String,
			BaseRiskScore: int(baseRiskScore.Int64),
		}

		if liquidityDays.Valid {
			days := int(liquidityDays.Int64)
			category.LiquidityDays = &days
		}

		asset.Category = &category
	}

	return nil
}

// LoadActiveAssetList loads the user's active assets, the set every total and
// risk view is computed over.
func LoadActiveAssetList(conn *database.Conn, userID int, assetList *[]model.Asset) error {
	return model.LoadList(
		conn,
		assetList,
		20,
		ScanAsset,
		assetQuery+"where asset.user_id = $1 and asset.is_active order by asset.id",
		userID,
	)
}

// LoadArchivedAssetList loads the user's archived assets for the audit view.
func LoadArchivedAssetList(conn *database.Conn, userID int, assetList *[]model.Asset) error {
	return model.LoadList(
		conn,
		assetList,
		20,
		ScanAsset,
		assetQuery+"where asset.user_id = $1 and not asset.is_active order by asset.last_updated desc",
		userID,
	)
}

// LoadAssetByID loads a single asset scoped to its owner.
func LoadAssetByID(conn database.Queryable, asset *model.Asset, userID int, assetID int) error {
	row := conn.QueryRow(assetQuery+"where asset.user_id = $1 and asset.id = $2", userID, assetID)

	return ScanAsset(row, asset)
}

// AnnotatedAsset is an Asset with its transient risk view attached for display.
type AnnotatedAsset struct {
	model.Asset
	Risk risk.Assessment
}

// DashboardData is the data for the dashboard page and its refresh fragment.
type DashboardData struct {
	User      model.User
	AssetList []AnnotatedAsset
	Summary   risk.Summary
	Now       time.Time
}

// LoadDashboardData loads active assets and recomputes totals and risk scores.
//
// Totals are never cached, so the dashboard always reflects the current
// active-asset set.
func LoadDashboardData(conn *database.Conn, user *model.User, data *DashboardData) error {
	var assetList []model.Asset

	if err := LoadActiveAssetList(conn, user.ID, &assetList); err != nil {
		return err
	}

	now := time.Now().UTC()
	summary := risk.Summarize(assetList)
	annotatedList := make([]AnnotatedAsset, 0, len(assetList))

	for i := range assetList {
		asset := &assetList[i]

		annotatedList = append(annotatedList, AnnotatedAsset{
			Asset: *asset,
			Risk:  risk.Score(asset, summary.TotalValue, now),
		})
	}

	data.User = *user
	data.AssetList = annotatedList
	data.Summary = summary
	data.Now = now

	return nil
}
