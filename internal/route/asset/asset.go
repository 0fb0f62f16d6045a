// Package asset defines the dashboard and asset fragment routes.
package asset

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/alttrack/alttrack/internal/database"
	"github.com/alttrack/alttrack/internal/model"
	"github.com/alttrack/alttrack/internal/route/query"
	"github.com/alttrack/alttrack/internal/route/util"
	"github.com/alttrack/alttrack/internal/session"
	"github.com/alttrack/alttrack/internal/template"
)

func loadUser(conn *database.Conn, writer http.ResponseWriter, request *http.Request, user *model.User) bool {
	found, err := session.LoadUserFromSession(conn, request, user)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return false
	}

	return found
}

// loadAssetForRequest authorizes and loads the asset named in the URL.
//
// The query is scoped to the requesting user, so assets belonging to someone
// else respond with 404 exactly like assets that do not exist.
func loadAssetForRequest(
	conn *database.Conn,
	writer http.ResponseWriter,
	request *http.Request,
	user *model.User,
	asset *model.Asset,
) bool {
	assetID, err := strconv.Atoi(mux.Vars(request)["id"])

	if err != nil {
		util.RespondNotFound(writer)

		return false
	}

	if err := query.LoadAssetByID(conn, asset, user.ID, assetID); err != nil {
		if err == database.ErrNoRows {
			util.RespondNotFound(writer)
		} else {
			util.RespondInternalServerError(writer, err)
		}

		return false
	}

	return true
}

// parseForm populates request.Form, including the body of DELETE requests.
// Go only reads the body for POST, PUT and PATCH, but htmx submits hx-delete
// form values form-encoded in the body.
func parseForm(request *http.Request) {
	request.ParseForm()

	if request.Method != http.MethodDelete || request.Body == nil {
		return
	}

	if !strings.HasPrefix(request.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		return
	}

	contents, err := io.ReadAll(request.Body)

	if err != nil {
		return
	}

	values, err := url.ParseQuery(string(contents))

	if err != nil {
		return
	}

	for key, valueList := range values {
		for _, value := range valueList {
			request.Form.Add(key, value)
		}
	}
}

// parsePurchaseDate falls back to the current day when the submitted date is
// missing or unparseable, rather than rejecting the asset.
func parsePurchaseDate(value string, now time.Time) time.Time {
	date, err := time.Parse("2006-01-02", value)

	if err != nil {
		return now
	}

	return date
}

// insertValuation appends one immutable row to an asset's audit trail.
func insertValuation(
	conn database.Queryable,
	assetID int,
	oldValue decimal.Decimal,
	newValue decimal.Decimal,
	note string,
) error {
	return conn.Exec(
		`insert into valuation_history(asset_id, old_value, new_value, change_date, note)
		values ($1, $2, $3, now(), $4)`,
		assetID,
		oldValue,
		newValue,
		note,
	)
}

func renderDashboardFragment(conn *database.Conn, writer http.ResponseWriter, user *model.User) {
	data := query.DashboardData{}

	if err := query.LoadDashboardData(conn, user, &data); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.RenderFragment(template.DashboardRefresh, writer, data)
}

// HandleDashboard shows portfolio totals and risk scores over active assets.
func HandleDashboard(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User

	if !loadUser(conn, writer, request, &user) {
		http.Redirect(writer, request, "/login", http.StatusFound)

		return
	}

	data := query.DashboardData{}

	if err := query.LoadDashboardData(conn, &user, &data); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.Render(template.Dashboard, writer, data)
}

type AssetFormData struct {
	Asset        model.Asset
	CategoryList []model.Category
}

// HandleNewAssetForm returns the add-asset modal fragment.
func HandleNewAssetForm(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	data := AssetFormData{}

	if err := query.LoadCategoryList(conn, user.ID, &data.CategoryList); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.RenderFragment(template.AddAssetModal, writer, data)
}

// loadCategoryChoice reads an optional category ID from the form, verifying
// that a chosen category belongs to the requesting user. Zero or an empty
// value means no category.
func loadCategoryChoice(
	conn *database.Conn,
	writer http.ResponseWriter,
	request *http.Request,
	user *model.User,
	categoryID **int,
) bool {
	rawID := request.Form.Get("category_id")
	*categoryID = nil

	if rawID == "" || rawID == "0" {
		return true
	}

	id, err := strconv.Atoi(rawID)

	if err != nil {
		util.RespondValidationError(writer, "Invalid category ID")

		return false
	}

	var category model.Category

	if err := query.LoadCategoryByID(conn, &category, user.ID, id); err != nil {
		if err == database.ErrNoRows {
			util.RespondForbidden(writer)
		} else {
			util.RespondInternalServerError(writer, err)
		}

		return false
	}

	*categoryID = &id

	return true
}

// createAsset inserts an asset with its genesis audit entry. The market value
// starts at the purchase price.
func createAsset(
	conn *database.Conn,
	userID int,
	name string,
	purchasePrice decimal.Decimal,
	purchaseDate time.Time,
	categoryID *int,
) (int, error) {
	tx, err := conn.Begin()

	if err != nil {
		return 0, err
	}

	defer tx.Rollback()

	row := tx.QueryRow(
		`insert into asset
			(user_id, category_id, name, purchase_price, purchase_date, current_value, last_updated, is_active)
		values ($1, $2, $3, $4, $5, $4, now(), true)
		returning id`,
		userID,
		categoryID,
		name,
		purchasePrice,
		purchaseDate,
	)

	var assetID int

	if err := row.Scan(&assetID); err != nil {
		return 0, err
	}

	err = insertValuation(tx, assetID, decimal.Zero, purchasePrice, "Initial Asset Creation / Purchase")

	if err != nil {
		return 0, err
	}

	return assetID, tx.Commit()
}

// HandleCreateAsset creates an asset and re-renders the dashboard fragment.
func HandleCreateAsset(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	request.ParseForm()

	name := request.Form.Get("name")

	if name == "" {
		util.RespondValidationError(writer, "Invalid asset name")

		return
	}

	purchasePrice, err := decimal.NewFromString(request.Form.Get("purchase_price"))

	if err != nil || !purchasePrice.IsPositive() {
		util.RespondValidationError(writer, "Invalid purchase price")

		return
	}

	purchaseDate := parsePurchaseDate(request.Form.Get("purchase_date"), time.Now().UTC())

	var categoryID *int

	if !loadCategoryChoice(conn, writer, request, &user, &categoryID) {
		return
	}

	if _, err := createAsset(conn, user.ID, name, purchasePrice, purchaseDate, categoryID); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	renderDashboardFragment(conn, writer, &user)
}

// HandleEditAssetRow returns the inline edit form fragment for one asset.
func HandleEditAssetRow(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User
	data := AssetFormData{}

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	if !loadAssetForRequest(conn, writer, request, &user, &data.Asset) {
		return
	}

	if err := query.LoadCategoryList(conn, user.ID, &data.CategoryList); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.RenderFragment(template.EditAssetRow, writer, data)
}

// updateAsset applies an edit, appending an audit row only when the market
// value actually changed.
func updateAsset(
	conn *database.Conn,
	asset *model.Asset,
	name string,
	currentValue decimal.Decimal,
	categoryID *int,
	auditNote string,
) error {
	tx, err := conn.Begin()

	if err != nil {
		return err
	}

	defer tx.Rollback()

	if !asset.CurrentValue.Equal(currentValue) {
		if auditNote == "" {
			auditNote = "Manual Update"
		}

		if err := insertValuation(tx, asset.ID, asset.CurrentValue, currentValue, auditNote); err != nil {
			return err
		}
	}

	err = tx.Exec(
		`update asset
		set name = $2,
			current_value = $3,
			category_id = $4,
			last_updated = now()
		where id = $1`,
		asset.ID,
		name,
		currentValue,
		categoryID,
	)

	if err != nil {
		return err
	}

	return tx.Commit()
}

// HandleUpdateAsset updates an asset and re-renders the dashboard fragment.
func HandleUpdateAsset(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User
	var asset model.Asset

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	if !loadAssetForRequest(conn, writer, request, &user, &asset) {
		return
	}

	request.ParseForm()

	name := request.Form.Get("name")

	if name == "" {
		util.RespondValidationError(writer, "Invalid asset name")

		return
	}

	currentValue, err := decimal.NewFromString(request.Form.Get("current_market_value"))

	if err != nil {
		util.RespondValidationError(writer, "Invalid market value")

		return
	}

	var categoryID *int

	if !loadCategoryChoice(conn, writer, request, &user, &categoryID) {
		return
	}

	auditNote := request.Form.Get("audit_note")

	if err := updateAsset(conn, &asset, name, currentValue, categoryID, auditNote); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	renderDashboardFragment(conn, writer, &user)
}

type DeleteAssetData struct {
	Asset model.Asset
}

// HandleDeleteAssetRow returns the archive confirmation fragment.
func HandleDeleteAssetRow(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User
	data := DeleteAssetData{}

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	if loadAssetForRequest(conn, writer, request, &user, &data.Asset) {
		template.RenderFragment(template.DeleteAssetRow, writer, data)
	}
}

// archiveAsset soft-deletes an asset, recording the transition in its audit
// trail with old and new value both equal to the current value.
func archiveAsset(conn *database.Conn, asset *model.Asset, note string) error {
	tx, err := conn.Begin()

	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := tx.Exec("update asset set is_active = false where id = $1", asset.ID); err != nil {
		return err
	}

	if note == "" {
		note = "No reason provided"
	}

	err = insertValuation(
		tx,
		asset.ID,
		asset.CurrentValue,
		asset.CurrentValue,
		"Asset Archived: "+note,
	)

	if err != nil {
		return err
	}

	return tx.Commit()
}

// HandleArchiveAsset archives an asset. The row stays recoverable; there is
// no way to purge an asset through the web interface.
func HandleArchiveAsset(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User
	var asset model.Asset

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	if !loadAssetForRequest(conn, writer, request, &user, &asset) {
		return
	}

	if !asset.Active {
		util.RespondValidationError(writer, "Asset is already archived")

		return
	}

	parseForm(request)

	if err := archiveAsset(conn, &asset, request.Form.Get("deletion_note")); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	renderDashboardFragment(conn, writer, &user)
}

// restoreAsset brings an archived asset back into the portfolio.
func restoreAsset(conn *database.Conn, asset *model.Asset) error {
	tx, err := conn.Begin()

	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := tx.Exec("update asset set is_active = true where id = $1", asset.ID); err != nil {
		return err
	}

	err = insertValuation(
		tx,
		asset.ID,
		asset.CurrentValue,
		asset.CurrentValue,
		"Asset Restored from Archive",
	)

	if err != nil {
		return err
	}

	return tx.Commit()
}

type DeletedAssetsData struct {
	DeletedAssets []model.Asset
}

func renderDeletedAssets(conn *database.Conn, writer http.ResponseWriter, user *model.User) {
	data := DeletedAssetsData{}

	if err := query.LoadArchivedAssetList(conn, user.ID, &data.DeletedAssets); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.RenderFragment(template.DeletedAssetsModal, writer, data)
}

// HandleRestoreAsset restores an archived asset and re-renders the archive
// modal fragment.
func HandleRestoreAsset(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User
	var asset model.Asset

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	if !loadAssetForRequest(conn, writer, request, &user, &asset) {
		return
	}

	if asset.Active {
		util.RespondValidationError(writer, "Asset is not archived")

		return
	}

	if err := restoreAsset(conn, &asset); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	renderDeletedAssets(conn, writer, &user)
}

// HandleDeletedAssets returns the archived assets modal fragment.
func HandleDeletedAssets(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	renderDeletedAssets(conn, writer, &user)
}

func scanValuation(row database.Row, entry *model.ValuationEntry) error {
	return row.Scan(
		&entry.ID,
		&entry.AssetID,
		&entry.OldValue,
		&entry.NewValue,
		&entry.ChangeDate,
		&entry.Note,
	)
}

func loadValuationHistory(conn *database.Conn, assetID int, historyList *[]model.ValuationEntry) error {
	return model.LoadList(
		conn,
		historyList,
		10,
		scanValuation,
		`select id, asset_id, old_value, new_value, change_date, note
		from valuation_history
		where asset_id = $1
		order by change_date desc`,
		assetID,
	)
}

type AssetHistoryData struct {
	Asset   model.Asset
	History []model.ValuationEntry
}

// HandleAssetHistory returns the audit trail modal fragment, newest first.
func HandleAssetHistory(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User
	data := AssetHistoryData{}

	if !loadUser(conn, writer, request, &user) {
		util.RespondUnauthorized(writer)

		return
	}

	if !loadAssetForRequest(conn, writer, request, &user, &data.Asset) {
		return
	}

	if err := loadValuationHistory(conn, data.Asset.ID, &data.History); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	template.RenderFragment(template.AssetHistoryModal, writer, data)
}
