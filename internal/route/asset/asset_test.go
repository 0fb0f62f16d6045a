package asset

import (
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alttrack/alttrack/internal/database"
	"github.com/alttrack/alttrack/internal/model"
	"github.com/alttrack/alttrack/internal/route/query"
)

func TestParseFormReadsDeleteBody(t *testing.T) {
	request := httptest.NewRequest(
		"DELETE",
		"/fragments/assets/1",
		strings.NewReader("deletion_note=Sold+at+Auction"),
	)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parseForm(request)

	assert.Equal(t, "Sold at Auction", request.Form.Get("deletion_note"))
}

func TestParseFormKeepsQueryAndPostBehaviour(t *testing.T) {
	deleteRequest := httptest.NewRequest(
		"DELETE",
		"/fragments/assets/1?deletion_note=From+Query",
		nil,
	)
	parseForm(deleteRequest)
	assert.Equal(t, "From Query", deleteRequest.Form.Get("deletion_note"))

	postRequest := httptest.NewRequest(
		"POST",
		"/fragments/assets",
		strings.NewReader("name=Test+Asset"),
	)
	postRequest.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	parseForm(postRequest)
	assert.Equal(t, "Test Asset", postRequest.Form.Get("name"))
}

func TestParsePurchaseDateFallsBackToToday(t *testing.T) {
	today := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	parsed := parsePurchaseDate("2019-05-10", today)
	assert.Equal(t, time.Date(2019, time.May, 10, 0, 0, 0, 0, time.UTC), parsed)

	assert.Equal(t, today, parsePurchaseDate("", today))
	assert.Equal(t, today, parsePurchaseDate("10/05/2019", today))
	assert.Equal(t, today, parsePurchaseDate("2019-13-40", today))
}

func setupConn(t *testing.T) *database.Conn {
	t.Helper()

	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST is not set; skipping integration tests")
	}

	conn, err := database.Connect()
	require.NoError(t, err)

	t.Cleanup(conn.Close)

	// The schema usually exists already; log and carry on if it does.
	if contents, err := os.ReadFile("../../../migrations/0001_init.up.sql"); err == nil {
		if err := conn.Exec(string(contents)); err != nil {
			t.Logf("exec migration: %v", err)
		}
	}

	return conn
}

func createTestUser(t *testing.T, conn *database.Conn) int {
	t.Helper()

	email := fmt.Sprintf("asset-test-%d@example.com", time.Now().UnixNano())

	var userID int
	row := conn.QueryRow(
		"insert into tracker_user(email, password) values ($1, 'x') returning id",
		email,
	)
	require.NoError(t, row.Scan(&userID))

	return userID
}

func countHistory(t *testing.T, conn *database.Conn, assetID int) int {
	t.Helper()

	var count int
	row := conn.QueryRow("select count(*) from valuation_history where asset_id = $1", assetID)
	require.NoError(t, row.Scan(&count))

	return count
}

func loadAsset(t *testing.T, conn *database.Conn, userID int, assetID int) model.Asset {
	t.Helper()

	var asset model.Asset
	require.NoError(t, query.LoadAssetByID(conn, &asset, userID, assetID))

	return asset
}

func TestCreateAssetWritesGenesisEntry(t *testing.T) {
	conn := setupConn(t)
	userID := createTestUser(t, conn)

	assetID, err := createAsset(
		conn, userID, "Test Rolex",
		decimal.NewFromInt(8500),
		time.Date(2019, time.May, 10, 0, 0, 0, 0, time.UTC),
		nil,
	)
	require.NoError(t, err)

	asset := loadAsset(t, conn, userID, assetID)

	assert.True(t, asset.Active)
	assert.True(t, asset.CurrentValue.Equal(asset.PurchasePrice),
		"market value must start at the purchase price")
	assert.Equal(t, 1, countHistory(t, conn, assetID))

	var entry model.ValuationEntry
	var historyList []model.ValuationEntry
	require.NoError(t, loadValuationHistory(conn, assetID, &historyList))
	require.Len(t, historyList, 1)
	entry = historyList[0]

	assert.True(t, entry.OldValue.IsZero(), "genesis entry must record old=0")
	assert.True(t, entry.NewValue.Equal(asset.PurchasePrice))
	assert.Equal(t, "Initial Asset Creation / Purchase", entry.Note)
}

func TestArchiveAndRestoreAppendExactlyOneEntryEach(t *testing.T) {
	conn := setupConn(t)
	userID := createTestUser(t, conn)

	assetID, err := createAsset(
		conn, userID, "Test Wine",
		decimal.NewFromInt(500), time.Now().UTC(), nil,
	)
	require.NoError(t, err)

	asset := loadAsset(t, conn, userID, assetID)
	require.NoError(t, archiveAsset(conn, &asset, "Sold at Auction"))

	archived := loadAsset(t, conn, userID, assetID)
	assert.False(t, archived.Active)
	assert.Equal(t, 2, countHistory(t, conn, assetID))

	var historyList []model.ValuationEntry
	require.NoError(t, loadValuationHistory(conn, assetID, &historyList))
	latest := historyList[0]

	assert.True(t, latest.OldValue.Equal(latest.NewValue),
		"archive entry must keep old and new value equal")
	assert.True(t, latest.OldValue.Equal(asset.CurrentValue))
	assert.Equal(t, "Asset Archived: Sold at Auction", latest.Note)

	// Archived assets are excluded from the active set and its totals.
	var activeList []model.Asset
	require.NoError(t, query.LoadActiveAssetList(conn, userID, &activeList))
	assert.Empty(t, activeList)

	require.NoError(t, restoreAsset(conn, &archived))

	restored := loadAsset(t, conn, userID, assetID)
	assert.True(t, restored.Active)
	assert.Equal(t, 3, countHistory(t, conn, assetID))

	require.NoError(t, loadValuationHistory(conn, assetID, &historyList))
	assert.Equal(t, "Asset Restored from Archive", historyList[0].Note)
}

func TestUpdateAssetOnlyLogsRealValueChanges(t *testing.T) {
	conn := setupConn(t)
	userID := createTestUser(t, conn)

	assetID, err := createAsset(
		conn, userID, "Test Card",
		decimal.NewFromInt(2000), time.Now().UTC(), nil,
	)
	require.NoError(t, err)

	asset := loadAsset(t, conn, userID, assetID)

	// Renaming without touching the value must not grow the audit trail.
	require.NoError(t, updateAsset(conn, &asset, "Renamed Card", asset.CurrentValue, nil, ""))
	assert.Equal(t, 1, countHistory(t, conn, assetID))

	asset = loadAsset(t, conn, userID, assetID)
	require.NoError(t, updateAsset(conn, &asset, asset.Name, decimal.NewFromInt(1500), nil, ""))
	assert.Equal(t, 2, countHistory(t, conn, assetID))

	var historyList []model.ValuationEntry
	require.NoError(t, loadValuationHistory(conn, assetID, &historyList))
	latest := historyList[0]

	assert.True(t, latest.OldValue.Equal(decimal.NewFromInt(2000)))
	assert.True(t, latest.NewValue.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, "Manual Update", latest.Note)
}

func TestLoadAssetByIDScopedToOwner(t *testing.T) {
	conn := setupConn(t)
	ownerID := createTestUser(t, conn)
	otherID := createTestUser(t, conn)

	assetID, err := createAsset(
		conn, ownerID, "Private Asset",
		decimal.NewFromInt(100), time.Now().UTC(), nil,
	)
	require.NoError(t, err)

	var asset model.Asset
	err = query.LoadAssetByID(conn, &asset, otherID, assetID)

	assert.Equal(t, database.ErrNoRows, err,
		"another user's asset must look like a missing row")
}
