package auth

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/alttrack/alttrack/internal/database"
	"github.com/alttrack/alttrack/internal/model"
	"github.com/alttrack/alttrack/internal/route/util"
	"github.com/alttrack/alttrack/internal/session"
)

const demoEmail = "demo@alt-track.com"
const demoPassword = "demo_password_123"

func loadOrCreateDemoUser(conn *database.Conn, user *model.User) error {
	user.Email = demoEmail

	err := conn.QueryRow("select id from tracker_user where email = $1", demoEmail).Scan(&user.ID)

	if err == nil {
		return nil
	}

	if err != database.ErrNoRows {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), 14)

	if err != nil {
		return err
	}

	row := conn.QueryRow(
		"insert into tracker_user(email, password) values ($1, $2) returning id",
		demoEmail,
		string(passwordHash),
	)

	return row.Scan(&user.ID)
}

// wipeDemoData removes the demo user's assets, history and categories so the
// account can be reseeded from scratch. Only the demo account is ever wiped;
// regular accounts have no purge path.
func wipeDemoData(tx *database.Tx, userID int) error {
	err := tx.Exec(
		"delete from valuation_history where asset_id in (select id from asset where user_id = $1)",
		userID,
	)

	if err != nil {
		return err
	}

	if err := tx.Exec("delete from asset where user_id = $1", userID); err != nil {
		return err
	}

	return tx.Exec("delete from asset_category where user_id = $1", userID)
}

func insertDemoAsset(
	tx *database.Tx,
	userID int,
	categoryID int,
	name string,
	purchasePrice int64,
	currentValue int64,
	purchaseDate time.Time,
	lastUpdated time.Time,
	active bool,
) (int, error) {
	row := tx.QueryRow(
		`insert into asset
			(user_id, category_id, name, purchase_price, purchase_date, current_value, last_updated, is_active)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning id`,
		userID,
		categoryID,
		name,
		decimal.NewFromInt(purchasePrice),
		purchaseDate,
		decimal.NewFromInt(currentValue),
		lastUpdated,
		active,
	)

	var assetID int
	err := row.Scan(&assetID)

	return assetID, err
}

func insertDemoHistory(
	tx *database.Tx,
	assetID int,
	oldValue int64,
	newValue int64,
	changeDate time.Time,
	note string,
) error {
	return tx.Exec(
		`insert into valuation_history(asset_id, old_value, new_value, change_date, note)
		values ($1, $2, $3, $4, $5)`,
		assetID,
		decimal.NewFromInt(oldValue),
		decimal.NewFromInt(newValue),
		changeDate,
		note,
	)
}

func seedDemoData(tx *database.Tx, userID int) error {
	categoryIDs := map[string]int{}

	for _, category := range DefaultCategories {
		row := tx.QueryRow(
			"insert into asset_category(user_id, name, base_risk_score) values ($1, $2, $3) returning id",
			userID,
			category.Name,
			category.BaseRiskScore,
		)

		var categoryID int

		if err := row.Scan(&categoryID); err != nil {
			return err
		}

		categoryIDs[category.Name] = categoryID
	}

	now := time.Now().UTC()
	date := func(year int, month time.Month, day int) time.Time {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}

	// The winner: fresh, low class risk.
	_, err := insertDemoAsset(
		tx, userID, categoryIDs["Watches"],
		"Rolex Submariner", 8500, 14500, date(2019, time.May, 10), now, true,
	)

	if err != nil {
		return err
	}

	// The loser: risky class, heavy loss, slightly stale valuation.
	apeID, err := insertDemoAsset(
		tx, userID, categoryIDs["Crypto"],
		"Bored Ape NFT #8817", 120000, 45000, date(2021, time.November, 1), now.AddDate(0, 0, -45), true,
	)

	if err != nil {
		return err
	}

	err = insertDemoHistory(tx, apeID, 120000, 45000, now.AddDate(0, 0, -45), "Market Correction")

	if err != nil {
		return err
	}

	// The risk flag: valuation not confirmed for over 180 days.
	_, err = insertDemoAsset(
		tx, userID, categoryIDs["Startups"],
		"Series B Startup Shares", 50000, 50000, date(2022, time.January, 15), now.AddDate(0, 0, -200), true,
	)

	if err != nil {
		return err
	}

	// The audit star: a full valuation trail.
	fundID, err := insertDemoAsset(
		tx, userID, categoryIDs["Real Estate"],
		"Rental Property Fund", 10000, 13500, date(2023, time.June, 1), now, true,
	)

	if err != nil {
		return err
	}

	fundHistory := []struct {
		oldValue int64
		newValue int64
		daysAgo  int
		note     string
	}{
		{10000, 11000, 180, "Q2 Valuation Update"},
		{11000, 12500, 90, "Q3 Market Adjustment"},
		{12500, 13500, 0, "Year-End Audit"},
	}

	for _, entry := range fundHistory {
		err = insertDemoHistory(
			tx, fundID, entry.oldValue, entry.newValue,
			now.AddDate(0, 0, -entry.daysAgo), entry.note,
		)

		if err != nil {
			return err
		}
	}

	// Archived: sold at auction, with its full trail preserved.
	wineID, err := insertDemoAsset(
		tx, userID, categoryIDs["Wine"],
		"Chateau Margaux 2015", 500, 800, date(2018, time.February, 1), now.AddDate(0, 0, -300), false,
	)

	if err != nil {
		return err
	}

	wineHistory := []struct {
		oldValue int64
		newValue int64
		daysAgo  int
		note     string
	}{
		{0, 500, 800, "Initial Creation"},
		{500, 800, 100, "Appraisal Update"},
		{800, 800, 10, "Asset Archived: Sold at Auction"},
	}

	for _, entry := range wineHistory {
		err = insertDemoHistory(
			tx, wineID, entry.oldValue, entry.newValue,
			now.AddDate(0, 0, -entry.daysAgo), entry.note,
		)

		if err != nil {
			return err
		}
	}

	// Archived: written off as counterfeit.
	cardID, err := insertDemoAsset(
		tx, userID, categoryIDs["Trading Cards"],
		"Charizard 1st Edition (Raw)", 2000, 0, date(2023, time.January, 1), now, false,
	)

	if err != nil {
		return err
	}

	err = insertDemoHistory(tx, cardID, 0, 2000, now.AddDate(0, 0, -200), "Initial Creation")

	if err != nil {
		return err
	}

	return insertDemoHistory(
		tx, cardID, 2000, 0, now,
		"Asset Archived: Determined to be Counterfeit",
	)
}

// HandleDemo wipes and reseeds the shared demo account, logs the visitor into
// it, and sends them to the dashboard.
func HandleDemo(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User

	if err := loadOrCreateDemoUser(conn, &user); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	tx, err := conn.Begin()

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	defer tx.Rollback()

	if err := wipeDemoData(tx, user.ID); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	if err := seedDemoData(tx, user.ID); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	if err := tx.Commit(); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	if err := session.SaveUserInSession(writer, request, &user); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	http.Redirect(writer, request, "/dashboard", http.StatusFound)
}
