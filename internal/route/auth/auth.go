// Package auth defines routes for registration, login and the demo account.
package auth

import (
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/alttrack/alttrack/internal/database"
	"github.com/alttrack/alttrack/internal/model"
	"github.com/alttrack/alttrack/internal/route/util"
	"github.com/alttrack/alttrack/internal/session"
	"github.com/alttrack/alttrack/internal/template"
)

// DefaultCategory is a category seeded for every new account.
type DefaultCategory struct {
	Name          string
	BaseRiskScore int
}

// DefaultCategories rates the common alternative asset classes from most to
// least risky. Every new account starts with these.
var DefaultCategories = []DefaultCategory{
	{"NFTs", 10},
	{"Crypto", 9},
	{"Startups", 8},
	{"Sneakers", 7},
	{"Trading Cards", 6},
	{"Art", 5},
	{"Wine", 4},
	{"Watches", 3},
	{"Real Estate", 2},
	{"Cash Equivalents", 1},
}

// SeedDefaultCategories inserts the default category set for a new user.
func SeedDefaultCategories(conn database.Queryable, userID int) error {
	for _, category := range DefaultCategories {
		err := conn.Exec(
			"insert into asset_category(user_id, name, base_risk_score) values ($1, $2, $3)",
			userID,
			category.Name,
			category.BaseRiskScore,
		)

		if err != nil {
			return err
		}
	}

	return nil
}

// HandleViewLoginForm renders the login page, or sends logged-in users on to
// their dashboard.
func HandleViewLoginForm(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	var user model.User

	found, err := session.LoadUserFromSession(conn, request, &user)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	if found {
		http.Redirect(writer, request, "/dashboard", http.StatusFound)

		return
	}

	template.Render(template.Login, writer, nil)
}

// HandleLogin checks credentials and responds with an HTML fragment the login
// form swaps in.
func HandleLogin(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	request.ParseForm()
	email := request.Form.Get("email")
	password := request.Form.Get("password")

	var user model.User
	loginValid := false

	if len(email) > 0 && len(password) > 0 {
		row := conn.QueryRow(
			"select id, password from tracker_user where email = $1",
			email,
		)

		var passwordHash string
		err := row.Scan(&user.ID, &passwordHash)

		// A missing row is a bad login; anything else is an outage and
		// must not masquerade as wrong credentials.
		if err != nil && err != database.ErrNoRows {
			util.RespondInternalServerError(writer, err)

			return
		}

		if err == nil && bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil {
			loginValid = true
		}
	}

	if !loginValid {
		fmt.Fprint(writer, `<div class="error-message">Invalid email or password</div>`)

		return
	}

	user.Email = email

	if err := session.SaveUserInSession(writer, request, &user); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	fmt.Fprint(writer, `<div class="success-message">Login successful! Redirecting...</div><script>window.location.href = '/dashboard';</script>`)
}

// HandleRegister creates an account with a hashed password and the default
// category set, responding with an HTML fragment.
func HandleRegister(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	request.ParseForm()
	email := request.Form.Get("email")
	password := request.Form.Get("password")

	if len(email) == 0 || len(password) == 0 {
		fmt.Fprint(writer, `<div class="error-message">Email and password are required</div>`)

		return
	}

	var existingID int
	err := conn.QueryRow("select id from tracker_user where email = $1", email).Scan(&existingID)

	if err == nil {
		fmt.Fprint(writer, `<div class="error-message">Email already registered</div>`)

		return
	}

	if err != database.ErrNoRows {
		util.RespondInternalServerError(writer, err)

		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), 14)

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	tx, err := conn.Begin()

	if err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	defer tx.Rollback()

	var userID int
	row := tx.QueryRow(
		"insert into tracker_user(email, password) values ($1, $2) returning id",
		email,
		string(passwordHash),
	)

	if err := row.Scan(&userID); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	if err := SeedDefaultCategories(tx, userID); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	if err := tx.Commit(); err != nil {
		util.RespondInternalServerError(writer, err)

		return
	}

	fmt.Fprint(writer, `<div class="success-message">Account created! <a href="/login">Log in here</a></div>`)
}

// HandleLogout clears the session.
func HandleLogout(conn *database.Conn, writer http.ResponseWriter, request *http.Request) {
	session.ClearSession(writer, request)
	http.Redirect(writer, request, "/login", http.StatusFound)
}
