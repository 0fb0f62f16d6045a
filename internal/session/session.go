// Package session handles saving/loading users to/from sessions
package session

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/sessions"

	"github.com/alttrack/alttrack/internal/database"
	"github.com/alttrack/alttrack/internal/model"
)

var sessionStore *sessions.CookieStore

// InitSessionStorage starts up session storage or crashes the program with an error
func InitSessionStorage() {
	secretKey := os.Getenv("SECRET_KEY")

	if len(secretKey) == 0 {
		fmt.Fprintf(os.Stderr, "No SECRET_KEY variable set!\n")
		os.Exit(1)
	}

	sessionStore = sessions.NewCookieStore([]byte(secretKey))
}

// LoadUserFromSession resolves the logged-in user for a request.
//
// The boolean result reports whether a user is logged in. Stale sessions
// pointing at deleted users count as logged out, not as errors.
func LoadUserFromSession(conn *database.Conn, request *http.Request, user *model.User) (bool, error) {
	httpSession, sessionError := sessionStore.Get(request, "sessionid")

	if sessionError != nil {
		return false, nil
	}

	userID, ok := httpSession.Values["userID"].(int)

	if !ok {
		return false, nil
	}

	row := conn.QueryRow("select email from tracker_user where id = $1", userID)

	var email string

	if err := row.Scan(&email); err != nil {
		if err == database.ErrNoRows {
			return false, nil
		}

		return false, err
	}

	user.ID = userID
	user.Email = email

	return true, nil
}

// SaveUserInSession stores the user's ID in the session cookie.
func SaveUserInSession(writer http.ResponseWriter, request *http.Request, user *model.User) error {
	httpSession, _ := sessionStore.Get(request, "sessionid")
	httpSession.Values["userID"] = user.ID

	return httpSession.Save(request, writer)
}

// ClearSession logs the user out by emptying the session values.
func ClearSession(writer http.ResponseWriter, request *http.Request) error {
	httpSession, _ := sessionStore.Get(request, "sessionid")

	for key := range httpSession.Values {
		delete(httpSession.Values, key)
	}

	return httpSession.Save(request, writer)
}
