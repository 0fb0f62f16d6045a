package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/alttrack/alttrack/internal/database"
)

func setupConn(t *testing.T) *database.Conn {
	t.Helper()

	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST is not set; skipping integration tests")
	}

	conn, err := database.Connect()
	require.NoError(t, err)

	t.Cleanup(conn.Close)

	return conn
}

func loginRequest(email string, password string) *http.Request {
	form := url.Values{
		"email":    {email},
		"password": {password},
	}

	request := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return request
}

func createLoginUser(t *testing.T, conn *database.Conn, password string) string {
	t.Helper()

	email := fmt.Sprintf("auth-test-%d@example.com", time.Now().UnixNano())

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	err = conn.Exec(
		"insert into tracker_user(email, password) values ($1, $2)",
		email,
		string(passwordHash),
	)
	require.NoError(t, err)

	return email
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	conn := setupConn(t)

	email := fmt.Sprintf("nobody-%d@example.com", time.Now().UnixNano())
	recorder := httptest.NewRecorder()

	HandleLogin(conn, recorder, loginRequest(email, "hunter2"))

	// An unknown account is a bad login, not a server error.
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Invalid email or password")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	conn := setupConn(t)
	email := createLoginUser(t, conn, "correct horse")

	recorder := httptest.NewRecorder()

	HandleLogin(conn, recorder, loginRequest(email, "battery staple"))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Invalid email or password")
}
