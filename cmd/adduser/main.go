// Create a user for logging in to the portfolio tracker
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/alttrack/alttrack/internal/database"
	"github.com/alttrack/alttrack/internal/env"
	"github.com/alttrack/alttrack/internal/route/auth"
)

func main() {
	env.LoadEnvironmentVariables()

	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: adduser <email> <password>\n")
		os.Exit(1)
	}

	email := os.Args[1]
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(os.Args[2]), 14)

	if err != nil {
		fmt.Fprintf(os.Stderr, "Password hashing error: %s\n", err)
		os.Exit(1)
	}

	conn, err := database.Connect()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %s\n", err)
		os.Exit(1)
	}

	defer conn.Close()

	tx, err := conn.Begin()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Transaction error: %s\n", err)
		os.Exit(1)
	}

	defer tx.Rollback()

	var userID int
	row := tx.QueryRow(
		"insert into tracker_user(email, password) values($1, $2) returning id",
		email,
		string(passwordHash),
	)

	if err := row.Scan(&userID); err != nil {
		fmt.Fprintf(os.Stderr, "Query error: %s\n", err)
		os.Exit(1)
	}

	if err := auth.SeedDefaultCategories(tx, userID); err != nil {
		fmt.Fprintf(os.Stderr, "Category seeding error: %s\n", err)
		os.Exit(1)
	}

	if err := tx.Commit(); err != nil {
		fmt.Fprintf(os.Stderr, "Commit error: %s\n", err)
		os.Exit(1)
	}
}
