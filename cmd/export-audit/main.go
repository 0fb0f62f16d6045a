// Export tracker tables into CSV files for offline analysis.
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alttrack/alttrack/internal/database"
	"github.com/alttrack/alttrack/internal/env"
)

func exitWithError(action string, err error) {
	fmt.Fprintf(os.Stderr, "%s error: %s\n", action, err)
	os.Exit(1)
}

func exportTable(conn *database.Conn, outputDir string, name string, header []string, sql string) error {
	file, err := os.Create(filepath.Join(outputDir, name+".csv"))

	if err != nil {
		return err
	}

	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return err
	}

	rows, err := conn.Query(sql)

	if err != nil {
		return err
	}

	defer rows.Close()

	values := make([]any, len(header))
	pointers := make([]any, len(header))

	for i := range values {
		pointers[i] = &values[i]
	}

	record := make([]string, len(header))

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return err
		}

		for i, value := range values {
			if value == nil {
				record[i] = ""
			} else {
				record[i] = fmt.Sprintf("%v", value)
			}
		}

		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return rows.Err()
}

func main() {
	env.LoadEnvironmentVariables()

	outputDir := "export"

	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}

	conn, err := database.Connect()

	if err != nil {
		exitWithError("Connection", err)
	}

	defer conn.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		exitWithError("Output directory", err)
	}

	err = exportTable(
		conn,
		outputDir,
		"users",
		[]string{"id", "email"},
		"select id, email from tracker_user order by id",
	)

	if err != nil {
		exitWithError("Export users", err)
	}

	err = exportTable(
		conn,
		outputDir,
		"assets",
		[]string{"id", "user_id", "category_id", "name", "purchase_price", "purchase_date", "current_value", "last_updated", "is_active"},
		`select id, user_id, category_id, name, purchase_price, purchase_date, current_value, last_updated, is_active
		from asset order by id`,
	)

	if err != nil {
		exitWithError("Export assets", err)
	}

	err = exportTable(
		conn,
		outputDir,
		"valuation_history",
		[]string{"id", "asset_id", "old_value", "new_value", "change_date", "note"},
		`select id, asset_id, old_value, new_value, change_date, note
		from valuation_history order by asset_id, change_date`,
	)

	if err != nil {
		exitWithError("Export valuation history", err)
	}
}
