package store

import (
	"fmt"

	storage "github.com/osr-alliance/backend-lead-capture"
)

// The table is created if it's missing and left alone otherwise; leads survive restarts.
const leadsSchemaSQLite = `CREATE TABLE IF NOT EXISTS leads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT NOT NULL DEFAULT '',
	company_name TEXT,
	owner_name TEXT,
	business_type TEXT,
	start_year TEXT,
	sales_range TEXT,
	employee_count TEXT,
	urgent_issue TEXT,
	loan_status TEXT,
	contact_method TEXT,
	phone TEXT,
	contact_time TEXT,
	memo TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'uncontacted'
)`

const leadsSchemaPostgres = `CREATE TABLE IF NOT EXISTS leads (
	id BIGSERIAL PRIMARY KEY,
	category TEXT NOT NULL DEFAULT '',
	company_name TEXT,
	owner_name TEXT,
	business_type TEXT,
	start_year TEXT,
	sales_range TEXT,
	employee_count TEXT,
	urgent_issue TEXT,
	loan_status TEXT,
	contact_method TEXT,
	phone TEXT,
	contact_time TEXT,
	memo TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'uncontacted'
)`

func schemaFor(driver string) (string, error) {
	switch driver {
	case storage.DriverSQLite:
		return leadsSchemaSQLite, nil
	case storage.DriverPostgres:
		return leadsSchemaPostgres, nil
	}
	return "", fmt.Errorf("no leads schema for driver %q", driver)
}
