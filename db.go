package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Drivers this package knows how to open. The driver packages themselves are
// registered by the binary (lib/pq for postgres, modernc.org/sqlite for sqlite).
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc.org/sqlite registers as "sqlite", which older sqlx releases don't map to `?` bindvars
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the database and makes sure it's reachable
func Open(ctx context.Context, driver string, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}

	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: connect %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// one writer at a time; this also keeps `:memory:` databases on a single connection
		conn.SetMaxOpenConns(1)
	}

	return conn, nil
}

type namedQueryer interface {
	NamedQueryContext(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error)
}

type db struct {
	writeConnection *sqlx.DB
	readConnection  *sqlx.DB
}

func newDB(conf *Config) *db {
	return &db{
		writeConnection: conf.WriteOnlyDbConn,
		readConnection:  conf.ReadOnlyDbConn,
	}
}

// queryRow runs a named query that returns at most one row and scans it into obj.
// found is false when the query returned no rows.
func (db *db) queryRow(ctx context.Context, query string, obj interface{}, conn namedQueryer) (found bool, err error) {
	rows, err := conn.NamedQueryContext(ctx, query, obj)
	if err != nil {
		return false, err
	}
	// Let's make sure we don't have a memory leak!! :)
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}

	if err := rows.StructScan(obj); err != nil {
		return false, err
	}

	return true, rows.Close()
}

// queryAll runs a named query with obj as the argument and scans every row into dest (pointer to a slice)
func (db *db) queryAll(ctx context.Context, query string, obj interface{}, dest interface{}, conn namedQueryer) error {
	rows, err := conn.NamedQueryContext(ctx, query, obj)
	if err != nil {
		return err
	}
	defer rows.Close()

	return sqlx.StructScan(rows, dest)
}

func (db *db) writeConn() *sqlx.DB {
	return db.writeConnection
}

func (db *db) readConn() *sqlx.DB {
	return db.readConnection
}
