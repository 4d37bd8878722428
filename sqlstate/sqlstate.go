// Package sqlstate provides a step.BindHook backed by a SQL table,
// letting a module resolve an otherwise-undefined state variable by
// looking up its name in a database row instead of failing.
//
// Grounded on the teacher's storage/mysql_import.go openMySQL helper
// (sql.Open("mysql", dsn), connection pool tuning, PingContext on open),
// repurposed from "bulk-import a whole schema" to "look up one row at a
// time, lazily, on miss."
package sqlstate

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/caelum-lang/stepweave/step"
)

// Hook implements step.BindHook against a `state_vars(name, value)` table.
// Logger, if set, receives one line per lookup that fails for a reason other
// than "no such row" — a query or connection error is worth knowing about
// even though Lookup itself must still report it as a plain miss.
type Hook struct {
	db     *sql.DB
	Logger func(msg string, fields ...any)
}

// NewMySQLBindHook opens dsn via go-sql-driver/mysql and returns a Hook
// whose Lookup runs a single-row SELECT per miss. A value found through the
// hook is cached into the initiating module by step.Module.Get, so a given
// name only ever costs one round trip per call chain that needed it.
func NewMySQLBindHook(dsn string) (*Hook, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(8)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Hook{db: db}, nil
}

func (h *Hook) logf(msg string, fields ...any) {
	if h.Logger != nil {
		h.Logger(msg, fields...)
	}
}

// Lookup implements step.BindHook.
func (h *Hook) Lookup(name string) (step.Term, bool) {
	var value sql.NullString
	row := h.db.QueryRow(`SELECT value FROM state_vars WHERE name = ?`, name)
	if err := row.Scan(&value); err != nil {
		if err != sql.ErrNoRows {
			h.logf("sql bind hook lookup failed", "name", name, "error", err)
		}
		return step.Term{}, false
	}
	if !value.Valid {
		return step.Term{}, false
	}
	return toTerm(value.String), true
}

// Close releases the underlying connection pool.
func (h *Hook) Close() error { return h.db.Close() }

// toTerm guesses a ground shape for a raw SQL text value: a parseable
// decimal becomes a number, "true"/"false" become a bool, anything else
// stays a string.
func toTerm(raw string) step.Term {
	if raw == "true" || raw == "false" {
		return step.Bool(raw == "true")
	}
	if d, err := decimal.NewFromString(raw); err == nil {
		return step.Num(d)
	}
	return step.Str(raw)
}
