package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pqUniqueViolation = "23505"

// UniqueViolation reports whether err is a unique constraint violation from
// either supported driver. The returned target is the constraint name on
// PostgreSQL and the "table.column" list on SQLite.
func UniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == pqUniqueViolation {
			return pqErr.Constraint, true
		}
		return "", false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			msg := sqliteErr.Error()
			if idx := strings.Index(msg, "failed: "); idx >= 0 {
				msg = msg[idx+len("failed: "):]
			}
			return msg, true
		}
	}

	return "", false
}

func IsUniqueViolation(err error) bool {
	_, ok := UniqueViolation(err)
	return ok
}
