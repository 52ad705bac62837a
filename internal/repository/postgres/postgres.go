// Package postgres implements the slot and booking stores on PostgreSQL
// through a pgx connection pool.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool { return pgCode(err) == "23505" }

func isForeignKeyViolation(err error) bool { return pgCode(err) == "23503" }

// A malformed UUID literal is reported by the server as 22P02.
func isInvalidUUID(err error) bool { return pgCode(err) == "22P02" }
