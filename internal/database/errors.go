package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun/driver/pgdriver"
)

// IsUniqueViolation reports whether err is a unique-constraint failure from
// the underlying driver. Repositories use it to translate raw store errors
// into conflict errors at a single boundary.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	return false
}
