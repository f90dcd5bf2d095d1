// Package repository holds the MySQL and in-memory data access code.
// Booking stores translate driver errors into the booking package's
// sentinels so the lifecycle manager never sees MySQL error numbers.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrEmailExists is returned when registering a user whose email or
// username is already taken.  Handlers should translate this into an
// HTTP 409 response.
var ErrEmailExists = errors.New("email or username already exists")

// ErrUserNotFound is returned by user lookups that match no row.
var ErrUserNotFound = errors.New("user not found")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL unique-key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
