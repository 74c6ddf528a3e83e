package database

import (
	"database/sql/driver"
	"errors"
	"net"
	"regexp"
	"strings"
	"syscall"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// MySQL server error numbers that name the offending column
const (
	mysqlErrBadNull         = 1048
	mysqlErrNoDefault       = 1364
	mysqlErrDataTooLong     = 1406
	mysqlErrCheckConstraint = 3819
)

var (
	quotedName   = regexp.MustCompile(`'([^']+)'`)
	sqliteNotNul = regexp.MustCompile(`NOT NULL constraint failed: [\w]+\.(\w+)`)
	sqliteCheck  = regexp.MustCompile(`CHECK constraint failed: (\w+)`)
)

// IsConnectionError reports whether err means the store could not be reached
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysqldriver.ErrInvalidConn) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// ConstraintColumn extracts the column rejected by a NOT NULL or CHECK
// constraint. ok is false when err is not a constraint violation or the
// column cannot be identified.
func ConstraintColumn(err error) (column string, ok bool) {
	if err == nil {
		return "", false
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrBadNull, mysqlErrNoDefault, mysqlErrDataTooLong, mysqlErrCheckConstraint:
			if m := quotedName.FindStringSubmatch(myErr.Message); m != nil {
				return checkNameToColumn(m[1]), true
			}
		}
		return "", false
	}

	msg := err.Error()
	if m := sqliteNotNul.FindStringSubmatch(msg); m != nil {
		return m[1], true
	}
	if m := sqliteCheck.FindStringSubmatch(msg); m != nil {
		return checkNameToColumn(m[1]), true
	}
	return "", false
}

// checkNameToColumn maps chk_<table>_<column> to <column>
func checkNameToColumn(name string) string {
	if !strings.HasPrefix(name, "chk_") {
		return name
	}
	rest := strings.TrimPrefix(name, "chk_")
	if i := strings.Index(rest, "_"); i >= 0 {
		return rest[i+1:]
	}
	return rest
}
