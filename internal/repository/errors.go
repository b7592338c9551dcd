// Package repository implements MySQL persistence for users, roles, books
// and notes.  The sentinel errors below let the service layer tell
// storage outcomes apart without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no live row matches the lookup.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update hits a unique key
// (MySQL error 1062).
var ErrDuplicate = errors.New("duplicate entry")

// ErrInUse is returned when a delete is blocked by a foreign key that still
// references the row (MySQL error 1451).
var ErrInUse = errors.New("row is still referenced")

const (
	mysqlDupEntry         = 1062
	mysqlRowIsReferenced  = 1451
	mysqlRowIsReferenced2 = 1217
)

func isMySQLError(err error, codes ...uint16) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	for _, c := range codes {
		if me.Number == c {
			return true
		}
	}
	return false
}

// translate maps well-known driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case isMySQLError(err, mysqlDupEntry):
		return ErrDuplicate
	case isMySQLError(err, mysqlRowIsReferenced, mysqlRowIsReferenced2):
		return ErrInUse
	}
	return err
}
