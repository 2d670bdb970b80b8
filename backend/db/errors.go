package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned on unique-key collisions that map to a
	// field-specific validation error (username, email, org code).
	ErrDuplicate = errors.New("already exists")
)

const mysqlDuplicateEntry = 1062

// isDuplicateEntry reports a UNIQUE key violation. The pre-insert
// existence checks catch duplicates in the common case; this catches
// the loser of two concurrent inserts. The optional key fragment
// narrows the match to one index, since the message names the
// violated key.
func isDuplicateEntry(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return false
	}
	return key == "" || strings.Contains(me.Message, key)
}
