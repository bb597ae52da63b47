package db

import (
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/teranos/semls/errors"
)

var (
	// ErrDatabaseClosed is returned when the cache is used after shutdown
	// closed its database, typically by a vocabulary load that finished late.
	ErrDatabaseClosed = errors.New("database is closed")

	// ErrDatabaseBusy is returned when another semls process held the lock
	// for longer than SQLiteBusyTimeoutMS.
	ErrDatabaseBusy = errors.New("database is busy")
)

// IsDatabaseClosed reports whether err means the *sql.DB was closed.
// database/sql returns an unexported error for this, so the message is
// matched as well.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

// IsBusy reports whether err is SQLite's BUSY or LOCKED result. Several
// editors sharing one user cache file hit this under load.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseBusy) {
		return true
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}
