package vocab

import (
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/semls/db"
	"github.com/teranos/semls/errors"
	semtest "github.com/teranos/semls/internal/testing"
)

func TestDirCache(t *testing.T) {
	c, err := NewDirCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	_, ok := c.Get("http://xmlns.com/foaf/0.1/")
	assert.False(t, ok)

	require.NoError(t, c.Put("http://xmlns.com/foaf/0.1/", []byte("body")))
	data, ok := c.Get("http://xmlns.com/foaf/0.1/")
	require.True(t, ok)
	assert.Equal(t, "body", string(data))

	require.NoError(t, c.Put("http://xmlns.com/foaf/0.1/", []byte("replaced")))
	data, _ = c.Get("http://xmlns.com/foaf/0.1/")
	assert.Equal(t, "replaced", string(data))

	t.Run("expired", func(t *testing.T) {
		old := time.Now().Add(-2 * time.Hour)
		require.NoError(t, os.Chtimes(c.path("http://xmlns.com/foaf/0.1/"), old, old))
		_, ok := c.Get("http://xmlns.com/foaf/0.1/")
		assert.False(t, ok)
	})
}

func TestSQLCache(t *testing.T) {
	database := semtest.CreateTestDB(t)
	require.NoError(t, db.Migrate(database, nil))

	c := NewSQLCache(database, time.Hour, nil)
	_, ok := c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Put("k", []byte("v1")))
	require.NoError(t, c.Put("k", []byte("v2")))
	data, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", string(data))

	assert.Equal(t, 1, semtest.CountRows(t, database, "vocabulary_cache"))

	t.Run("expired", func(t *testing.T) {
		_, err := database.Exec("UPDATE vocabulary_cache SET fetched_at = ? WHERE key = ?", time.Now().Add(-2*time.Hour).UTC(), "k")
		require.NoError(t, err)
		_, ok := c.Get("k")
		assert.False(t, ok)
	})
}

func TestSQLCacheErrors(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	c := NewSQLCache(database, 0, nil)
	selectQ := regexp.QuoteMeta("SELECT body, fetched_at FROM vocabulary_cache WHERE key = ?")
	insertQ := regexp.QuoteMeta("INSERT OR REPLACE INTO vocabulary_cache")

	mock.ExpectQuery(selectQ).WithArgs("k").WillReturnError(errors.New("disk I/O error"))
	_, ok := c.Get("k")
	assert.False(t, ok)

	mock.ExpectExec(insertQ).WithArgs("k", []byte("v"), sqlmock.AnyArg()).WillReturnError(errors.New("disk full"))
	err = c.Put("k", []byte("v"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store vocabulary k")

	mock.ExpectExec(insertQ).WithArgs("k", []byte("v"), sqlmock.AnyArg()).WillReturnError(errors.New("sql: database is closed"))
	err = c.Put("k", []byte("v"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrDatabaseClosed), "driver closed error maps to ErrDatabaseClosed")

	mock.ExpectQuery(selectQ).WithArgs("k").WillReturnError(sqlite3.Error{Code: sqlite3.ErrBusy})
	_, ok = c.Get("k")
	assert.False(t, ok, "busy reads are misses")

	mock.ExpectExec(insertQ).WithArgs("k", []byte("v"), sqlmock.AnyArg()).WillReturnError(sqlite3.Error{Code: sqlite3.ErrLocked})
	err = c.Put("k", []byte("v"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrDatabaseBusy))

	assert.NoError(t, mock.ExpectationsWereMet())
}
