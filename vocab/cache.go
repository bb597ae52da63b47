package vocab

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/semls/db"
	"github.com/teranos/semls/errors"
)

// Cache stores fetched vocabulary bodies by key.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, data []byte) error
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(string) ([]byte, bool) { return nil, false }
func (NopCache) Put(string, []byte) error  { return nil }

// DirCache keeps one file per key under a directory. Entries older than
// MaxAge are misses; zero keeps entries forever.
type DirCache struct {
	dir    string
	maxAge time.Duration
}

// NewDirCache creates dir if needed.
func NewDirCache(dir string, maxAge time.Duration) (*DirCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory %s", dir)
	}
	return &DirCache{dir: dir, maxAge: maxAge}, nil
}

func (c *DirCache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".cache")
}

func (c *DirCache) Get(key string) ([]byte, bool) {
	p := c.path(key)
	if c.maxAge > 0 {
		info, err := os.Stat(p)
		if err != nil || time.Since(info.ModTime()) > c.maxAge {
			return nil, false
		}
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put writes through a temporary file so readers never see a partial entry.
func (c *DirCache) Put(key string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, "put-*")
	if err != nil {
		return errors.Wrap(err, "create cache entry")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write cache entry")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close cache entry")
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "commit cache entry")
	}
	return nil
}

// SQLCache stores entries in the vocabulary_cache table.
type SQLCache struct {
	db     *sql.DB
	maxAge time.Duration
	logger *zap.SugaredLogger
}

// NewSQLCache wraps a migrated database.
func NewSQLCache(database *sql.DB, maxAge time.Duration, logger *zap.SugaredLogger) *SQLCache {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SQLCache{db: database, maxAge: maxAge, logger: logger}
}

func (c *SQLCache) Get(key string) ([]byte, bool) {
	var body []byte
	var fetched time.Time
	err := c.db.QueryRow(`SELECT body, fetched_at FROM vocabulary_cache WHERE key = ?`, key).Scan(&body, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		switch {
		case db.IsDatabaseClosed(err):
		case db.IsBusy(err):
			c.logger.Debugw("Vocabulary cache busy, treating as miss", "key", key)
		default:
			c.logger.Warnw("Vocabulary cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	if c.maxAge > 0 && time.Since(fetched) > c.maxAge {
		return nil, false
	}
	return body, true
}

func (c *SQLCache) Put(key string, data []byte) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO vocabulary_cache (key, body, fetched_at) VALUES (?, ?, ?)`,
		key, data, time.Now().UTC(),
	)
	if err != nil {
		switch {
		case db.IsDatabaseClosed(err):
			return errors.Wrap(db.ErrDatabaseClosed, "store vocabulary")
		case db.IsBusy(err):
			return errors.Wrapf(db.ErrDatabaseBusy, "store vocabulary %s", key)
		}
		return errors.Wrapf(err, "store vocabulary %s", key)
	}
	return nil
}
