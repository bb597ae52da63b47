package db

import (
	"database/sql"
	"embed"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/semls/errors"
)

//go:embed sqlite/migrations/*.sql
var migrationFS embed.FS

// migration is one embedded NNN_description.sql file.
type migration struct {
	version string
	name    string
	body    string
}

var migrations = sync.OnceValues(func() ([]migration, error) {
	files, err := fs.Glob(migrationFS, "sqlite/migrations/*.sql")
	if err != nil {
		return nil, errors.Wrap(err, "list migrations")
	}
	out := make([]migration, 0, len(files))
	for _, f := range files {
		body, err := migrationFS.ReadFile(f)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", f)
		}
		name := f[strings.LastIndexByte(f, '/')+1:]
		version, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, errors.Newf("migration %s has no NNN_ version prefix", name)
		}
		out = append(out, migration{version: version, name: name, body: string(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
})

// SchemaVersion returns the newest applied migration version, "" for a
// database that was never migrated.
func SchemaVersion(db *sql.DB) (string, error) {
	var version sql.NullString
	err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return "", nil
		}
		return "", errors.Wrap(err, "read schema version")
	}
	return version.String, nil
}

// Migrate applies every embedded migration newer than the schema version,
// each in its own transaction. Migration 000 creates schema_migrations.
func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	all, err := migrations()
	if err != nil {
		return err
	}
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range all {
		if current != "" && m.version <= current {
			continue
		}
		logger.Infow("Applying cache migration", "migration", m.name)
		if err := apply(db, m); err != nil {
			return err
		}
		applied++
	}
	if applied > 0 {
		logger.Debugw("Cache schema migrated", "from", current, "applied", applied)
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin %s", m.name)
	}
	if _, err := tx.Exec(m.body); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "execute %s", m.name)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "record %s", m.name)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", m.name)
}
