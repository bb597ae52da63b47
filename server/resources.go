package server

import (
	"database/sql"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/teranos/semls/am"
	"github.com/teranos/semls/db"
	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/internal/httpclient"
	"github.com/teranos/semls/logger"
	"github.com/teranos/semls/vocab"
)

// Resources are shared by every session of one process: the vocabulary
// fetcher and the cache behind it.
type Resources struct {
	Fetcher vocab.Fetcher
	Cache   vocab.Cache

	database *sql.DB
}

// OpenResources builds the fetcher and opens the configured cache. A cache
// that cannot be opened is logged and replaced by no cache at all, since
// vocabularies are only an enrichment.
func OpenResources(cfg *am.Config, log *zap.SugaredLogger) (*Resources, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	client := httpclient.New(httpclient.Options{
		Timeout:      cfg.VocabTimeout(),
		AllowPrivate: cfg.Vocab.AllowPrivate,
		UserAgent:    cfg.Vocab.UserAgent,
	})
	res := &Resources{
		Fetcher: vocab.NewHTTPFetcher(client, cfg.Vocab.RequestsPerSecond),
		Cache:   vocab.NopCache{},
	}

	switch cfg.Cache.Kind {
	case am.CacheSQLite:
		database, err := db.OpenWithMigrations(cfg.Cache.Path, log)
		if err != nil {
			log.Warnw("Vocabulary cache unavailable, continuing without it",
				"path", cfg.Cache.Path,
				logger.FieldError, err,
			)
			return res, nil
		}
		res.database = database
		res.Cache = vocab.NewSQLCache(database, cfg.CacheMaxAge(), log)
	case am.CacheDir:
		dir, err := vocab.NewDirCache(filepath.Clean(cfg.Cache.Path), cfg.CacheMaxAge())
		if err != nil {
			log.Warnw("Vocabulary cache unavailable, continuing without it",
				"path", cfg.Cache.Path,
				logger.FieldError, err,
			)
			return res, nil
		}
		res.Cache = dir
	case am.CacheNone, "":
	default:
		return nil, errors.Newf("unknown cache kind %q", cfg.Cache.Kind)
	}
	return res, nil
}

// Close releases the cache database, if any.
func (r *Resources) Close() error {
	if r == nil || r.database == nil {
		return nil
	}
	if err := r.database.Close(); err != nil {
		return errors.Wrap(err, "failed to close vocabulary cache")
	}
	return nil
}
