package am

import (
	"net"

	"github.com/teranos/semls/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// 0 means the default limit
	if c.Workspace.MaxDocuments < 0 {
		return errors.Newf("workspace.max_documents must be >= 0, got %d", c.Workspace.MaxDocuments)
	}

	if c.Server.WebSocketAddr != "" {
		if _, _, err := net.SplitHostPort(c.Server.WebSocketAddr); err != nil {
			return errors.Wrapf(err, "server.websocket_addr %q is not host:port", c.Server.WebSocketAddr)
		}
	}

	if c.Vocab.TimeoutSeconds < 0 {
		return errors.Newf("vocab.timeout_seconds must be >= 0, got %d", c.Vocab.TimeoutSeconds)
	}
	if c.Vocab.RequestsPerSecond < 0 {
		return errors.Newf("vocab.requests_per_second must be >= 0, got %f", c.Vocab.RequestsPerSecond)
	}

	switch c.Cache.Kind {
	case CacheSQLite, CacheDir:
		if c.Cache.Path == "" {
			return errors.Newf("cache.path cannot be empty for cache.kind %q", c.Cache.Kind)
		}
	case CacheNone, "":
	default:
		return errors.Newf("cache.kind must be one of sqlite, dir, none; got %q", c.Cache.Kind)
	}
	if c.Cache.MaxAgeHours < 0 {
		return errors.Newf("cache.max_age_hours must be >= 0, got %d", c.Cache.MaxAgeHours)
	}

	if c.Format.TabSize < 0 || c.Format.TabSize > 16 {
		return errors.Newf("format.tab_size must be between 0 and 16, got %d", c.Format.TabSize)
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}
	return nil
}
