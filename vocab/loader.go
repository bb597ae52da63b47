package vocab

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/logger"
)

// Options configures a Loader.
type Options struct {
	Fetcher Fetcher
	Cache   Cache
	// Overrides maps a namespace to the URL its vocabulary is fetched from.
	Overrides map[string]string
	// Timeout bounds one fetch. Zero means 30s.
	Timeout time.Duration
}

// Loader fetches each requested namespace at most once, in the background,
// and hands the parsed vocabulary to the install callback. Failures are
// logged; a namespace that failed is not retried until Forget.
type Loader struct {
	fetcher   Fetcher
	cache     Cache
	overrides map[string]string
	timeout   time.Duration
	logger    *zap.SugaredLogger

	mu      sync.Mutex
	install func(*Vocabulary)
	seen    map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLoader creates a loader. Nothing is fetched until Request.
func NewLoader(opts Options, log *zap.SugaredLogger) *Loader {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.Cache == nil {
		opts.Cache = NopCache{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		fetcher:   opts.Fetcher,
		cache:     opts.Cache,
		overrides: opts.Overrides,
		timeout:   opts.Timeout,
		logger:    log,
		seen:      make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// OnLoad sets the callback that receives loaded vocabularies. It runs on
// the loader's goroutines.
func (l *Loader) OnLoad(fn func(*Vocabulary)) {
	l.mu.Lock()
	l.install = fn
	l.mu.Unlock()
}

// URLFor returns the URL the vocabulary of namespace is fetched from.
func (l *Loader) URLFor(namespace string) string {
	if u, ok := l.overrides[namespace]; ok {
		return u
	}
	return strings.TrimSuffix(namespace, "#")
}

// Request starts loading namespace unless it was requested before. It
// reports whether a load was started.
func (l *Loader) Request(namespace string) bool {
	if namespace == "" || l.fetcher == nil {
		return false
	}
	l.mu.Lock()
	if _, ok := l.seen[namespace]; ok {
		l.mu.Unlock()
		return false
	}
	if l.ctx.Err() != nil {
		l.mu.Unlock()
		return false
	}
	l.seen[namespace] = struct{}{}
	l.wg.Add(1)
	l.mu.Unlock()

	job := uuid.New().String()
	go func() {
		defer l.wg.Done()
		l.run(job, namespace)
	}()
	return true
}

// Forget allows namespace to be requested again.
func (l *Loader) Forget(namespace string) {
	l.mu.Lock()
	delete(l.seen, namespace)
	l.mu.Unlock()
}

// Wait blocks until every started load finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Stop cancels in-flight loads and waits for them.
func (l *Loader) Stop() {
	l.cancel()
	l.wg.Wait()
}

func (l *Loader) run(job, namespace string) {
	log := l.logger.With(logger.FieldJobID, job, logger.FieldNamespace, namespace)
	start := time.Now()

	v, err := l.Load(l.ctx, namespace)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Warnw("Vocabulary load failed", logger.FieldError, err)
		return
	}
	log.Infow("Vocabulary loaded",
		logger.FieldURL, v.URL,
		logger.FieldCount, len(v.Graph),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)

	l.mu.Lock()
	install := l.install
	l.mu.Unlock()
	if install != nil {
		install(v)
	}
}

// Load fetches and parses namespace synchronously, through the cache.
func (l *Loader) Load(ctx context.Context, namespace string) (*Vocabulary, error) {
	u := l.URLFor(namespace)
	if body, ok := l.cache.Get(u); ok {
		if v, err := Parse(namespace, u, "", body); err == nil {
			return v, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	resp, err := l.fetcher.Fetch(ctx, u, map[string]string{"Accept": AcceptHeader})
	if err != nil {
		return nil, err
	}
	l.logger.Debugw("Vocabulary fetched",
		logger.FieldURL, u,
		logger.FieldStatus, resp.Status,
		logger.FieldSize, len(resp.Body),
	)
	if !resp.OK() {
		return nil, errors.WithDetailf(
			errors.Wrapf(errors.ErrFetchFailed, "%s: status %d", u, resp.Status),
			"namespace %s", namespace)
	}
	v, err := Parse(namespace, u, resp.Headers["content-type"], resp.Body)
	if err != nil {
		return nil, err
	}
	if err := l.cache.Put(u, resp.Body); err != nil {
		l.logger.Debugw("Vocabulary not cached", logger.FieldURL, u, logger.FieldError, err)
	}
	return v, nil
}
