package document

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/index"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/lang/registry"
	"github.com/teranos/semls/logger"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/vocab"
)

// Report is one publication of diagnostics for a document and reason.
type Report struct {
	URI         string
	Version     int32
	Reason      Reason
	Diagnostics []lang.Diagnostic
	Lines       *span.LineIndex
}

// Sink receives diagnostics. Publish is called on the workspace loop and
// must not call back into the workspace.
type Sink interface {
	Publish(Report)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Report)

func (f SinkFunc) Publish(r Report) { f(r) }

// VocabularyLoader fetches vocabularies in the background.
type VocabularyLoader interface {
	Request(namespace string) bool
}

// Options configures a Workspace.
type Options struct {
	// MaxDocuments bounds the number of open documents. Zero means 500.
	MaxDocuments int
	// ValidateOnSave runs vocabulary validation when a document is saved.
	ValidateOnSave bool
	// Loader, when set, is asked for the vocabulary of every declared
	// namespace.
	Loader VocabularyLoader
}

// command runs on the loop with exclusive access to the loop state.
type command func()

// Workspace owns the open documents. All mutation and all reads of
// documents happen on a single goroutine that drains the command channel;
// the project index is published through an atomic pointer so it can be
// read from anywhere.
type Workspace struct {
	sink   Sink
	opts   Options
	logger *zap.SugaredLogger

	commands chan command

	// loop state
	docs       map[string]*Document
	vocabs     map[string]*vocab.Vocabulary
	generation uint64

	snapshot atomic.Pointer[index.Snapshot]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorkspace creates a workspace. Call Start before submitting work.
func NewWorkspace(sink Sink, opts Options, log *zap.SugaredLogger) *Workspace {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if sink == nil {
		sink = SinkFunc(func(Report) {})
	}
	if opts.MaxDocuments <= 0 {
		opts.MaxDocuments = 500
	}
	w := &Workspace{
		sink:     sink,
		opts:     opts,
		logger:   log,
		commands: make(chan command, 64),
		docs:     make(map[string]*Document),
		vocabs:   make(map[string]*vocab.Vocabulary),
	}
	w.snapshot.Store(index.Empty())
	return w
}

// Start runs the loop until ctx is cancelled or Stop is called.
func (w *Workspace) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run()
	}()
}

// Stop ends the loop and waits for it.
func (w *Workspace) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Workspace) run() {
	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debugw("Workspace loop stopping", logger.FieldCount, len(w.docs))
			return
		case cmd := <-w.commands:
			w.exec(cmd)
		}
	}
}

// exec runs one command. A panicking command is logged and dropped so one
// bad document cannot take the loop down.
func (w *Workspace) exec(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorw("Workspace command panicked", "panic", r)
		}
	}()
	cmd()
}

// submit queues cmd. It fails when the workspace stopped or ctx ended
// first.
func (w *Workspace) submit(ctx context.Context, cmd command) error {
	if w.ctx == nil {
		return errors.Wrap(errors.ErrClosed, "workspace not started")
	}
	select {
	case w.commands <- cmd:
		return nil
	case <-w.ctx.Done():
		return errors.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// result carries a command's outcome back to the caller.
type result[T any] struct {
	value T
	err   error
}

// await queues fn and waits for its result. A panic in fn becomes an
// error.
func await[T any](ctx context.Context, w *Workspace, fn func() (T, error)) (T, error) {
	done := make(chan result[T], 1)
	err := w.submit(ctx, func() {
		var r result[T]
		defer func() {
			if p := recover(); p != nil {
				w.logger.Errorw("Workspace command panicked", "panic", p)
				r.err = errors.Newf("panic: %v", p)
			}
			done <- r
		}()
		r.value, r.err = fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	select {
	case r := <-done:
		return r.value, r.err
	case <-w.ctx.Done():
		var zero T
		return zero, errors.ErrClosed
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (w *Workspace) call(ctx context.Context, fn func() error) error {
	_, err := await(ctx, w, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// View is what a read sees: the current document (nil for workspace-wide
// reads), every open document and the project index.
type View struct {
	Doc   *Document
	Index *index.Snapshot
	docs  map[string]*Document
}

// Document returns the open document for uri.
func (v View) Document(uri string) (*Document, bool) {
	d, ok := v.docs[uri]
	return d, ok
}

// Documents returns the open documents sorted by URI.
func (v View) Documents() []*Document {
	out := make([]*Document, 0, len(v.docs))
	for _, d := range v.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Query runs fn on the loop with the document for uri. An empty uri runs
// fn without a current document.
func Query[T any](ctx context.Context, w *Workspace, uri string, fn func(View) (T, error)) (T, error) {
	return await(ctx, w, func() (T, error) {
		v := View{Index: w.snapshot.Load(), docs: w.docs}
		if uri != "" {
			d, ok := w.docs[uri]
			if !ok {
				var zero T
				return zero, errors.UnknownDocument(uri)
			}
			if d.Stale() {
				w.refresh(d)
			}
			v.Doc = d
		}
		return fn(v)
	})
}

// Snapshot returns the current project index. Safe from any goroutine.
func (w *Workspace) Snapshot() *index.Snapshot {
	return w.snapshot.Load()
}

// Open adds a document and publishes its diagnostics.
func (w *Workspace) Open(ctx context.Context, uri, languageID string, version int32, text string) error {
	g, err := registry.Detect(uri, languageID)
	if err != nil {
		return errors.Wrapf(err, "open %s", uri)
	}
	return w.call(ctx, func() error {
		if _, exists := w.docs[uri]; !exists && len(w.docs) >= w.opts.MaxDocuments {
			return errors.WithHint(
				errors.Wrapf(errors.ErrInvalidRequest, "document limit of %d reached", w.opts.MaxDocuments),
				"close unused documents or raise workspace.max_documents",
			)
		}
		d := New(uri, g, version, text)
		w.docs[uri] = d
		w.logger.Infow("Document opened",
			logger.FieldURI, uri,
			logger.FieldLanguage, g.Language().String(),
			logger.FieldVersion, version,
			logger.FieldSize, len(text),
		)
		w.refresh(d)
		w.publish(d, ReasonVocabulary)
		return nil
	})
}

// Change applies edits and publishes the recomputed diagnostics.
func (w *Workspace) Change(ctx context.Context, uri string, version int32, changes []span.Change) error {
	return w.call(ctx, func() error {
		d, ok := w.docs[uri]
		if !ok {
			return errors.UnknownDocument(uri)
		}
		if err := d.Apply(version, changes); err != nil {
			return err
		}
		w.refresh(d)
		return nil
	})
}

// Save optionally replaces the text, then runs vocabulary validation.
func (w *Workspace) Save(ctx context.Context, uri string, text *string) error {
	return w.call(ctx, func() error {
		d, ok := w.docs[uri]
		if !ok {
			return errors.UnknownDocument(uri)
		}
		if text != nil {
			d.SetText(d.Version, *text)
		}
		w.refresh(d)
		if w.opts.ValidateOnSave {
			d.Vocabulary = Validate(d, w.snapshot.Load())
			w.publish(d, ReasonVocabulary)
		}
		return nil
	})
}

// Close drops a document and clears its diagnostics.
func (w *Workspace) Close(ctx context.Context, uri string) error {
	return w.call(ctx, func() error {
		d, ok := w.docs[uri]
		if !ok {
			return errors.UnknownDocument(uri)
		}
		delete(w.docs, uri)
		for _, r := range Reasons {
			w.sink.Publish(Report{URI: uri, Version: d.Version, Reason: r, Lines: d.Lines})
		}
		w.reindex()
		w.logger.Infow("Document closed", logger.FieldURI, uri)
		return nil
	})
}

// InstallVocabulary hands a loaded vocabulary to the loop. It does not
// wait; it is called from loader goroutines.
func (w *Workspace) InstallVocabulary(v *vocab.Vocabulary) {
	if w.ctx == nil {
		return
	}
	err := w.submit(w.ctx, func() {
		w.vocabs[v.Namespace] = v
		w.reindex()
		w.logger.Debugw("Vocabulary installed",
			logger.FieldNamespace, v.Namespace,
			logger.FieldCount, len(v.Graph),
		)
	})
	if err != nil {
		w.logger.Debugw("Vocabulary dropped", logger.FieldNamespace, v.Namespace, logger.FieldError, err)
	}
}

// Sync waits until every command queued before it ran.
func (w *Workspace) Sync(ctx context.Context) error {
	return w.call(ctx, func() error { return nil })
}

// refresh re-analyzes d, publishes what changed, rebuilds the index and
// requests vocabularies for its namespaces.
func (w *Workspace) refresh(d *Document) {
	start := time.Now()
	changed := d.Analyze()
	for _, r := range changed {
		w.publish(d, r)
	}
	if len(changed) > 0 {
		w.reindex()
	}
	w.logger.Debugw("Document analyzed",
		logger.FieldURI, d.URI,
		logger.FieldVersion, d.Version,
		"tokens", len(d.Tokens),
		"triples", len(d.Derived.Triples),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	if w.opts.Loader != nil {
		for ns := range d.Prefixes().Namespaces() {
			if _, loaded := w.vocabs[ns]; !loaded {
				w.opts.Loader.Request(ns)
			}
		}
	}
}

func (w *Workspace) publish(d *Document, r Reason) {
	w.sink.Publish(Report{
		URI:         d.URI,
		Version:     d.Version,
		Reason:      r,
		Diagnostics: d.Diagnostics(r),
		Lines:       d.Lines,
	})
}

// reindex builds a new snapshot from the loop state and swaps it in.
func (w *Workspace) reindex() {
	sources := make([]index.Source, 0, len(w.docs)+len(w.vocabs))
	for _, d := range w.docs {
		sources = append(sources, d.Source())
	}
	for _, v := range w.vocabs {
		sources = append(sources, index.Source{
			URI:        v.URL,
			Graph:      v.Graph,
			Namespaces: v.Prefixes.Namespaces(),
			Vocabulary: v.Namespace,
		})
	}
	w.generation++
	w.snapshot.Store(index.Build(w.generation, sources))
}
