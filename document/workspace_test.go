package document

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/lang"
	"github.com/teranos/semls/rdf"
	"github.com/teranos/semls/span"
	"github.com/teranos/semls/vocab"
)

// recorder keeps the latest report per document and reason.
type recorder struct {
	mu      sync.Mutex
	reports map[string]map[Reason][]lang.Diagnostic
	count   int
}

func (r *recorder) Publish(rep Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reports == nil {
		r.reports = make(map[string]map[Reason][]lang.Diagnostic)
	}
	if r.reports[rep.URI] == nil {
		r.reports[rep.URI] = make(map[Reason][]lang.Diagnostic)
	}
	r.reports[rep.URI][rep.Reason] = rep.Diagnostics
	r.count++
}

func (r *recorder) total(uri string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ds := range r.reports[uri] {
		n += len(ds)
	}
	return n
}

func (r *recorder) of(uri string, reason Reason) []lang.Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[uri][reason]
}

// fakeLoader records requested namespaces.
type fakeLoader struct {
	mu        sync.Mutex
	requested []string
}

func (f *fakeLoader) Request(ns string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requested {
		if r == ns {
			return false
		}
	}
	f.requested = append(f.requested, ns)
	return true
}

func newWorkspace(t *testing.T, opts Options) (*Workspace, *recorder) {
	t.Helper()
	rec := &recorder{}
	w := NewWorkspace(rec, opts, zaptest.NewLogger(t).Sugar())
	w.Start(context.Background())
	t.Cleanup(w.Stop)
	return w, rec
}

func whole(text string) []span.Change {
	return []span.Change{{Text: text}}
}

func TestWorkspace_DiagnosticCountsWhileTyping(t *testing.T) {
	ctx := context.Background()
	w, rec := newWorkspace(t, Options{})
	const uri = "file:///c.ttl"

	require.NoError(t, w.Open(ctx, uri, "turtle", 1, "@prefix foaf: <>."))
	assert.Equal(t, 0, rec.total(uri))

	require.NoError(t, w.Change(ctx, uri, 2, whole("@prefix foaf: <>.\nfoa:foaf")))
	require.Equal(t, 1, rec.total(uri))
	diag := rec.of(uri, ReasonSemantic)[0]
	assert.Equal(t, lang.CodeUnknownPrefix, diag.Code)
	assert.Contains(t, diag.Message, "'foa:'")

	require.NoError(t, w.Change(ctx, uri, 3, whole("@prefix foaf: <>.\nfoa")))
	assert.Equal(t, 2, rec.total(uri))
	assert.Len(t, rec.of(uri, ReasonSyntax), 2)
	assert.Empty(t, rec.of(uri, ReasonSemantic), "semantic reason replaced independently")
}

func TestWorkspace_Lifecycle(t *testing.T) {
	ctx := context.Background()
	loader := &fakeLoader{}
	w, rec := newWorkspace(t, Options{Loader: loader, MaxDocuments: 2})

	err := w.Open(ctx, "file:///notes.txt", "", 1, "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedLanguage))

	require.NoError(t, w.Open(ctx, "file:///a.ttl", "", 1, "@prefix foaf: <http://xmlns.com/foaf/0.1/>.\nfoaf:me foaf:name \"me\" ."))
	require.NoError(t, w.Open(ctx, "file:///q.rq", "sparql", 1, "SELECT ?s WHERE { ?s ?p ?o }"))

	err = w.Open(ctx, "file:///c.ttl", "", 1, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	assert.Equal(t, []string{"http://xmlns.com/foaf/0.1/"}, loader.requested)
	snap := w.Snapshot()
	assert.Equal(t, []string{"file:///a.ttl", "file:///q.rq"}, snap.Sources())

	n, err := Query(ctx, w, "file:///a.ttl", func(v View) (int, error) {
		assert.Len(t, v.Documents(), 2)
		_, ok := v.Document("file:///q.rq")
		assert.True(t, ok)
		return len(v.Doc.Derived.Triples), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = Query(ctx, w, "file:///missing.ttl", func(View) (int, error) { return 0, nil })
	assert.True(t, errors.Is(err, errors.ErrUnknownDocument))

	err = w.Change(ctx, "file:///missing.ttl", 2, whole(""))
	assert.True(t, errors.IsNotFoundError(err))

	require.NoError(t, w.Change(ctx, "file:///a.ttl", 2, whole("foaf:me foaf:name \"me\" .")))
	assert.Equal(t, 2, rec.total("file:///a.ttl"), "prefix declaration removed")

	require.NoError(t, w.Close(ctx, "file:///a.ttl"))
	assert.Equal(t, 0, rec.total("file:///a.ttl"), "closing clears diagnostics")
	assert.Equal(t, []string{"file:///q.rq"}, w.Snapshot().Sources())
	assert.Error(t, w.Close(ctx, "file:///a.ttl"))
}

func TestWorkspace_VocabularyValidationOnSave(t *testing.T) {
	ctx := context.Background()
	w, rec := newWorkspace(t, Options{ValidateOnSave: true})
	const ns = "http://xmlns.com/foaf/0.1/"
	const uri = "file:///a.ttl"

	require.NoError(t, w.Open(ctx, uri, "", 1, "@prefix foaf: <http://xmlns.com/foaf/0.1/>.\nfoaf:me foaf:nam \"me\" ."))
	require.NoError(t, w.Save(ctx, uri, nil))
	assert.Empty(t, rec.of(uri, ReasonVocabulary), "no vocabulary loaded yet")

	v, err := vocab.Parse(ns, ns, "text/turtle", []byte("@prefix foaf: <http://xmlns.com/foaf/0.1/>.\nfoaf:name a <http://www.w3.org/2002/07/owl#DatatypeProperty> ."))
	require.NoError(t, err)
	w.InstallVocabulary(v)
	require.NoError(t, w.Sync(ctx))
	_, ok := w.Snapshot().Vocabulary(ns)
	require.True(t, ok)

	require.NoError(t, w.Save(ctx, uri, nil))
	diags := rec.of(uri, ReasonVocabulary)
	require.Len(t, diags, 1)
	assert.Equal(t, lang.CodeUnknownTerm, diags[0].Code)

	fixed := "@prefix foaf: <http://xmlns.com/foaf/0.1/>.\nfoaf:me foaf:name \"me\" ."
	require.NoError(t, w.Save(ctx, uri, &fixed))
	assert.Empty(t, rec.of(uri, ReasonVocabulary))
}

func TestWorkspace_ConcurrentProducers(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkspace(t, Options{})
	const uri = "file:///a.ttl"
	require.NoError(t, w.Open(ctx, uri, "", 1, ""))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				assert.NoError(t, w.Change(ctx, uri, int32(i*10+j), whole("<http://a> <http://b> <http://c> .")))
				_, err := Query(ctx, w, uri, func(v View) (int, error) {
					return len(v.Doc.Derived.Triples), nil
				})
				assert.NoError(t, err)
				snap := w.Snapshot()
				assert.NotNil(t, snap)
			}
		}(i)
	}
	wg.Wait()

	triples, err := Query(ctx, w, uri, func(v View) ([]rdf.Triple, error) {
		return v.Doc.Derived.Triples, nil
	})
	require.NoError(t, err)
	assert.Len(t, triples, 1)
}

func TestWorkspace_Stopped(t *testing.T) {
	ctx := context.Background()
	w := NewWorkspace(nil, Options{}, nil)
	assert.True(t, errors.Is(w.Open(ctx, "file:///a.ttl", "", 1, ""), errors.ErrClosed), "not started")

	w.Start(ctx)
	w.Stop()
	assert.True(t, errors.Is(w.Sync(ctx), errors.ErrClosed))
}

func TestWorkspace_QueryPanicBecomesError(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkspace(t, Options{})
	require.NoError(t, w.Open(ctx, "file:///a.ttl", "", 1, ""))

	_, err := Query(ctx, w, "file:///a.ttl", func(View) (int, error) {
		var m map[string]int
		m["x"]++
		return 0, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
	require.NoError(t, w.Sync(ctx), "loop survives")
}
