package server

import (
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/teranos/semls/document"
)

// publisher turns workspace reports into publishDiagnostics notifications.
// The workspace replaces diagnostics per reason; LSP replaces them per
// document, so the latest set of every reason is kept and the union sent.
type publisher struct {
	mu     sync.Mutex
	notify glsp.NotifyFunc
	latest map[string]map[document.Reason][]protocol.Diagnostic
}

func newPublisher() *publisher {
	return &publisher{latest: make(map[string]map[document.Reason][]protocol.Diagnostic)}
}

// attach sets the connection notifications go to. Reports that arrive
// before attach are merged but not sent.
func (p *publisher) attach(notify glsp.NotifyFunc) {
	p.mu.Lock()
	p.notify = notify
	p.mu.Unlock()
}

func (p *publisher) Publish(r document.Report) {
	diags := make([]protocol.Diagnostic, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		diags[i] = toDiagnostic(d, r.Lines)
	}

	p.mu.Lock()
	byReason, ok := p.latest[r.URI]
	if !ok {
		byReason = make(map[document.Reason][]protocol.Diagnostic)
		p.latest[r.URI] = byReason
	}
	if len(diags) == 0 {
		delete(byReason, r.Reason)
	} else {
		byReason[r.Reason] = diags
	}

	all := []protocol.Diagnostic{}
	for _, reason := range document.Reasons {
		all = append(all, byReason[reason]...)
	}
	if len(byReason) == 0 {
		delete(p.latest, r.URI)
	}
	notify := p.notify
	p.mu.Unlock()

	if notify == nil {
		return
	}
	version := protocol.UInteger(r.Version)
	notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(r.URI),
		Version:     &version,
		Diagnostics: all,
	})
}
