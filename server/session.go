package server

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/semls/am"
	"github.com/teranos/semls/document"
	"github.com/teranos/semls/lsp"
	"github.com/teranos/semls/vocab"
)

// Session is the state of one editor connection: its own workspace, the
// query service over it and, when enabled, a vocabulary loader feeding it.
// Sessions share Resources but nothing else.
type Session struct {
	cfg       *am.Config
	workspace *document.Workspace
	service   *lsp.Service
	loader    *vocab.Loader
	logger    *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession wires a workspace to sink. Call Start before use.
func NewSession(cfg *am.Config, res *Resources, sink document.Sink, log *zap.SugaredLogger) *Session {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	opts := document.Options{
		MaxDocuments:   cfg.MaxDocuments(),
		ValidateOnSave: cfg.Workspace.ValidateOnSave,
	}

	var loader *vocab.Loader
	if cfg.Vocab.Enabled && res != nil && res.Fetcher != nil {
		loader = vocab.NewLoader(vocab.Options{
			Fetcher:   res.Fetcher,
			Cache:     res.Cache,
			Overrides: cfg.OverrideMap(),
			Timeout:   cfg.VocabTimeout(),
		}, log.Named("vocab"))
		opts.Loader = loader
	}

	ws := document.NewWorkspace(sink, opts, log.Named("workspace"))
	if loader != nil {
		loader.OnLoad(ws.InstallVocabulary)
	}
	return &Session{
		cfg:       cfg,
		workspace: ws,
		service:   lsp.NewService(ws, log.Named("lsp")),
		loader:    loader,
		logger:    log,
	}
}

// Start runs the workspace loop until Stop or until parent is cancelled.
func (s *Session) Start(parent context.Context) {
	s.ctx, s.cancel = context.WithCancel(parent)
	s.workspace.Start(s.ctx)
}

// Stop cancels outstanding fetches, then stops the workspace loop.
func (s *Session) Stop() {
	if s.loader != nil {
		s.loader.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.workspace.Stop()
}

func (s *Session) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Session) Config() *am.Config { return s.cfg }
func (s *Session) Service() *lsp.Service { return s.service }
func (s *Session) Workspace() *document.Workspace { return s.workspace }
