package server

import (
	"context"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/zap"

	"github.com/teranos/semls/am"
	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/lang/registry"
	"github.com/teranos/semls/logger"
	"github.com/teranos/semls/version"
)

const serverName = "semls"

// errNotInitialized is returned for requests that arrive before initialize.
var errNotInitialized = errors.WithHint(
	errors.Wrap(errors.ErrInvalidRequest, "server not initialized"),
	"send initialize first",
)

// GLSPHandler serves one LSP connection. The session it drives is created
// on initialize, once the editor's initializationOptions are known.
type GLSPHandler struct {
	parent context.Context
	base   *am.Config
	res    *Resources
	logger *zap.SugaredLogger
	diags  *publisher

	mu      sync.Mutex
	session *Session
}

// NewGLSPHandler creates a handler. cfg is the process configuration the
// editor's initializationOptions are merged onto; the session ends when
// ctx is cancelled.
func NewGLSPHandler(ctx context.Context, cfg *am.Config, res *Resources, log *zap.SugaredLogger) *GLSPHandler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &GLSPHandler{
		parent: ctx,
		base:   cfg,
		res:    res,
		logger: log,
		diags:  newPublisher(),
	}
}

// Protocol returns the glsp dispatch table for this handler.
func (h *GLSPHandler) Protocol() *protocol.Handler {
	return &protocol.Handler{
		Initialize:                     h.Initialize,
		Initialized:                    h.Initialized,
		Shutdown:                       h.Shutdown,
		Exit:                           h.Exit,
		SetTrace:                       h.SetTrace,
		TextDocumentDidOpen:            h.TextDocumentDidOpen,
		TextDocumentDidChange:          h.TextDocumentDidChange,
		TextDocumentDidSave:            h.TextDocumentDidSave,
		TextDocumentDidClose:           h.TextDocumentDidClose,
		TextDocumentCompletion:         h.TextDocumentCompletion,
		TextDocumentHover:              h.TextDocumentHover,
		TextDocumentDefinition:         h.TextDocumentDefinition,
		TextDocumentTypeDefinition:     h.TextDocumentTypeDefinition,
		TextDocumentImplementation:     h.TextDocumentImplementation,
		TextDocumentReferences:         h.TextDocumentReferences,
		TextDocumentPrepareRename:      h.TextDocumentPrepareRename,
		TextDocumentRename:             h.TextDocumentRename,
		TextDocumentDocumentSymbol:     h.TextDocumentDocumentSymbol,
		TextDocumentFormatting:         h.TextDocumentFormatting,
		TextDocumentSemanticTokensFull: h.TextDocumentSemanticTokensFull,
	}
}

func (h *GLSPHandler) current() (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return nil, errNotInitialized
	}
	return h.session, nil
}

// Initialize handles the LSP initialize request
func (h *GLSPHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	var client string
	if params.ClientInfo != nil {
		client = params.ClientInfo.Name
	}
	h.logger.Infow("LSP client initializing", "client", client)

	cfg := h.base
	if opts, ok := params.InitializationOptions.(map[string]any); ok && len(opts) > 0 {
		merged, err := am.WithOverrides(h.base, opts)
		if err != nil {
			h.logger.Warnw("Ignoring initializationOptions",
				logger.FieldError, err,
				"hints", errors.GetAllHints(err),
			)
		} else {
			cfg = merged
		}
	}

	h.mu.Lock()
	if h.session != nil {
		h.mu.Unlock()
		return nil, errors.NewInvalidRequestError("initialize sent twice")
	}
	if ctx != nil && ctx.Notify != nil {
		h.diags.attach(ctx.Notify)
	}
	session := NewSession(cfg, h.res, h.diags, h.logger)
	session.Start(h.parent)
	h.session = session
	h.mu.Unlock()

	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities := protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: boolPtr(true),
			Change:    &syncKind,
			Save:      &protocol.SaveOptions{IncludeText: boolPtr(true)},
		},
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{":", "?", "$", "@", "\""},
		},
		HoverProvider:              true,
		DefinitionProvider:         true,
		TypeDefinitionProvider:     true,
		ImplementationProvider:     true,
		ReferencesProvider:         true,
		DocumentSymbolProvider:     true,
		DocumentFormattingProvider: true,
		RenameProvider: &protocol.RenameOptions{
			PrepareProvider: boolPtr(true),
		},
		SemanticTokensProvider: &protocol.SemanticTokensOptions{
			Legend: protocol.SemanticTokensLegend{
				TokenTypes:     registry.Legend().Types(),
				TokenModifiers: []string{},
			},
			Full: true,
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: stringPtrOrNil(version.Get().Version),
		},
	}, nil
}

// Initialized is called after client receives InitializeResult
func (h *GLSPHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	h.logger.Infow("LSP client initialized successfully")
	return nil
}

// Shutdown stops the session. Later requests fail as uninitialized.
func (h *GLSPHandler) Shutdown(ctx *glsp.Context) error {
	h.logger.Infow("LSP client shutting down")
	h.Close()
	return nil
}

func (h *GLSPHandler) Exit(ctx *glsp.Context) error {
	h.Close()
	return nil
}

func (h *GLSPHandler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	h.logger.Debugw("LSP trace level set", "value", params.Value)
	return nil
}

// Close stops the session, if any. It is safe to call more than once.
func (h *GLSPHandler) Close() {
	h.mu.Lock()
	session := h.session
	h.session = nil
	h.mu.Unlock()
	if session != nil {
		session.Stop()
	}
}

// TextDocumentDidOpen handles document open notifications
func (h *GLSPHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s, err := h.current()
	if err != nil {
		return err
	}
	doc := params.TextDocument
	if err := s.Workspace().Open(s.Context(), string(doc.URI), doc.LanguageID, int32(doc.Version), doc.Text); err != nil {
		h.logger.Warnw("Document open rejected",
			logger.FieldURI, doc.URI,
			logger.FieldError, err,
		)
		return err
	}
	return nil
}

// TextDocumentDidChange applies incremental or whole-document changes
func (h *GLSPHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s, err := h.current()
	if err != nil {
		return err
	}
	uri := string(params.TextDocument.URI)
	changes := fromChanges(params.ContentChanges)
	if err := s.Workspace().Change(s.Context(), uri, int32(params.TextDocument.Version), changes); err != nil {
		h.logger.Warnw("Document change failed",
			logger.FieldURI, uri,
			logger.FieldError, err,
		)
		return err
	}
	h.logger.Debugw("Document changed",
		logger.FieldURI, uri,
		"changes", len(changes),
	)
	return nil
}

func (h *GLSPHandler) TextDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s, err := h.current()
	if err != nil {
		return err
	}
	return s.Workspace().Save(s.Context(), string(params.TextDocument.URI), params.Text)
}

// TextDocumentDidClose handles document close notifications
func (h *GLSPHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s, err := h.current()
	if err != nil {
		return err
	}
	return s.Workspace().Close(s.Context(), string(params.TextDocument.URI))
}

// guard runs a query for method. Panics and unknown documents become
// empty, other errors are returned to the editor.
func guard[T any](h *GLSPHandler, method string, uri protocol.DocumentUri, empty T, fn func(*Session) (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("Panic in LSP handler",
				"panic", r,
				logger.FieldMethod, method,
				logger.FieldURI, uri,
			)
			result = empty
			err = nil
		}
	}()

	s, err := h.current()
	if err != nil {
		return empty, err
	}
	out, err := fn(s)
	if err != nil {
		if errors.IsNotFoundError(err) {
			h.logger.Debugw("No result",
				logger.FieldMethod, method,
				logger.FieldURI, uri,
				logger.FieldError, err,
			)
			return empty, nil
		}
		h.logger.Warnw("LSP request failed",
			logger.FieldMethod, method,
			logger.FieldURI, uri,
			logger.FieldError, err,
		)
		return empty, err
	}
	return out, nil
}

// TextDocumentCompletion provides context-aware completions
func (h *GLSPHandler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := params.TextDocument.URI
	return guard(h, "completion", uri, []protocol.CompletionItem{}, func(s *Session) ([]protocol.CompletionItem, error) {
		items, err := s.Service().Completion(s.Context(), string(uri), fromPosition(params.Position))
		if err != nil {
			return nil, err
		}
		h.logger.Debugw("LSP completion result", logger.FieldURI, uri, logger.FieldCount, len(items))
		return toCompletionItems(items), nil
	})
}

// TextDocumentHover provides hover information
func (h *GLSPHandler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI
	return guard[*protocol.Hover](h, "hover", uri, nil, func(s *Session) (*protocol.Hover, error) {
		hover, err := s.Service().Hover(s.Context(), string(uri), fromPosition(params.Position))
		if err != nil {
			return nil, err
		}
		return toHover(hover), nil
	})
}

func (h *GLSPHandler) TextDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	return guard(h, "definition", uri, []protocol.Location{}, func(s *Session) ([]protocol.Location, error) {
		locs, err := s.Service().Definition(s.Context(), string(uri), fromPosition(params.Position))
		if err != nil {
			return nil, err
		}
		return toLocations(locs), nil
	})
}

func (h *GLSPHandler) TextDocumentTypeDefinition(ctx *glsp.Context, params *protocol.TypeDefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	return guard(h, "typeDefinition", uri, []protocol.Location{}, func(s *Session) ([]protocol.Location, error) {
		locs, err := s.Service().TypeDefinition(s.Context(), string(uri), fromPosition(params.Position))
		if err != nil {
			return nil, err
		}
		return toLocations(locs), nil
	})
}

func (h *GLSPHandler) TextDocumentImplementation(ctx *glsp.Context, params *protocol.ImplementationParams) (any, error) {
	uri := params.TextDocument.URI
	return guard(h, "implementation", uri, []protocol.Location{}, func(s *Session) ([]protocol.Location, error) {
		locs, err := s.Service().Implementation(s.Context(), string(uri), fromPosition(params.Position))
		if err != nil {
			return nil, err
		}
		return toLocations(locs), nil
	})
}

func (h *GLSPHandler) TextDocumentReferences(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	return guard(h, "references", uri, []protocol.Location{}, func(s *Session) ([]protocol.Location, error) {
		locs, err := s.Service().References(s.Context(), string(uri), fromPosition(params.Position), params.Context.IncludeDeclaration)
		if err != nil {
			return nil, err
		}
		return toLocations(locs), nil
	})
}

func (h *GLSPHandler) TextDocumentPrepareRename(ctx *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	uri := params.TextDocument.URI
	return guard[any](h, "prepareRename", uri, nil, func(s *Session) (any, error) {
		pr, err := s.Service().PrepareRename(s.Context(), string(uri), fromPosition(params.Position))
		if err != nil || pr == nil {
			return nil, err
		}
		return &protocol.RangeWithPlaceholder{
			Range:       toRange(pr.Range),
			Placeholder: pr.Placeholder,
		}, nil
	})
}

// TextDocumentRename returns an invalid-request error for names that are
// not valid for the renamed token.
func (h *GLSPHandler) TextDocumentRename(ctx *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	uri := params.TextDocument.URI
	return guard[*protocol.WorkspaceEdit](h, "rename", uri, nil, func(s *Session) (*protocol.WorkspaceEdit, error) {
		edit, err := s.Service().Rename(s.Context(), string(uri), fromPosition(params.Position), params.NewName)
		if err != nil {
			return nil, err
		}
		if len(edit) == 0 {
			return nil, nil
		}
		return toWorkspaceEdit(edit), nil
	})
}

func (h *GLSPHandler) TextDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	uri := params.TextDocument.URI
	return guard(h, "documentSymbol", uri, []protocol.DocumentSymbol{}, func(s *Session) ([]protocol.DocumentSymbol, error) {
		symbols, err := s.Service().Symbols(s.Context(), string(uri))
		if err != nil {
			return nil, err
		}
		return toDocumentSymbols(symbols), nil
	})
}

func (h *GLSPHandler) TextDocumentFormatting(ctx *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	uri := params.TextDocument.URI
	return guard(h, "formatting", uri, []protocol.TextEdit{}, func(s *Session) ([]protocol.TextEdit, error) {
		opts := formatOptions(params.Options, s.Config().FormatOptions())
		edits, err := s.Service().Format(s.Context(), string(uri), opts)
		if err != nil {
			return nil, err
		}
		return toTextEdits(edits), nil
	})
}

// TextDocumentSemanticTokensFull handles semantic tokens request for syntax highlighting
func (h *GLSPHandler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	uri := params.TextDocument.URI
	empty := &protocol.SemanticTokens{Data: []protocol.UInteger{}}
	return guard(h, "semanticTokens", uri, empty, func(s *Session) (*protocol.SemanticTokens, error) {
		data, err := s.Service().SemanticTokens(s.Context(), string(uri))
		if err != nil {
			return nil, err
		}
		out := make([]protocol.UInteger, len(data))
		for i, v := range data {
			out[i] = protocol.UInteger(v)
		}
		h.logger.Debugw("LSP semantic tokens result", logger.FieldURI, uri, logger.FieldCount, len(out)/5)
		return &protocol.SemanticTokens{Data: out}, nil
	})
}
