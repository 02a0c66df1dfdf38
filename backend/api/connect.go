package api

import (
	"context"
	"encoding/json"
	"sort"

	"connectrpc.com/connect"
	"golang.org/x/tools/txtar"

	"github.com/Fy-nite/masm-lsp/backend/analyzer"
	"github.com/Fy-nite/masm-lsp/backend/config"
	"github.com/Fy-nite/masm-lsp/backend/model"
	"github.com/Fy-nite/masm-lsp/backend/resolver"
)

// defaultDocumentName is used when a single-format request carries no
// URI.
const defaultDocumentName = "main.masm"

// AnalyzerServiceHandler implements the Connect RPC AnalyzerService
type AnalyzerServiceHandler struct {
	settings *config.Store
	natives  map[string]model.NativeSignature
}

// NewAnalyzerServiceHandler creates a new AnalyzerServiceHandler.
// natives may be nil when no native declarations are loaded.
func NewAnalyzerServiceHandler(settings *config.Store, natives map[string]model.NativeSignature) *AnalyzerServiceHandler {
	if settings == nil {
		settings = config.NewStore(model.DefaultSettings())
	}
	return &AnalyzerServiceHandler{settings: settings, natives: natives}
}

// Analyze handles the Analyze RPC method
func (h *AnalyzerServiceHandler) Analyze(
	ctx context.Context,
	req *connect.Request[model.AnalyzeRequest],
) (*connect.Response[model.AnalyzeResponse], error) {
	if req.Msg.Code == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, nil)
	}

	if req.Msg.Format == "" {
		req.Msg.Format = "single"
	}

	var (
		src  resolver.Source
		doc  string
		code string
	)
	switch req.Msg.Format {
	case "single":
		doc = req.Msg.URI
		if doc == "" {
			doc = defaultDocumentName
		}
		code = req.Msg.Code
		ws := resolver.NewWorkspaceSource(resolver.DiskSource{})
		ws.Put(doc, code)
		src = ws

	case "txtar":
		archive := txtar.Parse([]byte(req.Msg.Code))
		if len(archive.Files) == 0 {
			return nil, connect.NewError(connect.CodeInvalidArgument, nil)
		}
		ws := resolver.NewWorkspaceSource(nil)
		for _, file := range archive.Files {
			ws.Put(file.Name, string(file.Data))
		}
		doc = req.Msg.URI
		if doc == "" {
			doc = archive.Files[0].Name
		}
		text, err := ws.ReadFile(doc)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		code = text
		src = ws

	default:
		return nil, connect.NewError(connect.CodeUnimplemented, nil)
	}

	settings := h.settings.For(doc)
	if req.Msg.Settings != nil {
		settings = *req.Msg.Settings
	}

	res := resolver.New(src)
	a := analyzer.New(res, h.natives)
	diags := a.Analyze(doc, code, settings)
	info := res.Resolve(doc, settings.IncludePath)

	response := &model.AnalyzeResponse{
		Diagnostics:   diags,
		Labels:        sortedSymbols(info.Labels),
		DataAddresses: sortedSymbols(info.DataAddresses),
	}
	return connect.NewResponse(response), nil
}

func sortedSymbols(table map[string]model.Symbol) []model.Symbol {
	out := make([]model.Symbol, 0, len(table))
	for _, sym := range table {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AnalyzeRequestCodec implements custom JSON codec for AnalyzeRequest
type AnalyzeRequestCodec struct{}

func (c *AnalyzeRequestCodec) Name() string {
	return "json"
}

func (c *AnalyzeRequestCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (c *AnalyzeRequestCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
