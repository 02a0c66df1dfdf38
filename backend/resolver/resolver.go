package resolver

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Fy-nite/masm-lsp/backend/model"
	"github.com/Fy-nite/masm-lsp/backend/parser"
)

// maxIncludeDepth bounds include recursion beyond cycle detection so a
// pathological acyclic chain cannot exhaust the stack.
const maxIncludeDepth = 64

// Resolver builds the unified symbol table of a document and its
// transitive includes. Results are cached per document identifier; the
// owning session invalidates on edits and watched-file changes.
type Resolver struct {
	src Source

	mu    sync.Mutex
	cache map[string]*model.DocumentInfo
}

// New returns a Resolver reading documents from src.
func New(src Source) *Resolver {
	return &Resolver{src: src, cache: make(map[string]*model.DocumentInfo)}
}

// Resolve parses doc and its transitive #includes into one
// DocumentInfo. includePath, when non-empty, is the directory searched
// first for include targets; otherwise the including file's own
// directory is used. Resolution never fails: unreadable or cyclic
// includes become diagnostics in IncludeErrors.
func (r *Resolver) Resolve(doc string, includePath string) *model.DocumentInfo {
	doc = filepath.Clean(doc)

	r.mu.Lock()
	if info, ok := r.cache[doc]; ok {
		r.mu.Unlock()
		return info
	}
	r.mu.Unlock()

	visiting := map[string]bool{doc: true}
	info := r.resolve(doc, includePath, visiting, 0)

	r.mu.Lock()
	r.cache[doc] = info
	r.mu.Unlock()
	return info
}

// Invalidate drops the cached result for one document identifier.
func (r *Resolver) Invalidate(doc string) {
	r.mu.Lock()
	delete(r.cache, filepath.Clean(doc))
	r.mu.Unlock()
}

// InvalidateAll drops every cached result. Used on watched-file-change
// notifications; tracking fine-grained include dependents is not worth
// the bookkeeping.
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[string]*model.DocumentInfo)
	r.mu.Unlock()
}

// resolve is the recursive worker. visiting holds the documents on the
// current include path only; each recursive call gets its own copy so
// a document reachable along two independent paths resolves twice
// instead of being flagged as a cycle.
func (r *Resolver) resolve(doc, includePath string, visiting map[string]bool, depth int) *model.DocumentInfo {
	info := model.NewDocumentInfo()

	text, err := r.src.ReadFile(doc)
	if err != nil {
		info.IncludeErrors = append(info.IncludeErrors, includeError(0, 0, fmt.Sprintf("cannot read %s: %v", doc, err)))
		return info
	}

	lines := strings.Split(text, "\n")
	for i, raw := range lines {
		trimmed := strings.TrimSpace(parser.StripComment(raw))
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "#include") {
			r.resolveInclude(doc, raw, i, trimmed, includePath, visiting, depth, info)
			continue
		}

		tokens := parser.Tokenize(raw)
		if len(tokens) < 2 {
			continue
		}
		switch strings.ToUpper(tokens[0].Text) {
		case "LBL":
			name := tokens[1].Text
			if _, exists := info.Labels[name]; !exists {
				info.Labels[name] = model.Symbol{
					Name:     name,
					Kind:     model.KindLabel,
					Line:     i,
					Document: doc,
				}
			}
		case "DB":
			addr := tokens[1].Text
			if _, exists := info.DataAddresses[addr]; !exists {
				info.DataAddresses[addr] = model.Symbol{
					Name:     addr,
					Kind:     model.KindData,
					Line:     i,
					Document: doc,
					Size:     dataSize(tokens),
				}
			}
		}
	}
	return info
}

// resolveInclude handles one #include line: locate the target, guard
// against cycles and runaway depth, recurse, and fold the included
// symbols into info first-definition-wins.
func (r *Resolver) resolveInclude(doc, raw string, line int, trimmed, includePath string, visiting map[string]bool, depth int, info *model.DocumentInfo) {
	parts := strings.SplitN(trimmed, "\"", 3)
	if len(parts) < 3 {
		info.IncludeErrors = append(info.IncludeErrors, includeError(line, len(raw), fmt.Sprintf("invalid include directive: %s", trimmed)))
		return
	}
	name := parts[1]

	target, ok := r.findInclude(doc, name, includePath)
	if !ok {
		info.IncludeErrors = append(info.IncludeErrors, includeError(line, len(raw), fmt.Sprintf("cannot resolve include %q", name)))
		return
	}

	if visiting[target] {
		info.IncludeErrors = append(info.IncludeErrors, includeError(line, len(raw), fmt.Sprintf("circular include of %q", name)))
		return
	}
	if depth+1 > maxIncludeDepth {
		info.IncludeErrors = append(info.IncludeErrors, includeError(line, len(raw), fmt.Sprintf("include depth exceeded (%d) at %q", maxIncludeDepth, name)))
		return
	}

	next := make(map[string]bool, len(visiting)+1)
	for k := range visiting {
		next[k] = true
	}
	next[target] = true

	included := r.resolve(target, includePath, next, depth+1)
	for _, d := range included.IncludeErrors {
		info.IncludeErrors = append(info.IncludeErrors, includeError(line, len(raw), fmt.Sprintf("in included file %q: %s", name, d.Message)))
	}
	for key, sym := range included.Labels {
		if _, exists := info.Labels[key]; !exists {
			info.Labels[key] = sym
		}
	}
	for key, sym := range included.DataAddresses {
		if _, exists := info.DataAddresses[key]; !exists {
			info.DataAddresses[key] = sym
		}
	}
}

// findInclude resolves an include name against the configured include
// directory first, then the including file's directory. First existing
// file wins.
func (r *Resolver) findInclude(doc, name, includePath string) (string, bool) {
	var candidates []string
	if includePath != "" {
		candidates = append(candidates, filepath.Join(includePath, name))
	}
	candidates = append(candidates, filepath.Join(filepath.Dir(doc), name))
	for _, cand := range candidates {
		if r.src.Exists(cand) {
			return filepath.Clean(cand), true
		}
	}
	return "", false
}

// dataSize computes the declared byte size of a DB definition: the
// unquoted string length plus the terminating null, or zero when the
// operand is not a quoted literal.
func dataSize(tokens []parser.Token) int {
	if len(tokens) < 3 {
		return 0
	}
	lit := tokens[2].Text
	if len(lit) < 2 || lit[0] != '"' || lit[len(lit)-1] != '"' {
		return 0
	}
	if unquoted, err := strconv.Unquote(lit); err == nil {
		return len(unquoted) + 1
	}
	return len(lit) - 2 + 1
}

func includeError(line, width int, msg string) model.Diagnostic {
	return model.Diagnostic{
		Severity: model.SeverityError,
		Range: model.Range{
			Start: model.Position{Line: line},
			End:   model.Position{Line: line, Column: width},
		},
		Message: msg,
		Source:  "masm",
	}
}
