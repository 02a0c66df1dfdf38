package model

// Position represents a position in source code (0-based editor coordinates)
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range represents a span of source code
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Severity of a diagnostic
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Suggestion is an optional fix-it payload attached to a diagnostic.
// A quick-fix applier replaces the diagnosed range with Replacement.
type Suggestion struct {
	Replacement string `json:"replacement"`
}

// Diagnostic represents a single analysis finding
type Diagnostic struct {
	Severity   Severity    `json:"severity"`
	Range      Range       `json:"range"`
	Message    string      `json:"message"`
	Source     string      `json:"source"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
}

// SymbolKind distinguishes label symbols from data-address symbols
type SymbolKind string

const (
	KindLabel SymbolKind = "label"
	KindData  SymbolKind = "data"
)

// Symbol is a label or data address discovered during resolution
type Symbol struct {
	Name     string     `json:"name"`
	Kind     SymbolKind `json:"kind"`
	Line     int        `json:"line"`
	Document string     `json:"document"`
	Size     int        `json:"size,omitempty"` // declared byte size, data addresses only
}

// DocumentInfo is the resolved symbol universe of one document and its
// transitive includes
type DocumentInfo struct {
	Labels        map[string]Symbol `json:"labels"`
	DataAddresses map[string]Symbol `json:"dataAddresses"`
	IncludeErrors []Diagnostic      `json:"includeErrors,omitempty"`
}

// NewDocumentInfo returns an empty DocumentInfo with allocated maps
func NewDocumentInfo() *DocumentInfo {
	return &DocumentInfo{
		Labels:        make(map[string]Symbol),
		DataAddresses: make(map[string]Symbol),
	}
}

// Settings controls analysis behavior, resolved per document with a
// global fallback
type Settings struct {
	MaxNumberOfProblems int    `json:"maxNumberOfProblems"`
	IncludePath         string `json:"includePath,omitempty"`
}

// DefaultSettings returns the global fallback settings
func DefaultSettings() Settings {
	return Settings{MaxNumberOfProblems: 100}
}

// NativeArg describes one expected argument of a native function
type NativeArg struct {
	Kind string `json:"kind"` // "register", "memory", "immediate", "label" or "any"
}

// NativeSignature describes an externally declared native function,
// keyed elsewhere by its qualified "namespace.function" name
type NativeSignature struct {
	Args []NativeArg `json:"args"`
}

// AnalyzeRequest represents a request to analyze MASM source
type AnalyzeRequest struct {
	URI      string    `json:"uri"`
	Code     string    `json:"code"`
	Format   string    `json:"format"` // "single" or "txtar"
	Settings *Settings `json:"settings,omitempty"`
}

// AnalyzeResponse represents the response from analysis
type AnalyzeResponse struct {
	Diagnostics   []Diagnostic `json:"diagnostics"`
	Labels        []Symbol     `json:"labels,omitempty"`
	DataAddresses []Symbol     `json:"dataAddresses,omitempty"`
}
