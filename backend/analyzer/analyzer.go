// Package analyzer walks a tokenized document against its resolved
// symbol table and produces the full diagnostic list.
package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Fy-nite/masm-lsp/backend/model"
	"github.com/Fy-nite/masm-lsp/backend/parser"
	"github.com/Fy-nite/masm-lsp/backend/resolver"
)

// diagnosticSource tags every diagnostic this engine emits.
const diagnosticSource = "masm"

// entryLabel is the conventional entry point, exempt from the
// unused-symbol sweep.
const entryLabel = "main"

// maxSuggestionDistance bounds the edit distance for typo suggestions.
const maxSuggestionDistance = 2

// Analyzer runs the diagnostic pass. It holds no per-document state;
// one value can analyze any number of documents.
type Analyzer struct {
	Resolver *resolver.Resolver
	Natives  map[string]model.NativeSignature
}

// New returns an Analyzer resolving symbols through res. natives may
// be nil when no native declarations are loaded.
func New(res *resolver.Resolver, natives map[string]model.NativeSignature) *Analyzer {
	return &Analyzer{Resolver: res, Natives: natives}
}

// collector accumulates diagnostics up to a configured cap. Once full,
// further findings are dropped but everything collected is kept.
type collector struct {
	diags []model.Diagnostic
	max   int
}

func (c *collector) full() bool { return len(c.diags) >= c.max }

func (c *collector) add(d model.Diagnostic) {
	if c.full() {
		return
	}
	d.Source = diagnosticSource
	c.diags = append(c.diags, d)
}

func (c *collector) errorAt(rng model.Range, msg string) {
	c.add(model.Diagnostic{Severity: model.SeverityError, Range: rng, Message: msg})
}

func (c *collector) warnAt(rng model.Range, msg string) {
	c.add(model.Diagnostic{Severity: model.SeverityWarning, Range: rng, Message: msg})
}

// Analyze produces the ordered diagnostic list for one document. code
// is the current text of doc; settings supplies the include search
// path and the diagnostic cap. The resolved symbol table comes from
// the Resolver, so callers must invalidate its cache before analyzing
// edited text.
func (a *Analyzer) Analyze(doc, code string, settings model.Settings) []model.Diagnostic {
	if settings.MaxNumberOfProblems <= 0 {
		settings.MaxNumberOfProblems = model.DefaultSettings().MaxNumberOfProblems
	}
	c := &collector{max: settings.MaxNumberOfProblems}

	info := a.Resolver.Resolve(doc, settings.IncludePath)
	for _, d := range info.IncludeErrors {
		c.add(d)
	}

	usedLabels := make(map[string]bool)
	usedAddrs := make(map[string]bool)

	unreachable := false
	var unreachableFrom string
	var unreachableLine int

	lines := strings.Split(code, "\n")
	for i, raw := range lines {
		if c.full() {
			break
		}
		trimmed := strings.TrimSpace(parser.StripComment(raw))
		if trimmed == "" || strings.HasPrefix(trimmed, "#include") {
			continue
		}

		tokens := parser.Tokenize(raw)
		if len(tokens) == 0 {
			continue
		}
		mnemonic := strings.ToUpper(tokens[0].Text)
		args := tokens[1:]

		// Labels are valid jump and fall-through targets, so a label
		// definition ends an unreachable region.
		if mnemonic == "LBL" {
			unreachable = false
		} else if unreachable {
			c.warnAt(lineRange(i, raw), fmt.Sprintf(
				"unreachable code: %s on line %d never falls through",
				unreachableFrom, unreachableLine+1))
		}

		switch mnemonic {
		case "LBL":
			a.checkLabelDefinition(c, doc, i, args, info)
		case "DB":
			a.checkDataDefinition(c, doc, i, args, info)
		}

		spec, known := parser.Lookup(mnemonic)
		if !known {
			d := model.Diagnostic{
				Severity: model.SeverityError,
				Range:    tokenRange(i, tokens[0]),
				Message:  fmt.Sprintf("unknown instruction %q", tokens[0].Text),
			}
			if match, ok := closestMnemonic(tokens[0].Text); ok {
				d.Message += fmt.Sprintf(", did you mean %q?", match)
				d.Suggestion = &model.Suggestion{Replacement: match}
			}
			c.add(d)
			continue
		}

		if !arityOK(spec, len(args)) {
			c.errorAt(tokenRange(i, tokens[0]), arityMessage(mnemonic, spec, len(args)))
		}

		for _, rule := range rulesFor(mnemonic) {
			if rule.pos >= len(args) {
				continue
			}
			arg := args[rule.pos]
			if !rule.satisfies(arg.Text) {
				c.errorAt(tokenRange(i, arg), fmt.Sprintf(
					"%s operand %d must be %s, got %q", mnemonic, rule.pos+1, rule.want, arg.Text))
			}
		}

		switch mnemonic {
		case "MNI":
			a.checkNativeCall(c, i, args, usedLabels, usedAddrs)
		case "LBL", "DB":
			// definition operands were checked above
		default:
			a.classifyArgs(c, i, mnemonic, args, info, usedLabels, usedAddrs)
		}

		if parser.IsTerminator(mnemonic) {
			unreachable = true
			unreachableFrom = mnemonic
			unreachableLine = i
		}
	}

	a.sweepUnused(c, doc, info, usedLabels, usedAddrs)
	return c.diags
}

// checkLabelDefinition validates an LBL line and reports same-document
// redefinitions against the resolved table, which keeps the first
// textual occurrence.
func (a *Analyzer) checkLabelDefinition(c *collector, doc string, line int, args []parser.Token, info *model.DocumentInfo) {
	if len(args) == 0 {
		return // arity check reports the missing name
	}
	name := args[0].Text
	if !parser.IsValidLabelName(name) {
		c.errorAt(tokenRange(line, args[0]), fmt.Sprintf("invalid label name %q", name))
		return
	}
	if sym, ok := info.Labels[name]; ok && sym.Document == doc && sym.Line != line {
		c.warnAt(tokenRange(line, args[0]), fmt.Sprintf(
			"label %q is already defined on line %d", name, sym.Line+1))
	}
}

// checkDataDefinition validates a DB line's address operand and reports
// same-document redefinitions.
func (a *Analyzer) checkDataDefinition(c *collector, doc string, line int, args []parser.Token, info *model.DocumentInfo) {
	if len(args) == 0 {
		return
	}
	addr := args[0].Text
	if !parser.IsValidAddress(addr) {
		c.errorAt(tokenRange(line, args[0]), fmt.Sprintf("invalid data address %q", addr))
		return
	}
	if sym, ok := info.DataAddresses[addr]; ok && sym.Document == doc && sym.Line != line {
		c.warnAt(tokenRange(line, args[0]), fmt.Sprintf(
			"data address %q is already defined on line %d", addr, sym.Line+1))
	}
}

// classifyArgs type-checks every argument of an ordinary instruction:
// bare tokens must be registers or immediates, #tokens well-formed
// (and resolvable for control transfers), $tokens valid addressing
// expressions. Referenced labels and addresses are recorded for the
// unused sweep.
func (a *Analyzer) classifyArgs(c *collector, line int, mnemonic string, args []parser.Token, info *model.DocumentInfo, usedLabels, usedAddrs map[string]bool) {
	for _, arg := range args {
		text := arg.Text
		switch {
		case strings.HasPrefix(text, "#"):
			name := text[1:]
			if !parser.IsValidLabelName(name) {
				c.errorAt(tokenRange(line, arg), fmt.Sprintf("invalid label reference %q", text))
				continue
			}
			usedLabels[name] = true
			if parser.IsControlTransfer(mnemonic) {
				if _, ok := info.Labels[name]; !ok {
					d := model.Diagnostic{
						Severity: model.SeverityError,
						Range:    tokenRange(line, arg),
						Message:  fmt.Sprintf("undefined label %q", name),
					}
					if match, ok := closestLabel(name, info); ok {
						d.Message += fmt.Sprintf(", did you mean %q?", match)
						d.Suggestion = &model.Suggestion{Replacement: "#" + match}
					}
					c.add(d)
				}
			}
		case strings.HasPrefix(text, "$"):
			if !parser.IsValidAddress(text) {
				c.errorAt(tokenRange(line, arg), fmt.Sprintf("invalid memory address %q", text))
				continue
			}
			usedAddrs[text] = true
			if parser.IsOutputClass(mnemonic) {
				if _, ok := info.DataAddresses[text]; !ok {
					c.warnAt(tokenRange(line, arg), fmt.Sprintf(
						"address %q is not defined by any DB in scope", text))
				}
			}
		case isImmediate(text), strings.HasPrefix(text, `"`):
			// numbers and string literals need no symbol checks
		default:
			if !parser.IsRegister(text) {
				c.errorAt(tokenRange(line, arg), fmt.Sprintf("unknown register %q", text))
			}
		}
	}
}

// checkNativeCall validates an MNI line against the external signature
// table: the qualified name must be declared, the argument count must
// match, and each argument must satisfy its declared kind.
func (a *Analyzer) checkNativeCall(c *collector, line int, args []parser.Token, usedLabels, usedAddrs map[string]bool) {
	if len(args) == 0 {
		return // arity check reports the missing name
	}
	name := args[0]
	if !isQualifiedName(name.Text) {
		c.errorAt(tokenRange(line, name), fmt.Sprintf("invalid native function name %q", name.Text))
		return
	}
	sig, ok := a.Natives[name.Text]
	if !ok {
		c.errorAt(tokenRange(line, name), fmt.Sprintf("unknown native function %q", name.Text))
		return
	}

	rest := args[1:]
	if len(rest) != len(sig.Args) {
		c.errorAt(tokenRange(line, name), fmt.Sprintf(
			"%s expects %d arguments, got %d", name.Text, len(sig.Args), len(rest)))
		return
	}
	for i, want := range sig.Args {
		arg := rest[i]
		if strings.HasPrefix(arg.Text, "#") && parser.IsValidLabelName(arg.Text[1:]) {
			usedLabels[arg.Text[1:]] = true
		}
		if strings.HasPrefix(arg.Text, "$") && parser.IsValidAddress(arg.Text) {
			usedAddrs[arg.Text] = true
		}
		if !nativeArgOK(want.Kind, arg.Text) {
			c.errorAt(tokenRange(line, arg), fmt.Sprintf(
				"%s argument %d must be %s, got %q", name.Text, i+1, want.Kind, arg.Text))
		}
	}
}

func nativeArgOK(kind, arg string) bool {
	switch kind {
	case "register":
		return parser.IsRegister(arg)
	case "memory":
		return parser.IsValidAddress(arg)
	case "immediate":
		return isImmediate(arg)
	case "label":
		return strings.HasPrefix(arg, "#") && parser.IsValidLabelName(arg[1:])
	default: // "any" and unknown kinds accept everything
		return true
	}
}

// sweepUnused warns about labels and data addresses defined in this
// document but never referenced. The conventional entry label is
// exempt; symbols merged in from includes are left to their own
// documents' passes.
func (a *Analyzer) sweepUnused(c *collector, doc string, info *model.DocumentInfo, usedLabels, usedAddrs map[string]bool) {
	names := make([]string, 0, len(info.Labels))
	for name := range info.Labels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sym := info.Labels[name]
		if sym.Document != doc || usedLabels[name] || strings.EqualFold(name, entryLabel) {
			continue
		}
		c.warnAt(lineRange(sym.Line, name), fmt.Sprintf("label %q is defined but never used", name))
	}

	addrs := make([]string, 0, len(info.DataAddresses))
	for addr := range info.DataAddresses {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	for _, addr := range addrs {
		sym := info.DataAddresses[addr]
		if sym.Document != doc || usedAddrs[addr] {
			continue
		}
		c.warnAt(lineRange(sym.Line, addr), fmt.Sprintf("data address %q is never referenced", addr))
	}
}

func arityOK(spec parser.Spec, n int) bool {
	if n < spec.Min {
		return false
	}
	return spec.Max == parser.NoMax || n <= spec.Max
}

func arityMessage(mnemonic string, spec parser.Spec, n int) string {
	switch {
	case spec.Max == parser.NoMax:
		return fmt.Sprintf("%s expects at least %d %s, got %d", mnemonic, spec.Min, plural(spec.Min), n)
	case spec.Min == spec.Max:
		return fmt.Sprintf("%s expects %d %s, got %d", mnemonic, spec.Min, plural(spec.Min), n)
	default:
		return fmt.Sprintf("%s expects %d to %d arguments, got %d", mnemonic, spec.Min, spec.Max, n)
	}
}

func plural(n int) string {
	if n == 1 {
		return "argument"
	}
	return "arguments"
}

// closestMnemonic suggests a known instruction for a typo. Candidates
// are sorted so ties resolve deterministically.
func closestMnemonic(input string) (string, bool) {
	candidates := parser.Mnemonics()
	sort.Strings(candidates)
	return parser.ClosestMatch(input, candidates, maxSuggestionDistance)
}

func closestLabel(input string, info *model.DocumentInfo) (string, bool) {
	candidates := make([]string, 0, len(info.Labels))
	for name := range info.Labels {
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)
	return parser.ClosestMatch(input, candidates, maxSuggestionDistance)
}

func isQualifiedName(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts {
		if !parser.IsValidLabelName(part) {
			return false
		}
	}
	return true
}

func tokenRange(line int, tok parser.Token) model.Range {
	return model.Range{
		Start: model.Position{Line: line, Column: tok.Column},
		End:   model.Position{Line: line, Column: tok.Column + len(tok.Text)},
	}
}

func lineRange(line int, text string) model.Range {
	return model.Range{
		Start: model.Position{Line: line},
		End:   model.Position{Line: line, Column: len(text)},
	}
}
