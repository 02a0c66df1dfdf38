package analyzer

import (
	"strconv"
	"strings"

	"github.com/Fy-nite/masm-lsp/backend/parser"
)

// operandKind constrains what may appear at one argument position.
type operandKind int

const (
	kindAny operandKind = iota
	kindRegister
	kindRegisterOrMemory
	kindImmediate
)

// operandRule is one declarative per-position constraint. Rules are
// evaluated uniformly by the engine instead of per-mnemonic branches.
type operandRule struct {
	pos   int
	kind  operandKind
	check func(arg string) bool // optional extra predicate
	want  string                // what the message should say is expected
}

// operandRules holds the per-instruction operand constraints.
var operandRules = map[string][]operandRule{
	"POP":    {{pos: 0, kind: kindRegister, want: "a register"}},
	"INC":    {{pos: 0, kind: kindRegister, want: "a register"}},
	"DEC":    {{pos: 0, kind: kindRegister, want: "a register"}},
	"NOT":    {{pos: 0, kind: kindRegister, want: "a register"}},
	"IN":     {{pos: 0, kind: kindRegister, want: "a register"}},
	"ARGC":   {{pos: 0, kind: kindRegister, want: "a register"}},
	"GETARG": {{pos: 0, kind: kindRegister, want: "a register"}},
	"MOV":    {{pos: 0, kind: kindRegisterOrMemory, want: "a register or memory address"}},
	"MOVZX":  {{pos: 0, kind: kindRegister, want: "a register"}},
	"OUT":    {{pos: 0, kind: kindImmediate, want: "port 1 or 2", check: isPort}},
}

func isPort(arg string) bool {
	return arg == "1" || arg == "2"
}

// satisfies reports whether arg meets the rule's kind and predicate.
func (r operandRule) satisfies(arg string) bool {
	switch r.kind {
	case kindRegister:
		if !parser.IsRegister(arg) {
			return false
		}
	case kindRegisterOrMemory:
		if !parser.IsRegister(arg) && !parser.IsValidAddress(arg) {
			return false
		}
	case kindImmediate:
		if !isImmediate(arg) {
			return false
		}
	}
	if r.check != nil {
		return r.check(arg)
	}
	return true
}

func isImmediate(arg string) bool {
	_, err := strconv.ParseInt(arg, 0, 64)
	return err == nil
}

func rulesFor(mnemonic string) []operandRule {
	return operandRules[strings.ToUpper(mnemonic)]
}
