package parser

import "strings"

// NoMax marks an instruction that accepts any number of arguments at
// or above its minimum.
const NoMax = -1

// Spec gives the argument-count contract of one instruction.
type Spec struct {
	Min int
	Max int // NoMax = unbounded
}

// Specs maps every known mnemonic to its arity. Read-only after init.
var Specs = map[string]Spec{
	// data movement
	"MOV":   {2, 2},
	"MOVZX": {2, 2},

	// arithmetic: two-operand form accumulates into the first operand,
	// three-operand form names an explicit destination
	"ADD": {2, 3},
	"SUB": {2, 3},
	"MUL": {2, 3},
	"DIV": {2, 3},
	"MOD": {2, 3},
	"INC": {1, 1},
	"DEC": {1, 1},

	// logic and shifts
	"AND": {2, 3},
	"OR":  {2, 3},
	"XOR": {2, 3},
	"NOT": {1, 1},
	"SHL": {2, 3},
	"SHR": {2, 3},
	"CMP": {2, 2},

	// control flow
	"JMP":  {1, 1},
	"JEQ":  {1, 1},
	"JNE":  {1, 1},
	"JLT":  {1, 1},
	"JGT":  {1, 1},
	"JLE":  {1, 1},
	"JGE":  {1, 1},
	"JZ":   {1, 1},
	"JNZ":  {1, 1},
	"CALL": {1, 1},
	"RET":  {0, 0},
	"HLT":  {0, 0},
	"EXIT": {0, 1},

	// stack
	"PUSH":  {1, 1},
	"POP":   {1, 1},
	"ENTER": {0, 0},
	"LEAVE": {0, 0},

	// I/O
	"OUT":     {2, 2},
	"COUT":    {1, 2},
	"OUTSTR":  {2, 3},
	"OUTCHAR": {2, 2},
	"IN":      {2, 2},

	// memory block ops
	"COPY":    {3, 3},
	"FILL":    {3, 3},
	"CMP_MEM": {3, 3},

	// program arguments
	"ARGC":   {1, 1},
	"GETARG": {2, 2},

	// definitions
	"LBL": {1, 1},
	"DB":  {2, NoMax},

	// native calls: qualified name plus signature-dependent arguments
	"MNI": {1, NoMax},
}

// registers is the fixed register name set, stored upper-case.
var registers = map[string]bool{
	"RAX": true, "RBX": true, "RCX": true, "RDX": true,
	"RSI": true, "RDI": true, "RBP": true, "RSP": true,
	"RIP": true,
	"R0":  true, "R1": true, "R2": true, "R3": true,
	"R4": true, "R5": true, "R6": true, "R7": true,
	"R8": true, "R9": true, "R10": true, "R11": true,
	"R12": true, "R13": true, "R14": true, "R15": true,
}

// controlTransfer lists instructions whose #label operand must resolve.
var controlTransfer = map[string]bool{
	"JMP": true, "JEQ": true, "JNE": true, "JLT": true, "JGT": true,
	"JLE": true, "JGE": true, "JZ": true, "JNZ": true, "CALL": true,
}

// terminators lists instructions after which code is unreachable
// until the next label.
var terminators = map[string]bool{
	"JMP": true, "RET": true, "HLT": true, "EXIT": true,
}

// outputClass lists instructions that read from a memory address, so a
// $-operand not backed by a DB is suspicious.
var outputClass = map[string]bool{
	"OUT": true, "COUT": true, "OUTSTR": true, "OUTCHAR": true,
}

// IsRegister reports whether token names a known register
// (case-insensitive).
func IsRegister(token string) bool {
	return registers[strings.ToUpper(token)]
}

// IsControlTransfer reports whether mnemonic jumps or calls to a label.
func IsControlTransfer(mnemonic string) bool {
	return controlTransfer[strings.ToUpper(mnemonic)]
}

// IsTerminator reports whether mnemonic unconditionally leaves the
// current straight-line flow.
func IsTerminator(mnemonic string) bool {
	return terminators[strings.ToUpper(mnemonic)]
}

// IsOutputClass reports whether mnemonic consumes a memory operand for
// output.
func IsOutputClass(mnemonic string) bool {
	return outputClass[strings.ToUpper(mnemonic)]
}

// Lookup returns the arity spec for mnemonic (case-insensitive).
func Lookup(mnemonic string) (Spec, bool) {
	s, ok := Specs[strings.ToUpper(mnemonic)]
	return s, ok
}

// Mnemonics returns every known mnemonic, for suggestion candidates.
// Order is not deterministic; callers that need determinism sort.
func Mnemonics() []string {
	out := make([]string, 0, len(Specs))
	for m := range Specs {
		out = append(out, m)
	}
	return out
}

// IsValidLabelName reports whether s is a well-formed label identifier.
func IsValidLabelName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
