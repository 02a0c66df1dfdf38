package parser

import (
	"strconv"
	"strings"
)

// IsValidAddress validates a memory-addressing expression:
//
//	address      := '$' (decimal | '[' bracket ']')
//	bracket      := term (('+'|'-') term)*
//	term         := decimal | register | register '*' scale
//	scale        := 1..8
//
// It is total: any input yields a boolean, never a panic. Callers that
// need a reason re-derive it for the diagnostic message.
func IsValidAddress(expr string) bool {
	if len(expr) < 2 || expr[0] != '$' {
		return false
	}
	body := expr[1:]

	if body[0] != '[' {
		return isDecimal(body)
	}

	if !strings.HasSuffix(body, "]") {
		return false
	}
	inner := body[1 : len(body)-1]
	if inner == "" {
		return false
	}

	// Split on + and - while rejecting empty slots, which covers
	// leading, trailing and doubled operators in one check.
	start := 0
	for i := 0; i <= len(inner); i++ {
		if i < len(inner) && inner[i] != '+' && inner[i] != '-' {
			continue
		}
		term := inner[start:i]
		if !isValidTerm(term) {
			return false
		}
		start = i + 1
	}
	return true
}

func isValidTerm(term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	if isDecimal(term) {
		return true
	}
	if IsRegister(term) {
		return true
	}
	// register '*' scale
	star := strings.IndexByte(term, '*')
	if star <= 0 || star == len(term)-1 {
		return false
	}
	reg, scaleText := term[:star], term[star+1:]
	if !IsRegister(reg) {
		return false
	}
	scale, err := strconv.Atoi(scaleText)
	if err != nil {
		return false
	}
	return scale >= 1 && scale <= 8
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
