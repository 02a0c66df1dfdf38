package parser

import "strings"

// Token is one whitespace-delimited argument of a source line together
// with its starting column in the original, non-comment-stripped line.
// Columns are 0-based byte offsets, matching editor coordinates.
type Token struct {
	Text   string
	Column int
}

// StripComment returns raw up to the first unescaped ';'. The comment
// delimiter takes priority over every other token boundary, including
// $[...] expressions and string literals.
func StripComment(raw string) string {
	for i := 0; i < len(raw); i++ {
		if raw[i] == ';' && (i == 0 || raw[i-1] != '\\') {
			return raw[:i]
		}
	}
	return raw
}

// Tokenize splits a raw source line into its instruction mnemonic and
// ordered argument tokens. Blank and pure-comment lines yield an empty
// slice, signaling "skip this line".
//
// A DB line keeps its quoted string operand intact: everything after
// the address token is re-joined into a single string-literal token so
// embedded spaces are not mis-split.
func Tokenize(raw string) []Token {
	code := StripComment(raw)

	var tokens []Token
	i := 0
	for i < len(code) {
		if code[i] == ' ' || code[i] == '\t' {
			i++
			continue
		}
		start := i
		for i < len(code) && code[i] != ' ' && code[i] != '\t' {
			i++
		}
		tokens = append(tokens, Token{Text: code[start:i], Column: start})

		// After "DB <address>", a quoted remainder is one string
		// literal operand even when it contains spaces.
		if len(tokens) == 2 && strings.EqualFold(tokens[0].Text, "DB") {
			for i < len(code) && (code[i] == ' ' || code[i] == '\t') {
				i++
			}
			if i < len(code) && code[i] == '"' {
				rest := strings.TrimRight(code[i:], " \t")
				tokens = append(tokens, Token{Text: rest, Column: i})
				break
			}
		}
	}
	return tokens
}

// Texts returns just the token strings, in order.
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}
