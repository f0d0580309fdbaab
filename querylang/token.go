package querylang

import "fmt"

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	EOF TokenType = iota
	INVALID
	IDENT
	INT
	JSON
	DOT
	LPAREN
	RPAREN
	COMMA
)

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	INVALID: "INVALID",
	IDENT:   "IDENT",
	INT:     "INT",
	JSON:    "JSON",
	DOT:     "DOT",
	LPAREN:  "LPAREN",
	RPAREN:  "RPAREN",
	COMMA:   "COMMA",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is one lexeme. Position is the byte offset of its first character.
type Token struct {
	Type     TokenType
	Value    string
	Position int
}
