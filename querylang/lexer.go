package querylang

import "unicode"

var singleCharTokens = map[byte]TokenType{
	'.': DOT,
	'(': LPAREN,
	')': RPAREN,
	',': COMMA,
}

// Lexer splits a query such as users.update(3, {"email": "x"}) into tokens.
// Identifiers keep their case.
type Lexer struct {
	input  string
	pos    int
	length int
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input, length: len(input)}
}

// NextToken scans the next token, returning EOF once the input is exhausted.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= l.length {
		return Token{Type: EOF, Position: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]

	if tt, ok := singleCharTokens[ch]; ok {
		l.pos++
		return Token{Type: tt, Value: string(ch), Position: start}
	}

	switch {
	case ch == '{':
		return l.readJSON(start)
	case isDigit(ch):
		return l.readNumber(start)
	case isIdentStart(ch):
		return l.readIdentifier(start)
	default:
		l.pos++
		return Token{Type: INVALID, Value: string(ch), Position: start}
	}
}

// Tokens scans the whole input, ending with the EOF token.
func (l *Lexer) Tokens() []Token {
	var out []Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == EOF {
			return out
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < l.length && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *Lexer) readNumber(start int) Token {
	for l.pos < l.length && isDigit(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: INT, Value: l.input[start:l.pos], Position: start}
}

func (l *Lexer) readIdentifier(start int) Token {
	for l.pos < l.length && (isIdentStart(l.input[l.pos]) || isDigit(l.input[l.pos])) {
		l.pos++
	}
	return Token{Type: IDENT, Value: l.input[start:l.pos], Position: start}
}

// readJSON consumes a balanced {...} object. Braces inside string literals
// are not counted. An unterminated object yields INVALID with the rest of
// the input.
func (l *Lexer) readJSON(start int) Token {
	depth := 0
	inString := false
	for l.pos < l.length {
		ch := l.input[l.pos]
		l.pos++
		if inString {
			switch ch {
			case '\\':
				l.pos++
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return Token{Type: JSON, Value: l.input[start:l.pos], Position: start}
			}
		}
	}
	l.pos = l.length
	return Token{Type: INVALID, Value: l.input[start:], Position: start}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
