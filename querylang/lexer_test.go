package querylang

import "testing"

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []Token
	}{
		{
			input: "users.findAll()",
			expected: []Token{
				{Type: IDENT, Value: "users", Position: 0},
				{Type: DOT, Value: ".", Position: 5},
				{Type: IDENT, Value: "findAll", Position: 6},
				{Type: LPAREN, Value: "(", Position: 13},
				{Type: RPAREN, Value: ")", Position: 14},
				{Type: EOF, Value: "", Position: 15},
			},
		},
		{
			input: "  Order_Items.update(42, {})",
			expected: []Token{
				{Type: IDENT, Value: "Order_Items", Position: 2},
				{Type: DOT, Value: ".", Position: 13},
				{Type: IDENT, Value: "update", Position: 14},
				{Type: LPAREN, Value: "(", Position: 20},
				{Type: INT, Value: "42", Position: 21},
				{Type: COMMA, Value: ",", Position: 23},
				{Type: JSON, Value: "{}", Position: 25},
				{Type: RPAREN, Value: ")", Position: 27},
				{Type: EOF, Value: "", Position: 28},
			},
		},
	}

	for _, tt := range tests {
		got := NewLexer(tt.input).Tokens()
		if len(got) != len(tt.expected) {
			t.Fatalf("%q: expected %d tokens, got %d: %v", tt.input, len(tt.expected), len(got), got)
		}
		for i, tok := range got {
			if tok != tt.expected[i] {
				t.Errorf("%q token %d: expected %+v, got %+v", tt.input, i, tt.expected[i], tok)
			}
		}
	}
}

func TestLexerJSONIsBalancedAndStringAware(t *testing.T) {
	input := `create({"a": {"b": "}{"}, "c": "say \"}\""})`
	l := NewLexer(input)
	l.NextToken() // create
	l.NextToken() // (

	tok := l.NextToken()
	if tok.Type != JSON {
		t.Fatalf("expected JSON, got %s %q", tok.Type, tok.Value)
	}
	want := `{"a": {"b": "}{"}, "c": "say \"}\""}`
	if tok.Value != want {
		t.Errorf("expected %s, got %s", want, tok.Value)
	}
	if next := l.NextToken(); next.Type != RPAREN {
		t.Errorf("expected RPAREN after JSON, got %s", next.Type)
	}
}

func TestLexerUnterminatedJSON(t *testing.T) {
	l := NewLexer(`{"a": 1`)
	tok := l.NextToken()
	if tok.Type != INVALID || tok.Value != `{"a": 1` {
		t.Errorf("expected INVALID with the rest of input, got %s %q", tok.Type, tok.Value)
	}
	if next := l.NextToken(); next.Type != EOF {
		t.Errorf("expected EOF, got %s", next.Type)
	}
}

func TestLexerInvalidCharacter(t *testing.T) {
	l := NewLexer("users;")
	l.NextToken()
	tok := l.NextToken()
	if tok.Type != INVALID || tok.Value != ";" || tok.Position != 5 {
		t.Errorf("unexpected token %+v", tok)
	}
}

func TestTokenTypeString(t *testing.T) {
	if JSON.String() != "JSON" {
		t.Errorf("expected JSON, got %s", JSON.String())
	}
	if TokenType(99).String() != "TokenType(99)" {
		t.Errorf("unexpected name %s", TokenType(99).String())
	}
}
