// Package querylang parses the one-line query form accepted by the eval
// endpoint:
//
//	users.findAll()
//	users.findById(1)
//	users.create({"email": "a@b.com"})
//	users.update(1, {"email": "c@d.com"})
//	users.delete(1)
package querylang

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jadedragon942/dorm/object"
	"github.com/jadedragon942/dorm/orm"
)

// Command is a parsed query, ready for orm.Execute.
type Command struct {
	Table     string
	Operation orm.Operation
	ID        any
	Payload   *object.Object
}

// SyntaxError reports a query whose shape does not match the grammar.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

// DataError reports a JSON argument that does not decode to an object.
type DataError struct {
	Operation orm.Operation
	Err       error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("invalid JSON in %s operation: %v", e.Operation, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

type parser struct {
	lexer *Lexer
	tok   Token
}

// Parse reads one query. The table name is not checked against the
// database here.
func Parse(input string) (*Command, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SyntaxError{Pos: 0, Msg: "empty query"}
	}
	p := &parser{lexer: NewLexer(input)}
	p.advance()

	table, err := p.expect(IDENT, "table name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(DOT, "'.'"); err != nil {
		return nil, err
	}
	opTok, err := p.expect(IDENT, "operation")
	if err != nil {
		return nil, err
	}
	op, err := orm.ParseOperation(opTok.Value)
	if err != nil {
		return nil, &SyntaxError{Pos: opTok.Position,
			Msg: fmt.Sprintf("unknown operation %q, expected findAll, findById, create, update or delete", opTok.Value)}
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}

	cmd := &Command{Table: table.Value, Operation: op}
	switch op {
	case orm.OpFindAll:
	case orm.OpFindByID, orm.OpDelete:
		if cmd.ID, err = p.parseID(); err != nil {
			return nil, err
		}
	case orm.OpCreate:
		if cmd.Payload, err = p.parsePayload(op); err != nil {
			return nil, err
		}
	case orm.OpUpdate:
		if cmd.ID, err = p.parseID(); err != nil {
			return nil, err
		}
		if _, err := p.expect(COMMA, "','"); err != nil {
			return nil, err
		}
		if cmd.Payload, err = p.parsePayload(op); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(EOF, "end of query"); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (p *parser) advance() {
	p.tok = p.lexer.NextToken()
}

// expect consumes the current token if it has type tt.
func (p *parser) expect(tt TokenType, what string) (Token, error) {
	tok := p.tok
	if tok.Type != tt {
		return tok, &SyntaxError{Pos: tok.Position, Msg: fmt.Sprintf("expected %s, got %s", what, describe(tok))}
	}
	p.advance()
	return tok, nil
}

func (p *parser) parseID() (int64, error) {
	tok, err := p.expect(INT, "integer id")
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil {
		return 0, &SyntaxError{Pos: tok.Position, Msg: fmt.Sprintf("id %s out of range", tok.Value)}
	}
	return id, nil
}

func (p *parser) parsePayload(op orm.Operation) (*object.Object, error) {
	tok, err := p.expect(JSON, "JSON object")
	if err != nil {
		return nil, err
	}
	obj := object.New()
	if err := json.Unmarshal([]byte(tok.Value), obj); err != nil {
		return nil, &DataError{Operation: op, Err: err}
	}
	return obj, nil
}

func describe(tok Token) string {
	switch tok.Type {
	case EOF:
		return "end of query"
	case JSON:
		return "JSON object"
	default:
		return fmt.Sprintf("%s %q", tok.Type, tok.Value)
	}
}
