package sql

import (
	"strconv"
	"strings"

	"minidb/pkg/dberr"
	"minidb/pkg/types"
)

// Parse turns one SQL statement into its AST. Errors are reported as
// dberr.UnexpectedToken.
func Parse(input string) (Statement, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	// A trailing semicolon is tolerated; anything else is not.
	if p.peek().typ == tokSymbol && p.peek().val == ";" {
		p.advance()
	}
	if p.peek().typ != tokEOF {
		return nil, dberr.New(dberr.UnexpectedToken, "unexpected %q after statement", p.peek().val)
	}
	return stmt, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

// matchKeyword consumes the next token if it is the given keyword
// (case-insensitive).
func (p *parser) matchKeyword(kw string) bool {
	t := p.peek()
	if t.typ == tokIdent && strings.EqualFold(t.val, kw) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.matchKeyword(kw) {
		return dberr.New(dberr.UnexpectedToken, "expected %s, got %q", kw, p.peek().val)
	}
	return nil
}

func (p *parser) expectSymbol(sym string) error {
	t := p.peek()
	if t.typ == tokSymbol && t.val == sym {
		p.advance()
		return nil
	}
	return dberr.New(dberr.UnexpectedToken, "expected %q, got %q", sym, t.val)
}

func (p *parser) expectIdent() (string, error) {
	t := p.peek()
	if t.typ != tokIdent {
		return "", dberr.New(dberr.UnexpectedToken, "expected identifier, got %q", t.val)
	}
	p.advance()
	return t.val, nil
}

func (p *parser) parseStatement() (Statement, error) {
	switch {
	case p.matchKeyword("CREATE"):
		if p.matchKeyword("TABLE") {
			return p.parseCreateTable()
		}
		if p.matchKeyword("INDEX") {
			return p.parseCreateIndex()
		}
		return nil, dberr.New(dberr.UnexpectedToken, "expected TABLE or INDEX after CREATE, got %q", p.peek().val)
	case p.matchKeyword("INSERT"):
		return p.parseInsert()
	case p.matchKeyword("SELECT"):
		return p.parseSelect()
	case p.matchKeyword("BEGIN"):
		return Begin{}, nil
	case p.matchKeyword("COMMIT"):
		return Commit{}, nil
	case p.matchKeyword("ABORT"), p.matchKeyword("ROLLBACK"):
		return Abort{}, nil
	default:
		return nil, dberr.New(dberr.UnexpectedToken, "expected a statement, got %q", p.peek().val)
	}
}

func (p *parser) parseCreateTable() (Statement, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}

	var columns []ColumnDef
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
		if p.peek().typ == tokSymbol && p.peek().val == "," {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return CreateTable{Name: name, Columns: columns}, nil
}

func (p *parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.expectIdent()
	if err != nil {
		return ColumnDef{}, err
	}

	typeName, err := p.expectIdent()
	if err != nil {
		return ColumnDef{}, err
	}
	var dt types.DataType
	switch strings.ToUpper(typeName) {
	case "INT", "INTEGER":
		dt = types.Integer
	case "TEXT", "VARCHAR", "STRING":
		dt = types.Text
	case "BOOL", "BOOLEAN":
		dt = types.Boolean
	default:
		return ColumnDef{}, dberr.New(dberr.UnexpectedToken, "unknown column type %q", typeName)
	}

	// Default is nullable when no NULL/NOT NULL clause is written.
	nullable := true
	if p.matchKeyword("NOT") {
		if err := p.expectKeyword("NULL"); err != nil {
			return ColumnDef{}, err
		}
		nullable = false
	} else if p.matchKeyword("NULL") {
		nullable = true
	}
	return ColumnDef{Name: name, Type: dt, Nullable: nullable}, nil
}

func (p *parser) parseCreateIndex() (Statement, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	column, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return CreateIndex{Name: name, Table: table, Column: column}, nil
}

func (p *parser) parseInsert() (Statement, error) {
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}

	var values []types.Value
	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.peek().typ == tokSymbol && p.peek().val == "," {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return Insert{Table: table, Values: values}, nil
}

// parseLiteral accepts an integer, a quoted string, TRUE/FALSE, or NULL.
// NULL literals come out typed as integer; the executor ignores the type
// of a null and the planner retypes nulls to the column on insert.
func (p *parser) parseLiteral() (types.Value, error) {
	t := p.peek()
	switch {
	case t.typ == tokNumber:
		p.advance()
		n, err := strconv.ParseInt(t.val, 10, 64)
		if err != nil {
			return types.Value{}, dberr.New(dberr.UnexpectedToken, "bad integer literal %q", t.val)
		}
		return types.NewInt(n), nil
	case t.typ == tokString:
		p.advance()
		return types.NewText([]byte(t.val)), nil
	case t.typ == tokIdent && strings.EqualFold(t.val, "TRUE"):
		p.advance()
		return types.NewBool(true), nil
	case t.typ == tokIdent && strings.EqualFold(t.val, "FALSE"):
		p.advance()
		return types.NewBool(false), nil
	case t.typ == tokIdent && strings.EqualFold(t.val, "NULL"):
		p.advance()
		return types.NullValue(types.Integer), nil
	default:
		return types.Value{}, dberr.New(dberr.UnexpectedToken, "expected literal, got %q", t.val)
	}
}

func (p *parser) parseSelect() (Statement, error) {
	stmt := Select{}

	if p.peek().typ == tokSymbol && p.peek().val == "*" {
		p.advance()
		stmt.Star = true
	} else {
		for {
			col, err := p.parseColumnRef()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
			if p.peek().typ == tokSymbol && p.peek().val == "," {
				p.advance()
				continue
			}
			break
		}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	if p.matchKeyword("JOIN") {
		join, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		stmt.Join = join
	}

	if p.matchKeyword("WHERE") {
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		stmt.Where = cond
	}

	return stmt, nil
}

// parseColumnRef accepts "col" or "table.col", keeping only the column
// part; the planner later resolves names against the schemas by name.
func (p *parser) parseColumnRef() (string, error) {
	name, err := p.expectIdent()
	if err != nil {
		return "", err
	}
	if p.peek().typ == tokSymbol && p.peek().val == "." {
		p.advance()
		return p.expectIdent()
	}
	return name, nil
}

func (p *parser) parseJoin() (*JoinClause, error) {
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	left, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("="); err != nil {
		return nil, err
	}
	right, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}
	return &JoinClause{Table: table, LeftColumn: left, RightColumn: right}, nil
}

// Condition grammar, lowest precedence first:
//
//	or   := and (OR and)*
//	and  := not (AND not)*
//	not  := NOT not | primary
//	primary := '(' or ')' | columnref op literal
func (p *parser) parseOr() (Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Condition, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("AND") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Condition, error) {
	if p.matchKeyword("NOT") {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Condition, error) {
	if p.peek().typ == tokSymbol && p.peek().val == "(" {
		p.advance()
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return cond, nil
	}

	col, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}
	op, err := p.parseCompareOp()
	if err != nil {
		return nil, err
	}
	val, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return Simple{Column: col, Op: op, Value: val}, nil
}

func (p *parser) parseCompareOp() (types.CompareOp, error) {
	t := p.peek()
	if t.typ != tokSymbol {
		return 0, dberr.New(dberr.UnexpectedToken, "expected comparison operator, got %q", t.val)
	}
	var op types.CompareOp
	switch t.val {
	case "=":
		op = types.Eq
	case "!=":
		op = types.Ne
	case "<":
		op = types.Lt
	case "<=":
		op = types.Le
	case ">":
		op = types.Gt
	case ">=":
		op = types.Ge
	default:
		return 0, dberr.New(dberr.UnexpectedToken, "expected comparison operator, got %q", t.val)
	}
	p.advance()
	return op, nil
}
