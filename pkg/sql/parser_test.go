package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minidb/pkg/dberr"
	"minidb/pkg/types"
)

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE users (id INT NOT NULL, name TEXT, active BOOLEAN NULL)")
	require.NoError(t, err)

	ct, ok := stmt.(CreateTable)
	require.True(t, ok)
	assert.Equal(t, "users", ct.Name)
	require.Len(t, ct.Columns, 3)
	assert.Equal(t, ColumnDef{Name: "id", Type: types.Integer, Nullable: false}, ct.Columns[0])
	assert.Equal(t, ColumnDef{Name: "name", Type: types.Text, Nullable: true}, ct.Columns[1])
	assert.Equal(t, ColumnDef{Name: "active", Type: types.Boolean, Nullable: true}, ct.Columns[2])
}

func TestParseCreateIndex(t *testing.T) {
	stmt, err := Parse("CREATE INDEX idx ON users (id)")
	require.NoError(t, err)
	assert.Equal(t, CreateIndex{Name: "idx", Table: "users", Column: "id"}, stmt)
}

func TestParseInsert(t *testing.T) {
	stmt, err := Parse("INSERT INTO users VALUES (1, 'Alice', TRUE, NULL, -7)")
	require.NoError(t, err)

	ins, ok := stmt.(Insert)
	require.True(t, ok)
	assert.Equal(t, "users", ins.Table)
	require.Len(t, ins.Values, 5)
	assert.Equal(t, int64(1), ins.Values[0].IntVal)
	assert.Equal(t, []byte("Alice"), ins.Values[1].TextVal)
	assert.True(t, ins.Values[2].BoolVal)
	assert.True(t, ins.Values[3].Null)
	assert.Equal(t, int64(-7), ins.Values[4].IntVal)
}

func TestParseStringEscapes(t *testing.T) {
	stmt, err := Parse("INSERT INTO t VALUES ('it''s')")
	require.NoError(t, err)
	assert.Equal(t, []byte("it's"), stmt.(Insert).Values[0].TextVal)
}

func TestParseSelectStar(t *testing.T) {
	stmt, err := Parse("SELECT * FROM users")
	require.NoError(t, err)

	sel, ok := stmt.(Select)
	require.True(t, ok)
	assert.True(t, sel.Star)
	assert.Equal(t, "users", sel.Table)
	assert.Nil(t, sel.Join)
	assert.Nil(t, sel.Where)
}

func TestParseSelectColumnsAndWhere(t *testing.T) {
	stmt, err := Parse("SELECT id, name FROM users WHERE id >= 10")
	require.NoError(t, err)

	sel := stmt.(Select)
	assert.Equal(t, []string{"id", "name"}, sel.Columns)

	simple, ok := sel.Where.(Simple)
	require.True(t, ok)
	assert.Equal(t, "id", simple.Column)
	assert.Equal(t, types.Ge, simple.Op)
	assert.Equal(t, int64(10), simple.Value.IntVal)
}

func TestParseSelectJoin(t *testing.T) {
	stmt, err := Parse("SELECT * FROM users JOIN orders ON users.id = orders.user_id")
	require.NoError(t, err)

	sel := stmt.(Select)
	require.NotNil(t, sel.Join)
	assert.Equal(t, JoinClause{Table: "orders", LeftColumn: "id", RightColumn: "user_id"}, *sel.Join)
}

func TestWherePrecedenceAndBindsTighterThanOr(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE a = 1 OR b = 2 AND c = 3")
	require.NoError(t, err)

	or, ok := stmt.(Select).Where.(Or)
	require.True(t, ok)
	_, leftIsSimple := or.Left.(Simple)
	assert.True(t, leftIsSimple)
	_, rightIsAnd := or.Right.(And)
	assert.True(t, rightIsAnd)
}

func TestWhereParenthesesOverridePrecedence(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE (a = 1 OR b = 2) AND c = 3")
	require.NoError(t, err)

	and, ok := stmt.(Select).Where.(And)
	require.True(t, ok)
	_, leftIsOr := and.Left.(Or)
	assert.True(t, leftIsOr)
}

func TestWhereNotPrefix(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE NOT a != 5")
	require.NoError(t, err)

	not, ok := stmt.(Select).Where.(Not)
	require.True(t, ok)
	simple := not.Inner.(Simple)
	assert.Equal(t, types.Ne, simple.Op)
}

func TestParseTransactionStatements(t *testing.T) {
	for input, want := range map[string]Statement{
		"BEGIN":    Begin{},
		"COMMIT":   Commit{},
		"ABORT":    Abort{},
		"ROLLBACK": Abort{},
		"begin":    Begin{},
	} {
		stmt, err := Parse(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, stmt, input)
	}
}

func TestParseTrailingSemicolon(t *testing.T) {
	_, err := Parse("BEGIN;")
	require.NoError(t, err)
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"SELEC * FROM t",
		"SELECT * FROM",
		"CREATE TABLE t",
		"CREATE TABLE t (id WIBBLE)",
		"INSERT INTO t VALUES 1",
		"SELECT * FROM t WHERE",
		"SELECT * FROM t WHERE id ==",
		"INSERT INTO t VALUES ('unterminated)",
		"BEGIN extra",
	} {
		_, err := Parse(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, dberr.Is(err, dberr.UnexpectedToken), "input %q", input)
	}
}
