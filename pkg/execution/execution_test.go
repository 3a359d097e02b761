package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minidb/pkg/catalog"
	"minidb/pkg/concurrency/lock"
	"minidb/pkg/sql"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.NewCatalog(t.TempDir(), 8, lock.NewManager())
	t.Cleanup(func() { cat.Close() })
	return cat
}

func makeUsers(t *testing.T, cat *catalog.Catalog, rows ...[2]any) *catalog.Table {
	t.Helper()
	schema, err := tuple.NewSchema([]tuple.Column{
		{Name: "id", Type: types.Integer},
		{Name: "name", Type: types.Text, Nullable: true},
	})
	require.NoError(t, err)
	table, err := cat.CreateTable("users", schema)
	require.NoError(t, err)
	for _, r := range rows {
		_, err := table.Insert(tuple.New(table.Schema(), []types.Value{
			types.NewInt(int64(r[0].(int))), types.NewText([]byte(r[1].(string))),
		}))
		require.NoError(t, err)
	}
	return table
}

func drain(t *testing.T, op Operator) []*tuple.Tuple {
	t.Helper()
	defer op.Close()
	var out []*tuple.Tuple
	for {
		tp, err := op.Next()
		require.NoError(t, err)
		if tp == nil {
			return out
		}
		out = append(out, tp)
	}
}

func TestSeqScanYieldsInsertionOrder(t *testing.T) {
	cat := newTestCatalog(t)
	table := makeUsers(t, cat, [2]any{1, "Alice"}, [2]any{2, "Bob"})

	rows := drain(t, NewSeqScan(table.Heap(), table.Schema()))
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].Values[0].IntVal)
	assert.Equal(t, []byte("Alice"), rows[0].Values[1].TextVal)
	assert.Equal(t, int64(2), rows[1].Values[0].IntVal)
}

func TestFilterKeepsMatchingRowsInOrder(t *testing.T) {
	cat := newTestCatalog(t)
	table := makeUsers(t, cat, [2]any{10, "a"}, [2]any{20, "b"}, [2]any{30, "c"})

	cond := sql.Simple{Column: "id", Op: types.Gt, Value: types.NewInt(15)}
	rows := drain(t, NewFilter(NewSeqScan(table.Heap(), table.Schema()), cond))
	require.Len(t, rows, 2)
	assert.Equal(t, int64(20), rows[0].Values[0].IntVal)
	assert.Equal(t, int64(30), rows[1].Values[0].IntVal)
}

func TestEvalConditionTree(t *testing.T) {
	schema, err := tuple.NewSchema([]tuple.Column{
		{Name: "a", Type: types.Integer},
		{Name: "b", Type: types.Integer},
	})
	require.NoError(t, err)
	row := tuple.New(schema, []types.Value{types.NewInt(1), types.NewInt(2)})

	eq := func(col string, v int64) sql.Condition {
		return sql.Simple{Column: col, Op: types.Eq, Value: types.NewInt(v)}
	}

	assert.True(t, EvalCondition(sql.And{Left: eq("a", 1), Right: eq("b", 2)}, row))
	assert.False(t, EvalCondition(sql.And{Left: eq("a", 1), Right: eq("b", 3)}, row))
	assert.True(t, EvalCondition(sql.Or{Left: eq("a", 9), Right: eq("b", 2)}, row))
	assert.True(t, EvalCondition(sql.Not{Inner: eq("a", 9)}, row))
	// Unknown columns make a simple comparison false, not an error.
	assert.False(t, EvalCondition(eq("missing", 1), row))
}

func TestIndexScanOperators(t *testing.T) {
	cat := newTestCatalog(t)
	table := makeUsers(t, cat,
		[2]any{10, "Alice"}, [2]any{20, "Bob"}, [2]any{30, "Charlie"}, [2]any{40, "Dave"})
	require.NoError(t, table.CreateIndex("id"))
	idx := table.Index("id")

	cases := []struct {
		op   types.CompareOp
		key  int64
		want []int64
	}{
		{types.Eq, 20, []int64{20}},
		{types.Ge, 20, []int64{20, 30, 40}},
		{types.Gt, 20, []int64{30, 40}},
		{types.Le, 20, []int64{10, 20}},
		{types.Lt, 20, []int64{10}},
		{types.Eq, 99, nil},
	}
	for _, tc := range cases {
		scan, err := NewIndexScan(idx, table.Heap(), table.Schema(), tc.op, tc.key)
		require.NoError(t, err)
		rows := drain(t, scan)
		var got []int64
		for _, r := range rows {
			got = append(got, r.Values[0].IntVal)
		}
		assert.Equal(t, tc.want, got, "%s %d", tc.op, tc.key)
	}
}

func TestIndexScanRejectsNotEqual(t *testing.T) {
	cat := newTestCatalog(t)
	table := makeUsers(t, cat, [2]any{1, "a"})
	require.NoError(t, table.CreateIndex("id"))

	_, err := NewIndexScan(table.Index("id"), table.Heap(), table.Schema(), types.Ne, 1)
	require.Error(t, err)
}

func TestIndexScanSkipsStaleEntries(t *testing.T) {
	cat := newTestCatalog(t)
	table := makeUsers(t, cat, [2]any{10, "a"}, [2]any{20, "b"})
	require.NoError(t, table.CreateIndex("id"))

	// Delete one row underneath the index; the scan drops its RID.
	rid, found := table.Index("id").Search(10)
	require.True(t, found)
	require.NoError(t, table.Heap().Delete(rid))

	scan, err := NewIndexScan(table.Index("id"), table.Heap(), table.Schema(), types.Ge, 0)
	require.NoError(t, err)
	rows := drain(t, scan)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(20), rows[0].Values[0].IntVal)
}

func TestProjectDeepCopiesText(t *testing.T) {
	cat := newTestCatalog(t)
	table := makeUsers(t, cat, [2]any{1, "Alice"})

	projected := table.Schema().Project([]int{1})
	op := NewProject(NewSeqScan(table.Heap(), table.Schema()), []int{1}, projected)
	rows := drain(t, op)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Values, 1)
	assert.Equal(t, []byte("Alice"), rows[0].Values[0].TextVal)
	assert.Same(t, projected, rows[0].Schema)
}

func TestNestedLoopJoinOrder(t *testing.T) {
	cat := newTestCatalog(t)
	users := makeUsers(t, cat, [2]any{1, "Alice"}, [2]any{2, "Bob"})

	orderSchema, err := tuple.NewSchema([]tuple.Column{
		{Name: "order_id", Type: types.Integer},
		{Name: "user_id", Type: types.Integer},
	})
	require.NoError(t, err)
	orders, err := cat.CreateTable("orders", orderSchema)
	require.NoError(t, err)
	for _, pair := range [][2]int64{{100, 1}, {101, 2}, {102, 1}} {
		_, err := orders.Insert(tuple.New(orders.Schema(), []types.Value{
			types.NewInt(pair[0]), types.NewInt(pair[1]),
		}))
		require.NoError(t, err)
	}

	merged := tuple.Concat(users.Schema(), orders.Schema())
	op := NewNestedLoopJoin(
		NewSeqScan(users.Heap(), users.Schema()),
		orders.Heap(), orders.Schema(), 0, 1, merged)

	rows := drain(t, op)
	require.Len(t, rows, 3)

	flat := func(r *tuple.Tuple) [3]int64 {
		return [3]int64{r.Values[0].IntVal, r.Values[2].IntVal, r.Values[3].IntVal}
	}
	// Left order outer, right scan order inner.
	assert.Equal(t, [3]int64{1, 100, 1}, flat(rows[0]))
	assert.Equal(t, "Alice", string(rows[0].Values[1].TextVal))
	assert.Equal(t, [3]int64{1, 102, 1}, flat(rows[1]))
	assert.Equal(t, [3]int64{2, 101, 2}, flat(rows[2]))
}
