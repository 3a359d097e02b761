package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minidb/pkg/concurrency/lock"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat := NewCatalog(t.TempDir(), 8, lock.NewManager())
	t.Cleanup(func() { cat.Close() })
	return cat
}

func usersSchema(t *testing.T) *tuple.Schema {
	t.Helper()
	s, err := tuple.NewSchema([]tuple.Column{
		{Name: "id", Type: types.Integer},
		{Name: "name", Type: types.Text, Nullable: true},
	})
	require.NoError(t, err)
	return s
}

func TestCreateTableOwnsSchemaCopy(t *testing.T) {
	cat := newTestCatalog(t)
	schema := usersSchema(t)

	table, err := cat.CreateTable("users", schema)
	require.NoError(t, err)

	// Mutating the caller's schema must not reach the table.
	schema.Columns[0].Name = "mutated"
	assert.Equal(t, "id", table.Schema().Columns[0].Name)
}

func TestGetTable(t *testing.T) {
	cat := newTestCatalog(t)
	_, err := cat.CreateTable("users", usersSchema(t))
	require.NoError(t, err)

	assert.NotNil(t, cat.GetTable("users"))
	assert.Nil(t, cat.GetTable("missing"))
	assert.Equal(t, []string{"users"}, cat.TableNames())
}

func TestInsertMaintainsIndexes(t *testing.T) {
	cat := newTestCatalog(t)
	table, err := cat.CreateTable("users", usersSchema(t))
	require.NoError(t, err)

	require.NoError(t, table.CreateIndex("id"))

	rid, err := table.Insert(tuple.New(table.Schema(), []types.Value{
		types.NewInt(42), types.NewText([]byte("Alice")),
	}))
	require.NoError(t, err)

	idx := table.Index("id")
	require.NotNil(t, idx)
	got, found := idx.Search(42)
	require.True(t, found)
	assert.Equal(t, rid, got)
}

func TestCreateIndexBackfillsExistingRows(t *testing.T) {
	cat := newTestCatalog(t)
	table, err := cat.CreateTable("users", usersSchema(t))
	require.NoError(t, err)

	var want []int64
	for _, id := range []int64{10, 20, 30} {
		_, err := table.Insert(tuple.New(table.Schema(), []types.Value{
			types.NewInt(id), types.NewText([]byte("row")),
		}))
		require.NoError(t, err)
		want = append(want, id)
	}

	require.NoError(t, table.CreateIndex("id"))
	idx := table.Index("id")
	require.NotNil(t, idx)
	for _, id := range want {
		_, found := idx.Search(id)
		assert.True(t, found, "key %d", id)
	}
}

func TestCreateIndexOnNonIntegerColumnIsNoop(t *testing.T) {
	cat := newTestCatalog(t)
	table, err := cat.CreateTable("users", usersSchema(t))
	require.NoError(t, err)

	require.NoError(t, table.CreateIndex("name"))
	assert.Nil(t, table.Index("name"))

	require.NoError(t, table.CreateIndex("missing"))
	assert.Nil(t, table.Index("missing"))
}

func TestIndexSkipsNullKeys(t *testing.T) {
	cat := newTestCatalog(t)
	table, err := cat.CreateTable("users", usersSchema(t))
	require.NoError(t, err)
	require.NoError(t, table.CreateIndex("id"))

	_, err = table.Insert(tuple.New(table.Schema(), []types.Value{
		types.NullValue(types.Integer), types.NewText([]byte("ghost")),
	}))
	require.NoError(t, err)

	assert.True(t, table.Index("id").Empty())
}
