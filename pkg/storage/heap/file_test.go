package heap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minidb/pkg/concurrency/lock"
	"minidb/pkg/dberr"
	"minidb/pkg/primitives"
	"minidb/pkg/storage/buffer"
	"minidb/pkg/storage/page"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

func newTestFile(t *testing.T) (*File, *lock.Manager) {
	t.Helper()
	disk, err := page.NewDiskManager(filepath.Join(t.TempDir(), "heap_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { disk.Close() })

	lockMgr := lock.NewManager()
	f, err := NewFile(buffer.NewPool(disk, 8), lockMgr)
	require.NoError(t, err)
	return f, lockMgr
}

func rowSchema(t *testing.T) *tuple.Schema {
	t.Helper()
	s, err := tuple.NewSchema([]tuple.Column{
		{Name: "id", Type: types.Integer},
		{Name: "name", Type: types.Text, Nullable: true},
	})
	require.NoError(t, err)
	return s
}

func row(schema *tuple.Schema, id int64, name string) *tuple.Tuple {
	return tuple.New(schema, []types.Value{types.NewInt(id), types.NewText([]byte(name))})
}

func TestNewFileAllocatesPageZero(t *testing.T) {
	f, _ := newTestFile(t)
	assert.Equal(t, primitives.PageID(1), f.PageCount())
}

func TestInsertGetRoundtrip(t *testing.T) {
	f, _ := newTestFile(t)
	schema := rowSchema(t)

	in := row(schema, 1, "Alice")
	rid, err := f.Insert(in)
	require.NoError(t, err)

	data, err := f.Get(rid)
	require.NoError(t, err)
	require.NotNil(t, data)

	out, err := tuple.Deserialize(data, schema)
	require.NoError(t, err)
	assert.Equal(t, in.Values, out.Values)
}

func TestGetAfterDelete(t *testing.T) {
	f, _ := newTestFile(t)
	schema := rowSchema(t)

	ridA, err := f.Insert(row(schema, 1, "Alice"))
	require.NoError(t, err)
	ridB, err := f.Insert(row(schema, 2, "Bob"))
	require.NoError(t, err)

	require.NoError(t, f.Delete(ridA))

	data, err := f.Get(ridA)
	require.NoError(t, err)
	assert.Nil(t, data)

	// Deleting one record leaves other RIDs untouched.
	data, err = f.Get(ridB)
	require.NoError(t, err)
	require.NotNil(t, data)
	out, err := tuple.Deserialize(data, schema)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Values[0].IntVal)
}

func TestGetOutOfRangeRID(t *testing.T) {
	f, _ := newTestFile(t)

	data, err := f.Get(primitives.RID{PageID: 99, SlotID: 0})
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, f.Delete(primitives.RID{PageID: 99, SlotID: 0}))
}

func TestInsertGrowsFileAcrossPages(t *testing.T) {
	f, _ := newTestFile(t)
	schema, err := tuple.NewSchema([]tuple.Column{{Name: "blob", Type: types.Text}})
	require.NoError(t, err)

	// Each row is ~1.5 KiB, so a page holds two of them.
	big := make([]byte, 1500)
	var rids []primitives.RID
	for i := 0; i < 7; i++ {
		rid, err := f.Insert(tuple.New(schema, []types.Value{types.NewText(big)}))
		require.NoError(t, err)
		rids = append(rids, rid)
	}

	assert.Greater(t, int(f.PageCount()), 1)
	for _, rid := range rids {
		data, err := f.Get(rid)
		require.NoError(t, err)
		assert.NotNil(t, data)
	}
}

func TestScanOrderAndDeadSlotSkipping(t *testing.T) {
	f, _ := newTestFile(t)
	schema := rowSchema(t)

	var rids []primitives.RID
	for i := int64(1); i <= 5; i++ {
		rid, err := f.Insert(row(schema, i, "row"))
		require.NoError(t, err)
		rids = append(rids, rid)
	}
	require.NoError(t, f.Delete(rids[2]))

	it := f.Scan()
	defer it.Close()

	var ids []int64
	for {
		rec, err := it.Next()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		out, err := tuple.Deserialize(rec.Data, schema)
		require.NoError(t, err)
		ids = append(ids, out.Values[0].IntVal)
	}
	assert.Equal(t, []int64{1, 2, 4, 5}, ids)
}

func TestInsertAcquiresExclusiveLock(t *testing.T) {
	f, lockMgr := newTestFile(t)
	schema := rowSchema(t)

	f.BindTransaction(1)
	rid, err := f.Insert(row(schema, 1, "Alice"))
	require.NoError(t, err)
	assert.True(t, lockMgr.HoldsLock(1, rid))

	// Another transaction cannot even read-lock the fresh row.
	err = lockMgr.Acquire(2, rid, lock.Shared)
	require.Error(t, err)
	assert.True(t, dberr.Is(err, dberr.LockConflict))
}

func TestGetSwallowsLockConflict(t *testing.T) {
	f, lockMgr := newTestFile(t)
	schema := rowSchema(t)

	f.BindTransaction(1)
	rid, err := f.Insert(row(schema, 1, "Alice"))
	require.NoError(t, err)

	// Reads from a second transaction are served even though the shared
	// lock is refused.
	f.BindTransaction(2)
	data, err := f.Get(rid)
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.False(t, lockMgr.HoldsLock(2, rid))
}
