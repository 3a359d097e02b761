package buffer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minidb/pkg/dberr"
	"minidb/pkg/primitives"
	"minidb/pkg/storage/page"
)

func newTestPool(t *testing.T, frames int) *Pool {
	t.Helper()
	disk, err := page.NewDiskManager(filepath.Join(t.TempDir(), "pool_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { disk.Close() })
	return NewPool(disk, frames)
}

// seedPages materializes page ids 0..n-1 on disk so they can be fetched.
func seedPages(t *testing.T, p *Pool, n int) {
	t.Helper()
	for id := 0; id < n; id++ {
		pg, err := p.NewPage(primitives.PageID(id))
		require.NoError(t, err)
		pg.Write(0, []byte{byte(id)})
		p.UnpinPage(primitives.PageID(id), true)
		require.NoError(t, p.FlushPage(primitives.PageID(id)))
	}
}

func TestFetchCachedPageIncrementsPin(t *testing.T) {
	p := newTestPool(t, 2)
	seedPages(t, p, 1)

	pg1, err := p.FetchPage(0)
	require.NoError(t, err)
	pg2, err := p.FetchPage(0)
	require.NoError(t, err)
	assert.Same(t, pg1, pg2)
	assert.Equal(t, 2, p.frames[p.index[0]].pinCount)

	// Seeding left page 0 resident, so both fetches are hits.
	stats := p.StatsSnapshot()
	assert.Equal(t, uint64(2), stats.Hits)
}

func TestEvictionFlushesDirtyPage(t *testing.T) {
	p := newTestPool(t, 1)
	seedPages(t, p, 2)

	pg, err := p.FetchPage(0)
	require.NoError(t, err)
	pg.Write(100, []byte("dirty bytes"))
	p.UnpinPage(0, true)

	// One frame only: fetching page 1 must evict page 0, flushing it.
	_, err = p.FetchPage(1)
	require.NoError(t, err)
	p.UnpinPage(1, false)

	pg0, err := p.FetchPage(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("dirty bytes"), pg0.Read(100, 11))
	p.UnpinPage(0, false)
}

func TestNoFreeFrameWhenAllPinned(t *testing.T) {
	p := newTestPool(t, 2)
	seedPages(t, p, 3)

	_, err := p.FetchPage(0)
	require.NoError(t, err)
	_, err = p.FetchPage(1)
	require.NoError(t, err)

	_, err = p.FetchPage(2)
	require.Error(t, err)
	assert.True(t, dberr.Is(err, dberr.NoFreeFrame))

	// Unpinning one frame makes the fetch succeed again.
	p.UnpinPage(0, false)
	_, err = p.FetchPage(2)
	require.NoError(t, err)
}

func TestUnpinUnknownPageIsNoop(t *testing.T) {
	p := newTestPool(t, 1)
	p.UnpinPage(42, true)
}

func TestUnpinKeepsDirtyFlagSticky(t *testing.T) {
	p := newTestPool(t, 1)
	seedPages(t, p, 1)

	pg, err := p.FetchPage(0)
	require.NoError(t, err)
	pg.Write(0, []byte("sticky"))
	p.UnpinPage(0, true)

	// A later clean unpin must not clear the dirty flag; the write has to
	// survive the eviction forced by allocating page 1.
	_, err = p.FetchPage(0)
	require.NoError(t, err)
	p.UnpinPage(0, false)

	_, err = p.NewPage(1)
	require.NoError(t, err)
	p.UnpinPage(1, false)

	pg0, err := p.FetchPage(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("sticky"), pg0.Read(0, 6))
}

func TestFlushPageNotResident(t *testing.T) {
	p := newTestPool(t, 1)

	err := p.FlushPage(7)
	require.Error(t, err)
	assert.True(t, dberr.Is(err, dberr.PageNotFound))
}

func TestFlushPageWritesCurrentImage(t *testing.T) {
	p := newTestPool(t, 2)

	pg, err := p.NewPage(0)
	require.NoError(t, err)
	pg.Write(0, []byte("flushed"))
	p.UnpinPage(0, true)
	require.NoError(t, p.FlushPage(0))

	// Push the page out by allocating two more; a later fetch must read
	// the flushed image back from disk.
	for id := primitives.PageID(1); id <= 2; id++ {
		_, err := p.NewPage(id)
		require.NoError(t, err)
		p.UnpinPage(id, true)
	}

	again, err := p.FetchPage(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("flushed"), again.Read(0, 7))
}
