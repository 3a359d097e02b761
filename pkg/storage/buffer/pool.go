// Package buffer implements the fixed-size frame cache between the heap
// layer and the disk: pin counts gate eviction, dirty frames
// are flushed before their mapping is dropped, and at most one frame is
// resident per page id.
package buffer

import (
	"minidb/pkg/dberr"
	"minidb/pkg/logging"
	"minidb/pkg/primitives"
	"minidb/pkg/storage/page"
)

var log = logging.For("buffer_pool")

// frame wraps one resident page with its pin count and dirty flag. A
// frame is resident iff pageID is set; a resident frame with pinCount > 0
// is never evicted, and a dirty frame is flushed before its mapping is
// cleared.
type frame struct {
	pageID   primitives.PageID
	resident bool
	pinCount int
	dirty    bool
	page     *page.Page
}

// Stats tracks pool activity for logging and debugging. It has no effect
// on the pin/dirty contract.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Pool is a fixed-size array of frames plus a page_id -> frame index map.
// At most one resident frame exists per page id.
type Pool struct {
	disk   *page.DiskManager
	frames []frame
	index  map[primitives.PageID]int
	stats  Stats
}

// NewPool constructs a buffer pool of the given frame capacity backed by
// disk.
func NewPool(disk *page.DiskManager, numFrames int) *Pool {
	return &Pool{
		disk:   disk,
		frames: make([]frame, numFrames),
		index:  make(map[primitives.PageID]int, numFrames),
	}
}

// FetchPage returns the page for id, pinning it. If the page is already
// resident its pin count is incremented. Otherwise a victim frame with
// pin_count == 0 is selected; if the victim held a dirty page it is
// flushed first. Fails with dberr.NoFreeFrame if every frame is pinned.
func (p *Pool) FetchPage(id primitives.PageID) (*page.Page, error) {
	if idx, ok := p.index[id]; ok {
		p.frames[idx].pinCount++
		p.stats.Hits++
		return p.frames[idx].page, nil
	}

	p.stats.Misses++
	victim, err := p.findVictim()
	if err != nil {
		return nil, err
	}

	if err := p.evict(victim); err != nil {
		return nil, err
	}

	pg := page.NewPage()
	if err := p.disk.ReadPage(id, pg); err != nil {
		return nil, err
	}

	p.frames[victim] = frame{pageID: id, resident: true, pinCount: 1, dirty: false, page: pg}
	p.index[id] = victim
	return pg, nil
}

// NewPage installs a fresh zero-filled page for id without reading from
// disk, pinned once and marked dirty so it reaches the file on eviction
// or flush. Used when the heap file grows; fetching the id later returns
// the same frame.
func (p *Pool) NewPage(id primitives.PageID) (*page.Page, error) {
	if idx, ok := p.index[id]; ok {
		p.frames[idx].pinCount++
		return p.frames[idx].page, nil
	}

	victim, err := p.findVictim()
	if err != nil {
		return nil, err
	}
	if err := p.evict(victim); err != nil {
		return nil, err
	}

	pg := page.NewPage()
	p.frames[victim] = frame{pageID: id, resident: true, pinCount: 1, dirty: true, page: pg}
	p.index[id] = victim
	return pg, nil
}

// findVictim returns the index of any frame with pin_count == 0,
// preferring an empty (non-resident) frame. First-unpinned is the whole
// policy; nothing downstream depends on which unpinned frame goes.
func (p *Pool) findVictim() (int, error) {
	for i := range p.frames {
		if !p.frames[i].resident {
			return i, nil
		}
	}
	for i := range p.frames {
		if p.frames[i].pinCount == 0 {
			return i, nil
		}
	}
	return 0, dberr.New(dberr.NoFreeFrame, "all %d buffer frames are pinned", len(p.frames))
}

func (p *Pool) evict(idx int) error {
	f := &p.frames[idx]
	if !f.resident {
		return nil
	}
	if f.dirty {
		if err := p.disk.WritePage(f.pageID, f.page); err != nil {
			return err
		}
	}
	log.WithFields(map[string]any{"page_id": f.pageID, "dirty": f.dirty}).Debug("evicting page")
	delete(p.index, f.pageID)
	p.stats.Evictions++
	*f = frame{}
	return nil
}

// UnpinPage decrements the frame's pin count and ORs dirtyNow into the
// dirty flag (never clears it). Unpinning a page not in the pool is a
// no-op.
func (p *Pool) UnpinPage(id primitives.PageID, dirtyNow bool) {
	idx, ok := p.index[id]
	if !ok {
		return
	}
	f := &p.frames[idx]
	if f.pinCount > 0 {
		f.pinCount--
	}
	f.dirty = f.dirty || dirtyNow
}

// FlushPage writes the resident frame for id to disk. Fails with
// dberr.PageNotFound if the page is not resident. The dirty flag is left
// set; a later eviction rewrites the same bytes, which is harmless.
func (p *Pool) FlushPage(id primitives.PageID) error {
	idx, ok := p.index[id]
	if !ok {
		return dberr.New(dberr.PageNotFound, "page %d is not resident", id)
	}
	f := &p.frames[idx]
	return p.disk.WritePage(f.pageID, f.page)
}

// FlushAll flushes every resident, dirty frame. Used on clean shutdown.
func (p *Pool) FlushAll() error {
	for i := range p.frames {
		if p.frames[i].resident && p.frames[i].dirty {
			if err := p.disk.WritePage(p.frames[i].pageID, p.frames[i].page); err != nil {
				return err
			}
		}
	}
	return nil
}

// StatsSnapshot returns a copy of the pool's activity counters.
func (p *Pool) StatsSnapshot() Stats {
	return p.stats
}
