package catalog

import (
	"path/filepath"

	"minidb/pkg/concurrency/lock"
	"minidb/pkg/storage/buffer"
	"minidb/pkg/storage/heap"
	"minidb/pkg/storage/index/btree"
	"minidb/pkg/storage/page"
	"minidb/pkg/tuple"
)

// Catalog maps table names to Tables and owns every table it registers.
// Each table gets its own "<name>.db" file under the data directory,
// with a private disk manager and buffer pool; the lock manager is
// shared across tables.
type Catalog struct {
	dataDir   string
	poolSize  int
	lockMgr   *lock.Manager
	tables    map[string]*Table
	tableSeen []string // registration order, for deterministic Close
}

// NewCatalog returns an empty catalog rooted at dataDir. poolSize is the
// frame count of each table's buffer pool.
func NewCatalog(dataDir string, poolSize int, lockMgr *lock.Manager) *Catalog {
	return &Catalog{
		dataDir:  dataDir,
		poolSize: poolSize,
		lockMgr:  lockMgr,
		tables:   make(map[string]*Table),
	}
}

// CreateTable registers a table under name with a deep copy of schema,
// allocating its backing file and heap storage. Registering a duplicate
// name overwrites the previous entry; avoiding that is the caller's
// responsibility.
func (c *Catalog) CreateTable(name string, schema *tuple.Schema) (*Table, error) {
	disk, err := page.NewDiskManager(filepath.Join(c.dataDir, name+".db"))
	if err != nil {
		return nil, err
	}
	pool := buffer.NewPool(disk, c.poolSize)
	heapF, err := heap.NewFile(pool, c.lockMgr)
	if err != nil {
		disk.Close()
		return nil, err
	}

	t := &Table{
		name:    name,
		schema:  schema.Clone(),
		heapF:   heapF,
		disk:    disk,
		pool:    pool,
		indexes: make(map[string]*btree.BTree),
	}
	if _, existed := c.tables[name]; !existed {
		c.tableSeen = append(c.tableSeen, name)
	}
	c.tables[name] = t
	log.WithField("table", name).Info("table created")
	return t, nil
}

// GetTable returns the table registered under name, or nil.
func (c *Catalog) GetTable(name string) *Table {
	return c.tables[name]
}

// TableNames returns the registered names in registration order.
func (c *Catalog) TableNames() []string {
	out := make([]string, 0, len(c.tables))
	for _, name := range c.tableSeen {
		if _, ok := c.tables[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// LockManager returns the lock manager shared by every table's heap.
func (c *Catalog) LockManager() *lock.Manager {
	return c.lockMgr
}

// Close flushes and closes every table in registration order.
func (c *Catalog) Close() error {
	var firstErr error
	for _, name := range c.TableNames() {
		if err := c.tables[name].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
