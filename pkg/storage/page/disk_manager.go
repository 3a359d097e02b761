package page

import (
	"os"

	"minidb/pkg/logging"
	"minidb/pkg/primitives"

	"github.com/dustin/go-humanize"
)

// DiskManager performs page-granular reads/writes against one backing
// file, mapping a logical page id to the file offset page_id * Size. One
// DiskManager backs one table's "<table_name>.db" file.
type DiskManager struct {
	file *os.File
	path string
}

// NewDiskManager opens (creating if necessary) a file in read/write mode
// without truncation.
func NewDiskManager(path string) (*DiskManager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	info, statErr := f.Stat()
	size := int64(0)
	if statErr == nil {
		size = info.Size()
	}
	logging.For("disk_manager").WithFields(map[string]any{
		"path": path,
		"size": humanize.Bytes(uint64(size)),
	}).Debug("opened data file")

	return &DiskManager{file: f, path: path}, nil
}

func pageOffset(id primitives.PageID) int64 {
	return int64(id) * int64(Size)
}

// ReadPage seeks and fills all Size bytes of p from the file. Reading a
// page id past end-of-file is the caller's responsibility to avoid.
func (d *DiskManager) ReadPage(id primitives.PageID, p *Page) error {
	_, err := d.file.ReadAt(p.Bytes(), pageOffset(id))
	return err
}

// WritePage seeks and writes all Size bytes of p to the file, extending
// the file if the offset lies past the current size.
func (d *DiskManager) WritePage(id primitives.PageID, p *Page) error {
	_, err := d.file.WriteAt(p.Bytes(), pageOffset(id))
	return err
}

// Close closes the backing file.
func (d *DiskManager) Close() error {
	return d.file.Close()
}

// Path returns the backing file's path.
func (d *DiskManager) Path() string {
	return d.path
}
