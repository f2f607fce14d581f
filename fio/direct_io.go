package fio

import (
	"os"

	"github.com/ncw/directio"
)

// DirectIO is a BlockDevice that bypasses the OS page cache. The file is
// opened through github.com/ncw/directio, which sets O_DIRECT on linux and
// F_NOCACHE on darwin. Callers must keep every offset and transfer length
// sector-aligned; this type does no alignment of its own, that is the
// UnbufferedStream's job.
type DirectIO struct {
	fd *os.File
}

// NewDirectIOManager opens the file at filePath for unbuffered access.
// When writeThrough is set the file is additionally opened with O_SYNC so
// completed writes have also left the drive's volatile cache.
func NewDirectIOManager(filePath string, flag int, perm os.FileMode, writeThrough bool) (*DirectIO, error) {
	if writeThrough {
		flag |= os.O_SYNC
	}
	fd, err := directio.OpenFile(filePath, flag, perm)
	if err != nil {
		return nil, err
	}
	return &DirectIO{fd: fd}, nil
}

func (d *DirectIO) Read(bytes []byte, offset int64) (int, error) {
	return d.fd.ReadAt(bytes, offset)
}

func (d *DirectIO) Write(bytes []byte) (int, error) {
	return d.fd.Write(bytes)
}

func (d *DirectIO) Sync() error {
	return d.fd.Sync()
}

func (d *DirectIO) Close() error {
	return d.fd.Close()
}

func (d *DirectIO) Size() (int64, error) {
	stat, err := d.fd.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

func (d *DirectIO) Seek(offset int64) error {
	_, err := d.fd.Seek(offset, 0)
	return err
}

func (d *DirectIO) Truncate(size int64) error {
	return d.fd.Truncate(size)
}

// AdviseSequential passes the advisory access-pattern hint to the OS.
// It has no effect on alignment handling.
func (d *DirectIO) AdviseSequential() error {
	return adviseSequential(d.fd)
}
