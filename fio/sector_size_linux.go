//go:build linux

package fio

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/ncw/directio"
)

// SectorSize reports the transfer granularity the filesystem holding path
// requires for unbuffered access. The path itself does not need to exist
// yet; the containing directory is consulted in that case.
func SectorSize(path string) (int64, error) {
	var stat unix.Statfs_t
	err := unix.Statfs(path, &stat)
	if os.IsNotExist(err) {
		err = unix.Statfs(filepath.Dir(path), &stat)
	}
	if err != nil {
		return 0, err
	}
	if stat.Bsize <= 0 {
		return directio.BlockSize, nil
	}
	// Statfs_t.Bsize is int32 on 32-bit targets
	return int64(stat.Bsize), nil
}

func adviseSequential(fd *os.File) error {
	return unix.Fadvise(int(fd.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
