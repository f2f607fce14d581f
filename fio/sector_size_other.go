//go:build !linux

package fio

import (
	"os"

	"github.com/ncw/directio"
)

// SectorSize reports the transfer granularity required for unbuffered
// access. Platforms without a cheap per-path query fall back to the
// conservative block size directio uses for its own buffers.
func SectorSize(path string) (int64, error) {
	return directio.BlockSize, nil
}

func adviseSequential(fd *os.File) error {
	return nil
}
