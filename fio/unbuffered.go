package fio

import (
	"errors"
	"io"
	"os"

	"github.com/ncw/directio"
)

var (
	// ErrBufferNotBlockMultiple is returned when the configured internal
	// buffer size is not an exact multiple of the resolved block size.
	ErrBufferNotBlockMultiple = errors.New("buffer size must be an exact multiple of the block size")

	// ErrUnsupportedSeekOrigin is returned for any seek origin other than
	// the start of the stream.
	ErrUnsupportedSeekOrigin = errors.New("only seeking from the start of the stream is supported")
)

// StreamOptions configures an UnbufferedStream.
type StreamOptions struct {
	Flag         int         // os.OpenFile flags; O_DIRECT semantics are always added
	Perm         os.FileMode // permission bits for newly created files
	BufferSize   int64       // internal buffer capacity, a multiple of the block size
	WriteThrough bool        // open with O_SYNC so writes also skip the drive cache
	MinBlockSize int64       // floor applied to the device-reported sector size
	Sequential   bool        // advisory sequential-access hint, passed to the OS
}

// DefaultStreamOptions is the configuration data files are opened with.
var DefaultStreamOptions = StreamOptions{
	Flag:         os.O_CREATE | os.O_RDWR,
	Perm:         DataFilePerm,
	BufferSize:   64 * 1024,
	WriteThrough: true,
	MinBlockSize: 4096,
}

// UnbufferedStream translates arbitrary-offset, arbitrary-length access
// into the block-aligned operations an unbuffered (direct I/O) device
// accepts. It keeps at most one block-multiple buffer of pending write
// data and flushes it in whole blocks, carrying any sub-block tail over
// to the next flush.
//
// Reads always go to the device: data still sitting in the write buffer
// is not visible to Read until a flush covers it. A stream instance is
// not safe for concurrent use.
type UnbufferedStream struct {
	device      BlockDevice
	blockSize   int64
	buf         []byte // aligned, fixed capacity, multiple of blockSize
	buffered    int64  // valid bytes at the start of buf, not yet persisted
	lastPos     int64  // device-relative offset of the most recent seek/flush
	lastAligned int64  // block-aligned offset last issued to the device
	aligned     bool   // device cursor sits on a block boundary at lastPos
	needsFlush  bool   // buf holds write data not yet persisted
}

// OpenUnbufferedStream opens the file at path for unbuffered access and
// wraps it in an aligned stream. The effective block size is the larger of
// the device sector size and opts.MinBlockSize; opts.BufferSize must be a
// positive multiple of it.
func OpenUnbufferedStream(path string, opts StreamOptions) (*UnbufferedStream, error) {
	sector, err := SectorSize(path)
	if err != nil {
		return nil, err
	}
	blockSize := sector
	if opts.MinBlockSize > blockSize {
		blockSize = opts.MinBlockSize
	}
	if opts.BufferSize <= 0 || opts.BufferSize%blockSize != 0 {
		return nil, ErrBufferNotBlockMultiple
	}
	device, err := NewDirectIOManager(path, opts.Flag, opts.Perm, opts.WriteThrough)
	if err != nil {
		return nil, err
	}
	if opts.Sequential {
		// advisory only
		_ = device.AdviseSequential()
	}
	return newUnbufferedStream(device, blockSize, opts.BufferSize)
}

// newUnbufferedStream wires a stream over an already opened device. Used
// directly in tests, where a page-cached FileIO stands in for a device
// that rejects O_DIRECT.
func newUnbufferedStream(device BlockDevice, blockSize, bufferSize int64) (*UnbufferedStream, error) {
	if blockSize <= 0 || bufferSize <= 0 || bufferSize%blockSize != 0 {
		return nil, ErrBufferNotBlockMultiple
	}
	return &UnbufferedStream{
		device:    device,
		blockSize: blockSize,
		buf:       directio.AlignedBlock(int(bufferSize)),
		aligned:   true,
	}, nil
}

// lowestAlignment returns the nearest block boundary at or before offset.
func lowestAlignment(offset, blockSize int64) int64 {
	return offset - offset%blockSize
}

// alignedLen returns the smallest multiple of blockSize covering n.
func alignedLen(n, blockSize int64) int64 {
	if r := n % blockSize; r != 0 {
		n += blockSize - r
	}
	return n
}

// BlockSize returns the effective block size of the stream.
func (s *UnbufferedStream) BlockSize() int64 {
	return s.blockSize
}

// Position returns the logical offset of the next read or write.
func (s *UnbufferedStream) Position() int64 {
	if s.aligned {
		return s.lastPos + s.buffered
	}
	return lowestAlignment(s.lastPos, s.blockSize) + s.buffered
}

// Size returns the device's current size. Only flushed bytes count; data
// still in the write buffer is invisible here.
func (s *UnbufferedStream) Size() (int64, error) {
	return s.device.Size()
}

// Write appends bytes at the current logical position. Device writes are
// only issued when the internal buffer fills; until then the data stays
// buffered and the device size does not move.
func (s *UnbufferedStream) Write(bytes []byte) (int, error) {
	written := 0
	for len(bytes) > 0 {
		s.needsFlush = true
		free := int64(len(s.buf)) - s.buffered
		if int64(len(bytes)) < free {
			copy(s.buf[s.buffered:], bytes)
			s.buffered += int64(len(bytes))
			written += len(bytes)
			break
		}
		copy(s.buf[s.buffered:], bytes[:free])
		s.buffered = int64(len(s.buf))
		written += int(free)
		bytes = bytes[free:]
		if err := s.Flush(); err != nil {
			return written, err
		}
	}
	return written, nil
}

// Read fills bytes from the device starting at the given offset. The read
// is translated into a single aligned device read of the smallest block
// multiple covering the request; the skewed head and any tail past the
// request are discarded. Write-buffer state is not touched, so unflushed
// data is not visible.
func (s *UnbufferedStream) Read(bytes []byte, offset int64) (int, error) {
	if len(bytes) == 0 {
		return 0, nil
	}
	aligned := lowestAlignment(offset, s.blockSize)
	skew := offset - aligned
	scratch := directio.AlignedBlock(int(alignedLen(skew+int64(len(bytes)), s.blockSize)))
	n, err := s.device.Read(scratch, aligned)
	if err != nil && err != io.EOF {
		return 0, err
	}
	avail := int64(n) - skew
	if avail <= 0 {
		return 0, io.EOF
	}
	if avail > int64(len(bytes)) {
		avail = int64(len(bytes))
	}
	copy(bytes, scratch[skew:skew+avail])
	if int(avail) < len(bytes) {
		return int(avail), io.EOF
	}
	return int(avail), nil
}

// Flush persists pending write data in block-aligned units. A buffer
// holding an exact block multiple is written out entirely; otherwise the
// transfer is rounded up by one block to cover the sub-block tail, and the
// tail bytes are carried over to the start of the buffer so the next flush
// rewrites that final block in place.
func (s *UnbufferedStream) Flush() error {
	if !s.needsFlush {
		return nil
	}
	wholeBlocks := lowestAlignment(s.buffered, s.blockSize)
	posAligned := lowestAlignment(s.lastPos, s.blockSize)
	if !s.aligned {
		if err := s.device.Seek(posAligned); err != nil {
			return err
		}
	}
	if s.buffered == wholeBlocks {
		if err := s.writeBlocks(s.buf[:s.buffered]); err != nil {
			return err
		}
		s.lastPos = posAligned + s.buffered
		s.lastAligned = s.lastPos
		s.buffered = 0
		s.aligned = true
	} else {
		total := wholeBlocks + s.blockSize
		// the final block past the buffered bytes is padding; keep it
		// zeroed so a torn tail reads back as empty
		for i := s.buffered; i < total; i++ {
			s.buf[i] = 0
		}
		if err := s.writeBlocks(s.buf[:total]); err != nil {
			return err
		}
		left := s.buffered - wholeBlocks
		s.lastPos = posAligned + wholeBlocks + left
		s.lastAligned = posAligned
		copy(s.buf, s.buf[wholeBlocks:s.buffered])
		s.buffered = left
		s.aligned = false
	}
	s.needsFlush = false
	return nil
}

// writeBlocks issues one device write and fails on a short transfer.
func (s *UnbufferedStream) writeBlocks(p []byte) error {
	n, err := s.device.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// Seek repositions the stream to an absolute offset. Only io.SeekStart is
// supported. Pending write data is flushed first; the buffer is then reset
// to hold the in-block skew of the new offset, with undefined content
// until the next write fills it or a flush rewrites the block.
func (s *UnbufferedStream) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		return 0, ErrUnsupportedSeekOrigin
	}
	aligned := lowestAlignment(offset, s.blockSize)
	if err := s.Flush(); err != nil {
		return 0, err
	}
	s.buffered = offset - aligned
	s.lastPos = offset
	s.lastAligned = aligned
	// force the next flush to reposition the device cursor
	s.aligned = false
	return offset, nil
}

// Truncate resizes the device to the smallest block multiple covering
// size, then repositions the stream to offset zero.
func (s *UnbufferedStream) Truncate(size int64) error {
	if err := s.device.Truncate(alignedLen(size, s.blockSize)); err != nil {
		return err
	}
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// Sync flushes pending write data and asks the device to persist it.
func (s *UnbufferedStream) Sync() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.device.Sync()
}

// Close flushes pending write data and releases the device handle. The
// handle is released even when the flush fails.
func (s *UnbufferedStream) Close() error {
	flushErr := s.Flush()
	if err := s.device.Close(); err != nil {
		return err
	}
	return flushErr
}
