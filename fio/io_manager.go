package fio

const DataFilePerm = 0644

// FileIOType selects the kind of file backend a data file is opened with.
type FileIOType = byte

const (
	// StandardFIO uses the OS page cache through a plain os.File.
	StandardFIO FileIOType = iota
	// DirectFIO bypasses the page cache with O_DIRECT and routes all
	// access through an UnbufferedStream to satisfy the device's
	// alignment rules.
	DirectFIO
)

type IOManager interface {
	// Read reads data from the file at the given offset.
	Read([]byte, int64) (int, error)

	// Write writes data to the file at the current offset.
	Write([]byte) (int, error)

	// Sync flushes any buffered data to disk.
	Sync() error

	// Close closes the file.
	Close() error

	// Size returns the current size of the file in bytes.
	Size() (int64, error)
}

// BlockDevice is the contract an UnbufferedStream needs from its backing
// file. When the device is opened with direct I/O, offsets passed to Seek
// and Read, and lengths passed to Write, must already be sector-aligned;
// the stream is the layer responsible for that.
type BlockDevice interface {
	IOManager

	// Seek repositions the write cursor to an absolute offset.
	Seek(offset int64) error

	// Truncate resizes the file to exactly size bytes.
	Truncate(size int64) error
}

// NewIOManager creates an IOManager of the given type for the file at name.
func NewIOManager(name string, ioType FileIOType) (IOManager, error) {
	switch ioType {
	case StandardFIO:
		return NewFileIOManager(name)
	case DirectFIO:
		return OpenUnbufferedStream(name, DefaultStreamOptions)
	default:
		panic("unsupported io type")
	}
}
