package fio

import "os"

// FileIO is an IOManager backed by a plain os.File, going through the OS
// page cache. It also satisfies BlockDevice so the UnbufferedStream can be
// exercised against it on filesystems that reject O_DIRECT.
type FileIO struct {
	// file descriptor
	fd *os.File
}

// NewFileIOManager creates a new FileIO object.
func NewFileIOManager(filePath string) (*FileIO, error) {
	fd, err := os.OpenFile(filePath,
		os.O_CREATE|os.O_RDWR|os.O_APPEND,
		DataFilePerm)
	if err != nil {
		return nil, err
	}
	return &FileIO{fd: fd}, nil
}

// openFileDevice opens a FileIO with explicit flags, without O_APPEND, so
// the cursor can be repositioned with Seek.
func openFileDevice(filePath string, flag int, perm os.FileMode) (*FileIO, error) {
	fd, err := os.OpenFile(filePath, flag, perm)
	if err != nil {
		return nil, err
	}
	return &FileIO{fd: fd}, nil
}

func (f *FileIO) Read(bytes []byte, offset int64) (int, error) {
	return f.fd.ReadAt(bytes, offset)
}

func (f *FileIO) Write(bytes []byte) (int, error) {
	return f.fd.Write(bytes)
}

func (f *FileIO) Sync() error {
	return f.fd.Sync()
}

func (f *FileIO) Close() error {
	return f.fd.Close()
}

func (f *FileIO) Size() (int64, error) {
	stat, err := f.fd.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

func (f *FileIO) Seek(offset int64) error {
	_, err := f.fd.Seek(offset, 0)
	return err
}

func (f *FileIO) Truncate(size int64) error {
	return f.fd.Truncate(size)
}
