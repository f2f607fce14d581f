package eventstore

import "errors"

var (
	ErrKeyNotFound            = errors.New("key not found")
	ErrKeyExists              = errors.New("key already exists")
	ErrKeyIsEmpty             = errors.New("key is empty")
	ErrIndexUpdateFailed      = errors.New("index update failed")
	ErrDataFileNotFound       = errors.New("data file not found")
	ErrDirPathIsEmpty         = errors.New("database dir path is empty")
	ErrDataFileSizeInvalid    = errors.New("database data file size must be greater than 0")
	ErrDataDirectoryCorrupted = errors.New("the database directory maybe corrupted")
	ErrExceedMaxBatchNum      = errors.New("exceed the max batch num")
	ErrSyncWritesRequired     = errors.New("direct IO data files require sync writes")
	ErrMergeIsProgress        = errors.New("merge is in progress, try again later")
)
