package eventstore

import (
	"os"

	"github.com/ttrung2409/EventStore/fio"
	"github.com/ttrung2409/EventStore/index"
)

type Options struct {
	DirPath      string          // directory path to store the data
	DataFileSize int64           // size of each data file in bytes
	SyncWrites   bool            // whether to sync writes to disk or not
	IndexType    index.IndexType // in-memory index implementation
	IOType       fio.FileIOType  // page-cached or unbuffered direct I/O data files
}

// IteratorOptions configures a DB iterator.
type IteratorOptions struct {
	Prefix  []byte // only keys with this prefix are visited; empty visits all
	Reverse bool   // iterate in descending key order
}

// WriteBatchOptions configures a WriteBatch.
type WriteBatchOptions struct {
	MaxBatchNum uint // maximum number of records in one batch
	SyncWrites  bool // sync to disk when the batch commits
}

var DefaultOptions = Options{
	DirPath:      os.TempDir(),
	DataFileSize: 256 * 1024 * 1024,
	SyncWrites:   false,
	IndexType:    index.Btree,
	IOType:       fio.StandardFIO,
}

var DefaultIteratorOptions = IteratorOptions{
	Prefix:  nil,
	Reverse: false,
}

var DefaultWriteBatchOptions = WriteBatchOptions{
	MaxBatchNum: 10000,
	SyncWrites:  true,
}
