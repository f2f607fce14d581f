package index

import (
	"bytes"

	"github.com/google/btree"

	"github.com/ttrung2409/EventStore/data"
)

// Indexer is the interface for indexing record positions in the log.
type Indexer interface {
	// Put inserts a key-value pair into the index.
	Put(key []byte, pos *data.LogRecordPos) bool
	// Get retrieves the position of a key from the index.
	// If the key does not exist, it returns nil.
	Get(key []byte) *data.LogRecordPos
	// Delete removes a key-value pair from the index.
	// If the key does not exist, it returns false.
	Delete(key []byte) bool
	// Size returns the number of key-value pairs in the index.
	Size() int
	// Iterator creates a new iterator for the index.
	Iterator(reverse bool) Iterator
	// Close releases any resources held by the index.
	Close() error
}

type IndexType = int8

const (
	// Btree is a B-tree based index.
	Btree IndexType = iota + 1
	// ART is an Adaptive Radix Tree based index.
	ART
	// BPTree is a disk-resident B+ tree based index.
	BPTree
)

// NewIndexer creates a new Indexer. dirPath and syncWrites only matter for
// the disk-resident B+ tree.
func NewIndexer(typ IndexType, dirPath string, syncWrites bool) Indexer {
	switch typ {
	case Btree:
		return NewBTree()
	case ART:
		return NewART()
	case BPTree:
		return NewBPlusTree(dirPath, syncWrites)
	default:
		panic("unsupported index type")
	}
}

type Item struct {
	Key []byte
	pos *data.LogRecordPos
}

func (i *Item) Less(bi btree.Item) bool {
	return bytes.Compare(i.Key, bi.(*Item).Key) < 0
}

// Iterator is the interface for iterating over the index.
type Iterator interface {
	// Rewind resets the iterator to the beginning of the index.
	Rewind()

	// Seek moves the iterator to the position of the first key greater than or equal to the given key.
	Seek(key []byte)

	// Next moves the iterator to the next position.
	Next()

	// Valid returns whether the iterator is valid.
	Valid() bool

	// Key returns the current key.
	Key() []byte

	// Value returns the current value.
	Value() *data.LogRecordPos

	// Close closes the iterator.
	Close()
}
