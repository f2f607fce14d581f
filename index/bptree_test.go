package index

import (
	"reflect"
	"testing"

	"github.com/ttrung2409/EventStore/data"
)

func newTestBPlusTree(t *testing.T) *BPlusTree {
	t.Helper()
	tree := NewBPlusTree(t.TempDir(), false)
	t.Cleanup(func() {
		_ = tree.Close()
	})
	return tree
}

func TestNewBPlusTree(t *testing.T) {
	tree := newTestBPlusTree(t)
	if tree == nil {
		t.Fatalf("NewBPlusTree() = nil")
	}
}

func TestBPlusTree_Put(t *testing.T) {
	tree := newTestBPlusTree(t)

	tests := []struct {
		name string
		key  []byte
		pos  *data.LogRecordPos
	}{
		{
			name: "key1",
			key:  []byte("key1"),
			pos:  &data.LogRecordPos{Fid: 10, Offset: 100},
		},
		{
			name: "key2",
			key:  []byte("key2"),
			pos:  &data.LogRecordPos{Fid: 20, Offset: 200},
		},
		{
			name: "key3",
			key:  []byte("key3"),
			pos:  &data.LogRecordPos{Fid: 30, Offset: 300},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tree.Put(tt.key, tt.pos); !got {
				t.Errorf("Put() = false for key %s", tt.key)
			}
		})
	}
}

func TestBPlusTree_Get(t *testing.T) {
	tree := newTestBPlusTree(t)

	if got := tree.Get([]byte("not_exist")); got != nil {
		t.Errorf("Get() = %v, want nil", got)
	}

	tree.Put([]byte("key1"), &data.LogRecordPos{Fid: 10, Offset: 100})
	tree.Put([]byte("key2"), &data.LogRecordPos{Fid: 20, Offset: 200})

	got := tree.Get([]byte("key2"))
	want := &data.LogRecordPos{Fid: 20, Offset: 200}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %v, want %v", got, want)
	}

	tree.Delete([]byte("key2"))
	if got = tree.Get([]byte("key2")); got != nil {
		t.Errorf("Get() after Delete() = %v, want nil", got)
	}
}

func TestBPlusTree_Delete(t *testing.T) {
	tree := newTestBPlusTree(t)

	if got := tree.Delete([]byte("not_exist")); got {
		t.Errorf("Delete() = true, want false")
	}

	tree.Put([]byte("key1"), &data.LogRecordPos{Fid: 10, Offset: 100})
	tree.Put([]byte("key2"), &data.LogRecordPos{Fid: 20, Offset: 200})
	if got := tree.Delete([]byte("key2")); !got {
		t.Errorf("Delete() = false, want true")
	}
	if got := tree.Size(); got != 1 {
		t.Errorf("Size() = %v, want 1", got)
	}
}

func TestBPlusTree_Size(t *testing.T) {
	tree := newTestBPlusTree(t)

	if got := tree.Size(); got != 0 {
		t.Errorf("Size() = %v, want 0", got)
	}

	tree.Put([]byte("key1"), &data.LogRecordPos{Fid: 10, Offset: 100})
	tree.Put([]byte("key2"), &data.LogRecordPos{Fid: 20, Offset: 200})
	tree.Put([]byte("key3"), &data.LogRecordPos{Fid: 30, Offset: 300})
	if got := tree.Size(); got != 3 {
		t.Errorf("Size() = %v, want 3", got)
	}
}

func TestBPlusTree_Iterator(t *testing.T) {
	tree := newTestBPlusTree(t)

	// empty tree
	it := tree.Iterator(false)
	if it.Valid() {
		t.Errorf("Valid() on empty tree = true, want false")
	}
	it.Close()

	tree.Put([]byte("key1"), &data.LogRecordPos{Fid: 10, Offset: 100})
	tree.Put([]byte("key2"), &data.LogRecordPos{Fid: 20, Offset: 200})
	tree.Put([]byte("key3"), &data.LogRecordPos{Fid: 30, Offset: 300})
	tree.Delete([]byte("key2"))

	var keys []string
	for it = tree.Iterator(false); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	it.Close()
	if !reflect.DeepEqual(keys, []string{"key1", "key3"}) {
		t.Errorf("forward iteration = %v", keys)
	}

	keys = keys[:0]
	for it = tree.Iterator(true); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	it.Close()
	if !reflect.DeepEqual(keys, []string{"key3", "key1"}) {
		t.Errorf("reverse iteration = %v", keys)
	}
}
