package index

import (
	"reflect"
	"testing"

	"github.com/ttrung2409/EventStore/data"
)

func TestBTree_Put(t *testing.T) {
	tree := NewBTree()

	res1 := tree.Put([]byte("key1"), &data.LogRecordPos{Fid: 1, Offset: 100})
	if !res1 {
		t.Errorf("Put() = %v, want true", res1)
	}
	// overwrite
	res2 := tree.Put([]byte("key1"), &data.LogRecordPos{Fid: 1, Offset: 200})
	if !res2 {
		t.Errorf("Put() = %v, want true", res2)
	}
	if got := tree.Size(); got != 1 {
		t.Errorf("Size() = %v, want 1", got)
	}
}

func TestBTree_Get(t *testing.T) {
	tree := NewBTree()
	tree.Put([]byte("key1"), &data.LogRecordPos{Fid: 1, Offset: 100})
	tree.Put([]byte("key1"), &data.LogRecordPos{Fid: 1, Offset: 101})

	tests := []struct {
		name string
		key  []byte
		want *data.LogRecordPos
	}{
		{
			name: "missing key",
			key:  nil,
			want: nil,
		},
		{
			name: "latest position wins",
			key:  []byte("key1"),
			want: &data.LogRecordPos{Fid: 1, Offset: 101},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tree.Get(tt.key); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Get() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBTree_Delete(t *testing.T) {
	tree := NewBTree()
	tree.Put([]byte("key1"), &data.LogRecordPos{Fid: 1, Offset: 100})

	tests := []struct {
		name string
		key  []byte
		want bool
	}{
		{
			name: "missing key",
			key:  nil,
			want: false,
		},
		{
			name: "existing key",
			key:  []byte("key1"),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tree.Delete(tt.key); got != tt.want {
				t.Errorf("Delete() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := tree.Get([]byte("key1")); got != nil {
		t.Errorf("Get() after Delete() = %v, want nil", got)
	}
}

func TestBTree_Iterator(t *testing.T) {
	tree := NewBTree()

	// empty tree
	it := tree.Iterator(false)
	if it.Valid() {
		t.Errorf("Valid() on empty tree = true, want false")
	}
	it.Close()

	tree.Put([]byte("aaa"), &data.LogRecordPos{Fid: 1, Offset: 10})
	tree.Put([]byte("bbb"), &data.LogRecordPos{Fid: 1, Offset: 20})
	tree.Put([]byte("ccc"), &data.LogRecordPos{Fid: 1, Offset: 30})

	var keys []string
	for it = tree.Iterator(false); it.Valid(); it.Next() {
		if it.Value() == nil {
			t.Errorf("Value() = nil for key %s", it.Key())
		}
		keys = append(keys, string(it.Key()))
	}
	it.Close()
	if !reflect.DeepEqual(keys, []string{"aaa", "bbb", "ccc"}) {
		t.Errorf("forward iteration = %v", keys)
	}

	keys = keys[:0]
	for it = tree.Iterator(true); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	it.Close()
	if !reflect.DeepEqual(keys, []string{"ccc", "bbb", "aaa"}) {
		t.Errorf("reverse iteration = %v", keys)
	}

	// seek
	it = tree.Iterator(false)
	it.Seek([]byte("b"))
	if !it.Valid() || string(it.Key()) != "bbb" {
		t.Errorf("Seek(b) landed on %s, want bbb", it.Key())
	}
	it.Close()

	if err := tree.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
