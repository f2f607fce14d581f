package fio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestNewFileIOManager(t *testing.T) {
	fd, err := NewFileIOManager(filepath.Join(t.TempDir(), "a.data"))
	if err != nil {
		t.Fatalf("NewFileIOManager() error = %v", err)
	}
	if fd == nil {
		t.Fatalf("NewFileIOManager() got = %v, want not nil", fd)
	}
	if err = fd.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestFileIO_Write(t *testing.T) {
	fd, err := NewFileIOManager(filepath.Join(t.TempDir(), "a.data"))
	if err != nil {
		t.Fatalf("NewFileIOManager() error = %v", err)
	}
	defer fd.Close()

	tests := []struct {
		name    string
		bytes   []byte
		want    int
		wantErr error
	}{
		{
			name:    "TestWrite",
			bytes:   []byte("hello world"),
			want:    11,
			wantErr: nil,
		},
		{
			name:    "TestWrite Nil String",
			bytes:   []byte(""),
			want:    0,
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fd.Write(tt.bytes)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Write() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Write() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFileIO_Read(t *testing.T) {
	fd, err := NewFileIOManager(filepath.Join(t.TempDir(), "a.data"))
	if err != nil {
		t.Fatalf("NewFileIOManager() error = %v", err)
	}
	defer fd.Close()

	if _, err = fd.Write([]byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err = fd.Write([]byte(" world")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	tests := []struct {
		name        string
		bytes       []byte
		offset      int64
		want        int
		wantContent []byte
		wantErr     error
	}{
		{
			name:        "TestRead 1",
			bytes:       make([]byte, 5),
			offset:      0,
			want:        5,
			wantContent: []byte("hello"),
			wantErr:     nil,
		},
		{
			name:        "TestRead 2",
			bytes:       make([]byte, 6),
			offset:      5,
			want:        6,
			wantContent: []byte(" world"),
			wantErr:     nil,
		},
		{
			name:        "TestRead past end",
			bytes:       make([]byte, 5),
			offset:      100,
			want:        0,
			wantContent: []byte(""),
			wantErr:     io.EOF,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fd.Read(tt.bytes, tt.offset)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Read() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Read() got = %v, want %v", got, tt.want)
			}
			if string(tt.wantContent) != string(tt.bytes[:got]) {
				t.Errorf("Read() content = %v, want %v", string(tt.bytes[:got]), string(tt.wantContent))
			}
		})
	}
}

func TestFileIO_Sync(t *testing.T) {
	fd, err := NewFileIOManager(filepath.Join(t.TempDir(), "a.data"))
	if err != nil {
		t.Fatalf("NewFileIOManager() error = %v", err)
	}
	defer fd.Close()

	if _, err = fd.Write([]byte("hello world")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err = fd.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}

func TestFileIO_SizeAndTruncate(t *testing.T) {
	fd, err := openFileDevice(filepath.Join(t.TempDir(), "a.data"), os.O_CREATE|os.O_RDWR, DataFilePerm)
	if err != nil {
		t.Fatalf("openFileDevice() error = %v", err)
	}
	defer fd.Close()

	if _, err = fd.Write([]byte("hello world")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	size, err := fd.Size()
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}
	if size != 11 {
		t.Errorf("Size() got = %v, want 11", size)
	}

	if err = fd.Truncate(5); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}
	size, err = fd.Size()
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}
	if size != 5 {
		t.Errorf("Size() got = %v, want 5", size)
	}

	if err = fd.Seek(0); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	buf := make([]byte, 5)
	if _, err = fd.Read(buf, 0); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(buf) != "hello" {
		t.Errorf("Read() content = %v, want hello", string(buf))
	}
}
