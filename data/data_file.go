package data

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ttrung2409/EventStore/fio"
)

var ErrInvalidCRC = errors.New("invalid crc value, log record maybe corrupted")

const (
	DataFileNameSuffix    = ".data"
	HintFileName          = "hint-index"
	MergeFinishedFileName = "merge-finished"
	SeqNoFileName         = "seq-no"
)

// DataFile is a struct that represents a data file.
type DataFile struct {
	FileId    uint32        // unique identifier of the file
	WriteOff  int64         // offset at which the file was last written to
	IoManager fio.IOManager // IO manager for the file
}

// GetDataFileName returns the on-disk name of the data file with the given id.
func GetDataFileName(dirPath string, fileId uint32) string {
	return filepath.Join(dirPath, fmt.Sprintf("%09d", fileId)+DataFileNameSuffix)
}

// OpenDataFile opens a data file with the given fileId in the given directory.
func OpenDataFile(dirPath string, fileId uint32, ioType fio.FileIOType) (*DataFile, error) {
	fileName := GetDataFileName(dirPath, fileId)
	return newDataFile(fileName, fileId, ioType)
}

// OpenHintFile opens the hint index file in the given directory.
func OpenHintFile(dirPath string) (*DataFile, error) {
	fileName := filepath.Join(dirPath, HintFileName)
	return newDataFile(fileName, 0, fio.StandardFIO)
}

// OpenMergeFinishedFile opens the merge-finished marker file in the given directory.
func OpenMergeFinishedFile(dirPath string) (*DataFile, error) {
	fileName := filepath.Join(dirPath, MergeFinishedFileName)
	return newDataFile(fileName, 0, fio.StandardFIO)
}

// OpenSeqNoFile opens the sequence-number file in the given directory.
func OpenSeqNoFile(dirPath string) (*DataFile, error) {
	fileName := filepath.Join(dirPath, SeqNoFileName)
	return newDataFile(fileName, 0, fio.StandardFIO)
}

func newDataFile(fileName string, fileId uint32, ioType fio.FileIOType) (*DataFile, error) {
	ioManager, err := fio.NewIOManager(fileName, ioType)
	if err != nil {
		return nil, err
	}
	return &DataFile{
		FileId:    fileId,
		WriteOff:  0,
		IoManager: ioManager,
	}, nil
}

// ReadLogRecord reads the log record at the given offset and returns it
// together with its encoded size.
func (df *DataFile) ReadLogRecord(offset int64) (*LogRecord, int64, error) {
	fileSize, err := df.IoManager.Size()
	if err != nil {
		return nil, 0, err
	}

	// near the end of the file the full header may not fit; read only
	// what is there
	var headerBytes int64 = maxLogRecordHeaderSize
	if offset+headerBytes > fileSize {
		headerBytes = fileSize - offset
	}
	if headerBytes <= 0 {
		return nil, 0, io.EOF
	}

	headerBuf, err := df.readNBytes(headerBytes, offset)
	if err != nil {
		return nil, 0, err
	}
	header, headerSize := decodeLogRecordHeader(headerBuf)
	// a zeroed header marks the end of valid data (direct I/O files are
	// padded out to a whole block)
	if header == nil {
		return nil, 0, io.EOF
	}
	if header.crc == 0 && header.keySize == 0 && header.valueSize == 0 {
		return nil, 0, io.EOF
	}

	keySize, valueSize := int64(header.keySize), int64(header.valueSize)
	recordSize := headerSize + keySize + valueSize

	logRecord := &LogRecord{Type: header.recordType}
	if keySize > 0 || valueSize > 0 {
		kvBuf, err := df.readNBytes(keySize+valueSize, offset+headerSize)
		if err != nil {
			return nil, 0, err
		}
		logRecord.Key = kvBuf[:keySize]
		logRecord.Value = kvBuf[keySize:]
	}

	// verify the record against its stored crc
	crc := getLogRecordCRC(logRecord, headerBuf[crc32Len:headerSize])
	if crc != header.crc {
		return nil, 0, ErrInvalidCRC
	}

	return logRecord, recordSize, nil
}

const crc32Len = 4

// Write appends the given bytes to the data file.
func (df *DataFile) Write(buf []byte) error {
	n, err := df.IoManager.Write(buf)
	if err != nil {
		return err
	}
	df.WriteOff += int64(n)
	return nil
}

// WriteHintRecord writes an index hint for key pointing at pos.
func (df *DataFile) WriteHintRecord(key []byte, pos *LogRecordPos) error {
	record := &LogRecord{
		Key:   key,
		Value: EncodeLogRecordPos(pos),
	}
	encRecord, _ := EncodeLogRecord(record)
	return df.Write(encRecord)
}

// SetWriteOff repositions the file for appending at offset. Backends that
// keep their own logical cursor, like the unbuffered stream, are seeked;
// append-mode files need nothing beyond the bookkeeping.
func (df *DataFile) SetWriteOff(offset int64) error {
	df.WriteOff = offset
	seeker, ok := df.IoManager.(io.Seeker)
	if !ok {
		return nil
	}
	// a mid-block offset leaves the stream's carry-over buffer with stale
	// content; read the existing tail back and rewrite it through the
	// buffer so the next flush keeps the block intact
	if stream, ok := df.IoManager.(*fio.UnbufferedStream); ok {
		aligned := offset - offset%stream.BlockSize()
		if skew := offset - aligned; skew > 0 {
			tail := make([]byte, skew)
			if _, err := stream.Read(tail, aligned); err != nil && err != io.EOF {
				return err
			}
			if _, err := stream.Seek(aligned, io.SeekStart); err != nil {
				return err
			}
			_, err := stream.Write(tail)
			return err
		}
	}
	_, err := seeker.Seek(offset, io.SeekStart)
	return err
}

// Sync flushes any unwritten data to disk.
func (df *DataFile) Sync() error {
	return df.IoManager.Sync()
}

// Close closes the data file.
func (df *DataFile) Close() error {
	return df.IoManager.Close()
}

func (df *DataFile) readNBytes(n int64, offset int64) ([]byte, error) {
	buf := make([]byte, n)
	_, err := df.IoManager.Read(buf, offset)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}
