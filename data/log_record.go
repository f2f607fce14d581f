package data

import (
	"encoding/binary"
	"hash/crc32"
)

type LogRecordType = byte

const (
	LogRecordNormal LogRecordType = iota
	LogRecordDeleted
	LogRecordTxFinished
)

// maxLogRecordHeaderSize is the size of the header of a log record in bytes.
// crc type key size value size
// 4  + 1     + 5       +5    = 15 bytes
const maxLogRecordHeaderSize = binary.MaxVarintLen32*2 + 5

// LogRecord represents a record in the log.
// It contains the key, value, and type of the record.
// The key and value are byte slices, and the type is a LogRecordType.
type LogRecord struct {
	Key   []byte        // key of the record
	Value []byte        // value of the record
	Type  LogRecordType // type of the record
}

type logRecordHeader struct {
	crc        uint32        // crc32 of the record
	recordType LogRecordType // type of the LogRecord
	keySize    uint32        // length of the key
	valueSize  uint32        // length of the value
}

// EncodeLogRecord encodes a log record into a byte slice and returns it
// together with its total length.
//
// +--------+------+--------------+----------------+-------+-------+
// |  crc   | type |   key size   |   value size   |  key  | value |
// +--------+------+--------------+----------------+-------+-------+
//   4 bytes  1 byte  varint (max 5)  varint (max 5)
func EncodeLogRecord(record *LogRecord) ([]byte, int64) {
	header := make([]byte, maxLogRecordHeaderSize)
	header[4] = record.Type
	index := 5
	index += binary.PutVarint(header[index:], int64(len(record.Key)))
	index += binary.PutVarint(header[index:], int64(len(record.Value)))

	size := index + len(record.Key) + len(record.Value)
	encBytes := make([]byte, size)
	copy(encBytes[:index], header[:index])
	copy(encBytes[index:], record.Key)
	copy(encBytes[index+len(record.Key):], record.Value)

	// crc covers everything after the crc field itself
	crc := crc32.ChecksumIEEE(encBytes[4:])
	binary.LittleEndian.PutUint32(encBytes[:4], crc)

	return encBytes, int64(size)
}

// decodeLogRecordHeader decodes a log record header from a byte slice and
// returns it together with the header length.
func decodeLogRecordHeader(buf []byte) (*logRecordHeader, int64) {
	if len(buf) <= 4 {
		return nil, 0
	}

	header := &logRecordHeader{
		crc:        binary.LittleEndian.Uint32(buf[:4]),
		recordType: buf[4],
	}

	index := 5
	keySize, n := binary.Varint(buf[index:])
	index += n
	valueSize, n := binary.Varint(buf[index:])
	index += n

	header.keySize = uint32(keySize)
	header.valueSize = uint32(valueSize)
	return header, int64(index)
}

// getLogRecordCRC computes the crc of a log record given its encoded
// header without the crc field.
func getLogRecordCRC(lr *LogRecord, header []byte) uint32 {
	if lr == nil {
		return 0
	}
	crc := crc32.ChecksumIEEE(header)
	crc = crc32.Update(crc, crc32.IEEETable, lr.Key)
	crc = crc32.Update(crc, crc32.IEEETable, lr.Value)
	return crc
}

// LogRecordPos represents the position of a log record in a file.
type LogRecordPos struct {
	Fid    uint32 // file id of the log file
	Offset int64  // offset in the file
}

// EncodeLogRecordPos encodes a log record position into a byte slice.
func EncodeLogRecordPos(pos *LogRecordPos) []byte {
	buf := make([]byte, binary.MaxVarintLen32+binary.MaxVarintLen64)
	index := binary.PutVarint(buf, int64(pos.Fid))
	index += binary.PutVarint(buf[index:], pos.Offset)
	return buf[:index]
}

// DecodeLogRecordPos decodes a log record position from a byte slice.
func DecodeLogRecordPos(buf []byte) *LogRecordPos {
	fid, n := binary.Varint(buf)
	offset, _ := binary.Varint(buf[n:])
	return &LogRecordPos{Fid: uint32(fid), Offset: offset}
}

// TransactionRecord is a log record held back during index rebuild until
// its transaction-finished marker is seen.
type TransactionRecord struct {
	Record *LogRecord
	Pos    *LogRecordPos
}
