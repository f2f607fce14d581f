package eventstore

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ttrung2409/EventStore/data"
	"github.com/ttrung2409/EventStore/fio"
	"github.com/ttrung2409/EventStore/index"
)

// DB represents a log-structured key-value store. All writes are appended
// to data files; an in-memory index maps each key to the position of its
// latest record.
type DB struct {
	options    Options
	mut        *sync.RWMutex
	fileIds    []int                     // sorted data file ids, populated at load time
	activeFile *data.DataFile            // active data file
	olderFiles map[uint32]*data.DataFile // older data files, only read
	index      index.Indexer             // memory index
	seqNo      uint64                    // transaction sequence number, globally increasing
	isMerging  bool                      // whether a merge is in progress
}

// Open opens a database instance backed by the directory in options.
func Open(options Options) (*DB, error) {
	if err := checkOptions(options); err != nil {
		return nil, err
	}

	// create the data directory if it does not exist
	if _, err := os.Stat(options.DirPath); os.IsNotExist(err) {
		if err := os.MkdirAll(options.DirPath, os.ModePerm); err != nil {
			return nil, err
		}
	}

	db := &DB{
		options:    options,
		mut:        new(sync.RWMutex),
		olderFiles: make(map[uint32]*data.DataFile),
		index:      index.NewIndexer(options.IndexType, options.DirPath, options.SyncWrites),
	}

	// take over the results of an earlier merge, if one finished
	if err := db.loadMergeFiles(); err != nil {
		return nil, err
	}

	if err := db.loadDataFiles(); err != nil {
		return nil, err
	}

	if err := db.loadIndexFromHintFile(); err != nil {
		return nil, err
	}

	if err := db.loadIndexFromDataFiles(); err != nil {
		return nil, err
	}

	return db, nil
}

func checkOptions(options Options) error {
	if options.DirPath == "" {
		return ErrDirPathIsEmpty
	}
	if options.DataFileSize <= 0 {
		return ErrDataFileSizeInvalid
	}
	// reads go to the device, so without sync every Get could race the
	// stream's write buffer
	if options.IOType == fio.DirectFIO && !options.SyncWrites {
		return ErrSyncWritesRequired
	}
	return nil
}

// Put inserts a key-value pair into the database.
// It returns an error if the key is empty.
// It returns an error if the index update failed.
// It returns an error if there is an error writing to disk.
func (db *DB) Put(key, value []byte) error {
	// key and value validation
	if len(key) == 0 {
		return ErrKeyIsEmpty
	}

	// new log record
	logRecord := &data.LogRecord{
		Key:   logRecordKeyWithSeq(key, nonTransactionalSeqNo),
		Value: value,
		Type:  data.LogRecordNormal,
	}

	// append log record to active data file
	pos, err := db.appendLogRecordWithLock(logRecord)
	if err != nil {
		return err
	}

	// update memory index
	if ok := db.index.Put(key, pos); !ok {
		return ErrIndexUpdateFailed
	}

	return nil
}

// Delete removes a key from the database. Deleting a key that does not
// exist is not an error.
func (db *DB) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrKeyIsEmpty
	}

	// nothing to do when the key was never written
	if pos := db.index.Get(key); pos == nil {
		return nil
	}

	// append a tombstone record
	logRecord := &data.LogRecord{
		Key:  logRecordKeyWithSeq(key, nonTransactionalSeqNo),
		Type: data.LogRecordDeleted,
	}
	if _, err := db.appendLogRecordWithLock(logRecord); err != nil {
		return err
	}

	if ok := db.index.Delete(key); !ok {
		return ErrIndexUpdateFailed
	}
	return nil
}

// Get retrieves the value of a key from the database.
// It returns an error if the key is empty.
// It returns an error if the index lookup failed.
func (db *DB) Get(key []byte) ([]byte, error) {
	db.mut.RLock()
	defer db.mut.RUnlock()

	// key validation
	if len(key) == 0 {
		return nil, ErrKeyIsEmpty
	}

	// lookup log record position from memory index
	logRecordPos := db.index.Get(key)
	// if not found key, return error
	if logRecordPos == nil {
		return nil, ErrKeyNotFound
	}

	return db.getValueByPosition(logRecordPos)
}

// getValueByPosition reads the value stored at the given log position.
// Access to this method requires holding db.mut.
func (db *DB) getValueByPosition(logRecordPos *data.LogRecordPos) ([]byte, error) {
	var dataFile *data.DataFile
	if db.activeFile != nil && logRecordPos.Fid == db.activeFile.FileId {
		dataFile = db.activeFile
	} else {
		dataFile = db.olderFiles[logRecordPos.Fid]
	}
	// if data file not found, return error
	if dataFile == nil {
		return nil, ErrDataFileNotFound
	}

	// read log record from data file offset by logRecordPos
	logRecord, _, err := dataFile.ReadLogRecord(logRecordPos.Offset)
	if err != nil {
		return nil, err
	}

	// log record validation, if log record is deleted, return error
	if logRecord.Type == data.LogRecordDeleted {
		return nil, ErrKeyNotFound
	}

	return logRecord.Value, nil
}

func (db *DB) appendLogRecordWithLock(logRecord *data.LogRecord) (*data.LogRecordPos, error) {
	db.mut.Lock()
	defer db.mut.Unlock()
	return db.appendLogRecord(logRecord)
}

// appendLogRecord appends a record to the active data file, rolling over
// to a new file when the active one reaches its size limit. Access to
// this method requires holding db.mut.
func (db *DB) appendLogRecord(logRecord *data.LogRecord) (*data.LogRecordPos, error) {
	// if active file is full, create a new one
	// if active file is not full, append log record to active file
	if db.activeFile == nil {
		// create new data file
		if err := db.setActiveFile(); err != nil {
			return nil, err
		}
	}

	// encode log record
	encRecord, size := data.EncodeLogRecord(logRecord)
	// if active file is full, create a new one
	// if active file is not full, append log record to active file
	if db.activeFile.WriteOff+size > db.options.DataFileSize {
		// persistence logic, sync current memory buffer to disk
		if err := db.activeFile.Sync(); err != nil {
			return nil, err
		}

		// current active file becomes older file
		db.olderFiles[db.activeFile.FileId] = db.activeFile

		// create new data file
		if err := db.setActiveFile(); err != nil {
			return nil, err
		}
	}

	writeOff := db.activeFile.WriteOff
	// write log record to active file
	if err := db.activeFile.Write(encRecord); err != nil {
		return nil, err
	}

	// if you need immediately flush to disk, call Sync()
	if db.options.SyncWrites {
		if err := db.activeFile.Sync(); err != nil {
			return nil, err
		}
	}

	// construct log record position with memory index, return it
	pos := &data.LogRecordPos{
		Fid:    db.activeFile.FileId,
		Offset: writeOff,
	}
	return pos, nil
}

// setActiveFile sets the active data file to the latest one.
// It returns an error if there is no data file to set as active.
// Access this method needs db.mut is required.
func (db *DB) setActiveFile() error {
	var initialFileId uint32 = 0
	if db.activeFile != nil {
		initialFileId = db.activeFile.FileId + 1
	}
	// open new data dataFile
	dataFile, err := data.OpenDataFile(db.options.DirPath, initialFileId, db.options.IOType)
	if err != nil {
		return err
	}

	db.activeFile = dataFile
	return nil
}

// ListKeys returns all the keys in the database.
func (db *DB) ListKeys() [][]byte {
	iterator := db.index.Iterator(false)
	defer iterator.Close()
	keys := make([][]byte, db.index.Size())
	var idx int
	for iterator.Rewind(); iterator.Valid(); iterator.Next() {
		keys[idx] = iterator.Key()
		idx++
	}
	return keys
}

// Fold applies fn to every key-value pair in the database, stopping when
// fn returns false.
func (db *DB) Fold(fn func(key []byte, value []byte) bool) error {
	db.mut.RLock()
	defer db.mut.RUnlock()

	iterator := db.index.Iterator(false)
	defer iterator.Close()
	for iterator.Rewind(); iterator.Valid(); iterator.Next() {
		value, err := db.getValueByPosition(iterator.Value())
		if err != nil {
			return err
		}
		if !fn(iterator.Key(), value) {
			break
		}
	}
	return nil
}

// Sync persists the active data file to disk.
func (db *DB) Sync() error {
	if db.activeFile == nil {
		return nil
	}
	db.mut.Lock()
	defer db.mut.Unlock()
	return db.activeFile.Sync()
}

// Close flushes and closes the data files and the index. The file handles
// are released even when an earlier step fails.
func (db *DB) Close() error {
	if db.activeFile == nil {
		return db.index.Close()
	}
	db.mut.Lock()
	defer db.mut.Unlock()

	closeErr := db.index.Close()

	if err := db.activeFile.Close(); err != nil && closeErr == nil {
		closeErr = err
	}
	for _, file := range db.olderFiles {
		if err := file.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
	}
	return closeErr
}

// loadDataFiles discovers the data files in the directory and opens them,
// the one with the highest id as the active file.
func (db *DB) loadDataFiles() error {
	dirEntries, err := os.ReadDir(db.options.DirPath)
	if err != nil {
		return err
	}

	var fileIds []int
	for _, entry := range dirEntries {
		if !strings.HasSuffix(entry.Name(), data.DataFileNameSuffix) {
			continue
		}
		splitNames := strings.Split(entry.Name(), ".")
		fileId, err := strconv.Atoi(splitNames[0])
		// the directory holds something that is not ours
		if err != nil {
			return ErrDataDirectoryCorrupted
		}
		fileIds = append(fileIds, fileId)
	}

	sort.Ints(fileIds)
	db.fileIds = fileIds

	for i, fid := range fileIds {
		dataFile, err := data.OpenDataFile(db.options.DirPath, uint32(fid), db.options.IOType)
		if err != nil {
			return err
		}
		if i == len(fileIds)-1 {
			db.activeFile = dataFile
		} else {
			db.olderFiles[uint32(fid)] = dataFile
		}
	}
	return nil
}

// loadIndexFromDataFiles replays the data files in id order and rebuilds
// the memory index. Records written by a batch only become visible once
// their transaction-finished marker is seen.
func (db *DB) loadIndexFromDataFiles() error {
	if len(db.fileIds) == 0 {
		return nil
	}

	// files already covered by a finished merge are represented in the
	// hint file and can be skipped
	hasMerge, nonMergeFileId := false, uint32(0)
	mergeFinFileName := filepath.Join(db.options.DirPath, data.MergeFinishedFileName)
	if _, err := os.Stat(mergeFinFileName); err == nil {
		fid, err := db.getNonMergeFileId(db.options.DirPath)
		if err != nil {
			return err
		}
		hasMerge = true
		nonMergeFileId = fid
	}

	updateIndex := func(key []byte, typ data.LogRecordType, pos *data.LogRecordPos) {
		if typ == data.LogRecordDeleted {
			db.index.Delete(key)
		} else {
			db.index.Put(key, pos)
		}
	}

	// records of an uncommitted batch, keyed by sequence number
	transactionRecords := make(map[uint64][]*data.TransactionRecord)
	currentSeqNo := nonTransactionalSeqNo

	for i, fid := range db.fileIds {
		fileId := uint32(fid)
		if hasMerge && fileId < nonMergeFileId {
			continue
		}

		var dataFile *data.DataFile
		if fileId == db.activeFile.FileId {
			dataFile = db.activeFile
		} else {
			dataFile = db.olderFiles[fileId]
		}

		var offset int64 = 0
		for {
			logRecord, size, err := dataFile.ReadLogRecord(offset)
			if err != nil {
				if err == io.EOF {
					break
				}
				return err
			}

			logRecordPos := &data.LogRecordPos{Fid: fileId, Offset: offset}

			seqNo, realKey := parseLogRecordKey(logRecord.Key)
			if seqNo == nonTransactionalSeqNo {
				// not written by a batch, apply immediately
				updateIndex(realKey, logRecord.Type, logRecordPos)
			} else if logRecord.Type == data.LogRecordTxFinished {
				// the batch committed, apply its records
				for _, txRecord := range transactionRecords[seqNo] {
					updateIndex(txRecord.Record.Key, txRecord.Record.Type, txRecord.Pos)
				}
				delete(transactionRecords, seqNo)
			} else {
				logRecord.Key = realKey
				transactionRecords[seqNo] = append(transactionRecords[seqNo], &data.TransactionRecord{
					Record: logRecord,
					Pos:    logRecordPos,
				})
			}

			if seqNo > currentSeqNo {
				currentSeqNo = seqNo
			}

			offset += size
		}

		// remember where appends continue in the active file
		if i == len(db.fileIds)-1 {
			if err := dataFile.SetWriteOff(offset); err != nil {
				return err
			}
		}
	}

	db.seqNo = currentSeqNo
	return nil
}
