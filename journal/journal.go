// Copyright (c) 2024 The Data Fair Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/data-fair/catalog-data-fair/config"
)

// This is the download journal, which logs all completed download activity.
// The journal is a table of download records (one per task), kept only when
// a journal directory is configured.

// a record storing all information relevant to a completed download
type Record struct {
	// UUID of the download task
	Id uuid.UUID `json:"id"`
	// the configured catalog name and the dataset downloaded from it
	Catalog string `json:"catalog"`
	Dataset string `json:"dataset"`
	// times at which the download was requested and at which it completed
	StartTime time.Time `json:"start_time"`
	StopTime  time.Time `json:"stop_time"`
	// terminal status of the download ("succeeded", "failed", or "canceled")
	Status string `json:"status"`
	// number of bytes written before the download reached its terminal state
	PayloadSize int64 `json:"payload_size"`
	// path of the downloaded file (successes only)
	FilePath string `json:"file_path,omitempty"`
}

// Opens the download journal if the service configuration names a journal
// directory; without one the journal simply stays closed and recording
// becomes a no-op for callers that check IsOpen().
func Init() error {
	mutex.Lock()
	defer mutex.Unlock()
	if db != nil {
		return nil
	}
	if config.Service.JournalDirectory == "" {
		return nil
	}

	dbPath := filepath.Join(config.Service.JournalDirectory, "download_journal.db")
	journalDb, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return CantOpenError{Message: err.Error()}
	}
	err = journalDb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte("downloads"))
		return err
	})
	if err != nil {
		journalDb.Close()
		return CantOpenError{Message: err.Error()}
	}
	db = journalDb
	return nil
}

// saves and closes the download journal (if it's been opened)
func Finalize() error {
	mutex.Lock()
	defer mutex.Unlock()
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

// returns true if the journal is open for writing, false if not
func IsOpen() bool {
	mutex.Lock()
	defer mutex.Unlock()
	return db != nil
}

// records a download that reached a terminal state
// record: the record containing all download information
func RecordDownload(record Record) error {
	switch record.Status {
	case "succeeded", "failed", "canceled":
		// pass-through (see below)
	default:
		return NewRecordError{
			Id:      record.Id,
			Message: fmt.Sprintf("Invalid status: %s", record.Status),
		}
	}

	mutex.Lock()
	defer mutex.Unlock()
	if db == nil {
		return NotOpenError{}
	}

	jsonBytes, err := json.Marshal(&record)
	if err != nil {
		return NewRecordError{Id: record.Id, Message: err.Error()}
	}
	err = db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte("downloads"))
		return bucket.Put(recordKey(record.StartTime), jsonBytes)
	})
	if err != nil {
		return NewRecordError{Id: record.Id, Message: err.Error()}
	}
	return nil
}

// retrieves records for downloads that started within the time range with
// the given (inclusive) bounds
// start: the beginning of the time period of interest
// stop: the end of the time period of interest
func Records(start, stop time.Time) ([]Record, error) {
	mutex.Lock()
	defer mutex.Unlock()
	if db == nil {
		return nil, NotOpenError{}
	}

	records := make([]Record, 0)
	err := db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte("downloads")).Cursor()
		startKey := recordKey(start)
		stopKey := recordKey(stop)
		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, stopKey) <= 0; k, v = c.Next() {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	return records, err
}

//-----------
// Internals
//-----------

var mutex sync.Mutex
var db *bolt.DB

// records are indexed by their start times; fixed-width decimal nanosecond
// keys keep the bucket's byte order identical to chronological order
func recordKey(t time.Time) []byte {
	return []byte(fmt.Sprintf("%020d", t.UnixNano()))
}
