// Package storage defines the durable collection primitive the core runs on.
package storage

import "context"

// Collection names known to the store.
const (
	Questions = "questions"
	Papers    = "papers"
	Records   = "records"
)

// Record is one stored document. Deleted and LastUpdate mirror the same
// fields inside Body so scans can filter without decoding it.
type Record struct {
	ID         string
	Deleted    bool
	LastUpdate int64
	Body       []byte
}

// Tx is a transaction scoped over all collections. Every Tx must end with
// exactly one Commit or Rollback, on every exit path.
type Tx interface {
	// Get returns the record with the given id, or nil if absent.
	Get(collection, id string) (*Record, error)
	// Put inserts or replaces a record.
	Put(collection string, rec *Record) error
	// Delete physically removes a record. Returns false if the id was absent.
	Delete(collection, id string) (bool, error)
	// Scan iterates every record in the collection in primary-key order.
	// Returning an error from fn stops the scan.
	Scan(collection string, fn func(rec *Record) error) error

	// KVGet returns the side-table value for key, or nil if absent.
	KVGet(key string) ([]byte, error)
	// KVPut inserts or replaces a side-table value.
	KVPut(key string, value []byte) error

	Commit() error
	Rollback() error
}

// Storage provides transactional access to the collections.
type Storage interface {
	// Begin opens a transaction. Writable transactions take the write lock
	// up front so read-verify-write sequences are race-free.
	Begin(ctx context.Context, writable bool) (Tx, error)
	Close() error
}
