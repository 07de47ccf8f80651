// Package docstore provides versioned CRUD over the storage primitive:
// batch import, optimistic-lock patch updates, soft/hard delete, and orphan
// cleanup.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BillStark001/quizzy/internal/models"
	"github.com/BillStark001/quizzy/internal/storage"
)

// CacheInvalidator is notified after every successful mutation; any
// mutation may change ranking, so invalidation is deliberately wholesale.
type CacheInvalidator interface {
	InvalidateAll()
}

// Store owns the document lifecycle for all collections.
type Store struct {
	storage storage.Storage
	cache   CacheInvalidator // optional
	logger  *zap.Logger      // optional
	now     func() int64     // unix ms

	// invoked between the read and write phases of an update; used by
	// tests to interleave a competing writer.
	beforeWrite func(collection, id string)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithCache sets the score cache to invalidate on mutations.
func WithCache(c CacheInvalidator) StoreOption {
	return func(s *Store) { s.cache = c }
}

// NewStore creates a document store over the given storage.
func NewStore(st storage.Storage, opts ...StoreOption) *Store {
	s := &Store{
		storage: st,
		now:     func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateOptions controls patch application.
type UpdateOptions struct {
	// InvalidateKeywords clears the derived keyword fields so the indexer
	// recomputes them on the next refresh.
	InvalidateKeywords bool
}

func (s *Store) invalidate() {
	if s.cache != nil {
		s.cache.InvalidateAll()
	}
}

// importDocs inserts a batch of documents in one transaction. Each doc map
// must carry an "id"; ids that already exist fail the whole batch.
func (s *Store) importDocs(ctx context.Context, collection string, docs []map[string]interface{}) ([]string, error) {
	tx, err := s.storage.Begin(ctx, true)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := s.now()
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id, _ := doc["id"].(string)
		if id == "" {
			id = uuid.New().String()
			doc["id"] = id
		}
		existing, err := tx.Get(collection, id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateKey, collection, id)
		}
		doc["lastUpdate"] = now
		if err := putDoc(tx, collection, doc); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Debug("imported documents",
			zap.String("collection", collection), zap.Int("count", len(ids)))
	}
	return ids, nil
}

// update applies a patch with optimistic locking. A missing id degrades to
// a full create. The version token (lastUpdate) is read before the patch is
// computed and compared again inside the write transaction; a mismatch
// means a concurrent writer won and the whole operation fails.
func (s *Store) update(ctx context.Context, collection, id string, patch map[string]interface{}, opts UpdateOptions) error {
	rtx, err := s.storage.Begin(ctx, false)
	if err != nil {
		return err
	}
	current, err := rtx.Get(collection, id)
	if rbErr := rtx.Rollback(); err == nil {
		err = rbErr
	}
	if err != nil {
		return err
	}

	var token int64
	var doc map[string]interface{}
	if current == nil {
		doc = make(map[string]interface{}, len(patch)+2)
	} else {
		token = current.LastUpdate
		if err := json.Unmarshal(current.Body, &doc); err != nil {
			return fmt.Errorf("failed to decode document: %w", err)
		}
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	doc["id"] = id
	doc["lastUpdate"] = s.now()
	if opts.InvalidateKeywords {
		models.StripDerived(doc)
	}

	if s.beforeWrite != nil {
		s.beforeWrite(collection, id)
	}

	tx, err := s.storage.Begin(ctx, true)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	latest, err := tx.Get(collection, id)
	if err != nil {
		return err
	}
	switch {
	case current == nil && latest != nil:
		return fmt.Errorf("%w: %s/%s", ErrConcurrentModification, collection, id)
	case current != nil && (latest == nil || latest.LastUpdate != token):
		return fmt.Errorf("%w: %s/%s", ErrConcurrentModification, collection, id)
	}
	if err := putDoc(tx, collection, doc); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// delete soft-deletes (flag + bumped lastUpdate) or hard-deletes (row gone).
// Returns false when the id does not exist.
func (s *Store) delete(ctx context.Context, collection, id string, hard bool) (bool, error) {
	tx, err := s.storage.Begin(ctx, true)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	rec, err := tx.Get(collection, id)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	if hard {
		if _, err := tx.Delete(collection, id); err != nil {
			return false, err
		}
	} else {
		var doc map[string]interface{}
		if err := json.Unmarshal(rec.Body, &doc); err != nil {
			return false, fmt.Errorf("failed to decode document: %w", err)
		}
		doc["deleted"] = true
		doc["lastUpdate"] = s.now()
		if err := putDoc(tx, collection, doc); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	s.invalidate()
	return true, nil
}

// getDoc returns the document map for id with derived fields stripped, or
// nil when absent.
func (s *Store) getDoc(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	tx, err := s.storage.Begin(ctx, false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := tx.Get(collection, id)
	if err != nil || rec == nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(rec.Body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	models.StripDerived(doc)
	return doc, nil
}

// listIds returns the ids of all live (not soft-deleted) documents.
func (s *Store) listIds(ctx context.Context, collection string) ([]string, error) {
	tx, err := s.storage.Begin(ctx, false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids := make([]string, 0)
	err = tx.Scan(collection, func(rec *storage.Record) error {
		if !rec.Deleted {
			ids = append(ids, rec.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// putDoc writes a document map, mirroring its lifecycle fields into the
// record columns.
func putDoc(tx storage.Tx, collection string, doc map[string]interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	deleted, _ := doc["deleted"].(bool)
	id, _ := doc["id"].(string)
	return tx.Put(collection, &storage.Record{
		ID:         id,
		Deleted:    deleted,
		LastUpdate: lastUpdateOf(doc),
		Body:       body,
	})
}

func lastUpdateOf(doc map[string]interface{}) int64 {
	switch v := doc["lastUpdate"].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}
