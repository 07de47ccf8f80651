package docstore

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/BillStark001/quizzy/internal/storage"
)

// DeleteUnlinked hard-removes questions that are referenced neither by any
// live paper's question list nor by any quiz record's answers. The scan and
// all removals run in one transaction. Returns the number of removed
// questions.
func (s *Store) DeleteUnlinked(ctx context.Context) (int, error) {
	tx, err := s.storage.Begin(ctx, true)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	linked := make(map[string]struct{})
	err = tx.Scan(storage.Papers, func(rec *storage.Record) error {
		if rec.Deleted {
			return nil
		}
		var paper struct {
			Questions []string `json:"questions"`
		}
		if err := json.Unmarshal(rec.Body, &paper); err != nil {
			return err
		}
		for _, qid := range paper.Questions {
			linked[qid] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	err = tx.Scan(storage.Records, func(rec *storage.Record) error {
		var record struct {
			Answers map[string]string `json:"answers"`
		}
		if err := json.Unmarshal(rec.Body, &record); err != nil {
			return err
		}
		for qid := range record.Answers {
			linked[qid] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	var orphans []string
	err = tx.Scan(storage.Questions, func(rec *storage.Record) error {
		if _, ok := linked[rec.ID]; !ok {
			orphans = append(orphans, rec.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, id := range orphans {
		if _, err := tx.Delete(storage.Questions, id); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if len(orphans) > 0 {
		s.invalidate()
	}
	if s.logger != nil {
		s.logger.Debug("removed unlinked questions", zap.Int("count", len(orphans)))
	}
	return len(orphans), nil
}
