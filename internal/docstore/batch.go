package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/BillStark001/quizzy/internal/models"
)

// Batch is the on-disk import format: one JSON object holding any mix of
// questions, papers, and records.
type Batch struct {
	Questions []*models.Question   `json:"questions,omitempty"`
	Papers    []*models.QuizPaper  `json:"papers,omitempty"`
	Records   []*models.QuizRecord `json:"records,omitempty"`
}

// ImportBatchFile reads a batch file and imports its contents. Returns the
// number of imported documents. Duplicate ids fail the collection's batch.
func (s *Store) ImportBatchFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read batch file: %w", err)
	}
	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return 0, fmt.Errorf("failed to parse batch file: %w", err)
	}

	count := 0
	if len(batch.Questions) > 0 {
		ids, err := s.ImportQuestions(ctx, batch.Questions)
		if err != nil {
			return count, err
		}
		count += len(ids)
	}
	if len(batch.Papers) > 0 {
		ids, err := s.ImportPapers(ctx, batch.Papers)
		if err != nil {
			return count, err
		}
		count += len(ids)
	}
	if len(batch.Records) > 0 {
		ids, err := s.ImportRecords(ctx, batch.Records)
		if err != nil {
			return count, err
		}
		count += len(ids)
	}
	return count, nil
}
