package docstore

import (
	"context"
	"fmt"

	"github.com/BillStark001/quizzy/internal/models"
	"github.com/BillStark001/quizzy/internal/storage"
)

// ImportQuestions inserts a batch of new questions and returns their ids.
// Blank ids are assigned; an existing id fails the whole batch with
// ErrDuplicateKey. Imported documents stay stale until the next index refresh.
func (s *Store) ImportQuestions(ctx context.Context, items []*models.Question) ([]string, error) {
	docs, err := toDocs(items)
	if err != nil {
		return nil, err
	}
	return s.importDocs(ctx, storage.Questions, docs)
}

// ImportPapers inserts a batch of new quiz papers and returns their ids.
func (s *Store) ImportPapers(ctx context.Context, items []*models.QuizPaper) ([]string, error) {
	docs, err := toDocs(items)
	if err != nil {
		return nil, err
	}
	return s.importDocs(ctx, storage.Papers, docs)
}

// ImportRecords inserts a batch of quiz attempt records and returns their ids.
func (s *Store) ImportRecords(ctx context.Context, items []*models.QuizRecord) ([]string, error) {
	docs, err := toDocs(items)
	if err != nil {
		return nil, err
	}
	return s.importDocs(ctx, storage.Records, docs)
}

// UpdateQuestion patches the question with the given id, creating it when
// absent. Fails with ErrConcurrentModification on a lost optimistic-lock race.
func (s *Store) UpdateQuestion(ctx context.Context, id string, patch map[string]interface{}, opts UpdateOptions) error {
	return s.update(ctx, storage.Questions, id, patch, opts)
}

// UpdatePaper patches the quiz paper with the given id, creating it when absent.
func (s *Store) UpdatePaper(ctx context.Context, id string, patch map[string]interface{}, opts UpdateOptions) error {
	return s.update(ctx, storage.Papers, id, patch, opts)
}

// DeleteQuestion soft-deletes (or with hard, removes) a question.
// Returns false when the id does not exist.
func (s *Store) DeleteQuestion(ctx context.Context, id string, hard bool) (bool, error) {
	return s.delete(ctx, storage.Questions, id, hard)
}

// DeletePaper soft-deletes (or with hard, removes) a quiz paper.
func (s *Store) DeletePaper(ctx context.Context, id string, hard bool) (bool, error) {
	return s.delete(ctx, storage.Papers, id, hard)
}

// GetQuestion returns the question with the given id, or nil when absent.
// Derived index fields are never exposed.
func (s *Store) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	doc, err := s.getDoc(ctx, storage.Questions, id)
	if err != nil || doc == nil {
		return nil, err
	}
	var q models.Question
	if err := models.FromMap(doc, &q); err != nil {
		return nil, fmt.Errorf("failed to decode question: %w", err)
	}
	return &q, nil
}

// GetPaper returns the quiz paper with the given id, or nil when absent.
func (s *Store) GetPaper(ctx context.Context, id string) (*models.QuizPaper, error) {
	doc, err := s.getDoc(ctx, storage.Papers, id)
	if err != nil || doc == nil {
		return nil, err
	}
	var p models.QuizPaper
	if err := models.FromMap(doc, &p); err != nil {
		return nil, fmt.Errorf("failed to decode paper: %w", err)
	}
	return &p, nil
}

// GetRecord returns the quiz record with the given id, or nil when absent.
func (s *Store) GetRecord(ctx context.Context, id string) (*models.QuizRecord, error) {
	doc, err := s.getDoc(ctx, storage.Records, id)
	if err != nil || doc == nil {
		return nil, err
	}
	var r models.QuizRecord
	if err := models.FromMap(doc, &r); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &r, nil
}

// ListQuestionIds returns the ids of all live questions.
func (s *Store) ListQuestionIds(ctx context.Context) ([]string, error) {
	return s.listIds(ctx, storage.Questions)
}

// ListPaperIds returns the ids of all live quiz papers.
func (s *Store) ListPaperIds(ctx context.Context) ([]string, error) {
	return s.listIds(ctx, storage.Papers)
}

func toDocs[T any](items []*T) ([]map[string]interface{}, error) {
	docs := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		doc, err := models.ToMap(item)
		if err != nil {
			return nil, fmt.Errorf("failed to encode document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
