package integration

import "github.com/BillStark001/quizzy/internal/models"

// Corpus is a small but realistic content set: a few questions across two
// subjects, one paper linking a subset of them, and one attempt record.
type Corpus struct {
	Questions []*models.Question
	Papers    []*models.QuizPaper
	Records   []*models.QuizRecord
}

// BuildCorpus returns the fixture corpus used by the integration tests.
func BuildCorpus() *Corpus {
	return &Corpus{
		Questions: []*models.Question{
			{
				ID:         "q-pythagoras",
				Title:      "Pythagorean theorem",
				Content:    "In a right triangle, the square of the hypotenuse equals the sum of the squares of the other two sides.",
				Tags:       []string{"geometry", "triangles"},
				Categories: []string{"math"},
			},
			{
				ID:         "q-primes",
				Title:      "Prime numbers",
				Content:    "A prime number is a natural number greater than one with no positive divisors other than one and itself.",
				Tags:       []string{"number theory"},
				Categories: []string{"math"},
			},
			{
				ID:         "q-photosynthesis",
				Title:      "Photosynthesis",
				Content:    "Photosynthesis converts light energy into chemical energy stored in glucose.",
				Tags:       []string{"plants"},
				Categories: []string{"biology"},
			},
			{
				ID:      "q-orphan",
				Content: "This question is referenced by no paper and no record.",
			},
		},
		Papers: []*models.QuizPaper{
			{
				ID:         "p-math-mock",
				Name:       "Math mock exam",
				Desc:       "Covers geometry and number theory basics.",
				Questions:  []string{"q-pythagoras", "q-primes"},
				Duration:   3600000,
				Tags:       []string{"mock"},
				Categories: []string{"math"},
			},
		},
		Records: []*models.QuizRecord{
			{
				ID:        "r-attempt-1",
				PaperID:   "p-math-mock",
				StartTime: 1700000000000,
				Answers:   map[string]string{"q-photosynthesis": "glucose"},
				Score:     100,
			},
		},
	}
}
