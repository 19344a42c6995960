package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

var (
	ErrDuplicateQuestionID = errors.New("duplicate question id")
	ErrNoQuestions         = errors.New("question bank is empty")
)

// QuestionRepository is a read-only question bank loaded from a JSON file.
type QuestionRepository struct {
	questions []entities.Question
}

// NewQuestionRepository loads and validates the questions stored at path.
func NewQuestionRepository(path string) (*QuestionRepository, error) {
	questions, err := loadQuestions(path)
	if err != nil {
		return nil, err
	}
	return NewQuestionRepositoryFrom(questions)
}

// NewQuestionRepositoryFrom builds a bank from questions after validating them.
func NewQuestionRepositoryFrom(questions []entities.Question) (*QuestionRepository, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[q.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateQuestionID, q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	return &QuestionRepository{
		questions: append([]entities.Question(nil), questions...),
	}, nil
}

// FetchPool returns every question matching filter, in file order.
func (r *QuestionRepository) FetchPool(_ context.Context, filter entities.QuestionFilter) ([]entities.Question, error) {
	pool := make([]entities.Question, 0, len(r.questions))
	for _, q := range r.questions {
		if filter.Match(q) {
			pool = append(pool, q)
		}
	}
	return pool, nil
}

// Len returns the number of questions in the bank.
func (r *QuestionRepository) Len() int {
	return len(r.questions)
}

// CountByCategory returns how many questions each category holds.
func (r *QuestionRepository) CountByCategory() map[entities.Category]int {
	counts := make(map[entities.Category]int, len(entities.Categories))
	for _, q := range r.questions {
		counts[q.Category]++
	}
	return counts
}

func loadQuestions(path string) ([]entities.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Questions []entities.Question `json:"questions"`
	}
	if err = json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions JSON: %w", err)
	}

	return wrapper.Questions, nil
}
