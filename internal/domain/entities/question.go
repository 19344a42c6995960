package entities

import (
	"errors"
	"fmt"
)

// OptionsPerQuestion is the fixed number of answer options of every question.
const OptionsPerQuestion = 4

// NoAnswer is the selected option index recorded when the timer expired.
const NoAnswer = -1

// Category is one of the fixed trivia categories.
type Category string

const (
	CategoryHistory    Category = "history"
	CategoryGeography  Category = "geography"
	CategoryScience    Category = "science"
	CategoryLiterature Category = "literature"
	CategoryArts       Category = "arts"
	CategoryGeneral    Category = "general"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryHistory,
	CategoryGeography,
	CategoryScience,
	CategoryLiterature,
	CategoryArts,
	CategoryGeneral,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Difficulty is the question difficulty grade.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the grades from easiest to hardest.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

var ErrInvalidQuestion = errors.New("invalid question")

// Question is an immutable multiple-choice trivia question.
type Question struct {
	ID           string     `json:"id"`
	Prompt       string     `json:"prompt"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correct_index"`
	Category     Category   `json:"category"`
	Difficulty   Difficulty `json:"difficulty"`
	Explanation  string     `json:"explanation,omitempty"`
	Reference    string     `json:"reference,omitempty"`
}

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	switch {
	case q.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidQuestion)
	case q.Prompt == "":
		return fmt.Errorf("%w: %s: empty prompt", ErrInvalidQuestion, q.ID)
	case len(q.Options) != OptionsPerQuestion:
		return fmt.Errorf("%w: %s: expected %d options, got %d", ErrInvalidQuestion, q.ID, OptionsPerQuestion, len(q.Options))
	case q.CorrectIndex < 0 || q.CorrectIndex >= OptionsPerQuestion:
		return fmt.Errorf("%w: %s: correct index %d out of range", ErrInvalidQuestion, q.ID, q.CorrectIndex)
	case !q.Category.Valid():
		return fmt.Errorf("%w: %s: unknown category %q", ErrInvalidQuestion, q.ID, q.Category)
	case !q.Difficulty.Valid():
		return fmt.Errorf("%w: %s: unknown difficulty %q", ErrInvalidQuestion, q.ID, q.Difficulty)
	}
	return nil
}

// IsCorrect reports whether optionIndex is the right answer.
func (q Question) IsCorrect(optionIndex int) bool {
	return optionIndex == q.CorrectIndex
}

// QuestionFilter narrows a pool fetch. Zero values mean "any".
type QuestionFilter struct {
	Category   Category
	Difficulty Difficulty
}

// IsZero reports whether the filter matches every question.
func (f QuestionFilter) IsZero() bool {
	return f.Category == "" && f.Difficulty == ""
}

// Match reports whether q satisfies the filter.
func (f QuestionFilter) Match(q Question) bool {
	if f.Category != "" && q.Category != f.Category {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	return true
}
