package telegram

import (
	"strconv"
	"strings"
)

// Callback action constants.
const (
	actionAnswer       = "answer"
	actionQuiz         = "quiz"
	actionStats        = "stats"
	actionAchievements = "achievements"
)

// Quiz sub-actions.
const (
	quizStart    = "start"
	quizCategory = "category"
	quizRetry    = "retry"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// intParam returns the i-th parameter as an integer.
func (cd callbackData) intParam(i int) (int, bool) {
	if i >= len(cd.Params) {
		return 0, false
	}
	n, err := strconv.Atoi(cd.Params[i])
	if err != nil {
		return 0, false
	}
	return n, true
}

// param returns the i-th parameter or an empty string.
func (cd callbackData) param(i int) string {
	if i >= len(cd.Params) {
		return ""
	}
	return cd.Params[i]
}

// buildAnswerCallback encodes an answer to the question at index.
// The index lets a press on an old question's keyboard be told apart.
func buildAnswerCallback(index, option int) string {
	return callbackData{
		Action: actionAnswer,
		Params: []string{strconv.Itoa(index), strconv.Itoa(option)},
	}.encode()
}

// buildQuizStartCallback starts a quiz over all categories.
func buildQuizStartCallback() string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizStart},
	}.encode()
}

// buildQuizCategoryCallback starts a quiz restricted to one category.
func buildQuizCategoryCallback(category string) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizCategory, category},
	}.encode()
}

// buildQuizRetryCallback retries saving a finished quiz.
func buildQuizRetryCallback() string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizRetry},
	}.encode()
}

func buildStatsCallback() string {
	return callbackData{Action: actionStats}.encode()
}

func buildAchievementsCallback() string {
	return callbackData{Action: actionAchievements}.encode()
}
