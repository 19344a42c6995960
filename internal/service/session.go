package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

// EventType identifies a session state transition.
type EventType string

const (
	EventQuestion  EventType = "question"  // a question is shown and accepts one answer
	EventAnswered  EventType = "answered"  // the answer (or expiry) was accepted
	EventCompleted EventType = "completed" // the last question was revealed
	EventCommitted EventType = "committed" // the summary was merged into progression
	EventReset     EventType = "reset"     // the session was discarded
)

// Event is delivered to observers after a transition.
type Event struct {
	Type      EventType
	Index     int // 0-based question index
	Total     int
	Question  entities.Question
	TimeLimit time.Duration
	Result    entities.QuestionResult
	Score     int
	Streak    int
	Summary   *entities.SessionSummary
	Merge     *MergeResult
}

// Observer receives session events. It is called without internal locks held,
// so it may call back into the session.
type Observer func(Event)

// Completion is returned by Complete.
type Completion struct {
	Summary entities.SessionSummary
	Merge   *MergeResult // nil when no committer is configured
}

// Session runs one quiz at a time for a single user.
// All transitions are serialized; when an answer and a timer expiry race,
// the first accepted one wins and the other is rejected without side effects.
type Session struct {
	userID    int64
	selector  Selector
	committer SessionCommitter
	logger    *zap.Logger
	now       func() time.Time
	newToken  func() string

	mu            sync.Mutex
	status        entities.SessionStatus
	cfg           entities.QuizConfig
	questions     []entities.Question
	index         int
	results       []entities.QuestionResult
	score         int
	streak        int
	bestStreak    int
	token         string
	startedAt     time.Time
	shownAt       time.Time
	lastActivity  time.Time
	pending       *entities.SessionSummary
	committing    bool
	lastCommitted string

	observersMu  sync.Mutex
	observers    map[int]Observer
	nextObserver int
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithTokenGenerator replaces the completion token generator.
func WithTokenGenerator(gen func() string) SessionOption {
	return func(s *Session) { s.newToken = gen }
}

// WithCommitter sets where completed sessions are merged.
func WithCommitter(c SessionCommitter) SessionOption {
	return func(s *Session) { s.committer = c }
}

// WithSessionLogger sets the logger.
func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates an idle session for userID.
func NewSession(userID int64, selector Selector, opts ...SessionOption) *Session {
	s := &Session{
		userID:    userID,
		selector:  selector,
		logger:    zap.NewNop(),
		now:       time.Now,
		newToken:  uuid.NewString,
		status:    entities.StatusIdle,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActivity = s.now()
	return s
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Session) Subscribe(o Observer) func() {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()

	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = o

	return func() {
		s.observersMu.Lock()
		defer s.observersMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Session) emit(events ...Event) {
	if len(events) == 0 {
		return
	}

	s.observersMu.Lock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	observers := make([]Observer, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		observers = append(observers, s.observers[id])
	}
	s.observersMu.Unlock()

	for _, ev := range events {
		for _, o := range observers {
			o(ev)
		}
	}
}

// Start selects the questions and shows the first one.
// A running session is discarded first. If fewer questions than requested
// are available the session still starts and an *InsufficientPoolError is returned.
func (s *Session) Start(ctx context.Context, cfg entities.QuizConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	questions, selErr := s.selector.Select(ctx, s.userID, cfg)
	if selErr != nil && !errors.Is(selErr, ErrInsufficientPool) {
		return selErr
	}
	if len(questions) == 0 {
		return ErrEmptyPool
	}

	s.mu.Lock()
	var events []Event
	if s.status != entities.StatusIdle || s.pending != nil {
		s.resetLocked()
		events = append(events, Event{Type: EventReset})
	}

	now := s.now()
	s.cfg = cfg
	s.questions = questions
	s.index = 0
	s.results = make([]entities.QuestionResult, 0, len(questions))
	s.score = 0
	s.streak = 0
	s.bestStreak = 0
	s.token = s.newToken()
	s.startedAt = now
	s.shownAt = now
	s.lastActivity = now
	s.status = entities.StatusActive
	events = append(events, s.questionEventLocked())
	token := s.token
	s.mu.Unlock()

	s.logger.Info("quiz session started",
		zap.Int64("user_id", s.userID),
		zap.String("token", token),
		zap.Int("questions", len(questions)),
	)
	s.emit(events...)

	return selErr
}

// SubmitAnswer records the user's choice for the current question.
func (s *Session) SubmitAnswer(optionIndex int) error {
	return s.submit(-1, optionIndex)
}

// SubmitAnswerAt records the choice only if index is still the current question.
// A press on an old question keyboard is rejected instead of answering a later one.
func (s *Session) SubmitAnswerAt(index, optionIndex int) error {
	if index < 0 {
		return &InvalidTransitionError{Op: "submit answer", Status: s.Status()}
	}
	return s.submit(index, optionIndex)
}

// submit answers the current question; index < 0 skips the position check.
func (s *Session) submit(index, optionIndex int) error {
	s.mu.Lock()
	if s.status != entities.StatusActive || (index >= 0 && s.index != index) {
		status := s.status
		s.mu.Unlock()
		return &InvalidTransitionError{Op: "submit answer", Status: status}
	}
	if optionIndex < 0 || optionIndex >= entities.OptionsPerQuestion {
		s.mu.Unlock()
		return ErrInvalidOption
	}
	ev := s.answerLocked(optionIndex)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// ExpireTimer records a timeout for the current question.
func (s *Session) ExpireTimer() error {
	s.mu.Lock()
	if s.status != entities.StatusActive {
		status := s.status
		s.mu.Unlock()
		return &InvalidTransitionError{Op: "expire timer", Status: status}
	}
	ev := s.answerLocked(entities.NoAnswer)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// ExpireQuestion records a timeout only if index is still the current question.
// Timers use it so a late callback cannot expire a later question.
func (s *Session) ExpireQuestion(index int) error {
	s.mu.Lock()
	if s.status != entities.StatusActive || s.index != index {
		status := s.status
		s.mu.Unlock()
		return &InvalidTransitionError{Op: "expire timer", Status: status}
	}
	ev := s.answerLocked(entities.NoAnswer)
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

func (s *Session) answerLocked(optionIndex int) Event {
	q := s.questions[s.index]
	now := s.now()

	elapsed := int(now.Sub(s.shownAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	correct := optionIndex != entities.NoAnswer && q.IsCorrect(optionIndex)
	points := ComputePoints(correct, s.cfg.TimePerQuestionSeconds-elapsed, s.cfg.TimePerQuestionSeconds)

	result := entities.QuestionResult{
		QuestionID:     q.ID,
		Category:       q.Category,
		Difficulty:     q.Difficulty,
		SelectedIndex:  optionIndex,
		IsCorrect:      correct,
		PointsAwarded:  points,
		ElapsedSeconds: elapsed,
	}
	s.results = append(s.results, result)
	s.score += points

	if correct {
		s.streak++
		s.bestStreak = max(s.bestStreak, s.streak)
	} else {
		s.streak = 0
	}

	s.status = entities.StatusRevealing
	s.lastActivity = now

	return Event{
		Type:     EventAnswered,
		Index:    s.index,
		Total:    len(s.questions),
		Question: q,
		Result:   result,
		Score:    s.score,
		Streak:   s.streak,
	}
}

// Advance moves from the revealed question to the next one,
// or completes the session after the last question.
func (s *Session) Advance() error {
	s.mu.Lock()
	if s.status != entities.StatusRevealing {
		status := s.status
		s.mu.Unlock()
		return &InvalidTransitionError{Op: "advance", Status: status}
	}

	now := s.now()
	s.lastActivity = now

	var ev Event
	if s.index+1 < len(s.questions) {
		s.index++
		s.shownAt = now
		s.status = entities.StatusActive
		ev = s.questionEventLocked()
	} else {
		summary := entities.NewSessionSummary(s.token, s.userID, s.results, s.bestStreak, s.startedAt, now)
		s.pending = &summary
		s.status = entities.StatusCompleted
		ev = Event{
			Type:    EventCompleted,
			Index:   s.index,
			Total:   len(s.questions),
			Score:   s.score,
			Summary: &summary,
		}
	}
	s.mu.Unlock()

	s.emit(ev)
	return nil
}

// Complete commits the finished session and returns its summary.
// On a persistence failure the summary is kept and Complete may be retried
// with the same completion token. After a successful commit the session is idle
// and a second Complete returns ErrDuplicateCompletion.
// The merge runs without the session lock, so readers are not blocked by store I/O.
func (s *Session) Complete(ctx context.Context) (*Completion, error) {
	s.mu.Lock()
	summary, err := s.beginCommitLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	completion := &Completion{Summary: summary}
	var mergeErr error
	if s.committer != nil {
		completion.Merge, mergeErr = s.committer.MergeSessionResult(ctx, summary)
	}

	s.mu.Lock()
	err = s.finishCommitLocked(summary.Token, completion, mergeErr)
	s.mu.Unlock()
	if err != nil {
		return completion, err
	}

	s.emit(Event{
		Type:    EventCommitted,
		Total:   completion.Summary.Total,
		Score:   completion.Summary.Score,
		Summary: &completion.Summary,
		Merge:   completion.Merge,
	})
	return completion, nil
}

// beginCommitLocked claims the pending summary for a single in-flight commit.
func (s *Session) beginCommitLocked() (entities.SessionSummary, error) {
	if s.status != entities.StatusCompleted || s.pending == nil {
		if s.status == entities.StatusIdle && s.lastCommitted != "" {
			return entities.SessionSummary{}, ErrDuplicateCompletion
		}
		return entities.SessionSummary{}, &InvalidTransitionError{Op: "complete", Status: s.status}
	}
	if s.committing {
		return entities.SessionSummary{}, ErrCommitInProgress
	}

	s.committing = true
	return *s.pending, nil
}

// finishCommitLocked applies the merge outcome. The session may have been
// discarded or restarted while the merge ran; then only the token is recorded.
func (s *Session) finishCommitLocked(token string, completion *Completion, mergeErr error) error {
	current := s.pending != nil && s.pending.Token == token
	if current {
		s.committing = false
	}

	switch {
	case errors.Is(mergeErr, ErrDuplicateCompletion):
		s.logger.Info("session already merged",
			zap.Int64("user_id", s.userID),
			zap.String("token", token),
		)
		completion.Merge = nil
	case mergeErr != nil:
		s.logger.Error("failed to merge session result",
			zap.Int64("user_id", s.userID),
			zap.String("token", token),
			zap.Error(mergeErr),
		)
		completion.Merge = nil
		return mergeErr
	}

	s.lastCommitted = token
	if current {
		s.resetLocked()
	}
	return nil
}

// Discard abandons the session without touching progression,
// including a completed summary that was never committed.
func (s *Session) Discard() {
	s.mu.Lock()
	if s.status == entities.StatusIdle && s.pending == nil {
		s.mu.Unlock()
		return
	}
	token := s.token
	s.resetLocked()
	s.mu.Unlock()

	s.logger.Info("quiz session discarded", zap.Int64("user_id", s.userID), zap.String("token", token))
	s.emit(Event{Type: EventReset})
}

func (s *Session) resetLocked() {
	s.status = entities.StatusIdle
	s.questions = nil
	s.results = nil
	s.index = 0
	s.score = 0
	s.streak = 0
	s.bestStreak = 0
	s.token = ""
	s.pending = nil
	s.committing = false
	s.lastActivity = s.now()
}

func (s *Session) questionEventLocked() Event {
	return Event{
		Type:      EventQuestion,
		Index:     s.index,
		Total:     len(s.questions),
		Question:  s.questions[s.index],
		TimeLimit: s.cfg.TimeLimit(),
		Score:     s.score,
		Streak:    s.streak,
	}
}

// CurrentQuestion returns the question being shown, if any.
func (s *Session) CurrentQuestion() (entities.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == entities.StatusIdle || len(s.questions) == 0 {
		return entities.Question{}, false
	}
	return s.questions[s.index], true
}

// Progress reports the current position. It is zero while idle.
func (s *Session) Progress() entities.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.questions)
	if s.status == entities.StatusIdle || total == 0 {
		return entities.Progress{}
	}

	current := s.index + 1
	return entities.Progress{
		Current:    current,
		Total:      total,
		Percentage: float64(current) / float64(total) * 100,
	}
}

// Status returns the current lifecycle state.
func (s *Session) Status() entities.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Score returns the running score.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Streak returns the current and the best streak of the session.
func (s *Session) Streak() (current, best int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streak, s.bestStreak
}

// Results returns a copy of the recorded answers.
func (s *Session) Results() []entities.QuestionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.QuestionResult(nil), s.results...)
}

// Token returns the completion token of the running session.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// UserID returns the owner of the session.
func (s *Session) UserID() int64 {
	return s.userID
}

// LastActivity returns the time of the last accepted transition.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// SecondsRemaining returns the countdown left for the current question.
func (s *Session) SecondsRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != entities.StatusActive {
		return 0
	}
	elapsed := int(s.now().Sub(s.shownAt) / time.Second)
	return min(max(s.cfg.TimePerQuestionSeconds-elapsed, 0), s.cfg.TimePerQuestionSeconds)
}
