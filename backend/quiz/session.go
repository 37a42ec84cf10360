package quiz

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoQuestions   = errors.New("quiz has no questions")
	ErrFinished      = errors.New("quiz session is finished")
	ErrSubmitting    = errors.New("a submission is already in progress")
	ErrInvalidOption = errors.New("option must be one of A, B, C, D")
)

const (
	timeoutExplanation   = "Time is up – no answer selected."
	noVerdictExplanation = "Could not evaluate answer; marking as incorrect."
)

// Evaluator grades one chosen option against a question and returns the raw
// model output (expected, but not guaranteed, to contain a Verdict JSON blob).
type Evaluator interface {
	EvaluateAnswer(ctx context.Context, questionWithOptions, chosenOption string) (string, error)
}

// Result is the settled outcome of one question.
type Result struct {
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation"`
}

// Snapshot is the client-visible session state. The answer key never leaves
// the server.
type Snapshot struct {
	SessionID    string  `json:"session_id"`
	LessonID     string  `json:"lesson_id"`
	Index        int     `json:"index"`
	Total        int     `json:"total"`
	Question     string  `json:"question"`
	Options      Options `json:"options"`
	Selected     string  `json:"selected,omitempty"`
	CorrectCount int     `json:"correct_count"`
	WrongCount   int     `json:"wrong_count"`
	TimeLeft     int     `json:"time_left"`
	Finished     bool    `json:"finished"`
	LastResult   *Result `json:"last_result,omitempty"`
}

// Session is a single-question-at-a-time quiz run. It owns its countdown
// timer: the timer task is started on creation and cancelled when the session
// finishes or is stopped, so a discarded session can never mutate state again.
type Session struct {
	mu         sync.Mutex
	id         string
	lessonID   string
	questions  []MCQ
	index      int
	selected   string
	correct    int
	wrong      int
	timeLeft   int
	finished   bool
	submitting bool
	stopped    bool
	last       *Result

	evaluator Evaluator
	onFinish  func(correct, wrong int)
	stopCh    chan struct{}
	tickEvery time.Duration
}

// NewSession starts a quiz over the given questions. onFinish is invoked once,
// after the last question settles, with the final tallies.
func NewSession(lessonID string, questions []MCQ, ev Evaluator, onFinish func(correct, wrong int)) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	s := &Session{
		id:        uuid.NewString(),
		lessonID:  lessonID,
		questions: questions,
		timeLeft:  SecondsPerQuestion,
		evaluator: ev,
		onFinish:  onFinish,
		stopCh:    make(chan struct{}),
		tickEvery: time.Second,
	}
	go s.runTimer()
	return s, nil
}

func (s *Session) runTimer() {
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick decrements the countdown and auto-submits a timed-out question.
func (s *Session) tick() {
	s.mu.Lock()
	if s.finished || s.stopped || s.submitting {
		s.mu.Unlock()
		return
	}
	if s.timeLeft > 0 {
		s.timeLeft--
	}
	timedOut := s.timeLeft <= 0
	s.mu.Unlock()

	if timedOut {
		s.Submit(context.Background(), true)
	}
}

// Stop tears the session down and cancels the timer task. Safe to call twice.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopCh)
}

// Stopped reports whether the timer task has been cancelled.
func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// SelectOption records the current answer choice, overwriting any previous
// one. It is a no-op (ErrSubmitting) while a grading call is in flight.
func (s *Session) SelectOption(letter string) error {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if letter != "A" && letter != "B" && letter != "C" && letter != "D" {
		return ErrInvalidOption
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished || s.stopped {
		return ErrFinished
	}
	if s.submitting {
		return ErrSubmitting
	}
	s.selected = letter
	return nil
}

// Submit settles the current question. A timed-out or empty submission is
// always incorrect, even when the answer key would have matched. Otherwise the
// evaluator grades the choice; on evaluator failure or unparseable output the
// question's own answer key decides, and with no key the question counts as
// incorrect. Exactly one of the correct/wrong counters increments per call.
func (s *Session) Submit(ctx context.Context, timedOut bool) (*Result, error) {
	s.mu.Lock()
	if s.finished || s.stopped {
		s.mu.Unlock()
		return nil, ErrFinished
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitting
	}
	s.submitting = true
	question := s.questions[s.index]
	selected := s.selected
	s.mu.Unlock()

	res := s.grade(ctx, question, selected, timedOut)
	return s.applyResult(res)
}

func (s *Session) grade(ctx context.Context, question MCQ, selected string, timedOut bool) Result {
	if timedOut || selected == "" {
		return Result{Correct: false, Explanation: timeoutExplanation}
	}

	raw, err := s.evaluator.EvaluateAnswer(ctx, question.PromptWithOptions(), selected)
	if err == nil {
		if v, ok := ParseVerdict(raw); ok {
			explanation := v.Explanation
			if explanation == "" {
				explanation = verdictLabel(v.Correct)
			}
			return Result{Correct: v.Correct, Explanation: explanation}
		}
	}

	// Evaluator failed or returned garbage: fall back to the answer key.
	if question.Correct != "" {
		correct := selected == question.Correct
		return Result{Correct: correct, Explanation: verdictLabel(correct)}
	}
	return Result{Correct: false, Explanation: noVerdictExplanation}
}

func verdictLabel(correct bool) string {
	if correct {
		return "Correct."
	}
	return "Incorrect."
}

func (s *Session) applyResult(res Result) (*Result, error) {
	s.mu.Lock()

	// The session may have been torn down while the grading call was in
	// flight; its result must not touch the discarded state.
	if s.stopped || s.finished {
		s.submitting = false
		s.mu.Unlock()
		return nil, ErrFinished
	}

	if res.Correct {
		s.correct++
	} else {
		s.wrong++
	}
	s.last = &res

	var finish func(correct, wrong int)
	var correct, wrong int

	if s.index >= len(s.questions)-1 {
		s.finished = true
		s.timeLeft = 0
		s.stopLocked()
		finish = s.onFinish
		correct, wrong = s.correct, s.wrong
	} else {
		s.index++
		s.selected = ""
		s.timeLeft = SecondsPerQuestion
	}
	s.submitting = false
	s.mu.Unlock()

	if finish != nil {
		finish(correct, wrong)
	}
	return &res, nil
}

// Snapshot returns a copy of the visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.questions[s.index]
	return Snapshot{
		SessionID:    s.id,
		LessonID:     s.lessonID,
		Index:        s.index,
		Total:        len(s.questions),
		Question:     q.Question,
		Options:      q.Options,
		Selected:     s.selected,
		CorrectCount: s.correct,
		WrongCount:   s.wrong,
		TimeLeft:     s.timeLeft,
		Finished:     s.finished,
		LastResult:   s.last,
	}
}

// Manager keeps at most one live session per user. Starting a new quiz stops
// the previous session's timer before the replacement is installed.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

func (m *Manager) Start(username, lessonID string, questions []MCQ, ev Evaluator, onFinish func(correct, wrong int)) (*Session, error) {
	session, err := NewSession(lessonID, questions, ev, onFinish)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if old := m.sessions[username]; old != nil {
		old.Stop()
	}
	m.sessions[username] = session
	m.mu.Unlock()

	return session, nil
}

func (m *Manager) Get(username string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[username]
}

// Close stops and forgets the user's session, e.g. when the lesson view closes.
func (m *Manager) Close(username string) {
	m.mu.Lock()
	if s := m.sessions[username]; s != nil {
		s.Stop()
		delete(m.sessions, username)
	}
	m.mu.Unlock()
}
