// Package assessment runs one quiz attempt as an explicit state machine:
// Idle, InProgress, Submitting, Reviewed. Navigation and answer capture
// are synchronous; only submission suspends on the network.
package assessment

import (
	"context"
	"sync"

	"studygenie/internal/api"
	"studygenie/internal/errs"
	"studygenie/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is the state of the live attempt.
type Phase int

const (
	Idle Phase = iota
	InProgress
	Submitting
	Reviewed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case InProgress:
		return "in_progress"
	case Submitting:
		return "submitting"
	case Reviewed:
		return "reviewed"
	default:
		return "unknown"
	}
}

// Submitter is the slice of the remote API the engine needs. The server
// is the scoring authority; the engine never recomputes results.
type Submitter interface {
	SubmitQuiz(ctx context.Context, req api.SubmitQuizRequest) (api.SubmitQuizResponse, error)
}

// Attempt is one pass through a quiz. The ID doubles as the submission
// fencing tag and the idempotency key sent to the server.
type Attempt struct {
	ID      string
	Quiz    models.QuizDefinition
	Index   int
	Answers []string
	Phase   Phase
	Score   int
	Results []models.QuizResult
	Err     string
}

// Engine owns at most one live attempt.
type Engine struct {
	mu  sync.Mutex
	att *Attempt
	api Submitter
	log *zap.Logger
}

// New creates an idle engine.
func New(submitter Submitter, log *zap.Logger) *Engine {
	return &Engine{api: submitter, log: log}
}

// Start begins a fresh attempt for quiz, discarding any live one. A quiz
// without questions cannot start a valid attempt.
func (e *Engine) Start(quiz models.QuizDefinition) error {
	if quiz.QuestionCount() == 0 {
		return errs.New(errs.Definition, "quiz has no questions")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.att = &Attempt{
		ID:      uuid.NewString(),
		Quiz:    quiz,
		Answers: make([]string, quiz.QuestionCount()),
		Phase:   InProgress,
	}
	e.log.Info("Attempt started",
		zap.String("quiz", quiz.ID),
		zap.String("attempt", e.att.ID),
		zap.Int("questions", quiz.QuestionCount()))
	return nil
}

// SelectAnswer records option for the current question. The option must
// be one of the question's choices.
func (e *Engine) SelectAnswer(option string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.inProgressLocked(); err != nil {
		return err
	}

	att := e.att
	if att.Index < 0 || att.Index >= len(att.Answers) {
		// Should not occur; indices only move through Next/Previous.
		return nil
	}
	question := att.Quiz.Questions[att.Index]
	if !validOption(question.Options, option) {
		return errs.New(errs.Validation, "answer is not one of the question's options")
	}
	att.Answers[att.Index] = option
	return nil
}

// Previous moves back one question, clamping at the first. It never
// changes phase.
func (e *Engine) Previous() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.inProgressLocked(); err != nil {
		return err
	}
	if e.att.Index > 0 {
		e.att.Index--
	}
	return nil
}

// Next advances to the following question, or submits from the last one.
// Advancing past an unanswered question is refused; the caller's UI hides
// the action, but the engine guards it regardless.
func (e *Engine) Next(ctx context.Context) error {
	e.mu.Lock()
	if err := e.inProgressLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	att := e.att
	if att.Answers[att.Index] == "" {
		e.mu.Unlock()
		return errs.New(errs.Validation, "answer the current question first")
	}
	if att.Index < att.Quiz.QuestionCount()-1 {
		att.Index++
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	// Last question answered: submission is the only way forward.
	return e.Submit(ctx)
}

// Submit sends the attempt for authoritative scoring. All questions must
// be answered; a second submit while one is in flight is refused rather
// than duplicated on the wire. On transport failure the attempt returns
// to InProgress at the last question with answers intact, so the user can
// retry without data loss.
func (e *Engine) Submit(ctx context.Context) error {
	e.mu.Lock()
	if e.att == nil {
		e.mu.Unlock()
		return errs.New(errs.Validation, "no active attempt")
	}
	att := e.att
	switch att.Phase {
	case Submitting:
		e.mu.Unlock()
		return errs.New(errs.Conflict, "a submission is already in flight")
	case Reviewed:
		e.mu.Unlock()
		return errs.New(errs.Validation, "attempt already reviewed")
	}
	for _, answer := range att.Answers {
		if answer == "" {
			e.mu.Unlock()
			return errs.New(errs.Validation, "all questions must be answered before submitting")
		}
	}

	att.Phase = Submitting
	att.Err = ""
	id := att.ID
	req := api.SubmitQuizRequest{
		QuizID:    att.Quiz.ID,
		AttemptID: id,
		Answers:   append([]string(nil), att.Answers...),
	}
	e.mu.Unlock()

	resp, err := e.api.SubmitQuiz(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.att == nil || e.att.ID != id {
		// The attempt was exited or replaced while the submission was in
		// flight; its response no longer has a home.
		e.log.Debug("Discarding stale submission response", zap.String("attempt", id))
		return nil
	}
	if err != nil {
		e.att.Phase = InProgress
		e.att.Err = err.Error()
		e.log.Warn("Submission failed", zap.String("attempt", id), zap.Error(err))
		return err
	}
	if len(resp.Results) != e.att.Quiz.QuestionCount() {
		e.att.Phase = InProgress
		e.att.Err = "malformed scoring response"
		return errs.Newf(errs.Transport, "server returned %d results for %d questions",
			len(resp.Results), e.att.Quiz.QuestionCount())
	}

	// Stored verbatim: the server is the scoring authority.
	e.att.Phase = Reviewed
	e.att.Score = resp.Score
	e.att.Results = resp.Results
	e.log.Info("Attempt reviewed",
		zap.String("attempt", id),
		zap.Int("score", resp.Score))
	return nil
}

// Retake starts a fresh attempt over the same quiz. The reviewed attempt
// is never mutated; the new one shares nothing with it.
func (e *Engine) Retake() error {
	e.mu.Lock()
	if e.att == nil || e.att.Phase != Reviewed {
		e.mu.Unlock()
		return errs.New(errs.Validation, "no reviewed attempt to retake")
	}
	quiz := e.att.Quiz
	e.mu.Unlock()
	return e.Start(quiz)
}

// Exit discards the live attempt entirely. Partial progress is not
// persisted. Exiting an idle engine is a no-op.
func (e *Engine) Exit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.att != nil {
		e.log.Info("Attempt exited", zap.String("attempt", e.att.ID))
	}
	e.att = nil
}

// State returns a copy of the live attempt, or false when idle. The copy
// owns its slices, so callers cannot reach back into the engine.
func (e *Engine) State() (Attempt, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.att == nil {
		return Attempt{}, false
	}
	out := *e.att
	out.Answers = append([]string(nil), e.att.Answers...)
	out.Results = append([]models.QuizResult(nil), e.att.Results...)
	return out, true
}

func (e *Engine) inProgressLocked() error {
	if e.att == nil {
		return errs.New(errs.Validation, "no active attempt")
	}
	if e.att.Phase != InProgress {
		return errs.Newf(errs.Validation, "attempt is %s, not in progress", e.att.Phase)
	}
	return nil
}

func validOption(options []string, option string) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}
