package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medpass/examkit/internal/backend"
	"github.com/medpass/examkit/internal/model"
	"github.com/medpass/examkit/internal/session"
)

// Domain errors returned by orchestrator operations. All of them are also
// reflected to the user through the sink; callers may ignore the returns.
var (
	ErrBusy              = errors.New("another submission is in flight")
	ErrPaused            = errors.New("exam is paused")
	ErrFinished          = errors.New("exam is already finished")
	ErrNoCurrentQuestion = errors.New("no current question")
	ErrQuestionFinalized = errors.New("question is already finalized")
	ErrLockedNavigation  = errors.New("locked questions cannot be revisited")
)

// defaultAdvanceDelay is the pause before auto-advancing past a question that
// expired without an answer, so the user sees what happened.
const defaultAdvanceDelay = 750 * time.Millisecond

// Level classifies a user-visible notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Sink receives orchestrator events for the presentation layer. Notify
// surfaces a transient user-visible message; StateChanged signals that an
// asynchronous mutation happened (check completed, auto-advance) and the UI
// should re-render. Implementations must not block.
type Sink interface {
	Notify(level Level, message string)
	StateChanged()
}

type nopSink struct{}

func (nopSink) Notify(Level, string) {}
func (nopSink) StateChanged()        {}

// Orchestrator sequences user intents against the session store, the timer
// and the exam backend. It owns the mode-specific submission contracts: test
// mode submits on advance and locks, tutor mode checks on selection and
// records on advance. It is safe for concurrent use by the UI loop and the
// timer goroutine.
type Orchestrator struct {
	store   *session.Store
	backend backend.Backend
	checker *Checker
	sink    Sink
	log     zerolog.Logger

	// AdvanceDelay is the deferral before auto-advancing past an expired
	// unanswered question. Exposed for tests.
	AdvanceDelay time.Duration

	mu       sync.Mutex
	busy     bool
	checking bool
	summary  *model.ExamSummary
}

// New creates an orchestrator. sink may be nil.
func New(store *session.Store, b backend.Backend, sink Sink, log zerolog.Logger) *Orchestrator {
	if sink == nil {
		sink = nopSink{}
	}
	return &Orchestrator{
		store:        store,
		backend:      b,
		checker:      NewChecker(b, log),
		sink:         sink,
		log:          log.With().Str("component", "orchestrator").Logger(),
		AdvanceDelay: defaultAdvanceDelay,
	}
}

// Store exposes the session store for read-only selector access.
func (o *Orchestrator) Store() *session.Store {
	return o.store
}

// Checking reports whether a tutor-mode check is in flight. The UI disables
// answer selection while true.
func (o *Orchestrator) Checking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.checking
}

// Busy reports whether a submit/navigation chain is in flight.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Summary returns the grading result once the exam has been submitted.
func (o *Orchestrator) Summary() *model.ExamSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.summary
}

// Start fetches the exam and initializes the session. The current question's
// detail is resolved before the store is touched, so a failed load never
// leaves a partial session behind. The timer is started for timed exams.
func (o *Orchestrator) Start(ctx context.Context, examID string) error {
	payload, err := o.backend.FetchExam(ctx, examID)
	if err != nil {
		o.log.Error().Err(err).Str("exam_id", examID).Msg("Exam load failed")
		o.sink.Notify(LevelError, "Could not load the exam. Please retry.")
		return err
	}
	if len(payload.Questions) == 0 {
		err := errors.New("exam has no questions")
		o.sink.Notify(LevelError, "This exam has no questions.")
		return err
	}

	if payload.CurrentQuestion == nil {
		currentID := payload.CurrentQuestionID
		if currentID == "" {
			currentID = payload.Questions[0].ID
		}
		detail, err := o.backend.FetchQuestion(ctx, currentID)
		if err != nil {
			o.log.Error().Err(err).Str("question_id", currentID).Msg("Question load failed")
			o.sink.Notify(LevelError, "Could not load the exam. Please retry.")
			return err
		}
		payload.CurrentQuestion = detail
	}

	o.store.Initialize(payload)
	o.store.StartTimer()

	o.mu.Lock()
	o.summary = nil
	o.mu.Unlock()

	o.log.Info().
		Str("exam_id", examID).
		Str("mode", string(payload.Mode)).
		Int("questions", len(payload.Questions)).
		Msg("Exam session started")
	return nil
}

// SelectAnswer records an answer for the current question. In tutor mode the
// answer is checked immediately and the question finalized with the result.
// Selection is rejected while paused, while a check is in flight, and for
// finalized questions.
func (o *Orchestrator) SelectAnswer(ctx context.Context, answerID string) error {
	if o.store.Finished() {
		return ErrFinished
	}
	if o.store.Paused() {
		return ErrPaused
	}

	current := o.store.CurrentQuestion()
	if current == nil {
		return ErrNoCurrentQuestion
	}
	if o.store.StatusOf(current.ID).IsTerminal() {
		o.log.Debug().Str("question_id", current.ID).Msg("Selection rejected, question finalized")
		return ErrQuestionFinalized
	}

	o.mu.Lock()
	if o.checking || o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	isTutor := o.store.Mode() == model.ExamModeTutor
	if isTutor {
		o.checking = true
	}
	o.mu.Unlock()

	// Optimistic local record: a failed check leaves the answer in place so
	// the user can retry without re-selecting.
	o.store.SelectAnswer(answerID)

	if !isTutor {
		return nil
	}

	o.sink.StateChanged()
	result, err := o.checker.Check(ctx, current.ID, answerID)

	o.mu.Lock()
	o.checking = false
	o.mu.Unlock()

	if err != nil {
		o.sink.Notify(LevelError, "Could not check your answer. Please try again.")
		o.sink.StateChanged()
		return err
	}

	o.store.SetCheckResult(result)
	o.store.MarkSubmitted(current.ID, &result.IsCorrect)
	o.store.StopTimer()
	o.sink.StateChanged()
	return nil
}

// ToggleFlag toggles the flagged state of the current question.
func (o *Orchestrator) ToggleFlag() {
	o.store.ToggleFlag("")
}

// Next advances to the following question, submitting the current one first
// when its answer is pending. On the last question the pending submission
// chains directly into whole-exam submission.
func (o *Orchestrator) Next(ctx context.Context) error {
	if o.store.Finished() {
		return ErrFinished
	}
	if !o.begin() {
		return ErrBusy
	}
	defer o.end()
	return o.nextLocked(ctx)
}

func (o *Orchestrator) nextLocked(ctx context.Context) error {
	qid := o.store.CurrentQuestionID()
	if qid == "" {
		return ErrNoCurrentQuestion
	}

	answer := o.store.AnswerOf(qid)
	status := o.store.StatusOf(qid)
	isLast := o.store.IsLastQuestion()

	needsSubmit := false
	switch o.store.Mode() {
	case model.ExamModeTest:
		// Pending unsubmitted answer: persist before moving on.
		needsSubmit = answer != "" && !status.IsTerminal()
	case model.ExamModeTutor:
		// A checked answer is recorded server-side on advance; the check
		// itself never moved the position marker.
		needsSubmit = status == model.StatusCorrect || status == model.StatusIncorrect
	}

	if needsSubmit {
		if _, err := o.backend.SubmitQuestionAnswer(ctx, o.store.ExamID(), qid, answer); err != nil {
			o.log.Warn().Err(err).Str("question_id", qid).Msg("Answer submission failed")
			o.sink.Notify(LevelError, "Could not submit your answer. Please try again.")
			return err
		}
		o.store.MarkSubmitted(qid, nil)

		if isLast {
			// Awaited chain: the last question's submission flows straight
			// into whole-exam submission, no timed deferral.
			return o.submitExam(ctx)
		}
	}

	if isLast {
		return nil
	}
	return o.goTo(ctx, o.store.CurrentIndex()+1)
}

// Previous steps back one question.
func (o *Orchestrator) Previous(ctx context.Context) error {
	if o.store.Finished() {
		return ErrFinished
	}
	if !o.store.CanGoPrevious() {
		return nil
	}
	if !o.begin() {
		return ErrBusy
	}
	defer o.end()
	return o.goTo(ctx, o.store.CurrentIndex()-1)
}

// JumpTo navigates directly to a question by index, as from the stepper.
// In test mode locked questions cannot be revisited: submitted answers are
// final and the question is closed to further interaction.
func (o *Orchestrator) JumpTo(ctx context.Context, index int) error {
	if o.store.Finished() {
		return ErrFinished
	}
	qid := o.store.QuestionIDAt(index)
	if qid == "" {
		o.log.Warn().Int("index", index).Msg("Jump to out-of-range index ignored")
		return nil
	}
	if o.store.Mode() == model.ExamModeTest && o.store.StatusOf(qid) == model.StatusLocked {
		o.sink.Notify(LevelWarn, "That question has already been submitted.")
		return ErrLockedNavigation
	}
	if !o.begin() {
		return ErrBusy
	}
	defer o.end()
	return o.goTo(ctx, index)
}

// goTo fetches the target question's detail, then commits the index change.
// The fetch comes first so a failed load leaves the session on the old
// question with consistent state.
func (o *Orchestrator) goTo(ctx context.Context, index int) error {
	qid := o.store.QuestionIDAt(index)
	if qid == "" {
		return nil
	}

	detail, err := o.backend.FetchQuestion(ctx, qid)
	if err != nil {
		o.log.Warn().Err(err).Str("question_id", qid).Msg("Question load failed")
		o.sink.Notify(LevelError, "Could not load the question. Please try again.")
		return err
	}

	o.store.NavigateTo(index)
	if o.store.TimeMode() != model.TimeModeUntimed {
		o.store.ResetTimer()
	}
	// Applies a server-reported remaining time over the full reset.
	o.store.SetCurrentQuestion(detail)
	o.sink.StateChanged()
	return nil
}

// HandleExpiry runs when the current question's countdown reaches zero.
// Finalized and flagged questions are left alone. A pending answer takes the
// same submission path as Next. An unanswered question is finalized and the
// session auto-advances after a short delay.
func (o *Orchestrator) HandleExpiry() {
	ctx := context.Background()

	if o.store.Finished() || o.store.Paused() {
		return
	}
	qid := o.store.CurrentQuestionID()
	if qid == "" {
		return
	}
	status := o.store.StatusOf(qid)
	if status.IsTerminal() || status == model.StatusFlagged {
		return
	}

	if o.store.AnswerOf(qid) != "" {
		if err := o.Next(ctx); err != nil {
			o.log.Warn().Err(err).Str("question_id", qid).Msg("Expiry submission failed")
		}
		return
	}

	// No answer: finalize, then move on once the user has seen it.
	o.store.MarkSubmitted(qid, nil)
	o.sink.StateChanged()

	time.AfterFunc(o.AdvanceDelay, func() {
		if o.store.Finished() || o.store.Paused() {
			return
		}
		if o.store.IsLastQuestion() {
			if _, err := o.SubmitExam(ctx); err != nil {
				o.log.Warn().Err(err).Msg("Auto-submission after expiry failed")
			}
			return
		}
		if !o.begin() {
			return
		}
		defer o.end()
		if err := o.goTo(ctx, o.store.CurrentIndex()+1); err != nil {
			o.log.Warn().Err(err).Msg("Auto-advance after expiry failed")
		}
	})
}

// Pause stops the timer and blocks answer selection until Resume.
func (o *Orchestrator) Pause() {
	if o.store.Finished() {
		return
	}
	o.store.Pause()
	o.sink.StateChanged()
}

// Resume restarts the countdown for timed modes.
func (o *Orchestrator) Resume() {
	if o.store.Finished() {
		return
	}
	o.store.Resume()
	o.sink.StateChanged()
}

// ClearAllAnswers wipes local answer and status state. Answers already
// persisted server-side are untouched; this is a client-view reset only.
func (o *Orchestrator) ClearAllAnswers() {
	if o.store.Finished() {
		return
	}
	o.store.ClearAllAnswers()
	o.sink.StateChanged()
}

// SubmitExam finalizes the whole exam with whatever answers exist.
// Unattempted questions are sent with empty answer ids. The UI warns about
// unanswered questions before calling this; submission itself never blocks
// on completeness. On failure the exam stays unfinished so the user can
// retry.
func (o *Orchestrator) SubmitExam(ctx context.Context) (*model.ExamSummary, error) {
	if o.store.Finished() {
		return nil, ErrFinished
	}
	if !o.begin() {
		return nil, ErrBusy
	}
	defer o.end()

	if err := o.submitExam(ctx); err != nil {
		return nil, err
	}
	return o.Summary(), nil
}

func (o *Orchestrator) submitExam(ctx context.Context) error {
	submission := o.store.Submission()

	summary, err := o.backend.SubmitExam(ctx, submission)
	if err != nil {
		o.log.Error().Err(err).Str("exam_id", submission.ExamID).Msg("Exam submission failed")
		o.sink.Notify(LevelError, "Could not submit the exam. Please try again.")
		return err
	}

	o.store.Finish()

	o.mu.Lock()
	o.summary = summary
	o.mu.Unlock()

	o.log.Info().
		Str("exam_id", submission.ExamID).
		Float64("score", summary.Score).
		Msg("Exam submitted")
	o.sink.Notify(LevelInfo, "Exam submitted.")
	o.sink.StateChanged()
	return nil
}

// begin claims the single in-flight submission slot.
func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy || o.checking {
		return false
	}
	o.busy = true
	return true
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.busy = false
	o.mu.Unlock()
}
