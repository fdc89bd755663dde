package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/medpass/examkit/internal/model"
)

// Store is the single source of truth for one exam-taking session: question
// order, per-question status and answers, the active question, timer state and
// the pause/finish flags. All mutation goes through named operations; reads go
// through selectors. The store never returns errors — invalid operations are
// silent no-ops with a diagnostic log, since they indicate a UI/state desync
// rather than a user-facing failure.
//
// A mutex guards all state: the timer goroutine ticks concurrently with the
// UI event loop.
type Store struct {
	mu  sync.Mutex
	log zerolog.Logger

	examID   string
	examName string
	mode     model.ExamMode
	timeMode model.TimeMode

	questionIDs []string
	summaries   map[string]model.QuestionSummary
	statuses    map[string]model.QuestionStatus
	answers     map[string]string

	currentIndex int
	current      *model.QuestionDetail
	lastCheck    *model.CheckResult

	paused   bool
	finished bool

	secondsPerQuestion int
	remaining          int
	timerActive        bool
}

// NewStore creates an empty, uninitialized session store.
func NewStore(log zerolog.Logger) *Store {
	return &Store{
		log:       log.With().Str("component", "session_store").Logger(),
		summaries: make(map[string]model.QuestionSummary),
		statuses:  make(map[string]model.QuestionStatus),
		answers:   make(map[string]string),
	}
}

// Initialize resets all state and seeds it from a backend exam payload.
// Question order in the payload is the canonical navigation order. Prior
// answers mark questions answered; a prior flag wins over a prior answer.
// The timer is seeded but left inactive — the caller starts it explicitly.
func (s *Store) Initialize(payload *model.ExamPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.examID = payload.ID
	s.examName = payload.Name
	s.mode = payload.Mode
	s.timeMode = payload.TimeMode
	s.paused = false
	s.finished = false
	s.current = nil
	s.lastCheck = nil

	s.questionIDs = make([]string, 0, len(payload.Questions))
	s.summaries = make(map[string]model.QuestionSummary, len(payload.Questions))
	s.statuses = make(map[string]model.QuestionStatus, len(payload.Questions))
	s.answers = make(map[string]string)

	for _, q := range payload.Questions {
		s.questionIDs = append(s.questionIDs, q.ID)
		s.summaries[q.ID] = q

		status := model.StatusUnanswered
		if q.AnswerID != "" {
			status = model.StatusAnswered
			s.answers[q.ID] = q.AnswerID
		}
		if q.IsFlagged {
			status = model.StatusFlagged
		}
		s.statuses[q.ID] = status
	}

	s.currentIndex = 0
	if payload.CurrentQuestionID != "" {
		if idx := indexOf(s.questionIDs, payload.CurrentQuestionID); idx >= 0 {
			s.currentIndex = idx
		}
	}

	s.secondsPerQuestion = payload.TimeMode.SecondsPerQuestion()
	s.remaining = s.secondsPerQuestion
	s.timerActive = false

	if payload.CurrentQuestion != nil {
		s.setCurrentQuestionLocked(payload.CurrentQuestion)
	}

	s.log.Debug().
		Str("exam_id", s.examID).
		Int("questions", len(s.questionIDs)).
		Str("mode", string(s.mode)).
		Msg("Session initialized")
}

// SetCurrentQuestion stores a fetched question detail as the active question
// and synchronizes the tracked index to the detail's position, if the id is
// part of the exam. Must be called after every question fetch.
func (s *Store) SetCurrentQuestion(detail *model.QuestionDetail) {
	if detail == nil {
		s.log.Warn().Msg("SetCurrentQuestion called with nil detail")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCurrentQuestionLocked(detail)
}

func (s *Store) setCurrentQuestionLocked(detail *model.QuestionDetail) {
	s.current = detail
	if idx := indexOf(s.questionIDs, detail.ID); idx >= 0 {
		s.currentIndex = idx
	}
	// The last check result belongs to one question only; drop it when a
	// different question becomes active.
	if s.lastCheck != nil && s.lastCheck.QuestionID != detail.ID {
		s.lastCheck = nil
	}
	if detail.RemainingSeconds != nil {
		s.setRemainingLocked(*detail.RemainingSeconds)
	}
}

// NavigateTo moves the tracked index. Out-of-range indices are ignored with a
// warning. The caller is responsible for fetching the new question's detail.
// Returns true if the index changed.
func (s *Store) NavigateTo(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.questionIDs) {
		s.log.Warn().Int("index", index).Int("total", len(s.questionIDs)).
			Msg("Navigation index out of range")
		return false
	}
	s.currentIndex = index
	return true
}

// SelectAnswer records an answer for the current question and marks it
// answered. Selection overwrites a flagged status; flagging is re-applied
// with ToggleFlag if wanted. A no-op when no current question is set.
func (s *Store) SelectAnswer(answerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		s.log.Warn().Str("answer_id", answerID).Msg("SelectAnswer without current question")
		return
	}
	qid := s.current.ID
	s.answers[qid] = answerID
	s.statuses[qid] = model.StatusAnswered
}

// ToggleFlag toggles the flagged status of the given question, or of the
// current question when questionID is empty. Unflagging restores the
// question's natural status: answered when an answer is recorded, otherwise
// unanswered.
func (s *Store) ToggleFlag(questionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	qid := questionID
	if qid == "" {
		if s.current == nil {
			s.log.Warn().Msg("ToggleFlag without resolvable question")
			return
		}
		qid = s.current.ID
	}
	if _, ok := s.statuses[qid]; !ok {
		s.log.Warn().Str("question_id", qid).Msg("ToggleFlag for unknown question")
		return
	}

	if s.statuses[qid] == model.StatusFlagged {
		if s.answers[qid] != "" {
			s.statuses[qid] = model.StatusAnswered
		} else {
			s.statuses[qid] = model.StatusUnanswered
		}
	} else {
		s.statuses[qid] = model.StatusFlagged
	}
}

// MarkSubmitted finalizes a question. Questions already in a terminal status
// are left untouched — a late timer expiry racing a manual submit must not
// double-finalize. The resulting status depends on mode and the check result:
// tutor checks yield correct/incorrect, test submissions lock the question,
// and an unanswered question is marked skipped.
func (s *Store) MarkSubmitted(questionID string, isCorrect *bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.statuses[questionID]
	if !ok {
		s.log.Warn().Str("question_id", questionID).Msg("MarkSubmitted for unknown question")
		return
	}
	if current.IsTerminal() {
		s.log.Debug().Str("question_id", questionID).Str("status", string(current)).
			Msg("MarkSubmitted ignored, question already finalized")
		return
	}

	switch {
	case s.mode == model.ExamModeTutor && isCorrect != nil:
		if *isCorrect {
			s.statuses[questionID] = model.StatusCorrect
		} else {
			s.statuses[questionID] = model.StatusIncorrect
		}
	case s.mode == model.ExamModeTest:
		s.statuses[questionID] = model.StatusLocked
	case s.answers[questionID] == "":
		s.statuses[questionID] = model.StatusSkipped
	default:
		s.statuses[questionID] = model.StatusAnswered
	}
}

// SetCheckResult caches the most recent tutor-mode check result for rendering
// feedback. Applied by the orchestrator, never by the checker itself.
func (s *Store) SetCheckResult(result *model.CheckResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCheck = result
}

// ClearAllAnswers wipes the answer map and resets every question to
// unanswered. This is the one operation allowed to override terminal
// statuses; it is a client-side reset only and does not contact the backend.
func (s *Store) ClearAllAnswers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.answers = make(map[string]string)
	for _, qid := range s.questionIDs {
		s.statuses[qid] = model.StatusUnanswered
	}
	s.lastCheck = nil
}

// ─── Timer operations ──────────────────────────────────────────────────────

// StartTimer activates the countdown. A no-op for untimed exams or when no
// time remains.
func (s *Store) StartTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secondsPerQuestion <= 0 || s.remaining <= 0 {
		return
	}
	s.timerActive = true
}

// PauseTimer deactivates the countdown without touching the remaining time.
func (s *Store) PauseTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerActive = false
}

// StopTimer deactivates the countdown.
func (s *Store) StopTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerActive = false
}

// UpdateRemainingTime sets the remaining seconds, clamped to zero. Reaching
// zero deactivates the timer.
func (s *Store) UpdateRemainingTime(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRemainingLocked(seconds)
}

func (s *Store) setRemainingLocked(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	s.remaining = seconds
	if s.remaining == 0 {
		s.timerActive = false
	}
}

// ResetTimer restores the configured per-question duration and reactivates
// the countdown, unless the exam is paused or untimed.
func (s *Store) ResetTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = s.secondsPerQuestion
	s.timerActive = !s.paused && s.secondsPerQuestion > 0
}

// ─── Exam-level controls ───────────────────────────────────────────────────

// Pause stops the timer and marks the exam paused.
func (s *Store) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerActive = false
	s.paused = true
}

// Resume clears the paused flag and reactivates the timer for timed exams
// with time remaining.
func (s *Store) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	if s.secondsPerQuestion > 0 && s.remaining > 0 {
		s.timerActive = true
	}
}

// Finish marks the exam finished. Terminal: no further mutation is expected.
func (s *Store) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerActive = false
	s.paused = true
	s.finished = true
}

// ─── Selectors ─────────────────────────────────────────────────────────────

// ExamID returns the exam id of the initialized session.
func (s *Store) ExamID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.examID
}

// ExamName returns the exam's display name.
func (s *Store) ExamName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.examName
}

// Mode returns the exam mode.
func (s *Store) Mode() model.ExamMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// TimeMode returns the exam's time mode.
func (s *Store) TimeMode() model.TimeMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeMode
}

// TotalQuestions returns the number of questions in the exam.
func (s *Store) TotalQuestions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questionIDs)
}

// QuestionIDs returns a copy of the canonical question order.
func (s *Store) QuestionIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.questionIDs))
	copy(ids, s.questionIDs)
	return ids
}

// QuestionIDAt returns the question id at the given index, or "".
func (s *Store) QuestionIDAt(index int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.questionIDs) {
		return ""
	}
	return s.questionIDs[index]
}

// CurrentIndex returns the tracked navigation index.
func (s *Store) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

// CurrentQuestion returns the active question detail, nil while loading.
func (s *Store) CurrentQuestion() *model.QuestionDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentQuestionID returns the id of the question at the tracked index.
func (s *Store) CurrentQuestionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentIndex < 0 || s.currentIndex >= len(s.questionIDs) {
		return ""
	}
	return s.questionIDs[s.currentIndex]
}

// StatusOf returns the status of a question id.
func (s *Store) StatusOf(questionID string) model.QuestionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[questionID]
}

// AnswerOf returns the recorded answer id for a question, "" if none.
func (s *Store) AnswerOf(questionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers[questionID]
}

// SummaryOf returns the seeded summary (section, explanation) for a question.
func (s *Store) SummaryOf(questionID string) (model.QuestionSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.summaries[questionID]
	return sum, ok
}

// CurrentStatus returns the status of the question at the tracked index.
func (s *Store) CurrentStatus() model.QuestionStatus {
	return s.StatusOf(s.CurrentQuestionID())
}

// CurrentAnswer returns the recorded answer of the current question.
func (s *Store) CurrentAnswer() string {
	return s.AnswerOf(s.CurrentQuestionID())
}

// LastCheck returns the most recent tutor-mode check result, nil if none.
func (s *Store) LastCheck() *model.CheckResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCheck
}

// AnsweredCount counts questions that count as answered for progress display:
// answered, correct, incorrect and locked.
func (s *Store) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, st := range s.statuses {
		if st.CountsAsAnswered() {
			n++
		}
	}
	return n
}

// FlaggedCount counts currently flagged questions.
func (s *Store) FlaggedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, st := range s.statuses {
		if st == model.StatusFlagged {
			n++
		}
	}
	return n
}

// UnansweredCount counts questions with no recorded answer, used for the
// incomplete-submission warning.
func (s *Store) UnansweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, qid := range s.questionIDs {
		if s.answers[qid] == "" {
			n++
		}
	}
	return n
}

// CanGoNext reports whether a forward step stays in bounds.
func (s *Store) CanGoNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex+1 < len(s.questionIDs)
}

// CanGoPrevious reports whether a backward step stays in bounds.
func (s *Store) CanGoPrevious() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex > 0 && len(s.questionIDs) > 0
}

// IsLastQuestion reports whether the tracked index is the final question.
func (s *Store) IsLastQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questionIDs) > 0 && s.currentIndex == len(s.questionIDs)-1
}

// Paused reports the exam-level pause flag.
func (s *Store) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Finished reports whether the exam has been finalized.
func (s *Store) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Remaining returns the remaining seconds of the current countdown.
func (s *Store) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// TimerActive reports whether the countdown is running.
func (s *Store) TimerActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timerActive
}

// SecondsPerQuestion returns the configured countdown duration, 0 if untimed.
func (s *Store) SecondsPerQuestion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secondsPerQuestion
}

// Submission builds the whole-exam submission payload: every question id in
// navigation order, with an explicit empty answer id for unattempted ones.
func (s *Store) Submission() *model.ExamSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions := make([]model.SubmittedAnswer, 0, len(s.questionIDs))
	for _, qid := range s.questionIDs {
		questions = append(questions, model.SubmittedAnswer{
			QuestionID: qid,
			AnswerID:   s.answers[qid],
		})
	}
	return &model.ExamSubmission{ExamID: s.examID, Questions: questions}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
