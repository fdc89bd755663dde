package model

// ExamMode selects the submission contract for a session.
type ExamMode string

const (
	// ExamModeTest defers checking: answers are recorded locally and only
	// persisted when the user advances past a question.
	ExamModeTest ExamMode = "test"
	// ExamModeTutor checks every answer immediately and reveals feedback.
	ExamModeTutor ExamMode = "tutor"
)

// TimeMode selects the per-question countdown configuration.
type TimeMode string

const (
	TimeModeTimed    TimeMode = "timed"
	TimeModeExtended TimeMode = "timed-extended"
	TimeModeUntimed  TimeMode = "untimed"
)

// SecondsPerQuestion returns the configured countdown for the mode.
// Zero means no countdown.
func (m TimeMode) SecondsPerQuestion() int {
	switch m {
	case TimeModeTimed:
		return 60
	case TimeModeExtended:
		return 90
	default:
		return 0
	}
}

// ExamPayload is the full exam document returned by the backend on session
// initialization. Question order is the canonical navigation order.
type ExamPayload struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Mode              ExamMode          `json:"mode"`
	TimeMode          TimeMode          `json:"time_mode"`
	Questions         []QuestionSummary `json:"questions"`
	CurrentQuestionID string            `json:"current_question_id,omitempty"`
	CurrentQuestion   *QuestionDetail   `json:"current_question,omitempty"`
}

// QuestionSummary seeds per-question state at initialization. AnswerID and
// IsFlagged carry a resumed session's prior progress.
type QuestionSummary struct {
	ID          string `json:"id"`
	Section     string `json:"section,omitempty"`
	Chapter     string `json:"chapter,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	AnswerID    string `json:"answer_id,omitempty"`
	IsFlagged   bool   `json:"is_flagged,omitempty"`
}

// SubmittedAnswer is one entry of a whole-exam submission. AnswerID is the
// empty string for unattempted questions; the field is always sent.
type SubmittedAnswer struct {
	QuestionID string `json:"question_id" binding:"required"`
	AnswerID   string `json:"answer_id"`
}

// ExamSubmission finalizes a whole exam. Every question id of the exam must
// appear exactly once, in navigation order.
type ExamSubmission struct {
	ExamID    string            `json:"exam_id"`
	Questions []SubmittedAnswer `json:"questions"`
}

// ExamSummary is the backend's grading result for a finalized exam.
type ExamSummary struct {
	ExamID     string  `json:"exam_id"`
	Name       string  `json:"name"`
	Total      int     `json:"total"`
	Correct    int     `json:"correct"`
	Incorrect  int     `json:"incorrect"`
	Unanswered int     `json:"unanswered"`
	Score      float64 `json:"score"`
}

// SubmitExamRequest is the wire payload for the whole-exam submit endpoint.
type SubmitExamRequest struct {
	Questions []SubmittedAnswer `json:"questions" binding:"required,min=1,dive"`
}
