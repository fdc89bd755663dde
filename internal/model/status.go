package model

// QuestionStatus is the per-question progress state. Exactly one status value
// exists per question id at any time.
type QuestionStatus string

const (
	StatusUnanswered QuestionStatus = "unanswered"
	StatusAnswered   QuestionStatus = "answered"
	StatusCorrect    QuestionStatus = "correct"
	StatusIncorrect  QuestionStatus = "incorrect"
	StatusFlagged    QuestionStatus = "flagged"
	StatusSkipped    QuestionStatus = "skipped"
	StatusLocked     QuestionStatus = "locked"
	StatusChecked    QuestionStatus = "checked"
)

// IsTerminal reports whether the status finalizes a question. Terminal
// statuses are never overwritten by a later finalization attempt; only a full
// session reset clears them.
func (s QuestionStatus) IsTerminal() bool {
	switch s {
	case StatusLocked, StatusCorrect, StatusIncorrect, StatusSkipped:
		return true
	}
	return false
}

// CountsAsAnswered reports whether the status counts toward answered-question
// progress totals.
func (s QuestionStatus) CountsAsAnswered() bool {
	switch s {
	case StatusAnswered, StatusCorrect, StatusIncorrect, StatusLocked:
		return true
	}
	return false
}
