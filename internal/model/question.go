package model

// AnswerOption is one selectable option of a question.
type AnswerOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionDetail is the full body of one question, fetched lazily as the user
// navigates. RemainingSeconds is the server-reported countdown for a resumed
// question; nil means the client uses its configured per-question duration.
type QuestionDetail struct {
	ID               string         `json:"id"`
	Body             string         `json:"body"`
	Options          []AnswerOption `json:"options"`
	CorrectAnswerID  string         `json:"correct_answer_id,omitempty"`
	RemainingSeconds *int           `json:"remaining_seconds,omitempty"`
}

// Option returns the option with the given id, or nil.
func (q *QuestionDetail) Option(id string) *AnswerOption {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i]
		}
	}
	return nil
}

// CorrectAnswer identifies the correct option of a checked question when the
// backend disclosed it. When Known is false only the checked selection's
// correctness is established; nothing may be inferred about other options.
type CorrectAnswer struct {
	ID    string
	Known bool
}

// CheckResult is the outcome of a tutor-mode answer check.
type CheckResult struct {
	QuestionID string
	AnswerID   string
	IsCorrect  bool
	Correct    CorrectAnswer
}

// CheckAnswerRequest is the wire payload for the tutor-mode check endpoint.
type CheckAnswerRequest struct {
	AnswerID string `json:"answer_id" binding:"required"`
}

// CheckAnswerResponse is the wire form of a check result. CorrectAnswerID is
// omitted when the backend does not disclose the correct option.
type CheckAnswerResponse struct {
	IsCorrect       bool    `json:"is_correct"`
	CorrectAnswerID *string `json:"correct_answer_id,omitempty"`
}

// SubmitAnswerRequest is the wire payload for the per-question submit endpoint.
type SubmitAnswerRequest struct {
	AnswerID string `json:"answer_id" binding:"required"`
}
