package backend

import (
	"context"

	"github.com/medpass/examkit/internal/model"
)

// Backend is the exam service collaborator the engine runs against. Transport
// concerns (base URL, auth, retries) belong to implementations; the engine
// only sees these five operations.
type Backend interface {
	// FetchExam returns the full exam with its ordered question list, mode,
	// time mode and any prior answers/flags of a resumed session.
	FetchExam(ctx context.Context, examID string) (*model.ExamPayload, error)

	// FetchQuestion returns the full detail for one question, including the
	// server-reported remaining time if any.
	FetchQuestion(ctx context.Context, questionID string) (*model.QuestionDetail, error)

	// SubmitQuestionAnswer persists an answer and advances the server-side
	// position marker. Used by both modes as the "advance" call.
	SubmitQuestionAnswer(ctx context.Context, examID, questionID, answerID string) (*model.QuestionDetail, error)

	// CheckAnswer validates one answer immediately (tutor mode only). It does
	// not advance the server-side position.
	CheckAnswer(ctx context.Context, questionID, answerID string) (*model.CheckResult, error)

	// SubmitExam finalizes the whole exam. Unattempted questions carry an
	// explicit empty-string answer id.
	SubmitExam(ctx context.Context, submission *model.ExamSubmission) (*model.ExamSummary, error)
}
