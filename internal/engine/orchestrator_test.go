package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/medpass/examkit/internal/model"
	"github.com/medpass/examkit/internal/session"
)

type recordedAnswer struct {
	ExamID     string
	QuestionID string
	AnswerID   string
}

// fakeBackend is an in-memory Backend double. A mutex guards the recorded
// calls: expiry auto-advance runs on a separate goroutine.
type fakeBackend struct {
	mu sync.Mutex

	exam    *model.ExamPayload
	checkFn func(questionID, answerID string) (*model.CheckResult, error)

	fetchExamErr     error
	fetchQuestionErr error
	submitAnswerErr  error
	submitExamErr    error

	answers    []recordedAnswer
	submission *model.ExamSubmission
}

func (f *fakeBackend) FetchExam(_ context.Context, examID string) (*model.ExamPayload, error) {
	if f.fetchExamErr != nil {
		return nil, f.fetchExamErr
	}
	if f.exam == nil || f.exam.ID != examID {
		return nil, errors.New("exam not found")
	}
	return f.exam, nil
}

func (f *fakeBackend) FetchQuestion(_ context.Context, questionID string) (*model.QuestionDetail, error) {
	if f.fetchQuestionErr != nil {
		return nil, f.fetchQuestionErr
	}
	return &model.QuestionDetail{
		ID: questionID,
		Options: []model.AnswerOption{
			{ID: "a", Text: "Option A"},
			{ID: "b", Text: "Option B"},
		},
	}, nil
}

func (f *fakeBackend) SubmitQuestionAnswer(_ context.Context, examID, questionID, answerID string) (*model.QuestionDetail, error) {
	if f.submitAnswerErr != nil {
		return nil, f.submitAnswerErr
	}
	f.mu.Lock()
	f.answers = append(f.answers, recordedAnswer{ExamID: examID, QuestionID: questionID, AnswerID: answerID})
	f.mu.Unlock()
	return &model.QuestionDetail{ID: questionID}, nil
}

func (f *fakeBackend) CheckAnswer(_ context.Context, questionID, answerID string) (*model.CheckResult, error) {
	if f.checkFn != nil {
		return f.checkFn(questionID, answerID)
	}
	return &model.CheckResult{QuestionID: questionID, AnswerID: answerID, IsCorrect: true}, nil
}

func (f *fakeBackend) SubmitExam(_ context.Context, submission *model.ExamSubmission) (*model.ExamSummary, error) {
	if f.submitExamErr != nil {
		return nil, f.submitExamErr
	}
	f.mu.Lock()
	f.submission = submission
	f.mu.Unlock()
	return &model.ExamSummary{ExamID: submission.ExamID, Total: len(submission.Questions)}, nil
}

func (f *fakeBackend) recordedAnswers() []recordedAnswer {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedAnswer, len(f.answers))
	copy(out, f.answers)
	return out
}

func (f *fakeBackend) recordedSubmission() *model.ExamSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submission
}

func fakeExam(mode model.ExamMode, timeMode model.TimeMode, questions int) *fakeBackend {
	payload := &model.ExamPayload{
		ID:       "exam-1",
		Name:     "Sample Exam",
		Mode:     mode,
		TimeMode: timeMode,
	}
	for i := 1; i <= questions; i++ {
		payload.Questions = append(payload.Questions, model.QuestionSummary{
			ID: fmt.Sprintf("q%d", i),
		})
	}
	return &fakeBackend{exam: payload}
}

func newTestOrchestrator(t *testing.T, b *fakeBackend) *Orchestrator {
	t.Helper()
	store := session.NewStore(zerolog.Nop())
	o := New(store, b, nil, zerolog.Nop())
	o.AdvanceDelay = 0
	require.NoError(t, o.Start(context.Background(), "exam-1"))
	return o
}

func TestStartInitializesSession(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 3)
	o := newTestOrchestrator(t, b)

	s := o.Store()
	require.Equal(t, 3, s.TotalQuestions())
	require.NotNil(t, s.CurrentQuestion())
	require.Equal(t, "q1", s.CurrentQuestion().ID)
	require.True(t, s.TimerActive())
	require.Equal(t, 60, s.Remaining())
}

func TestStartFailureLeavesNoSession(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 2)
	b.fetchQuestionErr = errors.New("boom")

	store := session.NewStore(zerolog.Nop())
	o := New(store, b, nil, zerolog.Nop())

	require.Error(t, o.Start(context.Background(), "exam-1"))
	require.Equal(t, 0, store.TotalQuestions())
}

func TestTestModeNextSubmitsAndLocks(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 3)
	o := newTestOrchestrator(t, b)
	ctx := context.Background()

	require.NoError(t, o.SelectAnswer(ctx, "a"))
	require.Equal(t, model.StatusAnswered, o.Store().StatusOf("q1"))
	require.Empty(t, b.recordedAnswers(), "test mode must not submit on selection")

	require.NoError(t, o.Next(ctx))

	require.Equal(t, []recordedAnswer{{ExamID: "exam-1", QuestionID: "q1", AnswerID: "a"}}, b.recordedAnswers())
	require.Equal(t, model.StatusLocked, o.Store().StatusOf("q1"))
	require.Equal(t, 1, o.Store().CurrentIndex())
}

func TestTestModeNextWithoutAnswerJustMoves(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 3)
	o := newTestOrchestrator(t, b)

	require.NoError(t, o.Next(context.Background()))

	require.Empty(t, b.recordedAnswers())
	require.Equal(t, model.StatusUnanswered, o.Store().StatusOf("q1"))
	require.Equal(t, 1, o.Store().CurrentIndex())
}

func TestTestModeLockedQuestionBlocksJump(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 3)
	o := newTestOrchestrator(t, b)
	ctx := context.Background()

	require.NoError(t, o.SelectAnswer(ctx, "a"))
	require.NoError(t, o.Next(ctx))

	err := o.JumpTo(ctx, 0)
	require.ErrorIs(t, err, ErrLockedNavigation)
	require.Equal(t, 1, o.Store().CurrentIndex())
}

func TestTutorSelectChecksImmediately(t *testing.T) {
	b := fakeExam(model.ExamModeTutor, model.TimeModeTimed, 2)
	b.checkFn = func(questionID, answerID string) (*model.CheckResult, error) {
		return &model.CheckResult{
			QuestionID: questionID,
			AnswerID:   answerID,
			IsCorrect:  false,
			Correct:    model.CorrectAnswer{ID: "b", Known: true},
		}, nil
	}
	o := newTestOrchestrator(t, b)
	ctx := context.Background()

	require.NoError(t, o.SelectAnswer(ctx, "a"))

	s := o.Store()
	require.Equal(t, model.StatusIncorrect, s.StatusOf("q1"))
	require.NotNil(t, s.LastCheck())
	require.Equal(t, "b", s.LastCheck().Correct.ID)
	require.False(t, s.TimerActive(), "countdown stops once the question is resolved")

	// The verdict is final; changing the answer afterwards is rejected.
	err := o.SelectAnswer(ctx, "b")
	require.ErrorIs(t, err, ErrQuestionFinalized)
	require.Equal(t, "a", s.AnswerOf("q1"))
}

func TestTutorCheckFailureKeepsAnswerForRetry(t *testing.T) {
	b := fakeExam(model.ExamModeTutor, model.TimeModeUntimed, 2)
	fail := true
	b.checkFn = func(questionID, answerID string) (*model.CheckResult, error) {
		if fail {
			return nil, errors.New("network down")
		}
		return &model.CheckResult{QuestionID: questionID, AnswerID: answerID, IsCorrect: true}, nil
	}
	o := newTestOrchestrator(t, b)
	ctx := context.Background()

	require.Error(t, o.SelectAnswer(ctx, "a"))
	require.Equal(t, model.StatusAnswered, o.Store().StatusOf("q1"))
	require.Equal(t, "a", o.Store().AnswerOf("q1"))
	require.False(t, o.Checking())

	fail = false
	require.NoError(t, o.SelectAnswer(ctx, "a"))
	require.Equal(t, model.StatusCorrect, o.Store().StatusOf("q1"))
}

func TestTutorNextRecordsCheckedAnswer(t *testing.T) {
	b := fakeExam(model.ExamModeTutor, model.TimeModeUntimed, 2)
	o := newTestOrchestrator(t, b)
	ctx := context.Background()

	require.NoError(t, o.SelectAnswer(ctx, "a"))
	require.NoError(t, o.Next(ctx))

	require.Equal(t, []recordedAnswer{{ExamID: "exam-1", QuestionID: "q1", AnswerID: "a"}}, b.recordedAnswers())
	require.Equal(t, 1, o.Store().CurrentIndex())
}

func TestSelectAnswerRejectedWhilePaused(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 2)
	o := newTestOrchestrator(t, b)

	o.Pause()
	err := o.SelectAnswer(context.Background(), "a")

	require.ErrorIs(t, err, ErrPaused)
	require.Equal(t, model.StatusUnanswered, o.Store().StatusOf("q1"))
}

func TestNextOnLastQuestionChainsIntoExamSubmission(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 1)
	o := newTestOrchestrator(t, b)
	ctx := context.Background()

	require.NoError(t, o.SelectAnswer(ctx, "a"))
	require.NoError(t, o.Next(ctx))

	sub := b.recordedSubmission()
	require.NotNil(t, sub, "last-question submission must flow into exam submission")
	require.Equal(t, []model.SubmittedAnswer{{QuestionID: "q1", AnswerID: "a"}}, sub.Questions)
	require.True(t, o.Store().Finished())
	require.NotNil(t, o.Summary())
}

func TestSubmitExamSendsUnattemptedAsEmpty(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 3)
	o := newTestOrchestrator(t, b)
	ctx := context.Background()

	require.NoError(t, o.SelectAnswer(ctx, "a"))

	summary, err := o.SubmitExam(ctx)
	require.NoError(t, err)
	require.NotNil(t, summary)

	sub := b.recordedSubmission()
	require.Len(t, sub.Questions, 3)
	require.Equal(t, "a", sub.Questions[0].AnswerID)
	require.Equal(t, "", sub.Questions[1].AnswerID)
	require.Equal(t, "", sub.Questions[2].AnswerID)
	require.True(t, o.Store().Finished())
}

func TestSubmitExamFailureLeavesSessionOpen(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 2)
	o := newTestOrchestrator(t, b)
	ctx := context.Background()

	b.submitExamErr = errors.New("gateway timeout")
	_, err := o.SubmitExam(ctx)
	require.Error(t, err)
	require.False(t, o.Store().Finished())

	b.submitExamErr = nil
	_, err = o.SubmitExam(ctx)
	require.NoError(t, err)
	require.True(t, o.Store().Finished())
}

func TestSubmitExamTwiceRejected(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 1)
	o := newTestOrchestrator(t, b)
	ctx := context.Background()

	_, err := o.SubmitExam(ctx)
	require.NoError(t, err)

	_, err = o.SubmitExam(ctx)
	require.ErrorIs(t, err, ErrFinished)
}

func TestExpiryUnansweredMarksAndAdvances(t *testing.T) {
	b := fakeExam(model.ExamModeTutor, model.TimeModeTimed, 3)
	o := newTestOrchestrator(t, b)

	o.HandleExpiry()

	require.Equal(t, model.StatusSkipped, o.Store().StatusOf("q1"))
	require.Eventually(t, func() bool {
		return o.Store().CurrentIndex() == 1
	}, time.Second, 5*time.Millisecond, "expiry must auto-advance")
}

func TestExpiryWithPendingAnswerSubmits(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 3)
	o := newTestOrchestrator(t, b)

	require.NoError(t, o.SelectAnswer(context.Background(), "a"))
	o.HandleExpiry()

	require.Equal(t, []recordedAnswer{{ExamID: "exam-1", QuestionID: "q1", AnswerID: "a"}}, b.recordedAnswers())
	require.Equal(t, model.StatusLocked, o.Store().StatusOf("q1"))
	require.Equal(t, 1, o.Store().CurrentIndex())
}

func TestExpiryLeavesFlaggedQuestionAlone(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 2)
	o := newTestOrchestrator(t, b)

	o.ToggleFlag()
	o.HandleExpiry()

	require.Equal(t, model.StatusFlagged, o.Store().StatusOf("q1"))
	require.Equal(t, 0, o.Store().CurrentIndex())
	require.Empty(t, b.recordedAnswers())
}

func TestExpiryOnLastQuestionSubmitsExam(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 1)
	o := newTestOrchestrator(t, b)

	o.HandleExpiry()

	require.Eventually(t, func() bool {
		return o.Store().Finished()
	}, time.Second, 5*time.Millisecond, "expiry on the last question must submit the exam")
	require.NotNil(t, b.recordedSubmission())
}

func TestClearAllAnswersResetsLocalView(t *testing.T) {
	b := fakeExam(model.ExamModeTest, model.TimeModeTimed, 2)
	o := newTestOrchestrator(t, b)
	ctx := context.Background()

	require.NoError(t, o.SelectAnswer(ctx, "a"))
	require.NoError(t, o.Next(ctx))
	o.ClearAllAnswers()

	require.Equal(t, model.StatusUnanswered, o.Store().StatusOf("q1"))
	// Server-side records are untouched by a local reset.
	require.Len(t, b.recordedAnswers(), 1)
}
