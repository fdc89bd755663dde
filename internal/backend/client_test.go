package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/medpass/examkit/internal/model"
	"github.com/medpass/examkit/internal/response"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zerolog.Nop())
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, data interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{"data": data}))
}

func TestFetchExamDecodesEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/exams/exam-1", r.URL.Path)
		writeEnvelope(t, w, http.StatusOK, model.ExamPayload{
			ID:       "exam-1",
			Name:     "Sample Exam",
			Mode:     model.ExamModeTest,
			TimeMode: model.TimeModeTimed,
			Questions: []model.QuestionSummary{
				{ID: "q1"}, {ID: "q2"},
			},
		})
	})

	payload, err := client.FetchExam(context.Background(), "exam-1")
	require.NoError(t, err)
	require.Equal(t, "exam-1", payload.ID)
	require.Equal(t, model.ExamModeTest, payload.Mode)
	require.Len(t, payload.Questions, 2)
}

func TestBearerTokenIsSentAfterLogin(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			writeEnvelope(t, w, http.StatusOK, map[string]string{"token": "tok-123"})
		default:
			gotAuth = r.Header.Get("Authorization")
			writeEnvelope(t, w, http.StatusOK, model.QuestionDetail{ID: "q1"})
		}
	})

	require.NoError(t, client.Login(context.Background(), "student", "secret"))
	_, err := client.FetchQuestion(context.Background(), "q1")
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-123", gotAuth)
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": nil,
			"error": map[string]interface{}{
				"code":    string(response.ErrNotFound),
				"message": "Resource not found",
			},
		})
	})

	_, err := client.FetchExam(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, response.ErrNotFound, apiErr.Code)
	require.Equal(t, "Resource not found", apiErr.Message)
}

func TestSubmitQuestionAnswerPostsPayload(t *testing.T) {
	var gotBody model.SubmitAnswerRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/exams/exam-1/questions/q1/answer", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeEnvelope(t, w, http.StatusOK, model.QuestionDetail{ID: "q1"})
	})

	_, err := client.SubmitQuestionAnswer(context.Background(), "exam-1", "q1", "a")
	require.NoError(t, err)
	require.Equal(t, "a", gotBody.AnswerID)
}

func TestCheckAnswerPreservesUnknownCorrectAnswer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/questions/q1/check", r.URL.Path)
		writeEnvelope(t, w, http.StatusOK, model.CheckAnswerResponse{IsCorrect: false})
	})

	result, err := client.CheckAnswer(context.Background(), "q1", "a")
	require.NoError(t, err)
	require.False(t, result.IsCorrect)
	require.False(t, result.Correct.Known, "absent correct id must stay unknown")
	require.Empty(t, result.Correct.ID)
}

func TestCheckAnswerDisclosedCorrectAnswer(t *testing.T) {
	correct := "b"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusOK, model.CheckAnswerResponse{
			IsCorrect:       false,
			CorrectAnswerID: &correct,
		})
	})

	result, err := client.CheckAnswer(context.Background(), "q1", "a")
	require.NoError(t, err)
	require.True(t, result.Correct.Known)
	require.Equal(t, "b", result.Correct.ID)
}

func TestSubmitExamPostsAllAnswers(t *testing.T) {
	var gotBody model.SubmitExamRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/exams/exam-1/submit", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeEnvelope(t, w, http.StatusOK, model.ExamSummary{ExamID: "exam-1", Total: 2, Correct: 1, Score: 50})
	})

	summary, err := client.SubmitExam(context.Background(), &model.ExamSubmission{
		ExamID: "exam-1",
		Questions: []model.SubmittedAnswer{
			{QuestionID: "q1", AnswerID: "a"},
			{QuestionID: "q2", AnswerID: ""},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Total)
	require.Len(t, gotBody.Questions, 2)
	require.Equal(t, "", gotBody.Questions[1].AnswerID)
}
