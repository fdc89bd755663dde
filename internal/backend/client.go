package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medpass/examkit/internal/model"
	"github.com/medpass/examkit/internal/response"
)

// APIError is a structured error decoded from the backend's response envelope.
type APIError struct {
	Status  int
	Code    response.ErrCode
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %s (%s, HTTP %d)", e.Message, e.Code, e.Status)
}

// Client is the HTTP implementation of Backend, speaking the standard
// data/error/metadata envelope.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	mu    sync.RWMutex
	token string
}

var _ Backend = (*Client)(nil)

// NewClient creates a client for the given base URL (no trailing slash
// required). timeout bounds every request on top of the caller's context.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "backend_client").Logger(),
	}
}

// SetToken sets the bearer token sent on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Login authenticates against the backend and stores the returned token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &out); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.SetToken(out.Token)
	return nil
}

// FetchExam implements Backend.
func (c *Client) FetchExam(ctx context.Context, examID string) (*model.ExamPayload, error) {
	var payload model.ExamPayload
	path := fmt.Sprintf("/api/v1/exams/%s", examID)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch exam: %w", err)
	}
	return &payload, nil
}

// FetchQuestion implements Backend.
func (c *Client) FetchQuestion(ctx context.Context, questionID string) (*model.QuestionDetail, error) {
	var detail model.QuestionDetail
	path := fmt.Sprintf("/api/v1/questions/%s", questionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &detail); err != nil {
		return nil, fmt.Errorf("fetch question: %w", err)
	}
	return &detail, nil
}

// SubmitQuestionAnswer implements Backend.
func (c *Client) SubmitQuestionAnswer(ctx context.Context, examID, questionID, answerID string) (*model.QuestionDetail, error) {
	var detail model.QuestionDetail
	path := fmt.Sprintf("/api/v1/exams/%s/questions/%s/answer", examID, questionID)
	req := model.SubmitAnswerRequest{AnswerID: answerID}
	if err := c.do(ctx, http.MethodPost, path, req, &detail); err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	return &detail, nil
}

// CheckAnswer implements Backend. The absence of correct_answer_id in the
// response is preserved as an unknown correct answer, never guessed.
func (c *Client) CheckAnswer(ctx context.Context, questionID, answerID string) (*model.CheckResult, error) {
	var wire model.CheckAnswerResponse
	path := fmt.Sprintf("/api/v1/questions/%s/check", questionID)
	req := model.CheckAnswerRequest{AnswerID: answerID}
	if err := c.do(ctx, http.MethodPost, path, req, &wire); err != nil {
		return nil, fmt.Errorf("check answer: %w", err)
	}

	result := &model.CheckResult{
		QuestionID: questionID,
		AnswerID:   answerID,
		IsCorrect:  wire.IsCorrect,
	}
	if wire.CorrectAnswerID != nil && *wire.CorrectAnswerID != "" {
		result.Correct = model.CorrectAnswer{ID: *wire.CorrectAnswerID, Known: true}
	}
	return result, nil
}

// SubmitExam implements Backend.
func (c *Client) SubmitExam(ctx context.Context, submission *model.ExamSubmission) (*model.ExamSummary, error) {
	var summary model.ExamSummary
	path := fmt.Sprintf("/api/v1/exams/%s/submit", submission.ExamID)
	req := model.SubmitExamRequest{Questions: submission.Questions}
	if err := c.do(ctx, http.MethodPost, path, req, &summary); err != nil {
		return nil, fmt.Errorf("submit exam: %w", err)
	}
	return &summary, nil
}

// envelope mirrors the backend's response shape for decoding.
type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error,omitempty"`
}

// do executes one request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope (HTTP %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 || env.Error != nil {
		apiErr := &APIError{Status: resp.StatusCode, Code: response.ErrInternal, Message: "unknown error"}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		c.log.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("code", string(apiErr.Code)).
			Msg("Backend call failed")
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
