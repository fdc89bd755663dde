package devserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/medpass/examkit/internal/model"
	"github.com/medpass/examkit/internal/response"
	"github.com/medpass/examkit/internal/validator"
)

// Handler serves the exam endpoints of the stub backend.
type Handler struct {
	store       *MemStore
	authService *AuthService
	log         zerolog.Logger
}

// NewHandler creates a stub backend handler.
func NewHandler(store *MemStore, authService *AuthService, log zerolog.Logger) *Handler {
	return &Handler{
		store:       store,
		authService: authService,
		log:         log.With().Str("component", "devserver").Logger(),
	}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token})
}

// GetExam godoc
// GET /api/v1/exams/:exam_id
// Returns the exam payload with question summaries and the current question.
func (h *Handler) GetExam(c *gin.Context) {
	payload, err := h.store.ExamPayload(c.Param("exam_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, payload)
}

// GetQuestion godoc
// GET /api/v1/questions/:question_id
func (h *Handler) GetQuestion(c *gin.Context) {
	detail, err := h.store.QuestionDetail(c.Param("question_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

// SubmitAnswer godoc
// POST /api/v1/exams/:exam_id/questions/:question_id/answer
// Persists an answer and advances the server-side position marker.
func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	detail, err := h.store.RecordAnswer(c.Param("exam_id"), c.Param("question_id"), req.AnswerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

// CheckAnswer godoc
// POST /api/v1/questions/:question_id/check
// Tutor-mode immediate validation. Does not advance the position marker.
func (h *Handler) CheckAnswer(c *gin.Context) {
	var req model.CheckAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.store.Check(c.Param("question_id"), req.AnswerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// SubmitExam godoc
// POST /api/v1/exams/:exam_id/submit
// Grades the whole exam and marks the session finished.
func (h *Handler) SubmitExam(c *gin.Context) {
	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	summary, err := h.store.Grade(c.Param("exam_id"), req.Questions)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info().
		Str("exam_id", summary.ExamID).
		Int("correct", summary.Correct).
		Int("unanswered", summary.Unanswered).
		Msg("Exam graded")
	response.Success(c, http.StatusOK, summary)
}

// fail maps store errors onto HTTP status + error codes.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrExamNotFound), errors.Is(err, ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, ErrUnknownOption):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownAnswer)
	case errors.Is(err, ErrAlreadyFinished):
		response.Fail(c, http.StatusConflict, response.ErrExamFinished)
	case errors.Is(err, ErrCheckUnavailable):
		response.Fail(c, http.StatusForbidden, response.ErrCheckForbidden)
	case errors.Is(err, ErrIncomplete):
		response.Fail(c, http.StatusBadRequest, response.ErrIncomplete)
	default:
		h.log.Error().Err(err).Msg("Unhandled store error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
