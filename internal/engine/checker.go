package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medpass/examkit/internal/backend"
	"github.com/medpass/examkit/internal/model"
)

// Checker wraps the tutor-mode immediate validation call. It never mutates
// the session store; the orchestrator applies its result. The UI disables
// answer selection while a check is in flight, so at most one check runs per
// session at a time.
type Checker struct {
	backend backend.Backend
	log     zerolog.Logger
}

// NewChecker creates a checker bound to the given backend.
func NewChecker(b backend.Backend, log zerolog.Logger) *Checker {
	return &Checker{
		backend: b,
		log:     log.With().Str("component", "answer_checker").Logger(),
	}
}

// Check validates one answer against the backend. Whether the correct answer
// id is disclosed is up to the backend; an undisclosed id stays unknown in
// the result rather than being guessed.
func (c *Checker) Check(ctx context.Context, questionID, answerID string) (*model.CheckResult, error) {
	result, err := c.backend.CheckAnswer(ctx, questionID, answerID)
	if err != nil {
		return nil, fmt.Errorf("check answer: %w", err)
	}

	c.log.Debug().
		Str("question_id", questionID).
		Bool("is_correct", result.IsCorrect).
		Bool("correct_known", result.Correct.Known).
		Msg("Answer checked")

	return result, nil
}
