package devserver

import (
	"errors"
	"strings"
	"sync"

	"github.com/medpass/examkit/internal/model"
)

// Domain errors surfaced by the in-memory exam bank.
var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrUnknownOption    = errors.New("answer option does not belong to question")
	ErrAlreadyFinished  = errors.New("exam already finished")
	ErrCheckUnavailable = errors.New("checking is only available in tutor mode")
	ErrIncomplete       = errors.New("submission does not cover all questions")
)

// QuestionRecord is the server-side form of one question: full body plus the
// correct option and progress markers for the taking session.
type QuestionRecord struct {
	ID              string               `json:"id"`
	Section         string               `json:"section"`
	Chapter         string               `json:"chapter"`
	Explanation     string               `json:"explanation"`
	Body            string               `json:"body"`
	Options         []model.AnswerOption `json:"options"`
	CorrectAnswerID string               `json:"correct_answer_id"`
	// Disclose controls whether tutor-mode checks reveal the correct option
	// id. Some content sources license only per-selection feedback.
	Disclose bool `json:"disclose"`

	// Session progress.
	AnswerID string `json:"answer_id,omitempty"`
	Flagged  bool   `json:"flagged,omitempty"`
}

// ExamRecord is one seeded exam plus its single taking session.
type ExamRecord struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Mode      model.ExamMode   `json:"mode"`
	TimeMode  model.TimeMode   `json:"time_mode"`
	Questions []QuestionRecord `json:"questions"`

	CurrentQuestionID string `json:"current_question_id,omitempty"`
	Finished          bool   `json:"finished,omitempty"`
}

// MemStore is the in-memory exam bank backing the stub server. It keeps one
// taking session per exam, which is all local development needs.
type MemStore struct {
	mu    sync.Mutex
	exams map[string]*ExamRecord
	// byQuestion maps question ids to their exam for the id-only endpoints.
	byQuestion map[string]*ExamRecord
}

// NewMemStore creates an empty exam bank.
func NewMemStore() *MemStore {
	return &MemStore{
		exams:      make(map[string]*ExamRecord),
		byQuestion: make(map[string]*ExamRecord),
	}
}

// Add registers an exam record.
func (m *MemStore) Add(exam *ExamRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exams[exam.ID] = exam
	for i := range exam.Questions {
		m.byQuestion[exam.Questions[i].ID] = exam
	}
}

// ExamIDs lists registered exam ids, for the startup log.
func (m *MemStore) ExamIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.exams))
	for id := range m.exams {
		ids = append(ids, id)
	}
	return ids
}

// ExamPayload builds the client-facing payload for an exam: question
// summaries with prior progress and the current question's full detail.
func (m *MemStore) ExamPayload(examID string) (*model.ExamPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exam, ok := m.exams[examID]
	if !ok {
		return nil, ErrExamNotFound
	}

	payload := &model.ExamPayload{
		ID:                exam.ID,
		Name:              exam.Name,
		Mode:              exam.Mode,
		TimeMode:          exam.TimeMode,
		CurrentQuestionID: exam.CurrentQuestionID,
		Questions:         make([]model.QuestionSummary, 0, len(exam.Questions)),
	}
	for i := range exam.Questions {
		q := &exam.Questions[i]
		payload.Questions = append(payload.Questions, model.QuestionSummary{
			ID:          q.ID,
			Section:     q.Section,
			Chapter:     q.Chapter,
			Explanation: q.Explanation,
			AnswerID:    q.AnswerID,
			IsFlagged:   q.Flagged,
		})
	}

	currentID := exam.CurrentQuestionID
	if currentID == "" && len(exam.Questions) > 0 {
		currentID = exam.Questions[0].ID
	}
	if q := exam.question(currentID); q != nil {
		payload.CurrentQuestion = exam.detail(q)
	}
	return payload, nil
}

// QuestionDetail returns the full detail for one question.
func (m *MemStore) QuestionDetail(questionID string) (*model.QuestionDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exam, ok := m.byQuestion[questionID]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	return exam.detail(exam.question(questionID)), nil
}

// RecordAnswer persists an answer for a question and advances the exam's
// position marker past it. Returns the updated detail.
func (m *MemStore) RecordAnswer(examID, questionID, answerID string) (*model.QuestionDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exam, ok := m.exams[examID]
	if !ok {
		return nil, ErrExamNotFound
	}
	if exam.Finished {
		return nil, ErrAlreadyFinished
	}
	q := exam.question(questionID)
	if q == nil {
		return nil, ErrQuestionNotFound
	}
	if !q.hasOption(answerID) {
		return nil, ErrUnknownOption
	}

	q.AnswerID = answerID
	exam.advancePast(questionID)
	return exam.detail(q), nil
}

// Check validates an answer (tutor mode only). The correct answer id is
// disclosed only for questions seeded with Disclose set.
func (m *MemStore) Check(questionID, answerID string) (*model.CheckAnswerResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exam, ok := m.byQuestion[questionID]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	if exam.Mode != model.ExamModeTutor {
		return nil, ErrCheckUnavailable
	}
	q := exam.question(questionID)
	if !q.hasOption(answerID) {
		return nil, ErrUnknownOption
	}

	resp := &model.CheckAnswerResponse{
		IsCorrect: strings.EqualFold(answerID, q.CorrectAnswerID),
	}
	if q.Disclose {
		correct := q.CorrectAnswerID
		resp.CorrectAnswerID = &correct
	}
	return resp, nil
}

// Grade finalizes an exam, scoring the submitted answers. Every question of
// the exam must appear in the submission; unattempted entries carry an empty
// answer id and count as unanswered.
func (m *MemStore) Grade(examID string, answers []model.SubmittedAnswer) (*model.ExamSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exam, ok := m.exams[examID]
	if !ok {
		return nil, ErrExamNotFound
	}
	if exam.Finished {
		return nil, ErrAlreadyFinished
	}

	byID := make(map[string]string, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a.AnswerID
	}

	summary := &model.ExamSummary{
		ExamID: exam.ID,
		Name:   exam.Name,
		Total:  len(exam.Questions),
	}
	for i := range exam.Questions {
		q := &exam.Questions[i]
		answerID, present := byID[q.ID]
		if !present {
			return nil, ErrIncomplete
		}
		switch {
		case answerID == "":
			summary.Unanswered++
		case strings.EqualFold(answerID, q.CorrectAnswerID):
			summary.Correct++
		default:
			summary.Incorrect++
		}
	}
	if summary.Total > 0 {
		summary.Score = float64(summary.Correct) / float64(summary.Total) * 100
	}

	exam.Finished = true
	return summary, nil
}

func (e *ExamRecord) question(id string) *QuestionRecord {
	for i := range e.Questions {
		if e.Questions[i].ID == id {
			return &e.Questions[i]
		}
	}
	return nil
}

// detail builds the client-facing form of a question. The correct answer id
// is withheld until the exam is finished.
func (e *ExamRecord) detail(q *QuestionRecord) *model.QuestionDetail {
	if q == nil {
		return nil
	}
	d := &model.QuestionDetail{
		ID:      q.ID,
		Body:    q.Body,
		Options: q.Options,
	}
	if e.Finished {
		d.CorrectAnswerID = q.CorrectAnswerID
	}
	return d
}

// advancePast moves the position marker to the question after the given one.
func (e *ExamRecord) advancePast(questionID string) {
	for i := range e.Questions {
		if e.Questions[i].ID == questionID && i+1 < len(e.Questions) {
			e.CurrentQuestionID = e.Questions[i+1].ID
			return
		}
	}
}

func (q *QuestionRecord) hasOption(answerID string) bool {
	for _, opt := range q.Options {
		if opt.ID == answerID {
			return true
		}
	}
	return false
}
