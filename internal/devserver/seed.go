package devserver

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/medpass/examkit/internal/model"
)

// LoadFixture seeds the store from a JSON file holding an array of
// ExamRecords. Ids missing from the fixture are generated.
func LoadFixture(store *MemStore, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}

	var exams []ExamRecord
	if err := json.Unmarshal(raw, &exams); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	for i := range exams {
		exam := &exams[i]
		if exam.ID == "" {
			exam.ID = uuid.New().String()
		}
		for j := range exam.Questions {
			if exam.Questions[j].ID == "" {
				exam.Questions[j].ID = uuid.New().String()
			}
		}
		store.Add(exam)
	}
	return nil
}

// SeedSampleExams loads two small built-in exams, one per mode, so the client
// works out of the box against a fresh stub.
func SeedSampleExams(store *MemStore) {
	store.Add(&ExamRecord{
		ID:       "cardio-basics-test",
		Name:     "Cardiology Basics (Test)",
		Mode:     model.ExamModeTest,
		TimeMode: model.TimeModeTimed,
		Questions: []QuestionRecord{
			{
				ID:          "cb-q1",
				Section:     "Cardiology",
				Chapter:     "Conduction",
				Body:        "Which structure is the primary pacemaker of the heart?",
				Explanation: "The sinoatrial node depolarizes fastest and sets the rate.",
				Options: []model.AnswerOption{
					{ID: "a", Text: "Atrioventricular node"},
					{ID: "b", Text: "Sinoatrial node"},
					{ID: "c", Text: "Bundle of His"},
					{ID: "d", Text: "Purkinje fibers"},
				},
				CorrectAnswerID: "b",
				Disclose:        true,
			},
			{
				ID:          "cb-q2",
				Section:     "Cardiology",
				Chapter:     "Valves",
				Body:        "Auscultation at the second right intercostal space best evaluates which valve?",
				Explanation: "The aortic area lies at the right sternal border, second interspace.",
				Options: []model.AnswerOption{
					{ID: "a", Text: "Aortic valve"},
					{ID: "b", Text: "Mitral valve"},
					{ID: "c", Text: "Pulmonic valve"},
					{ID: "d", Text: "Tricuspid valve"},
				},
				CorrectAnswerID: "a",
				Disclose:        true,
			},
			{
				ID:          "cb-q3",
				Section:     "Cardiology",
				Chapter:     "Pharmacology",
				Body:        "Which drug class reduces mortality after myocardial infarction?",
				Explanation: "Beta blockers blunt sympathetic drive and reduce reinfarction.",
				Options: []model.AnswerOption{
					{ID: "a", Text: "Calcium channel blockers"},
					{ID: "b", Text: "Nitrates"},
					{ID: "c", Text: "Beta blockers"},
					{ID: "d", Text: "Digoxin"},
				},
				CorrectAnswerID: "c",
				Disclose:        true,
			},
		},
	})

	store.Add(&ExamRecord{
		ID:       "neuro-review-tutor",
		Name:     "Neurology Review (Tutor)",
		Mode:     model.ExamModeTutor,
		TimeMode: model.TimeModeUntimed,
		Questions: []QuestionRecord{
			{
				ID:          "nr-q1",
				Section:     "Neurology",
				Chapter:     "Stroke",
				Body:        "Occlusion of which artery classically causes contralateral leg weakness?",
				Explanation: "The anterior cerebral artery supplies the medial motor cortex (leg area).",
				Options: []model.AnswerOption{
					{ID: "a", Text: "Middle cerebral artery"},
					{ID: "b", Text: "Anterior cerebral artery"},
					{ID: "c", Text: "Posterior cerebral artery"},
					{ID: "d", Text: "Basilar artery"},
				},
				CorrectAnswerID: "b",
				Disclose:        true,
			},
			{
				// Disclose off: exercises the client's handling of a check
				// result whose correct option stays unknown.
				ID:          "nr-q2",
				Section:     "Neurology",
				Chapter:     "Neuromuscular",
				Body:        "Which antibody is most specific for myasthenia gravis?",
				Explanation: "Anti-acetylcholine receptor antibodies are highly specific.",
				Options: []model.AnswerOption{
					{ID: "a", Text: "Anti-AChR"},
					{ID: "b", Text: "Anti-VGCC"},
					{ID: "c", Text: "Anti-MuSK"},
					{ID: "d", Text: "Anti-GM1"},
				},
				CorrectAnswerID: "a",
				Disclose:        false,
			},
		},
	})
}
