package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/medpass/examkit/internal/engine"
	"github.com/medpass/examkit/internal/model"
)

func (m Model) View() tea.View {
	v := tea.NewView("")

	var frame string
	switch m.phase {
	case phaseLoading:
		frame = styleSubtle.Render("Loading exam...")
	case phaseError:
		frame = styleIncorrect.Render(m.errMsg) + "\n\n" + styleHint.Render("r retry  ·  q quit")
	case phaseSummary:
		frame = m.summaryView()
	default:
		frame = m.sessionView()
	}

	v.SetContent(frame)
	return v
}

func (m Model) sessionView() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.questionView())
	b.WriteString("\n")
	b.WriteString(m.stepperView())
	b.WriteString("\n")

	if m.store.Paused() {
		b.WriteString("\n" + styleWarn.Render("PAUSED — press space to resume") + "\n")
	}
	if m.confirmSubmit {
		n := m.store.UnansweredCount()
		b.WriteString("\n" + styleWarn.Render(
			fmt.Sprintf("%d question(s) unanswered. Submit anyway? (y/n)", n)) + "\n")
	}
	if m.confirmClear {
		b.WriteString("\n" + styleWarn.Render("Clear all answers on this screen? (y/n)") + "\n")
	}
	if m.jumping {
		b.WriteString("\n" + styleHint.Render("jump to question: press 1-9") + "\n")
	}
	if m.notice != "" {
		style := styleSubtle
		switch m.noticeLevel {
		case engine.LevelWarn:
			style = styleWarn
		case engine.LevelError:
			style = styleIncorrect
		}
		b.WriteString("\n" + style.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + m.footerView())
	return b.String()
}

func (m Model) headerView() string {
	title := styleTitle.Render(m.store.ExamName())

	pos := fmt.Sprintf("Question %d/%d", m.store.CurrentIndex()+1, m.store.TotalQuestions())
	mode := string(m.store.Mode())

	parts := []string{pos, mode}
	if m.store.TimeMode() != model.TimeModeUntimed {
		parts = append(parts, m.timerView())
	}
	if m.orch.Checking() {
		parts = append(parts, styleHint.Render("checking..."))
	}

	return title + "\n" + styleSubtle.Render(strings.Join(parts, "  ·  "))
}

func (m Model) timerView() string {
	remaining := m.store.Remaining()
	clock := fmt.Sprintf("%02d:%02d", remaining/60, remaining%60)
	if !m.store.TimerActive() {
		return clock
	}
	if remaining <= 10 {
		return styleIncorrect.Render(clock)
	}
	return clock
}

func (m Model) questionView() string {
	q := m.store.CurrentQuestion()
	if q == nil {
		return styleSubtle.Render("No question loaded.")
	}

	var b strings.Builder
	b.WriteString(styleBody.Render(q.Body))
	b.WriteString("\n\n")

	selected := m.store.CurrentAnswer()
	check := m.store.LastCheck()
	status := m.store.CurrentStatus()

	for i, opt := range q.Options {
		line := fmt.Sprintf("%d. %s", i+1, opt.Text)
		marker := "  "
		style := styleBody

		if opt.ID == selected {
			marker = "● "
			style = styleSelected
		}

		// After a tutor check (or a finished exam) the verdict colors the
		// chosen and correct rows.
		correctID := ""
		if check != nil && check.QuestionID == q.ID && check.Correct.Known {
			correctID = check.Correct.ID
		} else if q.CorrectAnswerID != "" {
			correctID = q.CorrectAnswerID
		}
		if correctID != "" && (check != nil && check.QuestionID == q.ID || status == model.StatusCorrect || status == model.StatusIncorrect) {
			switch {
			case opt.ID == correctID:
				marker = "✓ "
				style = styleCorrect
			case opt.ID == selected:
				marker = "✗ "
				style = styleIncorrect
			}
		} else if check != nil && check.QuestionID == q.ID && opt.ID == selected {
			if check.IsCorrect {
				marker = "✓ "
				style = styleCorrect
			} else {
				marker = "✗ "
				style = styleIncorrect
			}
		}

		b.WriteString(marker + style.Render(line) + "\n")
	}

	if summary, ok := m.store.SummaryOf(q.ID); ok && summary.Explanation != "" {
		if check != nil && check.QuestionID == q.ID || status == model.StatusCorrect || status == model.StatusIncorrect {
			b.WriteString("\n" + styleHint.Render(summary.Explanation) + "\n")
		}
	}

	return styleCard.Render(b.String())
}

// stepperView renders one glyph per question, current index bracketed.
func (m Model) stepperView() string {
	ids := m.store.QuestionIDs()
	current := m.store.CurrentIndex()

	cells := make([]string, 0, len(ids))
	for i, id := range ids {
		glyph, style := statusGlyph(m.store.StatusOf(id))
		cell := style.Render(glyph)
		if i == current {
			cell = styleSelected.Render("[") + cell + styleSelected.Render("]")
		} else {
			cell = " " + cell + " "
		}
		cells = append(cells, cell)
	}
	return strings.Join(cells, "")
}

func statusGlyph(status model.QuestionStatus) (string, interface{ Render(...string) string }) {
	switch status {
	case model.StatusAnswered:
		return "●", styleSelected
	case model.StatusFlagged:
		return "⚑", styleWarn
	case model.StatusCorrect:
		return "✓", styleCorrect
	case model.StatusIncorrect:
		return "✗", styleIncorrect
	case model.StatusLocked:
		return "■", styleSubtle
	case model.StatusSkipped:
		return "–", styleSubtle
	case model.StatusChecked:
		return "◆", styleSelected
	default:
		return "·", styleSubtle
	}
}

func (m Model) footerView() string {
	keys := []string{
		"1-9 answer",
		"n/p move",
		"f flag",
		"j jump",
		"space pause",
		"s submit",
		"c clear",
		"q quit",
	}
	return styleHint.Render(strings.Join(keys, "  "))
}

func (m Model) summaryView() string {
	s := m.orch.Summary()
	if s == nil {
		return styleSubtle.Render("Exam submitted.")
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("Exam complete") + "\n\n")
	b.WriteString(styleBody.Render(s.Name) + "\n\n")
	b.WriteString(styleCorrect.Render(fmt.Sprintf("Correct    %d", s.Correct)) + "\n")
	b.WriteString(styleIncorrect.Render(fmt.Sprintf("Incorrect  %d", s.Incorrect)) + "\n")
	b.WriteString(styleSubtle.Render(fmt.Sprintf("Unanswered %d", s.Unanswered)) + "\n\n")
	b.WriteString(styleBody.Render(fmt.Sprintf("Score: %.1f%%", s.Score)) + "\n")

	return styleCard.Render(b.String()) + "\n" + styleHint.Render("press q to quit")
}
