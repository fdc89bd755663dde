package tui

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/medpass/examkit/internal/engine"
	"github.com/medpass/examkit/internal/session"
)

// phase is the top-level UI state.
type phase int

const (
	phaseLoading phase = iota
	phaseActive
	phaseSummary
	phaseError
)

// Messages emitted by async commands and the orchestrator sink.
type (
	startedMsg struct{ err error }
	actionMsg  struct{ err error }
	uiTickMsg  time.Time

	stateChangedMsg struct{}
	noticeMsg       struct {
		level   engine.Level
		message string
	}
)

// Sink bridges orchestrator events into the Bubble Tea program. It never
// blocks: if the program is not draining, events are dropped (the next
// render reads the store anyway).
type Sink struct {
	ch chan tea.Msg
}

// NewSink creates a sink with a small buffer.
func NewSink() *Sink {
	return &Sink{ch: make(chan tea.Msg, 16)}
}

// Notify implements engine.Sink.
func (s *Sink) Notify(level engine.Level, message string) {
	select {
	case s.ch <- noticeMsg{level: level, message: message}:
	default:
	}
}

// StateChanged implements engine.Sink.
func (s *Sink) StateChanged() {
	select {
	case s.ch <- stateChangedMsg{}:
	default:
	}
}

func (s *Sink) wait() tea.Cmd {
	return func() tea.Msg {
		return <-s.ch
	}
}

// Model is the exam-taking screen.
type Model struct {
	orch  *engine.Orchestrator
	store *session.Store
	sink  *Sink

	examID string
	phase  phase

	width  int
	height int

	notice      string
	noticeLevel engine.Level
	errMsg      string

	confirmSubmit bool
	confirmClear  bool
	jumping       bool
}

// New creates the exam screen model. The sink must be the one passed to the
// orchestrator.
func New(orch *engine.Orchestrator, sink *Sink, examID string) Model {
	return Model{
		orch:   orch,
		store:  orch.Store(),
		sink:   sink,
		examID: examID,
		phase:  phaseLoading,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startExam(), m.sink.wait(), uiTick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case startedMsg:
		if msg.err != nil {
			m.phase = phaseError
			m.errMsg = "The exam could not be loaded."
			return m, nil
		}
		m.phase = phaseActive
		return m, nil

	case actionMsg:
		// Failures already reached us through the sink as notices.
		return m, nil

	case stateChangedMsg:
		if m.store.Finished() && m.orch.Summary() != nil {
			m.phase = phaseSummary
		}
		return m, m.sink.wait()

	case noticeMsg:
		m.notice = msg.message
		m.noticeLevel = msg.level
		return m, m.sink.wait()

	case uiTickMsg:
		// The countdown lives in the store; this tick only refreshes the view.
		return m, uiTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.phase {
	case phaseError:
		switch key {
		case "r":
			m.phase = phaseLoading
			m.errMsg = ""
			return m, m.startExam()
		case "q", "enter", "esc":
			return m, tea.Quit
		}
		return m, nil
	case phaseSummary:
		if key == "q" || key == "enter" || key == "esc" {
			return m, tea.Quit
		}
		return m, nil
	case phaseLoading:
		return m, nil
	}

	// Confirmation overlays swallow all keys.
	if m.confirmSubmit {
		switch key {
		case "y", "Y":
			m.confirmSubmit = false
			return m, m.action(func(ctx context.Context) error {
				_, err := m.orch.SubmitExam(ctx)
				return err
			})
		case "n", "N", "esc":
			m.confirmSubmit = false
		}
		return m, nil
	}
	if m.confirmClear {
		switch key {
		case "y", "Y":
			m.confirmClear = false
			m.orch.ClearAllAnswers()
		case "n", "N", "esc":
			m.confirmClear = false
		}
		return m, nil
	}

	if m.jumping {
		m.jumping = false
		if idx := digitIndex(key); idx >= 0 {
			return m, m.action(func(ctx context.Context) error {
				return m.orch.JumpTo(ctx, idx)
			})
		}
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit

	case "n", "right", "enter":
		return m, m.action(m.orch.Next)

	case "p", "left":
		return m, m.action(m.orch.Previous)

	case "f":
		m.orch.ToggleFlag()
		return m, nil

	case "j":
		m.jumping = true
		return m, nil

	case " ", "space":
		if m.store.Paused() {
			m.orch.Resume()
		} else {
			m.orch.Pause()
		}
		return m, nil

	case "s":
		if m.store.UnansweredCount() > 0 {
			m.confirmSubmit = true
			return m, nil
		}
		return m, m.action(func(ctx context.Context) error {
			_, err := m.orch.SubmitExam(ctx)
			return err
		})

	case "c":
		m.confirmClear = true
		return m, nil
	}

	// Digits select answer options.
	if idx := digitIndex(key); idx >= 0 {
		q := m.store.CurrentQuestion()
		if q == nil || idx >= len(q.Options) || m.selectionDisabled() {
			return m, nil
		}
		answerID := q.Options[idx].ID
		return m, m.action(func(ctx context.Context) error {
			return m.orch.SelectAnswer(ctx, answerID)
		})
	}

	return m, nil
}

// selectionDisabled mirrors the contract: no selection while paused, while a
// tutor check is in flight, or on a finalized question.
func (m Model) selectionDisabled() bool {
	if m.store.Paused() || m.orch.Checking() || m.orch.Busy() {
		return true
	}
	return m.store.CurrentStatus().IsTerminal()
}

// startExam loads the exam in the background.
func (m Model) startExam() tea.Cmd {
	return func() tea.Msg {
		return startedMsg{err: m.orch.Start(context.Background(), m.examID)}
	}
}

// action runs an orchestrator call off the UI goroutine.
func (m Model) action(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{err: fn(context.Background())}
	}
}

func uiTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return uiTickMsg(t)
	})
}

// digitIndex maps "1".."9" onto 0-based indices, -1 otherwise.
func digitIndex(key string) int {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return -1
	}
	return int(key[0] - '1')
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(orch *engine.Orchestrator, sink *Sink, examID string) error {
	p := tea.NewProgram(New(orch, sink, examID))
	_, err := p.Run()
	return err
}
