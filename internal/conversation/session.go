package conversation

import (
	"time"

	"samilabs.app/pulse/internal/model"
)

// DefaultWindow is the number of non-system turns a session keeps:
// three question and answer exchanges.
const DefaultWindow = 6

// Manager creates sessions that share one window size.
type Manager struct {
	window int
	now    func() time.Time
}

func NewManager(window int) *Manager {
	if window < 2 {
		window = DefaultWindow
	}
	return &Manager{window: window, now: time.Now}
}

func (m *Manager) Window() int {
	return m.window
}

// NewSession starts a session. An empty systemPrompt means no system turn.
func (m *Manager) NewSession(systemPrompt string) *Session {
	s := &Session{window: m.window, now: m.now}
	if systemPrompt != "" {
		s.ReplaceSystem(systemPrompt)
	}
	return s
}

// Session is the bounded history of one line of questioning. It is not safe
// for concurrent use; the owning flow is its only writer.
type Session struct {
	window int
	now    func() time.Time
	system *model.Turn
	turns  []model.Turn
}

func (s *Session) AppendUser(content string) {
	s.append(model.RoleUser, content)
}

func (s *Session) AppendAssistant(content string) {
	s.append(model.RoleAssistant, content)
}

// ReplaceSystem sets or replaces the retained system turn.
func (s *Session) ReplaceSystem(content string) {
	s.system = &model.Turn{Role: model.RoleSystem, Content: content, CreatedAt: s.now()}
}

func (s *Session) append(role model.Role, content string) {
	s.turns = append(s.turns, model.Turn{Role: role, Content: content, CreatedAt: s.now()})
	if over := len(s.turns) - s.window; over > 0 {
		// copy so evicted turns do not pin the backing array
		s.turns = append([]model.Turn(nil), s.turns[over:]...)
	}
}

// Turns returns the current turns in order, system turn first.
func (s *Session) Turns() []model.Turn {
	out := make([]model.Turn, 0, len(s.turns)+1)
	if s.system != nil {
		out = append(out, *s.system)
	}
	return append(out, s.turns...)
}

// RequestContext is the exact sequence handed to the analysis invoker.
func (s *Session) RequestContext() []model.Turn {
	return s.Turns()
}

// Len counts the non-system turns held.
func (s *Session) Len() int {
	return len(s.turns)
}

func (s *Session) Window() int {
	return s.window
}

func (s *Session) System() (string, bool) {
	if s.system == nil {
		return "", false
	}
	return s.system.Content, true
}
