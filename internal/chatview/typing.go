package chatview

import (
	"strings"
	"sync"
	"time"
)

// DefaultTypingTimeout clears a typer that has not refreshed its signal.
const DefaultTypingTimeout = 2 * time.Second

// TypingSet holds the users currently typing, in the order they started.
type TypingSet struct {
	mu        sync.Mutex
	timeout   time.Duration
	now       func() time.Time
	order     []string
	deadlines map[string]time.Time
}

func NewTypingSet(timeout time.Duration, now func() time.Time) *TypingSet {
	if now == nil {
		now = time.Now
	}
	return &TypingSet{
		timeout:   timeout,
		now:       now,
		deadlines: make(map[string]time.Time),
	}
}

// Start marks user as typing. A refresh extends the deadline but keeps the
// user's original position.
func (s *TypingSet) Start(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deadlines[user]; !ok {
		s.order = append(s.order, user)
	}
	s.deadlines[user] = s.now().Add(s.timeout)
}

func (s *TypingSet) Stop(user string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(user)
}

// Sweep drops typers whose deadline has passed and returns them.
func (s *TypingSet) Sweep() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expired []string
	for _, user := range s.order {
		if !s.deadlines[user].After(now) {
			expired = append(expired, user)
		}
	}
	for _, user := range expired {
		s.remove(user)
	}
	return expired
}

// Names lists current typers other than self.
func (s *TypingSet) Names(self string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.order))
	for _, user := range s.order {
		if user != self {
			names = append(names, user)
		}
	}
	return names
}

// Indicator renders the typing line, or "" when nobody else is typing.
func (s *TypingSet) Indicator(self string) string {
	return FormatTyping(s.Names(self))
}

func FormatTyping(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0] + " is typing..."
	default:
		return strings.Join(names, ", ") + " are typing..."
	}
}

func (s *TypingSet) remove(user string) bool {
	if _, ok := s.deadlines[user]; !ok {
		return false
	}
	delete(s.deadlines, user)
	for i, u := range s.order {
		if u == user {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}
