package presence

import (
	"sort"
	"sync"
	"time"
)

// Typer identifies one display name being typed from one connection.
type Typer struct {
	ConnID string
	User   string
}

// TypingTracker remembers which names each connection last reported as
// typing, so the hub can emit stop-typing for entries whose sender went quiet
// or disconnected.
type TypingTracker struct {
	mu        sync.Mutex
	timeout   time.Duration
	deadlines map[string]map[string]time.Time // connID -> user -> deadline
}

func NewTypingTracker(timeout time.Duration) *TypingTracker {
	return &TypingTracker{
		timeout:   timeout,
		deadlines: make(map[string]map[string]time.Time),
	}
}

// Touch starts or refreshes the entry for user on connID.
func (t *TypingTracker) Touch(connID, user string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.deadlines[connID]
	if !ok {
		users = make(map[string]time.Time)
		t.deadlines[connID] = users
	}
	users[user] = now.Add(t.timeout)
}

// Clear drops the entry and reports whether it existed.
func (t *TypingTracker) Clear(connID, user string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.deadlines[connID]
	if !ok {
		return false
	}
	if _, ok := users[user]; !ok {
		return false
	}
	delete(users, user)
	if len(users) == 0 {
		delete(t.deadlines, connID)
	}
	return true
}

// Forget removes every entry of connID and returns the names it held, sorted.
func (t *TypingTracker) Forget(connID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := t.deadlines[connID]
	delete(t.deadlines, connID)

	names := make([]string, 0, len(users))
	for user := range users {
		names = append(names, user)
	}
	sort.Strings(names)
	return names
}

// Expire removes and returns every entry whose deadline is not after now.
func (t *TypingTracker) Expire(now time.Time) []Typer {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []Typer
	for connID, users := range t.deadlines {
		for user, deadline := range users {
			if !deadline.After(now) {
				expired = append(expired, Typer{ConnID: connID, User: user})
				delete(users, user)
			}
		}
		if len(users) == 0 {
			delete(t.deadlines, connID)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		if expired[i].ConnID != expired[j].ConnID {
			return expired[i].ConnID < expired[j].ConnID
		}
		return expired[i].User < expired[j].User
	})
	return expired
}

// Len returns the number of tracked entries.
func (t *TypingTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, users := range t.deadlines {
		n += len(users)
	}
	return n
}
