package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypingTracker_TouchAndClear(t *testing.T) {
	tr := NewTypingTracker(5 * time.Second)
	now := time.Unix(1700000000, 0)

	tr.Touch("c1", "alice", now)
	tr.Touch("c1", "alice", now.Add(time.Second))
	assert.Equal(t, 1, tr.Len())

	assert.True(t, tr.Clear("c1", "alice"))
	assert.False(t, tr.Clear("c1", "alice"))
	assert.False(t, tr.Clear("c2", "bob"))
	assert.Equal(t, 0, tr.Len())
}

func TestTypingTracker_Expire(t *testing.T) {
	tr := NewTypingTracker(5 * time.Second)
	now := time.Unix(1700000000, 0)

	tr.Touch("c1", "alice", now)
	tr.Touch("c2", "bob", now.Add(3*time.Second))

	assert.Empty(t, tr.Expire(now.Add(4*time.Second)))

	expired := tr.Expire(now.Add(5 * time.Second))
	assert.Equal(t, []Typer{{ConnID: "c1", User: "alice"}}, expired)

	// bob was refreshed later, so he outlives alice.
	expired = tr.Expire(now.Add(8 * time.Second))
	assert.Equal(t, []Typer{{ConnID: "c2", User: "bob"}}, expired)
	assert.Equal(t, 0, tr.Len())
}

func TestTypingTracker_RefreshExtendsDeadline(t *testing.T) {
	tr := NewTypingTracker(2 * time.Second)
	now := time.Unix(1700000000, 0)

	tr.Touch("c1", "alice", now)
	tr.Touch("c1", "alice", now.Add(1500*time.Millisecond))

	assert.Empty(t, tr.Expire(now.Add(2*time.Second)))
	assert.Len(t, tr.Expire(now.Add(4*time.Second)), 1)
}

func TestTypingTracker_Forget(t *testing.T) {
	tr := NewTypingTracker(5 * time.Second)
	now := time.Unix(1700000000, 0)

	tr.Touch("c1", "zed", now)
	tr.Touch("c1", "alice", now)
	tr.Touch("c2", "bob", now)

	assert.Equal(t, []string{"alice", "zed"}, tr.Forget("c1"))
	assert.Empty(t, tr.Forget("c1"))
	assert.Equal(t, 1, tr.Len())
}
