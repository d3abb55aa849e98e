package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierExpires(t *testing.T) {
	sched := &fakeScheduler{}
	var seen []*Notification
	n := NewNotifier(NotificationTTL, sched, func(note *Notification) { seen = append(seen, note) })

	n.Success("saved")
	cur, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, LevelSuccess, cur.Level)
	assert.Equal(t, "saved", cur.Message)

	pending := sched.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, NotificationTTL, pending[0].delay)

	sched.fireAll()
	_, ok = n.Current()
	assert.False(t, ok)
	require.Len(t, seen, 2)
	assert.Nil(t, seen[1])
}

func TestNotifierReplacesCurrent(t *testing.T) {
	sched := &fakeScheduler{}
	n := NewNotifier(NotificationTTL, sched, nil)

	n.Error("first")
	n.Success("second")

	cur, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "second", cur.Message)
	// The first timer was stopped.
	assert.Len(t, sched.pending(), 1)

	n.Dismiss()
	_, ok = n.Current()
	assert.False(t, ok)
	assert.Empty(t, sched.pending())
}

func TestNotifierStaleTimerIgnored(t *testing.T) {
	sched := &fakeScheduler{}
	n := NewNotifier(NotificationTTL, sched, nil)

	n.Error("first")
	stale := sched.pending()[0]
	n.Error("second")

	// A timer that already started running must not clear the newer message.
	stale.fn()
	cur, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, "second", cur.Message)
}
