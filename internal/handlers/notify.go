package handlers

import (
	"sync"
	"time"
)

// Level is the kind of notification.
type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// Notification is a transient message banner.
type Notification struct {
	ID      uint64
	Level   Level
	Message string
}

// Notifier shows at most one notification at a time. Each one is dismissed
// after the TTL; a newer notification replaces the current one at once.
type Notifier struct {
	mu       sync.Mutex
	ttl      time.Duration
	sched    Scheduler
	seq      uint64
	current  *Notification
	stop     func() bool
	onChange func(n *Notification)
}

// NewNotifier returns a Notifier. onChange, if set, is called with the new
// notification, or nil on dismissal.
func NewNotifier(ttl time.Duration, sched Scheduler, onChange func(n *Notification)) *Notifier {
	if sched == nil {
		sched = RealScheduler()
	}
	if ttl <= 0 {
		ttl = NotificationTTL
	}
	return &Notifier{ttl: ttl, sched: sched, onChange: onChange}
}

func (n *Notifier) Error(msg string)   { n.show(LevelError, msg) }
func (n *Notifier) Success(msg string) { n.show(LevelSuccess, msg) }

func (n *Notifier) show(level Level, msg string) {
	n.mu.Lock()
	if n.stop != nil {
		n.stop()
	}
	n.seq++
	id := n.seq
	note := Notification{ID: id, Level: level, Message: msg}
	n.current = &note
	n.stop = n.sched.AfterFunc(n.ttl, func() { n.expire(id) })
	cb := n.onChange
	n.mu.Unlock()

	if cb != nil {
		cb(&note)
	}
}

func (n *Notifier) expire(id uint64) {
	n.mu.Lock()
	if n.current == nil || n.current.ID != id {
		n.mu.Unlock()
		return
	}
	n.current = nil
	n.stop = nil
	cb := n.onChange
	n.mu.Unlock()

	if cb != nil {
		cb(nil)
	}
}

// Dismiss clears the current notification.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	if n.current == nil {
		n.mu.Unlock()
		return
	}
	if n.stop != nil {
		n.stop()
	}
	n.current = nil
	n.stop = nil
	cb := n.onChange
	n.mu.Unlock()

	if cb != nil {
		cb(nil)
	}
}

// Current returns the visible notification, if any.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notification{}, false
	}
	return *n.current, true
}
