package handlers

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"car-rental/internal/api"
	"car-rental/internal/apitest"
	"car-rental/internal/session"
	"car-rental/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeScheduler records scheduled callbacks and runs them on demand.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []*fakeTask
}

type fakeTask struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTask{delay: d, fn: f}
	s.tasks = append(s.tasks, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.fired || t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

func (s *fakeScheduler) pending() []*fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTask
	for _, t := range s.tasks {
		if !t.fired && !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

// fireAll runs every pending task.
func (s *fakeScheduler) fireAll() {
	for _, t := range s.pending() {
		s.mu.Lock()
		t.fired = true
		s.mu.Unlock()
		t.fn()
	}
}

// recordingNav remembers navigations.
type recordingNav struct {
	mu    sync.Mutex
	pages []Page
}

func (n *recordingNav) Navigate(p Page) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pages = append(n.pages, p)
}

func (n *recordingNav) visited() []Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Page(nil), n.pages...)
}

// fixture wires controllers to a real client and a fake backend.
type fixture struct {
	backend     *apitest.Backend
	server      *httptest.Server
	store       *session.Store
	client      *api.Client
	nav         *recordingNav
	sched       *fakeScheduler
	notifySched *fakeScheduler
	notify      *Notifier
	deps        Deps
	ctx         context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend:     apitest.NewSeeded(),
		nav:         &recordingNav{},
		sched:       &fakeScheduler{},
		notifySched: &fakeScheduler{},
		ctx:         context.Background(),
	}
	f.server = f.backend.Start()
	t.Cleanup(f.server.Close)
	f.store = session.NewStore(storage.NewMemory(), zerolog.Nop())
	f.client = newClient(t, f.server.URL+"/api", f.store)
	f.notify = NewNotifier(NotificationTTL, f.notifySched, nil)
	f.deps = Deps{
		API:       f.client,
		Session:   f.store,
		Nav:       f.nav,
		Notify:    f.notify,
		Scheduler: f.sched,
		Logger:    zerolog.Nop(),
	}
	return f
}

func newClient(t *testing.T, baseURL string, store *session.Store) *api.Client {
	t.Helper()
	c, err := api.New(api.Config{BaseURL: baseURL, Logger: zerolog.Nop()}, store)
	require.NoError(t, err)
	return c
}

// signIn creates a user on the backend and logs the client in.
func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	_, err := f.backend.AddUser("A", "a@b.com", "x", "555-0100")
	require.NoError(t, err)
	_, err = f.client.Login(f.ctx, "a@b.com", "x")
	require.NoError(t, err)
}

func (f *fixture) notification(t *testing.T) Notification {
	t.Helper()
	n, ok := f.notify.Current()
	require.True(t, ok, "expected a notification")
	return n
}

func (f *fixture) countRequests(method, path string) int {
	count := 0
	for _, r := range f.backend.Requests() {
		if r.Method == method && r.Path == path {
			count++
		}
	}
	return count
}
