// Package session gives every visitor an isolated gallery: its own store, wallet flag and
// notification inbox. Sessions end explicitly or by idling out, and ending a session tears
// its store down so every preview handle it owns is revoked.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"

	"github.com/jo-hoe/galleryboard/internal/gallery"
)

// CookieName is the HTTP cookie carrying the session id.
const CookieName = "galleryboard_session"

// ErrNotFound is returned for unknown or ended sessions.
var ErrNotFound = errors.New("session not found")

// Session is one visitor's board.
type Session struct {
	ID     string
	Store  *gallery.Store
	Wallet *Wallet
	Inbox  *Inbox

	createdAt time.Time
	mu        sync.Mutex
	lastSeen  time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// LastSeen returns the time of the last access through the manager.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// CreatedAt returns the time the session was started.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Options configures a Manager.
type Options struct {
	Bridge    gallery.HandleBridge
	MaxImages int
	// IdleTimeout ends sessions not seen for this long. Zero disables reaping.
	IdleTimeout time.Duration
	// ReapSchedule is a cron spec for the reaper, e.g. "@every 1m".
	ReapSchedule string
	// Now is the clock; nil uses time.Now.
	Now func() time.Time
}

// Manager owns all live sessions.
type Manager struct {
	opts     Options
	mu       sync.RWMutex
	sessions map[string]*Session
	cron     *cron.Cron
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Bridge == nil {
		return nil, fmt.Errorf("session manager requires a handle bridge")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
	}, nil
}

// Create starts a new session with an empty gallery.
func (m *Manager) Create() (*Session, error) {
	id := ulid.Make().String()
	inbox := newInbox(id)
	store, err := gallery.NewStore(gallery.Options{
		MaxImages: m.opts.MaxImages,
		Bridge:    m.opts.Bridge,
		Notifier:  inbox,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gallery store: %w", err)
	}

	now := m.opts.Now()
	s := &Session{
		ID:        id,
		Store:     store,
		Wallet:    &Wallet{},
		Inbox:     inbox,
		createdAt: now,
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	slog.Info("session created", "session_id", id)
	return s, nil
}

// Get returns the session and marks it as seen.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(m.opts.Now())
	return s, nil
}

// GetOrCreate returns the session for id, starting a new one when id is unknown.
// The boolean reports whether a session was created.
func (m *Manager) GetOrCreate(id string) (*Session, bool, error) {
	if id != "" {
		if s, err := m.Get(id); err == nil {
			return s, false, nil
		}
	}
	s, err := m.Create()
	return s, err == nil, err
}

// End removes the session and tears its gallery down.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	if err := s.Store.Teardown(ctx); err != nil {
		return fmt.Errorf("failed to tear down session %s: %w", id, err)
	}
	slog.Info("session ended", "session_id", id, "lifetime", m.opts.Now().Sub(s.CreatedAt()))
	return nil
}

// Reap ends every session idle for longer than idle and returns how many were ended.
func (m *Manager) Reap(ctx context.Context, idle time.Duration) (int, error) {
	cutoff := m.opts.Now().Add(-idle)

	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	var errs []error
	ended := 0
	for _, id := range expired {
		err := m.End(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		ended++
		if err != nil {
			errs = append(errs, err)
		}
	}
	if ended > 0 {
		slog.Info("idle sessions reaped", "count", ended, "idle_timeout", idle)
	}
	return ended, errors.Join(errs...)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Start schedules the idle reaper. It is a no-op when no idle timeout is configured.
func (m *Manager) Start() error {
	if m.opts.IdleTimeout <= 0 {
		return nil
	}
	schedule := m.opts.ReapSchedule
	if schedule == "" {
		schedule = "@every 1m"
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := m.Reap(context.Background(), m.opts.IdleTimeout); err != nil {
			slog.Error("session reaper failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reap schedule %q: %w", schedule, err)
	}
	m.cron = c
	c.Start()
	slog.Info("session reaper started", "schedule", schedule, "idle_timeout", m.opts.IdleTimeout)
	return nil
}

// Stop halts the reaper and waits for a running reap to finish.
func (m *Manager) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
	m.cron = nil
}

// Close stops the reaper and ends every session.
func (m *Manager) Close(ctx context.Context) error {
	m.Stop()

	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		if err := m.End(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
