package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jo-hoe/galleryboard/internal/gallery"
)

// Notification is a toast waiting to be shown.
type Notification struct {
	Kind    gallery.NotificationKind `json:"kind"`
	Message string                   `json:"message"`
	At      time.Time                `json:"at"`
}

// Inbox collects notifications for a session until the next render drains them.
type Inbox struct {
	mu        sync.Mutex
	sessionID string
	pending   []Notification
}

func newInbox(sessionID string) *Inbox {
	return &Inbox{sessionID: sessionID}
}

// Notify implements gallery.Notifier.
func (i *Inbox) Notify(kind gallery.NotificationKind, message string) {
	slog.Info("notification", "session_id", i.sessionID, "kind", kind, "message", message)

	i.mu.Lock()
	defer i.mu.Unlock()
	i.pending = append(i.pending, Notification{Kind: kind, Message: message, At: time.Now()})
}

// Drain returns the pending notifications in arrival order and empties the inbox.
func (i *Inbox) Drain() []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	drained := i.pending
	i.pending = nil
	return drained
}
