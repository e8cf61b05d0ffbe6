package gallery

import (
	"context"

	"github.com/jo-hoe/galleryboard/internal/layout"
	"github.com/jo-hoe/galleryboard/internal/preview"
)

// Image is a registered board entry. It is never modified after registration.
type Image struct {
	ID     string         `json:"id"`
	Handle preview.Handle `json:"handle"`
	Title  string         `json:"title"`
}

// Draft is the pending upload: the selected file, its preview handle and the typed title.
type Draft struct {
	File   *preview.File  `json:"-"`
	Handle preview.Handle `json:"handle,omitempty"`
	Title  string         `json:"title"`
}

// HasFile reports whether a file has been selected.
func (d Draft) HasFile() bool {
	return d.File != nil
}

// Snapshot is the state handed to the rendering boundary.
type Snapshot struct {
	Images    []Image       `json:"images"`
	Draft     Draft         `json:"draft"`
	Count     int           `json:"count"`
	MaxImages int           `json:"maxImages"`
	Full      bool          `json:"full"`
	Layout    layout.Layout `json:"layout"`
	// Version increases with every change to the store.
	Version   uint64        `json:"version"`
}

// Owns reports whether h is referenced by an image or the draft in this snapshot.
func (s Snapshot) Owns(h preview.Handle) bool {
	if h == "" {
		return false
	}
	if s.Draft.Handle == h {
		return true
	}
	for _, image := range s.Images {
		if image.Handle == h {
			return true
		}
	}
	return false
}

// NotificationKind classifies a user-facing notification.
type NotificationKind string

const (
	Success NotificationKind = "success"
	Error   NotificationKind = "error"
)

// Notifier receives user-facing notifications.
type Notifier interface {
	Notify(kind NotificationKind, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(kind NotificationKind, message string)

func (f NotifierFunc) Notify(kind NotificationKind, message string) {
	f(kind, message)
}

// HandleBridge creates and releases preview handles. Every preview.Registry satisfies it.
type HandleBridge interface {
	CreateHandle(ctx context.Context, file *preview.File) (preview.Handle, error)
	RevokeHandle(ctx context.Context, h preview.Handle) error
}
