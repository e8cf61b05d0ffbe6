// Package gallery holds the ordered image collection of one board session together with
// the pending upload draft, and owns the lifetime of every preview handle it creates.
//
// The store processes one event at a time: each call runs to completion, including
// handle creation and revocation, before the next call is admitted. A handle the store
// created is revoked exactly once, when it stops being referenced: when a new file
// replaces the draft's, when the draft is cleared, or when the store is torn down.
// Submitting moves the draft's handle into the new image without revoking it.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/jo-hoe/galleryboard/internal/layout"
	"github.com/jo-hoe/galleryboard/internal/preview"
)

const (
	msgMissingImageOrTitle = "Please enter both an image and a title."
	msgRegistered          = "Image registered successfully!"
)

// Options configures a Store.
type Options struct {
	// MaxImages caps the collection. Non-positive values use layout.DefaultMaxCount.
	MaxImages int
	Bridge    HandleBridge
	// Notifier receives submit outcomes. Nil discards them.
	Notifier Notifier
}

// ownedHandle pairs a handle with its revocation state so it can be released only once.
type ownedHandle struct {
	handle  preview.Handle
	revoked bool
}

func (o *ownedHandle) release(ctx context.Context, bridge HandleBridge) error {
	if o == nil || o.revoked {
		return nil
	}
	o.revoked = true
	if err := bridge.RevokeHandle(ctx, o.handle); err != nil {
		return fmt.Errorf("failed to revoke %s: %w", o.handle, err)
	}
	return nil
}

type entry struct {
	image  Image
	handle *ownedHandle
}

type notice struct {
	kind    NotificationKind
	message string
}

// Store is the in-memory gallery of a single session.
type Store struct {
	mu        sync.Mutex
	maxImages int
	bridge    HandleBridge
	notifier  Notifier

	entries []entry
	seq     int

	draftFile   *preview.File
	draftHandle *ownedHandle
	draftTitle  string

	tornDown     bool
	version      uint64
	listeners    map[int]func(Snapshot)
	nextListener int

	// deliverMu orders listener calls; delivered is the last version handed out.
	deliverMu sync.Mutex
	delivered uint64
}

// NewStore returns an empty store. Bridge is required.
func NewStore(opts Options) (*Store, error) {
	if opts.Bridge == nil {
		return nil, fmt.Errorf("gallery store requires a handle bridge")
	}
	maxImages := opts.MaxImages
	if maxImages <= 0 {
		maxImages = layout.DefaultMaxCount
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(NotificationKind, string) {})
	}
	return &Store{
		maxImages: maxImages,
		bridge:    opts.Bridge,
		notifier:  notifier,
		listeners: make(map[int]func(Snapshot)),
	}, nil
}

// MaxImages returns the capacity of the store.
func (s *Store) MaxImages() int {
	return s.maxImages
}

// SelectFile makes file the pending selection with a fresh preview handle, revoking the
// previous draft handle. A nil file is a cancelled pick and leaves the draft untouched, as
// does a failure to create the new handle.
func (s *Store) SelectFile(ctx context.Context, file *preview.File) error {
	if file == nil {
		return nil
	}

	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return ErrTornDown
	}

	h, err := s.bridge.CreateHandle(ctx, file)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create preview handle: %w", err)
	}

	previous := s.draftHandle
	s.draftFile = file
	s.draftHandle = &ownedHandle{handle: h}
	if err := previous.release(ctx, s.bridge); err != nil {
		slog.Warn("gallery: failed to revoke replaced draft preview", "handle", previous.handle, "error", err)
	}
	snapshot := s.changedLocked()
	s.mu.Unlock()

	slog.Debug("gallery: file selected", "name", file.Name, "size_bytes", file.Size(), "handle", h)
	s.publish(snapshot)
	return nil
}

// SetTitle replaces the draft title verbatim.
func (s *Store) SetTitle(title string) error {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return ErrTornDown
	}
	s.draftTitle = title
	snapshot := s.changedLocked()
	s.mu.Unlock()

	s.publish(snapshot)
	return nil
}

// Submit registers the draft as a new image at the end of the collection and resets the
// draft. It fails with a ValidationError when the file or title is missing and with a
// CapacityError when the board is full; in both cases the draft is left as it was.
func (s *Store) Submit(ctx context.Context) (Image, error) {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return Image{}, ErrTornDown
	}

	image, n, err := s.submitLocked()
	var snapshot Snapshot
	if err == nil {
		snapshot = s.changedLocked()
	}
	s.mu.Unlock()

	s.notifier.Notify(n.kind, n.message)
	if err != nil {
		slog.Info("gallery: submit rejected", "error", err)
		return Image{}, err
	}

	slog.Info("gallery: image registered", "image_id", image.ID, "title", image.Title, "count", snapshot.Count)
	s.publish(snapshot)
	return image, nil
}

func (s *Store) submitLocked() (Image, notice, error) {
	if s.draftFile == nil || s.draftTitle == "" {
		err := &ValidationError{MissingFile: s.draftFile == nil, MissingTitle: s.draftTitle == ""}
		return Image{}, notice{Error, msgMissingImageOrTitle}, err
	}
	if len(s.entries) >= s.maxImages {
		err := &CapacityError{Max: s.maxImages}
		return Image{}, notice{Error, capitalize(err.Error()) + "."}, err
	}

	s.seq++
	image := Image{
		ID:     fmt.Sprintf("image-%d", s.seq),
		Handle: s.draftHandle.handle,
		Title:  s.draftTitle,
	}
	// the handle moves with the image; the draft no longer references it
	s.entries = append(s.entries, entry{image: image, handle: s.draftHandle})
	s.draftFile = nil
	s.draftHandle = nil
	s.draftTitle = ""
	return image, notice{Success, msgRegistered}, nil
}

// ClearDraft drops the pending selection and title, revoking the draft handle.
func (s *Store) ClearDraft(ctx context.Context) error {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return ErrTornDown
	}
	err := s.draftHandle.release(ctx, s.bridge)
	s.draftFile = nil
	s.draftHandle = nil
	s.draftTitle = ""
	snapshot := s.changedLocked()
	s.mu.Unlock()

	s.publish(snapshot)
	return err
}

// Teardown revokes the handle of every image and of the draft. Each handle is released
// once even when some revocations fail; the failures are returned joined. Later calls
// do nothing.
func (s *Store) Teardown(ctx context.Context) error {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return nil
	}
	s.tornDown = true

	var errs []error
	revoked := 0
	for _, e := range s.entries {
		if !e.handle.revoked {
			revoked++
		}
		if err := e.handle.release(ctx, s.bridge); err != nil {
			errs = append(errs, err)
		}
	}
	if s.draftHandle != nil && !s.draftHandle.revoked {
		revoked++
	}
	if err := s.draftHandle.release(ctx, s.bridge); err != nil {
		errs = append(errs, err)
	}

	s.entries = nil
	s.draftFile = nil
	s.draftHandle = nil
	s.draftTitle = ""
	s.listeners = make(map[int]func(Snapshot))
	s.mu.Unlock()

	slog.Info("gallery: store torn down", "revoked_handles", revoked, "failures", len(errs))
	return errors.Join(errs...)
}

// Snapshot returns the current collection, draft and grid layout.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change. Listeners run in
// registration order on the goroutine that made the change and never see a snapshot older
// than one already delivered; a snapshot overtaken by a newer one is skipped. Listeners
// may read the store but must not call its mutating methods. The returned function
// removes the listener.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// changedLocked records a mutation and returns the snapshot describing it.
func (s *Store) changedLocked() Snapshot {
	s.version++
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	shown := min(len(s.entries), s.maxImages)
	images := make([]Image, 0, shown)
	for _, e := range s.entries[:shown] {
		images = append(images, e.image)
	}

	draft := Draft{File: s.draftFile, Title: s.draftTitle}
	if s.draftHandle != nil {
		draft.Handle = s.draftHandle.handle
	}

	return Snapshot{
		Images:    images,
		Draft:     draft,
		Count:     len(s.entries),
		MaxImages: s.maxImages,
		Full:      len(s.entries) >= s.maxImages,
		Layout:    layout.Compute(len(images), s.maxImages),
		Version:   s.version,
	}
}

func (s *Store) publish(snapshot Snapshot) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	// a concurrent call already delivered a newer state
	if snapshot.Version <= s.delivered {
		return
	}
	s.delivered = snapshot.Version

	s.mu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	listeners := make([]func(Snapshot), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
