// Package preview keeps uploaded image bytes behind opaque, revocable handles.
//
// A handle is the server-side counterpart of a browser object URL: it stays displayable
// until it is revoked, after which the bytes are gone and Open reports ErrNotFound.
// Registries never hand out a revoked handle again and revoking twice is a no-op.
package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const handlePrefix = "blob:"

var (
	// ErrNotFound is returned by Open for unknown or revoked handles.
	ErrNotFound = errors.New("preview handle not found")
	// ErrEmptyFile is returned when a handle is requested for a file without content.
	ErrEmptyFile = errors.New("preview file is empty")
	// ErrInvalidHandle is returned when a string is not a preview handle.
	ErrInvalidHandle = errors.New("invalid preview handle")
)

// Handle is an opaque reference to a file held by a Registry.
type Handle string

// File is a user-selected binary blob.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewFile returns a file for the given content, or nil when data is empty.
func NewFile(name, contentType string, data []byte) *File {
	if len(data) == 0 {
		return nil
	}
	return &File{Name: name, ContentType: contentType, Data: data}
}

// Size returns the number of bytes in the file.
func (f *File) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// Registry creates, resolves and revokes preview handles.
type Registry interface {
	CreateHandle(ctx context.Context, file *File) (Handle, error)
	// RevokeHandle releases the bytes behind h. Unknown or already revoked handles are ignored.
	RevokeHandle(ctx context.Context, h Handle) error
	Open(ctx context.Context, h Handle) (*File, error)
	// Live returns the number of handles that have not been revoked.
	Live(ctx context.Context) (int, error)
	Close() error
}

// String returns the handle as text.
func (h Handle) String() string {
	return string(h)
}

// ID returns the handle without its scheme, suitable for URL paths.
func (h Handle) ID() string {
	return strings.TrimPrefix(string(h), handlePrefix)
}

// ParseHandle accepts either a full handle ("blob:<uuid>") or its bare id.
func ParseHandle(s string) (Handle, error) {
	id := strings.TrimPrefix(strings.TrimSpace(s), handlePrefix)
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, s)
	}
	return Handle(handlePrefix + id), nil
}

func newHandle() (Handle, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate preview handle: %w", err)
	}
	return Handle(handlePrefix + id.String()), nil
}

func validateFile(file *File) error {
	if file == nil || len(file.Data) == 0 {
		return ErrEmptyFile
	}
	return nil
}

func cloneFile(file *File) *File {
	data := make([]byte, len(file.Data))
	copy(data, file.Data)
	return &File{Name: file.Name, ContentType: file.ContentType, Data: data}
}
