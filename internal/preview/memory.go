package preview

import (
	"context"
	"log/slog"
	"sync"
)

// MemoryRegistry keeps preview bytes in process memory.
type MemoryRegistry struct {
	mu    sync.RWMutex
	files map[Handle]*File
}

// NewMemoryRegistry returns an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{files: make(map[Handle]*File)}
}

func (r *MemoryRegistry) CreateHandle(ctx context.Context, file *File) (Handle, error) {
	if err := validateFile(file); err != nil {
		return "", err
	}
	h, err := newHandle()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[h] = cloneFile(file)
	slog.Debug("preview handle created", "handle", h, "size_bytes", len(file.Data), "backend", "memory")
	return h, nil
}

func (r *MemoryRegistry) RevokeHandle(ctx context.Context, h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[h]; !ok {
		return nil
	}
	delete(r.files, h)
	slog.Debug("preview handle revoked", "handle", h, "backend", "memory")
	return nil
}

func (r *MemoryRegistry) Open(ctx context.Context, h Handle) (*File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	file, ok := r.files[h]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneFile(file), nil
}

func (r *MemoryRegistry) Live(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files), nil
}

func (r *MemoryRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = make(map[Handle]*File)
	return nil
}
