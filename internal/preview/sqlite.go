package preview

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRegistry keeps preview bytes in a sqlite table. Rows are deleted on revoke.
type SQLiteRegistry struct {
	db               *sql.DB
	connectionString string
}

// NewSQLiteRegistry opens the database and ensures the handle table exists.
func NewSQLiteRegistry(connectionString string) (*SQLiteRegistry, error) {
	if connectionString == "" {
		connectionString = ":memory:"
	}
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite registry: %w", err)
	}
	// every pooled connection to ":memory:" would see its own empty database
	db.SetMaxOpenConns(1)

	registry := &SQLiteRegistry{
		db:               db,
		connectionString: connectionString,
	}
	if err := registry.createTable(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return registry, nil
}

func (r *SQLiteRegistry) createTable() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS preview_handles (
		handle TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		content_type TEXT NOT NULL DEFAULT '',
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create preview_handles table: %w", err)
	}
	// handles never outlive the process that issued them
	if _, err := r.db.Exec("DELETE FROM preview_handles"); err != nil {
		return fmt.Errorf("failed to clear stale preview handles: %w", err)
	}
	return nil
}

func (r *SQLiteRegistry) CreateHandle(ctx context.Context, file *File) (Handle, error) {
	if err := validateFile(file); err != nil {
		return "", err
	}
	h, err := newHandle()
	if err != nil {
		return "", err
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO preview_handles (handle, name, content_type, data, created_at) VALUES (?, ?, ?, ?, ?)",
		string(h), file.Name, file.ContentType, file.Data, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to store preview handle: %w", err)
	}
	slog.Debug("preview handle created", "handle", h, "size_bytes", len(file.Data), "backend", "sqlite")
	return h, nil
}

func (r *SQLiteRegistry) RevokeHandle(ctx context.Context, h Handle) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM preview_handles WHERE handle = ?", string(h))
	if err != nil {
		return fmt.Errorf("failed to revoke preview handle %s: %w", h, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Debug("preview handle revoked", "handle", h, "backend", "sqlite")
	}
	return nil
}

func (r *SQLiteRegistry) Open(ctx context.Context, h Handle) (*File, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT name, content_type, data FROM preview_handles WHERE handle = ?", string(h))
	var file File
	if err := row.Scan(&file.Name, &file.ContentType, &file.Data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read preview handle %s: %w", h, err)
	}
	return &file, nil
}

func (r *SQLiteRegistry) Live(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM preview_handles").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count preview handles: %w", err)
	}
	return n, nil
}

func (r *SQLiteRegistry) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
