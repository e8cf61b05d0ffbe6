package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jo-hoe/galleryboard/internal/gallery"
	"github.com/jo-hoe/galleryboard/internal/imageprocessing"
	"github.com/jo-hoe/galleryboard/internal/layout"
	"github.com/jo-hoe/galleryboard/internal/preview"
	"github.com/jo-hoe/galleryboard/internal/session"
)

// ErrHandleNotOwned is returned when a session asks for a preview it does not hold.
var ErrHandleNotOwned = errors.New("preview handle not owned by session")

type CoreService struct {
	config      *ServiceConfig
	registry    preview.Registry
	thumbnailer *imageprocessing.Thumbnailer
	sessions    *session.Manager
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	registry, err := getPreviewRegistry(config)
	if err != nil {
		return nil, err
	}

	thumbnailer, err := imageprocessing.NewThumbnailer(config.ThumbnailWidth, config.ThumbnailCommands)
	if err != nil {
		_ = registry.Close()
		return nil, fmt.Errorf("failed to initialize thumbnailer: %w", err)
	}

	sessions, err := session.NewManager(session.Options{
		Bridge:       registry,
		MaxImages:    config.MaxImages,
		IdleTimeout:  config.Sessions.IdleTimeout,
		ReapSchedule: config.Sessions.ReapSchedule,
	})
	if err != nil {
		_ = registry.Close()
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}
	if err := sessions.Start(); err != nil {
		_ = registry.Close()
		return nil, fmt.Errorf("failed to start session reaper: %w", err)
	}

	return &CoreService{
		config:      config,
		registry:    registry,
		thumbnailer: thumbnailer,
		sessions:    sessions,
	}, nil
}

func (service *CoreService) Config() *ServiceConfig {
	return service.config
}

func (service *CoreService) Sessions() *session.Manager {
	return service.sessions
}

// Layout computes the grid for count images with the configured capacity.
func (service *CoreService) Layout(count int) layout.Layout {
	return layout.Compute(count, service.config.MaxImages)
}

// CellSize returns the pixel size of one cell of l on the configured board.
func (service *CoreService) CellSize(l layout.Layout) (int, int) {
	board := service.config.Board
	return l.CellSize(board.Width, board.Height, board.Gap)
}

// OpenPreview returns the uploaded file behind h if the session's gallery still owns it.
func (service *CoreService) OpenPreview(ctx context.Context, s *session.Session, h preview.Handle) (*preview.File, error) {
	if !s.Store.Snapshot().Owns(h) {
		return nil, ErrHandleNotOwned
	}
	return service.registry.Open(ctx, h)
}

// PreviewThumbnail renders the file behind h sized for a cell of the session's current grid.
func (service *CoreService) PreviewThumbnail(ctx context.Context, s *session.Session, h preview.Handle) ([]byte, error) {
	file, err := service.OpenPreview(ctx, s, h)
	if err != nil {
		return nil, err
	}
	snapshot := s.Store.Snapshot()
	width, height := service.CellSize(snapshot.Layout)
	thumbnail, err := service.thumbnailer.Thumbnail(file.Data, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to generate thumbnail for %s: %w", h, err)
	}
	return thumbnail, nil
}

// LiveHandles reports how many preview handles are currently registered.
func (service *CoreService) LiveHandles(ctx context.Context) (int, error) {
	return service.registry.Live(ctx)
}

// Close tears every session down, stops the reaper and closes the registry.
func (service *CoreService) Close() error {
	var errs []error
	if err := service.sessions.Close(context.Background()); err != nil {
		errs = append(errs, fmt.Errorf("failed to close sessions: %w", err))
	}
	if err := service.registry.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close preview registry: %w", err))
	}
	return errors.Join(errs...)
}

var _ gallery.HandleBridge = preview.Registry(nil)

func getPreviewRegistry(config *ServiceConfig) (preview.Registry, error) {
	registry, err := preview.NewRegistry(config.Previews.Type, config.Previews.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize preview registry: %w", err)
	}
	return registry, nil
}
