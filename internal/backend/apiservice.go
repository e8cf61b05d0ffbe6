package backend

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jo-hoe/galleryboard/internal/core"
	"github.com/jo-hoe/galleryboard/internal/gallery"
	"github.com/jo-hoe/galleryboard/internal/layout"
	"github.com/jo-hoe/galleryboard/internal/session"
)

type APIService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

type layoutRequest struct {
	Count int `query:"count" validate:"min=0,max=1000000"`
	Max   int `query:"max" validate:"min=0,max=1000000"`
}

type LayoutResponse struct {
	Count       int  `json:"count"`
	MaxCount    int  `json:"maxCount"`
	Columns     int  `json:"columns"`
	Rows        int  `json:"rows"`
	Cells       int  `json:"cells"`
	Underfilled bool `json:"underfilled"`
	CellWidth   int  `json:"cellWidth"`
	CellHeight  int  `json:"cellHeight"`
}

type GalleryResponse struct {
	Images      []gallery.Image `json:"images"`
	Draft       gallery.Draft   `json:"draft"`
	Count       int             `json:"count"`
	MaxImages   int             `json:"maxImages"`
	Full        bool            `json:"full"`
	Layout      layout.Layout   `json:"layout"`
	Underfilled bool            `json:"underfilled"`
	Connected   bool            `json:"connected"`
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
		config:      config,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})

	api := e.Group("/api")
	api.GET("/layout", s.layoutHandler)
	api.GET("/gallery", s.galleryHandler)
}

func (s *APIService) layoutHandler(ctx echo.Context) error {
	var request layoutRequest
	if err := ctx.Bind(&request); err != nil {
		slog.Warn("layoutHandler: failed to bind query", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "count and max must be integers")
	}
	if err := ctx.Validate(&request); err != nil {
		return err
	}

	maxCount := request.Max
	if maxCount == 0 {
		maxCount = s.config.MaxImages
	}
	l := layout.Compute(request.Count, maxCount)
	board := s.config.Board
	cellWidth, cellHeight := l.CellSize(board.Width, board.Height, board.Gap)

	return ctx.JSON(http.StatusOK, LayoutResponse{
		Count:       request.Count,
		MaxCount:    maxCount,
		Columns:     l.Columns,
		Rows:        l.Rows,
		Cells:       l.Cells(),
		Underfilled: l.Underfilled(request.Count, maxCount),
		CellWidth:   cellWidth,
		CellHeight:  cellHeight,
	})
}

func (s *APIService) galleryHandler(ctx echo.Context) error {
	cookie, err := ctx.Cookie(session.CookieName)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no session")
	}
	sess, err := s.coreService.Sessions().Get(cookie.Value)
	if errors.Is(err, session.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if err != nil {
		slog.Error("galleryHandler: failed to resolve session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to resolve session")
	}

	snapshot := sess.Store.Snapshot()
	return ctx.JSON(http.StatusOK, GalleryResponse{
		Images:      snapshot.Images,
		Draft:       snapshot.Draft,
		Count:       snapshot.Count,
		MaxImages:   snapshot.MaxImages,
		Full:        snapshot.Full,
		Layout:      snapshot.Layout,
		Underfilled: snapshot.Layout.Underfilled(snapshot.Count, snapshot.MaxImages),
		Connected:   sess.Wallet.IsConnected(),
	})
}
