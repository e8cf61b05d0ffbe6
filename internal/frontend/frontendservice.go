package frontend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jo-hoe/galleryboard/internal/core"
	"github.com/jo-hoe/galleryboard/internal/gallery"
	"github.com/jo-hoe/galleryboard/internal/preview"
	"github.com/jo-hoe/galleryboard/internal/session"
)

const (
	MainPageName      = "index.html"
	SessionCookieName = session.CookieName
	mimePNG           = "image/png"
)

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

type walletConnectRequest struct {
	Address string `form:"address" validate:"required,walletaddr"`
}

type boardData struct {
	Width       int
	Height      int
	Gap         int
	Columns     int
	Rows        int
	Underfilled bool
	Images      []gallery.Image
}

type pageData struct {
	Connected     bool
	ShortAddress  string
	SubmitLabel   string
	Snapshot      gallery.Snapshot
	Board         boardData
	Notifications []session.Notification
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()

	e.GET("/", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)

	e.POST("/htmx/wallet/connect", service.htmxWalletConnectHandler)
	e.POST("/htmx/wallet/disconnect", service.htmxWalletDisconnectHandler)

	e.POST("/htmx/draft/file", service.htmxDraftFileHandler)
	e.POST("/htmx/draft/title", service.htmxDraftTitleHandler)
	e.POST("/htmx/draft/clear", service.htmxDraftClearHandler)
	e.POST("/htmx/submit", service.htmxSubmitHandler)

	e.GET("/htmx/board", service.htmxBoardHandler)
	e.GET("/preview/:id", service.previewHandler)
	e.POST("/htmx/session/end", service.htmxEndSessionHandler)

	e.GET("/icon.svg", service.iconHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	s, err := service.session(ctx)
	if err != nil {
		return service.sessionError(ctx, err)
	}
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, MainPageName, service.pageData(s))
}

func (service *FrontendService) htmxWalletConnectHandler(ctx echo.Context) error {
	s, err := service.session(ctx)
	if err != nil {
		return service.sessionError(ctx, err)
	}

	var request walletConnectRequest
	if err := ctx.Bind(&request); err != nil {
		slog.Warn("htmxWalletConnectHandler: failed to bind request", "status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Invalid request")
	}
	if err := ctx.Validate(&request); err != nil {
		slog.Warn("htmxWalletConnectHandler: invalid wallet address",
			"status", http.StatusBadRequest, "session_id", s.ID, "error", err)
		return ctx.String(http.StatusBadRequest, "Invalid wallet address")
	}

	s.Wallet.Connect(request.Address)
	slog.Info("wallet connected", "session_id", s.ID, "address", s.Wallet.ShortAddress())
	return service.renderApp(ctx, s)
}

func (service *FrontendService) htmxWalletDisconnectHandler(ctx echo.Context) error {
	s, err := service.session(ctx)
	if err != nil {
		return service.sessionError(ctx, err)
	}
	s.Wallet.Disconnect()
	slog.Info("wallet disconnected", "session_id", s.ID)
	return service.renderApp(ctx, s)
}

func (service *FrontendService) htmxDraftFileHandler(ctx echo.Context) error {
	s, err := service.connectedSession(ctx)
	if err != nil {
		return service.sessionError(ctx, err)
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		slog.Error("htmxDraftFileHandler: failed to get uploaded file",
			"status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Failed to get uploaded file")
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("htmxDraftFileHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("htmxDraftFileHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		slog.Error("htmxDraftFileHandler: failed to read uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.String(http.StatusInternalServerError, "Failed to read uploaded file")
	}

	// an empty pick is a cancelled selection and leaves the draft as it was
	selected := preview.NewFile(file.Filename, file.Header.Get("Content-Type"), data)
	if err := s.Store.SelectFile(ctx.Request().Context(), selected); err != nil {
		slog.Error("htmxDraftFileHandler: failed to select file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return service.storeError(ctx, err, "Failed to prepare preview")
	}
	if title, ok := formValue(ctx, "title"); ok {
		if err := s.Store.SetTitle(title); err != nil {
			return service.storeError(ctx, err, "Failed to update title")
		}
	}
	return service.renderApp(ctx, s)
}

func (service *FrontendService) htmxDraftTitleHandler(ctx echo.Context) error {
	s, err := service.connectedSession(ctx)
	if err != nil {
		return service.sessionError(ctx, err)
	}
	if err := s.Store.SetTitle(ctx.FormValue("title")); err != nil {
		return service.storeError(ctx, err, "Failed to update title")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (service *FrontendService) htmxDraftClearHandler(ctx echo.Context) error {
	s, err := service.connectedSession(ctx)
	if err != nil {
		return service.sessionError(ctx, err)
	}
	if err := s.Store.ClearDraft(ctx.Request().Context()); err != nil {
		return service.storeError(ctx, err, "Failed to clear draft")
	}
	return service.renderApp(ctx, s)
}

func (service *FrontendService) htmxSubmitHandler(ctx echo.Context) error {
	s, err := service.connectedSession(ctx)
	if err != nil {
		return service.sessionError(ctx, err)
	}
	if title, ok := formValue(ctx, "title"); ok {
		if err := s.Store.SetTitle(title); err != nil {
			return service.storeError(ctx, err, "Failed to update title")
		}
	}

	image, err := s.Store.Submit(ctx.Request().Context())
	switch {
	case err == nil:
		slog.Info("image registered", "session_id", s.ID, "image_id", image.ID, "handle", image.Handle)
	case gallery.IsValidation(err), gallery.IsCapacity(err):
		// the store already queued the toast for the user
		slog.Debug("htmxSubmitHandler: submission rejected", "session_id", s.ID, "error", err)
	default:
		return service.storeError(ctx, err, "Failed to register image")
	}
	return service.renderApp(ctx, s)
}

func (service *FrontendService) htmxBoardHandler(ctx echo.Context) error {
	s, err := service.session(ctx)
	if err != nil {
		return service.sessionError(ctx, err)
	}
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "board", service.boardData(s.Store.Snapshot()))
}

func (service *FrontendService) previewHandler(ctx echo.Context) error {
	s, err := service.session(ctx)
	if err != nil {
		return service.sessionError(ctx, err)
	}
	h, err := preview.ParseHandle(ctx.Param("id"))
	if err != nil {
		slog.Warn("previewHandler: invalid handle", "status", http.StatusBadRequest, "id", ctx.Param("id"))
		return ctx.String(http.StatusBadRequest, "Invalid preview handle")
	}

	reqCtx := ctx.Request().Context()
	service.setNoCache(ctx)
	if ctx.QueryParam("raw") == "1" {
		file, err := service.coreService.OpenPreview(reqCtx, s, h)
		if err != nil {
			return service.previewError(ctx, h, err)
		}
		header := ctx.Response().Header()
		header.Set("X-Content-Type-Options", "nosniff")
		header.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
		return ctx.Blob(http.StatusOK, rawContentType(file), file.Data)
	}

	thumbnail, err := service.coreService.PreviewThumbnail(reqCtx, s, h)
	if err != nil {
		return service.previewError(ctx, h, err)
	}
	return ctx.Blob(http.StatusOK, mimePNG, thumbnail)
}

func (service *FrontendService) htmxEndSessionHandler(ctx echo.Context) error {
	cookie, err := ctx.Cookie(SessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := service.coreService.Sessions().End(ctx.Request().Context(), cookie.Value); err != nil && !errors.Is(err, session.ErrNotFound) {
			slog.Error("htmxEndSessionHandler: failed to end session", "session_id", cookie.Value, "error", err)
		}
	}
	ctx.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	ctx.Response().Header().Set("HX-Redirect", "/"+MainPageName)
	return ctx.NoContent(http.StatusNoContent)
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}

// session resolves the visitor's session from the cookie, starting a new one if needed.
func (service *FrontendService) session(ctx echo.Context) (*session.Session, error) {
	var id string
	if cookie, err := ctx.Cookie(SessionCookieName); err == nil {
		id = cookie.Value
	}
	s, created, err := service.coreService.Sessions().GetOrCreate(id)
	if err != nil {
		return nil, err
	}
	if created {
		ctx.SetCookie(&http.Cookie{
			Name:     SessionCookieName,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return s, nil
}

var errWalletNotConnected = errors.New("wallet not connected")

func (service *FrontendService) connectedSession(ctx echo.Context) (*session.Session, error) {
	s, err := service.session(ctx)
	if err != nil {
		return nil, err
	}
	if !s.Wallet.IsConnected() {
		return nil, errWalletNotConnected
	}
	return s, nil
}

func (service *FrontendService) sessionError(ctx echo.Context, err error) error {
	if errors.Is(err, errWalletNotConnected) {
		return ctx.String(http.StatusForbidden, "Connect a wallet first")
	}
	slog.Error("failed to resolve session", "status", http.StatusInternalServerError, "error", err)
	return ctx.String(http.StatusInternalServerError, "Failed to resolve session")
}

func (service *FrontendService) storeError(ctx echo.Context, err error, message string) error {
	if errors.Is(err, gallery.ErrTornDown) {
		return ctx.String(http.StatusGone, "Session has ended")
	}
	slog.Error("gallery operation failed", "status", http.StatusInternalServerError, "error", err)
	return ctx.String(http.StatusInternalServerError, message)
}

func (service *FrontendService) previewError(ctx echo.Context, h preview.Handle, err error) error {
	if errors.Is(err, core.ErrHandleNotOwned) || errors.Is(err, preview.ErrNotFound) {
		slog.Warn("previewHandler: preview not available", "status", http.StatusNotFound, "handle", h, "error", err)
		return ctx.String(http.StatusNotFound, "Preview not available")
	}
	slog.Error("previewHandler: failed to render preview", "status", http.StatusInternalServerError, "handle", h, "error", err)
	return ctx.String(http.StatusInternalServerError, "Failed to render preview")
}

func (service *FrontendService) renderApp(ctx echo.Context, s *session.Session) error {
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "app", service.pageData(s))
}

func (service *FrontendService) pageData(s *session.Session) pageData {
	snapshot := s.Store.Snapshot()
	return pageData{
		Connected:     s.Wallet.IsConnected(),
		ShortAddress:  s.Wallet.ShortAddress(),
		SubmitLabel:   fmt.Sprintf("Register Image (%d/%d)", snapshot.Count, snapshot.MaxImages),
		Snapshot:      snapshot,
		Board:         service.boardData(snapshot),
		Notifications: s.Inbox.Drain(),
	}
}

func (service *FrontendService) boardData(snapshot gallery.Snapshot) boardData {
	board := service.config.Board
	return boardData{
		Width:       board.Width,
		Height:      board.Height,
		Gap:         board.Gap,
		Columns:     snapshot.Layout.Columns,
		Rows:        snapshot.Layout.Rows,
		Underfilled: snapshot.Layout.Underfilled(snapshot.Count, snapshot.MaxImages),
		Images:      snapshot.Images,
	}
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

// rawContentType picks the type an upload is served with. Only image types are passed
// through; the declared type is trusted when it is an image, otherwise the bytes decide.
func rawContentType(file *preview.File) string {
	if mediaType, _, err := mime.ParseMediaType(file.ContentType); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	if detected := http.DetectContentType(file.Data); strings.HasPrefix(detected, "image/") {
		return detected
	}
	return echo.MIMEOctetStream
}

func formValue(ctx echo.Context, name string) (string, bool) {
	if _, err := ctx.MultipartForm(); err != nil {
		if err := ctx.Request().ParseForm(); err != nil {
			return "", false
		}
	}
	values, ok := ctx.Request().Form[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
