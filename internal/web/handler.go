// Package web serves the portal: one server-rendered page per browser
// session, form posts that drive the session's dashboard controller, and an
// SSE stream that pushes re-rendered regions after every change.
package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-portal/internal/auth"
	"resume-portal/internal/dashboard"
	"resume-portal/internal/identity"
	"resume-portal/internal/services/health"
	"resume-portal/internal/shared/config"
	"resume-portal/internal/shared/server"
	"resume-portal/internal/shared/server/middleware"
	"resume-portal/internal/shared/server/respond"
	"resume-portal/internal/shared/storage/object"
	"resume-portal/internal/shared/telemetry"
)

// SessionCookie carries the browser session key.
const SessionCookie = "portal_session"

const (
	sessionKey = "portalSession"
	actionKey  = "portalAction"
	authGroup  = "AUTH"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler owns the portal routes.
type Handler struct {
	cfg      config.Config
	sessions *Registry
	google   *auth.GoogleService
	objects  object.Store
	tmpl     *template.Template
}

// NewHandler parses the page templates. objects is served under /objects
// when non-nil; google may be nil when OAuth is not configured.
func NewHandler(cfg config.Config, sessions *Registry, google *auth.GoogleService, objects object.Store) (*Handler, error) {
	tmpl, err := template.New("portal").Funcs(template.FuncMap{
		"credits": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{cfg: cfg, sessions: sessions, google: google, objects: objects, tmpl: tmpl}, nil
}

// NewRouter builds the engine with the shared middleware and every portal
// route.
func NewRouter(cfg config.Config, h *Handler, checks *health.Service) *gin.Engine {
	r := server.NewEngine(cfg, h.Principal, checks)
	h.Register(r)
	r.NoRoute(server.NotFound)
	return r
}

// Principal resolves the signed-in user behind the request's session cookie.
func (h *Handler) Principal(c *gin.Context) (middleware.Principal, bool) {
	key, err := c.Cookie(SessionCookie)
	if err != nil {
		return middleware.Principal{}, false
	}
	s, ok := h.sessions.Lookup(key)
	if !ok {
		return middleware.Principal{}, false
	}
	current, ok := s.Identity.Current()
	if !ok {
		return middleware.Principal{}, false
	}
	return middleware.Principal{UserID: current.UserID, Email: current.Email}, true
}

// Register mounts the portal routes on r.
func (h *Handler) Register(r *gin.Engine) {
	limiter := middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			authGroup: middleware.PerMinute(h.cfg.AuthRatePerMinute),
		},
		GroupFor: func(c *gin.Context) string {
			if strings.HasPrefix(c.Request.URL.Path, "/auth/") {
				return authGroup
			}
			return ""
		},
	})

	if h.objects != nil {
		r.GET("/objects/*key", h.serveObject)
	}

	// Reads only bind an existing session; they never create one.
	reads := r.Group("/", h.lookup())
	reads.GET("/", h.page)
	reads.GET("/events", h.events)
	reads.GET("/api/v1/view", h.view)

	pages := r.Group("/", limiter, h.attach())
	pages.POST("/auth/signup", h.signUp)
	pages.POST("/auth/signin", h.signIn)
	pages.POST("/auth/signout", h.signOut)
	pages.GET("/auth/google/start", h.googleStart)
	pages.GET("/auth/google/callback", h.googleCallback)

	pages.POST("/files", h.upload)
	pages.POST("/files/refresh", h.refreshFiles)
	pages.POST("/files/delete", h.requestDelete)
	pages.POST("/files/delete/confirm", h.confirmDelete)
	pages.POST("/files/delete/cancel", h.cancelDelete)
	pages.POST("/alert/dismiss", h.dismissAlert)
	pages.POST("/process", h.process)
	pages.POST("/processed/refresh", h.refreshArtifacts)
	pages.POST("/fetch", h.fetch)
}

// lookup binds the browser's existing session, if any, and refreshes its
// cookie.
func (h *Handler) lookup() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key, err := c.Cookie(SessionCookie); err == nil {
			if s, ok := h.sessions.Lookup(key); ok {
				h.bind(c, s)
			}
		}
		c.Next()
	}
}

// attach finds or creates the browser session for a state-changing request.
func (h *Handler) attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		var s *Session
		if key, err := c.Cookie(SessionCookie); err == nil {
			s, _ = h.sessions.Lookup(key)
		}
		if s == nil {
			created, err := h.sessions.Create()
			if err != nil {
				telemetry.Warn("web.session_rejected", map[string]any{
					"request_id": middleware.RequestIDFromContext(c),
					"error":      err.Error(),
				})
				c.Header("Retry-After", "60")
				respond.Error(c, http.StatusServiceUnavailable, "sessions_full", "the portal is busy, try again shortly", nil)
				return
			}
			s = created
			telemetry.Info("web.session_created", map[string]any{"request_id": middleware.RequestIDFromContext(c)})
		}
		h.bind(c, s)
		c.Next()
	}
}

func (h *Handler) bind(c *gin.Context, s *Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, s.Key, int(h.cfg.SessionIdleTTL.Seconds()), "/", "", !h.cfg.IsDevLike(), true)
	c.Set(sessionKey, s)
}

func session(c *gin.Context) *Session {
	v, _ := c.Get(sessionKey)
	s, _ := v.(*Session)
	return s
}

// currentView is the session's view, or the signed-out view when the
// browser has no session yet.
func currentView(c *gin.Context) dashboard.View {
	if s := session(c); s != nil {
		return s.Controller.View()
	}
	return dashboard.SignedOutView()
}

func controller(c *gin.Context, action string) *dashboard.Controller {
	c.Set(actionKey, action)
	return session(c).Controller
}

func (h *Handler) page(c *gin.Context) {
	view := currentView(c)
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "page", view); err != nil {
		respond.Error(c, http.StatusInternalServerError, "render_failed", "could not render page", nil)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *Handler) view(c *gin.Context) {
	respond.OK(c, currentView(c))
}

// events streams the rendered app region after every change.
// A browser without a session gets 204, which stops EventSource from
// reconnecting until the page reloads.
func (h *Handler) events(c *gin.Context) {
	s := session(c)
	if s == nil {
		c.Status(http.StatusNoContent)
		return
	}
	ctrl := s.Controller
	changes, stop := ctrl.Watch()
	defer stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case _, ok := <-changes:
			if !ok {
				return false
			}
			html, err := h.renderApp(ctrl.View())
			if err != nil {
				telemetry.Error("web.render_failed", map[string]any{"error": err.Error()})
				return false
			}
			c.SSEvent("view", html)
			return true
		}
	})
}

func (h *Handler) renderApp(v dashboard.View) (string, error) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "app", v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// done answers a form post: JSON clients get the view, browsers go back to
// the page.
func (h *Handler) done(c *gin.Context) {
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		respond.OK(c, session(c).Controller.View())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) signUp(c *gin.Context) {
	_ = controller(c, "signup").SignUp(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
	h.done(c)
}

func (h *Handler) signIn(c *gin.Context) {
	_ = controller(c, "signin").SignIn(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
	h.done(c)
}

func (h *Handler) signOut(c *gin.Context) {
	_ = controller(c, "signout").SignOut(c.Request.Context())
	h.done(c)
}

func (h *Handler) googleStart(c *gin.Context) {
	ctrl := controller(c, "google_start")
	target, err := h.google.BeginURL(session(c).Key)
	if err != nil {
		ctrl.FailAuth(identity.NewAuthError("Google sign-in is not available.", err))
		h.done(c)
		return
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) googleCallback(c *gin.Context) {
	ctrl := controller(c, "google_callback")
	if reason := c.Query("error"); reason != "" {
		ctrl.FailAuth(identity.NewAuthError("Google sign-in was cancelled.", errors.New(reason)))
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	cred, err := h.google.Complete(c.Request.Context(), session(c).Key, c.Query("state"), c.Query("code"))
	if err != nil {
		ctrl.FailAuth(identity.NewAuthError("Google sign-in failed. Please try again.", err))
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	_ = ctrl.SignInWithFederated(c.Request.Context(), cred)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) upload(c *gin.Context) {
	ctrl := controller(c, "upload")
	header, err := c.FormFile("file")
	if err != nil {
		_ = ctrl.Upload(c.Request.Context(), "", nil)
		h.done(c)
		return
	}
	f, err := header.Open()
	if err != nil {
		_ = ctrl.Upload(c.Request.Context(), "", nil)
		h.done(c)
		return
	}
	defer f.Close()
	_ = ctrl.Upload(c.Request.Context(), header.Filename, f)
	h.done(c)
}

func (h *Handler) refreshFiles(c *gin.Context) {
	_ = controller(c, "files_refresh").RefreshFiles(c.Request.Context())
	h.done(c)
}

func (h *Handler) requestDelete(c *gin.Context) {
	_ = controller(c, "delete_request").RequestDelete(c.PostForm("path"))
	h.done(c)
}

func (h *Handler) confirmDelete(c *gin.Context) {
	_ = controller(c, "delete_confirm").ConfirmDelete(c.Request.Context())
	h.done(c)
}

func (h *Handler) cancelDelete(c *gin.Context) {
	controller(c, "delete_cancel").CancelDelete()
	h.done(c)
}

func (h *Handler) dismissAlert(c *gin.Context) {
	controller(c, "alert_dismiss").DismissAlert()
	h.done(c)
}

func (h *Handler) process(c *gin.Context) {
	_ = controller(c, "process").Process(c.Request.Context(), c.PostForm("resume_url"), c.PostForm("job_description_url"))
	h.done(c)
}

func (h *Handler) refreshArtifacts(c *gin.Context) {
	_ = controller(c, "processed_refresh").RefreshArtifacts(c.Request.Context())
	h.done(c)
}

func (h *Handler) fetch(c *gin.Context) {
	requiresAuth := c.PostForm("auth") == "true"
	_ = controller(c, "fetch").Fetch(c.Request.Context(), c.PostForm("path"), requiresAuth)
	h.done(c)
}

// serveObject streams a stored file. Download URLs from the local store point
// here.
func (h *Handler) serveObject(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	rc, err := h.objects.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "storage_error", "could not read file", nil)
		return
	}
	defer rc.Close()
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Content-Disposition": "inline; filename=\"" + path.Base(key) + "\"",
	})
}
