// Package folio is a portfolio site with a single-user CMS, built with Go,
// Echo, and templ. It serves published projects as HTML, JSON and RSS, and
// exposes an authenticated admin API for editing, ordering and illustrating
// them.
//
// Users provide their own templ templates via the ViewFuncs struct, and folio
// handles the handler logic, middleware, and database operations.
package folio

import (
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/folio-cms/folio/auth"
	"github.com/folio-cms/folio/cdn"
	"github.com/folio-cms/folio/content"
	"github.com/folio-cms/folio/ratelimit"
)

// ViewFuncs holds the templ components the App renders for HTML pages.
type ViewFuncs struct {
	Home           func(site Site, projects []Project, activeTag string, tags []content.Tag) templ.Component
	Project        func(site Site, project Project, related []Project) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(posts []content.Post, notes string, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App wires together the store, auth gate, limiters, cache, handlers,
// middleware, and user-provided templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *content.Store
	Cache    *ProjectCache
	Views    ViewFuncs
	Gate     *auth.Gate
	Uploader cdn.Uploader
	URLs     cdn.URLBuilder

	loginLimiter  *ratelimit.Limiter
	adminLimiter  *ratelimit.Limiter
	publicLimiter *ratelimit.Limiter
	limiterStore  ratelimit.Store

	closers      []func() error
	customRoutes []func(*App)
	staticDir    string
}

// New creates an App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}
	a.Echo.Logger.SetLevel(log.INFO)

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the store and builds everything the server needs, up to and
// including routes. Start calls it; tests call it directly and drive
// a.Echo with httptest.
func (a *App) Setup() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("folio: SessionSecret is required")
	}

	if a.Store == nil {
		store, err := content.Open(a.Config.DatabaseURL)
		if err != nil {
			return fmt.Errorf("folio: init store: %w", err)
		}
		a.Store = store
		a.closers = append(a.closers, store.Close)
	}

	if err := a.setupUploads(); err != nil {
		return err
	}
	if err := a.setupLimiters(); err != nil {
		return err
	}

	a.Cache = NewProjectCache(a.Store, a.URLs, a.Config.CacheTTL)
	a.Gate = auth.NewGate(a.Store, auth.NewSigner([]byte(a.Config.SessionSecret)), a.Echo.Logger, a.Config.LoginDelay)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start runs Setup and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupUploads() error {
	a.URLs = cdn.URLBuilder{Cloud: a.Config.CDNCloud, Folder: a.Config.CDNFolder}
	if a.Uploader != nil {
		return nil
	}
	if a.Config.CloudinaryURL == "" {
		a.Uploader = cdn.Disabled{}
		return nil
	}
	cld, err := cdn.NewCloudinary(a.Config.CloudinaryURL, a.Config.CDNFolder)
	if err != nil {
		return fmt.Errorf("folio: init uploads: %w", err)
	}
	if a.URLs.Cloud == "" {
		a.URLs.Cloud = cld.CloudName()
	}
	a.Uploader = cld
	return nil
}

func (a *App) setupLimiters() error {
	if a.limiterStore == nil {
		if a.Config.RedisURL != "" {
			r, err := ratelimit.NewRedis(a.Config.RedisURL)
			if err != nil {
				return fmt.Errorf("folio: init rate limiter: %w", err)
			}
			a.limiterStore = r
			a.closers = append(a.closers, r.Close)
		} else {
			m := ratelimit.NewMemory()
			stop := m.StartSweeper(time.Minute)
			a.limiterStore = m
			a.closers = append(a.closers, func() error { stop(); return nil })
		}
	}
	a.loginLimiter = ratelimit.New(a.limiterStore, "login", ratelimit.Login)
	a.adminLimiter = ratelimit.New(a.limiterStore, "admin", ratelimit.AdminAPI)
	a.publicLimiter = ratelimit.New(a.limiterStore, "public", ratelimit.PublicAPI)
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/feed.xml", a.handleFeed)

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/projects/:slug/", a.handleProject)

	// Public JSON
	pub := e.Group("/api", a.rateLimit(a.publicLimiter, clientIP))
	pub.GET("/posts", a.apiListProjects)
	pub.GET("/posts/:slug", a.apiGetProject)
	pub.GET("/tags", a.apiListTags)

	// Admin pages
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)

	// Admin API
	e.POST("/api/admin/login", a.apiLogin, a.rateLimit(a.loginLimiter, clientIP))
	adm := e.Group("/api/admin", a.requireAdmin, a.rateLimit(a.adminLimiter, sessionUser))
	adm.GET("/posts", a.apiAdminListPosts)
	adm.POST("/posts", a.apiCreatePost)
	adm.POST("/posts/reorder", a.apiReorderPosts)
	adm.GET("/posts/export", a.apiExport)
	adm.GET("/posts/:id", a.apiAdminGetPost)
	adm.PUT("/posts/:id", a.apiUpdatePost)
	adm.DELETE("/posts/:id", a.apiDeletePost)
	adm.POST("/posts/:id/photos", a.apiUploadPhoto)
	adm.DELETE("/posts/:id/photos/:attachmentId", a.apiDeletePhoto)
	adm.PUT("/posts/:id/photos/reorder", a.apiReorderPhotos)
	adm.GET("/notes", a.apiGetNotes)
	adm.PUT("/notes", a.apiSetNotes)
}

// Close releases the store, the limiter backend and its sweeper.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
