package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/codecanvas/codecanvas/internal/auth"
	"github.com/codecanvas/codecanvas/internal/metrics"
	"github.com/codecanvas/codecanvas/internal/project"
	"github.com/codecanvas/codecanvas/internal/session"
)

// Server holds the API server dependencies.
type Server struct {
	echo     *echo.Echo
	sessions *session.Registry
	issuer   *auth.JWTIssuer
	store    *project.Store
}

// ServerOpts configure the API server.
type ServerOpts struct {
	APIKey string
	Issuer *auth.JWTIssuer // nil disables signal-channel token checks
	Store  *project.Store  // nil disables the persisted-project listing
}

// NewServer creates a new API server with all routes configured.
func NewServer(sessions *session.Registry, opts ServerOpts) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		sessions: sessions,
		issuer:   opts.Issuer,
		store:    opts.Store,
	}

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(metrics.EchoMiddleware())

	// Health check (no auth)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// API routes (with auth)
	api := e.Group("")
	api.Use(auth.APIKeyMiddleware(opts.APIKey))

	// Session lifecycle
	api.POST("/sessions", s.createSession)
	api.GET("/sessions", s.listSessions)
	api.GET("/sessions/:id", s.getSession)
	api.DELETE("/sessions/:id", s.deleteSession)

	// Persisted project snapshots
	api.GET("/projects", s.listProjects)

	// Virtual filesystem
	api.GET("/sessions/:id/files", s.readFile)
	api.PUT("/sessions/:id/files", s.writeFile)
	api.GET("/sessions/:id/files/list", s.listFiles)

	// Generator stream
	api.POST("/sessions/:id/stream", s.beginStream)
	api.PUT("/sessions/:id/stream", s.streamChunk)
	api.DELETE("/sessions/:id/stream", s.endStream)

	// Remote execution
	api.POST("/sessions/:id/run", s.runFile)
	api.GET("/sessions/:id/output", s.runOutput)

	// Preview control
	api.POST("/sessions/:id/preview/refresh", s.refreshPreview)
	api.GET("/sessions/:id/console", s.consoleState)

	// Preview surface. No API key: the document is fetched by an iframe
	// and the signal channel is guarded by a generation-scoped token.
	e.GET("/preview/:id", s.previewDocument)
	e.GET("/preview/:id/signals", s.previewSignals)

	return s
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	return s.echo.Close()
}

// Handler exposes the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// session looks up the session named by the :id route param, writing a
// 404 when it does not exist.
func (s *Server) session(c echo.Context) (*session.Session, bool) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		_ = c.JSON(http.StatusNotFound, map[string]string{
			"error": "session not found",
		})
	}
	return sess, ok
}
