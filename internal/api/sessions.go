package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/codecanvas/codecanvas/pkg/types"
)

func (s *Server) createSession(c echo.Context) error {
	var cfg types.SessionConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}

	sess, err := s.sessions.Create(cfg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, sess.Info())
}

func (s *Server) listSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, s.sessions.List())
}

func (s *Server) getSession(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, sess.Info())
}

func (s *Server) deleteSession(c echo.Context) error {
	if !s.sessions.Delete(c.Param("id")) {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "session not found",
		})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listProjects(c echo.Context) error {
	if s.store == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "no snapshot store configured",
		})
	}
	infos, err := s.store.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, infos)
}
