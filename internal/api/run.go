package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/codecanvas/codecanvas/internal/session"
	"github.com/codecanvas/codecanvas/pkg/types"
)

// runFile blocks until the remote execution reaches a terminal state.
// Abandoning the request cancels the poll loop via the request context.
func (s *Server) runFile(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}

	var req types.RunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}

	lines, err := sess.Run(c.Request().Context(), req.Path)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotRunnable):
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		case errors.Is(err, session.ErrRunInProgress):
			return c.JSON(http.StatusConflict, map[string]string{
				"error": err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, types.RunResult{Lines: lines})
}

func (s *Server) runOutput(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, types.RunResult{Lines: sess.Output()})
}
