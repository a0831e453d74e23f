package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/codecanvas/codecanvas/internal/session"
	"github.com/codecanvas/codecanvas/pkg/types"
)

func (s *Server) readFile(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}

	path := c.QueryParam("path")
	if path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "path query parameter is required",
		})
	}

	// A missing path reads as empty content, not an error; the overlay
	// may reference a file the tree does not hold yet.
	return c.String(http.StatusOK, sess.ReadFile(path))
}

func (s *Server) writeFile(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}

	var req types.WriteFileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}
	if req.Path == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "path is required",
		})
	}

	if err := sess.EditFile(req.Path, req.Content); err != nil {
		if errors.Is(err, session.ErrStreamActive) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listFiles(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, sess.FlatFiles())
}
