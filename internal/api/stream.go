package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/codecanvas/codecanvas/internal/session"
	"github.com/codecanvas/codecanvas/pkg/types"
)

func (s *Server) beginStream(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}

	var req types.StreamBeginRequest
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

	// Beginning while a stream is active supersedes it; the superseded
	// stream is abandoned, never committed.
	sess.BeginStream(req.Path)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) streamChunk(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}

	var req types.StreamChunkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body: " + err.Error(),
		})
	}

	if err := sess.StreamChunk(req.Code); err != nil {
		return c.JSON(http.StatusConflict, map[string]string{
			"error": err.Error(),
		})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) endStream(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}

	commit := c.QueryParam("commit") == "true"
	if err := sess.EndStream(commit); err != nil {
		if errors.Is(err, session.ErrNoStream) {
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
