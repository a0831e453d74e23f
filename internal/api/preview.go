package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/codecanvas/codecanvas/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now; tighten in production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *Server) refreshPreview(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	sess.RefreshPreview()
	doc, gen := sess.PreviewDocument()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"generation": gen,
		"bytes":      len(doc),
	})
}

func (s *Server) consoleState(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, sess.Console())
}

// previewDocument serves the instrumented HTML directly, intended for
// embedding in an iframe. Browsers cannot set custom headers on iframe
// loads, so this route sits outside the API key middleware.
func (s *Server) previewDocument(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	doc, _ := sess.PreviewDocument()
	return c.HTML(http.StatusOK, doc)
}

// previewSignals accepts runtime signals (errors, logs, load success)
// from the instrumented document over a WebSocket. Each connection is
// pinned to a single preview generation; when a token issuer is
// configured the connection must also present a token scoped to that
// session and generation.
func (s *Server) previewSignals(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}

	gen, err := strconv.ParseInt(c.QueryParam("gen"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid generation parameter",
		})
	}

	if s.issuer != nil {
		claims, err := s.issuer.ValidatePreviewToken(c.QueryParam("token"))
		if err != nil {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "invalid preview token",
			})
		}
		if claims.SessionID != sess.ID || claims.Generation != gen {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "preview token does not match this session",
			})
		}
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return nil
		}

		var sig types.PreviewSignal
		if err := json.Unmarshal(msg, &sig); err != nil {
			continue
		}
		sess.HandleSignal(gen, sig)
	}
}
