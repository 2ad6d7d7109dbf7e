package webhook

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/opencomply/integration-core/internal/integration"
)

const defaultMaxBody = int64(1 << 20) // 1 MiB

// Server is the inbound HTTP surface for webhook-capable integrations. It
// reads the raw body before any parsing so verification operates on the
// exact wire bytes.
type Server struct {
	dispatcher *Dispatcher
	registry   Lookup
	maxBody    int64
	e          *echo.Echo
}

func NewServer(reg Lookup, maxBody int64) *Server {
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	s := &Server{
		dispatcher: &Dispatcher{Registry: reg},
		registry:   reg,
		maxBody:    maxBody,
		e:          echo.New(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.e.GET("/healthz", s.handleHealthz)
	s.e.POST("/webhooks/:kind", s.handleWebhook)
}

// Handler exposes the server as a stdlib handler so the caller owns the
// http.Server lifecycle, the way the metrics server does.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) handleHealthz(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWebhook(c *echo.Context) error {
	kind := strings.TrimSpace(c.Param("kind"))
	req := c.Request()

	body, err := io.ReadAll(io.LimitReader(req.Body, s.maxBody+1))
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}
	if int64(len(body)) > s.maxBody {
		return c.NoContent(http.StatusRequestEntityTooLarge)
	}

	env := Envelope{
		Body:      body,
		Signature: req.Header.Get(s.signatureHeader(kind)),
	}

	resp, err := s.dispatcher.Dispatch(req.Context(), kind, env)
	if err != nil {
		var verr *VerificationError
		switch {
		case errors.As(err, &verr):
			slog.Warn("webhook rejected", "kind", kind)
		default:
			slog.Error("webhook dispatch failed", "kind", kind, "err", err)
		}
		if len(resp.Body) > 0 {
			return c.Blob(resp.Status, "application/json", resp.Body)
		}
		return c.NoContent(resp.Status)
	}

	if len(resp.Body) > 0 {
		return c.Blob(resp.Status, "application/json", resp.Body)
	}
	return c.NoContent(resp.Status)
}

// signatureHeader asks the registered receiver which header carries the
// signature, falling back to a conventional default for unknown kinds so the
// dispatch path still produces a proper 404.
func (s *Server) signatureHeader(kind string) string {
	if inst, ok := s.registry.Get(kind); ok {
		if receiver, ok := inst.(integration.WebhookReceiver); ok {
			if h := strings.TrimSpace(receiver.SignatureHeader()); h != "" {
				return h
			}
		}
	}
	return "X-Signature-256"
}
