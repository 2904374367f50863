// Package httpserver exposes health, metrics and the lead intake endpoint.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/notify"

	"github.com/gin-gonic/gin"
)

// LeadNotifier is satisfied by *notify.Notifier.
type LeadNotifier interface {
	Notify(ctx context.Context, lead notify.Lead) (int, error)
}

type Options struct {
	Addr string
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
	// Leads enables POST /api/leads when non-nil.
	Leads  LeadNotifier
	Logger *slog.Logger
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		srv: &http.Server{
			Addr:              opts.Addr,
			Handler:           Router(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: opts.Logger,
	}
}

// Router builds the gin engine; exported for httptest.
func Router(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	if opts.Leads != nil {
		h := &leadHandler{notifier: opts.Leads, logger: opts.Logger}
		r.POST("/api/leads", h.Create)
	}
	return r
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type leadHandler struct {
	notifier LeadNotifier
	logger   *slog.Logger
}

func (h *leadHandler) Create(c *gin.Context) {
	var lead notify.Lead
	if err := c.ShouldBindJSON(&lead); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if strings.TrimSpace(lead.Name) == "" && strings.TrimSpace(lead.Phone) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "name or phone is required"})
		return
	}

	sent, err := h.notifier.Notify(c.Request.Context(), lead)
	if err != nil {
		h.logger.Error("lead rejected", "form_type", lead.FormType, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "notification was not delivered"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "delivered": sent})
}
