// Package http exposes the runtime over a small REST surface: triggering an
// initialization pass, inspecting the resolved registry, and serving the
// applied stylesheet list to the host page.
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/microshell/runtime/internal/domain/registry"
	"github.com/microshell/runtime/internal/domain/runtime"
	"github.com/microshell/runtime/internal/domain/styling"
	"github.com/microshell/runtime/internal/infrastructure/logging"
	"github.com/microshell/runtime/internal/shared/types"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	orchestrator *runtime.Orchestrator
	registry     *registry.Client
	styler       *styling.Injector
	logger       *logging.Logger
	startTime    time.Time
}

// NewHandlers creates the handler set.
func NewHandlers(orchestrator *runtime.Orchestrator, reg *registry.Client, styler *styling.Injector, logger *logging.Logger) *Handlers {
	return &Handlers{
		orchestrator: orchestrator,
		registry:     reg,
		styler:       styler,
		logger:       logger,
		startTime:    time.Now(),
	}
}

// Register wires the handler routes onto the router.
func (h *Handlers) Register(router gin.IRouter) {
	router.POST("/runtime/init", h.InitRuntime)
	router.GET("/runtime/registry", h.GetRegistry)
	router.GET("/runtime/styles", h.GetStyles)
	router.GET("/health", h.Health)
}

// InitRuntime runs one full initialization pass for a system.
func (h *Handlers) InitRuntime(c *gin.Context) {
	var opts types.InitOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sessionID := uuid.New().String()
	h.logger.Info("Initialization requested",
		zap.String("session_id", sessionID),
		zap.String("system_code", opts.SystemCode),
	)

	if err := h.orchestrator.Init(c.Request.Context(), opts); err != nil {
		if errors.Is(err, runtime.ErrMissingSystemCode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Initialization failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"components": h.registry.Snapshot(),
	})
}

// GetRegistry returns the current resolved registry snapshot.
func (h *Handlers) GetRegistry(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"components": h.registry.Snapshot()})
}

// GetStyles returns the applied stylesheet URLs in application order.
func (h *Handlers) GetStyles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stylesheets": h.styler.Stylesheets()})
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": time.Since(h.startTime).String(),
	})
}
