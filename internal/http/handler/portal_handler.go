package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/streamly/portal/internal/domain"
	"github.com/streamly/portal/internal/service"
)

// PortalAPI is the portal service surface the handler depends on.
type PortalAPI interface {
	DomainInfo(ctx context.Context, host, clientIP string) (*service.DomainInfo, error)
}

// PortalHandler serves the tenant descriptor endpoint.
type PortalHandler struct {
	Portal PortalAPI
	Logger *zap.Logger
}

// NewPortalHandler creates the portal handler.
func NewPortalHandler(portal PortalAPI, logger *zap.Logger) *PortalHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &PortalHandler{Portal: portal, Logger: logger}
}

// Domain resolves the forwarded host to a portal configuration and returns
// the branded descriptor with a scoped search key.
func (h *PortalHandler) Domain(c *gin.Context) {
	host := strings.TrimSpace(c.GetHeader("X-Forwarded-Host"))
	if host == "" {
		h.Logger.Warn("forwarded host header missing")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Forwarded host not found"})
		return
	}

	info, err := h.Portal.DomainInfo(c.Request.Context(), host, c.ClientIP())
	if err != nil {
		if errors.Is(err, domain.ErrTenantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Portal not found for domain: " + host})
			return
		}
		h.Logger.Error("domain descriptor failed", zap.String("host", host), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, info)
}
