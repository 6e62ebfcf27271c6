package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/streamly/portal/internal/domain"
	"github.com/streamly/portal/internal/repository"
)

// KeyScoper issues restricted search credentials for a tenant's policy.
type KeyScoper interface {
	ScopedKey(filterBy, sortBy string) (string, error)
}

// DomainInfo is the public portal descriptor returned to the browser UI.
type DomainInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	APIKey      string `json:"apiKey"`
	ViewerID    string `json:"viewerId"`
	Branded     bool   `json:"branded"`
}

// PortalService resolves tenants by hostname and issues their scoped search
// credentials.
type PortalService struct {
	tenants repository.TenantCache
	keys    KeyScoper
	logger  *zap.Logger
}

// NewPortalService wires the portal service.
func NewPortalService(tenants repository.TenantCache, keys KeyScoper, logger *zap.Logger) *PortalService {
	if logger == nil {
		logger = zap.L()
	}
	return &PortalService{tenants: tenants, keys: keys, logger: logger}
}

// ResolveTenant strips any port suffix and looks the remaining hostname up as
// an exact key. No wildcard matching and no default tenant.
func (s *PortalService) ResolveTenant(ctx context.Context, host string) (*domain.Tenant, error) {
	cleaned, _, _ := strings.Cut(strings.TrimSpace(host), ":")
	if cleaned == "" {
		return nil, fmt.Errorf("resolve tenant: empty host")
	}

	tenant, err := s.tenants.GetByDomain(ctx, cleaned)
	if err != nil {
		s.logger.Error("tenant lookup failed", zap.String("host", cleaned), zap.Error(err))
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}
	if tenant == nil {
		s.logger.Warn("no portal for domain", zap.String("host", cleaned))
		return nil, domain.ErrTenantNotFound
	}
	return tenant, nil
}

// DomainInfo resolves the tenant for a hostname and assembles the portal
// descriptor, including a freshly scoped search key and the viewer id derived
// from the client IP.
func (s *PortalService) DomainInfo(ctx context.Context, host, clientIP string) (*DomainInfo, error) {
	tenant, err := s.ResolveTenant(ctx, host)
	if err != nil {
		return nil, err
	}

	scoped, err := s.keys.ScopedKey(tenant.Filter, tenant.Sort)
	if err != nil {
		s.logger.Error("scoped key generation failed", zap.String("tenant_id", tenant.ID), zap.Error(err))
		return nil, fmt.Errorf("issue scoped key: %w", err)
	}

	return &DomainInfo{
		ID:          tenant.ID,
		Name:        tenant.Name,
		Description: tenant.Description,
		APIKey:      scoped,
		ViewerID:    ViewerID(clientIP),
		Branded:     tenant.Branded,
	}, nil
}

// ViewerID derives the anonymous viewer identifier from a client IP. The md5
// hex form matches what the tracking pipeline already stores.
func ViewerID(clientIP string) string {
	sum := md5.Sum([]byte(clientIP))
	return hex.EncodeToString(sum[:])
}
