package middleware

import (
	"errors"
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/tabsettle-api/internal/domain/entity"
	"github.com/sangkips/tabsettle-api/internal/domain/repository"
	infraRepo "github.com/sangkips/tabsettle-api/internal/infrastructure/repository"
	"github.com/sangkips/tabsettle-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tabsettle-api/pkg/apperror"
)

// TenantHeader selects a tenant explicitly, e.g. for clients without subdomains
const TenantHeader = "X-Tenant-ID"

// ExtractTenantFromHost extracts tenant slug from subdomain
// e.g., "bistro.tabsettle.app" -> "bistro"
func ExtractTenantFromHost(host string) (string, error) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return "", errors.New("host is an IP address")
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return "", errors.New("invalid subdomain")
	}
	return parts[0], nil
}

// TenantMiddleware resolves the tenant for the request and checks that the
// authenticated user belongs to it. The tenant comes from, in order: the
// X-Tenant-ID header, the subdomain, the tenant claim of the token. Every
// request past this point carries the tenant in its context.
func TenantMiddleware(tenantRepo repository.TenantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		tenant, err := resolveTenant(c, tenantRepo)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if tenant == nil {
			response.BadRequest(c, "Tenant context required")
			c.Abort()
			return
		}

		userIDVal, exists := c.Get("user_id")
		if exists {
			userID, ok := userIDVal.(uuid.UUID)
			if ok && userID != uuid.Nil {
				isMember, err := tenantRepo.IsMember(ctx, tenant.ID, userID)
				if err != nil {
					response.Error(c, err)
					c.Abort()
					return
				}
				if !isMember {
					response.Forbidden(c, "Access denied to this tenant")
					c.Abort()
					return
				}
			}
		}

		// Gin context for middleware/handlers, request context for services/repositories
		c.Set("tenant_id", tenant.ID)
		c.Set("tenant", tenant)
		c.Request = c.Request.WithContext(infraRepo.WithTenant(ctx, tenant.ID))

		c.Next()
	}
}

func resolveTenant(c *gin.Context, tenantRepo repository.TenantRepository) (*entity.Tenant, error) {
	ctx := c.Request.Context()

	if header := c.GetHeader(TenantHeader); header != "" {
		id, err := uuid.Parse(header)
		if err != nil {
			return nil, apperror.NewBadRequestError("Invalid tenant ID")
		}
		return lookupTenant(tenantRepo.GetByID(ctx, id))
	}

	if slug, err := ExtractTenantFromHost(c.Request.Host); err == nil {
		return lookupTenant(tenantRepo.GetBySlug(ctx, slug))
	}

	if val, ok := c.Get("token_tenant_id"); ok {
		if id, ok := val.(uuid.UUID); ok && id != uuid.Nil {
			return lookupTenant(tenantRepo.GetByID(ctx, id))
		}
	}
	return nil, nil
}

func lookupTenant(tenant *entity.Tenant, err error) (*entity.Tenant, error) {
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, apperror.NewNotFoundError("Tenant")
	}
	return tenant, nil
}

// GetTenantID retrieves the tenant ID from gin context
func GetTenantID(c *gin.Context) uuid.UUID {
	tenantID, exists := c.Get("tenant_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := tenantID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
