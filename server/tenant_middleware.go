package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-tenant-api/internal/apperrors"
	"github.com/jrsteele09/go-tenant-api/tenants"
)

// TenantHeader carries an explicit tenant identifier (subdomain or id).
const TenantHeader = "X-Tenant-ID"

// TenantQueryParam is the dev/test fallback identifier; ignored in
// production.
const TenantQueryParam = "tenantId"

// reservedSubdomains are hostname labels that never identify a tenant.
var reservedSubdomains = map[string]struct{}{
	"www":   {},
	"api":   {},
	"app":   {},
	"admin": {},
}

// ResolveTenant identifies and validates the request's tenant and attaches
// an immutable tenants.Context for the rest of the request. Identification
// precedence: header, then hostname subdomain, then query parameter
// (non-production only).
//
// With required=false the route is public: a request presenting no
// identifier passes through without a tenant context, but a presented
// identifier is still validated.
func (s *Server) ResolveTenant(required bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identifier := s.extractTenantIdentifier(r)

			if identifier == "" {
				if required {
					writeError(w, apperrors.BadRequest("Tenant identifier required. Provide X-Tenant-ID header or use subdomain."))
					return
				}
				next(w, r)
				return
			}

			tenantCtx, err := s.directory.Resolve(r.Context(), identifier)
			if err != nil {
				writeError(w, err)
				return
			}

			next(w, r.WithContext(tenants.WithContext(r.Context(), tenantCtx)))
		}
	}
}

func (s *Server) extractTenantIdentifier(r *http.Request) string {
	if header := r.Header.Get(TenantHeader); header != "" {
		return header
	}

	if subdomain := extractSubdomain(r.Host); subdomain != "" {
		return subdomain
	}

	if query := r.URL.Query().Get(TenantQueryParam); query != "" && !s.config.IsProduction() {
		return query
	}

	return ""
}

// extractSubdomain pulls the tenant label from a host like
// "tenant1.api.example.com". Hosts with fewer than three labels, bare IPs,
// localhost and reserved first labels yield no identifier.
func extractSubdomain(host string) string {
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}

	if hostname == "localhost" || net.ParseIP(hostname) != nil {
		return ""
	}

	parts := strings.Split(hostname, ".")
	if len(parts) < 3 {
		return ""
	}

	subdomain := parts[0]
	if _, reserved := reservedSubdomains[subdomain]; reserved {
		return ""
	}
	return subdomain
}
