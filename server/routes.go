package server

const (
	RouteHealth = "/health"

	RouteAuthRegister = "/auth/register"
	RouteAuthLogin    = "/auth/login"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthLogout   = "/auth/logout"
	RouteAuthMe       = "/auth/me"

	RouteTenants     = "/tenants"
	RouteTenantByID  = "/tenants/{id}"
	RouteTenantUsers = "/tenants/{id}/users"
)

func (s *Server) initRoutes() {
	// Health is public and tenant-free.
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// Auth endpoints run inside a tenant context. Refresh carries its own
	// credential (the refresh token) but is still tenant-scoped; logout and
	// me additionally require a valid access token.
	s.RegisterRouteFunc("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware(s.ResolveTenant(true))...))
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware(s.ResolveTenant(true))...))
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware(s.ResolveTenant(true))...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.ResolveTenant(true), s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.ResolveTenant(true), s.RequireAuth())...))

	// Tenant provisioning endpoints are declared public: they administer
	// tenants rather than run inside one, so no identifier is required but
	// one is still resolved when present.
	s.RegisterRouteFunc("POST "+RouteTenants, ChainMiddleware(s.CreateTenantHandler(), s.APIMiddleware(s.ResolveTenant(false))...))
	s.RegisterRouteFunc("GET "+RouteTenants, ChainMiddleware(s.ListTenantsHandler(), s.APIMiddleware(s.ResolveTenant(false))...))
	s.RegisterRouteFunc("GET "+RouteTenantByID, ChainMiddleware(s.GetTenantHandler(), s.APIMiddleware(s.ResolveTenant(false))...))
	s.RegisterRouteFunc("PATCH "+RouteTenantByID, ChainMiddleware(s.UpdateTenantHandler(), s.APIMiddleware(s.ResolveTenant(false))...))
	s.RegisterRouteFunc("DELETE "+RouteTenantByID, ChainMiddleware(s.DeleteTenantHandler(), s.APIMiddleware(s.ResolveTenant(false))...))
	s.RegisterRouteFunc("GET "+RouteTenantUsers, ChainMiddleware(s.ListTenantUsersHandler(), s.APIMiddleware(s.ResolveTenant(false))...))
}
