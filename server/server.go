package server

import (
	"net/http"

	"github.com/jrsteele09/go-tenant-api/auth"
	"github.com/jrsteele09/go-tenant-api/internal/config"
	"github.com/jrsteele09/go-tenant-api/tenants"
	"github.com/jrsteele09/go-tenant-api/token"
	"github.com/jrsteele09/go-tenant-api/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Services bundles the domain dependencies the HTTP layer composes.
type Services struct {
	Directory *tenants.Directory
	Users     *users.Service
	Tokens    *token.Service
	Auth      *auth.Service
}

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config

	directory *tenants.Directory
	users     *users.Service
	tokens    *token.Service
	auth      *auth.Service
}

func New(cfg config.Config, services Services) (*Server, error) {
	if services.Directory == nil {
		return nil, errors.New("[server.New] tenant directory is required")
	}
	if services.Users == nil {
		return nil, errors.New("[server.New] user service is required")
	}
	if services.Tokens == nil {
		return nil, errors.New("[server.New] token service is required")
	}
	if services.Auth == nil {
		return nil, errors.New("[server.New] auth service is required")
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    cfg,
		env:       cfg.GetEnv(),
		directory: services.Directory,
		users:     services.Users,
		tokens:    services.Tokens,
		auth:      services.Auth,
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	for _, route := range s.routes {
		log.Debug().Str("route", route).Msg("registered")
	}
}
