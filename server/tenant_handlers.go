package server

import (
	"net/http"

	"github.com/jrsteele09/go-tenant-api/tenants"
)

type updateTenantRequest struct {
	Name       *string `json:"name"`
	DBHost     *string `json:"db_host"`
	DBPort     *int    `json:"db_port"`
	DBUsername *string `json:"db_username"`
	DBPassword *string `json:"db_password"`
	DBName     *string `json:"db_name"`
	IsActive   *bool   `json:"is_active"`
}

// CreateTenantHandler provisions a new tenant. The datastore password in
// the draft is encrypted before it is persisted and never echoed back.
func (s *Server) CreateTenantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft tenants.Draft
		if !decodeBody(w, r, &draft) {
			return
		}

		tenant, err := s.directory.Create(r.Context(), draft)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tenant)
	}
}

func (s *Server) ListTenantsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.directory.All(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) GetTenantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := s.directory.ByID(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if tenant == nil {
			writeErrorCode(w, http.StatusNotFound, "not_found", "tenant not found")
			return
		}
		writeJSON(w, http.StatusOK, tenant)
	}
}

func (s *Server) UpdateTenantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateTenantRequest
		if !decodeBody(w, r, &req) {
			return
		}

		tenant, err := s.directory.Update(r.Context(), r.PathValue("id"), tenants.Update{
			Name:       req.Name,
			DBHost:     req.DBHost,
			DBPort:     req.DBPort,
			DBUsername: req.DBUsername,
			DBPassword: req.DBPassword,
			DBName:     req.DBName,
			IsActive:   req.IsActive,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tenant)
	}
}

func (s *Server) DeleteTenantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.directory.Delete(r.Context(), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ListTenantUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.users.ListByTenant(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
