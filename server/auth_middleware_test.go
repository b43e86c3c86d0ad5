package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-tenant-api/server"
	"github.com/jrsteele09/go-tenant-api/token"
	"github.com/stretchr/testify/require"
)

func TestRequireAuthBearerParsing(t *testing.T) {
	f := setupServer(t)
	f.createTenant(t, "acme")

	me := func(authorization string) (*httptest.ResponseRecorder, apiResponse) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set(server.TenantHeader, "acme")
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		return f.do(t, req)
	}

	tests := []struct {
		name          string
		authorization string
		wantMessage   string
	}{
		{"missing header", "", "Missing Authorization header"},
		{"wrong scheme", "Token abc123", "Invalid Authorization header format"},
		{"no token", "Bearer ", "Empty token"},
		{"garbage token", "Bearer not.a.jwt", "Invalid or expired token"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := me(tc.authorization)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, tc.wantMessage, body.Error.Message)
		})
	}
}

func TestRequireAuthRejectsRefreshToken(t *testing.T) {
	f := setupServer(t)
	f.createTenant(t, "acme")

	register := httptest.NewRequest(http.MethodPost, "/auth/register", registerRequestBody(t, "jane@acme.test"))
	register.Header.Set(server.TenantHeader, "acme")
	rec, body := f.do(t, register)
	require.Equal(t, http.StatusCreated, rec.Code)

	var pair token.Pair
	require.NoError(t, json.Unmarshal(body.Data, &pair))

	me := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	me.Header.Set(server.TenantHeader, "acme")
	me.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	rec, body = f.do(t, me)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid or expired token", body.Error.Message)
}

func TestRequireAuthTenantBinding(t *testing.T) {
	f := setupServer(t)
	f.createTenant(t, "tenant-a")
	f.createTenant(t, "tenant-b")

	register := httptest.NewRequest(http.MethodPost, "/auth/register", registerRequestBody(t, "jane@tenant-a.test"))
	register.Header.Set(server.TenantHeader, "tenant-a")
	rec, body := f.do(t, register)
	require.Equal(t, http.StatusCreated, rec.Code)

	var pair token.Pair
	require.NoError(t, json.Unmarshal(body.Data, &pair))

	t.Run("token for another tenant is rejected", func(t *testing.T) {
		me := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		me.Header.Set(server.TenantHeader, "tenant-b")
		me.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec, body := f.do(t, me)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Tenant mismatch", body.Error.Message)
	})

	t.Run("token for the resolved tenant is accepted", func(t *testing.T) {
		me := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		me.Header.Set(server.TenantHeader, "tenant-a")
		me.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec, _ := f.do(t, me)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
