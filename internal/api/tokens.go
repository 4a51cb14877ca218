package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/area-labs/area-core/internal/auth"
)

// putServiceTokenRequest is the request body for PUT /auth/services/{service}.
// Tokens are obtained out of band (the OAuth browser dance is not part of
// this API) and stored here for the service plugins to use.
type putServiceTokenRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"` // RFC3339
}

// handleListServiceTokens returns the services the caller has stored a
// token for. Token values are never returned.
func (s *Server) handleListServiceTokens(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	services, err := s.tokens.ListServices(r.Context(), claims.Subject)
	if err != nil {
		s.logger.Error("list service tokens failed", "user_id", claims.Subject, "error", err)
		writeInternalError(w, "failed to list service tokens")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"services": services,
		"count":    len(services),
	})
}

// handlePutServiceToken stores or replaces the caller's token for a service.
func (s *Server) handlePutServiceToken(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	service := chi.URLParam(r, "service")

	var req putServiceTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.AccessToken == "" {
		writeBadRequest(w, "access_token is required")
		return
	}

	token := &auth.ServiceToken{
		UserID:       claims.Subject,
		Service:      service,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	}
	if req.ExpiresAt != "" {
		expires, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			writeBadRequest(w, "expires_at must be RFC3339")
			return
		}
		token.ExpiresAt = &expires
	}

	if err := s.tokens.Upsert(r.Context(), token); err != nil {
		s.logger.Error("store service token failed",
			"user_id", claims.Subject, "service", service, "error", err)
		writeInternalError(w, "failed to store service token")
		return
	}

	s.logger.Info("service token stored", "user_id", claims.Subject, "service", service)
	writeJSON(w, http.StatusOK, map[string]any{
		"service": service,
		"stored":  true,
	})
}

// handleDeleteServiceToken removes the caller's token for a service.
func (s *Server) handleDeleteServiceToken(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	service := chi.URLParam(r, "service")

	if err := s.tokens.Delete(r.Context(), claims.Subject, service); err != nil {
		if errors.Is(err, auth.ErrServiceTokenNotFound) {
			writeNotFound(w, "no token stored for service")
			return
		}
		s.logger.Error("delete service token failed",
			"user_id", claims.Subject, "service", service, "error", err)
		writeInternalError(w, "failed to delete service token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service": service,
		"deleted": true,
	})
}
