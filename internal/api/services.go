package api

import (
	"net/http"
)

// handleListServices returns the catalogue of registered services with
// their action and reaction descriptors, including config schemas and
// default cron intervals.
func (s *Server) handleListServices(w http.ResponseWriter, _ *http.Request) {
	services := s.registry.Describe()

	writeJSON(w, http.StatusOK, map[string]any{
		"services": services,
		"count":    len(services),
	})
}
