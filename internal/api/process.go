package api

import (
	"net/http"
	"strings"

	"github.com/area-labs/area-core/internal/area"
)

// handleProcess runs one evaluation pass for a trigger identity. The
// scheduler calls the evaluator in-process; this endpoint exists for
// external job runners and operational poking. Admin only.
//
// The trigger is named either by ?trigger=service/action or by separate
// ?service= and ?action= parameters.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		writeInternalError(w, "trigger runner not configured")
		return
	}

	service := r.URL.Query().Get("service")
	action := r.URL.Query().Get("action")
	if ref := r.URL.Query().Get("trigger"); ref != "" {
		parts := strings.SplitN(ref, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			writeBadRequest(w, "trigger must be service/action")
			return
		}
		service, action = parts[0], parts[1]
	}
	if service == "" || action == "" {
		writeBadRequest(w, "trigger identity is required")
		return
	}

	// Synchronous: the response confirms the pass completed, matching the
	// scheduler's own call path. Check/Execute timeouts bound the duration.
	s.runner.Evaluate(r.Context(), service, action)

	writeJSON(w, http.StatusOK, map[string]any{
		"trigger":   area.TriggerRef(service, action),
		"processed": true,
	})
}
