package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/area-labs/area-core/internal/area"
	"github.com/area-labs/area-core/internal/auth"
	"github.com/area-labs/area-core/internal/plugin"
)

// ─── Request/Response Types ────────────────────────────────────────

type createAreaRequest struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Enabled     *bool                    `json:"enabled,omitempty"`
	Action      actionBindingRequest     `json:"action"`
	Reactions   []reactionBindingRequest `json:"reactions"`
}

type actionBindingRequest struct {
	Service string         `json:"service"`
	Action  string         `json:"action"`
	Config  map[string]any `json:"config"`
}

type reactionBindingRequest struct {
	Service    string             `json:"service"`
	Reaction   string             `json:"reaction"`
	Config     map[string]any     `json:"config"`
	OrderIndex int                `json:"order_index"`
	Delay      int                `json:"delay"`
	Conditions []conditionRequest `json:"conditions,omitempty"`
}

type conditionRequest struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// ─── Handlers ──────────────────────────────────────────────────────

// handleListAreas returns the caller's areas.
func (s *Server) handleListAreas(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	areas, err := s.areas.ListByUser(r.Context(), claims.Subject)
	if err != nil {
		s.logger.Error("list areas failed", "user_id", claims.Subject, "error", err)
		writeInternalError(w, "failed to list areas")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"areas": areas,
		"count": len(areas),
	})
}

// handleListPublicAreas returns the shared template catalogue.
func (s *Server) handleListPublicAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.areas.ListPublic(r.Context())
	if err != nil {
		s.logger.Error("list public areas failed", "error", err)
		writeInternalError(w, "failed to list public areas")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"areas": areas,
		"count": len(areas),
	})
}

// handleCreateArea creates an area from one trigger binding and one or more
// ordered reaction bindings, validating identities and config against the
// service registry.
func (s *Server) handleCreateArea(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req createAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	a := buildArea(claims.Subject, &req)

	if err := area.Validate(a); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	// Identity + config schema checks against the registry
	act, err := s.registry.ResolveAction(a.Action.Service, a.Action.Action)
	if err != nil {
		writeBadRequest(w, fmt.Sprintf("unknown action %s/%s", a.Action.Service, a.Action.Action))
		return
	}
	if err := plugin.ValidateConfig(act.Schema(), a.Action.Config); err != nil {
		writeBadRequest(w, fmt.Sprintf("action config: %v", err))
		return
	}
	for i := range a.Reactions {
		rb := &a.Reactions[i]
		re, err := s.registry.ResolveReaction(rb.Service, rb.Reaction)
		if err != nil {
			writeBadRequest(w, fmt.Sprintf("unknown reaction %s/%s", rb.Service, rb.Reaction))
			return
		}
		if err := plugin.ValidateConfig(re.Schema(), rb.Config); err != nil {
			writeBadRequest(w, fmt.Sprintf("reaction %d config: %v", i, err))
			return
		}
	}

	if err := s.areas.Create(r.Context(), a); err != nil {
		s.logger.Error("create area failed", "user_id", claims.Subject, "error", err)
		writeInternalError(w, "failed to create area")
		return
	}

	if a.Enabled {
		s.ensureTriggerJob(a.Action.Service, a.Action.Action, act.Cron())
	}

	s.logger.Info("area created",
		"area_id", a.ID, "user_id", claims.Subject,
		"trigger", a.Action.TriggerRef(), "reactions", len(a.Reactions))

	writeJSON(w, http.StatusCreated, a)
}

// handleGetArea returns one area. Owners and admins see any of their areas;
// public templates are visible to everyone.
func (s *Server) handleGetArea(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadVisibleArea(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleDeleteArea removes an area and retires its trigger's job when no
// other enabled binding references it.
func (s *Server) handleDeleteArea(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadOwnedArea(w, r)
	if !ok {
		return
	}

	if err := s.areas.Delete(r.Context(), a.ID); err != nil {
		s.logger.Error("delete area failed", "area_id", a.ID, "error", err)
		writeInternalError(w, "failed to delete area")
		return
	}

	s.releaseTriggerJob(r, a)
	s.logger.Info("area deleted", "area_id", a.ID, "user_id", a.UserID)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": a.ID})
}

// handleEnableArea enables an area and ensures its trigger has a cron job.
func (s *Server) handleEnableArea(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadOwnedArea(w, r)
	if !ok {
		return
	}
	if a.IsPublic {
		writeConflict(w, "public templates cannot be enabled")
		return
	}

	if err := s.areas.SetEnabled(r.Context(), a.ID, true); err != nil {
		s.logger.Error("enable area failed", "area_id", a.ID, "error", err)
		writeInternalError(w, "failed to enable area")
		return
	}

	if a.Action != nil {
		if act, err := s.registry.ResolveAction(a.Action.Service, a.Action.Action); err == nil {
			s.ensureTriggerJob(a.Action.Service, a.Action.Action, act.Cron())
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": a.ID, "enabled": true})
}

// handleDisableArea disables an area and retires its trigger's job when no
// other enabled binding references it.
func (s *Server) handleDisableArea(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadOwnedArea(w, r)
	if !ok {
		return
	}

	if err := s.areas.SetEnabled(r.Context(), a.ID, false); err != nil {
		s.logger.Error("disable area failed", "area_id", a.ID, "error", err)
		writeInternalError(w, "failed to disable area")
		return
	}

	s.releaseTriggerJob(r, a)
	writeJSON(w, http.StatusOK, map[string]any{"id": a.ID, "enabled": false})
}

// handlePublishArea marks an area as a shared template. Published areas
// leave the evaluation set, so the trigger's job is released too.
func (s *Server) handlePublishArea(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadOwnedArea(w, r)
	if !ok {
		return
	}

	if err := s.areas.SetPublic(r.Context(), a.ID, true); err != nil {
		s.logger.Error("publish area failed", "area_id", a.ID, "error", err)
		writeInternalError(w, "failed to publish area")
		return
	}

	s.releaseTriggerJob(r, a)
	s.logger.Info("area published", "area_id", a.ID, "user_id", a.UserID)
	writeJSON(w, http.StatusOK, map[string]any{"id": a.ID, "is_public": true})
}

// handleCopyArea clones a public template into the caller's account. The
// copy starts disabled, private, and with no trigger snapshot.
func (s *Server) handleCopyArea(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	src, err := s.areas.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, area.ErrNotFound) {
			writeNotFound(w, "area not found")
			return
		}
		s.logger.Error("load area failed", "error", err)
		writeInternalError(w, "failed to load area")
		return
	}
	if !src.IsPublic && src.UserID != claims.Subject {
		writeNotFound(w, "area not found")
		return
	}

	clone := cloneArea(src, claims.Subject)
	if err := s.areas.Create(r.Context(), clone); err != nil {
		s.logger.Error("copy area failed", "source", src.ID, "error", err)
		writeInternalError(w, "failed to copy area")
		return
	}

	s.logger.Info("area copied", "source", src.ID, "area_id", clone.ID, "user_id", claims.Subject)
	writeJSON(w, http.StatusCreated, clone)
}

// ─── Helpers ───────────────────────────────────────────────────────

// buildArea assembles a persistable area from a create request, generating
// identifiers for the area and each binding.
func buildArea(userID string, req *createAreaRequest) *area.Area {
	a := &area.Area{
		ID:          "area-" + uuid.NewString()[:8],
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Enabled:     true,
	}
	if req.Enabled != nil {
		a.Enabled = *req.Enabled
	}

	a.Action = &area.ActionBinding{
		ID:      "act-" + uuid.NewString()[:8],
		AreaID:  a.ID,
		Service: req.Action.Service,
		Action:  req.Action.Action,
		Config:  req.Action.Config,
	}

	for _, rr := range req.Reactions {
		rb := area.ReactionBinding{
			ID:         "rct-" + uuid.NewString()[:8],
			AreaID:     a.ID,
			Service:    rr.Service,
			Reaction:   rr.Reaction,
			Config:     rr.Config,
			OrderIndex: rr.OrderIndex,
			Delay:      rr.Delay,
		}
		for _, cr := range rr.Conditions {
			rb.Conditions = append(rb.Conditions, area.Condition{
				ID:             "cond-" + uuid.NewString()[:8],
				AreaReactionID: rb.ID,
				Field:          cr.Field,
				Operator:       cr.Operator,
				Value:          cr.Value,
			})
		}
		a.Reactions = append(a.Reactions, rb)
	}

	return a
}

// cloneArea copies an area's bindings under fresh identifiers for a new
// owner. The clone never inherits the source's last_state snapshot.
func cloneArea(src *area.Area, userID string) *area.Area {
	clone := &area.Area{
		ID:          "area-" + uuid.NewString()[:8],
		UserID:      userID,
		Name:        src.Name,
		Description: src.Description,
		Enabled:     false,
	}

	if src.Action != nil {
		clone.Action = &area.ActionBinding{
			ID:      "act-" + uuid.NewString()[:8],
			AreaID:  clone.ID,
			Service: src.Action.Service,
			Action:  src.Action.Action,
			Config:  src.Action.Config,
		}
	}

	for _, rb := range src.Reactions {
		crb := area.ReactionBinding{
			ID:         "rct-" + uuid.NewString()[:8],
			AreaID:     clone.ID,
			Service:    rb.Service,
			Reaction:   rb.Reaction,
			Config:     rb.Config,
			OrderIndex: rb.OrderIndex,
			Delay:      rb.Delay,
		}
		for _, c := range rb.Conditions {
			crb.Conditions = append(crb.Conditions, area.Condition{
				ID:             "cond-" + uuid.NewString()[:8],
				AreaReactionID: crb.ID,
				Field:          c.Field,
				Operator:       c.Operator,
				Value:          c.Value,
			})
		}
		clone.Reactions = append(clone.Reactions, crb)
	}

	return clone
}

// loadOwnedArea loads the {id} area and enforces ownership. Admins may
// operate on any area. Writes the error response itself on failure.
func (s *Server) loadOwnedArea(w http.ResponseWriter, r *http.Request) (*area.Area, bool) {
	claims := claimsFromContext(r.Context())

	a, err := s.areas.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, area.ErrNotFound) {
			writeNotFound(w, "area not found")
			return nil, false
		}
		s.logger.Error("load area failed", "error", err)
		writeInternalError(w, "failed to load area")
		return nil, false
	}

	// Non-owners get the same response as a missing area
	if a.UserID != claims.Subject && claims.Role != auth.RoleAdmin {
		writeNotFound(w, "area not found")
		return nil, false
	}
	return a, true
}

// loadVisibleArea is loadOwnedArea relaxed to also admit public templates.
func (s *Server) loadVisibleArea(w http.ResponseWriter, r *http.Request) (*area.Area, bool) {
	claims := claimsFromContext(r.Context())

	a, err := s.areas.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, area.ErrNotFound) {
			writeNotFound(w, "area not found")
			return nil, false
		}
		s.logger.Error("load area failed", "error", err)
		writeInternalError(w, "failed to load area")
		return nil, false
	}

	if !a.IsPublic && a.UserID != claims.Subject && claims.Role != auth.RoleAdmin {
		writeNotFound(w, "area not found")
		return nil, false
	}
	return a, true
}

// ensureTriggerJob registers a cron job for the trigger if the scheduler is
// wired. Scheduling failures are logged, not surfaced: the area mutation
// already committed.
func (s *Server) ensureTriggerJob(service, action, cronSpec string) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.EnsureJob(service, action, cronSpec); err != nil {
		s.logger.Error("scheduling trigger failed",
			"trigger", area.TriggerRef(service, action), "error", err)
	}
}

// releaseTriggerJob removes the trigger's cron job when the area's mutation
// left no enabled, non-public binding referencing it.
func (s *Server) releaseTriggerJob(r *http.Request, a *area.Area) {
	if s.jobs == nil || a.Action == nil {
		return
	}

	bindings, err := s.areas.ListTriggerBindings(r.Context(), a.Action.Service, a.Action.Action)
	if err != nil {
		s.logger.Warn("checking trigger bindings failed",
			"trigger", a.Action.TriggerRef(), "error", err)
		return
	}
	if len(bindings) == 0 {
		s.jobs.RemoveJob(a.Action.Service, a.Action.Action)
	}
}
