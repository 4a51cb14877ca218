package api

import (
	"net/http"
	"testing"

	"github.com/area-labs/area-core/internal/auth"
	"github.com/area-labs/area-core/internal/plugin"
)

func TestListServices(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", auth.RoleUser)

	rec := env.request(http.MethodGet, "/api/v1/services", env.token(user), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Services []plugin.ServiceDescriptor `json:"services"`
		Count    int                        `json:"count"`
	}
	decode(t, rec, &body)

	if body.Count != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}

	svc := body.Services[0]
	if svc.Name != "test" || svc.Colour != "#123456" {
		t.Errorf("service = %+v", svc)
	}
	if len(svc.Actions) != 1 || svc.Actions[0].Name != "value_changed" {
		t.Fatalf("actions = %+v", svc.Actions)
	}
	if svc.Actions[0].Cron != "*/5 * * * *" {
		t.Errorf("cron = %q", svc.Actions[0].Cron)
	}
	if len(svc.Actions[0].Schema) != 1 || svc.Actions[0].Schema[0].Name != "url" {
		t.Errorf("schema = %+v", svc.Actions[0].Schema)
	}
	if len(svc.Reactions) != 2 {
		t.Errorf("reactions = %+v", svc.Reactions)
	}
}
