package api

import (
	"net/http"
	"testing"

	"github.com/area-labs/area-core/internal/auth"
)

func TestProcess(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("root", auth.RoleAdmin)

	rec := env.request(http.MethodPost, "/api/v1/process?trigger=test/value_changed", env.token(admin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	calls := env.runner.called()
	if len(calls) != 1 || calls[0] != "test/value_changed" {
		t.Errorf("runner calls = %v, want [test/value_changed]", calls)
	}
}

func TestProcess_SeparateParams(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("root", auth.RoleAdmin)

	rec := env.request(http.MethodPost, "/api/v1/process?service=test&action=value_changed", env.token(admin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if calls := env.runner.called(); len(calls) != 1 || calls[0] != "test/value_changed" {
		t.Errorf("runner calls = %v", calls)
	}
}

func TestProcess_BadTrigger(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("root", auth.RoleAdmin)
	token := env.token(admin)

	for _, query := range []string{"", "?trigger=no-slash", "?trigger=/action", "?service=only"} {
		rec := env.request(http.MethodPost, "/api/v1/process"+query, token, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %q status = %d, want 400", query, rec.Code)
		}
	}
	if len(env.runner.called()) != 0 {
		t.Error("runner should not run for malformed triggers")
	}
}
