package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/area-labs/area-core/internal/area"
	"github.com/area-labs/area-core/internal/auth"
	"github.com/area-labs/area-core/internal/infrastructure/config"
	"github.com/area-labs/area-core/internal/infrastructure/logging"
	"github.com/area-labs/area-core/internal/plugin"
)

const testJWTSecret = "test-secret-key-for-jwt-signing-minimum"

// ─── Plugin fakes ──────────────────────────────────────────────────

type fakeAction struct {
	name   string
	cron   string
	schema []plugin.ConfigField
}

func (a *fakeAction) Name() string                { return a.name }
func (a *fakeAction) Description() string         { return "test action" }
func (a *fakeAction) Schema() []plugin.ConfigField { return a.schema }
func (a *fakeAction) Cron() string                { return a.cron }
func (a *fakeAction) Check(context.Context, plugin.CheckRequest) (plugin.CheckResult, error) {
	return plugin.CheckResult{}, nil
}

type fakeReaction struct {
	name   string
	schema []plugin.ConfigField
}

func (r *fakeReaction) Name() string                { return r.name }
func (r *fakeReaction) Description() string         { return "test reaction" }
func (r *fakeReaction) Schema() []plugin.ConfigField { return r.schema }
func (r *fakeReaction) Execute(context.Context, plugin.ExecuteRequest) error {
	return nil
}

type fakeService struct {
	name      string
	actions   []plugin.Action
	reactions []plugin.Reaction
}

func (s *fakeService) Name() string                { return s.name }
func (s *fakeService) Description() string         { return "test service" }
func (s *fakeService) Category() string            { return "testing" }
func (s *fakeService) Colour() string              { return "#123456" }
func (s *fakeService) RequiresAuth() bool          { return false }
func (s *fakeService) Actions() []plugin.Action    { return s.actions }
func (s *fakeService) Reactions() []plugin.Reaction { return s.reactions }

// ─── Scheduler and runner fakes ────────────────────────────────────

type fakeJobs struct {
	mu      sync.Mutex
	ensured map[string]string // ref -> cron
	removed []string
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{ensured: make(map[string]string)}
}

func (j *fakeJobs) EnsureJob(service, action, cronSpec string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ensured[service+"/"+action] = cronSpec
	return nil
}

func (j *fakeJobs) RemoveJob(service, action string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	ref := service + "/" + action
	delete(j.ensured, ref)
	j.removed = append(j.removed, ref)
}

func (j *fakeJobs) JobCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.ensured)
}

func (j *fakeJobs) cron(ref string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c, ok := j.ensured[ref]
	return c, ok
}

func (j *fakeJobs) removedRefs() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.removed...)
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
}

func (r *fakeRunner) Evaluate(_ context.Context, service, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, service+"/"+action)
}

func (r *fakeRunner) called() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// ─── Test environment ──────────────────────────────────────────────

type testEnv struct {
	t      *testing.T
	server *Server
	router http.Handler
	db     *sql.DB
	users  auth.UserRepository
	areas  area.Repository
	jobs   *fakeJobs
	runner *fakeRunner
}

// apiTestDB creates a temporary SQLite database with the full schema the
// API touches: users, service tokens, areas, and bindings.
func apiTestDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "api-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			email TEXT,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE user_service_tokens (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			service TEXT NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT,
			expires_at TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			UNIQUE (user_id, service),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE areas (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			enabled INTEGER NOT NULL DEFAULT 1,
			is_public INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);

		CREATE TABLE area_actions (
			id TEXT PRIMARY KEY,
			area_id TEXT NOT NULL UNIQUE REFERENCES areas(id) ON DELETE CASCADE,
			service TEXT NOT NULL,
			action TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			last_state TEXT
		);

		CREATE TABLE area_reactions (
			id TEXT PRIMARY KEY,
			area_id TEXT NOT NULL REFERENCES areas(id) ON DELETE CASCADE,
			service TEXT NOT NULL,
			reaction TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			order_index INTEGER NOT NULL DEFAULT 0,
			delay INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE reaction_conditions (
			id TEXT PRIMARY KEY,
			area_reaction_id TEXT NOT NULL REFERENCES area_reactions(id) ON DELETE CASCADE,
			field TEXT NOT NULL,
			operator TEXT NOT NULL,
			value TEXT NOT NULL
		);`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

// newTestEnv builds a server over a real SQLite store with one registered
// test service ("test": action value_changed, reactions record + notify).
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := apiTestDB(t)
	registry := plugin.NewRegistry()
	svc := &fakeService{
		name: "test",
		actions: []plugin.Action{
			&fakeAction{
				name: "value_changed",
				cron: "*/5 * * * *",
				schema: []plugin.ConfigField{
					{Name: "url", Type: plugin.FieldString, Required: true},
				},
			},
		},
		reactions: []plugin.Reaction{
			&fakeReaction{name: "record"},
			&fakeReaction{
				name: "notify",
				schema: []plugin.ConfigField{
					{Name: "target", Type: plugin.FieldString, Required: true},
				},
			},
		},
	}
	if err := registry.Register(svc); err != nil {
		t.Fatalf("registering test service: %v", err)
	}

	env := &testEnv{
		t:      t,
		db:     db,
		users:  auth.NewUserRepository(db),
		areas:  area.NewSQLiteRepository(db),
		jobs:   newFakeJobs(),
		runner: &fakeRunner{},
	}

	server, err := New(Deps{
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: testJWTSecret, AccessTokenTTL: 15},
		},
		Logger:   logging.Default(),
		DB:       db,
		Areas:    env.areas,
		Users:    env.users,
		Tokens:   auth.NewServiceTokenRepository(db),
		Registry: registry,
		Runner:   env.runner,
		Jobs:     env.jobs,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	env.server = server
	env.router = server.buildRouter()
	return env
}

// createUser inserts a user with password "test-password" and returns it.
func (e *testEnv) createUser(username string, role auth.Role) *auth.User {
	e.t.Helper()

	hash, err := auth.HashPassword("test-password")
	if err != nil {
		e.t.Fatalf("hashing password: %v", err)
	}
	user := &auth.User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := e.users.Create(context.Background(), user); err != nil {
		e.t.Fatalf("creating user %s: %v", username, err)
	}
	return user
}

// token issues an access token for the user.
func (e *testEnv) token(user *auth.User) string {
	e.t.Helper()

	token, err := auth.GenerateAccessToken(user, testJWTSecret, 15)
	if err != nil {
		e.t.Fatalf("generating token: %v", err)
	}
	return token
}

// request performs an HTTP request against the router. A non-empty token is
// sent as a Bearer credential; a non-nil body is JSON-encoded.
func (e *testEnv) request(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshalling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a JSON response body.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

// ─── Server-level tests ────────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	decode(t, rec, &body)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/areas"},
		{http.MethodGet, "/api/v1/services"},
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodPost, "/api/v1/process?trigger=test/value_changed"},
	}
	for _, p := range paths {
		rec := env.request(p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", p.method, p.path, rec.Code)
		}
	}
}

func TestAuthMiddleware_RejectsGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodGet, "/api/v1/areas", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var e Error
	decode(t, rec, &e)
	if e.Code != ErrCodeUnauthorized {
		t.Errorf("error code = %q, want %q", e.Code, ErrCodeUnauthorized)
	}
}

func TestRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", auth.RoleUser)

	rec := env.request(http.MethodPost, "/api/v1/process?trigger=test/value_changed", env.token(user), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if len(env.runner.called()) != 0 {
		t.Error("runner should not be invoked for non-admin callers")
	}
}
