package plugin

import (
	"context"
	"errors"
	"testing"
)

// ─── Test Fakes ─────────────────────────────────────────────────────────────

type fakeAction struct {
	name string
	cron string
}

func (a *fakeAction) Name() string          { return a.name }
func (a *fakeAction) Description() string   { return "fake action" }
func (a *fakeAction) Schema() []ConfigField { return nil }
func (a *fakeAction) Cron() string          { return a.cron }
func (a *fakeAction) Check(context.Context, CheckRequest) (CheckResult, error) {
	return CheckResult{}, nil
}

type fakeReaction struct {
	name string
}

func (r *fakeReaction) Name() string          { return r.name }
func (r *fakeReaction) Description() string   { return "fake reaction" }
func (r *fakeReaction) Schema() []ConfigField { return nil }
func (r *fakeReaction) Execute(context.Context, ExecuteRequest) error {
	return nil
}

type fakeService struct {
	name      string
	actions   []Action
	reactions []Reaction
}

func (s *fakeService) Name() string         { return s.name }
func (s *fakeService) Description() string  { return "fake service" }
func (s *fakeService) Category() string     { return "test" }
func (s *fakeService) Colour() string       { return "#336699" }
func (s *fakeService) RequiresAuth() bool   { return false }
func (s *fakeService) Actions() []Action    { return s.actions }
func (s *fakeService) Reactions() []Reaction { return s.reactions }

func testService(name string) *fakeService {
	return &fakeService{
		name: name,
		actions: []Action{
			&fakeAction{name: "tick", cron: "* * * * *"},
		},
		reactions: []Reaction{
			&fakeReaction{name: "notify"},
		},
	}
}

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestRegistry_RegisterAndResolve(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(testService("clock")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	a, err := reg.ResolveAction("clock", "tick")
	if err != nil {
		t.Fatalf("ResolveAction() error = %v", err)
	}
	if a.Name() != "tick" {
		t.Errorf("action name = %q, want tick", a.Name())
	}

	r, err := reg.ResolveReaction("clock", "notify")
	if err != nil {
		t.Fatalf("ResolveReaction() error = %v", err)
	}
	if r.Name() != "notify" {
		t.Errorf("reaction name = %q, want notify", r.Name())
	}
}

func TestRegistry_DuplicateService(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(testService("clock")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := reg.Register(testService("clock"))
	if !errors.Is(err, ErrServiceExists) {
		t.Errorf("duplicate Register() error = %v, want ErrServiceExists", err)
	}
}

func TestRegistry_DuplicateActionName(t *testing.T) {
	reg := NewRegistry()

	svc := &fakeService{
		name: "clock",
		actions: []Action{
			&fakeAction{name: "tick"},
			&fakeAction{name: "tick"},
		},
	}

	err := reg.Register(svc)
	if !errors.Is(err, ErrDuplicateAction) {
		t.Errorf("Register() error = %v, want ErrDuplicateAction", err)
	}

	// Failed registration must leave the registry empty
	if _, err := reg.Service("clock"); !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("Service() after failed Register error = %v, want ErrServiceNotFound", err)
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(testService("clock")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name    string
		resolve func() error
		wantErr error
	}{
		{
			name: "unknown service for action",
			resolve: func() error {
				_, err := reg.ResolveAction("weather", "tick")
				return err
			},
			wantErr: ErrServiceNotFound,
		},
		{
			name: "unknown action on known service",
			resolve: func() error {
				_, err := reg.ResolveAction("clock", "bong")
				return err
			},
			wantErr: ErrActionNotFound,
		},
		{
			name: "unknown reaction on known service",
			resolve: func() error {
				_, err := reg.ResolveReaction("clock", "ring")
				return err
			},
			wantErr: ErrReactionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.resolve(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_ServicesSorted(t *testing.T) {
	reg := NewRegistry()

	for _, name := range []string{"weather", "clock", "feed"} {
		if err := reg.Register(testService(name)); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}

	services := reg.Services()
	want := []string{"clock", "feed", "weather"}
	if len(services) != len(want) {
		t.Fatalf("len(Services()) = %d, want %d", len(services), len(want))
	}
	for i, svc := range services {
		if svc.Name() != want[i] {
			t.Errorf("services[%d] = %q, want %q", i, svc.Name(), want[i])
		}
	}
}

func TestRegistry_Describe(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(testService("clock")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	descriptors := reg.Describe()
	if len(descriptors) != 1 {
		t.Fatalf("len(Describe()) = %d, want 1", len(descriptors))
	}

	d := descriptors[0]
	if d.Name != "clock" {
		t.Errorf("descriptor name = %q, want clock", d.Name)
	}
	if len(d.Actions) != 1 || d.Actions[0].Name != "tick" {
		t.Errorf("descriptor actions = %+v, want one entry named tick", d.Actions)
	}
	if d.Actions[0].Cron != "* * * * *" {
		t.Errorf("descriptor action cron = %q", d.Actions[0].Cron)
	}
	if len(d.Reactions) != 1 || d.Reactions[0].Name != "notify" {
		t.Errorf("descriptor reactions = %+v, want one entry named notify", d.Reactions)
	}
}
