package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds every registered service and indexes their actions and
// reactions by composite identity ("service/name").
//
// Registration happens explicitly at boot; after that the registry is
// read-only and all lookups are lock-free in practice (the mutex guards
// against misuse, not expected contention).
type Registry struct {
	mu        sync.RWMutex
	services  map[string]Service
	actions   map[string]Action
	reactions map[string]Reaction
	logger    Logger
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		services:  make(map[string]Service),
		actions:   make(map[string]Action),
		reactions: make(map[string]Reaction),
		logger:    NoopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register adds a service and indexes its actions and reactions.
// Duplicate service or member names are rejected: a silent overwrite here
// would re-route every persisted binding pointing at the old entry.
func (r *Registry) Register(svc Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := svc.Name()
	if _, exists := r.services[name]; exists {
		return fmt.Errorf("%w: %s", ErrServiceExists, name)
	}

	// Stage member indexes so a duplicate leaves the registry untouched
	staged := make(map[string]any)
	for _, a := range svc.Actions() {
		key := name + "/" + a.Name()
		if _, dup := staged[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateAction, key)
		}
		staged[key] = a
	}
	for _, re := range svc.Reactions() {
		key := name + "/" + re.Name()
		if _, dup := staged[key]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateReaction, key)
		}
		staged[key] = re
	}

	r.services[name] = svc
	for _, a := range svc.Actions() {
		r.actions[name+"/"+a.Name()] = a
	}
	for _, re := range svc.Reactions() {
		r.reactions[name+"/"+re.Name()] = re
	}

	r.logger.Info("service registered",
		"service", name,
		"actions", len(svc.Actions()),
		"reactions", len(svc.Reactions()),
	)
	return nil
}

// ResolveAction looks up an action by (service, name) identity.
func (r *Registry) ResolveAction(service, name string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.services[service]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, service)
	}
	a, ok := r.actions[service+"/"+name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrActionNotFound, service, name)
	}
	return a, nil
}

// ResolveReaction looks up a reaction by (service, name) identity.
func (r *Registry) ResolveReaction(service, name string) (Reaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.services[service]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, service)
	}
	re, ok := r.reactions[service+"/"+name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrReactionNotFound, service, name)
	}
	return re, nil
}

// Service looks up a registered service by name.
func (r *Registry) Service(name string) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return svc, nil
}

// Services returns all registered services sorted by name.
func (r *Registry) Services() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	services := make([]Service, 0, len(r.services))
	for _, svc := range r.services {
		services = append(services, svc)
	}
	sort.Slice(services, func(i, j int) bool {
		return services[i].Name() < services[j].Name()
	})
	return services
}

// Describe builds the catalogue view of every registered service.
func (r *Registry) Describe() []ServiceDescriptor {
	services := r.Services()

	descriptors := make([]ServiceDescriptor, 0, len(services))
	for _, svc := range services {
		d := ServiceDescriptor{
			Name:         svc.Name(),
			Description:  svc.Description(),
			Category:     svc.Category(),
			Colour:       svc.Colour(),
			RequiresAuth: svc.RequiresAuth(),
		}
		for _, a := range svc.Actions() {
			d.Actions = append(d.Actions, MemberDescriptor{
				Name:        a.Name(),
				Description: a.Description(),
				Schema:      a.Schema(),
				Cron:        a.Cron(),
			})
		}
		for _, re := range svc.Reactions() {
			d.Reactions = append(d.Reactions, MemberDescriptor{
				Name:        re.Name(),
				Description: re.Description(),
				Schema:      re.Schema(),
			})
		}
		descriptors = append(descriptors, d)
	}
	return descriptors
}

// ServiceDescriptor is the catalogue representation of a service.
type ServiceDescriptor struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Category     string             `json:"category"`
	Colour       string             `json:"colour"`
	RequiresAuth bool               `json:"requires_auth"`
	Actions      []MemberDescriptor `json:"actions"`
	Reactions    []MemberDescriptor `json:"reactions"`
}

// MemberDescriptor describes one action or reaction in the catalogue.
type MemberDescriptor struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Schema      []ConfigField `json:"config_schema"`
	Cron        string        `json:"cron,omitempty"`
}
