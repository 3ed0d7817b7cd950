package berth

import (
	"fmt"
	"sort"
)

// ServiceDefinition describes one imported resource: how to obtain its
// instance plus its metadata. Definitions are registered under a name derived
// from the declaring field's key, which makes names unique and stable across
// runs and across generated-code reconstruction.
type ServiceDefinition struct {
	// Name is the registry key, "<declaring type>.<field name>".
	Name string

	// Field is the identity of the declaring field.
	Field MemberKey

	// Role controls visibility during ordinary component enumeration.
	Role Role

	// Image is the resource's container image reference, when the resource
	// exposes one.
	Image string

	// Markers are the berth annotations carried by the declaring field.
	Markers []Marker

	// Factory returns the resource instance. It is lazy with respect to
	// resource activation: obtaining the instance never starts it.
	Factory func() (Startable, error)
}

// ComponentRegistry is the component-registry collaborator the import
// pipeline writes into. Registration happens during a single-threaded setup
// phase; implementations need no internal locking for that path.
type ComponentRegistry interface {
	// RegisterDefinition stores a definition under def.Name. Registering an
	// equal name twice replaces the previous entry.
	RegisterDefinition(def *ServiceDefinition) error

	// Lookup retrieves a definition by name.
	Lookup(name string) (*ServiceDefinition, bool)

	// Definitions enumerates registered definitions in name order.
	// Infrastructure-role definitions are skipped unless includeInfrastructure
	// is set.
	Definitions(includeInfrastructure bool) []*ServiceDefinition

	// Resolve looks up a definition and invokes its factory.
	Resolve(name string) (Startable, error)
}

// InMemoryComponentRegistry implements ComponentRegistry using a map.
type InMemoryComponentRegistry struct {
	definitions map[string]*ServiceDefinition
}

// NewInMemoryComponentRegistry creates an empty in-memory registry.
func NewInMemoryComponentRegistry() *InMemoryComponentRegistry {
	return &InMemoryComponentRegistry{
		definitions: make(map[string]*ServiceDefinition),
	}
}

// RegisterDefinition stores a definition under its name.
func (r *InMemoryComponentRegistry) RegisterDefinition(def *ServiceDefinition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("berth: service definition must have a name")
	}
	r.definitions[def.Name] = def
	return nil
}

// Lookup retrieves a definition by name.
func (r *InMemoryComponentRegistry) Lookup(name string) (*ServiceDefinition, bool) {
	def, ok := r.definitions[name]
	return def, ok
}

// Definitions enumerates registered definitions in name order.
func (r *InMemoryComponentRegistry) Definitions(includeInfrastructure bool) []*ServiceDefinition {
	out := make([]*ServiceDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		if def.Role == RoleInfrastructure && !includeInfrastructure {
			continue
		}
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve looks up a definition and invokes its factory.
func (r *InMemoryComponentRegistry) Resolve(name string) (Startable, error) {
	def, ok := r.definitions[name]
	if !ok {
		return nil, fmt.Errorf("berth: no service definition named %q", name)
	}
	return def.Factory()
}
