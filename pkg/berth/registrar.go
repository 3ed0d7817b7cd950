package berth

import (
	"context"
	"reflect"

	"github.com/hashicorp/go-hclog"
)

// Registrar wires a declaration's property-source methods to the real
// configuration-value registry while guaranteeing that every resource
// reachable from the same declaration is started before any registered value
// is produced. Exactly-once start semantics are delegated to the resource's
// own idempotent Start; the registrar adds no locking of its own, so wrapped
// suppliers are safe under at-least-once, possibly concurrent invocation.
type Registrar struct {
	methods   *MethodSet
	resources []Startable
	log       hclog.Logger
}

// NewRegistrar builds a registrar from the method descriptors to invoke and
// the field descriptors whose resources must be running before any supplied
// value resolves. Resolving the field descriptors is this call's only side
// effect; resources are not started.
func NewRegistrar(methods *MethodSet, fields *FieldSet, opts ...Option) (*Registrar, error) {
	o := newOptions(opts)
	resources, err := resolveResources(fields)
	if err != nil {
		return nil, err
	}
	return &Registrar{methods: methods, resources: resources, log: o.log}, nil
}

// resolveResources collects the distinct resource instances behind a field
// set. Fields of two declarations may point at the same process-wide
// instance; it is held once.
func resolveResources(fields *FieldSet) ([]Startable, error) {
	var resources []Startable
	seen := make(map[any]struct{})
	for _, desc := range fields.All() {
		resource, err := desc.Resource()
		if err != nil {
			return nil, err
		}
		if reflect.TypeOf(resource).Comparable() {
			if _, dup := seen[resource]; dup {
				continue
			}
			seen[resource] = struct{}{}
		}
		resources = append(resources, resource)
	}
	return resources, nil
}

// Apply invokes every held property-source method, in deterministic order,
// with a derived registry whose Add wraps each supplier to start the held
// resources first. A method failure propagates unchanged; the declaration is
// malformed and setup must abort.
func (r *Registrar) Apply(registry PropertyRegistry) error {
	derived := &resourceBackedRegistry{
		delegate:  registry,
		resources: r.resources,
		log:       r.log,
	}
	for _, method := range r.methods.All() {
		r.log.Debug("applying property-source method", "method", method.String())
		if err := method.Invoke(derived); err != nil {
			return err
		}
	}
	return nil
}

// ResourceCount returns how many distinct resources the registrar holds.
func (r *Registrar) ResourceCount() int {
	return len(r.resources)
}

// resourceBackedRegistry derives a PropertyRegistry that guarantees all held
// resources are running before any supplier's value is produced.
type resourceBackedRegistry struct {
	delegate  PropertyRegistry
	resources []Startable
	log       hclog.Logger
}

func (r *resourceBackedRegistry) Add(name string, supplier ValueSupplier) {
	r.delegate.Add(name, func(ctx context.Context) (any, error) {
		if err := r.startResources(ctx); err != nil {
			return nil, err
		}
		return supplier(ctx)
	})
}

func (r *resourceBackedRegistry) startResources(ctx context.Context) error {
	for _, resource := range r.resources {
		if err := resource.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}
