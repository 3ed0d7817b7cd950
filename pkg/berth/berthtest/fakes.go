// Package berthtest provides test doubles for exercising fixture wiring
// without real external processes.
package berthtest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/berth-go/berth/pkg/berth"
)

var nextPort atomic.Int32

// FakeResource is an in-memory Startable with idempotent start semantics and
// call counters, standing in for a sandboxed service process.
type FakeResource struct {
	mu            sync.Mutex
	id            string
	image         string
	addr          string
	running       bool
	startCount    int
	startAttempts int
	startErr      error
}

// NewFakeResource creates a stopped fake resource advertising the given
// container image reference.
func NewFakeResource(image string) *FakeResource {
	return &FakeResource{
		id:    uuid.NewString(),
		image: image,
		addr:  fmt.Sprintf("127.0.0.1:%d", 49152+nextPort.Add(1)),
	}
}

// Start brings the resource up. Starting an already-running resource is a
// no-op, matching the contract the registrar relies on.
func (r *FakeResource) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startAttempts++
	if r.startErr != nil {
		return r.startErr
	}
	if !r.running {
		r.running = true
		r.startCount++
	}
	return nil
}

// Stop tears the resource down.
func (r *FakeResource) Stop(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	return nil
}

// ImageName returns the container image reference.
func (r *FakeResource) ImageName() string {
	return r.image
}

// ID returns the unique instance identifier.
func (r *FakeResource) ID() string {
	return r.id
}

// Addr returns the address the fake resource pretends to listen on.
func (r *FakeResource) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addr
}

// Running reports whether the resource is up.
func (r *FakeResource) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// StartCount returns how many times the resource actually transitioned from
// stopped to running.
func (r *FakeResource) StartCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startCount
}

// StartAttempts returns how many times Start was called, including no-ops.
func (r *FakeResource) StartAttempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startAttempts
}

// FailStartWith makes subsequent Start calls return err.
func (r *FakeResource) FailStartWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startErr = err
}

// RecordingRegistry is a PropertyRegistry that records registered suppliers
// and can resolve them on demand.
type RecordingRegistry struct {
	mu        sync.Mutex
	names     []string
	suppliers map[string]berth.ValueSupplier
}

// NewRecordingRegistry creates an empty recording registry.
func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{suppliers: make(map[string]berth.ValueSupplier)}
}

// Add records a supplier under the given property name.
func (r *RecordingRegistry) Add(name string, supplier berth.ValueSupplier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.suppliers[name]; !ok {
		r.names = append(r.names, name)
	}
	r.suppliers[name] = supplier
}

// Names returns the recorded property names in registration order.
func (r *RecordingRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// Resolve invokes the supplier registered under name.
func (r *RecordingRegistry) Resolve(ctx context.Context, name string) (any, error) {
	r.mu.Lock()
	supplier, ok := r.suppliers[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("berthtest: no supplier registered for %q", name)
	}
	return supplier(ctx)
}
