package berth

import "sync"

// ExecMode is the level of access a method hint authorizes.
type ExecMode int

const (
	// ModeIntrospect authorizes looking the method up by name.
	ModeIntrospect ExecMode = iota

	// ModeInvoke additionally authorizes invoking it.
	ModeInvoke
)

// Hints is the reflection-hint registry consumed by generated code. The
// name-based lookup path (LookupField, LookupMethod) refuses members that
// were not hinted, which is how the restricted-introspection runtime knows a
// lookup was authorized at generation time.
type Hints struct {
	mu      sync.RWMutex
	fields  map[MemberKey]struct{}
	methods map[MemberKey]ExecMode
}

// NewHints creates an empty hint registry.
func NewHints() *Hints {
	return &Hints{
		fields:  make(map[MemberKey]struct{}),
		methods: make(map[MemberKey]ExecMode),
	}
}

// AllowField authorizes name-based lookup of a field.
func (h *Hints) AllowField(typeName, fieldName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fields[MemberKey{Type: typeName, Name: fieldName}] = struct{}{}
}

// FieldAllowed reports whether a field lookup was authorized.
func (h *Hints) FieldAllowed(typeName, fieldName string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.fields[MemberKey{Type: typeName, Name: fieldName}]
	return ok
}

// AllowMethod authorizes name-based lookup of a method at the given mode.
func (h *Hints) AllowMethod(typeName, methodName string, mode ExecMode) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := MemberKey{Type: typeName, Name: methodName}
	if existing, ok := h.methods[key]; !ok || mode > existing {
		h.methods[key] = mode
	}
}

// MethodAllowed reports whether a method lookup was authorized at the given
// mode. A ModeInvoke hint also satisfies ModeIntrospect.
func (h *Hints) MethodAllowed(typeName, methodName string, mode ExecMode) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	granted, ok := h.methods[MemberKey{Type: typeName, Name: methodName}]
	return ok && granted >= mode
}

// DefaultHints is the hint registry generated code registers into.
var DefaultHints = NewHints()
