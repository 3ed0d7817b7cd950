package berth

import (
	"context"
	"strings"
)

// Startable is the capability a fixture field must satisfy to be picked up
// by the field scanner. Implementations are expected to make Start and Stop
// idempotent: starting an already-running resource is a no-op.
type Startable interface {
	// Start brings the resource up. It may block until the resource is ready.
	Start(ctx context.Context) error

	// Stop tears the resource down.
	Stop(ctx context.Context) error
}

// ImageNamed is an optional capability for resources that are backed by a
// container image. The importer records the image reference as service
// definition metadata when it is available.
type ImageNamed interface {
	ImageName() string
}

// ValueSupplier produces a configuration value on demand. Suppliers handed to
// a PropertyRegistry through a Registrar are wrapped so that every resource
// held by the registrar is started before the first value is produced.
type ValueSupplier func(ctx context.Context) (any, error)

// PropertyRegistry is the configuration-value registry capability consumed by
// property-source methods on a fixture declaration.
type PropertyRegistry interface {
	Add(name string, supplier ValueSupplier)
}

// Role describes how a service definition participates in ordinary component
// resolution.
type Role int

const (
	// RoleApplication marks a definition that is a candidate for ordinary
	// resolution.
	RoleApplication Role = iota

	// RoleInfrastructure marks a definition that exists to support the test
	// wiring itself. Infrastructure definitions are hidden from ordinary
	// enumeration unless explicitly requested.
	RoleInfrastructure
)

// String returns the string representation of the role.
func (r Role) String() string {
	switch r {
	case RoleInfrastructure:
		return "infrastructure"
	default:
		return "application"
	}
}

// MemberKey is the value identity of a scanned member: the fully-qualified
// declaring type name plus the member name. Keys are stable across repeated
// scans and across generated-code reconstruction, which is what makes
// descriptor deduplication and registry naming deterministic.
type MemberKey struct {
	// Type is the fully-qualified declaring type name, e.g.
	// "github.com/acme/app/fixtures.AppFixture".
	Type string

	// Name is the field or method name.
	Name string
}

// String returns the registry form of the key, "<Type>.<Name>".
func (k MemberKey) String() string {
	return k.Type + "." + k.Name
}

// PkgPath returns the package path portion of the declaring type name.
func (k MemberKey) PkgPath() string {
	if i := strings.LastIndex(k.Type, "."); i >= 0 {
		return k.Type[:i]
	}
	return ""
}

// TypeIdent returns the bare (unqualified) declaring type identifier.
func (k MemberKey) TypeIdent() string {
	if i := strings.LastIndex(k.Type, "."); i >= 0 {
		return k.Type[i+1:]
	}
	return k.Type
}

// less orders keys by declaring type name, then member name. Sets iterate in
// this order so that generated code is reproducible.
func (k MemberKey) less(other MemberKey) bool {
	if k.Type != other.Type {
		return k.Type < other.Type
	}
	return k.Name < other.Name
}
