package berth_test

import (
	"context"
	"errors"
	"reflect"

	"github.com/berth-go/berth/pkg/berth"
	"github.com/berth-go/berth/pkg/berth/berthtest"
)

// cacheFixture is the canonical well-formed declaration used across tests:
// one exported resource field with markers and one property-source method.
type cacheFixture struct {
	Cache *berthtest.FakeResource `berth:"resource,image=redis:7.2,name=cache"`
}

func (f *cacheFixture) Props(registry berth.PropertyRegistry) {
	registry.Add("cache.addr", func(ctx context.Context) (any, error) {
		return f.Cache.Addr(), nil
	})
}

// hiddenFixture declares its resource through an unexported field.
type hiddenFixture struct {
	db *berthtest.FakeResource
}

func (f *hiddenFixture) resource() *berthtest.FakeResource { return f.db }

// valueResource satisfies Startable with value receivers, making it legal as
// a type but illegal as a by-value fixture field.
type valueResource struct{}

func (valueResource) Start(context.Context) error { return nil }
func (valueResource) Stop(context.Context) error  { return nil }

// valueFieldFixture holds a resource by value: the per-copy (non-shared)
// shape the scanner must reject.
type valueFieldFixture struct {
	DB valueResource
}

// baseFixture is a shared declaration base embedded by several fixtures.
type baseFixture struct {
	Shared *berthtest.FakeResource
}

func (f *baseFixture) BaseProps(registry berth.PropertyRegistry) {
	registry.Add("shared.addr", func(ctx context.Context) (any, error) {
		return f.Shared.Addr(), nil
	})
}

type derivedA struct {
	baseFixture
}

// overridingFixture shadows its embedded base's property-source method with
// its own declaration.
type overridingFixture struct {
	baseFixture
}

func (f *overridingFixture) BaseProps(registry berth.PropertyRegistry) {
	registry.Add("override.addr", func(ctx context.Context) (any, error) {
		return f.Shared.Addr(), nil
	})
}

type derivedB struct {
	baseFixture
}

// brokenMethodFixture has a candidate method with an extra parameter.
type brokenMethodFixture struct {
	Cache *berthtest.FakeResource
}

func (f *brokenMethodFixture) Props(registry berth.PropertyRegistry, prefix string) {
	_ = prefix
}

// brokenReturnFixture has a candidate method with a non-error result.
type brokenReturnFixture struct {
	Cache *berthtest.FakeResource
}

func (f *brokenReturnFixture) Props(registry berth.PropertyRegistry) int { return 0 }

// failingMethodFixture propagates a setup failure from its method.
type failingMethodFixture struct {
	Cache *berthtest.FakeResource
}

var errBadDeclaration = errors.New("bad declaration")

func (f *failingMethodFixture) Props(registry berth.PropertyRegistry) error {
	return errBadDeclaration
}

// fqName returns the fully-qualified name of a declaration type, matching the
// identity the scanners record.
func fqName(decl any) string {
	t := reflect.TypeOf(decl).Elem()
	return t.PkgPath() + "." + t.Name()
}
