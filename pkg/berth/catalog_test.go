package berth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berth-go/berth/pkg/berth"
	"github.com/berth-go/berth/pkg/berth/berthtest"
)

func TestCatalogRegisterAndResolve(t *testing.T) {
	catalog := berth.NewCatalog()
	fixture := &cacheFixture{}

	require.NoError(t, catalog.Register(fixture))

	decl, err := catalog.Resolve(fqName(fixture))
	require.NoError(t, err)
	assert.Same(t, fixture, decl)
}

func TestCatalogResolveUnknownName(t *testing.T) {
	catalog := berth.NewCatalog()

	_, err := catalog.Resolve("example.com/app.missingFixture")
	var rerr *berth.ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "declaration", rerr.Kind)
}

// CatalogBase is an exported shared base; embedded declarations are only
// re-registered under their own names when the embedding is exported.
type CatalogBase struct {
	Shared *berthtest.FakeResource
}

type catalogDerived struct {
	CatalogBase
}

func TestCatalogRegistersEmbeddedDeclarations(t *testing.T) {
	catalog := berth.NewCatalog()
	fixture := &catalogDerived{}

	require.NoError(t, catalog.Register(fixture))

	// Members attributed to the shared base resolve through the base's own
	// type name.
	base, err := catalog.Resolve(fqName(&CatalogBase{}))
	require.NoError(t, err)
	assert.Same(t, &fixture.CatalogBase, base)
}

func TestCatalogRejectsNonStructDeclarations(t *testing.T) {
	catalog := berth.NewCatalog()

	assert.Error(t, catalog.Register(nil))
	assert.Error(t, catalog.Register(cacheFixture{}))
}

func TestLookupFieldRequiresHint(t *testing.T) {
	fixture := &cacheFixture{Cache: berthtest.NewFakeResource("redis:7.2")}
	berth.RegisterDeclaration(fixture)

	_, err := berth.LookupField(fqName(fixture), "Unhinted")
	var rerr *berth.ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "field", rerr.Kind)

	berth.DefaultHints.AllowField(fqName(fixture), "Cache")
	desc, err := berth.LookupField(fqName(fixture), "Cache")
	require.NoError(t, err)
	assert.Equal(t, "Cache", desc.Key().Name)
}

func TestLookupMethodRequiresInvokeHint(t *testing.T) {
	fixture := &cacheFixture{Cache: berthtest.NewFakeResource("redis:7.2")}
	berth.RegisterDeclaration(fixture)

	_, err := berth.LookupMethod(fqName(fixture), "Props")
	var rerr *berth.ResolutionError
	require.ErrorAs(t, err, &rerr)

	// Introspection alone does not authorize invocation lookups.
	berth.DefaultHints.AllowMethod(fqName(fixture), "Props", berth.ModeIntrospect)
	_, err = berth.LookupMethod(fqName(fixture), "Props")
	require.ErrorAs(t, err, &rerr)

	berth.DefaultHints.AllowMethod(fqName(fixture), "Props", berth.ModeInvoke)
	desc, err := berth.LookupMethod(fqName(fixture), "Props")
	require.NoError(t, err)
	assert.Equal(t, "Props", desc.Key().Name)
}

func TestLookupMethodDetectsParameterDrift(t *testing.T) {
	fixture := &cacheFixture{Cache: berthtest.NewFakeResource("redis:7.2")}
	berth.RegisterDeclaration(fixture)
	berth.DefaultHints.AllowMethod(fqName(fixture), "Props", berth.ModeInvoke)

	desc, err := berth.LookupMethod(fqName(fixture), "Props", desc0ParamTypes(t, fixture)...)
	require.NoError(t, err)
	assert.Equal(t, "Props", desc.Key().Name)

	_, err = berth.LookupMethod(fqName(fixture), "Props", "stale.Registry")
	var rerr *berth.ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Hint, "parameter types changed")
}

func desc0ParamTypes(t *testing.T, decl any) []string {
	t.Helper()
	desc, err := berth.MethodOf(decl, "Props")
	require.NoError(t, err)
	return desc.ParamTypes()
}

func TestHintsModeOrdering(t *testing.T) {
	hints := berth.NewHints()
	const typeName = "example.com/app.fixture"

	assert.False(t, hints.MethodAllowed(typeName, "Props", berth.ModeIntrospect))

	hints.AllowMethod(typeName, "Props", berth.ModeInvoke)
	assert.True(t, hints.MethodAllowed(typeName, "Props", berth.ModeIntrospect))
	assert.True(t, hints.MethodAllowed(typeName, "Props", berth.ModeInvoke))

	// A later weaker hint never narrows an earlier grant.
	hints.AllowMethod(typeName, "Props", berth.ModeIntrospect)
	assert.True(t, hints.MethodAllowed(typeName, "Props", berth.ModeInvoke))
}
