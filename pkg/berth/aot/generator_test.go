package aot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const berthPropertyRegistry = berthPkg + ".PropertyRegistry"

func exportedPlan() Plan {
	decl := TypeRef{PkgPath: "example.com/app/fixtures", Ident: "RedisFixture"}
	return Plan{
		Declaration: decl,
		Fields:      []FieldRef{{Declaring: decl, Name: "Cache"}},
		Methods: []MethodRef{{
			Declaring: decl,
			Name:      "Props",
			Params:    []TypeRef{ParseTypeRef(berthPropertyRegistry)},
		}},
	}
}

func reachableTarget(decl TypeRef) Target {
	return Target{
		PkgPath: "example.com/app/gen",
		PkgName: "gen",
		Declarations: map[string]VarRef{
			decl.FQName(): {PkgPath: decl.PkgPath, Name: "Redis"},
		},
	}
}

func TestInstructionsDirectReferences(t *testing.T) {
	plan := exportedPlan()
	instrs := NewGenerator().Instructions(plan, reachableTarget(plan.Declaration))

	var fieldOf, lookupField, methodOf, lookupMethod, pin bool
	for _, in := range instrs {
		switch expr := in.Expr.(type) {
		case Call:
			if ref, ok := expr.Fn.(Ref); ok {
				switch ref.Name {
				case "FieldOf":
					fieldOf = true
				case "LookupField":
					lookupField = true
				case "MethodOf":
					methodOf = true
				case "LookupMethod":
					lookupMethod = true
				}
			}
		case Conv:
			pin = in.Name == "_"
		}
	}
	assert.True(t, fieldOf, "exported reachable field should use a direct FieldOf reference")
	assert.True(t, methodOf, "exported reachable method should use a direct MethodOf reference")
	assert.True(t, pin, "direct method reference should pin the signature at compile time")
	assert.False(t, lookupField)
	assert.False(t, lookupMethod)
}

func TestInstructionsDirectPinCarriesErrorResult(t *testing.T) {
	plan := exportedPlan()
	plan.Methods[0].ReturnsError = true

	instrs := NewGenerator().Instructions(plan, reachableTarget(plan.Declaration))

	var pin FuncType
	var found bool
	for _, in := range instrs {
		if conv, ok := in.Expr.(Conv); ok && in.Name == "_" {
			pin, found = conv.Type.(FuncType)
		}
	}
	require.True(t, found, "direct method reference should pin the signature")
	require.Len(t, pin.Results, 1)
	assert.Equal(t, Ident("error"), pin.Results[0])
}

func TestInstructionsFallBackForUnexportedMethodName(t *testing.T) {
	decl := TypeRef{PkgPath: "example.com/app/fixtures", Ident: "RedisFixture"}
	plan := Plan{
		Declaration: decl,
		Methods: []MethodRef{{
			Declaring: decl,
			Name:      "props",
			Params:    []TypeRef{ParseTypeRef(berthPropertyRegistry)},
		}},
	}

	// The declaration variable is reachable, but an unexported method name
	// cannot be selected from another package.
	instrs := NewGenerator().Instructions(plan, reachableTarget(decl))

	var lookup, direct bool
	for _, in := range instrs {
		if call, ok := in.Expr.(Call); ok {
			if ref, ok := call.Fn.(Ref); ok {
				switch ref.Name {
				case "MethodOf":
					direct = true
				case "LookupMethod":
					lookup = true
				}
			}
		}
	}
	assert.False(t, direct)
	assert.True(t, lookup)
}

func TestInstructionsFallBackForUnexportedMembers(t *testing.T) {
	decl := TypeRef{PkgPath: "example.com/app/fixtures", Ident: "redisFixture"}
	plan := Plan{
		Declaration: decl,
		Fields:      []FieldRef{{Declaring: decl, Name: "cache"}},
		Methods: []MethodRef{{
			Declaring: decl,
			Name:      "Props",
			Params:    []TypeRef{ParseTypeRef(berthPropertyRegistry)},
		}},
	}
	// No declaration variable is reachable at all.
	target := Target{PkgPath: "example.com/app/gen", PkgName: "gen"}

	instrs := NewGenerator().Instructions(plan, target)

	var hints, lookups int
	for _, in := range instrs {
		call, ok := in.Expr.(Call)
		if !ok {
			continue
		}
		switch fn := call.Fn.(type) {
		case Sel:
			if fn.Name == "AllowField" || fn.Name == "AllowMethod" {
				hints++
			}
		case Ref:
			if fn.Name == "LookupField" || fn.Name == "LookupMethod" {
				lookups++
			}
		}
	}
	assert.Equal(t, 2, hints, "every lookup needs a matching hint registration")
	assert.Equal(t, 2, lookups)
}

func TestInstructionsFallBackForUnreachableInternalVar(t *testing.T) {
	decl := TypeRef{PkgPath: "example.com/app/internal/fixtures", Ident: "RedisFixture"}
	plan := Plan{
		Declaration: decl,
		Fields:      []FieldRef{{Declaring: decl, Name: "Cache"}},
	}
	target := Target{
		PkgPath: "example.com/other/gen",
		PkgName: "gen",
		Declarations: map[string]VarRef{
			decl.FQName(): {PkgPath: decl.PkgPath, Name: "Redis"},
		},
	}

	instrs := NewGenerator().Instructions(plan, target)

	for _, in := range instrs {
		if call, ok := in.Expr.(Call); ok {
			if ref, ok := call.Fn.(Ref); ok {
				assert.NotEqual(t, "FieldOf", ref.Name, "internal package must not be referenced directly")
			}
		}
	}
}

func TestGenerateEmitsFormattedSource(t *testing.T) {
	plan := exportedPlan()
	file, err := NewGenerator().Generate(plan, reachableTarget(plan.Declaration))
	require.NoError(t, err)

	assert.Equal(t, "gen", file.PkgName)
	assert.Equal(t, "autogen_fixtures.go", file.FileName)

	src := string(file.Source)
	assert.True(t, strings.HasPrefix(src, "// Code generated by berth. DO NOT EDIT."))
	assert.Contains(t, src, "package gen")
	assert.Contains(t, src, "func NewRedisFixturePlan() (*berth.Plan, error)")
	assert.Contains(t, src, "func NewRedisFixtureRegistrar() (*berth.Registrar, error)")
	assert.Contains(t, src, "func ImportRedisFixture(registry berth.ComponentRegistry) (*berth.Registrar, error)")
	assert.Contains(t, src, `berth.FieldOf(&fixtures.Redis, "Cache")`)
	assert.Contains(t, src, `berth.MethodOf(&fixtures.Redis, "Props")`)
	assert.NotContains(t, src, "LookupField")
}

func TestGenerateDirectPathErrorReturningMethod(t *testing.T) {
	plan := exportedPlan()
	plan.Methods[0].ReturnsError = true

	file, err := NewGenerator().Generate(plan, reachableTarget(plan.Declaration))
	require.NoError(t, err)

	src := string(file.Source)
	assert.Contains(t, src, `_ = (func(berth.PropertyRegistry) error)((&fixtures.Redis).Props)`)
	assert.Contains(t, src, `berth.MethodOf(&fixtures.Redis, "Props")`)
}

func TestGenerateLookupPathSource(t *testing.T) {
	decl := TypeRef{PkgPath: "example.com/app/fixtures", Ident: "redisFixture"}
	plan := Plan{
		Declaration: decl,
		Fields:      []FieldRef{{Declaring: decl, Name: "Cache"}},
		Methods: []MethodRef{{
			Declaring: decl,
			Name:      "Props",
			Params:    []TypeRef{ParseTypeRef(berthPropertyRegistry)},
		}},
	}
	target := Target{PkgPath: "example.com/app/gen", PkgName: "gen", Factory: "Redis"}

	file, err := NewGenerator().Generate(plan, target)
	require.NoError(t, err)

	src := string(file.Source)
	assert.Contains(t, src, `berth.DefaultHints.AllowField("example.com/app/fixtures.redisFixture", "Cache")`)
	assert.Contains(t, src, `berth.LookupField("example.com/app/fixtures.redisFixture", "Cache")`)
	assert.Contains(t, src, "berth.DefaultHints.AllowMethod(\"example.com/app/fixtures.redisFixture\", \"Props\", berth.ModeInvoke)")
	assert.Contains(t, src, `berth.LookupMethod("example.com/app/fixtures.redisFixture", "Props", "`+berthPropertyRegistry+`")`)
	assert.Contains(t, src, "func NewRedisPlan() (*berth.Plan, error)")
}

func TestGenerateRequiresTargetPackage(t *testing.T) {
	_, err := NewGenerator().Generate(exportedPlan(), Target{PkgName: "gen"})
	assert.Error(t, err)
	_, err = NewGenerator().Generate(exportedPlan(), Target{PkgPath: "example.com/gen"})
	assert.Error(t, err)
}
