// Package aot generates Go source that reconstructs a fixture declaration's
// scan plan without re-running reflective discovery, for environments where
// the wiring must be fixed ahead of time.
package aot

import (
	"go/token"
	"strings"

	"golang.org/x/mod/module"

	"github.com/berth-go/berth/pkg/berth"
)

// TypeRef names a type by package path and identifier.
type TypeRef struct {
	PkgPath string
	Ident   string
}

// FQName returns the fully-qualified type name.
func (t TypeRef) FQName() string {
	if t.PkgPath == "" {
		return t.Ident
	}
	return t.PkgPath + "." + t.Ident
}

// Exported reports whether the type identifier is exported.
func (t TypeRef) Exported() bool {
	return token.IsExported(t.Ident)
}

// ParseTypeRef splits a fully-qualified type name into a TypeRef. Type
// identifiers contain no dots, so the final dot is the separator.
func ParseTypeRef(fq string) TypeRef {
	if i := strings.LastIndex(fq, "."); i >= 0 {
		return TypeRef{PkgPath: fq[:i], Ident: fq[i+1:]}
	}
	return TypeRef{Ident: fq}
}

// VarRef names a package-level variable holding a fixture declaration.
type VarRef struct {
	PkgPath string
	Name    string
}

// FieldRef is the generation-time view of a resource field descriptor.
type FieldRef struct {
	Declaring TypeRef
	Name      string
}

// Exported reports whether the field is exported.
func (f FieldRef) Exported() bool {
	return token.IsExported(f.Name)
}

// MethodRef is the generation-time view of a property-source method
// descriptor.
type MethodRef struct {
	Declaring    TypeRef
	Name         string
	Params       []TypeRef
	ReturnsError bool
}

// Plan is the generator's input: the scan plan reduced to names. It can be
// produced from a live reflective scan (PlanOf) or from static analysis.
type Plan struct {
	Declaration TypeRef
	Fields      []FieldRef
	Methods     []MethodRef
}

// PlanOf reduces a live scan plan to its generation-time view. Iteration
// order of the underlying sets is deterministic, so generating twice from the
// same declaration yields identical source.
func PlanOf(p *berth.Plan) Plan {
	out := Plan{Declaration: ParseTypeRef(p.Declaration)}
	for _, d := range p.Fields.All() {
		key := d.Key()
		out.Fields = append(out.Fields, FieldRef{
			Declaring: TypeRef{PkgPath: key.PkgPath(), Ident: key.TypeIdent()},
			Name:      key.Name,
		})
	}
	for _, d := range p.Methods.All() {
		key := d.Key()
		ref := MethodRef{
			Declaring:    TypeRef{PkgPath: key.PkgPath(), Ident: key.TypeIdent()},
			Name:         key.Name,
			ReturnsError: d.ReturnsError(),
		}
		for _, param := range d.ParamTypes() {
			ref.Params = append(ref.Params, ParseTypeRef(param))
		}
		out.Methods = append(out.Methods, ref)
	}
	return out
}

// Target describes the compilation unit the generator emits into.
type Target struct {
	// PkgPath is the import path of the generated package; it decides which
	// declaring packages are directly referenceable.
	PkgPath string

	// PkgName is the generated file's package clause.
	PkgName string

	// FileName names the generated file. Defaults to "autogen_fixtures.go".
	FileName string

	// Factory overrides the base name of the generated functions. Defaults
	// to the declaration's type identifier.
	Factory string

	// Declarations maps fully-qualified declaration type names to the
	// package-level variables that hold them. A member without a reachable
	// variable reference is reconstructed through the name-based catalog
	// lookup instead.
	Declarations map[string]VarRef
}

// varFor returns the declaration variable usable for a direct reference to
// members of the given type, if one is reachable from the target package.
func (t Target) varFor(ref TypeRef) (VarRef, bool) {
	v, ok := t.Declarations[ref.FQName()]
	if !ok || !token.IsExported(v.Name) {
		return VarRef{}, false
	}
	if !importableFrom(v.PkgPath, t.PkgPath) {
		return VarRef{}, false
	}
	return v, true
}

// importableFrom reports whether pkgPath can be imported by the package at
// from, honoring the Go internal-package rule.
func importableFrom(pkgPath, from string) bool {
	if pkgPath == from {
		return true
	}
	if err := module.CheckImportPath(pkgPath); err != nil {
		return false
	}
	segments := strings.Split(pkgPath, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "internal" {
			continue
		}
		parent := strings.Join(segments[:i], "/")
		if parent == "" {
			return false
		}
		if from != parent && !strings.HasPrefix(from, parent+"/") {
			return false
		}
	}
	return true
}
