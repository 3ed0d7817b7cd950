package cli

import (
	"fmt"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/berth-go/berth/pkg/berth/aot"
)

const berthPkgPath = "github.com/berth-go/berth/pkg/berth"

// Fixture is one declaration type discovered by static analysis, together
// with the package-level variables that hold it.
type Fixture struct {
	Plan aot.Plan
	Vars map[string]aot.VarRef
}

// SourceScanner discovers fixture declarations without executing any code:
// it type-checks the scanned packages and applies the same matching and
// validation rules as the runtime scanners.
type SourceScanner struct {
	reporter *Reporter
}

// NewSourceScanner creates a source scanner.
func NewSourceScanner(reporter *Reporter) *SourceScanner {
	return &SourceScanner{reporter: reporter}
}

// Scan loads the packages under dir and returns a fixture for every struct
// type that declares startable resource fields or property-source methods.
// When typeNames is non-empty only those types are considered.
func (s *SourceScanner) Scan(dir string, typeNames []string) ([]Fixture, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo |
			packages.NeedImports | packages.NeedDeps,
		Dir: dir,
	}
	pkgs, err := packages.Load(cfg, "./...", berthPkgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("packages in %s did not type-check", dir)
	}

	caps, err := findCapabilities(pkgs)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(typeNames))
	for _, name := range typeNames {
		wanted[name] = true
	}

	var fixtures []Fixture
	for _, pkg := range pkgs {
		if pkg.PkgPath == berthPkgPath {
			continue
		}
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			tn, ok := scope.Lookup(name).(*types.TypeName)
			if !ok {
				continue
			}
			named, ok := tn.Type().(*types.Named)
			if !ok {
				continue
			}
			st, ok := named.Underlying().(*types.Struct)
			if !ok {
				continue
			}
			if len(wanted) > 0 && !wanted[name] && !wanted[pkg.PkgPath+"."+name] {
				continue
			}
			fixture, err := s.buildFixture(named, st, caps)
			if err != nil {
				return nil, err
			}
			if len(fixture.Plan.Fields) == 0 && len(fixture.Plan.Methods) == 0 {
				if len(wanted) > 0 {
					s.reporter.Warnf("type %s declares no resource fields or property-source methods", fixture.Plan.Declaration.FQName())
				}
				continue
			}
			collectVars(pkg, named, fixture.Vars)
			fixtures = append(fixtures, fixture)
		}
	}
	sort.Slice(fixtures, func(i, j int) bool {
		return fixtures[i].Plan.Declaration.FQName() < fixtures[j].Plan.Declaration.FQName()
	})
	return fixtures, nil
}

// capabilities holds the berth types the matching rules test against.
type capabilities struct {
	startable *types.Interface
	registry  types.Type
}

func findCapabilities(pkgs []*packages.Package) (*capabilities, error) {
	var berthTypes *types.Package
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		if pkg.PkgPath == berthPkgPath {
			berthTypes = pkg.Types
		}
	})
	if berthTypes == nil {
		return nil, fmt.Errorf("package %s is not in the load graph", berthPkgPath)
	}
	startableObj := berthTypes.Scope().Lookup("Startable")
	registryObj := berthTypes.Scope().Lookup("PropertyRegistry")
	if startableObj == nil || registryObj == nil {
		return nil, fmt.Errorf("package %s is missing its capability types", berthPkgPath)
	}
	iface, ok := startableObj.Type().Underlying().(*types.Interface)
	if !ok {
		return nil, fmt.Errorf("berth.Startable is not an interface")
	}
	return &capabilities{startable: iface, registry: registryObj.Type()}, nil
}

func (s *SourceScanner) buildFixture(named *types.Named, st *types.Struct, caps *capabilities) (Fixture, error) {
	fixture := Fixture{
		Plan: aot.Plan{Declaration: typeRefOf(named)},
		Vars: make(map[string]aot.VarRef),
	}
	seen := make(map[string]bool)
	if err := s.collectFields(named, st, caps, seen, &fixture.Plan.Fields); err != nil {
		return Fixture{}, err
	}
	if err := s.collectMethods(named, caps, &fixture.Plan.Methods); err != nil {
		return Fixture{}, err
	}
	sort.Slice(fixture.Plan.Fields, func(i, j int) bool {
		return memberLess(fixture.Plan.Fields[i].Declaring, fixture.Plan.Fields[i].Name,
			fixture.Plan.Fields[j].Declaring, fixture.Plan.Fields[j].Name)
	})
	sort.Slice(fixture.Plan.Methods, func(i, j int) bool {
		return memberLess(fixture.Plan.Methods[i].Declaring, fixture.Plan.Methods[i].Name,
			fixture.Plan.Methods[j].Declaring, fixture.Plan.Methods[j].Name)
	})
	return fixture, nil
}

func (s *SourceScanner) collectFields(declaring *types.Named, st *types.Struct, caps *capabilities, seen map[string]bool, out *[]aot.FieldRef) error {
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		ft := f.Type()
		if types.Implements(ft, caps.startable) {
			switch ft.Underlying().(type) {
			case *types.Pointer, *types.Interface:
			default:
				return fmt.Errorf("resource field %s.%s must be a pointer or interface, not %s",
					typeRefOf(declaring).FQName(), f.Name(), ft)
			}
			ref := aot.FieldRef{Declaring: typeRefOf(declaring), Name: f.Name()}
			key := ref.Declaring.FQName() + "." + ref.Name
			if !seen[key] {
				seen[key] = true
				*out = append(*out, ref)
			}
			continue
		}
		if !f.Embedded() {
			continue
		}
		et := ft
		if ptr, ok := et.(*types.Pointer); ok {
			et = ptr.Elem()
		}
		if embedded, ok := et.(*types.Named); ok {
			if embeddedStruct, ok := embedded.Underlying().(*types.Struct); ok {
				if err := s.collectFields(embedded, embeddedStruct, caps, seen, out); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *SourceScanner) collectMethods(named *types.Named, caps *capabilities, out *[]aot.MethodRef) error {
	ms := types.NewMethodSet(types.NewPointer(named))
	for i := 0; i < ms.Len(); i++ {
		fn, ok := ms.At(i).Obj().(*types.Func)
		if !ok {
			continue
		}
		sig, ok := fn.Type().(*types.Signature)
		if !ok || !mentionsType(sig, caps.registry) {
			continue
		}
		declaring := receiverNamed(sig)
		if declaring == nil {
			declaring = named
		}
		member := typeRefOf(declaring).FQName() + "." + fn.Name()
		if sig.Params().Len() != 1 || !types.Identical(sig.Params().At(0).Type(), caps.registry) {
			return fmt.Errorf("property-source method %s must accept exactly one PropertyRegistry parameter", member)
		}
		if sig.Results().Len() > 1 || (sig.Results().Len() == 1 && sig.Results().At(0).Type().String() != "error") {
			return fmt.Errorf("property-source method %s may only return an error", member)
		}
		if !fn.Exported() {
			s.reporter.Warnf("skipping unexported property-source method %s: it cannot be reconstructed at runtime", member)
			continue
		}
		*out = append(*out, aot.MethodRef{
			Declaring:    typeRefOf(declaring),
			Name:         fn.Name(),
			Params:       []aot.TypeRef{typeRefOfObject(caps.registry)},
			ReturnsError: sig.Results().Len() == 1,
		})
	}
	return nil
}

// memberLess orders members by declaring type name, then member name,
// matching the runtime descriptor set ordering.
func memberLess(at aot.TypeRef, aName string, bt aot.TypeRef, bName string) bool {
	if at.FQName() != bt.FQName() {
		return at.FQName() < bt.FQName()
	}
	return aName < bName
}

func mentionsType(sig *types.Signature, t types.Type) bool {
	for i := 0; i < sig.Params().Len(); i++ {
		if types.Identical(sig.Params().At(i).Type(), t) {
			return true
		}
	}
	return false
}

func receiverNamed(sig *types.Signature) *types.Named {
	if sig.Recv() == nil {
		return nil
	}
	rt := sig.Recv().Type()
	if ptr, ok := rt.(*types.Pointer); ok {
		rt = ptr.Elem()
	}
	named, _ := rt.(*types.Named)
	return named
}

func collectVars(pkg *packages.Package, named *types.Named, out map[string]aot.VarRef) {
	scope := pkg.Types.Scope()
	fq := typeRefOf(named).FQName()
	for _, name := range scope.Names() {
		v, ok := scope.Lookup(name).(*types.Var)
		if !ok || !v.Exported() {
			continue
		}
		// Only struct-typed variables work as direct references; the
		// generator takes their address.
		if types.Identical(v.Type(), named) {
			if _, taken := out[fq]; !taken {
				out[fq] = aot.VarRef{PkgPath: pkg.PkgPath, Name: name}
			}
		}
	}
}

func typeRefOf(named *types.Named) aot.TypeRef {
	obj := named.Obj()
	pkgPath := ""
	if obj.Pkg() != nil {
		pkgPath = obj.Pkg().Path()
	}
	return aot.TypeRef{PkgPath: pkgPath, Ident: obj.Name()}
}

func typeRefOfObject(t types.Type) aot.TypeRef {
	s := t.String()
	if i := strings.LastIndex(s, "."); i >= 0 {
		return aot.TypeRef{PkgPath: s[:i], Ident: s[i+1:]}
	}
	return aot.TypeRef{Ident: s}
}
