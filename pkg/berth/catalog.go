package berth

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Catalog resolves fully-qualified type names to live fixture declaration
// instances. It is the Go counterpart of resolving a class by name: generated
// fallback code carries the declaring type name as a string literal and asks
// the catalog for the declaration at load time. Declarations are registered
// by their owning package, typically from an init function.
type Catalog struct {
	mu    sync.RWMutex
	decls map[string]any
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{decls: make(map[string]any)}
}

// Register adds a declaration under its fully-qualified type name. Embedded
// declaration structs are registered under their own type names as well, so
// that members attributed to a shared base remain resolvable.
func (c *Catalog) Register(decl any) error {
	root, err := declarationValue(decl)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.register(root)
	return nil
}

func (c *Catalog) register(v reflect.Value) {
	t := v.Type().Elem()
	c.decls[typeName(t)] = v.Interface()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || !f.IsExported() {
			continue
		}
		fv := v.Elem().Field(i)
		switch {
		case f.Type.Kind() == reflect.Struct:
			c.register(fv.Addr())
		case f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct:
			if !fv.IsNil() {
				c.register(fv)
			}
		}
	}
}

// Resolve returns the declaration registered under the given name, or a
// *ResolutionError when the executing environment has drifted from the one
// the name was captured in.
func (c *Catalog) Resolve(name string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	decl, ok := c.decls[name]
	if !ok {
		return nil, &ResolutionError{
			Kind: "declaration",
			Name: name,
			Hint: "register the declaration with berth.RegisterDeclaration",
		}
	}
	return decl, nil
}

// Names returns the registered declaration names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.decls))
	for name := range c.decls {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultCatalog is the catalog generated code resolves against.
var DefaultCatalog = NewCatalog()

// RegisterDeclaration registers a declaration with the default catalog. It
// panics on a malformed declaration, matching the expectations of callers in
// package init functions.
func RegisterDeclaration(decl any) {
	if err := DefaultCatalog.Register(decl); err != nil {
		panic(fmt.Sprintf("berth: RegisterDeclaration: %v", err))
	}
}

// ResolveDeclaration resolves a declaration from the default catalog.
func ResolveDeclaration(name string) (any, error) {
	return DefaultCatalog.Resolve(name)
}

// LookupField reconstructs a field descriptor by name. It is the fallback
// path emitted by the code generator when the declaring member is not
// directly referenceable from the generated package: the declaring type is
// resolved from the catalog and the field is located by name. The lookup is
// refused unless a reflection hint was registered for the member.
func LookupField(typeName, fieldName string) (*FieldDescriptor, error) {
	if !DefaultHints.FieldAllowed(typeName, fieldName) {
		return nil, &ResolutionError{
			Kind: "field",
			Name: typeName + "." + fieldName,
			Hint: "no reflection hint registered for this lookup",
		}
	}
	decl, err := ResolveDeclaration(typeName)
	if err != nil {
		return nil, err
	}
	return FieldOf(decl, fieldName)
}

// LookupMethod reconstructs a method descriptor by name, verifying that the
// method's parameter types still match the ones captured at generation time.
// The lookup is refused unless an invoke-mode reflection hint was registered.
func LookupMethod(typeName, methodName string, paramTypes ...string) (*MethodDescriptor, error) {
	if !DefaultHints.MethodAllowed(typeName, methodName, ModeInvoke) {
		return nil, &ResolutionError{
			Kind: "method",
			Name: typeName + "." + methodName,
			Hint: "no reflection hint registered for this lookup",
		}
	}
	decl, err := ResolveDeclaration(typeName)
	if err != nil {
		return nil, err
	}
	desc, err := MethodOf(decl, methodName)
	if err != nil {
		return nil, err
	}
	if len(paramTypes) > 0 && !slices.Equal(desc.ParamTypes(), paramTypes) {
		return nil, &ResolutionError{
			Kind: "method",
			Name: typeName + "." + methodName,
			Hint: fmt.Sprintf("parameter types changed since generation: want %v, have %v", paramTypes, desc.ParamTypes()),
		}
	}
	return desc, nil
}
