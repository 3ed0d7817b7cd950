package berth

import (
	"reflect"
	"runtime"
	"sort"
)

var (
	registryType = reflect.TypeOf((*PropertyRegistry)(nil)).Elem()
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

// MethodDescriptor identifies one property-source method of a fixture
// declaration: a method taking exactly one PropertyRegistry parameter and
// returning nothing or a single error.
type MethodDescriptor struct {
	key          MemberKey
	params       []string
	fn           reflect.Value // bound to the declaration instance
	returnsError bool
}

// Key returns the descriptor's value identity.
func (d *MethodDescriptor) Key() MemberKey {
	return d.key
}

// ParamTypes returns the fully-qualified parameter type names.
func (d *MethodDescriptor) ParamTypes() []string {
	return append([]string(nil), d.params...)
}

// ReturnsError reports whether the method declares an error result.
func (d *MethodDescriptor) ReturnsError() bool {
	return d.returnsError
}

// String returns the descriptor's qualified name.
func (d *MethodDescriptor) String() string {
	return d.key.String()
}

// Invoke calls the method with the given registry. Errors returned by the
// method propagate unchanged; a failing property-source method is a fatal
// setup error.
func (d *MethodDescriptor) Invoke(registry PropertyRegistry) error {
	out := d.fn.Call([]reflect.Value{reflect.ValueOf(registry)})
	if d.returnsError && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

// ScanMethods finds the property-source methods of a fixture declaration.
// A method is a candidate when its parameter list mentions PropertyRegistry;
// a candidate whose shape is wrong (extra parameters, extra results) fails
// with a *ValidationError naming the method. Methods promoted from a shared
// embedded base are attributed to the base so that scanning two declarations
// embedding it yields equal descriptors.
func ScanMethods(decl any) (*MethodSet, error) {
	root, err := declarationValue(decl)
	if err != nil {
		return nil, err
	}
	pt := root.Type()
	set := NewMethodSet()
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if !mentionsRegistry(m.Type) {
			continue
		}
		desc, err := newMethodDescriptor(root, m)
		if err != nil {
			return nil, err
		}
		set.Add(desc)
	}
	return set, nil
}

// MethodOf returns the descriptor for a single named property-source method
// of the declaration. It is the direct reconstruction path used by generated
// code when the declaration is visible from the generated package.
func MethodOf(decl any, name string) (*MethodDescriptor, error) {
	root, err := declarationValue(decl)
	if err != nil {
		return nil, err
	}
	m, ok := root.Type().MethodByName(name)
	if !ok {
		return nil, &ResolutionError{
			Kind: "method",
			Name: typeName(root.Type().Elem()) + "." + name,
			Hint: "no such method on the declaration",
		}
	}
	return newMethodDescriptor(root, m)
}

// mentionsRegistry reports whether any parameter (beyond the receiver) is the
// registry capability type. This is the structural marker for property-source
// methods.
func mentionsRegistry(mt reflect.Type) bool {
	for i := 1; i < mt.NumIn(); i++ {
		if mt.In(i) == registryType {
			return true
		}
	}
	return false
}

func newMethodDescriptor(root reflect.Value, m reflect.Method) (*MethodDescriptor, error) {
	declaring := methodDeclarer(root.Type().Elem(), m.Name)
	key := MemberKey{Type: typeName(declaring), Name: m.Name}
	mt := m.Type
	if mt.NumIn() != 2 || mt.In(1) != registryType {
		return nil, &ValidationError{
			Member: key.String(),
			Reason: "property-source method must accept exactly one PropertyRegistry parameter",
		}
	}
	returnsError := false
	switch mt.NumOut() {
	case 0:
	case 1:
		if mt.Out(0) != errorType {
			return nil, &ValidationError{
				Member: key.String(),
				Reason: "property-source method may only return an error",
			}
		}
		returnsError = true
	default:
		return nil, &ValidationError{
			Member: key.String(),
			Reason: "property-source method may only return an error",
		}
	}
	return &MethodDescriptor{
		key:          key,
		params:       []string{typeName(registryType)},
		fn:           root.MethodByName(m.Name),
		returnsError: returnsError,
	}, nil
}

// methodDeclarer attributes a method to the type that declares its body. A
// type declaring the method itself shadows any embedded declaration of the
// same name; otherwise the walk descends to the deepest embedded struct
// carrying it, so promotion through multiple declarations resolves to one
// identity.
func methodDeclarer(t reflect.Type, name string) reflect.Type {
	if declaresMethod(t, name) {
		return t
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		embedded := f.Type
		if embedded.Kind() == reflect.Pointer {
			embedded = embedded.Elem()
		}
		if embedded.Kind() != reflect.Struct {
			continue
		}
		if _, ok := reflect.PointerTo(embedded).MethodByName(name); ok {
			return methodDeclarer(embedded, name)
		}
	}
	return t
}

// declaresMethod reports whether t itself declares the named method, as
// opposed to receiving it through embedded promotion. Promoted methods enter
// a method set through a compiler-generated wrapper, which the runtime
// attributes to the "<autogenerated>" pseudo file.
func declaresMethod(t reflect.Type, name string) bool {
	if m, ok := reflect.PointerTo(t).MethodByName(name); ok && !promotedWrapper(m) {
		return true
	}
	if m, ok := t.MethodByName(name); ok && !promotedWrapper(m) {
		return true
	}
	return false
}

func promotedWrapper(m reflect.Method) bool {
	fn := runtime.FuncForPC(m.Func.Pointer())
	if fn == nil {
		return false
	}
	file, _ := fn.FileLine(fn.Entry())
	return file == "<autogenerated>"
}

// MethodSet is a deduplicated set of method descriptors with deterministic
// iteration order.
type MethodSet struct {
	items map[MemberKey]*MethodDescriptor
}

// NewMethodSet creates a set holding the given descriptors.
func NewMethodSet(descs ...*MethodDescriptor) *MethodSet {
	s := &MethodSet{items: make(map[MemberKey]*MethodDescriptor)}
	for _, d := range descs {
		s.Add(d)
	}
	return s
}

// Add inserts a descriptor, returning false when an equal descriptor is
// already present.
func (s *MethodSet) Add(d *MethodDescriptor) bool {
	if _, ok := s.items[d.key]; ok {
		return false
	}
	s.items[d.key] = d
	return true
}

// Len returns the number of descriptors in the set.
func (s *MethodSet) Len() int {
	return len(s.items)
}

// All returns the descriptors sorted by declaring type name, then method name.
func (s *MethodSet) All() []*MethodDescriptor {
	out := make([]*MethodDescriptor, 0, len(s.items))
	for _, d := range s.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key.less(out[j].key) })
	return out
}

// Keys returns the sorted member keys of the set.
func (s *MethodSet) Keys() []MemberKey {
	descs := s.All()
	keys := make([]MemberKey, len(descs))
	for i, d := range descs {
		keys[i] = d.key
	}
	return keys
}
