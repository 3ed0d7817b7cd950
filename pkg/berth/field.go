package berth

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"
	"unsafe"
)

var startableType = reflect.TypeOf((*Startable)(nil)).Elem()

// FieldDescriptor identifies one field of a fixture declaration that holds a
// startable resource. The resource value itself is never read during
// scanning; it is resolved once, on first access, and memoized.
//
// Two descriptors are equal when their Keys are equal, regardless of whether
// they were produced by a live scan or reconstructed by generated code.
type FieldDescriptor struct {
	key   MemberKey
	field reflect.StructField
	decl  reflect.Value // pointer to the root declaration struct
	path  []int         // field index path from the root struct

	once sync.Once
	res  Startable
	err  error
}

// Key returns the descriptor's value identity.
func (d *FieldDescriptor) Key() MemberKey {
	return d.key
}

// Exported reports whether the underlying field is exported.
func (d *FieldDescriptor) Exported() bool {
	return d.field.IsExported()
}

// Markers returns the berth markers declared on the field's struct tag.
func (d *FieldDescriptor) Markers() ([]Marker, error) {
	return ParseMarkers(d.field.Tag)
}

// String returns the descriptor's registry form.
func (d *FieldDescriptor) String() string {
	return d.key.String()
}

// Resource resolves the field's current value. The first call performs the
// read and the result is memoized; a nil field value is a *ValidationError.
func (d *FieldDescriptor) Resource() (Startable, error) {
	d.once.Do(func() {
		d.res, d.err = d.resolve()
	})
	return d.res, d.err
}

func (d *FieldDescriptor) resolve() (Startable, error) {
	v := d.decl.Elem()
	for _, idx := range d.path[:len(d.path)-1] {
		v = v.Field(idx)
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return nil, &ValidationError{
					Member: d.key.String(),
					Reason: fmt.Sprintf("embedded declaration %s must not be nil", v.Type().Elem()),
				}
			}
			v = v.Elem()
		}
	}
	fv := v.Field(d.path[len(d.path)-1])
	if !fv.CanInterface() {
		// Accessibility override for unexported fields.
		fv = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
	}
	if fv.IsNil() {
		return nil, &ValidationError{
			Member: d.key.String(),
			Reason: "resource field must not have a nil value when first read",
		}
	}
	return fv.Interface().(Startable), nil
}

// ScanFields walks a fixture declaration's struct type, including all
// embedded (ancestor) structs, and returns a descriptor for every field
// whose type satisfies Startable. Field values are not evaluated.
//
// A matching field must be a shared handle, i.e. of pointer or interface
// kind; a struct-value resource field fails with a *ValidationError.
// Descriptors are deduplicated by (declaring type, field name), so scanning
// two declarations that share an embedded base yields equal descriptors for
// the base's fields.
func ScanFields(decl any) (*FieldSet, error) {
	root, err := declarationValue(decl)
	if err != nil {
		return nil, err
	}
	set := NewFieldSet()
	if err := scanStructFields(root, root.Type().Elem(), nil, set); err != nil {
		return nil, err
	}
	return set, nil
}

func scanStructFields(root reflect.Value, t reflect.Type, path []int, set *FieldSet) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fieldPath := append(slices.Clone(path), i)
		if f.Type.Implements(startableType) {
			desc, err := newFieldDescriptor(root, t, f, fieldPath)
			if err != nil {
				return err
			}
			set.Add(desc)
			continue
		}
		if !f.Anonymous {
			continue
		}
		embedded := f.Type
		if embedded.Kind() == reflect.Pointer {
			embedded = embedded.Elem()
		}
		if embedded.Kind() == reflect.Struct {
			if err := scanStructFields(root, embedded, fieldPath, set); err != nil {
				return err
			}
		}
	}
	return nil
}

func newFieldDescriptor(root reflect.Value, declaring reflect.Type, f reflect.StructField, path []int) (*FieldDescriptor, error) {
	key := MemberKey{Type: typeName(declaring), Name: f.Name}
	if k := f.Type.Kind(); k != reflect.Pointer && k != reflect.Interface {
		return nil, &ValidationError{
			Member: key.String(),
			Reason: fmt.Sprintf("resource field must be a pointer or interface, not %s", f.Type),
		}
	}
	return &FieldDescriptor{key: key, field: f, decl: root, path: path}, nil
}

// FieldOf returns the descriptor for a single named resource field of the
// given declaration, searching the embedded hierarchy. It is the direct
// reconstruction path used by generated code when the declaration is visible
// from the generated package.
func FieldOf(decl any, name string) (*FieldDescriptor, error) {
	root, err := declarationValue(decl)
	if err != nil {
		return nil, err
	}
	desc, err := findField(root, root.Type().Elem(), nil, name)
	if err != nil {
		return nil, err
	}
	if desc == nil {
		return nil, &ResolutionError{
			Kind: "field",
			Name: typeName(root.Type().Elem()) + "." + name,
			Hint: "no startable resource field with that name",
		}
	}
	return desc, nil
}

func findField(root reflect.Value, t reflect.Type, path []int, name string) (*FieldDescriptor, error) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fieldPath := append(slices.Clone(path), i)
		if f.Name == name && f.Type.Implements(startableType) {
			return newFieldDescriptor(root, t, f, fieldPath)
		}
		if !f.Anonymous {
			continue
		}
		embedded := f.Type
		if embedded.Kind() == reflect.Pointer {
			embedded = embedded.Elem()
		}
		if embedded.Kind() == reflect.Struct {
			desc, err := findField(root, embedded, fieldPath, name)
			if desc != nil || err != nil {
				return desc, err
			}
		}
	}
	return nil, nil
}

// FieldSet is a deduplicated set of field descriptors with deterministic
// iteration order. It is immutable by convention once a scan has produced it.
type FieldSet struct {
	items map[MemberKey]*FieldDescriptor
}

// NewFieldSet creates a set holding the given descriptors.
func NewFieldSet(descs ...*FieldDescriptor) *FieldSet {
	s := &FieldSet{items: make(map[MemberKey]*FieldDescriptor)}
	for _, d := range descs {
		s.Add(d)
	}
	return s
}

// Add inserts a descriptor, returning false when an equal descriptor is
// already present. Duplicate insertion is deduplication, not an error.
func (s *FieldSet) Add(d *FieldDescriptor) bool {
	if _, ok := s.items[d.key]; ok {
		return false
	}
	s.items[d.key] = d
	return true
}

// Len returns the number of descriptors in the set.
func (s *FieldSet) Len() int {
	return len(s.items)
}

// All returns the descriptors sorted by declaring type name, then field name.
func (s *FieldSet) All() []*FieldDescriptor {
	out := make([]*FieldDescriptor, 0, len(s.items))
	for _, d := range s.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key.less(out[j].key) })
	return out
}

// Keys returns the sorted member keys of the set.
func (s *FieldSet) Keys() []MemberKey {
	descs := s.All()
	keys := make([]MemberKey, len(descs))
	for i, d := range descs {
		keys[i] = d.key
	}
	return keys
}

// declarationValue validates and unwraps a fixture declaration, which must be
// a non-nil pointer to a struct.
func declarationValue(decl any) (reflect.Value, error) {
	rv := reflect.ValueOf(decl)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Type().Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("berth: declaration must be a non-nil pointer to a struct, got %T", decl)
	}
	return rv, nil
}

// typeName returns the fully-qualified name of a type.
func typeName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}
