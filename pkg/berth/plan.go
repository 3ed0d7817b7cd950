package berth

// Plan is the immutable result of scanning one fixture declaration: the
// deduplicated resource field descriptors and property-source method
// descriptors. Scanning the same declaration twice yields element-wise equal
// plans.
type Plan struct {
	Declaration string // fully-qualified declaration type name
	Fields      *FieldSet
	Methods     *MethodSet
}

// ScanPlan runs both scanners over a fixture declaration.
func ScanPlan(decl any) (*Plan, error) {
	root, err := declarationValue(decl)
	if err != nil {
		return nil, err
	}
	fields, err := ScanFields(decl)
	if err != nil {
		return nil, err
	}
	methods, err := ScanMethods(decl)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Declaration: typeName(root.Type().Elem()),
		Fields:      fields,
		Methods:     methods,
	}, nil
}
