package aot

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"unicode"

	"golang.org/x/tools/imports"
)

// berthPkg is the runtime package the generated code reconstructs
// descriptors with.
const berthPkg = "github.com/berth-go/berth/pkg/berth"

// SourceFile is a generated compilation unit.
type SourceFile struct {
	PkgName  string
	FileName string
	Source   []byte
}

// Generator emits Go source that rebuilds a scan plan's descriptor sets and
// hands them to the same importer and registrar the reflective path uses, so
// downstream registry wiring is indistinguishable between the two.
//
// For every member it applies the two-path rule: a direct compile-time
// reference when the declaration variable and the member are visible from the
// target package, otherwise a name-based catalog lookup guarded by a
// reflection hint. Name-based lookups that cannot be satisfied fail when the
// generated factory runs, not at generation time.
type Generator struct{}

// NewGenerator creates a generator.
func NewGenerator() *Generator {
	return &Generator{}
}

type genFunc struct {
	doc     string
	name    string
	params  string
	results string
	body    []Instr
}

// Generate renders the registration source for one scan plan.
func (g *Generator) Generate(plan Plan, target Target) (*SourceFile, error) {
	if target.PkgName == "" || target.PkgPath == "" {
		return nil, fmt.Errorf("aot: target package name and path are required")
	}
	base := target.Factory
	if base == "" {
		base = exportedName(plan.Declaration.Ident)
	}
	fileName := target.FileName
	if fileName == "" {
		fileName = "autogen_fixtures.go"
	}

	im := NewImportManager()
	berthAlias := im.Alias(berthPkg)

	funcs := []genFunc{
		{
			doc:     fmt.Sprintf("New%sPlan rebuilds the scan plan of %s.", base, plan.Declaration.FQName()),
			name:    "New" + base + "Plan",
			results: fmt.Sprintf("(*%s.Plan, error)", berthAlias),
			body:    g.Instructions(plan, target),
		},
		{
			doc:     fmt.Sprintf("New%sRegistrar builds the lazy property registrar for %s.", base, plan.Declaration.FQName()),
			name:    "New" + base + "Registrar",
			results: fmt.Sprintf("(*%s.Registrar, error)", berthAlias),
			body: []Instr{
				{Kind: InstrDeclare, Name: "plan", WithError: true, Expr: Call{Fn: Ident("New" + base + "Plan")}},
				{Kind: InstrTailReturn, Expr: Call{
					Fn:   Ref{berthPkg, "NewRegistrar"},
					Args: []Expr{Sel{Ident("plan"), "Methods"}, Sel{Ident("plan"), "Fields"}},
				}},
			},
		},
		{
			doc:     fmt.Sprintf("Import%s registers %s's resources and returns its registrar.", base, plan.Declaration.FQName()),
			name:    "Import" + base,
			params:  fmt.Sprintf("registry %s.ComponentRegistry", berthAlias),
			results: fmt.Sprintf("(*%s.Registrar, error)", berthAlias),
			body: []Instr{
				{Kind: InstrDeclare, Name: "plan", WithError: true, Expr: Call{Fn: Ident("New" + base + "Plan")}},
				{Kind: InstrCheck, Expr: Call{
					Fn:   Sel{Call{Fn: Ref{berthPkg, "NewImporter"}}, "ImportDescriptors"},
					Args: []Expr{Ident("registry"), Sel{Ident("plan"), "Fields"}},
				}},
				{Kind: InstrTailReturn, Expr: Call{
					Fn:   Ref{berthPkg, "NewRegistrar"},
					Args: []Expr{Sel{Ident("plan"), "Methods"}, Sel{Ident("plan"), "Fields"}},
				}},
			},
		},
	}

	// Render bodies first so every referenced package is registered with the
	// import manager before the import block is written.
	bodies := make([]string, len(funcs))
	for i, fn := range funcs {
		bodies[i] = renderBody(fn.body, im)
	}

	var buf bytes.Buffer
	buf.WriteString("// Code generated by berth. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", target.PkgName)
	buf.WriteString(im.GenerateImports())
	for i, fn := range funcs {
		buf.WriteString("\n")
		fmt.Fprintf(&buf, "// %s\n", fn.doc)
		fmt.Fprintf(&buf, "func %s(%s) %s {\n", fn.name, fn.params, fn.results)
		buf.WriteString(bodies[i])
		buf.WriteString("}\n")
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("aot: generated source does not parse: %w", err)
	}
	formatted, err = imports.Process(fileName, formatted, nil)
	if err != nil {
		return nil, fmt.Errorf("aot: import cleanup failed: %w", err)
	}
	return &SourceFile{PkgName: target.PkgName, FileName: fileName, Source: formatted}, nil
}

// Instructions builds the instruction sequence reconstructing the plan's
// descriptor sets. It is exposed so the accessibility branching can be tested
// independent of rendered syntax.
func (g *Generator) Instructions(plan Plan, target Target) []Instr {
	var instrs []Instr
	instrs = append(instrs, Instr{
		Kind: InstrDeclare, Name: "fields",
		Expr: Call{Fn: Ref{berthPkg, "NewFieldSet"}},
	})
	for i, f := range plan.Fields {
		name := fmt.Sprintf("f%d", i)
		if v, ok := target.varFor(f.Declaring); ok && f.Exported() {
			instrs = append(instrs, Instr{
				Kind: InstrDeclare, Name: name, WithError: true,
				Expr: Call{
					Fn:   Ref{berthPkg, "FieldOf"},
					Args: []Expr{AddrOf{Ref{v.PkgPath, v.Name}}, Str(f.Name)},
				},
			})
		} else {
			fq := f.Declaring.FQName()
			instrs = append(instrs,
				Instr{Kind: InstrCall, Expr: Call{
					Fn:   Sel{Ref{berthPkg, "DefaultHints"}, "AllowField"},
					Args: []Expr{Str(fq), Str(f.Name)},
				}},
				Instr{Kind: InstrDeclare, Name: name, WithError: true, Expr: Call{
					Fn:   Ref{berthPkg, "LookupField"},
					Args: []Expr{Str(fq), Str(f.Name)},
				}},
			)
		}
		instrs = append(instrs, Instr{Kind: InstrCall, Expr: Call{
			Fn: Sel{Ident("fields"), "Add"}, Args: []Expr{Ident(name)},
		}})
	}

	instrs = append(instrs, Instr{
		Kind: InstrDeclare, Name: "methods",
		Expr: Call{Fn: Ref{berthPkg, "NewMethodSet"}},
	})
	for i, m := range plan.Methods {
		name := fmt.Sprintf("m%d", i)
		v, direct := target.varFor(m.Declaring)
		direct = direct && token.IsExported(m.Name) && paramsVisible(m.Params, target)
		if direct {
			// Pin the signature at compile time; a signature change on the
			// declaration breaks the generated unit's build instead of its
			// runtime.
			params := make([]Expr, len(m.Params))
			for j, p := range m.Params {
				params[j] = Ref{p.PkgPath, p.Ident}
			}
			var results []Expr
			if m.ReturnsError {
				results = []Expr{Ident("error")}
			}
			instrs = append(instrs,
				Instr{Kind: InstrDeclare, Name: "_", Expr: Conv{
					Type: FuncType{Params: params, Results: results},
					X:    Sel{Paren{AddrOf{Ref{v.PkgPath, v.Name}}}, m.Name},
				}},
				Instr{Kind: InstrDeclare, Name: name, WithError: true, Expr: Call{
					Fn:   Ref{berthPkg, "MethodOf"},
					Args: []Expr{AddrOf{Ref{v.PkgPath, v.Name}}, Str(m.Name)},
				}},
			)
		} else {
			fq := m.Declaring.FQName()
			args := []Expr{Str(fq), Str(m.Name)}
			for _, p := range m.Params {
				args = append(args, Str(p.FQName()))
			}
			instrs = append(instrs,
				Instr{Kind: InstrCall, Expr: Call{
					Fn:   Sel{Ref{berthPkg, "DefaultHints"}, "AllowMethod"},
					Args: []Expr{Str(fq), Str(m.Name), Ref{berthPkg, "ModeInvoke"}},
				}},
				Instr{Kind: InstrDeclare, Name: name, WithError: true, Expr: Call{
					Fn:   Ref{berthPkg, "LookupMethod"},
					Args: args,
				}},
			)
		}
		instrs = append(instrs, Instr{Kind: InstrCall, Expr: Call{
			Fn: Sel{Ident("methods"), "Add"}, Args: []Expr{Ident(name)},
		}})
	}

	instrs = append(instrs, Instr{Kind: InstrReturn, Expr: StructLit{
		Type: Ref{berthPkg, "Plan"},
		Fields: []StructField{
			{Name: "Declaration", X: Str(plan.Declaration.FQName())},
			{Name: "Fields", X: Ident("fields")},
			{Name: "Methods", X: Ident("methods")},
		},
	}})
	return instrs
}

func paramsVisible(params []TypeRef, target Target) bool {
	for _, p := range params {
		if !p.Exported() || !importableFrom(p.PkgPath, target.PkgPath) {
			return false
		}
	}
	return true
}

func exportedName(ident string) string {
	if ident == "" {
		return "Fixture"
	}
	runes := []rune(ident)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
