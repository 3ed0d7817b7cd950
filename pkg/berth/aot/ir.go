package aot

import (
	"fmt"
	"strconv"
	"strings"
)

// The generator does not concatenate source text directly. It first builds a
// small instruction sequence (declare a variable, call, construct, return)
// over an expression tree, then renders that to Go. This keeps the
// accessibility-aware branching testable independent of syntax.

// InstrKind discriminates the instruction forms the generator emits.
type InstrKind int

const (
	// InstrDeclare declares one or two variables from an expression. When
	// WithError is set the second variable is err and an error check is
	// rendered immediately after.
	InstrDeclare InstrKind = iota

	// InstrCall evaluates an expression for its side effect.
	InstrCall

	// InstrCheck evaluates an expression yielding an error and returns it
	// when non-nil.
	InstrCheck

	// InstrReturn returns an expression together with a nil error.
	InstrReturn

	// InstrTailReturn returns the expression's own results directly.
	InstrTailReturn
)

// Instr is one generated statement.
type Instr struct {
	Kind      InstrKind
	Name      string // declared variable name, for InstrDeclare
	WithError bool
	Expr      Expr
}

// Expr is a renderable expression node.
type Expr interface {
	render(im *ImportManager) string
}

// Str is a quoted string literal.
type Str string

func (s Str) render(*ImportManager) string {
	return strconv.Quote(string(s))
}

// Ident is a bare identifier in the generated file's scope.
type Ident string

func (id Ident) render(*ImportManager) string {
	return string(id)
}

// Ref is a package-qualified reference; rendering it registers the import.
type Ref struct {
	PkgPath string
	Name    string
}

func (r Ref) render(im *ImportManager) string {
	return im.Alias(r.PkgPath) + "." + r.Name
}

// AddrOf takes the address of an expression.
type AddrOf struct {
	X Expr
}

func (a AddrOf) render(im *ImportManager) string {
	return "&" + a.X.render(im)
}

// Sel selects a field or method on an expression.
type Sel struct {
	X    Expr
	Name string
}

func (s Sel) render(im *ImportManager) string {
	return s.X.render(im) + "." + s.Name
}

// Paren parenthesizes an expression.
type Paren struct {
	X Expr
}

func (p Paren) render(im *ImportManager) string {
	return "(" + p.X.render(im) + ")"
}

// FuncType is a function type expression over parameter and result type
// expressions.
type FuncType struct {
	Params  []Expr
	Results []Expr
}

func (f FuncType) render(im *ImportManager) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.render(im)
	}
	out := "func(" + strings.Join(params, ", ") + ")"
	switch len(f.Results) {
	case 0:
	case 1:
		out += " " + f.Results[0].render(im)
	default:
		results := make([]string, len(f.Results))
		for i, r := range f.Results {
			results[i] = r.render(im)
		}
		out += " (" + strings.Join(results, ", ") + ")"
	}
	return out
}

// Call invokes a function expression with arguments.
type Call struct {
	Fn   Expr
	Args []Expr
}

func (c Call) render(im *ImportManager) string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.render(im)
	}
	return c.Fn.render(im) + "(" + strings.Join(args, ", ") + ")"
}

// Conv is a conversion (or compile-time shape assertion) of an expression to
// a type expression.
type Conv struct {
	Type Expr
	X    Expr
}

func (c Conv) render(im *ImportManager) string {
	return "(" + c.Type.render(im) + ")(" + c.X.render(im) + ")"
}

// StructLit is a composite literal taken by address.
type StructLit struct {
	Type   Expr
	Fields []StructField
}

// StructField is one keyed element of a StructLit.
type StructField struct {
	Name string
	X    Expr
}

func (l StructLit) render(im *ImportManager) string {
	var b strings.Builder
	b.WriteString("&" + l.Type.render(im) + "{")
	for i, f := range l.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name + ": " + f.X.render(im))
	}
	b.WriteString("}")
	return b.String()
}

// renderBody renders an instruction list as an indented function body.
func renderBody(instrs []Instr, im *ImportManager) string {
	var b strings.Builder
	for _, in := range instrs {
		switch in.Kind {
		case InstrDeclare:
			switch {
			case in.WithError:
				fmt.Fprintf(&b, "\t%s, err := %s\n", in.Name, in.Expr.render(im))
				b.WriteString("\tif err != nil {\n\t\treturn nil, err\n\t}\n")
			case in.Name == "_":
				fmt.Fprintf(&b, "\t_ = %s\n", in.Expr.render(im))
			default:
				fmt.Fprintf(&b, "\t%s := %s\n", in.Name, in.Expr.render(im))
			}
		case InstrCall:
			fmt.Fprintf(&b, "\t%s\n", in.Expr.render(im))
		case InstrCheck:
			fmt.Fprintf(&b, "\tif err := %s; err != nil {\n\t\treturn nil, err\n\t}\n", in.Expr.render(im))
		case InstrReturn:
			fmt.Fprintf(&b, "\treturn %s, nil\n", in.Expr.render(im))
		case InstrTailReturn:
			fmt.Fprintf(&b, "\treturn %s\n", in.Expr.render(im))
		}
	}
	return b.String()
}
