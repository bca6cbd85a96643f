// Package nixexpr builds Nix expressions as values and renders them through a
// single serializer, so interpolated names and URLs are always quoted.
package nixexpr

import (
	"regexp"
	"strconv"
	"strings"
)

// Expr is a node of a Nix expression tree. Use Render to obtain its text.
type Expr interface {
	render(b *strings.Builder)
}

// Binding is a `name = value;` pair inside a let block or an attribute set.
type Binding struct {
	Name  string
	Value Expr
}

// Bind is shorthand for constructing a Binding.
func Bind(name string, value Expr) Binding {
	return Binding{Name: name, Value: value}
}

var (
	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_'-]*$`)
	keywords     = map[string]struct{}{
		"if": {}, "then": {}, "else": {}, "assert": {}, "with": {},
		"let": {}, "in": {}, "rec": {}, "inherit": {}, "or": {},
	}
)

// IsIdentifier reports whether name can appear unquoted as a Nix identifier
// or attribute name.
func IsIdentifier(name string) bool {
	if !identPattern.MatchString(name) {
		return false
	}
	_, reserved := keywords[name]
	return !reserved
}

// Render serializes the expression.
func Render(e Expr) string {
	if e == nil {
		return "null"
	}
	var b strings.Builder
	e.render(&b)
	return b.String()
}

type ident string

// Ident references a variable bound in scope (e.g. `pkgs`, `import`). The name
// is written verbatim and must come from this program, never from input.
func Ident(name string) Expr { return ident(name) }

func (i ident) render(b *strings.Builder) { b.WriteString(string(i)) }

type str string

// Str is a double-quoted string literal. Quotes, backslashes, control
// characters and `${` are escaped.
func Str(s string) Expr { return str(s) }

func (s str) render(b *strings.Builder) { b.WriteString(quote(string(s))) }

type boolean bool

// Bool is a `true`/`false` literal.
func Bool(v bool) Expr { return boolean(v) }

func (v boolean) render(b *strings.Builder) { b.WriteString(strconv.FormatBool(bool(v))) }

type raw string

// Raw embeds caller-supplied Nix source without any escaping. It exists for
// the free-form `expr` input, whose whole point is to be evaluated as written.
func Raw(src string) Expr { return raw(src) }

func (r raw) render(b *strings.Builder) { b.WriteString(string(r)) }

type selectExpr struct {
	base Expr
	path []string
}

// Select accesses an attribute path on base. Segments that are not valid
// identifiers are emitted as quoted strings.
func Select(base Expr, path ...string) Expr {
	return selectExpr{base: base, path: path}
}

// AttrPath selects path from the variable root, e.g. AttrPath("pkgs", "hello").
func AttrPath(root string, path ...string) Expr {
	return Select(Ident(root), path...)
}

func (s selectExpr) render(b *strings.Builder) {
	renderOperand(b, s.base)
	for _, segment := range s.path {
		b.WriteByte('.')
		b.WriteString(attrName(segment))
	}
}

type call struct {
	fn   Expr
	args []Expr
}

// Call applies fn to args.
func Call(fn Expr, args ...Expr) Expr {
	return call{fn: fn, args: args}
}

func (c call) render(b *strings.Builder) {
	renderOperand(b, c.fn)
	for _, arg := range c.args {
		b.WriteByte(' ')
		renderOperand(b, arg)
	}
}

type set []Binding

// Set is an attribute set literal.
func Set(bindings ...Binding) Expr {
	return set(bindings)
}

func (s set) render(b *strings.Builder) {
	b.WriteString("{ ")
	for _, binding := range s {
		writeBinding(b, binding)
		b.WriteByte(' ')
	}
	b.WriteString("}")
}

type let struct {
	bindings []Binding
	body     Expr
}

// Let binds names for use in body.
func Let(bindings []Binding, body Expr) Expr {
	return let{bindings: bindings, body: body}
}

func (l let) render(b *strings.Builder) {
	b.WriteString("let\n")
	for _, binding := range l.bindings {
		b.WriteString("  ")
		writeBinding(b, binding)
		b.WriteByte('\n')
	}
	b.WriteString("in ")
	if l.body == nil {
		b.WriteString("null")
		return
	}
	l.body.render(b)
}

func writeBinding(b *strings.Builder, binding Binding) {
	b.WriteString(attrName(binding.Name))
	b.WriteString(" = ")
	if binding.Value == nil {
		b.WriteString("null")
	} else {
		binding.Value.render(b)
	}
	b.WriteByte(';')
}

// renderOperand parenthesizes compound expressions used as a function,
// argument or select base.
func renderOperand(b *strings.Builder, e Expr) {
	switch e.(type) {
	case call, let, raw:
		b.WriteByte('(')
		e.render(b)
		b.WriteByte(')')
	case nil:
		b.WriteString("null")
	default:
		e.render(b)
	}
}

func attrName(name string) string {
	if IsIdentifier(name) {
		return name
	}
	return quote(name)
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '$':
			if i+1 < len(s) && s[i+1] == '{' {
				b.WriteString(`\$`)
			} else {
				b.WriteByte('$')
			}
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
