// Package typeexpr parses field type expressions such as "List<Address>" and
// resolves them to Go types and import paths through a type table.
package typeexpr

import (
	"fmt"
	"strings"
)

// Expr is a parsed type expression: a symbol with optional type arguments.
type Expr struct {
	Name string
	Args []*Expr
}

// SyntaxError reports a malformed type expression.
type SyntaxError struct {
	Expr   string
	Offset int
	Msg    string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("typeexpr: %s at offset %d in %q", e.Msg, e.Offset, e.Expr)
}

// Parse parses s. Parameterization markers must balance and every symbol and
// argument must be non-empty.
func Parse(s string) (*Expr, error) {
	p := &parser{src: s}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos])
	}
	return e, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Expr {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Expr: p.src, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) expr() (*Expr, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("<>, \t", rune(p.src[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		if p.pos == len(p.src) {
			return nil, p.errorf("missing type name")
		}
		return nil, p.errorf("missing type name before %q", p.src[p.pos])
	}
	e := &Expr{Name: p.src[start:p.pos]}
	p.skipSpace()
	if p.pos == len(p.src) || p.src[p.pos] != '<' {
		return e, nil
	}
	p.pos++
	for {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		e.Args = append(e.Args, arg)
		p.skipSpace()
		if p.pos == len(p.src) {
			return nil, p.errorf("unbalanced '<'")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '>':
			p.pos++
			return e, nil
		default:
			return nil, p.errorf("unexpected %q", p.src[p.pos])
		}
	}
}

// String returns the canonical form of the expression.
func (e *Expr) String() string {
	if len(e.Args) == 0 {
		return e.Name
	}
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte('<')
	for i, a := range e.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte('>')
	return b.String()
}

// Map returns a copy of e with every symbol replaced by fn(symbol).
func (e *Expr) Map(fn func(string) string) *Expr {
	c := &Expr{Name: fn(e.Name)}
	for _, a := range e.Args {
		c.Args = append(c.Args, a.Map(fn))
	}
	return c
}

// Symbols returns every symbol of e, depth-first, outer first.
func (e *Expr) Symbols() []string {
	out := []string{e.Name}
	for _, a := range e.Args {
		out = append(out, a.Symbols()...)
	}
	return out
}
