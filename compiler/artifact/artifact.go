// Package artifact is the in-memory model of a generated Go declaration.
//
// An artifact is either a [Class] (a struct type with fields and methods) or
// an [Interface] (a contract with method signatures and embedded contracts).
// Both carry a package path, ordered imports and ordered metadata [Tag]s.
// Tags are plain data; callers expand them into code before rendering.
//
// The variant split is enforced by the type system: an Interface has no field
// operation and its methods have no body.
package artifact

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dave/jennifer/jen"
)

// Kind tells the two artifact variants apart.
type Kind uint8

// Artifact variants.
const (
	KindClass Kind = iota
	KindInterface
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == KindInterface {
		return "interface"
	}
	return "class"
}

// Param is a named literal parameter of a tag.
type Param struct {
	Key   string
	Value string
}

// Tag is a metadata marker with ordered parameters.
type Tag struct {
	Name   string
	Params []Param
}

// NewTag returns a tag. kv holds key, value pairs; a trailing key without
// value is ignored.
func NewTag(name string, kv ...string) Tag {
	t := Tag{Name: name}
	for i := 0; i+1 < len(kv); i += 2 {
		t.Params = append(t.Params, Param{Key: kv[i], Value: kv[i+1]})
	}
	return t
}

// Get returns the value of the parameter key.
func (t Tag) Get(key string) (string, bool) {
	for _, p := range t.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// String renders the tag as Name(k=v, ...).
func (t Tag) String() string {
	if len(t.Params) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = fmt.Sprintf("%s=%q", p.Key, p.Value)
	}
	return t.Name + "(" + strings.Join(parts, ", ") + ")"
}

func findTag(tags []Tag, name string) (Tag, bool) {
	for _, t := range tags {
		if t.Name == name {
			return t, true
		}
	}
	return Tag{}, false
}

// Arg is a named, typed parameter.
type Arg struct {
	Name string
	Type jen.Code
}

// Signature is a parameter and result list.
type Signature struct {
	Params  []Arg
	Results []jen.Code
}

func (s Signature) params(g *jen.Group) {
	for _, a := range s.Params {
		g.Id(a.Name).Add(a.Type)
	}
}

func (s Signature) results(g *jen.Group) {
	for _, r := range s.Results {
		g.Add(r)
	}
}

// Field is a struct field of a Class.
type Field struct {
	Name string
	Type jen.Code
	// StructTags are rendered as the Go struct tag, e.g. {"json": "id"}.
	StructTags map[string]string
	Tags       []Tag
	Doc        string
}

// Tag returns the field tag with the given name.
func (f Field) Tag(name string) (Tag, bool) { return findTag(f.Tags, name) }

// Method is a concrete method of a Class. Its body is always rendered, an
// empty body renders as {}.
type Method struct {
	Name string
	Signature
	Body []jen.Code
	Tags []Tag
	Doc  string
	// Value selects a value receiver instead of a pointer receiver.
	Value bool
}

// Tag returns the method tag with the given name.
func (m Method) Tag(name string) (Tag, bool) { return findTag(m.Tags, name) }

// MethodSpec is an abstract method of an Interface.
type MethodSpec struct {
	Name string
	Signature
	Doc string
}

// Func is a package-level function emitted next to an artifact.
type Func struct {
	Name string
	Signature
	Body []jen.Code
	Doc  string
}

// Artifact is implemented by *Class and *Interface only.
type Artifact interface {
	Name() string
	Path() string
	Kind() Kind
	Imports() []string
	Tags() []Tag
	Tag(name string) (Tag, bool)
	Funcs() []Func
	render(f *jen.File)
}

// header is the state shared by both variants.
type header struct {
	name    string
	path    string
	doc     string
	imports []string
	tags    []Tag
	funcs   []Func
	decls   []jen.Code
}

// Name returns the type name.
func (h *header) Name() string { return h.name }

// Path returns the import path of the package the artifact belongs to.
func (h *header) Path() string { return h.path }

// SetDoc sets the doc comment of the type.
func (h *header) SetDoc(doc string) { h.doc = doc }

// Doc returns the doc comment of the type.
func (h *header) Doc() string { return h.doc }

// AddImport records import paths, keeping first-seen order and dropping
// duplicates and the artifact's own package.
func (h *header) AddImport(paths ...string) {
	for _, p := range paths {
		if p == "" || p == h.path || slices.Contains(h.imports, p) {
			continue
		}
		h.imports = append(h.imports, p)
	}
}

// Imports returns the recorded import paths.
func (h *header) Imports() []string { return slices.Clone(h.imports) }

// AddTag appends a metadata tag.
func (h *header) AddTag(t Tag) { h.tags = append(h.tags, t) }

// Tags returns the metadata tags in insertion order.
func (h *header) Tags() []Tag { return slices.Clone(h.tags) }

// Tag returns the tag with the given name.
func (h *header) Tag(name string) (Tag, bool) { return findTag(h.tags, name) }

// AddFunc appends a package-level function.
func (h *header) AddFunc(f Func) { h.funcs = append(h.funcs, f) }

// Funcs returns the package-level functions.
func (h *header) Funcs() []Func { return slices.Clone(h.funcs) }

// AddDecl appends a raw declaration such as a const block or a compile-time
// assertion.
func (h *header) AddDecl(c jen.Code) { h.decls = append(h.decls, c) }

func (h *header) renderTail(f *jen.File) {
	for _, d := range h.decls {
		f.Add(d)
		f.Line()
	}
	for _, fn := range h.funcs {
		if fn.Doc != "" {
			f.Comment(fn.Doc)
		}
		f.Func().Id(fn.Name).ParamsFunc(fn.params).ParamsFunc(fn.results).Block(fn.Body...)
		f.Line()
	}
}

func comment(f *jen.File, doc string) {
	if doc != "" {
		f.Comment(doc)
	}
}

// Class is a struct type with fields and concrete methods.
type Class struct {
	header
	fields   []Field
	methods  []Method
	receiver string
}

var _ Artifact = (*Class)(nil)

// NewClass returns an empty class named name in package path.
func NewClass(path, name string) *Class {
	return &Class{header: header{name: name, path: path}}
}

// Kind implements Artifact.
func (c *Class) Kind() Kind { return KindClass }

// AddField appends a field.
func (c *Class) AddField(f Field) { c.fields = append(c.fields, f) }

// Fields returns the fields in declaration order.
func (c *Class) Fields() []Field { return slices.Clone(c.fields) }

// AddMethod appends a method.
func (c *Class) AddMethod(m Method) { c.methods = append(c.methods, m) }

// Methods returns the methods in insertion order.
func (c *Class) Methods() []Method { return slices.Clone(c.methods) }

// Method returns the method with the given name.
func (c *Class) Method(name string) (Method, bool) {
	for _, m := range c.methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// Receiver returns the receiver name used by methods.
func (c *Class) Receiver() string {
	if c.receiver != "" {
		return c.receiver
	}
	return strings.ToLower(c.name[:1])
}

// SetReceiver overrides the receiver name.
func (c *Class) SetReceiver(name string) { c.receiver = name }

func (c *Class) render(f *jen.File) {
	comment(f, c.doc)
	f.Type().Id(c.name).StructFunc(func(g *jen.Group) {
		for _, fd := range c.fields {
			if fd.Doc != "" {
				g.Comment(fd.Doc)
			}
			s := g.Id(fd.Name).Add(fd.Type)
			if len(fd.StructTags) > 0 {
				s.Tag(fd.StructTags)
			}
		}
	})
	f.Line()
	c.renderTail(f)
	for _, m := range c.methods {
		comment(f, m.Doc)
		recv := jen.Id(c.Receiver())
		if m.Value {
			recv.Id(c.name)
		} else {
			recv.Op("*").Id(c.name)
		}
		f.Func().Params(recv).Id(m.Name).ParamsFunc(m.params).ParamsFunc(m.results).Block(m.Body...)
		f.Line()
	}
}

// Interface is a contract: method signatures and embedded contracts.
type Interface struct {
	header
	embeds  []jen.Code
	methods []MethodSpec
}

var _ Artifact = (*Interface)(nil)

// NewInterface returns an empty interface named name in package path.
func NewInterface(path, name string) *Interface {
	return &Interface{header: header{name: name, path: path}}
}

// Kind implements Artifact.
func (i *Interface) Kind() Kind { return KindInterface }

// Embed adds a contract-only relationship to another interface.
func (i *Interface) Embed(c jen.Code) { i.embeds = append(i.embeds, c) }

// Embeds returns the embedded contracts.
func (i *Interface) Embeds() []jen.Code { return slices.Clone(i.embeds) }

// AddMethod appends a method signature.
func (i *Interface) AddMethod(m MethodSpec) { i.methods = append(i.methods, m) }

// Methods returns the method signatures in insertion order.
func (i *Interface) Methods() []MethodSpec { return slices.Clone(i.methods) }

func (i *Interface) render(f *jen.File) {
	comment(f, i.doc)
	f.Type().Id(i.name).InterfaceFunc(func(g *jen.Group) {
		for _, e := range i.embeds {
			g.Add(e)
		}
		for _, m := range i.methods {
			if m.Doc != "" {
				g.Comment(m.Doc)
			}
			g.Id(m.Name).ParamsFunc(m.params).ParamsFunc(m.results)
		}
	})
	f.Line()
	i.renderTail(f)
}
