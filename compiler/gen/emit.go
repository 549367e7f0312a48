package gen

import (
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/crudgen/compiler/artifact"
	"github.com/syssam/crudgen/compiler/naming"
	"github.com/syssam/crudgen/compiler/typeexpr"
)

// emitFunc expands one artifact tag.
type emitFunc func(b *builder, m *Model, a artifact.Artifact, t artifact.Tag) ([]artifact.Artifact, error)

// emitters maps tag names to their expansion. Tags without an entry are
// informational.
var emitters = map[string]emitFunc{
	TagValueObject:    emitValueObject,
	TagDocument:       emitDocument,
	TagRepository:     emitRepository,
	TagMapper:         emitMapper,
	TagService:        emitService,
	TagRequestMapping: emitRequestMapping,
}

// Emit expands the tags of a built artifact, then the Id tag of its fields.
// It returns the companion artifacts to render after a.
func (b *builder) Emit(m *Model, a artifact.Artifact) ([]artifact.Artifact, error) {
	var extra []artifact.Artifact
	for _, t := range a.Tags() {
		fn, ok := emitters[t.Name]
		if !ok {
			continue
		}
		more, err := fn(b, m, a, t)
		if err != nil {
			return nil, fmt.Errorf("emit %s on %s: %w", t.Name, a.Name(), err)
		}
		extra = append(extra, more...)
	}
	if c, ok := a.(*artifact.Class); ok {
		for _, f := range c.Fields() {
			if _, ok := f.Tag(TagID); ok {
				emitID(b, m, c, f)
			}
		}
	}
	return extra, nil
}

func asClass(a artifact.Artifact) (*artifact.Class, error) {
	c, ok := a.(*artifact.Class)
	if !ok {
		return nil, fmt.Errorf("tag requires a class, got %s", a.Kind())
	}
	return c, nil
}

func asInterface(a artifact.Artifact) (*artifact.Interface, error) {
	i, ok := a.(*artifact.Interface)
	if !ok {
		return nil, fmt.Errorf("tag requires an interface, got %s", a.Kind())
	}
	return i, nil
}

// emitValueObject adds a constructor taking every field in declaration order
// and an Equal method.
func emitValueObject(b *builder, m *Model, a artifact.Artifact, _ artifact.Tag) ([]artifact.Artifact, error) {
	c, err := asClass(a)
	if err != nil {
		return nil, err
	}
	fields := c.Fields()
	if len(fields) != len(m.Fields) {
		return nil, fmt.Errorf("class has %d fields, entity %s has %d", len(fields), m.Name, len(m.Fields))
	}
	var (
		params = make([]artifact.Arg, len(fields))
		values = jen.Dict{}
		conds  []jen.Code
		recv   = c.Receiver()
	)
	for i, fd := range fields {
		name := naming.Camel(m.Fields[i].Name)
		params[i] = artifact.Arg{Name: name, Type: fd.Type}
		values[jen.Id(fd.Name)] = jen.Id(name)

		self, other := jen.Id(recv).Dot(fd.Name), jen.Id("other").Dot(fd.Name)
		switch b.equality(m.Fields[i]) {
		case typeexpr.EqualMethod:
			conds = append(conds, self.Dot("Equal").Call(other))
		case typeexpr.EqualDeep:
			conds = append(conds, jen.Qual("reflect", "DeepEqual").Call(self, other))
		default:
			conds = append(conds, self.Op("==").Add(other))
		}
	}
	c.AddFunc(artifact.Func{
		Name: "New" + c.Name(),
		Doc:  fmt.Sprintf("New%s returns a new %s holding the given values.", c.Name(), c.Name()),
		Signature: artifact.Signature{
			Params:  params,
			Results: []jen.Code{jen.Op("*").Id(c.Name())},
		},
		Body: []jen.Code{jen.Return(jen.Op("&").Id(c.Name()).Values(values))},
	})

	result := jen.True()
	if len(conds) > 0 {
		result = jen.Null()
		for i, cond := range conds {
			if i > 0 {
				result.Op("&&").Line()
			}
			result.Add(cond)
		}
	}
	c.AddMethod(artifact.Method{
		Name: "Equal",
		Doc:  "Equal reports whether both values hold the same fields.",
		Signature: artifact.Signature{
			Params:  []artifact.Arg{{Name: "other", Type: jen.Op("*").Id(c.Name())}},
			Results: []jen.Code{jen.Bool()},
		},
		Body: []jen.Code{
			jen.If(jen.Id(recv).Op("==").Nil().Op("||").Id("other").Op("==").Nil()).Block(
				jen.Return(jen.Id(recv).Op("==").Id("other")),
			),
			jen.Return(result),
		},
	})
	return nil, nil
}

// equality returns how values of f compare. Sub-entity references compare
// deeply.
func (b *builder) equality(f FieldModel) typeexpr.Equality {
	if len(b.siblings(f)) > 0 {
		return typeexpr.EqualDeep
	}
	return b.types.Equality(f.Expr)
}

// emitDocument names the collection or index of a document entity.
func emitDocument(_ *builder, _ *Model, a artifact.Artifact, t artifact.Tag) ([]artifact.Artifact, error) {
	c, err := asClass(a)
	if err != nil {
		return nil, err
	}
	var name, value, doc string
	if v, ok := t.Get("collection"); ok {
		name, value, doc = "CollectionName", v, "CollectionName returns the MongoDB collection of "+c.Name()+"."
	} else if v, ok := t.Get("indexName"); ok {
		name, value, doc = "IndexName", v, "IndexName returns the search index of "+c.Name()+"."
	} else {
		return nil, fmt.Errorf("document tag needs a collection or indexName")
	}
	c.AddMethod(artifact.Method{
		Name:      name,
		Doc:       doc,
		Signature: artifact.Signature{Results: []jen.Code{jen.String()}},
		Body:      []jen.Code{jen.Return(jen.Lit(value))},
	})
	return nil, nil
}

// emitID adds the identifier accessors of string-keyed entities. The store
// assigns identifiers to new entities through SetID.
func emitID(b *builder, m *Model, c *artifact.Class, f artifact.Field) {
	if !b.stringID(m) {
		return
	}
	recv := c.Receiver()
	c.AddMethod(artifact.Method{
		Name:      "GetID",
		Doc:       fmt.Sprintf("GetID returns the identifier of the %s.", c.Name()),
		Signature: artifact.Signature{Results: []jen.Code{jen.String()}},
		Body:      []jen.Code{jen.Return(jen.Id(recv).Dot(f.Name))},
	})
	c.AddMethod(artifact.Method{
		Name:      "SetID",
		Doc:       fmt.Sprintf("SetID sets the identifier of the %s.", c.Name()),
		Signature: artifact.Signature{Params: []artifact.Arg{{Name: "id", Type: jen.String()}}},
		Body:      []jen.Code{jen.Id(recv).Dot(f.Name).Op("=").Id("id")},
	})
	for _, iface := range []string{"Identifiable", "IDSetter"} {
		c.AddDecl(jen.Var().Id("_").Qual(b.dialectPkg(), iface).Types(jen.String()).
			Op("=").Parens(jen.Op("*").Id(c.Name())).Call(jen.Nil()))
	}
}

// emitRepository adds the repository constructor delegating to the backend.
func emitRepository(b *builder, m *Model, a artifact.Artifact, _ artifact.Tag) ([]artifact.Artifact, error) {
	i, err := asInterface(a)
	if err != nil {
		return nil, err
	}
	entity := b.names.Symbol(naming.Entity, m.Name)
	i.AddImport(b.storage.ConnPath)
	i.AddFunc(artifact.Func{
		Name: "New" + i.Name(),
		Doc:  fmt.Sprintf("New%s returns the %s backed by %s.", i.Name(), i.Name(), b.storage.Name),
		Signature: artifact.Signature{
			Params:  []artifact.Arg{{Name: b.storage.ConnVar, Type: b.storage.ConnType()}},
			Results: []jen.Code{jen.Id(i.Name())},
		},
		Body: []jen.Code{
			jen.Return(jen.Qual(b.storagePkg(), "New").Types(jen.Qual(entity.Path, entity.Name), jen.String()).Call(jen.Id(b.storage.ConnVar))),
		},
	})
	return nil, nil
}

// emitMapper adds the mapper constructor and its field-copying
// implementation.
func emitMapper(b *builder, m *Model, a artifact.Artifact, t artifact.Tag) ([]artifact.Artifact, error) {
	i, err := asInterface(a)
	if err != nil {
		return nil, err
	}
	if model, _ := t.Get("componentModel"); model != "constructor" {
		return nil, fmt.Errorf("unsupported component model %q", model)
	}
	impl := artifact.NewClass(i.Path(), naming.VarName(i.Name()))
	impl.SetReceiver("m")
	impl.AddDecl(jen.Var().Id("_").Id(i.Name()).Op("=").Id(impl.Name()).Values())

	i.AddFunc(artifact.Func{
		Name: "New" + i.Name(),
		Doc:  fmt.Sprintf("New%s returns the default %s.", i.Name(), i.Name()),
		Signature: artifact.Signature{
			Results: []jen.Code{jen.Id(i.Name())},
		},
		Body: []jen.Code{jen.Return(jen.Id(impl.Name()).Values())},
	})

	copyFields := func(src string, dt DomainType, conv conversion) jen.Code {
		values := jen.Dict{}
		for _, f := range m.Fields {
			var v jen.Code = jen.Id(src).Dot(f.GoName)
			if len(b.siblings(f)) > 0 {
				v = b.convert(f.Expr, v, conv, 0)
			}
			values[jen.Id(f.GoName)] = v
		}
		return b.symbol(dt.Kind(), m.Name).Values(values)
	}
	response := b.symbol(naming.Response, m.Name)
	for _, spec := range i.Methods() {
		var body []jen.Code
		switch spec.Name {
		case mapResourceToEntity:
			body = []jen.Code{jen.Return(copyFields("resource", DomainEntity, conversion{method: mapResourceToEntity, to: DomainEntity}))}
		case mapEntityToResponse:
			body = []jen.Code{jen.Return(copyFields("entity", DomainResponse, conversion{method: mapEntityToResponse, to: DomainResponse}))}
		case mapEntityListResponse:
			body = []jen.Code{
				jen.Id("out").Op(":=").Make(jen.Index().Add(response), jen.Lit(0), jen.Len(jen.Id("entities"))),
				jen.For(jen.List(jen.Id("_"), jen.Id("entity")).Op(":=").Range().Id("entities")).Block(
					jen.Id("out").Op("=").Append(jen.Id("out"), jen.Id("m").Dot(mapEntityToResponse).Call(jen.Id("entity"))),
				),
				jen.Return(jen.Id("out")),
			}
		default:
			return nil, fmt.Errorf("no implementation for %s", spec.Name)
		}
		impl.AddMethod(artifact.Method{
			Name:      spec.Name,
			Signature: spec.Signature,
			Body:      body,
			Value:     true,
		})
	}
	return []artifact.Artifact{impl}, nil
}

// emitService adds the service constructor injecting its tagged fields.
func emitService(_ *builder, _ *Model, a artifact.Artifact, _ artifact.Tag) ([]artifact.Artifact, error) {
	c, err := asClass(a)
	if err != nil {
		return nil, err
	}
	addInjectingConstructor(c)
	return nil, nil
}

// emitRequestMapping adds the controller constructor and a Register method
// routing every tagged handler below the base path.
func emitRequestMapping(_ *builder, _ *Model, a artifact.Artifact, t artifact.Tag) ([]artifact.Artifact, error) {
	c, err := asClass(a)
	if err != nil {
		return nil, err
	}
	base, ok := t.Get("path")
	if !ok {
		return nil, fmt.Errorf("request mapping needs a path")
	}
	addInjectingConstructor(c)

	body := []jen.Code{jen.Id("g").Op(":=").Id("e").Dot("Group").Call(jen.Lit(base))}
	for _, m := range c.Methods() {
		rt, ok := m.Tag(TagRoute)
		if !ok {
			continue
		}
		method, _ := rt.Get("method")
		path, _ := rt.Get("path")
		body = append(body, jen.Id("g").Dot(strings.ToUpper(method)).Call(jen.Lit(path), jen.Id(c.Receiver()).Dot(m.Name)))
	}
	c.AddMethod(artifact.Method{
		Name: "Register",
		Doc:  fmt.Sprintf("Register mounts the handlers of %s under %s.", c.Name(), base),
		Signature: artifact.Signature{
			Params: []artifact.Arg{{Name: "e", Type: jen.Op("*").Qual(echoPkg, "Echo")}},
		},
		Body: body,
	})
	return nil, nil
}

// addInjectingConstructor adds New<Class> taking every Inject-tagged field
// in declaration order.
func addInjectingConstructor(c *artifact.Class) {
	var (
		params []artifact.Arg
		values = jen.Dict{}
	)
	for _, f := range c.Fields() {
		if _, ok := f.Tag(TagInject); !ok {
			continue
		}
		params = append(params, artifact.Arg{Name: f.Name, Type: f.Type})
		values[jen.Id(f.Name)] = jen.Id(f.Name)
	}
	c.AddFunc(artifact.Func{
		Name: "New" + c.Name(),
		Doc:  fmt.Sprintf("New%s returns a new %s using the given dependencies.", c.Name(), c.Name()),
		Signature: artifact.Signature{
			Params:  params,
			Results: []jen.Code{jen.Op("*").Id(c.Name())},
		},
		Body: []jen.Code{jen.Return(jen.Op("&").Id(c.Name()).Values(values))},
	})
}
