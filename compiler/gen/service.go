package gen

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/crudgen/compiler/artifact"
	"github.com/syssam/crudgen/compiler/naming"
	"github.com/syssam/crudgen/compiler/typeexpr"
)

// Mapper method names.
const (
	mapResourceToEntity   = "ResourceToEntity"
	mapEntityToResponse   = "EntityToResponse"
	mapEntityListResponse = "EntityListToResponseList"
)

// BuildMapper builds the mapper contract converting between the three data
// types of an entity. The implementation is produced by emission.
func (b *builder) BuildMapper(m *Model) (*artifact.Interface, error) {
	sym := b.names.Symbol(naming.Mapper, m.Name)
	entity := b.symbol(naming.Entity, m.Name)
	i := artifact.NewInterface(sym.Path, sym.Name)
	i.SetDoc(fmt.Sprintf("%s converts between the data types of %s.", sym.Name, m.Name))
	i.AddMethod(artifact.MethodSpec{
		Name: mapResourceToEntity,
		Signature: artifact.Signature{
			Params:  []artifact.Arg{{Name: "resource", Type: b.symbol(naming.Resource, m.Name)}},
			Results: []jen.Code{entity},
		},
	})
	i.AddMethod(artifact.MethodSpec{
		Name: mapEntityToResponse,
		Signature: artifact.Signature{
			Params:  []artifact.Arg{{Name: "entity", Type: entity}},
			Results: []jen.Code{b.symbol(naming.Response, m.Name)},
		},
	})
	i.AddMethod(artifact.MethodSpec{
		Name: mapEntityListResponse,
		Signature: artifact.Signature{
			Params:  []artifact.Arg{{Name: "entities", Type: jen.Index().Add(entity)}},
			Results: []jen.Code{jen.Index().Add(b.symbol(naming.Response, m.Name))},
		},
	})
	i.AddImport(b.names.PackagePath(naming.Domains, m.Name))
	i.AddTag(artifact.NewTag(TagMapper, "componentModel", "constructor"))
	return i, nil
}

// BuildService builds the service class of an entity: CRUD operations over
// the repository, with results mapped to responses.
func (b *builder) BuildService(m *Model) (*artifact.Class, error) {
	sym := b.names.Symbol(naming.Service, m.Name)
	c := artifact.NewClass(sym.Path, sym.Name)
	c.SetDoc(fmt.Sprintf("%s implements the use cases of %s.", sym.Name, m.Name))
	c.AddTag(artifact.NewTag(TagService))
	c.SetReceiver("s")

	repo := naming.RepositoryVar(m.Name)
	mapper := naming.MapperVar(m.Name)
	c.AddField(artifact.Field{
		Name: repo,
		Type: b.symbol(naming.Repository, m.Name),
		Tags: []artifact.Tag{artifact.NewTag(TagInject)},
	})
	c.AddField(artifact.Field{
		Name: mapper,
		Type: b.symbol(naming.Mapper, m.Name),
		Tags: []artifact.Tag{artifact.NewTag(TagInject)},
	})
	c.AddImport(
		"context",
		"errors",
		b.names.PackagePath(naming.Domains, m.Name),
		b.names.PackagePath(naming.Repositories, m.Name),
		b.dialectPkg(),
	)

	response := b.symbol(naming.Response, m.Name)
	ctx := artifact.Arg{Name: "ctx", Type: jen.Qual("context", "Context")}
	id := artifact.Arg{Name: "id", Type: jen.String()}
	self := func(field string) *jen.Statement { return jen.Id("s").Dot(field) }

	c.AddMethod(artifact.Method{
		Name: "Find",
		Doc:  "Find returns the response of the entity with the given id. The boolean is false when it does not exist.",
		Signature: artifact.Signature{
			Params:  []artifact.Arg{ctx, id},
			Results: []jen.Code{jen.Op("*").Add(response), jen.Bool(), jen.Error()},
		},
		Body: []jen.Code{
			jen.List(jen.Id("entity"), jen.Err()).Op(":=").Add(self(repo)).Dot("FindByID").Call(jen.Id("ctx"), jen.Id("id")),
			jen.If(jen.Qual("errors", "Is").Call(jen.Err(), jen.Qual(b.dialectPkg(), "ErrNotFound"))).Block(
				jen.Return(jen.Nil(), jen.False(), jen.Nil()),
			),
			jen.If(jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.False(), jen.Err()),
			),
			jen.Id("response").Op(":=").Add(self(mapper)).Dot(mapEntityToResponse).Call(jen.Op("*").Id("entity")),
			jen.Return(jen.Op("&").Id("response"), jen.True(), jen.Nil()),
		},
	})
	c.AddMethod(artifact.Method{
		Name: "FindAll",
		Doc:  "FindAll returns the responses of every stored entity.",
		Signature: artifact.Signature{
			Params:  []artifact.Arg{ctx},
			Results: []jen.Code{jen.Index().Add(response), jen.Error()},
		},
		Body: []jen.Code{
			jen.List(jen.Id("entities"), jen.Err()).Op(":=").Add(self(repo)).Dot("FindAll").Call(jen.Id("ctx")),
			jen.If(jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.Err()),
			),
			jen.Return(self(mapper).Dot(mapEntityListResponse).Call(jen.Id("entities")), jen.Nil()),
		},
	})
	c.AddMethod(artifact.Method{
		Name: "Save",
		Doc:  "Save stores the resource and returns the response of the stored entity.",
		Signature: artifact.Signature{
			Params:  []artifact.Arg{ctx, {Name: "resource", Type: b.symbol(naming.Resource, m.Name)}},
			Results: []jen.Code{jen.Op("*").Add(response), jen.Error()},
		},
		Body: []jen.Code{
			jen.Id("entity").Op(":=").Add(self(mapper)).Dot(mapResourceToEntity).Call(jen.Id("resource")),
			jen.List(jen.Id("saved"), jen.Err()).Op(":=").Add(self(repo)).Dot("Save").Call(jen.Id("ctx"), jen.Op("&").Id("entity")),
			jen.If(jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.Err()),
			),
			jen.Id("response").Op(":=").Add(self(mapper)).Dot(mapEntityToResponse).Call(jen.Op("*").Id("saved")),
			jen.Return(jen.Op("&").Id("response"), jen.Nil()),
		},
	})
	c.AddMethod(artifact.Method{
		Name: "Delete",
		Doc:  "Delete removes the entity with the given id. Unknown ids are ignored.",
		Signature: artifact.Signature{
			Params:  []artifact.Arg{ctx, id},
			Results: []jen.Code{jen.Error()},
		},
		Body: []jen.Code{
			jen.Return(self(repo).Dot("DeleteByID").Call(jen.Id("ctx"), jen.Id("id"))),
		},
	})
	return c, nil
}

// conversion describes one mapper method applied to sub-entity values.
type conversion struct {
	method string
	to     DomainType
}

// convert renders src, a value of type e, converted through the mappers of
// the sibling entities it references. Values without sibling references are
// copied as is.
func (b *builder) convert(e *typeexpr.Expr, src jen.Code, conv conversion, depth int) jen.Code {
	if !b.refersToSibling(e) {
		return src
	}
	if b.sibling(e.Name) {
		mapper := b.names.Symbol(naming.Mapper, e.Name)
		return jen.Qual(mapper.Path, "New"+mapper.Name).Call().Dot(conv.method).Call(src)
	}
	var (
		typ = b.goType(e, conv.to)
		out = jen.Id(fmt.Sprintf("out%d", depth))
		k   = jen.Id(fmt.Sprintf("k%d", depth))
		v   = jen.Id(fmt.Sprintf("v%d", depth))
		arg = func(i int) jen.Code {
			return b.convert(e.Args[i], jen.Id(fmt.Sprintf("%s%d", []string{"k", "v"}[i], depth)), conv, depth+1)
		}
	)
	nilGuard := jen.If(jen.Add(src).Op("==").Nil()).Block(jen.Return(jen.Nil()))
	switch b.types.Container(e) {
	case typeexpr.Slice:
		if len(e.Args) < 1 {
			return src
		}
		return jen.Func().Params().Add(typ).Block(
			nilGuard,
			jen.Add(out).Op(":=").Make(typ, jen.Len(src)),
			jen.For(jen.List(k, v).Op(":=").Range().Add(src)).Block(
				jen.Add(out).Index(k).Op("=").Add(b.convert(e.Args[0], v, conv, depth+1)),
			),
			jen.Return(out),
		).Call()
	case typeexpr.Set:
		if len(e.Args) < 1 {
			return src
		}
		return jen.Func().Params().Add(typ).Block(
			nilGuard,
			jen.Add(out).Op(":=").Make(typ, jen.Len(src)),
			jen.For(k.Clone().Op(":=").Range().Add(src)).Block(
				jen.Add(out).Index(arg(0)).Op("=").Struct().Values(),
			),
			jen.Return(out),
		).Call()
	case typeexpr.Map:
		if len(e.Args) < 2 {
			return src
		}
		return jen.Func().Params().Add(typ).Block(
			nilGuard,
			jen.Add(out).Op(":=").Make(typ, jen.Len(src)),
			jen.For(jen.List(k, v).Op(":=").Range().Add(src)).Block(
				jen.Add(out).Index(arg(0)).Op("=").Add(arg(1)),
			),
			jen.Return(out),
		).Call()
	case typeexpr.Pointer:
		if len(e.Args) < 1 {
			return src
		}
		return jen.Func().Params().Add(typ).Block(
			nilGuard,
			jen.Add(v).Op(":=").Add(b.convert(e.Args[0], jen.Op("*").Add(src), conv, depth+1)),
			jen.Return(jen.Op("&").Add(v)),
		).Call()
	}
	return src
}

// refersToSibling reports whether e mentions a sibling entity.
func (b *builder) refersToSibling(e *typeexpr.Expr) bool {
	for _, sym := range e.Symbols() {
		if b.sibling(sym) {
			return true
		}
	}
	return false
}
