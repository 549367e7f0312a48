package gen

import (
	"fmt"
	"net/http"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/crudgen/compiler/artifact"
	"github.com/syssam/crudgen/compiler/naming"
)

const (
	echoPkg       = "github.com/labstack/echo/v4"
	httpPkg       = "net/http"
	opensearchPkg = "github.com/opensearch-project/opensearch-go/v2"
)

// route returns the tag binding a handler to an HTTP method and a path below
// the controller base path.
func route(method, path string) artifact.Tag {
	return artifact.NewTag(TagRoute, "method", method, "path", path)
}

// BuildController builds the HTTP controller of an entity. Handlers carry
// route tags; emission turns them into a Register method.
func (b *builder) BuildController(m *Model) (*artifact.Class, error) {
	sym := b.names.Symbol(naming.Controller, m.Name)
	c := artifact.NewClass(sym.Path, sym.Name)
	c.SetDoc(fmt.Sprintf("%s serves %s over HTTP.", sym.Name, m.Name))
	c.AddTag(artifact.NewTag(TagRequestMapping, "path", naming.RoutePath(m.Name)))
	c.SetReceiver("c")

	service := naming.ServiceVar(m.Name)
	c.AddField(artifact.Field{
		Name: service,
		Type: jen.Op("*").Add(b.symbol(naming.Service, m.Name)),
		Tags: []artifact.Tag{artifact.NewTag(TagInject)},
	})
	c.AddImport(
		httpPkg,
		echoPkg,
		b.names.PackagePath(naming.Domains, m.Name),
		b.names.PackagePath(naming.Services, m.Name),
	)

	var (
		svc      = func() *jen.Statement { return jen.Id("c").Dot(service) }
		reqCtx   = jen.Id("ctx").Dot("Request").Call().Dot("Context").Call()
		pathID   = jen.Id("ctx").Dot("Param").Call(jen.Lit("id"))
		status   = func(name string) jen.Code { return jen.Qual(httpPkg, name) }
		handler  = artifact.Signature{Params: []artifact.Arg{{Name: "ctx", Type: jen.Qual(echoPkg, "Context")}}, Results: []jen.Code{jen.Error()}}
		errCheck = jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
		bind     = []jen.Code{
			jen.Var().Id("resource").Add(b.symbol(naming.Resource, m.Name)),
			jen.If(jen.Err().Op(":=").Id("ctx").Dot("Bind").Call(jen.Op("&").Id("resource")), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Qual(echoPkg, "NewHTTPError").Call(status("StatusBadRequest"), jen.Err().Dot("Error").Call())),
			),
		}
	)

	c.AddMethod(artifact.Method{
		Name:      "Find",
		Doc:       fmt.Sprintf("Find handles GET %s/:id.", naming.RoutePath(m.Name)),
		Tags:      []artifact.Tag{route(http.MethodGet, "/:id")},
		Signature: handler,
		Body: []jen.Code{
			jen.List(jen.Id("response"), jen.Id("ok"), jen.Err()).Op(":=").Add(svc()).Dot("Find").Call(reqCtx, pathID),
			errCheck,
			jen.If(jen.Op("!").Id("ok")).Block(
				jen.Return(jen.Id("ctx").Dot("NoContent").Call(status("StatusNotFound"))),
			),
			jen.Return(jen.Id("ctx").Dot("JSON").Call(status("StatusOK"), jen.Id("response"))),
		},
	})
	c.AddMethod(artifact.Method{
		Name:      "FindAll",
		Doc:       fmt.Sprintf("FindAll handles GET %s.", naming.RoutePath(m.Name)),
		Tags:      []artifact.Tag{route(http.MethodGet, "")},
		Signature: handler,
		Body: []jen.Code{
			jen.List(jen.Id("responses"), jen.Err()).Op(":=").Add(svc()).Dot("FindAll").Call(reqCtx),
			errCheck,
			jen.If(jen.Len(jen.Id("responses")).Op("==").Lit(0)).Block(
				jen.Return(jen.Id("ctx").Dot("NoContent").Call(status("StatusNoContent"))),
			),
			jen.Return(jen.Id("ctx").Dot("JSON").Call(status("StatusOK"), jen.Id("responses"))),
		},
	})
	create := append(append([]jen.Code{}, bind...),
		jen.List(jen.Id("response"), jen.Err()).Op(":=").Add(svc()).Dot("Save").Call(reqCtx, jen.Id("resource")),
		errCheck,
		jen.Return(jen.Id("ctx").Dot("JSON").Call(status("StatusCreated"), jen.Id("response"))),
	)
	c.AddMethod(artifact.Method{
		Name:      "Create",
		Doc:       fmt.Sprintf("Create handles POST %s.", naming.RoutePath(m.Name)),
		Tags:      []artifact.Tag{route(http.MethodPost, "")},
		Signature: handler,
		Body:      create,
	})
	// The path id only selects the entity to replace; the body is stored as is.
	update := []jen.Code{
		jen.List(jen.Id("_"), jen.Id("ok"), jen.Err()).Op(":=").Add(svc()).Dot("Find").Call(reqCtx, pathID),
		errCheck,
		jen.If(jen.Op("!").Id("ok")).Block(
			jen.Return(jen.Id("ctx").Dot("NoContent").Call(status("StatusNotFound"))),
		),
	}
	update = append(update, bind...)
	update = append(update,
		jen.List(jen.Id("response"), jen.Err()).Op(":=").Add(svc()).Dot("Save").Call(reqCtx, jen.Id("resource")),
		errCheck,
		jen.Return(jen.Id("ctx").Dot("JSON").Call(status("StatusOK"), jen.Id("response"))),
	)
	c.AddMethod(artifact.Method{
		Name:      "Update",
		Doc:       fmt.Sprintf("Update handles PUT %s/:id.", naming.RoutePath(m.Name)),
		Tags:      []artifact.Tag{route(http.MethodPut, "/:id")},
		Signature: handler,
		Body:      update,
	})
	c.AddMethod(artifact.Method{
		Name:      "Delete",
		Doc:       fmt.Sprintf("Delete handles DELETE %s/:id.", naming.RoutePath(m.Name)),
		Tags:      []artifact.Tag{route(http.MethodDelete, "/:id")},
		Signature: handler,
		Body: []jen.Code{
			jen.If(jen.Err().Op(":=").Add(svc()).Dot("Delete").Call(reqCtx, pathID), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Err()),
			),
			jen.Return(jen.Id("ctx").Dot("NoContent").Call(status("StatusNoContent"))),
		},
	})
	return c, nil
}
