package gen

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/crudgen/compiler/artifact"
	"github.com/syssam/crudgen/compiler/naming"
)

// BuildBootstrap builds the application class of main.go. It opens the
// backend connection, wires repository, mapper, service and controller of
// every entity and serves them with echo.
func (b *builder) BuildBootstrap() (*artifact.Class, error) {
	name := naming.ApplicationName(b.spec.Name)
	c := artifact.NewClass(b.module, name)
	c.SetDoc(fmt.Sprintf("%s wires and serves the %s API.", name, b.spec.Name))
	c.AddTag(artifact.NewTag(TagApplication, "name", b.spec.Name))
	c.SetReceiver("a")
	c.AddField(artifact.Field{Name: "echo", Type: jen.Op("*").Qual(echoPkg, "Echo")})
	c.AddField(artifact.Field{Name: "logger", Type: jen.Op("*").Qual("log/slog", "Logger")})
	c.AddImport("context", "errors", "log/slog", httpPkg, "os", echoPkg, b.storagePkg())

	models := make([]jen.Code, len(b.models))
	for i, m := range b.models {
		models[i] = jen.Op("&").Add(b.symbol(naming.Entity, m.Name)).Values()
	}
	body := b.storage.Connect(b.storagePkg(), b.spec.Name, models)
	body = append(body,
		jen.Id("e").Op(":=").Qual(echoPkg, "New").Call(),
		jen.Id("e").Dot("HideBanner").Op("=").True(),
	)
	for _, m := range b.models {
		repo := b.names.Symbol(naming.Repository, m.Name)
		mapper := b.names.Symbol(naming.Mapper, m.Name)
		service := b.names.Symbol(naming.Service, m.Name)
		controller := b.names.Symbol(naming.Controller, m.Name)
		body = append(body, jen.Qual(controller.Path, "New"+controller.Name).Call(
			jen.Qual(service.Path, "New"+service.Name).Call(
				jen.Qual(repo.Path, "New"+repo.Name).Call(jen.Id(b.storage.ConnVar)),
				jen.Qual(mapper.Path, "New"+mapper.Name).Call(),
			),
		).Dot("Register").Call(jen.Id("e")))
		c.AddImport(repo.Path, service.Path, controller.Path, b.names.PackagePath(naming.Domains, m.Name))
	}
	body = append(body, jen.Return(jen.Op("&").Id(name).Values(jen.Dict{
		jen.Id("echo"):   jen.Id("e"),
		jen.Id("logger"): jen.Id("logger"),
	}), jen.Nil()))

	c.AddFunc(artifact.Func{
		Name: "New" + name,
		Doc:  fmt.Sprintf("New%s connects to the backend and registers every controller.", name),
		Signature: artifact.Signature{
			Params: []artifact.Arg{
				{Name: "ctx", Type: jen.Qual("context", "Context")},
				{Name: "logger", Type: jen.Op("*").Qual("log/slog", "Logger")},
			},
			Results: []jen.Code{jen.Op("*").Id(name), jen.Error()},
		},
		Body: body,
	})
	c.AddFunc(artifact.Func{
		Name: "getenv",
		Signature: artifact.Signature{
			Params:  []artifact.Arg{{Name: "key", Type: jen.String()}, {Name: "fallback", Type: jen.String()}},
			Results: []jen.Code{jen.String()},
		},
		Body: []jen.Code{
			jen.If(
				jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Qual("os", "LookupEnv").Call(jen.Id("key")),
				jen.Id("ok").Op("&&").Id("v").Op("!=").Lit(""),
			).Block(jen.Return(jen.Id("v"))),
			jen.Return(jen.Id("fallback")),
		},
	})
	c.AddFunc(artifact.Func{
		Name: "main",
		Body: []jen.Code{
			jen.Id("logger").Op(":=").Qual("log/slog", "New").Call(
				jen.Qual("log/slog", "NewJSONHandler").Call(jen.Qual("os", "Stdout"), jen.Nil()),
			),
			jen.List(jen.Id("app"), jen.Err()).Op(":=").Id("New"+name).Call(
				jen.Qual("context", "Background").Call(), jen.Id("logger"),
			),
			jen.If(jen.Err().Op("!=").Nil()).Block(
				jen.Id("logger").Dot("Error").Call(jen.Lit("startup failed"), jen.Lit("err"), jen.Err()),
				jen.Qual("os", "Exit").Call(jen.Lit(1)),
			),
			jen.If(
				jen.Err().Op(":=").Id("app").Dot("Run").Call(),
				jen.Err().Op("!=").Nil().Op("&&").Op("!").Qual("errors", "Is").Call(jen.Err(), jen.Qual(httpPkg, "ErrServerClosed")),
			).Block(
				jen.Id("logger").Dot("Error").Call(jen.Lit("server stopped"), jen.Lit("err"), jen.Err()),
				jen.Qual("os", "Exit").Call(jen.Lit(1)),
			),
		},
	})
	c.AddMethod(artifact.Method{
		Name: "Run",
		Doc:  "Run serves the API on $BIND (default :8080) until the server stops.",
		Signature: artifact.Signature{
			Results: []jen.Code{jen.Error()},
		},
		Body: []jen.Code{
			jen.Id("bind").Op(":=").Id("getenv").Call(jen.Lit("BIND"), jen.Lit(":8080")),
			jen.Id("a").Dot("logger").Dot("Info").Call(jen.Lit("listening"), jen.Lit("bind"), jen.Id("bind")),
			jen.Return(jen.Id("a").Dot("echo").Dot("Start").Call(jen.Id("bind"))),
		},
	})
	return c, nil
}
