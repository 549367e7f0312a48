package gen

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/crudgen/compiler/artifact"
	"github.com/syssam/crudgen/compiler/naming"
)

// BuildRepository builds the repository contract of an entity. It embeds the
// generic repository of the backend keyed by string.
func (b *builder) BuildRepository(m *Model) (*artifact.Interface, error) {
	sym := b.names.Symbol(naming.Repository, m.Name)
	entity := b.names.Symbol(naming.Entity, m.Name)
	i := artifact.NewInterface(sym.Path, sym.Name)
	i.SetDoc(fmt.Sprintf("%s persists %s values.", sym.Name, entity.Name))
	i.Embed(jen.Qual(b.storagePkg(), "Repository").Types(jen.Qual(entity.Path, entity.Name), jen.String()))
	i.AddImport(entity.Path, b.storagePkg())
	i.AddTag(artifact.NewTag(TagRepository))
	return i, nil
}
