package gen

import (
	"fmt"

	"github.com/syssam/crudgen/compiler/artifact"
)

// BuildDomain builds one of the three data types of an entity. Fields keep
// their declaration order. Every class is a value object; the Entity class
// additionally carries the backend persistence mapping.
func (b *builder) BuildDomain(m *Model, dt DomainType) (*artifact.Class, error) {
	sym := b.names.Symbol(dt.Kind(), m.Name)
	c := artifact.NewClass(sym.Path, sym.Name)
	switch dt {
	case DomainEntity:
		c.SetDoc(fmt.Sprintf("%s is the persisted form of %s.", sym.Name, m.Name))
	case DomainResponse:
		c.SetDoc(fmt.Sprintf("%s is the representation of %s returned by the API.", sym.Name, m.Name))
	case DomainResource:
		c.SetDoc(fmt.Sprintf("%s is the representation of %s accepted by the API.", sym.Name, m.Name))
	}
	c.AddTag(artifact.NewTag(TagValueObject))
	if dt == DomainEntity {
		c.AddTag(b.storage.EntityTag(m.Name))
	}
	for _, f := range m.Fields {
		fd := artifact.Field{
			Name:       f.GoName,
			Type:       b.fieldType(f, dt),
			StructTags: map[string]string{"json": f.Name},
		}
		if dt == DomainEntity {
			fd.StructTags = b.storage.FieldTags(f.Name, f.IsID, b.structured(f))
			if f.IsID {
				fd.Tags = append(fd.Tags, artifact.NewTag(TagID))
				c.AddImport(b.dialectPkg())
			}
		}
		c.AddField(fd)
		c.AddImport(b.fieldImports(f, dt)...)
	}
	return c, nil
}
