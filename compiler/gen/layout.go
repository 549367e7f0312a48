package gen

import (
	"github.com/syssam/crudgen/compiler/naming"
)

// Project-level directories and files.
const (
	DirConfigs    = "configs"
	DirTest       = "test"
	FileManifest  = "go.mod"
	FileBootstrap = "main.go"
)

// Layout is the directory skeleton of a project, computed once per run.
type Layout struct {
	// Dirs lists every directory to create, package directories first.
	Dirs []string
	// Files lists every file of the run in write order.
	Files []string
}

// deriveLayout computes the skeleton of the validated project p.
func deriveLayout(p *project) *Layout {
	names := naming.NewResolver(p.module, p.spec.Layout)
	entities := make([]string, len(p.models))
	for i, m := range p.models {
		entities[i] = m.Name
	}
	l := &Layout{Dirs: append(names.Dirs(entities), DirConfigs, DirTest)}
	for _, e := range entities {
		for _, f := range naming.Files {
			l.Files = append(l.Files, names.FilePath(f, e))
		}
	}
	l.Files = append(l.Files, FileManifest, FileBootstrap)
	return l
}
