// Package naming derives every identifier, import path and file path of a
// generated project from an entity name.
//
// All functions are pure. A [Resolver] binds the module path and the layout so
// that builders can ask for the location of any artifact of any entity.
package naming

import (
	"fmt"
	"go/token"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
	"golang.org/x/mod/module"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type-name suffixes.
const (
	SuffixResponse   = "Response"
	SuffixResource   = "Resource"
	SuffixController = "Controller"
	SuffixRepository = "Repository"
	SuffixService    = "Service"
	SuffixMapper     = "Mapper"
	SuffixApp        = "Application"
)

// acronyms are kept upper-case when building exported Go identifiers.
var acronyms = map[string]struct{}{
	"ID": {}, "URL": {}, "URI": {}, "API": {}, "HTTP": {}, "JSON": {},
	"SQL": {}, "UUID": {}, "IP": {}, "XML": {}, "HTML": {}, "SKU": {},
}

// BaseName upper-cases the first letter of the entity name and keeps the rest.
func BaseName(entity string) string {
	r, size := utf8.DecodeRuneInString(entity)
	if r == utf8.RuneError {
		return entity
	}
	return string(unicode.ToUpper(r)) + entity[size:]
}

// ResponseName returns the name of the outbound DTO type.
func ResponseName(entity string) string { return BaseName(entity) + SuffixResponse }

// ResourceName returns the name of the inbound DTO type.
func ResourceName(entity string) string { return BaseName(entity) + SuffixResource }

// ControllerName returns the name of the HTTP controller type.
func ControllerName(entity string) string { return BaseName(entity) + SuffixController }

// RepositoryName returns the name of the repository contract.
func RepositoryName(entity string) string { return BaseName(entity) + SuffixRepository }

// ServiceName returns the name of the service type.
func ServiceName(entity string) string { return BaseName(entity) + SuffixService }

// MapperName returns the name of the mapper contract.
func MapperName(entity string) string { return BaseName(entity) + SuffixMapper }

// ApplicationName returns the name of the bootstrap type of a project.
func ApplicationName(project string) string { return Pascal(project) + SuffixApp }

// VarName returns the lower-camel form of the entity name.
func VarName(entity string) string {
	r, size := utf8.DecodeRuneInString(entity)
	if r == utf8.RuneError {
		return entity
	}
	v := string(unicode.ToLower(r)) + entity[size:]
	if token.IsKeyword(v) {
		return v + "_"
	}
	return v
}

// ResponseVar returns the variable name for a response value.
func ResponseVar(entity string) string { return VarName(entity) + SuffixResponse }

// ResourceVar returns the variable name for a resource value.
func ResourceVar(entity string) string { return VarName(entity) + SuffixResource }

// RepositoryVar returns the variable name for a repository.
func RepositoryVar(entity string) string { return VarName(entity) + SuffixRepository }

// ServiceVar returns the variable name for a service.
func ServiceVar(entity string) string { return VarName(entity) + SuffixService }

// MapperVar returns the variable name for a mapper.
func MapperVar(entity string) string { return VarName(entity) + SuffixMapper }

// ControllerVar returns the variable name for a controller.
func ControllerVar(entity string) string { return VarName(entity) + SuffixController }

// FileStem returns the snake-case stem used in file names.
func FileStem(entity string) string { return inflect.Underscore(entity) }

// PackageSegment returns the directory of an entity in the per-entity layout.
func PackageSegment(entity string) string { return strings.ToLower(entity) }

// RoutePath returns the base HTTP path of an entity.
func RoutePath(entity string) string { return "/" + strings.ToLower(entity) }

// Pascal converts a field or project name into an exported Go identifier:
// "first_name" becomes "FirstName", "id" becomes "ID".
func Pascal(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		if _, ok := acronyms[strings.ToUpper(w)]; ok {
			b.WriteString(strings.ToUpper(w))
			continue
		}
		b.WriteString(caser.String(w))
	}
	return b.String()
}

// Camel converts a field name into an unexported Go identifier.
func Camel(s string) string {
	p := Pascal(s)
	if _, ok := acronyms[p]; ok {
		return strings.ToLower(p)
	}
	return VarName(p)
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// ValidIdentifier reports whether s can be used as an exported Go identifier.
func ValidIdentifier(s string) error {
	switch {
	case s == "":
		return fmt.Errorf("name must not be empty")
	case !token.IsIdentifier(s):
		return fmt.Errorf("%q is not a valid Go identifier", s)
	case !token.IsExported(s):
		return fmt.Errorf("%q must start with a letter", s)
	}
	return nil
}

// ModulePath returns the module path of a generated project: the lower-cased
// project name, optionally below prefix.
func ModulePath(prefix, project string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(project))
	if prefix != "" {
		p = path.Join(prefix, p)
	}
	if err := module.CheckImportPath(p); err != nil {
		return "", err
	}
	return p, nil
}
