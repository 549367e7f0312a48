// Package load reads project specs from YAML or JSON documents.
package load

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/syssam/crudgen/schema"
)

// MarshalSchema encodes the project spec into JSON, the form accepted by the HTTP
// endpoint.
func MarshalSchema(spec *schema.ProjectSpec) ([]byte, error) {
	return json.Marshal(spec)
}

// UnmarshalSchema decodes a YAML or JSON document into a spec.
// Unknown keys are rejected so that typos such as "isID" do not pass silently.
func UnmarshalSchema(buf []byte) (*schema.ProjectSpec, error) {
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil, fmt.Errorf("load: empty document")
	}
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	s := &schema.ProjectSpec{}
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return s, nil
}

// Load reads a spec document from r.
func Load(r io.Reader) (*schema.ProjectSpec, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("load: read: %w", err)
	}
	return UnmarshalSchema(buf)
}

// LoadFile reads the project spec stored at path. A relative project path inside the
// document is resolved against the directory of the file.
func LoadFile(path string) (*schema.ProjectSpec, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	s, err := UnmarshalSchema(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Path != "" && !filepath.IsAbs(s.Path) {
		s.Path = filepath.Join(filepath.Dir(path), s.Path)
	}
	return s, nil
}
