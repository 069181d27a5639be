package schema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Load reads a schema file. The format follows the extension: .yaml and
// .yml are YAML, .json and .jsonc are JSON with comments and trailing commas.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err = ParseYAML(data)
	case ".json", ".jsonc":
		f, err = ParseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseYAML decodes a YAML schema file. Unknown keys are rejected.
func ParseYAML(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return &f, nil
}

// ParseJSON decodes a JSON schema file after stripping comments and
// trailing commas. Unknown keys are rejected.
func ParseJSON(data []byte) (*File, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return &f, nil
}

// Universe builds the universe of the file's declarations.
func (f *File) Universe() (*Universe, error) {
	return NewUniverse(f.Types)
}

// RootTypes parses the file's roots.
func (f *File) RootTypes() ([]TypeDescriptor, error) {
	return ParseTypes(f.Roots)
}

// ParseTypes parses each expression in srcs.
func ParseTypes(srcs []string) ([]TypeDescriptor, error) {
	out := make([]TypeDescriptor, 0, len(srcs))
	for _, s := range srcs {
		t, err := ParseType(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
