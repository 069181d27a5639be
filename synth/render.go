package synth

import (
	"bytes"
	_ "embed"
	"fmt"
	"go/format"
	"slices"
	"strings"
	"text/template"
)

// RuntimeImport is the import path generated code uses for the runtime.
const RuntimeImport = "github.com/oy3o/parcel"

//go:embed file.go.tmpl
var fileTemplate string

var fileTmpl = template.Must(template.New("file").Parse(fileTemplate))

// RenderOptions configures Render.
type RenderOptions struct {
	// Package is the package clause of the generated file.
	Package string
	// Generator names the tool in the generated-code header.
	Generator string
	// Imports are added to the generated import block. Adapters and Go
	// types from other packages need them.
	Imports []string
}

type fileData struct {
	Package   string
	Generator string
	Imports   []string
	Codecs    []*Codec
}

// Render writes every codec of u into one gofmt'd Go file.
func Render(u *Unit, opts RenderOptions) ([]byte, error) {
	if opts.Package == "" {
		return nil, fmt.Errorf("%w: no package name", ErrRender)
	}
	if opts.Generator == "" {
		opts.Generator = "parcelgen"
	}
	data := fileData{Package: opts.Package, Generator: opts.Generator, Codecs: u.Codecs}
	imports := []string{RuntimeImport}
	for _, path := range opts.Imports {
		if path == "" || strings.ContainsAny(path, "\" \t\n") {
			return nil, fmt.Errorf("%w: bad import path %q", ErrRender, path)
		}
		if !slices.Contains(imports, path) {
			imports = append(imports, path)
		}
	}
	for _, c := range u.Codecs {
		for _, path := range c.Imports {
			if !slices.Contains(imports, path) {
				imports = append(imports, path)
			}
		}
	}
	slices.Sort(imports)
	data.Imports = imports

	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return src, nil
}
