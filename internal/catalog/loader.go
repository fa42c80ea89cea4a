// Package catalog holds the static reference content of the site: courses by
// stream, colleges and districts by state, scholarships, postgraduate
// options, the exam calendar and the assistant FAQ. Content is read from
// YAML documents validated against an embedded JSON schema.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var defaultContent embed.FS

//go:embed schema.json
var schemaJSON []byte

// Load reads the catalog from dir, or from the embedded default content
// when dir is empty.
func Load(dir string) (*Catalog, error) {
	if dir == "" {
		return LoadFS(defaultContent)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("content path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content path %s is not a directory", dir)
	}
	return LoadFS(os.DirFS(dir))
}

// Default returns the catalog built from the embedded content.
func Default() (*Catalog, error) {
	return LoadFS(defaultContent)
}

// LoadFS walks fsys and merges every .yaml/.yml document into one catalog.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compiling content schema: %w", err)
	}

	c := newCatalog()
	files := 0
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := path.Ext(p); ext != ".yaml" && ext != ".yml" {
			return nil
		}

		doc, err := readDocument(fsys, p, schema)
		if err != nil {
			return err
		}
		if doc == nil {
			return nil
		}
		files++
		if err := c.merge(*doc); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}

	if err := c.check(); err != nil {
		return nil, err
	}

	slog.Info("catalog loaded",
		"files", files,
		"streams", len(c.streams),
		"states", len(c.states),
		"exams", len(c.exams),
	)
	return c, nil
}

// ValidateDocument checks raw YAML against the content schema without
// merging it.
func ValidateDocument(data []byte) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("compiling content schema: %w", err)
	}
	_, err = decodeDocument(data, schema)
	return err
}

func readDocument(fsys fs.FS, p string, schema *gojsonschema.Schema) (*document, error) {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, err
	}
	doc, err := decodeDocument(data, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return doc, nil
}

func decodeDocument(data []byte, schema *gojsonschema.Schema) (*document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	res, err := schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validating: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, &SchemaError{Problems: msgs}
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &doc, nil
}

// SchemaError lists the schema violations of a content document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "schema violation: " + strings.Join(e.Problems, "; ")
}

// IsSchemaError reports whether err wraps a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
