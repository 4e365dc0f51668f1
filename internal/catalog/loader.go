package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinYAML []byte

type FSLoader struct{}

func NewLoader() *FSLoader { return &FSLoader{} }

// LoadCatalog reads a YAML catalog, or a legacy JSON array of {"q","a"}
// records when the file ends in .json.
func (l *FSLoader) LoadCatalog(ctx context.Context, path string) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c *Catalog
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		c, err = parseLegacyJSON(b, path)
	case ".yaml", ".yml":
		c, err = parseYAML(b)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.Path = path
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return c, nil
}

func (l *FSLoader) Builtin() (*Catalog, error) {
	c, err := parseYAML(builtinYAML)
	if err != nil {
		return nil, fmt.Errorf("parse builtin catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate builtin catalog: %w", err)
	}
	return c, nil
}

func parseYAML(b []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	applyCatalogDefaults(&c)
	return &c, nil
}

func parseLegacyJSON(b []byte, path string) (*Catalog, error) {
	var quotes []Quote
	if err := json.Unmarshal(b, &quotes); err != nil {
		return nil, err
	}
	id := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if !idPattern.MatchString(id) {
		id = "imported"
	}
	c := &Catalog{
		Kind:          CatalogKind,
		SchemaVersion: SupportedSchemaVersion,
		CatalogID:     id,
		Quotes:        quotes,
	}
	applyCatalogDefaults(c)
	return c, nil
}

func applyCatalogDefaults(c *Catalog) {
	if c.Name == "" {
		c.Name = c.CatalogID
	}
	for i := range c.Quotes {
		c.Quotes[i].Author = strings.TrimSpace(c.Quotes[i].Author)
		if c.Quotes[i].Author == "" {
			c.Quotes[i].Author = "Unknown"
		}
	}
}

var _ Loader = (*FSLoader)(nil)
