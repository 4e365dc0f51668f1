package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	CatalogKind            = "catalog"
	SupportedSchemaVersion = 1
)

var (
	idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)

	ErrOutOfRange = errors.New("level out of range")
)

// Catalog is the read-only, ordered quotation list. Level i plays Quotes[i].
type Catalog struct {
	Kind          string  `yaml:"kind"`
	SchemaVersion int     `yaml:"schema_version"`
	CatalogID     string  `yaml:"catalog_id"`
	Name          string  `yaml:"name"`
	Quotes        []Quote `yaml:"quotes"`

	Path string `yaml:"-"`
}

// Quote tags match both the YAML catalog and the legacy JSON dump format.
type Quote struct {
	Text   string `yaml:"text" json:"q"`
	Author string `yaml:"author" json:"a"`
}

func (c *Catalog) Validate() error {
	if c.Kind != CatalogKind {
		return fmt.Errorf("kind must be %q", CatalogKind)
	}
	if c.SchemaVersion != SupportedSchemaVersion {
		return fmt.Errorf("unsupported schema_version %d", c.SchemaVersion)
	}
	if !idPattern.MatchString(c.CatalogID) {
		return fmt.Errorf("invalid catalog_id %q", c.CatalogID)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(c.Quotes) == 0 {
		return fmt.Errorf("catalog %s has no quotes", c.CatalogID)
	}
	for i, q := range c.Quotes {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("quote %d: text is required", i)
		}
	}
	return nil
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Quotes)
}

func (c *Catalog) Quote(level int) (Quote, error) {
	if level < 0 || level >= c.Len() {
		return Quote{}, fmt.Errorf("level %d of %d: %w", level, c.Len(), ErrOutOfRange)
	}
	return c.Quotes[level], nil
}
