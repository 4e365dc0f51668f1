package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuiltinCatalogLoads(t *testing.T) {
	c, err := NewLoader().Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	if c.CatalogID != "builtin-classics" {
		t.Fatalf("unexpected catalog id %q", c.CatalogID)
	}
	if c.Len() < 10 {
		t.Fatalf("expected a playable builtin catalog, got %d quotes", c.Len())
	}
	q, err := c.Quote(0)
	if err != nil {
		t.Fatalf("quote 0: %v", err)
	}
	if q.Text != "Well begun is half done." || q.Author != "Aristotle" {
		t.Fatalf("unexpected first quote %#v", q)
	}
}

func TestLoadCatalogYAML(t *testing.T) {
	path := writeFile(t, "quotes.yaml", `kind: catalog
schema_version: 1
catalog_id: test-pack
name: Test
quotes:
  - text: "Go go!"
    author: "  Gopher  "
  - text: "Second"
`)
	c, err := NewLoader().LoadCatalog(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 2 || c.Path != path {
		t.Fatalf("unexpected catalog %#v", c)
	}
	if c.Quotes[0].Author != "Gopher" || c.Quotes[1].Author != "Unknown" {
		t.Fatalf("expected trimmed and defaulted authors, got %#v", c.Quotes)
	}
}

func TestLoadCatalogLegacyJSON(t *testing.T) {
	path := writeFile(t, "quotes_500.json", `[{"q":"Know thyself.","a":"Socrates"},{"q":"Well begun is half done.","a":"Aristotle"}]`)
	c, err := NewLoader().LoadCatalog(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.CatalogID != "quotes_500" || c.Name != "quotes_500" {
		t.Fatalf("unexpected legacy metadata id=%q name=%q", c.CatalogID, c.Name)
	}
	if q, _ := c.Quote(1); q.Author != "Aristotle" {
		t.Fatalf("unexpected quote %#v", q)
	}
}

func TestLoadCatalogRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty.yaml":   "kind: catalog\nschema_version: 1\ncatalog_id: empty-pack\nname: x\nquotes: []\n",
		"version.yaml": "kind: catalog\nschema_version: 2\ncatalog_id: abc\nname: x\nquotes:\n  - text: hi\n",
		"kind.yaml":    "kind: pack\nschema_version: 1\ncatalog_id: abc\nname: x\nquotes:\n  - text: hi\n",
		"blank.yaml":   "kind: catalog\nschema_version: 1\ncatalog_id: abc\nname: x\nquotes:\n  - text: \"  \"\n",
		"unknown.yaml": "kind: catalog\nschema_version: 1\ncatalog_id: abc\nname: x\nlevels: []\nquotes:\n  - text: hi\n",
		"broken.json":  "{",
		"quotes.txt":   "hello",
		"nothing.json": "[]",
	}
	loader := NewLoader()
	for name, body := range cases {
		if _, err := loader.LoadCatalog(context.Background(), writeFile(t, name, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestQuoteOutOfRange(t *testing.T) {
	c := &Catalog{Quotes: []Quote{{Text: "a"}}}
	for _, level := range []int{-1, 1} {
		if _, err := c.Quote(level); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("level %d: expected ErrOutOfRange, got %v", level, err)
		}
	}
}
