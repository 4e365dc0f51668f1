package catalog

import "context"

type Loader interface {
	LoadCatalog(ctx context.Context, path string) (*Catalog, error)
	Builtin() (*Catalog, error)
}
