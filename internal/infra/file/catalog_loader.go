// Package file loads catalogs from JSON files on disk, one catalog per
// <dir>/<catalogID>.json. This is the loader used for locally curated
// question/game data; shape validation happens here so the core never sees
// a malformed catalog.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gamerec-quiz-service/internal/domain"
)

type CatalogLoader struct {
	dir string
}

func NewCatalogLoader(dir string) *CatalogLoader {
	return &CatalogLoader{dir: dir}
}

func (l *CatalogLoader) LoadCatalog(_ context.Context, catalogID string) (domain.Catalog, error) {
	path := filepath.Join(l.dir, catalogID+".json")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return domain.Catalog{}, domain.ErrCatalogNotFound
	}
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog file: %w", err)
	}

	var catalog domain.Catalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return domain.Catalog{}, fmt.Errorf("unmarshal catalog %s: %w", catalogID, err)
	}
	if catalog.ID == "" {
		catalog.ID = catalogID
	}
	if err := validate(catalog); err != nil {
		return domain.Catalog{}, fmt.Errorf("invalid catalog %s: %w", catalogID, err)
	}
	return catalog, nil
}

// validate rejects catalogs the quiz core cannot run against. Games without
// tags are allowed (they just score zero); questions without options are not,
// since the quiz could never advance past them.
func validate(catalog domain.Catalog) error {
	if len(catalog.Questions) == 0 {
		return fmt.Errorf("no questions")
	}
	for i, q := range catalog.Questions {
		if len(q.Options) == 0 {
			return fmt.Errorf("question %d (%s) has no options", i, q.ID)
		}
	}
	for i, g := range catalog.Games {
		if g.ID == "" {
			return fmt.Errorf("game %d has no id", i)
		}
	}
	return nil
}
