// Package catalog loads shop items from JSON or YAML files and imports
// them into the store.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/craftrealm/realm-api/internal/models"
)

// Entry is one item in a catalog file.
type Entry struct {
	Name        string  `json:"nom"         yaml:"nom"`
	Description *string `json:"description" yaml:"description"`
	Price       int     `json:"prix"        yaml:"prix"`
	Rarity      string  `json:"rarete"      yaml:"rarete"`
}

// Parse decodes a catalog file, picking the format from name's extension,
// and validates every entry.
func Parse(name string, data []byte) ([]models.Item, error) {
	var entries []Entry
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, errors.Wrapf(err, "catalog: decode %s", name)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, errors.Wrapf(err, "catalog: decode %s", name)
		}
	default:
		return nil, fmt.Errorf("catalog: unsupported file extension %q", ext)
	}

	if err := Validate(entries); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.Item{
			Name:        strings.TrimSpace(e.Name),
			Description: e.Description,
			Price:       e.Price,
			Rarity:      strings.TrimSpace(e.Rarity),
		})
	}
	return items, nil
}

// LoadFile reads and parses a catalog file from disk.
func LoadFile(path string) ([]models.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: read file")
	}
	return Parse(path, data)
}

// Validate checks every entry and reports the first problem with its index.
func Validate(entries []Entry) error {
	if len(entries) == 0 {
		return errors.New("catalog: no items")
	}
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		switch {
		case name == "":
			return fmt.Errorf("catalog: item %d: nom is required", i)
		case strings.TrimSpace(e.Rarity) == "":
			return fmt.Errorf("catalog: item %d (%s): rarete is required", i, name)
		case e.Price < 0:
			return fmt.Errorf("catalog: item %d (%s): prix must not be negative", i, name)
		}
		if j, dup := seen[name]; dup {
			return fmt.Errorf("catalog: item %d duplicates item %d (%s)", i, j, name)
		}
		seen[name] = i
	}
	return nil
}

// ItemImporter inserts items whose name is not yet in the catalog.
type ItemImporter interface {
	ImportItems(ctx context.Context, items []models.Item) (int, error)
}

// Invalidator drops a cached catalog.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Result summarises an import.
type Result struct {
	Inserted int
	Skipped  int
}

// Importer writes parsed items to the store and clears the catalog cache.
type Importer struct {
	items ItemImporter
	cache Invalidator
	log   logrus.FieldLogger
}

// NewImporter builds an Importer. cache may be nil when no cache is configured.
func NewImporter(items ItemImporter, cache Invalidator, log logrus.FieldLogger) *Importer {
	return &Importer{items: items, cache: cache, log: log}
}

func (im *Importer) Import(ctx context.Context, items []models.Item) (Result, error) {
	inserted, err := im.items.ImportItems(ctx, items)
	if err != nil {
		return Result{}, err
	}
	res := Result{Inserted: inserted, Skipped: len(items) - inserted}

	if im.cache != nil && inserted > 0 {
		if err := im.cache.Invalidate(ctx); err != nil {
			im.log.WithError(err).Warn("catalog cache invalidation failed")
		}
	}
	im.log.WithFields(logrus.Fields{
		"inserted": res.Inserted,
		"skipped":  res.Skipped,
	}).Info("catalog imported")
	return res, nil
}
