package draft

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the card pool the allocator draws from, split by rarity.
type Catalog struct {
	Common []CardID
	Epic   []CardID
}

// Size returns the total number of cards in the catalog.
func (c Catalog) Size() int {
	return len(c.Common) + len(c.Epic)
}

// Exclude returns a copy of the catalog with every card whose normalized
// id appears in the given set removed.
func (c Catalog) Exclude(set map[CardID]bool) Catalog {
	var out Catalog
	for _, id := range c.Common {
		if !set[NormalizeCardID(id)] {
			out.Common = append(out.Common, id)
		}
	}
	for _, id := range c.Epic {
		if !set[NormalizeCardID(id)] {
			out.Epic = append(out.Epic, id)
		}
	}
	return out
}

// CatalogFile represents the top-level YAML structure.
type CatalogFile struct {
	Cards []CatalogEntry `yaml:"cards"`
}

// CatalogEntry represents a single card in the YAML file.
type CatalogEntry struct {
	ID     string `yaml:"id"`
	Rarity string `yaml:"rarity"`
}

// ParseCatalogFile parses a YAML catalog file into a Catalog.
func ParseCatalogFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}

	var cf CatalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog YAML: %w", err)
	}

	var cat Catalog
	for _, entry := range cf.Cards {
		r, ok := ParseRarity(entry.Rarity)
		if !ok {
			return Catalog{}, fmt.Errorf("card %q: unknown rarity %q", entry.ID, entry.Rarity)
		}
		switch r {
		case RarityCommon:
			cat.Common = append(cat.Common, CardID(entry.ID))
		case RarityEpic:
			cat.Epic = append(cat.Epic, CardID(entry.ID))
		}
	}

	if cat.Size() == 0 {
		return Catalog{}, fmt.Errorf("catalog %s contains no cards", path)
	}
	return cat, nil
}
