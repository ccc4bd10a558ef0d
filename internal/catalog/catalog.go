// Package catalog holds the selectable content categories and niches.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AllCategories matches every niche in Filter.
const AllCategories = "all"

//go:embed niches.yaml
var defaultCatalog []byte

var ErrNicheNotFound = errors.New("niche not found")

type Category struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

type Niche struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Icon        Icon   `yaml:"icon" json:"icon"`
	Category    string `yaml:"category" json:"category"`
	Gradient    string `yaml:"gradient" json:"gradient"`
}

type file struct {
	Categories []Category `yaml:"categories"`
	Niches     []Niche    `yaml:"niches"`
}

type Catalog struct {
	categories []Category
	niches     []Niche
	byID       map[string]int
}

// Load reads the catalog from path, or the built-in catalog when path is
// empty.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	contents := defaultCatalog
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		contents = data
	}
	return Parse(contents, logger)
}

// Parse decodes and validates catalog YAML. Unknown icons fall back to
// DefaultIcon with a warning; structural problems are errors.
func Parse(contents []byte, logger *slog.Logger) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(contents, &f); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	categories := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		if c.ID == "" {
			return nil, fmt.Errorf("category with empty id")
		}
		if categories[c.ID] {
			return nil, fmt.Errorf("duplicate category %q", c.ID)
		}
		categories[c.ID] = true
	}

	cat := &Catalog{
		categories: f.Categories,
		niches:     make([]Niche, 0, len(f.Niches)),
		byID:       make(map[string]int, len(f.Niches)),
	}

	for _, n := range f.Niches {
		if n.ID == "" || n.Title == "" {
			return nil, fmt.Errorf("niche needs an id and a title")
		}
		if _, dup := cat.byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate niche %q", n.ID)
		}
		if !categories[n.Category] || n.Category == AllCategories {
			return nil, fmt.Errorf("niche %q has unknown category %q", n.ID, n.Category)
		}
		if !n.Icon.Valid() {
			logger.Warn("unknown niche icon, using default", "niche", n.ID, "icon", n.Icon, "default", DefaultIcon)
			n.Icon = DefaultIcon
		}
		cat.byID[n.ID] = len(cat.niches)
		cat.niches = append(cat.niches, n)
	}

	return cat, nil
}

func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c *Catalog) Niche(id string) (Niche, error) {
	i, ok := c.byID[id]
	if !ok {
		return Niche{}, ErrNicheNotFound
	}
	return c.niches[i], nil
}

// Filter returns niches in category (or every category for "all" or "")
// whose title, description or category contains term, ignoring case.
func (c *Catalog) Filter(category, term string) []Niche {
	term = strings.ToLower(strings.TrimSpace(term))

	out := make([]Niche, 0, len(c.niches))
	for _, n := range c.niches {
		if category != "" && category != AllCategories && n.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(n.Title), term) &&
			!strings.Contains(strings.ToLower(n.Description), term) &&
			!strings.Contains(strings.ToLower(n.Category), term) {
			continue
		}
		out = append(out, n)
	}
	return out
}
