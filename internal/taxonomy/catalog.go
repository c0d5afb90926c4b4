package taxonomy

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the immutable set of recognized categories and their profiles.
// Built once at startup; all methods are read-only.
type Catalog struct {
	ordered []Profile
	byslug  map[Category]*Profile
}

type catalogDoc struct {
	Categories []Profile `yaml:"categories"`
}

// Default loads the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return parse(defaultCatalog)
}

// Load reads a catalog from r, for deployments that override the embedded
// knowledge base with a file.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: read catalog: %w", err)
	}
	return parse(data)
}

// LoadFile reads a catalog from the given path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("taxonomy: open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

func parse(data []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("taxonomy: parse catalog: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy: catalog has no categories")
	}

	c := &Catalog{
		ordered: doc.Categories,
		byslug:  make(map[Category]*Profile, len(doc.Categories)),
	}
	for i := range c.ordered {
		p := &c.ordered[i]
		switch {
		case p.Category == "":
			return nil, fmt.Errorf("taxonomy: entry %d has empty category", i)
		case p.Category == Unknown:
			return nil, fmt.Errorf("taxonomy: %q is reserved as the sentinel", Unknown)
		case p.Name == "" || p.Description == "":
			return nil, fmt.Errorf("taxonomy: category %q missing name or description", p.Category)
		}
		switch p.Tier {
		case TierCritical, TierHigh, TierMedium, TierLow:
		default:
			return nil, fmt.Errorf("taxonomy: category %q has invalid tier %q", p.Category, p.Tier)
		}
		if _, dup := c.byslug[p.Category]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate category %q", p.Category)
		}
		c.byslug[p.Category] = p
	}
	return c, nil
}

// Contains reports whether cat is a member of the closed taxonomy. The
// check is case-sensitive exact match; Unknown is not a member.
func (c *Catalog) Contains(cat Category) bool {
	_, ok := c.byslug[cat]
	return ok
}

// Profile returns the knowledge-base entry for cat.
func (c *Catalog) Profile(cat Category) (*Profile, bool) {
	p, ok := c.byslug[cat]
	return p, ok
}

// Profiles returns all entries in catalog order. Callers must not mutate
// the returned slice.
func (c *Catalog) Profiles() []Profile {
	return c.ordered
}

// Len returns the number of categories, not counting the Unknown sentinel.
func (c *Catalog) Len() int {
	return len(c.ordered)
}
