// Package technique provides the jutsu catalog loaded from YAML content files.
package technique

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CostType names the resource a technique spends when used.
type CostType string

const (
	CostChakra  CostType = "chakra"
	CostStamina CostType = "stamina"
)

// Technique defines a usable jutsu loaded from YAML.
type Technique struct {
	Name        string   `yaml:"name"`
	Rank        string   `yaml:"rank"`
	Description string   `yaml:"description"`
	CostType    CostType `yaml:"cost_type"`
	CostAmount  int      `yaml:"cost_amount"`
	BaseDamage  int      `yaml:"base_damage"`
	// Effect is an optional status effect applied to the target on hit.
	Effect string `yaml:"effect"`
}

// Validate checks that the technique satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff Name is non-empty, CostType is a known value,
// CostAmount >= 0, and BaseDamage >= 0; returns an error on the first
// violation otherwise.
func (t *Technique) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("technique: name must not be empty")
	}
	switch t.CostType {
	case CostChakra, CostStamina, "":
	default:
		return fmt.Errorf("technique %q: unknown cost_type %q", t.Name, t.CostType)
	}
	if t.CostAmount < 0 {
		return fmt.Errorf("technique %q: cost_amount must be >= 0", t.Name)
	}
	if t.BaseDamage < 0 {
		return fmt.Errorf("technique %q: base_damage must be >= 0", t.Name)
	}
	return nil
}

// Catalog is an immutable, case-insensitive lookup of techniques by name.
type Catalog struct {
	byName map[string]*Technique
	names  []string
}

// NewCatalog builds a catalog from a set of validated techniques.
//
// Postcondition: Returns an error if any technique fails validation or if two
// techniques share a name ignoring case.
func NewCatalog(techniques []*Technique) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Technique, len(techniques))}
	for _, t := range techniques {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(t.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("technique %q: duplicate name", t.Name)
		}
		c.byName[key] = t
		c.names = append(c.names, t.Name)
	}
	return c, nil
}

// Lookup returns the technique with the given name, matched case-insensitively.
func (c *Catalog) Lookup(name string) (*Technique, bool) {
	t, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Names returns the canonical technique names in load order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of techniques in the catalog.
func (c *Catalog) Len() int {
	return len(c.byName)
}

// LoadFromBytes parses a list of techniques from raw YAML bytes.
//
// Precondition: data must be valid YAML for a []Technique.
func LoadFromBytes(data []byte) ([]*Technique, error) {
	var techniques []*Technique
	if err := yaml.Unmarshal(data, &techniques); err != nil {
		return nil, fmt.Errorf("parsing technique YAML: %w", err)
	}
	for _, t := range techniques {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return techniques, nil
}

// LoadCatalog reads all *.yaml files in dir and returns a catalog of every
// technique they define.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns the full catalog or an error on the first parse,
// validate, or duplicate-name failure; on error, the partial result is
// discarded.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading technique dir %q: %w", dir, err)
	}

	var all []*Technique
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		techniques, err := LoadFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		all = append(all, techniques...)
	}
	return NewCatalog(all)
}
