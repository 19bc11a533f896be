// Package maturity implements the six-dimension readiness-level evaluation:
// the embedded level catalog, the per-level answer state machine, the
// consecutive-level score walk and the evaluation history.
package maturity

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Level is one readiness level within a dimension, with its yes/no questions.
type Level struct {
	Level       int      `yaml:"level" json:"nivel"`
	Description string   `yaml:"description" json:"descripcion"`
	Questions   []string `yaml:"questions" json:"preguntas"`
}

// Dimension is one readiness dimension (TRL, BRL, CRL, IPRL, TmRL, FRL).
type Dimension struct {
	ID     string  `yaml:"id" json:"id"`
	Label  string  `yaml:"label" json:"label"`
	Levels []Level `yaml:"levels" json:"niveles"`
}

// Catalog holds the full set of dimensions and levels.
type Catalog struct {
	Dimensions []Dimension `yaml:"dimensions" json:"dimensiones"`

	byID map[string]*Dimension
}

// LoadCatalog parses and validates the embedded level catalog.
func LoadCatalog() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return nil, fmt.Errorf("failed to parse level catalog: %w", err)
	}
	if len(c.Dimensions) == 0 {
		return nil, fmt.Errorf("level catalog has no dimensions")
	}

	c.byID = make(map[string]*Dimension, len(c.Dimensions))
	for i := range c.Dimensions {
		dim := &c.Dimensions[i]
		if dim.ID == "" {
			return nil, fmt.Errorf("dimension %d has no id", i)
		}
		if _, dup := c.byID[dim.ID]; dup {
			return nil, fmt.Errorf("duplicate dimension %s", dim.ID)
		}
		for j, level := range dim.Levels {
			if level.Level != j+1 {
				return nil, fmt.Errorf("dimension %s: level %d out of sequence", dim.ID, level.Level)
			}
		}
		c.byID[dim.ID] = dim
	}
	return &c, nil
}

// Dimension returns the dimension with the given id, or nil.
func (c *Catalog) Dimension(id string) *Dimension {
	return c.byID[id]
}

// Level returns the level definition for a dimension, or nil.
func (c *Catalog) Level(dimensionID string, level int) *Level {
	dim := c.byID[dimensionID]
	if dim == nil {
		return nil
	}
	for i := range dim.Levels {
		if dim.Levels[i].Level == level {
			return &dim.Levels[i]
		}
	}
	return nil
}

// IDs returns the dimension ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Dimensions))
	for i, dim := range c.Dimensions {
		ids[i] = dim.ID
	}
	return ids
}

// Labels returns the dimension labels keyed by id.
func (c *Catalog) Labels() map[string]string {
	labels := make(map[string]string, len(c.Dimensions))
	for _, dim := range c.Dimensions {
		labels[dim.ID] = dim.Label
	}
	return labels
}
