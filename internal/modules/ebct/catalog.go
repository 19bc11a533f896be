// Package ebct implements the technology-based company (EBCT) trajectory
// assessment: the phase/characteristic catalog, tri-state responses, phase
// completion summaries and the evaluation history.
package ebct

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Phase is one stage of the EBCT trajectory.
type Phase struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Subtitle string `yaml:"subtitle" json:"subtitle"`
	Accent   string `yaml:"accent" json:"accent"`
	Order    int    `yaml:"order" json:"order"`
}

// Characteristic is one assessable capability, assigned to a phase. The colors
// drive the panel chip gradient; ColorSecondary falls back to ColorPrimary.
type Characteristic struct {
	ID             int     `yaml:"id" json:"id"`
	Name           string  `yaml:"name" json:"name"`
	PhaseID        string  `yaml:"phase" json:"phase_id"`
	PhaseName      string  `yaml:"-" json:"phase_name"`
	Order          int     `yaml:"order" json:"order"`
	Weight         float64 `yaml:"weight" json:"weight"`
	ColorPrimary   string  `yaml:"color" json:"color_primary"`
	ColorSecondary string  `yaml:"color2" json:"color_secondary"`
}

// Catalog holds the phases and characteristics of the assessment.
type Catalog struct {
	Palette         map[string]string `yaml:"palette" json:"-"`
	Phases          []Phase           `yaml:"phases" json:"phases"`
	Characteristics []Characteristic  `yaml:"characteristics" json:"characteristics"`

	byID    map[int]*Characteristic
	byPhase map[string][]Characteristic
}

// LoadCatalog parses and validates the embedded assessment catalog. Palette
// keys in accent/color fields are resolved to their hex values.
func LoadCatalog() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return nil, fmt.Errorf("failed to parse assessment catalog: %w", err)
	}
	if len(c.Phases) == 0 || len(c.Characteristics) == 0 {
		return nil, fmt.Errorf("assessment catalog is incomplete")
	}

	sort.Slice(c.Phases, func(i, j int) bool { return c.Phases[i].Order < c.Phases[j].Order })

	phaseNames := make(map[string]string, len(c.Phases))
	for i := range c.Phases {
		phase := &c.Phases[i]
		if hex, ok := c.Palette[phase.Accent]; ok {
			phase.Accent = hex
		}
		phaseNames[phase.ID] = phase.Name
	}

	c.byID = make(map[int]*Characteristic, len(c.Characteristics))
	c.byPhase = make(map[string][]Characteristic, len(c.Phases))
	for i := range c.Characteristics {
		item := &c.Characteristics[i]
		name, ok := phaseNames[item.PhaseID]
		if !ok {
			return nil, fmt.Errorf("characteristic %d references unknown phase %s", item.ID, item.PhaseID)
		}
		item.PhaseName = name
		if item.Weight == 0 {
			item.Weight = 1.0
		}
		if hex, ok := c.Palette[item.ColorPrimary]; ok {
			item.ColorPrimary = hex
		}
		if item.ColorSecondary == "" {
			item.ColorSecondary = item.ColorPrimary
		} else if hex, ok := c.Palette[item.ColorSecondary]; ok {
			item.ColorSecondary = hex
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate characteristic id %d", item.ID)
		}
		c.byID[item.ID] = item
	}

	for _, phase := range c.Phases {
		var items []Characteristic
		for _, item := range c.Characteristics {
			if item.PhaseID == phase.ID {
				items = append(items, item)
			}
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Order < items[j].Order })
		c.byPhase[phase.ID] = items
	}

	return &c, nil
}

// Characteristic returns the characteristic with the given id, or nil.
func (c *Catalog) Characteristic(id int) *Characteristic {
	return c.byID[id]
}

// ByPhase returns a phase's characteristics in visual order.
func (c *Catalog) ByPhase(phaseID string) []Characteristic {
	return c.byPhase[phaseID]
}
