// Package catalog provides the read-only exercise catalog used by the
// session engine for candidate scoring. The catalog is assumed static
// within a session.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/claude/liftplan/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed exercises.yaml
var embeddedCatalog []byte

// Exercise is one catalog entry. Order in the source file is the
// tie-break key for candidate scoring, so repeated selections are
// deterministic.
type Exercise struct {
	ID              string                `yaml:"id" json:"id"`
	Name            string                `yaml:"name" json:"name"`
	Pattern         string                `yaml:"pattern" json:"pattern"` // movement pattern: push, pull, hinge, squat, lunge, carry, core
	Intents         []string              `yaml:"intents" json:"intents"`
	MuscleGroups    []string              `yaml:"muscle_groups" json:"muscle_groups"`
	Class           models.EquipmentClass `yaml:"class" json:"class"`
	Equipment       []string              `yaml:"equipment" json:"equipment"` // required equipment ids; empty = none
	Compound        bool                  `yaml:"compound" json:"compound"`
	DefaultWeightKg float64               `yaml:"default_weight_kg" json:"default_weight_kg"`
	InjuryConflicts []string              `yaml:"injury_conflicts" json:"injury_conflicts"`

	// Order is assigned at load time from file position.
	Order int `yaml:"-" json:"order"`
}

// HasIntent reports whether the exercise serves the given movement intent.
func (e Exercise) HasIntent(intent string) bool {
	for _, i := range e.Intents {
		if i == intent {
			return true
		}
	}
	return false
}

// Catalog is an immutable, ordered exercise lookup.
type Catalog struct {
	list []Exercise
	byID map[string]Exercise
}

type catalogFile struct {
	Exercises []Exercise `yaml:"exercises"`
}

// Default loads the embedded catalog.
func Default() (*Catalog, error) {
	return parse(embeddedCatalog)
}

// Load reads a catalog from a YAML file, falling back to the embedded
// catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(f.Exercises) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	c := &Catalog{byID: make(map[string]Exercise, len(f.Exercises))}
	for i, e := range f.Exercises {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate exercise id %q", e.ID)
		}
		e.Order = i
		c.byID[e.ID] = e
		c.list = append(c.list, e)
	}
	return c, nil
}

// ByID looks up one exercise.
func (c *Catalog) ByID(id string) (Exercise, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// List returns all exercises in catalog order. The returned slice is a
// copy; callers may not mutate the catalog.
func (c *Catalog) List() []Exercise {
	return append([]Exercise(nil), c.list...)
}

// Len returns the number of exercises.
func (c *Catalog) Len() int { return len(c.list) }
