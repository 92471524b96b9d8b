package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultCatalogLoads parses the embedded catalog and spot-checks a
// known entry.
func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("embedded catalog is empty")
	}
	e, ok := c.ByID("barbell-bench-press")
	if !ok {
		t.Fatal("barbell-bench-press missing from embedded catalog")
	}
	if !e.Compound {
		t.Error("barbell-bench-press should be compound")
	}
	if !e.HasIntent("horizontal_push") {
		t.Error("barbell-bench-press should serve horizontal_push")
	}
	if e.HasIntent("hinge") {
		t.Error("barbell-bench-press should not serve hinge")
	}
}

// TestCatalogOrderIsStable verifies load order is preserved in both
// Order fields and List(), since scoring uses it as the tie-break.
func TestCatalogOrderIsStable(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	list := c.List()
	for i, e := range list {
		if e.Order != i {
			t.Fatalf("exercise %q at position %d has Order %d", e.ID, i, e.Order)
		}
	}
	// List returns a copy, mutating it must not affect the catalog.
	list[0].ID = "mutated"
	if _, ok := c.ByID(list[1].ID); !ok {
		t.Fatal("catalog lookup broken after caller mutation")
	}
	if c.List()[0].ID == "mutated" {
		t.Error("List() exposed internal slice")
	}
}

// TestLoadFromFile reads a catalog override from disk.
func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := `exercises:
  - id: goblet-squat
    name: Goblet Squat
    pattern: squat
    intents: [squat]
    muscle_groups: [quads, glutes]
    class: dumbbell
    equipment: [dumbbells]
    compound: true
    default_weight_kg: 16
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.ByID("goblet-squat"); !ok {
		t.Error("goblet-squat not found")
	}
}

// TestLoadEmptyPathFallsBack uses the embedded catalog when no path is
// configured.
func TestLoadEmptyPathFallsBack(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("fallback catalog is empty")
	}
}

// TestParseRejectsDuplicates fails on a duplicate exercise id.
func TestParseRejectsDuplicates(t *testing.T) {
	data := []byte(`exercises:
  - id: push-up
    name: Push-Up
  - id: push-up
    name: Push-Up Again
`)
	if _, err := parse(data); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

// TestParseRejectsMissingID fails on an entry without an id.
func TestParseRejectsMissingID(t *testing.T) {
	data := []byte(`exercises:
  - name: Nameless
`)
	if _, err := parse(data); err == nil {
		t.Fatal("expected missing id error")
	}
}
