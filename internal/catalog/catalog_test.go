package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"galaxy-forge/internal/weighted"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default(): %v", err)
	}
	if c.Version <= 0 {
		t.Errorf("Version = %d", c.Version)
	}

	wantWeights := map[string]float64{"O": 1, "B": 3, "A": 6, "F": 30, "G": 76, "K": 121, "M": 763}
	if len(c.StarClasses) != len(wantWeights) {
		t.Fatalf("got %d star classes, want %d", len(c.StarClasses), len(wantWeights))
	}
	for _, sc := range c.StarClasses {
		if sc.Weight != wantWeights[sc.Class] {
			t.Errorf("class %s weight = %v, want %v", sc.Class, sc.Weight, wantWeights[sc.Class])
		}
		if sc.InnerTable() == nil {
			t.Errorf("class %s has no inner planet table", sc.Class)
		}
	}
	if c.ClassTable().Total() != 1000 {
		t.Errorf("class weight total = %v, want 1000", c.ClassTable().Total())
	}
	if got := len(c.Minerals); got != 26 {
		t.Errorf("mineral count = %d, want 26", got)
	}
	if got := len(c.PurchasableShips()); got != 9 {
		t.Errorf("purchasable ships = %d, want 9", got)
	}
}

func TestTableLookups(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default(): %v", err)
	}
	if c.OuterTable(0.9) == c.OuterTable(0.5) {
		t.Error("far and near outer tables are the same table")
	}
	if c.OuterTable(0.7) != c.OuterTable(0.4) {
		t.Error("position 0.7 should use the near table")
	}
	if c.MoonTable("lava", 0.5) != nil {
		t.Error("inner lava planets should have no moon table")
	}
	if c.MoonTable("gas_giant", 5) == nil {
		t.Error("outer gas giants should have a moon table")
	}
	if c.MineralStock.For("rare") != (IntRange{Min: 500, Max: 3000}) {
		t.Errorf("rare stock = %+v", c.MineralStock.For("rare"))
	}
	if c.MineralStock.For("mythic") != c.MineralStock.Default {
		t.Error("mythic stock should fall back to default")
	}
	if _, ok := c.ShipyardFor("premium"); !ok {
		t.Error("premium shipyard missing")
	}
}

func TestParseRejectsZeroWeightTable(t *testing.T) {
	doc := strings.Replace(string(defaultDocument),
		"    - { type: gas_giant, weight: 70 }\n    - { type: ice_giant, weight: 25 }\n    - { type: super_earth, weight: 5 }",
		"    - { type: gas_giant, weight: 0 }", 1)
	if doc == string(defaultDocument) {
		t.Fatal("fixture replacement did not apply")
	}
	_, err := Parse([]byte(doc))
	if !errors.Is(err, weighted.ErrZeroWeight) {
		t.Fatalf("Parse error = %v, want ErrZeroWeight", err)
	}
}

func TestParseRejectsBadYAML(t *testing.T) {
	if _, err := Parse([]byte("version: [")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Parse([]byte("version: 0")); err == nil {
		t.Fatal("expected validation error for version 0")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	doc := strings.Replace(string(defaultDocument), "version: 3", "version: 9", 1)
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Version != 9 {
		t.Errorf("Version = %d, want 9", c.Version)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
