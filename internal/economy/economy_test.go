package economy

import (
	"math"
	"reflect"
	"testing"

	"galaxy-forge/internal/catalog"
	"galaxy-forge/internal/rng"
)

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	return cat
}

func TestPrice(t *testing.T) {
	tests := []struct {
		base           float64
		demand, supply int
		want           float64
	}{
		{100, 50, 50, 100},
		{100, 70, 50, 120},
		{100, 50, 70, 80},
		{100, 30, 30, 96},
		{100, 70, 30, 144},
	}
	for _, tt := range tests {
		if got := Price(tt.base, tt.demand, tt.supply); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Price(%v, %d, %d) = %v, want %v", tt.base, tt.demand, tt.supply, got, tt.want)
		}
	}
}

func TestQuote(t *testing.T) {
	buy, sell := Quote(100)
	if buy != 85 || sell != 115 {
		t.Fatalf("Quote(100) = %v/%v, want 85/115", buy, sell)
	}
}

func TestSeedMinerals(t *testing.T) {
	cat := defaultCatalog(t)
	r, _ := rng.New(rng.MT19937, 42)
	n := len(cat.Minerals)

	for range 20 {
		listings := SeedMinerals(r, cat)
		if len(listings) < int(math.Ceil(float64(n)*MinMineralShare)) || len(listings) > n {
			t.Fatalf("stocked %d of %d minerals", len(listings), n)
		}
		seen := map[string]bool{}
		for _, l := range listings {
			if seen[l.Mineral] {
				t.Fatalf("mineral %s listed twice", l.Mineral)
			}
			seen[l.Mineral] = true
			if l.Demand < MinLevel || l.Demand > MaxLevel || l.Supply < MinLevel || l.Supply > MaxLevel {
				t.Fatalf("levels out of range: %+v", l)
			}
			stock := cat.MineralStock.For(l.Rarity)
			if l.Stock < stock.Min || l.Stock > stock.Max {
				t.Fatalf("stock %d outside %+v for %s", l.Stock, stock, l.Rarity)
			}
			if l.Price != Price(l.BaseValue, l.Demand, l.Supply) {
				t.Fatalf("price mismatch: %+v", l)
			}
			if !(l.BuyPrice <= l.Price && l.Price <= l.SellPrice) {
				t.Fatalf("spread inverted: %+v", l)
			}
		}
	}
}

func TestSeedShipsPerTier(t *testing.T) {
	cat := defaultCatalog(t)
	purchasable := len(cat.PurchasableShips())
	r, _ := rng.New(rng.PCG, 7)

	for range 20 {
		premium := SeedShips(r, cat, "premium")
		if len(premium) < min(5, purchasable) || len(premium) > purchasable {
			t.Fatalf("premium listed %d ships", len(premium))
		}
		for _, l := range premium {
			if l.Ship == "Void Strider" {
				t.Fatal("non-purchasable ship listed")
			}
			if l.Quantity < 1 {
				t.Fatalf("quantity %d for %s", l.Quantity, l.Ship)
			}
		}
		if major := SeedShips(r, cat, "major"); len(major) != 0 && (len(major) < 3 || len(major) > 6) {
			t.Fatalf("major listed %d ships", len(major))
		}
		if standard := SeedShips(r, cat, "standard"); len(standard) != 0 && (len(standard) < 2 || len(standard) > 4) {
			t.Fatalf("standard listed %d ships", len(standard))
		}
	}
	if got := SeedShips(r, cat, "unknown"); got != nil {
		t.Fatalf("unknown tier listed %d ships", len(got))
	}
}

func TestSeedDeterministic(t *testing.T) {
	cat := defaultCatalog(t)
	a, _ := rng.New(rng.ChaCha8, 9)
	b, _ := rng.New(rng.ChaCha8, 9)
	if !reflect.DeepEqual(SeedMinerals(a, cat), SeedMinerals(b, cat)) {
		t.Fatal("mineral seeding differs for the same seed")
	}
	if !reflect.DeepEqual(SeedShips(a, cat, "major"), SeedShips(b, cat, "major")) {
		t.Fatal("ship seeding differs for the same seed")
	}
}

func TestReprice(t *testing.T) {
	l := MineralListing{BaseValue: 200}
	l.Reprice(150, -10)
	if l.Demand != 100 || l.Supply != 0 {
		t.Fatalf("levels not clamped: %+v", l)
	}
	if l.Price != Price(200, 100, 0) {
		t.Fatalf("price = %v", l.Price)
	}
}
