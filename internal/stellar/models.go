package stellar

// Body types produced by the generator. Star systems only ever contain these;
// other galaxy placeables (nebulae, anomalies) are not generated here.
const (
	TypeTerrestrial  = "terrestrial"
	TypeSuperEarth   = "super_earth"
	TypeOcean        = "ocean"
	TypeLava         = "lava"
	TypeChthonic     = "chthonic"
	TypeGasGiant     = "gas_giant"
	TypeIceGiant     = "ice_giant"
	TypeDwarfPlanet  = "dwarf_planet"
	TypeHotJupiter   = "hot_jupiter"
	TypeMoon         = "moon"
	TypeAsteroidBelt = "asteroid_belt"
)

// NoParent marks a body orbiting the star itself.
const NoParent = -1

// Body is a planet, moon or belt. Parent indexes System.Bodies, or is
// NoParent for bodies orbiting the star.
type Body struct {
	Type            string
	Name            string
	Parent          int
	OrbitalIndex    int
	OrbitalDistance float64
	MassJupiter     float64
	Minerals        []string
}

type System struct {
	Class       string
	Temperature int
	HasPlanets  bool
	HotJupiter  bool
	Bodies      []Body
}

// Planets counts bodies orbiting the star directly, belts excluded.
func (s System) Planets() int {
	n := 0
	for _, b := range s.Bodies {
		if b.Parent == NoParent && b.Type != TypeAsteroidBelt {
			n++
		}
	}
	return n
}

func (s System) Moons() int {
	n := 0
	for _, b := range s.Bodies {
		if b.Type == TypeMoon {
			n++
		}
	}
	return n
}
