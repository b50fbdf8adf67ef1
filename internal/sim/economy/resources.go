package economy

import "math"

// Resource weights used to collapse a stockpile into a single metal-equivalent value.
const (
	MetalWeight     = 1.0
	CrystalWeight   = 2.0
	DeuteriumWeight = 3.0
)

// Resources is a metal/crystal/deuterium triple. Values are always integral.
type Resources struct {
	Metal     float64 `json:"metal"`
	Crystal   float64 `json:"crystal"`
	Deuterium float64 `json:"deuterium"`
}

// Modifier holds dimensionless production percentages per resource kind.
type Modifier struct {
	Metal     float64 `json:"metal"`
	Crystal   float64 `json:"crystal"`
	Deuterium float64 `json:"deuterium"`
}

func Zero() Resources { return Resources{} }

func (r Resources) Add(o Resources) Resources {
	return Resources{
		Metal:     r.Metal + o.Metal,
		Crystal:   r.Crystal + o.Crystal,
		Deuterium: r.Deuterium + o.Deuterium,
	}
}

func (r Resources) Sub(o Resources) Resources {
	return Resources{
		Metal:     r.Metal - o.Metal,
		Crystal:   r.Crystal - o.Crystal,
		Deuterium: r.Deuterium - o.Deuterium,
	}
}

// Scale multiplies elementwise by m and floors each component.
func (r Resources) Scale(m Modifier) Resources {
	return Resources{
		Metal:     math.Floor(float64(r.Metal * m.Metal)),
		Crystal:   math.Floor(float64(r.Crystal * m.Crystal)),
		Deuterium: math.Floor(float64(r.Deuterium * m.Deuterium)),
	}
}

// WeightedValue is metal*1 + crystal*2 + deuterium*3.
func (r Resources) WeightedValue() float64 {
	m := float64(r.Metal * MetalWeight)
	c := float64(r.Crystal * CrystalWeight)
	d := float64(r.Deuterium * DeuteriumWeight)
	return m + c + d
}

// Sum is the unweighted component total; spending adds Sum/1000 to the score.
func (r Resources) Sum() float64 {
	return r.Metal + r.Crystal + r.Deuterium
}

// CanAfford compares weighted values, so resources are fungible across kinds.
func (r Resources) CanAfford(cost Resources) bool {
	return r.WeightedValue() >= cost.WeightedValue()
}

func (r Resources) Array() [3]float64 {
	return [3]float64{r.Metal, r.Crystal, r.Deuterium}
}

func (m Modifier) Sub(o Modifier) Modifier {
	return Modifier{
		Metal:     m.Metal - o.Metal,
		Crystal:   m.Crystal - o.Crystal,
		Deuterium: m.Deuterium - o.Deuterium,
	}
}
