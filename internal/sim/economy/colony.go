package economy

// Colony owns exactly one mine of each kind, all sharing the colony temperature.
type Colony struct {
	maxTemperature float64
	mines          [len(MineKinds)]*Mine
}

func NewColony(maxTemperature float64) *Colony {
	c := &Colony{maxTemperature: maxTemperature}
	for _, k := range MineKinds {
		c.mines[k] = newMine(k, maxTemperature)
	}
	return c
}

func (c *Colony) MaxTemperature() float64 { return c.maxTemperature }

// Mine returns the colony's mine of the given kind.
func (c *Colony) Mine(kind MineKind) *Mine { return c.mines[kind] }

func (c *Colony) MetalMine() *Mine            { return c.mines[MetalMine] }
func (c *Colony) CrystalMine() *Mine          { return c.mines[CrystalMine] }
func (c *Colony) DeuteriumSynthesizer() *Mine { return c.mines[DeuteriumSynthesizer] }
