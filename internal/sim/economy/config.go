package economy

const (
	DefaultMaxColonySlots       = 20
	DefaultColonyMaxTemperature = -115
)

// Config fixes the per-player economy constants.
type Config struct {
	// MaxColonySlots caps the colony list; the action space and observation are sized from it.
	MaxColonySlots       int
	ColonyMaxTemperature float64
	Exploration          ExplorationConfig
}

// Normalize raises MaxColonySlots to at least 1: the first colony always
// exists, so the action space and observation must have room for it.
func (c Config) Normalize() Config {
	if c.MaxColonySlots < 1 {
		c.MaxColonySlots = 1
	}
	return c
}

func DefaultConfig() Config {
	return Config{
		MaxColonySlots:       DefaultMaxColonySlots,
		ColonyMaxTemperature: DefaultColonyMaxTemperature,
		Exploration:          DefaultExplorationConfig(),
	}
}
