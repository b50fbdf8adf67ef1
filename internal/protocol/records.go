package protocol

// StepLogEntry is one line of an episode step log.
type StepLogEntry struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	EpisodeID       string  `json:"episode_id"`
	Step            int     `json:"step"`
	Day             int     `json:"day"`
	Action          int     `json:"action"`
	Target          string  `json:"target,omitempty"`
	Reward          float64 `json:"reward"`
	Code            string  `json:"code,omitempty"`
	Points          float64 `json:"points"`
	Digest          string  `json:"digest"`
}

type LevelStats struct {
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
}

// EpisodeSummary is written once per finished episode.
type EpisodeSummary struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	EpisodeID       string `json:"episode_id"`
	Policy          string `json:"policy"`
	Seed            int64  `json:"seed"`

	Length           int     `json:"episodic_length"`
	Return           float64 `json:"episodic_return"`
	Points           float64 `json:"points"`
	Day              int     `json:"day"`
	Astrophysics     int     `json:"astrophysics"`
	PlasmaTechnology int     `json:"plasma_technology"`
	Colonies         int     `json:"colonies"`

	Metal     LevelStats `json:"metal"`
	Crystal   LevelStats `json:"crystal"`
	Deuterium LevelStats `json:"deuterium"`

	Digest string `json:"digest"`
}
