package protocol

import "encoding/json"

const Version = "1.0"

// Record types.
const (
	TypeStep    = "STEP"
	TypeEpisode = "EPISODE"
)

// BaseMessage lets readers route JSONL records by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
