package protocol

// Outcome codes. An empty code means the action succeeded.
const (
	// Caller faults (action id outside the action space).
	ErrBadRequest = "E_BAD_REQUEST"

	// Rule/action layer.
	ErrNoResource    = "E_NO_RESOURCE"
	ErrInvalidTarget = "E_INVALID_TARGET"

	// Replay/persistence.
	ErrDigestMismatch = "E_DIGEST_MISMATCH"
	ErrInternal       = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:     {},
	ErrNoResource:     {},
	ErrInvalidTarget:  {},
	ErrDigestMismatch: {},
	ErrInternal:       {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
