package economy

import "math"

// ExplorationConfig sizes the one-shot score bucket table.
type ExplorationConfig struct {
	BucketSize float64 `json:"bucket_size"`
	ScoreCap   float64 `json:"score_cap"`
	MaxValue   float64 `json:"max_value"`
}

func DefaultExplorationConfig() ExplorationConfig {
	return ExplorationConfig{
		BucketSize: 5_000_000,
		ScoreCap:   300_000_000,
		MaxValue:   25,
	}
}

// BucketCount is the number of buckets covering [0, ScoreCap).
func (c ExplorationConfig) BucketCount() int {
	if c.BucketSize <= 0 {
		return 0
	}
	return int(c.ScoreCap / c.BucketSize)
}

// ExplorationLedger pays each score bucket's bonus at most once. One ledger
// belongs to one Player.
type ExplorationLedger struct {
	cfg      ExplorationConfig
	values   []float64
	redeemed []bool
}

func NewExplorationLedger(cfg ExplorationConfig) *ExplorationLedger {
	n := cfg.BucketCount()
	l := &ExplorationLedger{
		cfg:      cfg,
		values:   make([]float64, n),
		redeemed: make([]bool, n),
	}
	for i := range l.values {
		l.values[i] = cfg.MaxValue / float64(n) * float64(i)
	}
	return l
}

// Bucket maps points to a bucket index, or -1 when points fall outside [0, ScoreCap).
func (l *ExplorationLedger) Bucket(points float64) int {
	if l.cfg.BucketSize <= 0 || points < 0 {
		return -1
	}
	i := int(math.Floor(points / l.cfg.BucketSize))
	if i >= len(l.values) {
		return -1
	}
	return i
}

// Redeem returns the bucket value for points the first time the bucket is hit, then 0.
func (l *ExplorationLedger) Redeem(points float64) float64 {
	i := l.Bucket(points)
	if i < 0 || l.redeemed[i] {
		return 0
	}
	l.redeemed[i] = true
	return l.values[i]
}

func (l *ExplorationLedger) Value(i int) float64 {
	if i < 0 || i >= len(l.values) {
		return 0
	}
	return l.values[i]
}

func (l *ExplorationLedger) Redeemed(i int) bool {
	return i >= 0 && i < len(l.redeemed) && l.redeemed[i]
}

// RedeemedBuckets lists redeemed bucket indices in ascending order.
func (l *ExplorationLedger) RedeemedBuckets() []int {
	var out []int
	for i, r := range l.redeemed {
		if r {
			out = append(out, i)
		}
	}
	return out
}

// clone shares the immutable value table and copies the redeemed flags.
func (l *ExplorationLedger) clone() *ExplorationLedger {
	return &ExplorationLedger{
		cfg:      l.cfg,
		values:   l.values,
		redeemed: append([]bool(nil), l.redeemed...),
	}
}

func (l *ExplorationLedger) markRedeemed(i int) {
	if i >= 0 && i < len(l.redeemed) {
		l.redeemed[i] = true
	}
}
