package economy

import (
	"math"
	"math/big"
	"sync"
)

// pow returns the exact rational base^n rounded once to the nearest float64
// (ties to even). This is the correctly rounded power, so it can sit one ulp
// away from a libm pow: 1.5^34 is 0x412d9fe779881944 here and ...945 from
// glibc. Cost and production tables are defined on the correctly rounded value.
func pow(base float64, n int) float64 {
	if n <= 0 {
		return 1
	}
	return powTableFor(base).at(n)
}

const powCacheLevels = 128

type powTable struct {
	base float64

	mu   sync.Mutex
	vals []float64
}

var (
	powTablesMu sync.Mutex
	powTables   = map[float64]*powTable{}
)

func powTableFor(base float64) *powTable {
	powTablesMu.Lock()
	defer powTablesMu.Unlock()
	t := powTables[base]
	if t == nil {
		t = &powTable{base: base, vals: []float64{1}}
		powTables[base] = t
	}
	return t
}

func (t *powTable) at(n int) float64 {
	if n >= powCacheLevels {
		return exactPow(t.base, n)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.vals) <= n {
		t.vals = append(t.vals, exactPow(t.base, len(t.vals)))
	}
	return t.vals[n]
}

func exactPow(base float64, n int) float64 {
	b := new(big.Rat).SetFloat64(base)
	acc := new(big.Rat).SetInt64(1)
	for i := 0; i < n; i++ {
		acc.Mul(acc, b)
	}
	f, _ := acc.Float64()
	return f
}

// roundHalfEven rounds ties to the even neighbour (112.5 -> 112).
func roundHalfEven(x float64) float64 { return math.RoundToEven(x) }
