package economy

import (
	"math"
	"testing"
)

func TestPow_CorrectlyRounded(t *testing.T) {
	cases := []struct {
		base float64
		n    int
		bits uint64
	}{
		{1.5, 34, 0x412d9fe779881944},
		{1.5, 61, 0x4229aeb6ecc6cc8f},
		{1.75, 101, 0x45074f3c6c8b69b3},
		{1.1, 0, 0x3ff0000000000000},
		{2, 19, 0x4120000000000000},
	}
	for _, c := range cases {
		if got := math.Float64bits(pow(c.base, c.n)); got != c.bits {
			t.Fatalf("pow(%v,%d): got %#x want %#x", c.base, c.n, got, c.bits)
		}
	}
}

func TestPow_CachedAndUncachedAgree(t *testing.T) {
	for _, n := range []int{1, 34, 127} {
		if pow(1.5, n) != exactPow(1.5, n) {
			t.Fatalf("pow(1.5,%d) differs from exactPow", n)
		}
	}
	if got, want := pow(1.5, powCacheLevels+3), exactPow(1.5, powCacheLevels+3); got != want {
		t.Fatalf("beyond cache: got %v want %v", got, want)
	}
}
