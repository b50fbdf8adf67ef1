// Package digest hashes the full economy state of a player. Two players that
// went through the same action stream always hash equal.
package digest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"ogamesim/internal/sim/economy"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func StateDigest(p *economy.Player) string {
	h := sha256.New()
	var tmp [8]byte

	digestHeader(h, &tmp, p)
	digestTechnologies(h, &tmp, p)
	digestColonies(h, &tmp, p.Colonies())
	digestLedger(h, &tmp, p.Ledger())

	return hex.EncodeToString(h.Sum(nil))
}

func digestHeader(h hashWriter, tmp *[8]byte, p *economy.Player) {
	h.Write([]byte("ogamesim.player.v1"))
	digestWriteI64(h, tmp, int64(p.Day()))
	digestWriteF64(h, tmp, p.Points())
	digestWriteResources(h, tmp, p.Resources())
}

func digestTechnologies(h hashWriter, tmp *[8]byte, p *economy.Player) {
	digestWriteI64(h, tmp, int64(p.Astrophysics().Level()))
	digestWriteResources(h, tmp, p.Astrophysics().UpgradeCost())
	digestWriteI64(h, tmp, int64(p.Plasma().Level()))
	digestWriteResources(h, tmp, p.Plasma().UpgradeCost())
}

func digestColonies(h hashWriter, tmp *[8]byte, colonies []*economy.Colony) {
	digestWriteU64(h, tmp, uint64(len(colonies)))
	for _, c := range colonies {
		digestWriteF64(h, tmp, c.MaxTemperature())
		for _, k := range economy.MineKinds {
			m := c.Mine(k)
			digestWriteI64(h, tmp, int64(m.Level()))
			digestWriteResources(h, tmp, m.TodaysProduction())
			digestWriteResources(h, tmp, m.UpgradeCost())
		}
	}
}

func digestLedger(h hashWriter, tmp *[8]byte, l *economy.ExplorationLedger) {
	redeemed := l.RedeemedBuckets()
	digestWriteU64(h, tmp, uint64(len(redeemed)))
	for _, b := range redeemed {
		digestWriteU64(h, tmp, uint64(b))
	}
}

func digestWriteResources(h hashWriter, tmp *[8]byte, r economy.Resources) {
	digestWriteF64(h, tmp, r.Metal)
	digestWriteF64(h, tmp, r.Crystal)
	digestWriteF64(h, tmp, r.Deuterium)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}
