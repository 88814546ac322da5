package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Ivans-11/Minecraftify/chunk"
	"github.com/Ivans-11/Minecraftify/world"
	"github.com/Ivans-11/Minecraftify/world/chunkstore"
)

// noiseGrid fills percentage of a chunk with random values in [1, maxValue].
func noiseGrid(percentage float64, maxValue int, r *rand.Rand) *chunk.Grid {
	percentage = min(max(percentage, 0), 100)
	want := int(float64(chunk.Volume)*(percentage/100.0) + 0.5)

	// partial Fisher-Yates over the linear cell indices
	idx := make([]int, chunk.Volume)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < want; i++ {
		j := i + r.Intn(chunk.Volume-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	g := new(chunk.Grid)
	for _, i := range idx[:want] {
		y := i / (chunk.Size * chunk.Size)
		rem := i % (chunk.Size * chunk.Size)
		g.Set(rem/chunk.Size, y, rem%chunk.Size, uint8(1+r.Intn(maxValue)))
	}
	return g
}

// RunGenerateNoise creates a chunk world holding amount chunks of random
// blocks in a row along +x, each filled with a percentage drawn from
// [percentageMin, percentageMax]. A zero seed uses the clock. Useful for
// measuring pack layouts and compression.
func RunGenerateNoise(percentageMin, percentageMax float64, amount int, dir string, seed int64) error {
	if amount < 1 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}
	if percentageMax < percentageMin {
		percentageMin, percentageMax = percentageMax, percentageMin
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s, err := chunkstore.Create(dir, world.DefaultVersion)
	if err != nil {
		return err
	}
	defer s.Close()
	blocks := len(s.Manifest().Blocks)

	const weyl = uint64(0x9e3779b97f4a7c15)
	for i := 0; i < amount; i++ {
		// per chunk seeds stay independent of amount
		cs := uint64(seed) ^ (uint64(i)+1)*weyl
		r := rand.New(rand.NewSource(int64(cs & 0x7fffffffffffffff)))
		perc := percentageMin
		if percentageMax > percentageMin {
			perc += r.Float64() * (percentageMax - percentageMin)
		}
		c := chunk.Coord{X: i}
		if err := s.PutGrid(world.Overworld, c, noiseGrid(perc, blocks, r)); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}
	return s.Persist()
}
