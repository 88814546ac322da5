package convert

// ProgressFunc receives advisory progress: stage is the 0-based mesh being
// written out of stages meshes, step the points written so far out of steps.
// It is called from the goroutine running Convert and must not block for
// long.
type ProgressFunc func(stage, stages, step, steps int)

// Percent folds a progress report into [0, 100].
func Percent(stage, stages, step, steps int) float64 {
	if stages <= 0 {
		return 100
	}
	frac := 0.0
	if steps > 0 {
		frac = float64(step) / float64(steps)
	}
	p := 100 * (float64(stage) + frac) / float64(stages)
	return min(max(p, 0), 100)
}
