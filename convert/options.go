package convert

import (
	"math"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Ivans-11/Minecraftify/logging"
	"github.com/Ivans-11/Minecraftify/model"
	"github.com/Ivans-11/Minecraftify/palette"
	"github.com/Ivans-11/Minecraftify/transform"
	"github.com/Ivans-11/Minecraftify/world"
)

const defaultBatchSize = 1024

// Options configures a conversion.
type Options struct {
	// Start is the world coordinate the model origin lands on.
	Start    mgl64.Vec3
	Rotation transform.Rotation
	// Pitch is the voxel edge length in model units; one voxel is one block.
	Pitch     float64
	Version   world.GameVersion
	Selection palette.Selection
	// Dimension picks the target dimension; empty means the first one the
	// world lists.
	Dimension world.Dimension
	// Fill also places blocks inside closed surfaces.
	Fill bool

	// Workers bounds the goroutines matching points; 0 means GOMAXPROCS.
	Workers int
	// QueueSize bounds the batches in flight ahead of the writer; 0 means
	// twice Workers.
	QueueSize int
	// BatchSize is the number of points per work item; 0 means 1024.
	BatchSize int

	Progress ProgressFunc
	Logger   *log.Logger
}

// DefaultOptions returns the defaults of the command line tool.
func DefaultOptions() Options {
	return Options{
		Start:     mgl64.Vec3{0, -60, 0},
		Pitch:     1,
		Version:   world.DefaultVersion,
		Selection: palette.AllCategories,
	}
}

// Validate reports the first problem with o as an ErrConfiguration.
func (o Options) Validate() error {
	if err := model.CheckPitch(o.Pitch); err != nil {
		return configErrorf("%v", err)
	}
	for i := 0; i < 3; i++ {
		if math.IsNaN(o.Start[i]) || math.IsInf(o.Start[i], 0) {
			return configErrorf("start %v is not finite", o.Start)
		}
	}
	for _, a := range []float64{o.Rotation.X, o.Rotation.Y, o.Rotation.Z} {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return configErrorf("rotation %s is not finite", o.Rotation)
		}
	}
	if err := o.Version.Validate(); err != nil {
		return configErrorf("%v", err)
	}
	if _, err := o.Selection.Strategy(); err != nil {
		return configErrorf("%v", err)
	}
	if o.Workers < 0 || o.QueueSize < 0 || o.BatchSize < 0 {
		return configErrorf("workers, queue size and batch size must not be negative")
	}
	return nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) queueSize() int {
	if o.QueueSize > 0 {
		return o.QueueSize
	}
	return 2 * o.workers()
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return defaultBatchSize
}

func (o Options) logger() *log.Logger { return logging.Or(o.Logger) }

func (o Options) progress(stage, stages, step, steps int) {
	if o.Progress != nil {
		o.Progress(stage, stages, step, steps)
	}
}
