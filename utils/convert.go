package utils

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/Ivans-11/Minecraftify/config"
	"github.com/Ivans-11/Minecraftify/convert"
	"github.com/Ivans-11/Minecraftify/logging"
	"github.com/Ivans-11/Minecraftify/model"
	"github.com/Ivans-11/Minecraftify/palette"
	"github.com/Ivans-11/Minecraftify/world"
)

// RunConvert implements `convert [flags] <model> <world>`. Summary lines go
// to stdout; logs and the progress bar go to stderr.
func RunConvert(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML run file; flags given explicitly override it")
		start      = fs.String("start", "0,-60,0", "world position of the model origin as x,y,z")
		rotate     = fs.String("rotate", "0,0,0", "rotation about x,y,z in degrees")
		pitch      = fs.Float64("pitch", 1, "model units per block")
		version    = fs.String("version", "1.20.1", "game version as major.minor.patch")
		edition    = fs.String("edition", world.Java, "game edition: java or bedrock")
		dim        = fs.String("dim", "", "target dimension (default: the first the world lists)")
		store      = fs.String("store", StoreChunk, "world store: chunk or sqlite")
		create     = fs.Bool("create", false, "create the chunk world when it does not exist")
		fill       = fs.Bool("fill", false, "also place blocks inside closed surfaces")
		workers    = fs.Int("workers", 0, "matching goroutines (default: GOMAXPROCS)")
		logLevel   = fs.String("log-level", "info", "debug, info, warn or error")
		quiet      = fs.Bool("quiet", false, "hide the progress bar")
	)
	disable := map[palette.Category]*bool{
		palette.Wool:       fs.Bool("no-wool", false, "do not use wool"),
		palette.Concrete:   fs.Bool("no-concrete", false, "do not use concrete"),
		palette.Terracotta: fs.Bool("no-terracotta", false, "do not use terracotta"),
		palette.Glass:      fs.Bool("no-glass", false, "do not use stained glass"),
	}
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", convert.ErrConfiguration, err)
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: usage: convert [flags] <model> <world>", convert.ErrConfiguration)
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	opts := convert.DefaultOptions()
	storeKind, createWorld, level := *store, *create, *logLevel
	if *configPath != "" {
		f, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("%w: %w", convert.ErrConfiguration, err)
		}
		if opts, err = f.Apply(opts); err != nil {
			return err
		}
		if f.Store != "" && !set["store"] {
			storeKind = f.Store
		}
		if f.Create != nil && !set["create"] {
			createWorld = *f.Create
		}
		if f.LogLevel != "" && !set["log-level"] {
			level = f.LogLevel
		}
	}

	var err error
	if set["start"] {
		if opts.Start, err = convert.ParseVec3(*start); err != nil {
			return err
		}
	}
	if set["rotate"] {
		if opts.Rotation, err = convert.ParseRotation(*rotate); err != nil {
			return err
		}
	}
	if set["pitch"] {
		opts.Pitch = *pitch
	}
	if set["version"] || set["edition"] {
		ed, num := opts.Version.Edition, opts.Version.Number()
		if set["edition"] {
			ed = *edition
		}
		if set["version"] {
			num = *version
		}
		if opts.Version, err = convert.ParseVersion(ed, num); err != nil {
			return err
		}
	}
	for c, off := range disable {
		if *off {
			opts.Selection.Set(c, false)
		}
	}
	if set["dim"] {
		opts.Dimension = world.Dimension(*dim)
	}
	if set["fill"] {
		opts.Fill = *fill
	}
	if set["workers"] {
		opts.Workers = *workers
	}

	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w: %w", convert.ErrConfiguration, err)
	}
	opts.Logger = logging.New(stderr, lvl)
	open, err := opener(storeKind, createWorld, opts.Version)
	if err != nil {
		return fmt.Errorf("%w: %w", convert.ErrConfiguration, err)
	}

	var bar *progressbar.ProgressBar
	if !*quiet {
		bar = progressbar.NewOptions64(100,
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("converting"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(0),
			progressbar.OptionClearOnFinish(),
		)
		opts.Progress = func(stage, stages, step, steps int) {
			bar.Describe(fmt.Sprintf("mesh %d/%d", stage+1, stages))
			_ = bar.Set64(int64(convert.Percent(stage, stages, step, steps)))
		}
	}

	in, out := fs.Arg(0), fs.Arg(1)
	rep, err := convert.Convert(ctx, model.FileSource{Path: in}, open, out, opts)
	if bar != nil {
		_ = bar.Finish()
	}
	printReport(stdout, out, rep)
	return err
}

func printReport(w io.Writer, path string, rep convert.Report) {
	if len(rep.Meshes) == 0 {
		return
	}
	fmt.Fprintf(w, "%s: %s blocks from %d of %d meshes (%s, %s)\n",
		path, humanize.Comma(int64(rep.Placed())), rep.PersistedMeshes(), len(rep.Meshes), rep.Dimension, rep.Strategy)
	for _, m := range rep.Meshes {
		status := "ok"
		if !m.Persisted {
			status = "failed"
		}
		fmt.Fprintf(w, "  %-24s %8s points %8s placed  %s  %s\n",
			m.Name, humanize.Comma(int64(m.Points)), humanize.Comma(int64(m.Placed)), m.Elapsed.Round(time.Millisecond), status)
	}
	printCounts(w, rep.Blocks(), 8)
}

// printCounts lists the top n blocks by count.
func printCounts(w io.Writer, counts map[string]int, n int) {
	type kv struct {
		block string
		n     int
	}
	var all []kv
	for b, c := range counts {
		all = append(all, kv{b, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].n != all[j].n {
			return all[i].n > all[j].n
		}
		return all[i].block < all[j].block
	})
	for i, e := range all {
		if i == n {
			fmt.Fprintf(w, "  ... %d more\n", len(all)-n)
			break
		}
		fmt.Fprintf(w, "  %-36s %s\n", e.block, humanize.Comma(int64(e.n)))
	}
}

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, convert.ErrConfiguration):
		return 2
	case errors.Is(err, convert.ErrCanceled):
		return 130
	}
	return 1
}
