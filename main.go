//go:build !(js && wasm)

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Ivans-11/Minecraftify/chunk"
	"github.com/Ivans-11/Minecraftify/convert"
	"github.com/Ivans-11/Minecraftify/utils"
	"github.com/Ivans-11/Minecraftify/world"
)

func usage() {
	fmt.Println("Usage: minecraftify <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  convert [flags] model.(obj|glb|gltf) world      (place a model into a world; -h lists flags)")
	fmt.Println("  preview world|pack output.glb [dimension]      (render placed blocks with greedy meshing)")
	fmt.Println("  pack world output.mcpack [raw|cdc] [none|zlib|zstd]   (bundle every chunk into one file)")
	fmt.Println("  unpack input.mcpack world [chunk|sqlite]       (restore a pack as a new world)")
	fmt.Println("  info world|pack                                (version, palette and block counts)")
	fmt.Println("  palette                                        (list placeable blocks and their colors)")
	fmt.Println("  edit world edits.json [chunk|sqlite]           (set blocks listed as {dim: {\"x,y,z\": id}})")
	fmt.Println("  gennoise <percentage> <amount> <output_dir>                         (generate N random chunks with fixed fill %)")
	fmt.Println("  gennoise <percentageMin> <percentageMax> <amount> <output_dir>     (generate with per-chunk random fill in [min,max])")
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(utils.ExitCode(err))
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "convert":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err := utils.RunConvert(ctx, os.Args[2:], os.Stdout, os.Stderr)
		stop()
		if err != nil {
			fail(err)
		}
	case "preview":
		if len(os.Args) != 4 && len(os.Args) != 5 {
			usage()
			os.Exit(2)
		}
		if err := utils.RunPreview(os.Args[2], os.Args[3], world.Dimension(argOr(4, ""))); err != nil {
			fail(err)
		}
	case "pack":
		if len(os.Args) < 4 || len(os.Args) > 6 {
			usage()
			os.Exit(2)
		}
		layout, err := utils.ParseLayout(argOr(4, "cdc"))
		if err != nil {
			fail(fmt.Errorf("%w: %w", convert.ErrConfiguration, err))
		}
		comp, err := chunk.ParsePackCompression(argOr(5, "zstd"))
		if err != nil {
			fail(fmt.Errorf("%w: %w", convert.ErrConfiguration, err))
		}
		if err := utils.RunPack(os.Stdout, os.Args[2], os.Args[3], layout, comp); err != nil {
			fail(err)
		}
	case "unpack":
		if len(os.Args) != 4 && len(os.Args) != 5 {
			usage()
			os.Exit(2)
		}
		if err := utils.RunUnpack(os.Args[2], os.Args[3], argOr(4, utils.StoreChunk)); err != nil {
			fail(err)
		}
	case "info":
		if len(os.Args) != 3 {
			usage()
			os.Exit(2)
		}
		if err := utils.RunInfo(os.Stdout, os.Args[2]); err != nil {
			fail(err)
		}
	case "palette":
		utils.RunPalette(os.Stdout)
	case "edit":
		if len(os.Args) != 4 && len(os.Args) != 5 {
			usage()
			os.Exit(2)
		}
		n, err := utils.RunApplyEdits(os.Args[2], os.Args[3], argOr(4, utils.StoreChunk), world.DefaultVersion)
		if err != nil {
			fail(err)
		}
		fmt.Printf("%d blocks set\n", n)
	case "gennoise":
		// Two forms:
		// 1) gennoise <percentage> <amount> <output_dir>
		// 2) gennoise <percentageMin> <percentageMax> <amount> <output_dir>
		var minP, maxP float64
		var amt int
		var dir string
		var err error
		switch len(os.Args) {
		case 5:
			if _, err = fmt.Sscan(os.Args[2], &minP); err == nil {
				_, err = fmt.Sscan(os.Args[3], &amt)
			}
			maxP, dir = minP, os.Args[4]
		case 6:
			if _, err = fmt.Sscan(os.Args[2], &minP); err == nil {
				if _, err = fmt.Sscan(os.Args[3], &maxP); err == nil {
					_, err = fmt.Sscan(os.Args[4], &amt)
				}
			}
			dir = os.Args[5]
		default:
			usage()
			os.Exit(2)
		}
		if err != nil {
			fail(fmt.Errorf("%w: %w", convert.ErrConfiguration, err))
		}
		if err := utils.RunGenerateNoise(minP, maxP, amt, dir, 0); err != nil {
			fail(err)
		}
	default:
		usage()
		os.Exit(2)
	}
}
