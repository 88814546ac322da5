package utils

import (
	"fmt"
	"io"

	"github.com/Ivans-11/Minecraftify/model"
	"github.com/Ivans-11/Minecraftify/palette"
)

// RunPalette prints the block registry with reference colors.
func RunPalette(w io.Writer) {
	for _, c := range palette.Categories {
		kind := "opaque"
		if c.Translucent() {
			kind = "translucent"
		}
		fmt.Fprintf(w, "%s (%s)\n", c, kind)
		for _, e := range palette.Entries(c) {
			fmt.Fprintf(w, "  %s  %s\n", model.RGBA(e.RGB[0], e.RGB[1], e.RGB[2], 255).Hex(), e.ID)
		}
	}
}
