// Package palette holds the catalog of placeable blocks and picks the block
// whose reference color is closest to a sampled color.
package palette

import (
	"fmt"
	"strings"
)

// Category is a family of blocks with a shared material.
type Category uint8

const (
	Wool Category = iota
	Concrete
	Terracotta
	Glass
)

var categoryNames = [...]string{"wool", "concrete", "terracotta", "glass"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Translucent reports whether blocks of the category let light through.
func (c Category) Translucent() bool { return c == Glass }

// ParseCategory maps a category name to its value.
func ParseCategory(s string) (Category, error) {
	for i, n := range categoryNames {
		if strings.EqualFold(s, n) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown block category %q", s)
}

// Categories lists every category in iteration order.
var Categories = []Category{Wool, Concrete, Terracotta, Glass}

// Entry is one placeable block and its reference color.
type Entry struct {
	ID       string
	Category Category
	RGB      [3]uint8
}

var registry = [...][]Entry{
	Wool: {
		{ID: "minecraft:white_wool", RGB: [3]uint8{234, 236, 237}},
		{ID: "minecraft:orange_wool", RGB: [3]uint8{241, 118, 20}},
		{ID: "minecraft:magenta_wool", RGB: [3]uint8{191, 75, 201}},
		{ID: "minecraft:light_blue_wool", RGB: [3]uint8{58, 175, 217}},
		{ID: "minecraft:yellow_wool", RGB: [3]uint8{249, 198, 39}},
		{ID: "minecraft:lime_wool", RGB: [3]uint8{112, 185, 25}},
		{ID: "minecraft:pink_wool", RGB: [3]uint8{237, 141, 172}},
		{ID: "minecraft:gray_wool", RGB: [3]uint8{62, 68, 71}},
		{ID: "minecraft:light_gray_wool", RGB: [3]uint8{142, 142, 134}},
		{ID: "minecraft:cyan_wool", RGB: [3]uint8{21, 137, 145}},
		{ID: "minecraft:purple_wool", RGB: [3]uint8{121, 42, 172}},
		{ID: "minecraft:blue_wool", RGB: [3]uint8{53, 57, 157}},
		{ID: "minecraft:brown_wool", RGB: [3]uint8{114, 71, 40}},
		{ID: "minecraft:green_wool", RGB: [3]uint8{84, 109, 27}},
		{ID: "minecraft:red_wool", RGB: [3]uint8{161, 39, 34}},
		{ID: "minecraft:black_wool", RGB: [3]uint8{20, 21, 25}},
	},
	Concrete: {
		{ID: "minecraft:white_concrete", RGB: [3]uint8{207, 213, 214}},
		{ID: "minecraft:orange_concrete", RGB: [3]uint8{224, 97, 0}},
		{ID: "minecraft:magenta_concrete", RGB: [3]uint8{170, 47, 156}},
		{ID: "minecraft:light_blue_concrete", RGB: [3]uint8{36, 137, 199}},
		{ID: "minecraft:yellow_concrete", RGB: [3]uint8{241, 175, 21}},
		{ID: "minecraft:lime_concrete", RGB: [3]uint8{94, 168, 24}},
		{ID: "minecraft:pink_concrete", RGB: [3]uint8{214, 101, 143}},
		{ID: "minecraft:gray_concrete", RGB: [3]uint8{54, 57, 61}},
		{ID: "minecraft:light_gray_concrete", RGB: [3]uint8{125, 125, 115}},
		{ID: "minecraft:cyan_concrete", RGB: [3]uint8{21, 119, 136}},
		{ID: "minecraft:purple_concrete", RGB: [3]uint8{100, 32, 156}},
		{ID: "minecraft:blue_concrete", RGB: [3]uint8{44, 46, 143}},
		{ID: "minecraft:brown_concrete", RGB: [3]uint8{96, 59, 31}},
		{ID: "minecraft:green_concrete", RGB: [3]uint8{73, 91, 36}},
		{ID: "minecraft:red_concrete", RGB: [3]uint8{142, 32, 32}},
		{ID: "minecraft:black_concrete", RGB: [3]uint8{8, 10, 15}},
	},
	Terracotta: {
		{ID: "minecraft:white_terracotta", RGB: [3]uint8{209, 178, 161}},
		{ID: "minecraft:orange_terracotta", RGB: [3]uint8{161, 83, 37}},
		{ID: "minecraft:magenta_terracotta", RGB: [3]uint8{150, 88, 109}},
		{ID: "minecraft:light_blue_terracotta", RGB: [3]uint8{113, 108, 137}},
		{ID: "minecraft:yellow_terracotta", RGB: [3]uint8{186, 133, 35}},
		{ID: "minecraft:lime_terracotta", RGB: [3]uint8{103, 117, 53}},
		{ID: "minecraft:pink_terracotta", RGB: [3]uint8{160, 77, 78}},
		{ID: "minecraft:gray_terracotta", RGB: [3]uint8{57, 42, 35}},
		{ID: "minecraft:light_gray_terracotta", RGB: [3]uint8{135, 107, 98}},
		{ID: "minecraft:cyan_terracotta", RGB: [3]uint8{86, 91, 91}},
		{ID: "minecraft:purple_terracotta", RGB: [3]uint8{118, 70, 86}},
		{ID: "minecraft:blue_terracotta", RGB: [3]uint8{74, 59, 91}},
		{ID: "minecraft:brown_terracotta", RGB: [3]uint8{77, 51, 36}},
		{ID: "minecraft:green_terracotta", RGB: [3]uint8{76, 82, 42}},
		{ID: "minecraft:red_terracotta", RGB: [3]uint8{143, 61, 46}},
		{ID: "minecraft:black_terracotta", RGB: [3]uint8{37, 23, 16}},
	},
	Glass: {
		{ID: "minecraft:white_stained_glass", RGB: [3]uint8{255, 255, 255}},
		{ID: "minecraft:orange_stained_glass", RGB: [3]uint8{216, 127, 51}},
		{ID: "minecraft:magenta_stained_glass", RGB: [3]uint8{178, 76, 216}},
		{ID: "minecraft:light_blue_stained_glass", RGB: [3]uint8{102, 153, 216}},
		{ID: "minecraft:yellow_stained_glass", RGB: [3]uint8{229, 229, 51}},
		{ID: "minecraft:lime_stained_glass", RGB: [3]uint8{127, 204, 25}},
		{ID: "minecraft:pink_stained_glass", RGB: [3]uint8{242, 127, 165}},
		{ID: "minecraft:gray_stained_glass", RGB: [3]uint8{76, 76, 76}},
		{ID: "minecraft:light_gray_stained_glass", RGB: [3]uint8{153, 153, 153}},
		{ID: "minecraft:cyan_stained_glass", RGB: [3]uint8{76, 127, 153}},
		{ID: "minecraft:purple_stained_glass", RGB: [3]uint8{127, 63, 178}},
		{ID: "minecraft:blue_stained_glass", RGB: [3]uint8{51, 76, 178}},
		{ID: "minecraft:brown_stained_glass", RGB: [3]uint8{102, 76, 51}},
		{ID: "minecraft:green_stained_glass", RGB: [3]uint8{102, 127, 51}},
		{ID: "minecraft:red_stained_glass", RGB: [3]uint8{153, 51, 51}},
		{ID: "minecraft:black_stained_glass", RGB: [3]uint8{25, 25, 25}},
	},
}

var (
	all  []Entry
	byID map[string]int
)

func init() {
	byID = make(map[string]int)
	for _, c := range Categories {
		for _, e := range registry[c] {
			e.Category = c
			byID[e.ID] = len(all)
			all = append(all, e)
		}
	}
}

// Entries returns the blocks of one category in registry order.
func Entries(c Category) []Entry {
	if int(c) >= len(registry) {
		return nil
	}
	out := make([]Entry, 0, len(registry[c]))
	for _, e := range all {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

// All returns every block, categories in Categories order.
func All() []Entry {
	return append([]Entry(nil), all...)
}

// Lookup finds a block by identifier.
func Lookup(id string) (Entry, bool) {
	i, ok := byID[id]
	if !ok {
		return Entry{}, false
	}
	return all[i], true
}

// Index returns the stable position of a block in All.
func Index(id string) (int, bool) {
	i, ok := byID[id]
	return i, ok
}
