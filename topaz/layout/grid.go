// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package layout

import (
	"strings"
	"unicode/utf8"
)

// Grid is a layout expanded to a fixed width: one rune per container slot,
// in row-major order. A space marks a slot with no item.
type Grid struct {
	slots []rune
	width int
	shape Shape
}

// NewGrid fits rows to a supported width. Narrower rows are centred, with any
// odd leftover space on the right. Rows wider than nine return ErrNoShape.
func NewGrid(rows []string) (*Grid, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	width, shape := Fit(rows)
	if shape == ShapeUnknown {
		return nil, ErrNoShape
	}

	grid := &Grid{
		slots: make([]rune, 0, width*len(rows)),
		width: width,
		shape: shape,
	}
	for _, row := range rows {
		runes := []rune(row)
		side := width - len(runes)
		left := side / 2
		right := side - left
		for i := 0; i < left; i++ {
			grid.slots = append(grid.slots, ' ')
		}
		grid.slots = append(grid.slots, runes...)
		for i := 0; i < right; i++ {
			grid.slots = append(grid.slots, ' ')
		}
	}
	return grid, nil
}

func (g *Grid) Shape() Shape {
	return g.shape
}

func (g *Grid) Width() int {
	return g.width
}

func (g *Grid) Height() int {
	return len(g.slots) / g.width
}

// Size is the number of slots in the grid.
func (g *Grid) Size() int {
	return len(g.slots)
}

// At returns the layout character at slot, or utf8.RuneError if out of range.
func (g *Grid) At(slot int) rune {
	if slot < 0 || slot >= len(g.slots) {
		return utf8.RuneError
	}
	return g.slots[slot]
}

// Slots returns the indices of every slot holding ch.
func (g *Grid) Slots(ch rune) (result []int) {
	for i, slot := range g.slots {
		if slot == ch {
			result = append(result, i)
		}
	}
	return
}

// Chars returns the distinct non-space characters of the grid, in the
// order they first appear.
func (g *Grid) Chars() (result []rune) {
	seen := make(map[rune]bool)
	for _, slot := range g.slots {
		if slot != ' ' && !seen[slot] {
			seen[slot] = true
			result = append(result, slot)
		}
	}
	return
}

// Rows returns the fitted rows.
func (g *Grid) Rows() []string {
	result := make([]string, 0, g.Height())
	for i := 0; i < len(g.slots); i += g.width {
		result = append(result, string(g.slots[i:i+g.width]))
	}
	return result
}

func (g *Grid) String() string {
	return strings.Join(g.Rows(), "\n")
}
