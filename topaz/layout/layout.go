// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

// Package layout classifies menu row layouts into container shapes and
// expands them into slot grids.
package layout

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Shape is the container shape implied by a layout's row width.
type Shape uint8

const (
	ShapeUnknown Shape = iota
	// ShapeThreeWide is a 3x3 dispenser-style container.
	ShapeThreeWide
	// ShapeFiveWide is a single-row, 5-slot hopper-style container.
	ShapeFiveWide
	// ShapeNineWide is a chest-style container with 9 slots per row.
	ShapeNineWide
)

var (
	ErrNoShape = errors.New("Could not match row setup to a container shape")
	ErrNoRows  = errors.New("Layout has no rows")

	shapeNames = map[Shape]string{
		ShapeUnknown:   "unknown",
		ShapeThreeWide: "three-wide",
		ShapeFiveWide:  "five-wide",
		ShapeNineWide:  "nine-wide",
	}

	// rowWidths lists the supported widths, narrowest first
	rowWidths   = []int{3, 5, 9}
	widthShapes = map[int]Shape{
		3: ShapeThreeWide,
		5: ShapeFiveWide,
		9: ShapeNineWide,
	}
)

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return shapeNames[ShapeUnknown]
}

// ParseShape is the inverse of Shape.String.
func ParseShape(name string) (Shape, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for shape, shapeName := range shapeNames {
		if shapeName == name {
			return shape, nil
		}
	}
	return ShapeUnknown, fmt.Errorf("invalid shape name: %s", name)
}

func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Shape) UnmarshalText(text []byte) (err error) {
	*s, err = ParseShape(string(text))
	return
}

// Width returns the row width of the shape, or 0 if unknown.
func (s Shape) Width() int {
	switch s {
	case ShapeThreeWide:
		return 3
	case ShapeFiveWide:
		return 5
	case ShapeNineWide:
		return 9
	default:
		return 0
	}
}

// MaxNineWideRows is the tallest nine-wide container.
const MaxNineWideRows = 6

// ContainerSize returns the number of slots a container of this shape has
// when built from rowCount rows. Only nine-wide containers grow with the
// number of rows, up to MaxNineWideRows; the others have a fixed size.
func (s Shape) ContainerSize(rowCount int) int {
	switch s {
	case ShapeThreeWide:
		return 9
	case ShapeFiveWide:
		return 5
	case ShapeNineWide:
		if rowCount < 1 {
			rowCount = 1
		} else if rowCount > MaxNineWideRows {
			rowCount = MaxNineWideRows
		}
		return 9 * rowCount
	default:
		return 0
	}
}

// Classify returns the shape of a layout, judged by the width of its first
// row alone; the remaining rows are not inspected.
func Classify(rows []string) Shape {
	if len(rows) == 0 {
		return ShapeUnknown
	}
	return widthShapes[utf8.RuneCountInString(rows[0])]
}

// Fit returns the narrowest supported width that holds every row, and the
// corresponding shape. Rows wider than the widest shape do not fit.
func Fit(rows []string) (width int, shape Shape) {
	width = rowWidths[0]
	for _, row := range rows {
		if rowLen := utf8.RuneCountInString(row); rowLen > width {
			width = rowLen
		}
	}
	for _, rowWidth := range rowWidths {
		if width <= rowWidth {
			return rowWidth, widthShapes[rowWidth]
		}
	}
	return width, ShapeUnknown
}
