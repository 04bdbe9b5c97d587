// Package grid lays thumbnails out on a fixed rows×cols canvas and writes it
// to disk.
package grid

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"

	"github.com/kwsong/biodigitalviz/internal/config"
)

var (
	Background  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	BorderColor = color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
)

type Layout struct {
	Rows      int
	Cols      int
	ThumbSize int
	Spacing   int
	Padding   int
}

func NewLayout(cfg config.GridConfig) Layout {
	return Layout{
		Rows:      cfg.Rows,
		Cols:      cfg.Cols,
		ThumbSize: cfg.ThumbSize,
		Spacing:   cfg.Spacing,
		Padding:   int(math.Round(cfg.PadInches * float64(cfg.DPI))),
	}
}

func (l Layout) Capacity() int {
	return l.Rows * l.Cols
}

// Coord maps a record index to its cell, filling rows left to right.
func (l Layout) Coord(idx int) (row, col int) {
	return idx / l.Cols, idx % l.Cols
}

func (l Layout) Size() image.Point {
	return image.Pt(
		2*l.Padding+l.Cols*l.ThumbSize+(l.Cols-1)*l.Spacing,
		2*l.Padding+l.Rows*l.ThumbSize+(l.Rows-1)*l.Spacing,
	)
}

// Cell returns the canvas rectangle of the cell at row, col.
func (l Layout) Cell(row, col int) image.Rectangle {
	pitch := l.ThumbSize + l.Spacing
	origin := image.Pt(l.Padding+col*pitch, l.Padding+row*pitch)
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(l.ThumbSize, l.ThumbSize))}
}

type Canvas struct {
	layout Layout
	img    *image.NRGBA
}

func NewCanvas(l Layout) *Canvas {
	size := l.Size()
	return &Canvas{layout: l, img: imaging.New(size.X, size.Y, Background)}
}

func (c *Canvas) Layout() Layout {
	return c.layout
}

func (c *Canvas) Image() *image.NRGBA {
	return c.img
}

// Place draws tile into the cell for idx and outlines it.
func (c *Canvas) Place(idx int, tile image.Image) error {
	if idx < 0 || idx >= c.layout.Capacity() {
		return fmt.Errorf("index %d outside grid of %d cells", idx, c.layout.Capacity())
	}
	want := image.Pt(c.layout.ThumbSize, c.layout.ThumbSize)
	if tile.Bounds().Size() != want {
		return fmt.Errorf("tile is %v, want %v", tile.Bounds().Size(), want)
	}

	row, col := c.layout.Coord(idx)
	cell := c.layout.Cell(row, col)
	draw.Draw(c.img, cell, tile, tile.Bounds().Min, draw.Src)
	outline(c.img, cell, BorderColor)
	return nil
}

// outline draws a one pixel frame on the inside edge of r.
func outline(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetNRGBA(x, r.Min.Y, c)
		img.SetNRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetNRGBA(r.Min.X, y, c)
		img.SetNRGBA(r.Max.X-1, y, c)
	}
}
