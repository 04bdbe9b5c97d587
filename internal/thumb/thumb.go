// Package thumb builds the square tiles placed into the grid.
package thumb

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	LabelWidth = 15
	LabelLines = 3
)

var (
	PlaceholderColor = color.NRGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0xff}
	LabelColor       = color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
)

var (
	ErrEmptyImage    = errors.New("image has no pixels")
	ErrEmptyLabel    = errors.New("label text is empty")
	ErrLabelTooLarge = errors.New("label does not fit the tile")
)

// CenterSquare returns the largest centered square inside a w×h image.
func CenterSquare(w, h int) image.Rectangle {
	side := min(w, h)
	left := (w - side) / 2
	top := (h - side) / 2
	return image.Rect(left, top, left+side, top+side)
}

// Make crops the centered square out of img and resamples it to size×size.
func Make(img image.Image, size int) (*image.NRGBA, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	crop := CenterSquare(b.Dx(), b.Dy()).Add(b.Min)
	return imaging.Resize(imaging.Crop(img, crop), size, size, imaging.Lanczos), nil
}

func Placeholder(size int) *image.NRGBA {
	return imaging.New(size, size, PlaceholderColor)
}

// Label draws text centered on tile, wrapped to LabelLines lines of
// LabelWidth characters. The tile is left untouched when an error is
// returned.
func Label(tile *image.NRGBA, text string) error {
	lines := WrapLabel(text, LabelWidth, LabelLines)
	if len(lines) == 0 {
		return ErrEmptyLabel
	}

	face := basicfont.Face7x13
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	b := tile.Bounds()

	d := &font.Drawer{Dst: tile, Src: image.NewUniform(LabelColor), Face: face}

	widths := make([]int, len(lines))
	for i, line := range lines {
		widths[i] = d.MeasureString(line).Ceil()
		if widths[i] > b.Dx() {
			return ErrLabelTooLarge
		}
	}
	blockHeight := lineHeight * len(lines)
	if blockHeight > b.Dy() {
		return ErrLabelTooLarge
	}

	top := b.Min.Y + (b.Dy()-blockHeight)/2
	for i, line := range lines {
		x := b.Min.X + (b.Dx()-widths[i])/2
		y := top + i*lineHeight + metrics.Ascent.Ceil()
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
	}
	return nil
}

// WrapLabel word-wraps text to lines of at most width characters, breaking
// words that are longer than a line, and keeps the first maxLines lines.
func WrapLabel(text string, width, maxLines int) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || width <= 0 || maxLines <= 0 {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(wordwrap.WrapString(text, uint(width)), "\n") {
		for utf8.RuneCountInString(line) > width {
			r := []rune(line)
			lines = append(lines, string(r[:width]))
			line = strings.TrimSpace(string(r[width:]))
		}
		if line != "" {
			lines = append(lines, line)
		}
		if len(lines) >= maxLines {
			break
		}
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}
