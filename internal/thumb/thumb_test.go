package thumb

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCenterSquare(t *testing.T) {
	tests := []struct {
		w, h int
		want image.Rectangle
	}{
		{200, 100, image.Rect(50, 0, 150, 100)},
		{100, 200, image.Rect(0, 50, 100, 150)},
		{150, 150, image.Rect(0, 0, 150, 150)},
		{201, 100, image.Rect(50, 0, 150, 100)}, // (201-100)/2 floors to 50
		{100, 103, image.Rect(0, 1, 100, 101)},
		{1, 1, image.Rect(0, 0, 1, 1)},
	}

	for _, tt := range tests {
		got := CenterSquare(tt.w, tt.h)
		if got != tt.want {
			t.Errorf("CenterSquare(%d, %d): expected %v, got %v", tt.w, tt.h, tt.want, got)
		}
		if got.Dx() != min(tt.w, tt.h) || got.Dy() != min(tt.w, tt.h) {
			t.Errorf("CenterSquare(%d, %d): side is not min(w, h): %v", tt.w, tt.h, got)
		}
	}
}

func TestMake_CropsCenter(t *testing.T) {
	// Red left and right thirds, green middle; the center crop is all green.
	src := image.NewNRGBA(image.Rect(0, 0, 300, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if x >= 100 && x < 200 {
				c = color.NRGBA{G: 255, A: 255}
			}
			src.SetNRGBA(x, y, c)
		}
	}

	out, err := Make(src, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 150, 150) {
		t.Fatalf("expected 150x150, got %v", out.Bounds())
	}
	if c := out.NRGBAAt(75, 75); c.G < 250 || c.R > 5 {
		t.Errorf("expected green center, got %v", c)
	}
	if c := out.NRGBAAt(2, 75); c.G < 200 {
		t.Errorf("expected crop to exclude red border, got %v at left edge", c)
	}
}

func TestMake_OffsetBounds(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 400, 400))
	sub := base.SubImage(image.Rect(100, 100, 300, 200))

	out, err := Make(sub, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 50, 50) {
		t.Errorf("expected 50x50, got %v", out.Bounds())
	}
}

func TestMake_Empty(t *testing.T) {
	if _, err := Make(image.NewNRGBA(image.Rect(0, 0, 0, 10)), 150); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder(150)
	if p.Bounds() != image.Rect(0, 0, 150, 150) {
		t.Fatalf("expected 150x150, got %v", p.Bounds())
	}
	if p.NRGBAAt(0, 0) != PlaceholderColor || p.NRGBAAt(149, 149) != PlaceholderColor {
		t.Error("expected a flat placeholder colour")
	}
}

func TestWrapLabel(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"Moss", []string{"Moss"}},
		{"Bioluminescent Algae Display", []string{"Bioluminescent", "Algae Display"}},
		{"Supercalifragilisticexpialidocious", []string{"Supercalifragil", "isticexpialidoc", "ious"}},
		{
			"one two three four five six seven eight nine ten eleven",
			[]string{"one two three", "four five six", "seven eight"},
		},
	}

	for _, tt := range tests {
		got := WrapLabel(tt.text, LabelWidth, LabelLines)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("WrapLabel(%q) mismatch (-want +got):\n%s", tt.text, diff)
		}
		for _, line := range got {
			if len([]rune(line)) > LabelWidth {
				t.Errorf("line %q longer than %d", line, LabelWidth)
			}
		}
	}
}

func TestLabel_DrawsText(t *testing.T) {
	tile := Placeholder(150)
	if err := Label(tile, "Slime Mould Computer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	drawn := 0
	for y := 0; y < 150; y++ {
		for x := 0; x < 150; x++ {
			if tile.NRGBAAt(x, y) != PlaceholderColor {
				drawn++
			}
		}
	}
	if drawn == 0 {
		t.Error("expected label pixels on the tile")
	}
	if tile.NRGBAAt(0, 0) != PlaceholderColor {
		t.Error("expected corners untouched by a centered label")
	}
}

func TestLabel_Errors(t *testing.T) {
	tile := Placeholder(150)
	if err := Label(tile, "  "); !errors.Is(err, ErrEmptyLabel) {
		t.Errorf("expected ErrEmptyLabel, got %v", err)
	}

	small := Placeholder(20)
	if err := Label(small, "Too wide for this"); !errors.Is(err, ErrLabelTooLarge) {
		t.Errorf("expected ErrLabelTooLarge, got %v", err)
	}
	for i := 3; i < len(small.Pix); i += 4 {
		if small.Pix[i-3] != PlaceholderColor.R {
			t.Fatal("expected tile untouched after a failed label")
		}
	}
}
