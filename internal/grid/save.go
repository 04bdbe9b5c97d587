package grid

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"io"
	"math"
	"os"

	"github.com/disintegration/imaging"
)

const inchesPerMeter = 39.3700787

// Save writes the canvas to path in the format implied by its extension.
// PNG output records dpi in a pHYs chunk.
func (c *Canvas) Save(path string, dpi int) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("error choosing output format: %w", err)
	}

	if format != imaging.PNG {
		if err := imaging.Save(c.img, path); err != nil {
			return fmt.Errorf("error saving grid image: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating grid image: %w", err)
	}
	if err := EncodePNG(f, c.img, dpi); err != nil {
		f.Close()
		return fmt.Errorf("error writing grid image: %w", err)
	}
	return f.Close()
}

// EncodePNG encodes img as PNG and inserts a pHYs chunk right after IHDR.
func EncodePNG(w io.Writer, img image.Image, dpi int) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return err
	}
	data := buf.Bytes()

	// 8 byte signature, then IHDR: length, type, 13 bytes of data, crc.
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	if len(data) < ihdrEnd || string(data[12:16]) != "IHDR" {
		return fmt.Errorf("unexpected png layout")
	}

	if _, err := w.Write(data[:ihdrEnd]); err != nil {
		return err
	}
	if dpi > 0 {
		if _, err := w.Write(physChunk(dpi)); err != nil {
			return err
		}
	}
	_, err := w.Write(data[ihdrEnd:])
	return err
}

func physChunk(dpi int) []byte {
	ppm := uint32(math.Round(float64(dpi) * inchesPerMeter))

	chunk := make([]byte, 4+4+9+4)
	binary.BigEndian.PutUint32(chunk[0:4], 9)
	copy(chunk[4:8], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:12], ppm)
	binary.BigEndian.PutUint32(chunk[12:16], ppm)
	chunk[16] = 1 // unit: metre
	binary.BigEndian.PutUint32(chunk[17:21], crc32.ChecksumIEEE(chunk[4:17]))
	return chunk
}
