package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/dmitrijs2005/datingapp/internal/server/imagesim"
	"golang.org/x/image/draw"
)

// FillCrop decodes data, crops the largest centred square and scales it to
// size x size, returning JPEG bytes.
func FillCrop(data []byte, size int) ([]byte, error) {
	img, err := imagesim.Decode(data)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	src := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
