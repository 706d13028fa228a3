// Package imagesim scores how alike two images are. Both images are decoded,
// fitted into a square box and compared pixel by pixel; the score is
// 1 - RMSE/255 clamped to [0, 1].
package imagesim

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrDecode       = errors.New("image decode failed")
	ErrSizeMismatch = errors.New("image sizes differ")
)

// Resize filters accepted by NewComparer.
const (
	FilterNearest        = "nearest"
	FilterApproxBiLinear = "approx-bilinear"
	FilterBiLinear       = "bilinear"
	FilterCatmullRom     = "catmull-rom"
)

func interpolator(name string) (draw.Interpolator, error) {
	switch name {
	case FilterNearest:
		return draw.NearestNeighbor, nil
	case FilterApproxBiLinear:
		return draw.ApproxBiLinear, nil
	case FilterBiLinear:
		return draw.BiLinear, nil
	case "", FilterCatmullRom:
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown resize filter %q", name)
	}
}

// Comparer fits images into a box of Size x Size before comparing them.
type Comparer struct {
	size   int
	scaler draw.Interpolator
}

func NewComparer(size int, filter string) (*Comparer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("box size must be positive, got %d", size)
	}
	scaler, err := interpolator(filter)
	if err != nil {
		return nil, err
	}
	return &Comparer{size: size, scaler: scaler}, nil
}

// Decode parses JPEG, PNG, GIF, BMP or WebP data.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// FitSize returns the dimensions of a w x h image scaled to fit a box x box
// square with its aspect ratio kept. Images smaller than the box grow.
func FitSize(w, h, box int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	ratio := math.Min(float64(box)/float64(w), float64(box)/float64(h))
	nw := max(1, int(math.Round(float64(w)*ratio)))
	nh := max(1, int(math.Round(float64(h)*ratio)))
	return nw, nh
}

// Prepare fits img into the box and converts it to RGBA with a zero origin.
// Alpha is dropped first, so a translucent pixel compares by its straight
// colour. An image already at the target size is only converted.
func (c *Comparer) Prepare(img image.Image) *image.RGBA {
	img = opaque(img)
	b := img.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), c.size)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	c.scaler.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// opaque returns img with every pixel made fully opaque while keeping its
// non-premultiplied colour.
func opaque(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	r := img.Bounds()
	switch src := img.(type) {
	case *image.Paletted:
		pal := make(color.Palette, len(src.Palette))
		for i, c := range src.Palette {
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			n.A = 0xff
			pal[i] = n
		}
		return &image.Paletted{Pix: src.Pix, Stride: src.Stride, Rect: src.Rect, Palette: pal}
	case *image.NRGBA:
		dst := image.NewNRGBA(r)
		n := r.Dx() * 4
		for y := r.Min.Y; y < r.Max.Y; y++ {
			i, j := src.PixOffset(r.Min.X, y), dst.PixOffset(r.Min.X, y)
			copy(dst.Pix[j:j+n], src.Pix[i:i+n])
		}
		for i := 3; i < len(dst.Pix); i += 4 {
			dst.Pix[i] = 0xff
		}
		return dst
	}

	dst := image.NewNRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			n := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			n.A = 0xff
			dst.SetNRGBA(x, y, n)
		}
	}
	return dst
}

// PrepareBytes decodes data and prepares it.
func (c *Comparer) PrepareBytes(data []byte) (*image.RGBA, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return c.Prepare(img), nil
}

// MeanSquaredError averages the squared R, G and B differences over every
// pixel of a. b must be at least as large as a in both dimensions.
func MeanSquaredError(a, b *image.RGBA) (float64, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() > bb.Dx() || ab.Dy() > bb.Dy() {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}
	if ab.Empty() {
		return 0, nil
	}

	var sum float64
	for y := 0; y < ab.Dy(); y++ {
		pa := a.Pix[a.PixOffset(ab.Min.X, ab.Min.Y+y):]
		pb := b.Pix[b.PixOffset(bb.Min.X, bb.Min.Y+y):]
		for x := 0; x < ab.Dx(); x++ {
			i := x * 4
			dr := float64(pa[i]) - float64(pb[i])
			dg := float64(pa[i+1]) - float64(pb[i+1])
			db := float64(pa[i+2]) - float64(pb[i+2])
			sum += dr*dr + dg*dg + db*db
		}
	}
	return sum / float64(ab.Dx()*ab.Dy()*3), nil
}

// Score converts a mean squared error into a similarity in [0, 1].
func Score(mse float64) float64 {
	return math.Max(0, 1-math.Sqrt(mse)/255)
}

// Similarity compares two prepared images.
func Similarity(a, b *image.RGBA) (float64, error) {
	mse, err := MeanSquaredError(a, b)
	if err != nil {
		return 0, err
	}
	return Score(mse), nil
}

// Compare decodes, prepares and scores two encoded images.
func (c *Comparer) Compare(a, b []byte) (float64, error) {
	ia, err := c.PrepareBytes(a)
	if err != nil {
		return 0, err
	}
	ib, err := c.PrepareBytes(b)
	if err != nil {
		return 0, err
	}
	return Similarity(ia, ib)
}
