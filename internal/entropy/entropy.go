package entropy

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
)

// Luma weights used to reduce an RGB sample to a single intensity.
const (
	redWeight   = 0.21
	greenWeight = 0.72
	blueWeight  = 0.07

	// DefaultKernelSize is the window edge used when none is configured.
	DefaultKernelSize = 3

	buckets = 256
)

var (
	ErrInvalidKernel = errors.New("kernel size must be a positive odd number")
	ErrSizeMismatch  = errors.New("entropy map does not match image dimensions")
	ErrEmptyImage    = errors.New("image has no pixels")
)

// Map holds one local entropy value (in bits) per source pixel, row-major.
type Map struct {
	Width  int
	Height int
	Values []float64
}

// At returns the entropy at column x, row y.
func (m *Map) At(x, y int) float64 {
	return m.Values[y*m.Width+x]
}

// Row returns row y of the map.
func (m *Map) Row(y int) []float64 {
	return m.Values[y*m.Width : (y+1)*m.Width]
}

// Mean returns the average entropy over the whole map. Rows are summed first and
// the row sums are then added together.
func (m *Map) Mean() float64 {
	if m.Width == 0 || m.Height == 0 {
		return 0
	}
	total := 0.0
	for y := 0; y < m.Height; y++ {
		rowSum := 0.0
		for _, v := range m.Row(y) {
			rowSum += v
		}
		total += rowSum
	}
	return total / float64(m.Width*m.Height)
}

// ProgressFunc is called after each completed row with the number of rows done.
type ProgressFunc func(done, total int)

// Build computes the entropy map of img using a k×k window centered on every pixel.
// Window coordinates wrap around the image edges.
func Build(img image.Image, k int) (*Map, error) {
	return BuildWithProgress(img, k, nil)
}

// BuildWithProgress is Build with a per-row progress callback. progress may be nil.
func BuildWithProgress(img image.Image, k int, progress ProgressFunc) (*Map, error) {
	if k <= 0 || k%2 == 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKernel, k)
	}

	src := toNRGBA(img)
	width, height := src.Rect.Dx(), src.Rect.Dy()
	if width == 0 || height == 0 {
		return nil, ErrEmptyImage
	}

	gray := grayscalePlane(src)
	half := k / 2
	samples := k * k

	m := &Map{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}

	var histogram [buckets]int
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			histogram = [buckets]int{}
			for ky := -half; ky <= half; ky++ {
				row := wrap(y+ky, height) * width
				for kx := -half; kx <= half; kx++ {
					histogram[gray[row+wrap(x+kx, width)]]++
				}
			}
			m.Values[y*width+x] = Shannon(histogram[:], samples)
		}
		if progress != nil {
			progress(y+1, height)
		}
	}

	return m, nil
}

// Shannon returns -Σ p·log2(p) over the nonzero buckets of histogram, where
// p = count/total.
func Shannon(histogram []int, total int) float64 {
	if total <= 0 {
		return 0
	}
	h := 0.0
	for _, count := range histogram {
		if count > 0 {
			p := float64(count) / float64(total)
			h -= p * math.Log2(p)
		}
	}
	return h
}

// Grayscale truncates the weighted sum of the three channels to an intensity in [0,255].
func Grayscale(r, g, b uint8) int {
	// explicit conversions keep each product rounded on its own (no FMA)
	v := float64(redWeight*float64(r)) + float64(greenWeight*float64(g))
	v += float64(blueWeight * float64(b))
	i := int(v)
	if i > buckets-1 {
		i = buckets - 1
	}
	return i
}

// Remap shifts every color channel of img by floor(entropy*10) modulo 256.
// Alpha is carried over unchanged.
func Remap(img image.Image, m *Map) (*image.NRGBA, error) {
	src := toNRGBA(img)
	width, height := src.Rect.Dx(), src.Rect.Dy()
	if m == nil || m.Width != width || m.Height != height {
		return nil, ErrSizeMismatch
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := src.PixOffset(src.Rect.Min.X+x, src.Rect.Min.Y+y)
			j := dst.PixOffset(x, y)
			shift := int(m.At(x, y) * 10)
			for c := 0; c < 3; c++ {
				dst.Pix[j+c] = uint8((int(src.Pix[i+c]) + shift) % 256)
			}
			dst.Pix[j+3] = src.Pix[i+3]
		}
	}
	return dst, nil
}

// Transform builds the entropy map of img and applies it.
func Transform(img image.Image, k int) (*image.NRGBA, *Map, error) {
	src := toNRGBA(img)
	m, err := Build(src, k)
	if err != nil {
		return nil, nil, err
	}
	out, err := Remap(src, m)
	if err != nil {
		return nil, nil, err
	}
	return out, m, nil
}

func grayscalePlane(src *image.NRGBA) []uint8 {
	width, height := src.Rect.Dx(), src.Rect.Dy()
	gray := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := src.PixOffset(src.Rect.Min.X+x, src.Rect.Min.Y+y)
			gray[y*width+x] = uint8(Grayscale(src.Pix[i], src.Pix[i+1], src.Pix[i+2]))
		}
	}
	return gray
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
