package entropy

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func noiseImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	seed := uint32(7)
	for i := range img.Pix {
		seed = seed*1103515245 + 12345
		img.Pix[i] = uint8(seed >> 16)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func TestGrayscale(t *testing.T) {
	tests := []struct {
		name     string
		r, g, b  uint8
		expected int
	}{
		{name: "black", r: 0, g: 0, b: 0, expected: 0},
		{name: "truncates instead of rounding", r: 10, g: 20, b: 30, expected: 18},
		{name: "pure red", r: 255, g: 0, b: 0, expected: 53},
		{name: "pure green", r: 0, g: 255, b: 0, expected: 183},
		{name: "pure blue", r: 0, g: 0, b: 255, expected: 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Grayscale(tt.r, tt.g, tt.b)
			if got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestShannon(t *testing.T) {
	tests := []struct {
		name      string
		histogram []int
		total     int
		expected  float64
	}{
		{name: "single bucket", histogram: []int{0, 9, 0}, total: 9, expected: 0},
		{name: "two equal buckets", histogram: []int{2, 0, 2}, total: 4, expected: 1},
		{name: "four equal buckets", histogram: []int{1, 1, 1, 1}, total: 4, expected: 2},
		{name: "empty", histogram: []int{0, 0}, total: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Shannon(tt.histogram, tt.total)
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestBuildRejectsInvalidKernel(t *testing.T) {
	img := solidImage(4, 4, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	for _, k := range []int{0, -3, 2, 4} {
		if _, err := Build(img, k); !errors.Is(err, ErrInvalidKernel) {
			t.Errorf("k=%d: expected ErrInvalidKernel, got %v", k, err)
		}
	}
}

func TestBuildRejectsEmptyImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	if _, err := Build(img, 3); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage, got %v", err)
	}
}

func TestBuildDimensionsAndRange(t *testing.T) {
	for _, k := range []int{1, 3, 5} {
		img := noiseImage(13, 7)
		m, err := Build(img, k)
		if err != nil {
			t.Fatalf("k=%d: unexpected error: %v", k, err)
		}
		if m.Width != 13 || m.Height != 7 || len(m.Values) != 13*7 {
			t.Fatalf("k=%d: expected 13x7 map, got %dx%d (%d values)", k, m.Width, m.Height, len(m.Values))
		}
		for i, v := range m.Values {
			if v < 0 || v > 8 {
				t.Errorf("k=%d: value %d out of range: %v", k, i, v)
			}
		}
	}
}

func TestBuildKernelOneIsZero(t *testing.T) {
	m, err := Build(noiseImage(5, 5), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range m.Values {
		if v != 0 {
			t.Errorf("Expected 0 at %d, got %v", i, v)
		}
	}
}

func TestUniformImage(t *testing.T) {
	img := solidImage(6, 4, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	out, m, err := Transform(img, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, v := range m.Values {
		if v != 0 {
			t.Errorf("Expected zero entropy at %d, got %v", i, v)
		}
	}
	if !bytes.Equal(out.Pix, img.Pix) {
		t.Error("Expected uniform image to be unchanged")
	}
	if m.Mean() != 0 {
		t.Errorf("Expected mean 0, got %v", m.Mean())
	}
}

func TestSinglePixel(t *testing.T) {
	img := solidImage(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	out, m, err := Transform(img, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.At(0, 0) != 0 {
		t.Errorf("Expected entropy 0, got %v", m.At(0, 0))
	}
	got := out.NRGBAAt(0, 0)
	if got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("Expected pixel unchanged, got %+v", got)
	}
}

func TestToroidalWraparound(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 80, G: 80, B: 80, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{R: 160, G: 160, B: 160, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 240, G: 240, B: 240, A: 255})

	m, err := Build(img, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// every 3x3 window covers the four pixels with weights 4, 2, 2, 1
	p := []float64{4.0 / 9, 2.0 / 9, 2.0 / 9, 1.0 / 9}
	expected := 0.0
	for _, v := range p {
		expected -= v * math.Log2(v)
	}

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if math.Abs(m.At(x, y)-expected) > 1e-12 {
				t.Errorf("(%d,%d): expected %v, got %v", x, y, expected, m.At(x, y))
			}
		}
	}
}

func TestWrapSamplesOppositeEdge(t *testing.T) {
	// a single bright column at x=width-1 must reach the window of x=0
	img := solidImage(5, 5, color.NRGBA{A: 255})
	for y := 0; y < 5; y++ {
		img.SetNRGBA(4, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	}

	m, err := Build(img, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.At(0, 0) == 0 {
		t.Error("Expected nonzero entropy at (0,0) from wrapped column")
	}
	if m.At(2, 2) != 0 {
		t.Errorf("Expected zero entropy at (2,2), got %v", m.At(2, 2))
	}
}

func TestRemap(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 250, G: 0, B: 100, A: 128})
	img.SetNRGBA(1, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	m := &Map{Width: 2, Height: 1, Values: []float64{1.25, 7.99}}

	out, err := Remap(img, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := out.NRGBAAt(0, 0), (color.NRGBA{R: 6, G: 12, B: 112, A: 128}); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	if got, want := out.NRGBAAt(1, 0), (color.NRGBA{R: 80, G: 81, B: 82, A: 255}); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestRemapSizeMismatch(t *testing.T) {
	img := solidImage(3, 3, color.NRGBA{A: 255})
	m := &Map{Width: 2, Height: 3, Values: make([]float64, 6)}
	if _, err := Remap(img, m); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Expected ErrSizeMismatch, got %v", err)
	}
}

func TestTransformAcceptsOtherImageTypes(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 17, 14))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	out, m, err := Transform(img, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Bounds().Dx() != 7 || out.Bounds().Dy() != 4 {
		t.Errorf("Expected 7x4 output, got %v", out.Bounds())
	}
	if m.Width != 7 || m.Height != 4 {
		t.Errorf("Expected 7x4 map, got %dx%d", m.Width, m.Height)
	}
}

func TestDeterminism(t *testing.T) {
	img := noiseImage(16, 9)

	out1, m1, err := Transform(img, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out2, m2, err := Transform(img, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(out1.Pix, out2.Pix) {
		t.Error("Expected identical output images")
	}
	for i := range m1.Values {
		if math.Float64bits(m1.Values[i]) != math.Float64bits(m2.Values[i]) {
			t.Fatalf("Entropy differs at %d: %v vs %v", i, m1.Values[i], m2.Values[i])
		}
	}
}

func TestMean(t *testing.T) {
	m := &Map{Width: 2, Height: 2, Values: []float64{1, 2, 3, 4}}
	if m.Mean() != 2.5 {
		t.Errorf("Expected 2.5, got %v", m.Mean())
	}
}

func TestBuildWithProgress(t *testing.T) {
	var calls []int
	_, err := BuildWithProgress(noiseImage(4, 3), 3, func(done, total int) {
		if total != 3 {
			t.Errorf("Expected total 3, got %d", total)
		}
		calls = append(calls, done)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 3 || calls[2] != 3 {
		t.Errorf("Expected progress 1,2,3, got %v", calls)
	}
}
