package entropy

import (
	"bytes"
	"testing"
)

func TestParquetRoundTrip(t *testing.T) {
	m, err := Build(noiseImage(9, 4), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteParquet(&buf, m); err != nil {
		t.Fatalf("WriteParquet failed: %v", err)
	}

	data := buf.Bytes()
	got, err := ReadParquet(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("ReadParquet failed: %v", err)
	}

	if got.Width != m.Width || got.Height != m.Height {
		t.Fatalf("Expected %dx%d, got %dx%d", m.Width, m.Height, got.Width, got.Height)
	}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if got.At(x, y) != m.At(x, y) {
				t.Errorf("(%d,%d): expected %v, got %v", x, y, m.At(x, y), got.At(x, y))
			}
		}
	}
}
