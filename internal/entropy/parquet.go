package entropy

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/parquet-go/parquet-go"
)

// Cell is one entropy map value as stored in a Parquet export.
type Cell struct {
	X       int32   `parquet:"x"`
	Y       int32   `parquet:"y"`
	Entropy float64 `parquet:"entropy"`
}

// WriteParquet writes the map as (x, y, entropy) rows in row-major order.
func WriteParquet(w io.Writer, m *Map) error {
	writer := parquet.NewGenericWriter[Cell](w)

	rows := make([]Cell, 0, m.Width)
	for y := 0; y < m.Height; y++ {
		rows = rows[:0]
		for x, v := range m.Row(y) {
			rows = append(rows, Cell{X: int32(x), Y: int32(y), Entropy: v})
		}
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("failed to write entropy row %d: %w", y, err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	slog.Debug("Wrote entropy map to parquet", "width", m.Width, "height", m.Height)
	return nil
}

// ReadParquet rebuilds a map from rows written by WriteParquet.
func ReadParquet(r io.ReaderAt, size int64) (*Map, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Cell](pf)
	defer reader.Close()

	var cells []Cell
	rows := make([]Cell, 128)
	for {
		n, err := reader.Read(rows)
		cells = append(cells, rows[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	m := &Map{}
	for _, c := range cells {
		if int(c.X)+1 > m.Width {
			m.Width = int(c.X) + 1
		}
		if int(c.Y)+1 > m.Height {
			m.Height = int(c.Y) + 1
		}
	}
	if len(cells) != m.Width*m.Height {
		return nil, fmt.Errorf("parquet holds %d cells, expected %d", len(cells), m.Width*m.Height)
	}
	m.Values = make([]float64, len(cells))
	for _, c := range cells {
		m.Values[int(c.Y)*m.Width+int(c.X)] = c.Entropy
	}
	return m, nil
}
