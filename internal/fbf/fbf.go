// Package fbf reads and writes flat binary raster files.
//
// A flat binary file is a bare little-endian array with its type and shape
// encoded in the filename: <stem>.real4.<cols>.<rows>. Only the real4
// (float32) flavor is supported; it is the interchange type for calibrated
// reflectance, brightness temperature and geometry grids.
package fbf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// TypeReal4 is the only supported flat binary element type.
const TypeReal4 = "real4"

// ErrNotFound indicates no flat binary file exists for the requested stem.
var ErrNotFound = errors.New("flat binary file not found")

// Filename builds the canonical filename for a stem and grid shape.
func Filename(stem string, rows, cols int) string {
	return fmt.Sprintf("%s.%s.%d.%d", stem, TypeReal4, cols, rows)
}

// ParseFilename extracts the stem and shape from a flat binary filename.
func ParseFilename(name string) (stem string, rows, cols int, err error) {
	base := filepath.Base(name)
	parts := strings.Split(base, ".")
	if len(parts) < 4 {
		return "", 0, 0, fmt.Errorf("malformed flat binary name %q", base)
	}
	rows, err = strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed row count in %q", base)
	}
	cols, err = strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed column count in %q", base)
	}
	if typ := parts[len(parts)-3]; typ != TypeReal4 {
		return "", 0, 0, fmt.Errorf("unsupported flat binary type %q in %q", typ, base)
	}
	if rows < 1 || cols < 1 {
		return "", 0, 0, fmt.Errorf("invalid shape %dx%d in %q", rows, cols, base)
	}
	stem = strings.Join(parts[:len(parts)-3], ".")
	return stem, rows, cols, nil
}

// Find locates the flat binary file for stem in dir. Returns ErrNotFound if
// no file matches.
func Find(dir, stem string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, stem+"."+TypeReal4+".*.*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: stem %q in %s", ErrNotFound, stem, dir)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("ambiguous flat binary stem %q in %s: %d matches", stem, dir, len(matches))
	}
	return matches[0], nil
}

// Read loads a flat binary file into a float64 grid. Shape comes from the
// filename; a size mismatch with the file contents is an error.
func Read(path string) (*mat.Dense, error) {
	_, rows, cols, err := ParseFilename(path)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	want := rows * cols * 4
	if len(raw) != want {
		return nil, fmt.Errorf("%s: file is %d bytes, shape %dx%d wants %d", path, len(raw), rows, cols, want)
	}

	data := make([]float64, rows*cols)
	for i := range data {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		data[i] = float64(math.Float32frombits(bits))
	}
	return mat.NewDense(rows, cols, data), nil
}

// ReadStem locates and loads the flat binary file for stem in dir.
func ReadStem(dir, stem string) (*mat.Dense, error) {
	path, err := Find(dir, stem)
	if err != nil {
		return nil, err
	}
	return Read(path)
}

// Write stores grid m as a flat binary file in dir and returns the path.
// Values are narrowed to float32; masked pixels stay NaN.
func Write(dir, stem string, m *mat.Dense) (string, error) {
	rows, cols := m.Dims()
	path := filepath.Join(dir, Filename(stem, rows, cols))

	buf := make([]byte, rows*cols*4)
	i := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			bits := math.Float32bits(float32(m.At(r, c)))
			binary.LittleEndian.PutUint32(buf[i*4:], bits)
			i++
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
