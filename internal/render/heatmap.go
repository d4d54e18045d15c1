package render

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/meridian-obs/composite.engine/internal/band"
)

// denseGrid adapts a band grid to the plotter heat-map interface. Row 0 of
// the grid is the northernmost scan line, so Z flips the row axis to keep
// the plot upright.
type denseGrid struct {
	m *mat.Dense
}

func (g denseGrid) Dims() (c, r int) {
	rows, cols := g.m.Dims()
	return cols, rows
}

func (g denseGrid) X(c int) float64 { return float64(c) }
func (g denseGrid) Y(r int) float64 { return float64(r) }

func (g denseGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	v := g.m.At(rows-1-r, c)
	if band.IsInvalid(v) {
		return 0
	}
	return v
}

// SaveHeatmap plots one band grid as a heat-map PNG, for eyeballing a
// correction step's output during tuning.
func SaveHeatmap(m *mat.Dense, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "pixel"
	p.Y.Label.Text = "line"

	hm := plotter.NewHeatMap(denseGrid{m: m}, moreland.SmoothBlueRed().Palette(255))
	p.Add(hm)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save heatmap %s: %w", path, err)
	}
	return nil
}
