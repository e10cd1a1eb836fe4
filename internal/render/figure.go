// Package render draws face images in subplot grids with gonum/plot and
// writes the resulting figure as PNG or PDF.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
)

var (
	ErrInvalidSubplot    = errors.New("invalid subplot")
	ErrEmptyFigure       = errors.New("figure has no panels")
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

type Format int

const (
	FormatPNG Format = iota
	FormatPDF
)

// Subplot addresses one cell of a Rows×Cols grid. Index starts at 1 and
// runs left to right, top to bottom.
type Subplot struct {
	Rows, Cols, Index int
}

func (s Subplot) validate() error {
	if s.Rows < 1 || s.Cols < 1 || s.Index < 1 || s.Index > s.Rows*s.Cols {
		return fmt.Errorf("%w: (%d, %d, %d)", ErrInvalidSubplot, s.Rows, s.Cols, s.Index)
	}
	return nil
}

func (s Subplot) cell() (row, col int) {
	i := s.Index - 1
	return i / s.Cols, i % s.Cols
}

// PanelOptions decorate a single image panel.
type PanelOptions struct {
	XLabel     string
	YLabel     string
	Border     bool
	TitleColor color.Color
}

type panel struct {
	plot     *plot.Plot
	border   bool
	row, col int
}

// Figure collects image panels laid out on a common grid.
type Figure struct {
	Width, Height vg.Length
	// WSpace and HSpace are the gaps between tiles as a fraction of a tile.
	WSpace, HSpace float64
	TitleSize      vg.Length
	BorderColor    color.Color
	BorderWidth    vg.Length

	rows, cols int
	panels     map[int]*panel
}

func NewFigure() *Figure {
	return &Figure{
		Width:       13 * vg.Inch,
		Height:      13 * vg.Inch,
		WSpace:      0.1,
		HSpace:      0.4,
		TitleSize:   vg.Points(16),
		BorderColor: color.RGBA{R: 255, A: 255},
		BorderWidth: vg.Points(5),
		panels:      make(map[int]*panel),
	}
}

// Len returns the number of panels drawn so far.
func (f *Figure) Len() int { return len(f.panels) }

// Title returns the title of the panel at index, if there is one.
func (f *Figure) Title(index int) (string, bool) {
	p, ok := f.panels[index]
	if !ok {
		return "", false
	}
	return p.plot.Title.Text, true
}

// TitleColor returns the title color of the panel at index, if there is one.
func (f *Figure) TitleColor(index int) (color.Color, bool) {
	p, ok := f.panels[index]
	if !ok {
		return nil, false
	}
	return p.plot.Title.TextStyle.Color, true
}

// DisplayOne places img at the given subplot with a title and no ticks.
// Drawing to an occupied subplot replaces it.
func (f *Figure) DisplayOne(img image.Image, title string, sp Subplot, opts PanelOptions) error {
	if img == nil {
		return fmt.Errorf("subplot %d: nil image", sp.Index)
	}
	if err := sp.validate(); err != nil {
		return err
	}
	if len(f.panels) > 0 && (sp.Rows != f.rows || sp.Cols != f.cols) {
		return fmt.Errorf("%w: grid %dx%d does not match figure grid %dx%d",
			ErrInvalidSubplot, sp.Rows, sp.Cols, f.rows, f.cols)
	}
	f.rows, f.cols = sp.Rows, sp.Cols

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = f.TitleSize
	p.Title.TextStyle.Color = color.Black
	if opts.TitleColor != nil {
		p.Title.TextStyle.Color = opts.TitleColor
	}

	p.X.Tick.Marker = plot.ConstantTicks(nil)
	p.Y.Tick.Marker = plot.ConstantTicks(nil)
	p.X.Padding = 0
	p.Y.Padding = 0
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel

	b := img.Bounds()
	p.Add(plotter.NewImage(img, 0, 0, float64(b.Dx()), float64(b.Dy())))

	row, col := sp.cell()
	f.panels[sp.Index] = &panel{plot: p, border: opts.Border, row: row, col: col}
	return nil
}

func (f *Figure) tiles(dc draw.Canvas) draw.Tiles {
	w := dc.Max.X - dc.Min.X
	h := dc.Max.Y - dc.Min.Y
	margin := 5 * vg.Millimeter

	tileW := (w - 2*margin) / vg.Length(float64(f.cols)+float64(f.cols-1)*f.WSpace)
	tileH := (h - 2*margin) / vg.Length(float64(f.rows)+float64(f.rows-1)*f.HSpace)

	return draw.Tiles{
		Rows:      f.rows,
		Cols:      f.cols,
		PadX:      vg.Length(f.WSpace) * tileW,
		PadY:      vg.Length(f.HSpace) * tileH,
		PadTop:    margin,
		PadBottom: margin,
		PadLeft:   margin,
		PadRight:  margin,
	}
}

// Draw renders every panel onto dc in index order.
func (f *Figure) Draw(dc draw.Canvas) error {
	if len(f.panels) == 0 {
		return ErrEmptyFigure
	}
	t := f.tiles(dc)

	indexes := make([]int, 0, len(f.panels))
	for i := range f.panels {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	for _, i := range indexes {
		pn := f.panels[i]
		c := t.At(dc, pn.col, pn.row)
		pn.plot.Draw(c)

		if pn.border {
			da := pn.plot.DataCanvas(c)
			c.StrokeLines(draw.LineStyle{Color: f.BorderColor, Width: f.BorderWidth}, []vg.Point{
				{X: da.Min.X, Y: da.Min.Y},
				{X: da.Max.X, Y: da.Min.Y},
				{X: da.Max.X, Y: da.Max.Y},
				{X: da.Min.X, Y: da.Max.Y},
				{X: da.Min.X, Y: da.Min.Y},
			})
		}
	}
	return nil
}

// Show writes the figure to w.
func (f *Figure) Show(w io.Writer, format Format) error {
	switch format {
	case FormatPNG:
		c := vgimg.New(f.Width, f.Height)
		if err := f.Draw(draw.New(c)); err != nil {
			return err
		}
		if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
			return fmt.Errorf("failed to write png: %w", err)
		}
	case FormatPDF:
		c := vgpdf.New(f.Width, f.Height)
		if err := f.Draw(draw.New(c)); err != nil {
			return err
		}
		if _, err := c.WriteTo(w); err != nil {
			return fmt.Errorf("failed to write pdf: %w", err)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
	return nil
}

// FormatFor picks the output format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", "":
		return FormatPNG, nil
	case ".pdf":
		return FormatPDF, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

func (f *Figure) SaveFile(path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := f.Show(w, format); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
