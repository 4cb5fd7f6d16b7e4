// Package chart renders report views as pie charts.
package chart

import (
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/sschoell/pismprof/internal/models"
)

// palette is the ColorBrewer Set3 qualitative palette, cycled when a view has
// more than twelve slices. The curated catalog never exceeds twelve, so
// cycling only matters for hand-built views.
var palette = []drawing.Color{
	{R: 141, G: 211, B: 199, A: 255},
	{R: 255, G: 255, B: 179, A: 255},
	{R: 190, G: 186, B: 218, A: 255},
	{R: 251, G: 128, B: 114, A: 255},
	{R: 128, G: 177, B: 211, A: 255},
	{R: 253, G: 180, B: 98, A: 255},
	{R: 179, G: 222, B: 105, A: 255},
	{R: 252, G: 205, B: 229, A: 255},
	{R: 217, G: 217, B: 217, A: 255},
	{R: 188, G: 128, B: 189, A: 255},
	{R: 204, G: 235, B: 197, A: 255},
	{R: 255, G: 237, B: 111, A: 255},
}

// SliceColor returns the palette color for slice index i.
func SliceColor(i int) drawing.Color {
	return palette[i%len(palette)]
}

// SliceLabel formats a slice label: the event name plus its absolute time,
// and its share of the grand total when one applies (grandTotal > 0).
func SliceLabel(stat models.EventStat, grandTotal float64) string {
	if grandTotal > 0 {
		return fmt.Sprintf("%s\n(%3.1f s, %3.1f%%)", stat.Name, stat.Max, 100*stat.Max/grandTotal)
	}
	return fmt.Sprintf("%s\n(%3.1f s)", stat.Name, stat.Max)
}

// Pie builds the pie chart for a view. Slice sizes are percentages of the
// view's total, so nested views can be read against their parent slice.
// View.Stats is already sorted ascending by time.
func Pie(view *models.View, source string) (*chart.PieChart, error) {
	if view.Total <= 0 {
		return nil, fmt.Errorf("view %q has non-positive total %g", view.Name, view.Total)
	}

	values := make([]chart.Value, 0, len(view.Stats))
	for i, stat := range view.Stats {
		values = append(values, chart.Value{
			Value: 100 * stat.Max / view.Total,
			Label: SliceLabel(stat, view.GrandTotal),
			Style: chart.Style{
				FillColor: SliceColor(i),
				FontSize:  9,
				FontColor: drawing.ColorBlack,
			},
		})
	}

	return &chart.PieChart{
		Title:  fmt.Sprintf("%s (%s)", view.Title, source),
		Width:  720,
		Height: 720,
		SliceStyle: chart.Style{
			StrokeColor: drawing.ColorWhite,
			StrokeWidth: 2,
		},
		Values: values,
	}, nil
}

// RenderSVG writes the view's chart as SVG.
func RenderSVG(w io.Writer, view *models.View, source string) error {
	p, err := Pie(view, source)
	if err != nil {
		return err
	}
	return p.Render(chart.SVG, w)
}

// RenderPNG writes the view's chart as PNG.
func RenderPNG(w io.Writer, view *models.View, source string) error {
	p, err := Pie(view, source)
	if err != nil {
		return err
	}
	return p.Render(chart.PNG, w)
}
