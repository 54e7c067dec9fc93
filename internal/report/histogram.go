package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/pipeline"
)

const histogramBins = 16

// SaveIncomeHistogram plots the median-income distribution of affected
// (red) and unaffected (gray) tracts into one PNG.
func SaveIncomeHistogram(res *pipeline.Result, path string) error {
	var affected, unaffected plotter.Values
	for _, t := range res.Tracts.Tracts {
		if math.IsNaN(t.MedianIncome) {
			continue
		}
		if t.Affected {
			affected = append(affected, t.MedianIncome)
		} else {
			unaffected = append(unaffected, t.MedianIncome)
		}
	}

	p := plot.New()
	p.Title.Text = "Median household income by blackout status"
	p.X.Label.Text = "Median household income (USD)"
	p.Y.Label.Text = "Census tracts"

	if len(unaffected) > 0 {
		h, err := plotter.NewHist(unaffected, histogramBins)
		if err != nil {
			return fmt.Errorf("histogram (unaffected): %w", err)
		}
		h.FillColor = color.NRGBA{R: 130, G: 130, B: 130, A: 160}
		p.Add(h)
	}
	if len(affected) > 0 {
		h, err := plotter.NewHist(affected, histogramBins)
		if err != nil {
			return fmt.Errorf("histogram (affected): %w", err)
		}
		h.FillColor = color.NRGBA{R: 200, G: 40, B: 40, A: 160}
		p.Add(h)
	}

	if err := p.Save(7*vg.Inch, 4.5*vg.Inch, path); err != nil {
		return fmt.Errorf("save histogram: %w", err)
	}
	return nil
}
