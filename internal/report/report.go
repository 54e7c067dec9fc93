// Package report turns a pipeline result into human-readable output: console
// tables, an income histogram, and two static maps. Nothing here is consumed
// by any other system.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/stat"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/pipeline"
)

// IncomeStats summarizes the median-household-income distribution of one
// tract group. Tracts with suppressed (NaN) income are excluded.
type IncomeStats struct {
	Tracts int
	Mean   float64
	Median float64
	StdDev float64
}

// Summary is the printed outcome of one analysis run.
type Summary struct {
	RunID       string
	GeneratedAt time.Time

	MaskPolygons    int
	RemovedPolygons int

	BuildingsAffected   int
	BuildingsUnaffected int

	TractsTotal    int
	TractsAffected int

	Affected   IncomeStats
	Unaffected IncomeStats
}

// BuildSummary derives counts and income statistics from a pipeline result.
func BuildSummary(res *pipeline.Result) Summary {
	var affected, unaffected []float64
	tractsAffected := 0
	for _, t := range res.Tracts.Tracts {
		if t.Affected {
			tractsAffected++
		}
		if math.IsNaN(t.MedianIncome) {
			continue
		}
		if t.Affected {
			affected = append(affected, t.MedianIncome)
		} else {
			unaffected = append(unaffected, t.MedianIncome)
		}
	}

	return Summary{
		RunID:               uuid.NewString(),
		GeneratedAt:         clock.Now().UTC(),
		MaskPolygons:        len(res.Mask.Polygons),
		RemovedPolygons:     len(res.Removed),
		BuildingsAffected:   len(res.AffectedBuildings),
		BuildingsUnaffected: len(res.UnaffectedBuildings),
		TractsTotal:         len(res.Tracts.Tracts),
		TractsAffected:      tractsAffected,
		Affected:            incomeStats(affected),
		Unaffected:          incomeStats(unaffected),
	}
}

func incomeStats(values []float64) IncomeStats {
	if len(values) == 0 {
		return IncomeStats{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return IncomeStats{
		Tracts: len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		StdDev: stat.StdDev(sorted, nil),
	}
}

// Render writes the summary as console tables.
func Render(w io.Writer, s Summary) {
	fmt.Fprintf(w, "Houston blackout analysis, run %s (%s)\n\n", s.RunID, s.GeneratedAt.Format(time.RFC3339))

	counts := table.NewWriter()
	counts.SetOutputMirror(w)
	counts.SetTitle("Counts")
	counts.AppendHeader(table.Row{"Entity", "Total", "Affected", "Unaffected"})
	counts.AppendRows([]table.Row{
		{"Blackout polygons", s.MaskPolygons + s.RemovedPolygons, s.MaskPolygons, s.RemovedPolygons},
		{"Residential buildings", s.BuildingsAffected + s.BuildingsUnaffected, s.BuildingsAffected, s.BuildingsUnaffected},
		{"Census tracts", s.TractsTotal, s.TractsAffected, s.TractsTotal - s.TractsAffected},
	})
	counts.Render()
	fmt.Fprintln(w)

	income := table.NewWriter()
	income.SetOutputMirror(w)
	income.SetTitle("Median household income by tract group (USD)")
	income.AppendHeader(table.Row{"Group", "Tracts", "Mean", "Median", "Std dev"})
	income.AppendRows([]table.Row{
		incomeRow("Affected", s.Affected),
		incomeRow("Unaffected", s.Unaffected),
	})
	income.Render()
}

func incomeRow(name string, st IncomeStats) table.Row {
	if st.Tracts == 0 {
		return table.Row{name, 0, "-", "-", "-"}
	}
	return table.Row{
		name,
		st.Tracts,
		fmt.Sprintf("%.0f", st.Mean),
		fmt.Sprintf("%.0f", st.Median),
		fmt.Sprintf("%.0f", st.StdDev),
	}
}

// Reporter writes all run artifacts under one output directory.
type Reporter struct {
	outDir string
	logger *slog.Logger
}

// NewReporter creates a Reporter writing into outDir.
func NewReporter(outDir string, logger *slog.Logger) *Reporter {
	return &Reporter{outDir: outDir, logger: logger}
}

// Write renders the summary to stdout and saves the histogram and maps.
// It returns the directory holding the artifacts.
func (r *Reporter) Write(res *pipeline.Result) (string, error) {
	s := BuildSummary(res)
	dir := filepath.Join(r.outDir, "run-"+s.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	Render(os.Stdout, s)

	summaryPath := filepath.Join(dir, "summary.txt")
	f, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	Render(f, s)
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}

	histPath := filepath.Join(dir, "income_histogram.png")
	if err := SaveIncomeHistogram(res, histPath); err != nil {
		return "", err
	}

	maskMapPath := filepath.Join(dir, "blackout_map.png")
	if err := SaveBlackoutMap(res, maskMapPath); err != nil {
		return "", err
	}

	incomeMapPath := filepath.Join(dir, "income_map.png")
	if err := SaveIncomeMap(res, incomeMapPath); err != nil {
		return "", err
	}

	r.logger.Info("artifacts written",
		"dir", dir,
		"summary", summaryPath,
		"histogram", histPath,
		"maps", []string{maskMapPath, incomeMapPath},
	)
	return dir, nil
}
