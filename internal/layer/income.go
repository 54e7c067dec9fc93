package layer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	// geoIDPrefix is the fixed-width summary-level prefix on ACS GEO_ID
	// values ("1400000US" + tract GEOID). It is stripped before joining
	// against the tract layer's bare GEOID.
	geoIDPrefix = "1400000US"

	// acsSuppressedSentinel is the ACS placeholder for suppressed estimates.
	acsSuppressedSentinel = -666666666

	// incomeIDColumn and incomeValueColumn are the required CSV headers:
	// the long-form geography ID and the B19013 median household income
	// estimate.
	incomeIDColumn    = "GEO_ID"
	incomeValueColumn = "B19013_001E"
)

// NormalizeGeoID strips the ACS summary-level prefix from a long-form
// GEO_ID. IDs without the prefix are returned unchanged.
func NormalizeGeoID(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), geoIDPrefix)
}

// LoadIncome reads the ACS median-household-income CSV into a table keyed by
// normalized GEOID. Suppressed estimates become NaN.
func LoadIncome(path string) (IncomeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open income table %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read income table %s: %w", path, err)
	}

	idCol, valCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case incomeIDColumn:
			idCol = i
		case incomeValueColumn:
			valCol = i
		}
	}
	if idCol < 0 || valCol < 0 {
		return nil, fmt.Errorf("income table %s: header must contain %s and %s columns", path, incomeIDColumn, incomeValueColumn)
	}

	table := IncomeTable{}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("income table %s line %d: %w", path, line, err)
		}

		id := NormalizeGeoID(rec[idCol])
		if id == "" {
			return nil, fmt.Errorf("income table %s line %d: empty GEO_ID", path, line)
		}
		if _, dup := table[id]; dup {
			return nil, fmt.Errorf("income table %s line %d: duplicate GEOID %s", path, line, id)
		}

		raw := strings.TrimSpace(rec[valCol])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("income table %s line %d: income %q: %w", path, line, raw, err)
		}
		if v == acsSuppressedSentinel {
			v = math.NaN()
		}
		table[id] = v
	}

	if len(table) == 0 {
		return nil, fmt.Errorf("income table %s: no rows", path)
	}
	return table, nil
}

// JoinIncome attaches median income to every tract. The two key sets must be
// identical after normalization; a dangling key on either side means the
// geometry source and the income source disagree about which tracts exist,
// and the join halts rather than silently producing partial results.
func JoinIncome(tracts *TractLayer, income IncomeTable) (*TractLayer, error) {
	geomKeys := make(map[string]bool, len(tracts.Tracts))
	for _, t := range tracts.Tracts {
		geomKeys[t.GEOID] = true
	}

	var missingIncome, missingGeom []string
	for key := range geomKeys {
		if _, ok := income[key]; !ok {
			missingIncome = append(missingIncome, key)
		}
	}
	for key := range income {
		if !geomKeys[key] {
			missingGeom = append(missingGeom, key)
		}
	}
	if len(missingIncome) > 0 || len(missingGeom) > 0 {
		sort.Strings(missingIncome)
		sort.Strings(missingGeom)
		return nil, fmt.Errorf("income join key mismatch: %d tracts without income %v, %d income rows without geometry %v",
			len(missingIncome), truncateKeys(missingIncome), len(missingGeom), truncateKeys(missingGeom))
	}

	joined := make([]Tract, len(tracts.Tracts))
	for i, t := range tracts.Tracts {
		t.MedianIncome = income[t.GEOID]
		joined[i] = t
	}
	return &TractLayer{CRS: tracts.CRS, Tracts: joined}, nil
}

// truncateKeys keeps error messages readable when many keys dangle.
func truncateKeys(keys []string) []string {
	const maxShown = 5
	if len(keys) <= maxShown {
		return keys
	}
	return append(keys[:maxShown:maxShown], "...")
}
