package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/config"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/layer"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/raster"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check input data integrity without running the analysis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			if code := runValidate(cfg); code != 0 {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	addConfigFlags(cmd.Flags())
	return cmd
}

func runValidate(cfg *config.Config) int {
	fmt.Println("=== Blackout Input Integrity Validation ===")
	fmt.Println()

	phases := []*phase{
		validateRasters(cfg),
		validateRoads(cfg),
		validateBuildings(cfg),
		validateTractIncomeJoin(cfg),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		allPassed = false
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      - %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

// validateRasters checks that every tile loads, that same-date tiles share a
// CRS and column grid, and that the two dates' tile sets cover the same area.
func validateRasters(cfg *config.Config) *phase {
	p := &phase{name: "raster tiles"}

	load := func(paths []string, label string) []*raster.Raster {
		var tiles []*raster.Raster
		for _, path := range paths {
			r, err := raster.ReadASCIIGrid(path, geo.WGS84)
			if err != nil {
				p.errorf("%s: %v", label, err)
				continue
			}
			tiles = append(tiles, r)
			fmt.Printf("loaded %s tile %s: %dx%d cells, %d with data\n", label, path, r.Rows(), r.Cols(), r.DataCellCount())
		}
		return tiles
	}

	pre := load(cfg.PreTiles, "pre-storm")
	post := load(cfg.PostTiles, "post-storm")
	if !p.passed() {
		return p
	}

	for label, tiles := range map[string][]*raster.Raster{"pre-storm": pre, "post-storm": post} {
		for i := 1; i < len(tiles); i++ {
			if !tiles[0].CRS().Equal(tiles[i].CRS()) {
				p.errorf("%s tiles disagree on CRS: %s vs %s", label, tiles[0].CRS(), tiles[i].CRS())
			}
			if tiles[0].Cols() != tiles[i].Cols() {
				p.errorf("%s tiles disagree on column count: %d vs %d", label, tiles[0].Cols(), tiles[i].Cols())
			}
		}
	}

	if len(pre) != len(post) {
		p.errorf("tile count mismatch: %d pre vs %d post", len(pre), len(post))
	}
	return p
}

func validateRoads(cfg *config.Config) *phase {
	p := &phase{name: "roads layer"}
	roads, err := layer.LoadRoads(cfg.RoadsPath, geo.WGS84)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	fmt.Printf("loaded %d motorway segments\n", len(roads.Lines))
	return p
}

func validateBuildings(cfg *config.Config) *phase {
	p := &phase{name: "buildings layer"}
	buildings, err := layer.LoadBuildings(cfg.BuildingsPath, geo.WGS84)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	types := map[string]int{}
	for _, b := range buildings.Buildings {
		types[b.Type]++
	}
	keys := make([]string, 0, len(types))
	for k := range types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("loaded %d residential buildings\n", len(buildings.Buildings))
	for _, k := range keys {
		name := k
		if name == "" {
			name = "(untagged)"
		}
		fmt.Printf("  %s: %d\n", name, types[k])
	}
	return p
}

// validateTractIncomeJoin verifies the join-key contract up front: the
// geometry GEOIDs and the normalized income GEO_IDs must be identical sets.
func validateTractIncomeJoin(cfg *config.Config) *phase {
	p := &phase{name: "tract/income join"}

	tracts, err := layer.LoadTracts(cfg.TractsPath, geo.WGS84)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	income, err := layer.LoadIncome(cfg.IncomePath)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	fmt.Printf("loaded %d tracts, %d income rows\n", len(tracts.Tracts), len(income))
	if _, err := layer.JoinIncome(tracts, income); err != nil {
		p.errorf("%v", err)
	}
	return p
}
