// Command blackout runs the Houston blackout income analysis.
//
// Usage:
//
//	blackout analyze --config blackout.yaml
//	blackout validate --config blackout.yaml
//
// analyze executes the full pipeline and writes maps, a histogram, and a
// printed summary. validate checks input integrity (raster alignment,
// attribute filters, join keys) without running the analysis.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
