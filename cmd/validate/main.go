// Command validate dry-runs extraction and validation over an input
// directory. It prints accepted and rejected row counts per file with the
// rejection counts by column, and exits non-zero if any file would be
// quarantined. Files are never moved.
//
// Usage:
//
//	go run ./cmd/validate -dir new_data
//	go run ./cmd/validate -dir new_data -year-min 1945 -year-max 2025 -v
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/pipeline"
)

// fileReport is the dry-run result for one input file.
type fileReport struct {
	name       string
	accepted   int
	rejected   int
	byColumn   map[string]int
	quarantine bool
	err        error
}

func main() {
	dir := flag.String("dir", "new_data", "directory of *.json input files")
	yearMin := flag.Int("year-min", domain.DefaultBounds().YearMin, "lowest accepted year")
	yearMax := flag.Int("year-max", domain.DefaultBounds().YearMax, "highest accepted year")
	verbose := flag.Bool("v", false, "print every rejected row")
	flag.Parse()

	os.Exit(run(os.Stdout, *dir, domain.Bounds{YearMin: *yearMin, YearMax: *yearMax}, *verbose))
}

func run(w io.Writer, dir string, bounds domain.Bounds, verbose bool) int {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 2
	}
	if len(paths) == 0 {
		fmt.Fprintf(w, "no *.json files in %s\n", dir)
		return 0
	}
	slices.Sort(paths)

	v := domain.NewValidator(bounds)
	reports := make([]fileReport, 0, len(paths))
	for _, path := range paths {
		reports = append(reports, check(w, v, path, verbose))
	}

	failed := printReports(w, reports)
	if failed > 0 {
		fmt.Fprintf(w, "\n%d of %d file(s) would be quarantined.\n", failed, len(reports))
		return 1
	}
	fmt.Fprintf(w, "\nAll %d file(s) would be converted.\n", len(reports))
	return 0
}

func check(w io.Writer, v *domain.Validator, path string, verbose bool) fileReport {
	r := fileReport{name: filepath.Base(path)}
	data, err := os.ReadFile(path)
	if err != nil {
		r.err, r.quarantine = err, true
		return r
	}

	ev := pipeline.Evaluate(v, data, -1, func(i int, err error) {
		if verbose {
			fmt.Fprintf(w, "%s row %d: %v\n", r.name, i, err)
		}
	})
	r.accepted, r.rejected, r.byColumn = len(ev.Rows), ev.Rejected(), ev.RejectedByColumn
	if ev.Err != nil {
		r.err, r.quarantine = ev.Err, true
	}
	return r
}

// printReports writes a table of reports and returns how many would be quarantined.
func printReports(w io.Writer, reports []fileReport) int {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tACCEPTED\tREJECTED\tBY COLUMN\tRESULT")

	failed := 0
	for _, r := range reports {
		result := "convert"
		if r.quarantine {
			result = "quarantine: " + r.err.Error()
			failed++
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", r.name, r.accepted, r.rejected, formatColumns(r.byColumn), result)
	}
	tw.Flush()
	return failed
}

func formatColumns(m map[string]int) string {
	if len(m) == 0 {
		return "-"
	}
	cols := make([]string, 0, len(m))
	for col := range m {
		cols = append(cols, col)
	}
	slices.Sort(cols)

	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s=%d", col, m[col])
	}
	return strings.Join(parts, ",")
}
