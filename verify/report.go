package verify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/fabgen/bitstream"
	"github.com/sarchlab/fabgen/compiler"
	"github.com/sarchlab/fabgen/configmem"
	"github.com/sarchlab/fabgen/configport"
	"github.com/sarchlab/fabgen/util"
)

// Report is the outcome of linting a compilation and, optionally,
// programming an image into it.
type Report struct {
	Fabric        string
	TileCount     int
	LintIssues    []Issue
	StructIssues  []Issue
	RouteIssues   []Issue
	Programming   *configport.Report
	SimulationErr error
}

// GenerateReport lints r. When img is not nil it is also programmed into a
// simulated fabric at freq and read back.
func GenerateReport(r *compiler.Result, img *bitstream.Image, freq sim.Freq) *Report {
	report := &Report{
		Fabric:    r.Fabric.Name(),
		TileCount: len(r.Tiles),
	}

	report.LintIssues = Lint(r)

	for _, issue := range report.LintIssues {
		if issue.Type == IssueStruct {
			report.StructIssues = append(report.StructIssues, issue)
		} else {
			report.RouteIssues = append(report.RouteIssues, issue)
		}
	}

	if img == nil {
		return report
	}

	tables := make(map[string]*configmem.Table, len(r.Tiles))
	for _, t := range r.Tiles {
		tables[t.Tile.Name()] = t.Table
	}

	report.Programming, report.SimulationErr = configport.Simulate(r.Spec, tables, img, freq)

	return report
}

// OK reports whether there are no STRUCT issues and programming, if it
// ran, reproduced the image. ROUTE issues are warnings.
func (r *Report) OK() bool {
	if len(r.StructIssues) > 0 || r.SimulationErr != nil {
		return false
	}

	return r.Programming == nil || r.Programming.OK()
}

// WriteReport writes a formatted report to w.
func (r *Report) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "FABRIC VERIFICATION REPORT: %s (%d tile types)\n", r.Fabric, r.TileCount)
	fmt.Fprintln(w, separator)

	if len(r.LintIssues) == 0 {
		fmt.Fprintln(w, "No lint issues found.")
	} else {
		t := util.NewTable(
			fmt.Sprintf("Lint: %d STRUCT, %d ROUTE", len(r.StructIssues), len(r.RouteIssues)),
			"Type", "Tile", "Subject", "Message")

		for _, issue := range r.LintIssues {
			t.AppendRow([]interface{}{issue.Type, issue.Tile, issue.Subject, issue.Message})
		}

		fmt.Fprintln(w, t.Render())
	}

	switch {
	case r.SimulationErr != nil:
		fmt.Fprintf(w, "Programming failed: %v\n", r.SimulationErr)
	case r.Programming != nil:
		fmt.Fprintln(w, r.Programming.Render())
	}

	status := "PASSED"
	if !r.OK() {
		status = "FAILED"
	}

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "RESULT:", status)
}

// SaveReportToFile writes the report to filename.
func (r *Report) SaveReportToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create report file")
	}
	defer file.Close()

	r.WriteReport(file)

	return nil
}
