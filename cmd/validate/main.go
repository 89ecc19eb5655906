// Command validate checks an exported report collection for integrity: every
// record must be well formed, and its status and health score must agree
// with the coverage band table.
//
// Usage:
//
//	go run ./cmd/validate -in ecoguard_reports.json
//	curl -s localhost:8080/api/reports/export | go run ./cmd/validate -in -
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/ecoguard-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	in := flag.String("in", "", "path of the exported reports JSON, or - for stdin")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*in, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(path string, out io.Writer) int {
	reports, err := loadReports(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load reports: %v\n", err)
		return 1
	}

	fmt.Fprintln(out, "=== EcoGuard Report Validation ===")
	fmt.Fprintln(out)

	phases := []*phase{
		validateSchema(reports),
		validateBands(reports),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-30s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Reports: %d\n", len(reports))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Fprintf(out, "  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Fprintf(out, "  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func loadReports(path string) ([]domain.Report, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var reports []domain.Report
	if err := json.NewDecoder(r).Decode(&reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// validateSchema checks that each record carries the fields the views need.
func validateSchema(reports []domain.Report) *phase {
	p := &phase{name: "Record schema"}
	seen := make(map[string]int, len(reports))
	for i := range reports {
		r := &reports[i]
		label := fmt.Sprintf("[%d] %s", i, r.ID)

		switch prev, dup := seen[r.ID]; {
		case r.ID == "":
			p.errorf("[%d]: missing id", i)
		case dup:
			p.errorf("%s: duplicate id (first at %d)", label, prev)
		default:
			seen[r.ID] = i
		}
		if _, err := domain.ParseWaterBodyType(string(r.Type)); err != nil {
			p.errorf("%s: %v", label, err)
		}
		if err := (domain.Coordinate{Lat: r.Lat, Lng: r.Lng}).Validate(); err != nil {
			p.errorf("%s: %v", label, err)
		}
		if strings.TrimSpace(r.Image) == "" {
			p.errorf("%s: missing image", label)
		}
		if r.Timestamp.IsZero() {
			p.errorf("%s: missing timestamp", label)
		}
	}
	return p
}

// validateBands checks status and health score against coverage.
func validateBands(reports []domain.Report) *phase {
	p := &phase{name: "Coverage bands"}
	for i := range reports {
		r := &reports[i]
		label := fmt.Sprintf("[%d] %s", i, r.ID)

		if r.Coverage < 0 || r.Coverage > 100 {
			p.errorf("%s: coverage %d outside 0-100", label, r.Coverage)
			continue
		}
		if want := domain.StatusFor(r.Coverage); r.Status != want {
			p.errorf("%s: status %q, coverage %d implies %q", label, r.Status, r.Coverage, want)
			continue
		}
		if lo, hi := domain.HealthRange(r.Status); r.HealthScore < lo || r.HealthScore > hi {
			p.errorf("%s: health score %d outside %d-%d for %s", label, r.HealthScore, lo, hi, r.Status)
		}
	}
	return p
}
