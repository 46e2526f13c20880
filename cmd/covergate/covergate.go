package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/tools/cover"
)

// FileCoverage holds the statement counts of one source file
type FileCoverage struct {
	File       string
	Statements int64
	Covered    int64
}

func (f FileCoverage) Percent() float64 {
	return percent(f.Covered, f.Statements)
}

// Report is the coverage of every file in a profile and the total
type Report struct {
	Files      []FileCoverage
	Statements int64
	Covered    int64
}

// Percent returns the total coverage. A profile without statements counts as fully covered.
func (r *Report) Percent() float64 {
	return percent(r.Covered, r.Statements)
}

func (r *Report) Passes(threshold float64) bool {
	return r.Percent() >= threshold
}

func percent(covered, statements int64) float64 {
	if statements == 0 {
		return 100
	}
	return float64(covered) * 100 / float64(statements)
}

// Evaluate counts statements per file. A block is covered when its count is positive.
func Evaluate(profiles []*cover.Profile, excludes []string) *Report {
	report := &Report{}
	for _, p := range profiles {
		if excluded(p.FileName, excludes) {
			continue
		}
		fc := FileCoverage{File: p.FileName}
		for _, b := range p.Blocks {
			fc.Statements += int64(b.NumStmt)
			if b.Count > 0 {
				fc.Covered += int64(b.NumStmt)
			}
		}
		report.Files = append(report.Files, fc)
		report.Statements += fc.Statements
		report.Covered += fc.Covered
	}
	sort.Slice(report.Files, func(i, j int) bool {
		return report.Files[i].File < report.Files[j].File
	})
	return report
}

func excluded(file string, excludes []string) bool {
	for _, e := range excludes {
		if e != "" && strings.Contains(file, e) {
			return true
		}
	}
	return false
}

// Print writes a per-file table followed by the total
func (r *Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range r.Files {
		fmt.Fprintf(tw, "%s\t%d/%d\t%.1f%%\n", f.File, f.Covered, f.Statements, f.Percent())
	}
	fmt.Fprintf(tw, "total\t%d/%d\t%.1f%%\n", r.Covered, r.Statements, r.Percent())
	return tw.Flush()
}

func runGate(cmd *cobra.Command, args []string) error {
	profile, _ := cmd.Flags().GetString("profile")
	threshold, _ := cmd.Flags().GetFloat64("min")
	excludes, _ := cmd.Flags().GetStringSlice("exclude")

	profiles, err := cover.ParseProfiles(profile)
	if err != nil {
		return fmt.Errorf("reading profile: %w", err)
	}

	report := Evaluate(profiles, excludes)
	if err := report.Print(os.Stdout); err != nil {
		return err
	}

	if !report.Passes(threshold) {
		fmt.Fprintf(os.Stderr, "Coverage %.1f%% is below the minimum of %.1f%%\n", report.Percent(), threshold)
		os.Exit(1)
	}
	return nil
}
