// Copyright (C) 2024 The Lucky Imaging Stack Core Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package diagnostics formats the shift-magnitude histogram collected
// during stacking and the overall local-shift failure rate, optionally
// with a per-bin heat-gradient swatch for colorized output.
package diagnostics

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// FailurePercent computes the overall local-shift failure rate,
// 100*failures/(sum(hist)+failures), or -1 when the denominator is zero
// (no alignment points were ever evaluated).
func FailurePercent(histogram []int, failures int) float64 {
	total := failures
	for _, c := range histogram {
		total += c
	}
	if total == 0 {
		return -1
	}
	return 100 * float64(failures) / float64(total)
}

// Bin is one row of a formatted histogram report.
type Bin struct {
	Magnitude int
	Count     int
	Percent   float64
	Swatch    string // hex heat-gradient color, empty unless requested
}

// Report is the exposed diagnostics of one stacking run.
type Report struct {
	Bins           []Bin
	FailurePercent float64
}

// BuildReport truncates the histogram at its last non-zero bin and computes
// each bin's share of the total shift outcomes. When every bin is zero it
// returns the zero Report -- an empty diagnostics exposition.
// withHeatGradient fills in each bin's Swatch as an HCL blend from a cool
// color (small shifts) to a hot one (large shifts).
func BuildReport(histogram []int, failures int, withHeatGradient bool) Report {
	last := -1
	for i, c := range histogram {
		if c != 0 {
			last = i
		}
	}
	if last < 0 {
		return Report{}
	}

	total := failures
	for _, c := range histogram {
		total += c
	}

	cool := colorful.Hcl(220, 0.6, 0.5)
	hot := colorful.Hcl(20, 0.8, 0.5)

	bins := make([]Bin, last+1)
	for r := 0; r <= last; r++ {
		count := histogram[r]
		var percent float64
		if total > 0 {
			percent = 100 * float64(count) / float64(total)
		}
		bin := Bin{Magnitude: r, Count: count, Percent: percent}
		if withHeatGradient {
			t := 0.0
			if last > 0 {
				t = float64(r) / float64(last)
			}
			bin.Swatch = cool.BlendHcl(hot, t).Clamped().Hex()
		}
		bins[r] = bin
	}

	return Report{Bins: bins, FailurePercent: FailurePercent(histogram, failures)}
}

// Format renders one line per bin plus a trailing failure-rate line. An
// empty Report (no Bins) formats to the empty string.
func (r Report) Format() string {
	if len(r.Bins) == 0 {
		return ""
	}
	var b strings.Builder
	for _, bin := range r.Bins {
		if bin.Swatch != "" {
			fmt.Fprintf(&b, "shift %2d: %6.2f%% (%d)  %s\n", bin.Magnitude, bin.Percent, bin.Count, bin.Swatch)
		} else {
			fmt.Fprintf(&b, "shift %2d: %6.2f%% (%d)\n", bin.Magnitude, bin.Percent, bin.Count)
		}
	}
	fmt.Fprintf(&b, "failures: %.1f%%\n", r.FailurePercent)
	return b.String()
}
