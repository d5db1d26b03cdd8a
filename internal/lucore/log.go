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

package lucore

import (
	"io"
	"math"
)

// NullWriter returns the default progress/log sink for callers that pass a
// nil io.Writer. Progress emission is fire-and-forget, so every component
// that accepts a log writer runs it through this helper instead of
// special-casing nil at every call site.
func NullWriter(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// ProgressPercent quantizes frame-loop progress to 10% steps:
// round(10*index/total)*10. Progress signals deliberately step this
// coarsely rather than reporting per-frame percentages.
func ProgressPercent(index, total int) int {
	if total < 1 {
		return 0
	}
	return 10 * int(math.Round(10*float64(index)/float64(total)))
}
