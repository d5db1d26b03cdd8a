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

// Package stackengine drives the stacking run end to end: the per-frame
// shift-and-accumulate loop over all alignment points, the optional
// background fill, and the final merge/blend/trim into a 16-bit image.
// There is a single entry point, progress is threaded through an
// io.Writer, and the frame loop runs on a bounded goroutine pool.
package stackengine

import (
	"io"
	"runtime"
	"sort"

	"github.com/pbnjay/memory"

	"github.com/skystack/luckystack/internal/frames"
	"github.com/skystack/luckystack/internal/lsconfig"
	"github.com/skystack/luckystack/internal/lucore"
	"github.com/skystack/luckystack/internal/patchweight"
)

// Options configures one stacking run.
type Options struct {
	Config *lsconfig.Config

	// Shift is the external local-shift measurement function. Required.
	Shift frames.ShiftFunc

	// GlobalShifts holds the per-frame integer pixel shift relative to
	// the mean frame, in source coordinates. Required.
	GlobalShifts frames.GlobalShiftTable

	// QualitySortedIndices lists all active frame indices in descending
	// quality order (rankengine.RankTable.QualitySortedIndices()).
	// StackSize is how many of its leading entries count as
	// "best frames" eligible to contribute to the background fill.
	QualitySortedIndices []int
	StackSize            int

	// Log receives progress lines; nil is tolerated.
	Log io.Writer
	// Cancel, if non-nil, is checked between frames and between APs
	// within a frame; a closed channel aborts the run early with partial
	// state discarded.
	Cancel <-chan struct{}
}

// Result is the outcome of a stacking run.
type Result struct {
	// Image16 is the final image, 16-bit per channel, row-major, HxW or
	// HxWx3, already border-trimmed and 1.5x-reduced if applicable.
	Image16       []uint16
	Height, Width int32
	Channels      int

	Borders lucore.BorderCounters

	// Histogram is the shift-magnitude distribution, length
	// 2*searchWidth*drizzle.
	Histogram           []int
	ShiftFailureCounter int

	NumberStackingHoles int
}

func isCancelled(cancel <-chan struct{}) bool {
	if cancel == nil {
		return false
	}
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}

// buildWeightMatrixFirstPhase precomputes the multi-level-correlation
// first-phase penalty field once per run:
// 1 - penalty * ((dy/w)^2 + (dx/w)^2) for w = (searchWidth-4)/2, over a
// (2w+1) x (2w+1) extent centered on the search window. It is passed
// through to the local-shift function unchanged.
func buildWeightMatrixFirstPhase(cfg *lsconfig.Config) []float32 {
	if cfg.AlignmentPointsMethod != lsconfig.APMethodMultiLevelCorrelation {
		return nil
	}
	w := (cfg.AlignmentPointsSearchWidth - 4) / 2
	if w <= 0 {
		return nil
	}
	extent := 2*w + 1
	matrix := make([]float32, extent*extent)
	penalty := cfg.AlignmentPointsPenaltyFactor
	for y := 0; y < extent; y++ {
		fy := float32(y)/float32(w) - 1
		for x := 0; x < extent; x++ {
			fx := float32(x)/float32(w) - 1
			matrix[y*extent+x] = 1 - penalty*(fy*fy+fx*fx)
		}
	}
	return matrix
}

// roundToInt32 rounds a float32 to the nearest integer, half away
// from zero.
func roundToInt32(v float32) int32 {
	if v >= 0 {
		return int32(v + 0.5)
	}
	return -int32(-v + 0.5)
}

// median returns the median of a float32 slice without mutating the input.
func median(values []float32) float32 {
	if len(values) == 0 {
		return 0
	}
	cp := append([]float32(nil), values...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return (cp[mid-1] + cp[mid]) / 2
}

func bestFrameSet(sortedIndices []int, stackSize int) map[int]bool {
	if stackSize > len(sortedIndices) {
		stackSize = len(sortedIndices)
	}
	set := make(map[int]bool, stackSize)
	for _, idx := range sortedIndices[:stackSize] {
		set[idx] = true
	}
	return set
}

// sizeFrameParallelism picks the worker count for the AP-sharded frame
// loop, backing off against memory.TotalMemory(): start at GOMAXPROCS,
// and shed workers while each worker's full-frame working set (one
// decoded, drizzled frame) times the worker count would exceed a quarter
// of physical memory. Sharding is by AP, so there is no point running
// more workers than there are alignment points to own.
func sizeFrameParallelism(cfg *stackConfig, numAPs int) int {
	if numAPs < 2 {
		return 1
	}
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	bytesPerFrame := int64(cfg.hD) * int64(cfg.wD) * int64(cfg.channels) * 4
	if bytesPerFrame < 1 {
		bytesPerFrame = 1
	}
	budget := int64(memory.TotalMemory()) / 4
	for workers > 1 && bytesPerFrame*int64(workers) > budget {
		workers--
	}
	if workers > numAPs {
		workers = numAPs
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// allocateAPBuffers assigns each AP its drizzled-size stacking buffer and
// blend mask, and returns the single-channel global weight-sum buffer.
// The tiny positive fill keeps the final per-pixel division total, so no
// per-pixel branch is needed downstream.
func allocateAPBuffers(aps []*frames.AlignmentPoint, dimYDrizzled, dimXDrizzled int32, stackSize float32) []float32 {
	weightSum := make([]float32, dimYDrizzled*dimXDrizzled)
	for i := range weightSum {
		weightSum[i] = 1e-30
	}

	for _, ap := range aps {
		h := ap.PatchDrizzled.Height()
		w := ap.PatchDrizzled.Width()
		ap.StackingBuffer = make([]float32, int(h)*int(w)*ap.Channels)

		mask := patchweight.BuildMask(
			ap.PatchDrizzled.YLow, ap.PatchDrizzled.YHigh, ap.CenterYDrizzled,
			ap.PatchDrizzled.XLow, ap.PatchDrizzled.XHigh, ap.CenterXDrizzled,
			dimYDrizzled, dimXDrizzled,
		)
		ap.WeightsYX = patchweight.Flatten(mask)

		for y := int32(0); y < h; y++ {
			row := (ap.PatchDrizzled.YLow + y) * dimXDrizzled
			for x := int32(0); x < w; x++ {
				weightSum[row+ap.PatchDrizzled.XLow+x] += stackSize * ap.WeightsYX[y*w+x]
			}
		}
	}
	return weightSum
}
