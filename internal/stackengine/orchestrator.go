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

package stackengine

import (
	"fmt"
	"io"
	"sync"

	"github.com/skystack/luckystack/internal/background"
	"github.com/skystack/luckystack/internal/frames"
	"github.com/skystack/luckystack/internal/lsconfig"
	"github.com/skystack/luckystack/internal/lucore"
	"github.com/skystack/luckystack/internal/remap"
)

// runState carries the mutable accumulators threaded through the frame
// loop and consumed by the merge stage.
type runState struct {
	cfg *stackConfig

	aps []*frames.AlignmentPoint

	weightSum []float32 // single-channel, drizzled size
	borders   lucore.BorderCounters

	histogram           []int
	shiftFailureCounter int

	bgPlan     background.Plan
	background []float32 // source-resolution accumulator, single or 3-channel
	bgDiscard  lucore.BorderCounters

	stackSize      float32
	blendThreshold float32
	is15           bool
}

// stackConfig is the resolved, source-independent geometry of one run.
type stackConfig struct {
	h, w         int32 // source resolution
	drizzle      int32
	hD, wD       int32 // drizzled resolution
	channels     int
	depth        int
	weightMatrix []float32
}

// apWorkerPartial is one worker's contribution to the cross-frame
// reductions: the weight sums are precomputed, but the histogram, failure
// counter, and border counters are accumulated during the frame loop and
// must be reduced after the parallel pass.
type apWorkerPartial struct {
	histogram []int
	failures  int
	borders   lucore.BorderCounters
	cancelled bool
}

// Stack runs a stacking job end to end: per-frame shift-and-accumulate
// into AP buffers and the background accumulator, then merges, blends,
// trims, and finalizes to a 16-bit image.
//
// The frame loop is parallelized by sharding ownership of alignment points
// across a worker pool: each worker owns a disjoint, contiguous range of
// AP indices and
// walks every frame looking only for its own APs in that frame's used-AP
// list, so two workers never write the same StackingBuffer. The shared
// reductions -- histogram, shift failure counter, border counters -- are
// accumulated per worker and combined once all workers join. The background
// accumulator has no per-AP structure and is filled afterwards in a single
// serial pass.
func Stack(src frames.Source, aps []*frames.AlignmentPoint, opts Options) (*Result, error) {
	cfg := opts.Config
	h, w := src.Shape()
	drizzle := int32(cfg.DrizzleFactor)
	if drizzle < 1 {
		drizzle = 1
	}
	channels := 1
	if src.Color() {
		channels = 3
	}

	state := &runState{
		cfg: &stackConfig{
			h: h, w: w,
			drizzle:      drizzle,
			hD:           h * drizzle,
			wD:           w * drizzle,
			channels:     channels,
			depth:        src.Depth(),
			weightMatrix: buildWeightMatrixFirstPhase(cfg),
		},
		aps:            aps,
		histogram:      make([]int, 2*cfg.AlignmentPointsSearchWidth*int(drizzle)),
		stackSize:      float32(opts.StackSize),
		blendThreshold: cfg.StackFramesBackgroundBlendThreshold,
		is15:           cfg.DrizzleFactorIs15,
	}

	state.weightSum = allocateAPBuffers(aps, state.cfg.hD, state.cfg.wD, float32(opts.StackSize))
	state.bgPlan = background.BuildPlan(
		state.weightSum, state.cfg.hD, state.cfg.wD, h, w, drizzle,
		float32(opts.StackSize),
		cfg.StackFramesBackgroundBlendThreshold, cfg.StackFramesBackgroundFraction,
		int32(cfg.StackFramesBackgroundPatchSize),
	)
	if state.bgPlan.NeedsBackground {
		state.background = make([]float32, int(h)*int(w)*channels)
	}

	var medianBrightness float32
	if cfg.FramesNormalization {
		brightness := make([]float32, src.Number())
		for i := range brightness {
			brightness[i] = src.AverageBrightness(i)
		}
		medianBrightness = median(brightness)
	}

	bestFrames := bestFrameSet(opts.QualitySortedIndices, opts.StackSize)
	log := lucore.NullWriter(opts.Log)

	numWorkers := sizeFrameParallelism(state.cfg, len(aps))
	chunk := (len(aps) + numWorkers - 1) / numWorkers
	if chunk < 1 {
		chunk = 1
	}
	partials := make([]apWorkerPartial, numWorkers)
	var wg sync.WaitGroup
	for workerID := 0; workerID < numWorkers; workerID++ {
		lo := workerID * chunk
		hi := lo + chunk
		if lo > len(aps) {
			lo = len(aps)
		}
		if hi > len(aps) {
			hi = len(aps)
		}
		wg.Add(1)
		go func(workerID, lo, hi int) {
			defer wg.Done()
			partials[workerID] = processAPShard(src, aps, opts, cfg, state.cfg, len(state.histogram), lo, hi, medianBrightness, workerID == 0, log)
		}(workerID, lo, hi)
	}
	wg.Wait()

	for _, p := range partials {
		if p.cancelled {
			return nil, lucore.NewInternalError("stacking cancelled")
		}
		for bin, count := range p.histogram {
			state.histogram[bin] += count
		}
		state.shiftFailureCounter += p.failures
		state.borders.UpdateMax(p.borders)
	}
	fmt.Fprintf(log, "Stack frames: 100%%\n")

	if state.bgPlan.NeedsBackground {
		if err := accumulateBackground(src, opts, cfg, state, medianBrightness, bestFrames, channels, h, w); err != nil {
			return nil, err
		}
		if drizzle > 1 {
			state.background = lucore.BilinearResize(state.background, h, w, state.cfg.hD, state.cfg.wD, channels)
		}
		stackSize := float32(opts.StackSize)
		if stackSize > 0 {
			for i := range state.background {
				state.background[i] /= stackSize
			}
		}
	}

	result, err := mergeAndBlend(state)
	// The AP buffers and masks belong to this run only; drop them now that
	// the final image exists.
	for _, ap := range aps {
		ap.StackingBuffer = nil
		ap.WeightsYX = nil
	}
	return result, err
}

// processAPShard walks every frame looking for the AP indices in [lo,hi),
// measuring and accumulating their shift contribution. Frames that touch
// none of this shard's APs are skipped before any frame data is fetched.
func processAPShard(src frames.Source, aps []*frames.AlignmentPoint, opts Options, cfg *lsconfig.Config, scfg *stackConfig, histLen, lo, hi int, medianBrightness float32, reportProgress bool, log io.Writer) apWorkerPartial {
	partial := apWorkerPartial{histogram: make([]int, histLen)}
	n := src.Number()
	stepSize := n / 10
	if stepSize < 1 {
		stepSize = 1
	}

	for frameIndex := 0; frameIndex < n; frameIndex++ {
		if isCancelled(opts.Cancel) {
			partial.cancelled = true
			return partial
		}

		used := src.UsedAlignmentPoints(frameIndex)
		var mine []int
		for _, apIndex := range used {
			if apIndex >= lo && apIndex < hi {
				mine = append(mine, apIndex)
			}
		}
		if len(mine) == 0 {
			continue
		}

		if reportProgress && frameIndex%stepSize == 1 {
			fmt.Fprintf(log, "Stack frames: %d%%\n", lucore.ProgressPercent(frameIndex, n))
		}

		raw := src.Frame(frameIndex)
		var scaled []float32
		if cfg.FramesNormalization {
			brightness := src.AverageBrightness(frameIndex)
			factor := medianBrightness / (brightness + 1e-7)
			scaled = make([]float32, len(raw))
			for i, v := range raw {
				scaled[i] = v * factor
			}
		} else {
			scaled = raw
		}

		var frameDrizzled []float32
		if scfg.drizzle > 1 {
			frameDrizzled = lucore.BilinearResize(scaled, scfg.h, scfg.w, scfg.hD, scfg.wD, scfg.channels)
		} else {
			frameDrizzled = scaled
		}

		dy := opts.GlobalShifts.DY[frameIndex]
		dx := opts.GlobalShifts.DX[frameIndex]
		blurred := src.FrameMonoBlurred(frameIndex)

		for _, apIndex := range mine {
			if isCancelled(opts.Cancel) {
				partial.cancelled = true
				return partial
			}
			ap := aps[apIndex]

			shiftY, shiftX, success := opts.Shift(blurred, frameIndex, apIndex, frames.ShiftOptions{
				DeWarp:                 cfg.AlignmentPointsDeWarp,
				WeightMatrixFirstPhase: scfg.weightMatrix,
				SubpixelSolve:          scfg.drizzle > 1,
			})

			syD := roundToInt32(shiftY * float32(scfg.drizzle))
			sxD := roundToInt32(shiftX * float32(scfg.drizzle))
			ty := dy*scfg.drizzle - syD
			tx := dx*scfg.drizzle - sxD

			if success {
				mag := roundToInt32(sqrtf32(float32(syD*syD + sxD*sxD)))
				if histLen > 0 {
					if int(mag) < 0 {
						mag = 0
					} else if int(mag) >= histLen {
						mag = int32(histLen - 1)
					}
					partial.histogram[mag]++
				}

				remap.Rigid(
					frameDrizzled, scfg.hD, scfg.wD, scfg.channels,
					ap.StackingBuffer,
					ap.PatchDrizzled.YLow, ap.PatchDrizzled.YHigh,
					ap.PatchDrizzled.XLow, ap.PatchDrizzled.XHigh,
					ty, tx, &partial.borders,
				)
			} else {
				partial.failures++
			}
		}
	}
	return partial
}

// accumulateBackground fills the background accumulator from the best
// frames, shifted globally only (no local warp). It runs after the AP
// worker pool joins: the
// background has no per-AP structure to shard, and only StackSize frames
// (not all N) ever contribute, so a serial pass is cheap relative to the
// full per-AP shift search above.
func accumulateBackground(src frames.Source, opts Options, cfg *lsconfig.Config, state *runState, medianBrightness float32, bestFrames map[int]bool, channels int, h, w int32) error {
	n := src.Number()
	for frameIndex := 0; frameIndex < n; frameIndex++ {
		if !bestFrames[frameIndex] {
			continue
		}
		if isCancelled(opts.Cancel) {
			return lucore.NewInternalError("stacking cancelled while filling background at frame %d", frameIndex)
		}

		raw := src.Frame(frameIndex)
		var scaled []float32
		if cfg.FramesNormalization {
			brightness := src.AverageBrightness(frameIndex)
			factor := medianBrightness / (brightness + 1e-7)
			scaled = make([]float32, len(raw))
			for i, v := range raw {
				scaled[i] = v * factor
			}
		} else {
			scaled = raw
		}

		dy := opts.GlobalShifts.DY[frameIndex]
		dx := opts.GlobalShifts.DX[frameIndex]

		if len(state.bgPlan.Tiles) > 0 {
			for _, tile := range state.bgPlan.Tiles {
				remap.RigidInto(scaled, h, w, channels, state.background, w,
					tile.YLow, tile.YHigh, tile.XLow, tile.XHigh, dy, dx, &state.bgDiscard)
			}
		} else {
			remap.RigidInto(scaled, h, w, channels, state.background, w,
				0, h, 0, w, dy, dx, &state.bgDiscard)
		}
	}
	return nil
}

// sqrtf32 is a small Newton-Raphson square root shared with the histogram
// magnitude bucketing, avoiding a float64 round trip for a single
// per-(frame,AP) scalar.
func sqrtf32(v float32) float32 {
	if v <= 0 {
		return 0
	}
	x := v
	for i := 0; i < 6; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}
