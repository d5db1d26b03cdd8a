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

// Command luckystack demonstrates wiring the ranking and stacking engines
// over a synthetic in-memory frame source. Frame decoding, global
// alignment, alignment-point placement, and local shift search are
// external-collaborator contracts with no implementation here; this
// command stands in a trivial synthetic source and a fixed local-shift
// function for them so the rest of the pipeline has something to run
// against.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/skystack/luckystack/internal/diagnostics"
	"github.com/skystack/luckystack/internal/diagserver"
	"github.com/skystack/luckystack/internal/frames"
	"github.com/skystack/luckystack/internal/lsconfig"
	"github.com/skystack/luckystack/internal/lucore"
	"github.com/skystack/luckystack/internal/rankengine"
	"github.com/skystack/luckystack/internal/stackengine"
)

var (
	numFrames = flag.Int("frames", 20, "number of synthetic frames to generate")
	height    = flag.Int("height", 64, "frame height in pixels, must divide evenly by -grid")
	width     = flag.Int("width", 64, "frame width in pixels, must divide evenly by -grid")
	grid      = flag.Int("grid", 2, "alignment points per side, laid out as a grid x grid tiling")
	drizzle   = flag.Int("drizzle", 1, "drizzle factor: 1, 2, or 3 (3 means the 1.5x mode)")
	is15      = flag.Bool("is15", false, "treat -drizzle 3 as the 1.5x mode")
	stackSize = flag.Int("stacksize", 10, "number of best frames to keep")
	window    = flag.Int("window", 15, "sliding window size for FindBestFrames")
	seed      = flag.Int64("seed", 1, "RNG seed for the synthetic frame source")
	serve     = flag.Bool("serve", false, "serve the diagnostics/rank HTTP API after stacking")
	port      = flag.String("port", ":8080", "listen address when -serve is set")
)

func main() {
	flag.Parse()
	logWriter := io.Writer(os.Stdout)

	cfg := lsconfig.NewDefaultConfig()
	cfg.DrizzleFactor = *drizzle
	cfg.DrizzleFactorIs15 = *is15

	src := newSyntheticSource(*numFrames, int32(*height), int32(*width), *seed)

	rankTable := rankengine.New()
	fmt.Fprintf(logWriter, "Scoring %d synthetic frames...\n", src.Number())
	if err := rankTable.ScoreAll(src, cfg, logWriter); err != nil {
		fmt.Fprintf(os.Stderr, "rank frames: %v\n", err)
		os.Exit(1)
	}

	best, err := rankTable.FindBestFrames(*stackSize, *window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "find best frames: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(logWriter, "Best %d-frame window: quality loss %.1f%%, timeline position %.1f%%\n",
		*stackSize, best.QualityLossPercent, best.TimelinePosition)

	aps := buildGridAlignmentPoints(int32(*height), int32(*width), *grid, *grid, int32(cfg.DrizzleFactor))
	src.setUsedAlignmentPoints(len(aps))

	result, err := stackengine.Stack(src, aps, stackengine.Options{
		Config:               cfg,
		Shift:                demoShift,
		GlobalShifts:         src.globalShifts(),
		QualitySortedIndices: rankTable.QualitySortedIndices(),
		StackSize:            *stackSize,
		Log:                  logWriter,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "stack: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(logWriter, "Stacked image: %dx%d, %d channel(s), %d stacking holes, %d shift failures\n",
		result.Width, result.Height, result.Channels, result.NumberStackingHoles, result.ShiftFailureCounter)
	fmt.Fprintf(logWriter, "Border trim: top=%d bottom=%d left=%d right=%d\n",
		result.Borders.YLow, result.Borders.YHigh, result.Borders.XLow, result.Borders.XHigh)

	report := diagnostics.BuildReport(result.Histogram, result.ShiftFailureCounter, true)
	fmt.Fprint(logWriter, report.Format())

	if *serve {
		srv := diagserver.New(
			func() diagnostics.Report { return report },
			func() *rankengine.RankTable { return rankTable },
		)
		fmt.Fprintf(logWriter, "Serving diagnostics on %s ...\n", *port)
		if err := srv.Run(*port); err != nil {
			fmt.Fprintf(os.Stderr, "serve: %v\n", err)
			os.Exit(1)
		}
	}
}

// demoShift stands in for the external local-shift function: it reports a
// small, deterministic, mostly-successful shift so the histogram and
// failure counter have something to show.
func demoShift(_ []float32, frameIndex, apIndex int, _ frames.ShiftOptions) (float32, float32, bool) {
	if (frameIndex+apIndex)%11 == 0 {
		return 0, 0, false
	}
	shift := float32((frameIndex+apIndex)%3) - 1
	return shift, -shift, true
}

// buildGridAlignmentPoints tiles an HxW frame into a rows x cols grid of
// equal-size, non-overlapping alignment points, the simplest placement
// that still exercises the patch weight builder's edge-abutment and
// interior-ramp behavior.
func buildGridAlignmentPoints(h, w int32, rows, cols int, drizzle int32) []*frames.AlignmentPoint {
	tileH := h / int32(rows)
	tileW := w / int32(cols)
	aps := make([]*frames.AlignmentPoint, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			patch := lucore.Rect{
				YLow: int32(r) * tileH, YHigh: int32(r+1) * tileH,
				XLow: int32(c) * tileW, XHigh: int32(c+1) * tileW,
			}
			centerY := (patch.YLow + patch.YHigh) / 2
			centerX := (patch.XLow + patch.XHigh) / 2
			aps = append(aps, &frames.AlignmentPoint{
				Patch:           patch,
				CenterY:         centerY,
				CenterX:         centerX,
				PatchDrizzled:   lucore.Rect{YLow: patch.YLow * drizzle, YHigh: patch.YHigh * drizzle, XLow: patch.XLow * drizzle, XHigh: patch.XHigh * drizzle},
				CenterYDrizzled: centerY * drizzle,
				CenterXDrizzled: centerX * drizzle,
				Channels:        1,
			})
		}
	}
	return aps
}

// syntheticSource is a trivial in-memory frames.Source: every frame is a
// constant plane with a small per-frame brightness jitter, standing in for
// a real decoder.
type syntheticSource struct {
	h, w    int32
	values  []float32
	dy, dx  []int32
	usedAPs []int
}

func newSyntheticSource(n int, h, w int32, seed int64) *syntheticSource {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float32, n)
	dy := make([]int32, n)
	dx := make([]int32, n)
	for i := range values {
		values[i] = 1000 + float32(rng.Intn(200))
		dy[i] = int32(rng.Intn(3)) - 1
		dx[i] = int32(rng.Intn(3)) - 1
	}
	return &syntheticSource{h: h, w: w, values: values, dy: dy, dx: dx}
}

func (s *syntheticSource) setUsedAlignmentPoints(numAPs int) {
	s.usedAPs = make([]int, numAPs)
	for i := range s.usedAPs {
		s.usedAPs[i] = i
	}
}

func (s *syntheticSource) globalShifts() frames.GlobalShiftTable {
	return frames.GlobalShiftTable{DY: s.dy, DX: s.dx}
}

func (s *syntheticSource) Shape() (int32, int32) { return s.h, s.w }
func (s *syntheticSource) Number() int           { return len(s.values) }
func (s *syntheticSource) Color() bool           { return false }
func (s *syntheticSource) Depth() int            { return 16 }

func (s *syntheticSource) Frame(i int) []float32 {
	buf := make([]float32, int(s.h)*int(s.w))
	for j := range buf {
		buf[j] = s.values[i]
	}
	return buf
}

func (s *syntheticSource) FrameMonoBlurred(i int) []float32 { return s.Frame(i) }

func (s *syntheticSource) FrameMonoBlurredLaplacian(i int) []float32 {
	return make([]float32, int(s.h)*int(s.w))
}

func (s *syntheticSource) AverageBrightness(i int) float32 { return s.values[i] }

func (s *syntheticSource) UsedAlignmentPoints(i int) []int { return s.usedAPs }

func (s *syntheticSource) IndexTranslationActive() bool { return false }
func (s *syntheticSource) ResetIndexTranslation()       {}
