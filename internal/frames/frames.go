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

// Package frames declares the external collaborator contracts consumed by
// the stacking core: the frame source, alignment points, and the local
// shift measurement function. None of these are implemented here -- frame
// decoding, global alignment, alignment-point placement, and local shift
// search all live with the caller.
package frames

import "github.com/skystack/luckystack/internal/lucore"

// Source is the frame source contract. All frame indices must be
// random-accessible; there is no on-line/streaming mode.
type Source interface {
	// Shape returns (height, width) shared by every frame.
	Shape() (h, w int32)
	// Number returns the frame count N. Frames are indexed 0..N-1.
	Number() int
	// Color reports whether frames carry three channels instead of one.
	Color() bool
	// Depth reports the source bit depth, 8 or 16.
	Depth() int

	// Frame returns the full-resolution pixels of frame i, shape (h,w) or
	// (h,w,3), scaled to the source bit depth.
	Frame(i int) []float32
	// FrameMonoBlurred returns the pre-blurred monochrome view of frame i,
	// shape (h,w), used as input to the sharpness kernels and the local
	// shift function.
	FrameMonoBlurred(i int) []float32
	// FrameMonoBlurredLaplacian returns the signed Laplacian of the
	// pre-blurred monochrome view, consumed only by the Laplace kernel.
	FrameMonoBlurredLaplacian(i int) []float32
	// AverageBrightness returns the scalar mean brightness of frame i.
	AverageBrightness(i int) float32

	// UsedAlignmentPoints returns the indices into the alignment point
	// slice that frame i was scored "good enough" to contribute to.
	UsedAlignmentPoints(i int) []int

	// IndexTranslationActive reports whether an exclusion filter is
	// currently applied to this source.
	IndexTranslationActive() bool
	// ResetIndexTranslation clears any active exclusion filter, restoring
	// the full original frame set. The rank engine calls this before
	// scoring from scratch; scores are always computed against the
	// untranslated set.
	ResetIndexTranslation()
}

// AlignmentPoint carries, in both source and drizzled coordinates, the
// patch this alignment point anchors, its scoring set, and the mutable
// buffers the stacking engine writes into. The source/original fields are
// set up externally before stacking begins; StackingBuffer and WeightsYX
// are allocated by the stacking engine on entry and released once the
// final image is emitted.
type AlignmentPoint struct {
	// Patch is the alignment point's rectangle in source coordinates.
	Patch lucore.Rect
	// Center is the box center (reference point) in source coordinates.
	CenterY, CenterX int32

	// PatchDrizzled is Patch scaled by the drizzle factor.
	PatchDrizzled lucore.Rect
	// CenterDrizzled is Center scaled by the drizzle factor.
	CenterYDrizzled, CenterXDrizzled int32

	// GoodFrames is the set of frame indices for which this AP was scored
	// good enough to contribute (mirrors Source.UsedAlignmentPoints from
	// the other direction, used by callers building per-AP iteration).
	GoodFrames []int

	// Channels is 1 for monochrome, 3 for color; determines the shape of
	// StackingBuffer.
	Channels int

	// StackingBuffer accumulates shifted frame contributions for this AP,
	// shape (patchDrizzled.Height, patchDrizzled.Width[, Channels]).
	// Allocated by the stacking engine, written exclusively by it.
	StackingBuffer []float32
	// WeightsYX is the blend mask built by the patch weight builder,
	// shape (patchDrizzled.Height, patchDrizzled.Width). Allocated and
	// filled by the stacking engine before the frame loop runs.
	WeightsYX []float32
}

// ShiftOptions are the recognized options forwarded to the local shift
// function.
type ShiftOptions struct {
	DeWarp                 bool
	WeightMatrixFirstPhase []float32 // nil unless multi-level correlation is selected
	SubpixelSolve          bool
}

// ShiftFunc measures the local warp shift of one alignment point in one
// frame, in source coordinates. It returns success=false (not an error) when
// no reliable shift could be found; the caller counts the failure and skips
// that frame's contribution to the alignment point.
type ShiftFunc func(monoBlurredFrame []float32, frameIndex, apIndex int, opts ShiftOptions) (shiftY, shiftX float32, success bool)

// GlobalShiftTable holds the per-frame integer pixel shift relative to the
// mean frame, in source coordinates.
type GlobalShiftTable struct {
	DY []int32
	DX []int32
}
