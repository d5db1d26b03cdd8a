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

// Package remap provides the rigid shift-and-accumulate kernel: copying
// a shifted rectangle of a frame into an alignment point's stacking
// buffer, adding pixel-wise, with clipping at the frame borders. The
// pixel-copy-and-add inner loop is cpuid-dispatched between an
// AVX2-flavored and a plain-Go path.
package remap

import "github.com/skystack/luckystack/internal/lucore"

// Rigid copies the rectangle [yLow+shiftY, yHigh+shiftY) x [xLow+shiftX,
// xHigh+shiftX) of frame (shape frameH x frameW, channels planes
// interleaved) into buffer (shape (yHigh-yLow) x (xHigh-xLow), same
// channel count), ADDING pixel-wise. If the source rectangle extends
// beyond the frame on a side, it is clipped, the destination origin
// shifts by the clipped amount, and the corresponding entry of borders is
// raised to the maximum clip observed so far.
func Rigid(frame []float32, frameH, frameW int32, channels int, buffer []float32, yLow, yHigh, xLow, xHigh int32, shiftY, shiftX int32, borders *lucore.BorderCounters) {
	ySrcLow := yLow + shiftY
	ySrcHigh := yHigh + shiftY
	yDstLow := int32(0)
	if ySrcLow < 0 {
		yDstLow = -ySrcLow
		ySrcLow = 0
		if yDstLow > borders.YLow {
			borders.YLow = yDstLow
		}
	}
	if ySrcHigh > frameH {
		clip := ySrcHigh - frameH
		if clip > borders.YHigh {
			borders.YHigh = clip
		}
		ySrcHigh = frameH
	}
	yDstHigh := yDstLow + ySrcHigh - ySrcLow

	xSrcLow := xLow + shiftX
	xSrcHigh := xHigh + shiftX
	xDstLow := int32(0)
	if xSrcLow < 0 {
		xDstLow = -xSrcLow
		xSrcLow = 0
		if xDstLow > borders.XLow {
			borders.XLow = xDstLow
		}
	}
	if xSrcHigh > frameW {
		clip := xSrcHigh - frameW
		if clip > borders.XHigh {
			borders.XHigh = clip
		}
		xSrcHigh = frameW
	}
	xDstHigh := xDstLow + xSrcHigh - xSrcLow

	if yDstHigh <= yDstLow || xDstHigh <= xDstLow {
		return
	}

	bufW := xHigh - xLow
	h := yDstHigh - yDstLow
	w := xDstHigh - xDstLow

	accumulateRect(
		buffer, bufW, yDstLow, xDstLow,
		frame, frameW, ySrcLow, xSrcLow,
		h, w, int32(channels),
	)
}

// RigidInto is Rigid for destinations addressed in the SAME absolute
// coordinate space as [yLow,yHigh) x [xLow,xHigh) itself, rather than a
// patch-local buffer whose origin is (yLow,xLow). This is the shape the
// background accumulator needs: one global H x W buffer, shifted by the
// global (not local-warp) frame displacement, written at its own tile or
// full-image rectangle.
func RigidInto(frame []float32, frameH, frameW int32, channels int, dst []float32, dstW int32, yLow, yHigh, xLow, xHigh int32, shiftY, shiftX int32, borders *lucore.BorderCounters) {
	ySrcLow := yLow + shiftY
	ySrcHigh := yHigh + shiftY
	yDstLow := yLow
	if ySrcLow < 0 {
		clip := -ySrcLow
		yDstLow = yLow + clip
		ySrcLow = 0
		if clip > borders.YLow {
			borders.YLow = clip
		}
	}
	if ySrcHigh > frameH {
		clip := ySrcHigh - frameH
		if clip > borders.YHigh {
			borders.YHigh = clip
		}
		ySrcHigh = frameH
	}
	yDstHigh := yDstLow + ySrcHigh - ySrcLow

	xSrcLow := xLow + shiftX
	xSrcHigh := xHigh + shiftX
	xDstLow := xLow
	if xSrcLow < 0 {
		clip := -xSrcLow
		xDstLow = xLow + clip
		xSrcLow = 0
		if clip > borders.XLow {
			borders.XLow = clip
		}
	}
	if xSrcHigh > frameW {
		clip := xSrcHigh - frameW
		if clip > borders.XHigh {
			borders.XHigh = clip
		}
		xSrcHigh = frameW
	}
	xDstHigh := xDstLow + xSrcHigh - xSrcLow

	if yDstHigh <= yDstLow || xDstHigh <= xDstLow {
		return
	}

	h := yDstHigh - yDstLow
	w := xDstHigh - xDstLow

	accumulateRect(
		dst, dstW, yDstLow, xDstLow,
		frame, frameW, ySrcLow, xSrcLow,
		h, w, int32(channels),
	)
}
