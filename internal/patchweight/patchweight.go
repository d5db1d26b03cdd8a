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

// Package patchweight builds the per-alignment-point blend mask: the
// element-wise minimum of two 1-D ramps, which produces a plateau on the
// central axes and fades toward the corners.
package patchweight

import "gonum.org/v1/gonum/mat"

// OneDimRamp builds the 1-D weight ramp over the half-open patch interval
// [lo, hi) with centre c. If the patch abuts the image edge on a side
// (lo == 0 or hi == dim), that side is held at the constant 1.0 instead
// of ramping down, to avoid bleeding weight into the background at image
// borders.
func OneDimRamp(lo, hi, c, dim int32) []float32 {
	n := hi - lo
	ramp := make([]float32, n)

	risingFlat := lo == 0
	fallingFlat := hi == dim

	leftSpan := c - lo + 1
	for i := lo; i < c; i++ {
		if risingFlat {
			ramp[i-lo] = 1.0
		} else {
			ramp[i-lo] = float32(i-lo+1) / float32(leftSpan)
		}
	}

	rightSpan := hi - c
	for i := c; i < hi; i++ {
		if fallingFlat {
			ramp[i-lo] = 1.0
		} else {
			ramp[i-lo] = float32(hi-i) / float32(rightSpan)
		}
	}

	return ramp
}

// BuildMask returns the 2-D blend mask for a patch [yLow,yHigh) x
// [xLow,xHigh) with centre (centerY,centerX), inside a drizzled image of
// size dimY x dimX: the element-wise minimum of the Y and X ramps, not
// their outer product.
func BuildMask(yLow, yHigh, centerY int32, xLow, xHigh, centerX int32, dimY, dimX int32) *mat.Dense {
	rampY := OneDimRamp(yLow, yHigh, centerY, dimY)
	rampX := OneDimRamp(xLow, xHigh, centerX, dimX)

	h, w := len(rampY), len(rampX)
	mask := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := rampY[y]
			if rampX[x] < v {
				v = rampX[x]
			}
			mask.Set(y, x, float64(v))
		}
	}
	return mask
}

// Flatten converts a gonum mask to a row-major float32 slice, the layout
// the stacking engine's AP buffers use.
func Flatten(mask *mat.Dense) []float32 {
	h, w := mask.Dims()
	out := make([]float32, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = float32(mask.At(y, x))
		}
	}
	return out
}
