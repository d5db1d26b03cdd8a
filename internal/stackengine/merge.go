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

import "github.com/skystack/luckystack/internal/lucore"

// mergeAndBlend accumulates AP patches into the global buffer, normalizes
// by the weight sums, blends in the background where holes exist, trims
// the border, and finalizes to a 16-bit image.
func mergeAndBlend(state *runState) (*Result, error) {
	cfg := state.cfg
	hD, wD, ch := cfg.hD, cfg.wD, cfg.channels

	stacked := make([]float32, int(hD)*int(wD)*ch)

	// Step 1: accumulate patches into global.
	for _, ap := range state.aps {
		h := ap.PatchDrizzled.Height()
		w := ap.PatchDrizzled.Width()
		for y := int32(0); y < h; y++ {
			dstRow := (ap.PatchDrizzled.YLow + y) * wD
			for x := int32(0); x < w; x++ {
				weight := ap.WeightsYX[y*w+x]
				dstBase := (dstRow + ap.PatchDrizzled.XLow + x) * int32(ch)
				srcBase := (y*w + x) * int32(ch)
				for c := 0; c < ch; c++ {
					stacked[int(dstBase)+c] += ap.StackingBuffer[int(srcBase)+c] * weight
				}
			}
		}
	}

	// Step 2: normalize.
	for y := int32(0); y < hD; y++ {
		row := y * wD
		for x := int32(0); x < wD; x++ {
			w := state.weightSum[row+x]
			base := int(row+x) * ch
			for c := 0; c < ch; c++ {
				stacked[base+c] /= w
			}
		}
	}

	// Step 3: background blend.
	if state.bgPlan.NeedsBackground {
		blendFloor := state.blendThreshold * state.stackSize
		for y := int32(0); y < hD; y++ {
			row := y * wD
			for x := int32(0); x < wD; x++ {
				idx := row + x
				fg := state.weightSum[idx] / blendFloor
				if fg > 1 {
					fg = 1
				} else if fg < 0 {
					fg = 0
				}
				base := int(idx) * ch
				for c := 0; c < ch; c++ {
					bg := state.background[base+c]
					stacked[base+c] = (stacked[base+c]-bg)*fg + bg
				}
			}
		}
	}

	// Step 4: border trim.
	trimmedH := hD - state.borders.YLow - state.borders.YHigh
	trimmedW := wD - state.borders.XLow - state.borders.XHigh
	if trimmedH <= 0 || trimmedW <= 0 {
		return nil, lucore.NewInternalError("border trim left a non-positive image: %dx%d", trimmedH, trimmedW)
	}
	trimmed := make([]float32, int(trimmedH)*int(trimmedW)*ch)
	for y := int32(0); y < trimmedH; y++ {
		srcRow := (y + state.borders.YLow) * wD
		dstRow := y * trimmedW
		for x := int32(0); x < trimmedW; x++ {
			srcBase := (srcRow + x + state.borders.XLow) * int32(ch)
			dstBase := (dstRow + x) * int32(ch)
			for c := 0; c < ch; c++ {
				trimmed[int(dstBase)+c] = stacked[int(srcBase)+c]
			}
		}
	}

	// Step 5: bit-depth finalize. Divide by the source full-scale value,
	// clip to [0,1], and quantize to unsigned 16-bit. This completes the
	// stacked image before any resolution reduction.
	divisor := float32(65535)
	if cfg.depth == 8 {
		divisor = float32(255)
	}
	image16 := finalizeU16(trimmed, divisor)

	finalH, finalW := trimmedH, trimmedW

	// Step 6: 1.5x drizzle reduction, applied to the already-quantized
	// 16-bit image.
	if state.is15 {
		halfH := roundToInt32(float32(finalH) * 0.5)
		halfW := roundToInt32(float32(finalW) * 0.5)
		image16 = resizeU16(image16, finalH, finalW, halfH, halfW, ch)
		finalH, finalW = halfH, halfW
	}

	return &Result{
		Image16:             image16,
		Height:              finalH,
		Width:               finalW,
		Channels:            ch,
		Borders:             state.borders,
		Histogram:           state.histogram,
		ShiftFailureCounter: state.shiftFailureCounter,
		NumberStackingHoles: state.bgPlan.NumberStackingHoles,
	}, nil
}

func finalizeU16(values []float32, divisor float32) []uint16 {
	out := make([]uint16, len(values))
	for i, v := range values {
		scaled := v / divisor
		if scaled < 0 {
			scaled = 0
		} else if scaled > 1 {
			scaled = 1
		}
		out[i] = uint16(scaled*65535 + 0.5)
	}
	return out
}

// resizeU16 resizes a quantized 16-bit image by bilinear interpolation,
// rounding each output sample back to uint16.
func resizeU16(img []uint16, srcH, srcW, dstH, dstW int32, channels int) []uint16 {
	src := make([]float32, len(img))
	for i, v := range img {
		src[i] = float32(v)
	}
	dst := lucore.BilinearResize(src, srcH, srcW, dstH, dstW, channels)
	out := make([]uint16, len(dst))
	for i, v := range dst {
		if v < 0 {
			v = 0
		} else if v > 65535 {
			v = 65535
		}
		out[i] = uint16(v + 0.5)
	}
	return out
}
