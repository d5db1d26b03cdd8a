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

// Rect is a half-open integer rectangle in either source or drizzled pixel
// coordinates: [YLow,YHigh) x [XLow,XHigh).
type Rect struct {
	YLow, YHigh int32
	XLow, XHigh int32
}

func (r Rect) Height() int32 { return r.YHigh - r.YLow }
func (r Rect) Width() int32  { return r.XHigh - r.XLow }

// BorderCounters tracks the maximal clip ever observed in each of the four
// directions while shifting patches into their stacking buffers. The final
// image is cropped by these before being emitted.
type BorderCounters struct {
	YLow, YHigh int32
	XLow, XHigh int32
}

// UpdateMax raises each counter to the max of its current value and o's.
func (b *BorderCounters) UpdateMax(o BorderCounters) {
	if o.YLow > b.YLow {
		b.YLow = o.YLow
	}
	if o.YHigh > b.YHigh {
		b.YHigh = o.YHigh
	}
	if o.XLow > b.XLow {
		b.XLow = o.XLow
	}
	if o.XHigh > b.XHigh {
		b.XHigh = o.XHigh
	}
}

// BilinearResize upsamples or downsamples a channel-parallel float32 image
// of shape (srcH, srcW, channels) to (dstH, dstW, channels) using bilinear
// interpolation. channels is 1 for monochrome, 3 for color. This is the one
// resampling primitive used for drizzle upsampling, background drizzling,
// and the 1.5x final reduction.
func BilinearResize(src []float32, srcH, srcW int32, dstH, dstW int32, channels int) []float32 {
	dst := make([]float32, int(dstH)*int(dstW)*channels)
	if dstH == 0 || dstW == 0 || srcH == 0 || srcW == 0 {
		return dst
	}
	scaleY := float32(srcH) / float32(dstH)
	scaleX := float32(srcW) / float32(dstW)

	for y := int32(0); y < dstH; y++ {
		srcY := (float32(y)+0.5)*scaleY - 0.5
		if srcY < 0 {
			srcY = 0
		}
		yl := int32(srcY)
		yh := yl + 1
		if yh >= srcH {
			yh = srcH - 1
		}
		fy := srcY - float32(yl)

		for x := int32(0); x < dstW; x++ {
			srcX := (float32(x)+0.5)*scaleX - 0.5
			if srcX < 0 {
				srcX = 0
			}
			xl := int32(srcX)
			xh := xl + 1
			if xh >= srcW {
				xh = srcW - 1
			}
			fx := srcX - float32(xl)

			for c := 0; c < channels; c++ {
				v00 := src[(int(yl)*int(srcW)+int(xl))*channels+c]
				v01 := src[(int(yl)*int(srcW)+int(xh))*channels+c]
				v10 := src[(int(yh)*int(srcW)+int(xl))*channels+c]
				v11 := src[(int(yh)*int(srcW)+int(xh))*channels+c]
				top := v00*(1-fx) + v01*fx
				bot := v10*(1-fx) + v11*fx
				dst[(int(y)*int(dstW)+int(x))*channels+c] = top*(1-fy) + bot*fy
			}
		}
	}
	return dst
}
