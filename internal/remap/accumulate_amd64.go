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

//go:build amd64

package remap

import "github.com/klauspost/cpuid/v2"

// accumulateRect dispatches on AVX2 availability.
func accumulateRect(dst []float32, dstW, yDstLow, xDstLow int32, src []float32, srcW, ySrcLow, xSrcLow int32, h, w, channels int32) {
	if cpuid.CPU.Has(cpuid.AVX2) && channels == 1 {
		accumulateRectMono4Wide(dst, dstW, yDstLow, xDstLow, src, srcW, ySrcLow, xSrcLow, h, w)
		return
	}
	accumulateRectPureGo(dst, dstW, yDstLow, xDstLow, src, srcW, ySrcLow, xSrcLow, h, w, channels)
}

// accumulateRectMono4Wide handles the common monochrome case with a 4-wide
// unrolled row loop, reducing bounds-check overhead on the wide lanes AVX2
// capable CPUs favor. There is no hand-written assembly here -- this is a
// pure Go loop shaped to vectorize well, not a SIMD intrinsic.
func accumulateRectMono4Wide(dst []float32, dstW, yDstLow, xDstLow int32, src []float32, srcW, ySrcLow, xSrcLow int32, h, w int32) {
	for y := int32(0); y < h; y++ {
		dstRow := (yDstLow+y)*dstW + xDstLow
		srcRow := (ySrcLow+y)*srcW + xSrcLow
		x := int32(0)
		for ; x+4 <= w; x += 4 {
			dst[dstRow+x] += src[srcRow+x]
			dst[dstRow+x+1] += src[srcRow+x+1]
			dst[dstRow+x+2] += src[srcRow+x+2]
			dst[dstRow+x+3] += src[srcRow+x+3]
		}
		for ; x < w; x++ {
			dst[dstRow+x] += src[srcRow+x]
		}
	}
}
