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

package remap

// accumulateRectPureGo is the scalar fallback shared by every
// architecture: dst[yDstLow+y][xDstLow+x][c] += src[ySrcLow+y][xSrcLow+x][c]
// for the given h x w x channels block.
func accumulateRectPureGo(dst []float32, dstW, yDstLow, xDstLow int32, src []float32, srcW, ySrcLow, xSrcLow int32, h, w, channels int32) {
	for y := int32(0); y < h; y++ {
		dstRow := (yDstLow + y) * dstW
		srcRow := (ySrcLow + y) * srcW
		for x := int32(0); x < w; x++ {
			dstBase := (dstRow + xDstLow + x) * channels
			srcBase := (srcRow + xSrcLow + x) * channels
			for c := int32(0); c < channels; c++ {
				dst[dstBase+c] += src[srcBase+c]
			}
		}
	}
}
