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

package sharpness

// xyGradientScorePureGo is the scalar fallback shared by every
// architecture. It subsamples the frame on a stride x stride lattice and
// averages the absolute horizontal and vertical first differences.
func xyGradientScorePureGo(blurred []float32, h, w int32, stride int) float32 {
	if stride <= 0 {
		stride = 1
	}
	sInt := int32(stride)
	sum := float32(0)
	count := 0
	for y := int32(0); y+sInt < h; y += sInt {
		row := y * w
		rowBelow := (y + sInt) * w
		for x := int32(0); x+sInt < w; x += sInt {
			v := blurred[row+x]
			dx := v - blurred[row+x+sInt]
			dy := v - blurred[rowBelow+x]
			if dx < 0 {
				dx = -dx
			}
			if dy < 0 {
				dy = -dy
			}
			sum += dx + dy
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float32(count)
}

// sobelScorePureGo computes the mean 3x3 Sobel gradient magnitude over the
// interior of the frame.
func sobelScorePureGo(blurred []float32, h, w int32) float32 {
	if h < 3 || w < 3 {
		return 0
	}
	sum := float32(0)
	count := 0
	for y := int32(1); y < h-1; y++ {
		for x := int32(1); x < w-1; x++ {
			sum += sobelMagnitudeAt(blurred, w, y, x)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float32(count)
}

// sobelMagnitudeAt applies the standard 3x3 Sobel Gx/Gy kernels centered on
// (y,x) and returns sqrt(Gx^2 + Gy^2). x and y must be interior pixels.
func sobelMagnitudeAt(blurred []float32, w, y, x int32) float32 {
	tl := blurred[(y-1)*w+(x-1)]
	tc := blurred[(y-1)*w+x]
	tr := blurred[(y-1)*w+(x+1)]
	ml := blurred[y*w+(x-1)]
	mr := blurred[y*w+(x+1)]
	bl := blurred[(y+1)*w+(x-1)]
	bc := blurred[(y+1)*w+x]
	br := blurred[(y+1)*w+(x+1)]

	gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
	gy := (bl + 2*bc + br) - (tl + 2*tc + tr)

	return sqrtf32(gx*gx + gy*gy)
}

// sqrtf32 is a tiny Newton-Raphson square root used only inside the hot
// per-pixel Sobel loop, avoiding a float64 round trip through math.Sqrt.
func sqrtf32(v float32) float32 {
	if v <= 0 {
		return 0
	}
	x := v
	for i := 0; i < 4; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}
