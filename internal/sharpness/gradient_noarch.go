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

//go:build !amd64

package sharpness

// On non-amd64 targets cpuid has nothing to report, so both kernels run
// the scalar path unconditionally.

func xyGradientScore(blurred []float32, h, w int32, stride int) float32 {
	return xyGradientScorePureGo(blurred, h, w, stride)
}

func sobelScore(blurred []float32, h, w int32) float32 {
	return sobelScorePureGo(blurred, h, w)
}
