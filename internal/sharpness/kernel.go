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

// Package sharpness computes per-frame scalar sharpness scores from a
// pre-blurred monochrome view of each frame. Scores are monotonic in
// perceived sharpness within one frame set; absolute magnitudes are not
// comparable across kernels.
package sharpness

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/skystack/luckystack/internal/lsconfig"
	"github.com/skystack/luckystack/internal/lucore"
)

// Score computes the scalar sharpness of a pre-blurred monochrome frame
// using the configured kernel. laplacian is only read when kernel is
// RankLaplace; it may be nil otherwise.
func Score(kernel lsconfig.RankMethod, blurred []float32, laplacian []float32, h, w int32, stride int) (float32, error) {
	switch kernel {
	case lsconfig.RankXYGradient:
		return xyGradientScore(blurred, h, w, stride), nil
	case lsconfig.RankLaplace:
		return laplaceScore(laplacian), nil
	case lsconfig.RankSobel:
		return sobelScore(blurred, h, w), nil
	default:
		return 0, lucore.NewNotSupportedError("ranking method %q not supported", kernel)
	}
}

// laplaceScore treats the given image as the Laplacian of the blurred
// image and returns the standard deviation of its pixels.
func laplaceScore(laplacian []float32) float32 {
	if len(laplacian) == 0 {
		return 0
	}
	data := make([]float64, len(laplacian))
	for i, v := range laplacian {
		data[i] = float64(v)
	}
	_, variance := stat.MeanVariance(data, nil)
	if variance < 0 {
		variance = 0
	}
	return float32(math.Sqrt(variance))
}
