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

import (
	"testing"

	"github.com/skystack/luckystack/internal/lsconfig"
)

func flatFrame(h, w int32, v float32) []float32 {
	buf := make([]float32, h*w)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

func checkerFrame(h, w int32, lo, hi float32) []float32 {
	buf := make([]float32, h*w)
	for y := int32(0); y < h; y++ {
		for x := int32(0); x < w; x++ {
			if (x+y)%2 == 0 {
				buf[y*w+x] = hi
			} else {
				buf[y*w+x] = lo
			}
		}
	}
	return buf
}

// stepFrame is lo left of the vertical centre line and hi from it on.
func stepFrame(h, w int32, lo, hi float32) []float32 {
	buf := make([]float32, h*w)
	for y := int32(0); y < h; y++ {
		for x := int32(0); x < w; x++ {
			if x < w/2 {
				buf[y*w+x] = lo
			} else {
				buf[y*w+x] = hi
			}
		}
	}
	return buf
}

func TestXYGradientScoreFlatIsZero(t *testing.T) {
	flat := flatFrame(16, 16, 0.5)
	if got := xyGradientScore(flat, 16, 16, 2); got != 0 {
		t.Fatalf("flat frame expected score 0, got %v", got)
	}
}

func TestXYGradientScoreSharperIsHigher(t *testing.T) {
	dull := checkerFrame(16, 16, 0.4, 0.6)
	sharp := checkerFrame(16, 16, 0.0, 1.0)
	dullScore := xyGradientScore(dull, 16, 16, 1)
	sharpScore := xyGradientScore(sharp, 16, 16, 1)
	if sharpScore <= dullScore {
		t.Fatalf("expected sharper checkerboard to score higher: dull=%v sharp=%v", dullScore, sharpScore)
	}
}

func TestXYGradientScoreDefaultsStrideWhenNonPositive(t *testing.T) {
	sharp := checkerFrame(8, 8, 0, 1)
	if got := xyGradientScore(sharp, 8, 8, 0); got <= 0 {
		t.Fatalf("expected a nonzero score with the stride clamp, got %v", got)
	}
}

func TestSobelScoreFlatIsZero(t *testing.T) {
	flat := flatFrame(10, 10, 0.3)
	if got := sobelScore(flat, 10, 10); got != 0 {
		t.Fatalf("flat frame expected sobel score 0, got %v", got)
	}
}

func TestSobelScoreTooSmallIsZero(t *testing.T) {
	tiny := flatFrame(2, 2, 0.9)
	if got := sobelScore(tiny, 2, 2); got != 0 {
		t.Fatalf("expected 0 for a frame smaller than the 3x3 kernel, got %v", got)
	}
}

func TestSobelScoreSharperIsHigher(t *testing.T) {
	// A one-pixel checkerboard has zero Sobel response everywhere (each
	// kernel's opposite taps see equal values), so compare step edges.
	dull := stepFrame(12, 12, 0.45, 0.55)
	sharp := stepFrame(12, 12, 0.0, 1.0)
	if sobelScore(sharp, 12, 12) <= sobelScore(dull, 12, 12) {
		t.Fatalf("expected the higher-contrast edge to score higher on sobel")
	}
}

func TestLaplaceScoreFlatIsZero(t *testing.T) {
	flat := flatFrame(8, 8, 0.1)
	if got := laplaceScore(flat); got != 0 {
		t.Fatalf("flat laplacian expected score 0, got %v", got)
	}
}

func TestLaplaceScoreEmptyIsZero(t *testing.T) {
	if got := laplaceScore(nil); got != 0 {
		t.Fatalf("empty laplacian expected score 0, got %v", got)
	}
}

func TestLaplaceScoreVariesWithSpread(t *testing.T) {
	narrow := []float32{-0.1, 0, 0.1, 0, -0.1, 0.1}
	wide := []float32{-1, 0, 1, 0, -1, 1}
	if laplaceScore(wide) <= laplaceScore(narrow) {
		t.Fatalf("expected wider-spread laplacian to score higher")
	}
}

func TestScoreDispatchesOnConfiguredMethod(t *testing.T) {
	sharp := checkerFrame(10, 10, 0, 1)
	lap := []float32{-1, 0, 1, 0, -1, 1}

	for _, kernel := range []lsconfig.RankMethod{lsconfig.RankXYGradient, lsconfig.RankLaplace, lsconfig.RankSobel} {
		got, err := Score(kernel, sharp, lap, 10, 10, 2)
		if err != nil {
			t.Fatalf("kernel %v: unexpected error %v", kernel, err)
		}
		if got < 0 {
			t.Fatalf("kernel %v: expected a non-negative score, got %v", kernel, got)
		}
	}
}

func TestScoreRejectsUnknownMethod(t *testing.T) {
	_, err := Score(lsconfig.RankMethod("bogus"), nil, nil, 4, 4, 1)
	if err == nil {
		t.Fatal("expected an error for an unsupported ranking method")
	}
}

func TestSqrtf32MatchesKnownValues(t *testing.T) {
	cases := map[float32]float32{0: 0, 4: 2, 9: 3, 2: 1.4142135}
	for in, want := range cases {
		got := sqrtf32(in)
		diff := got - want
		if diff < 0 {
			diff = -diff
		}
		if diff > 1e-3 {
			t.Fatalf("sqrtf32(%v) = %v, want %v", in, got, want)
		}
	}
}
