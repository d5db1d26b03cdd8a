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

package patchweight

import "testing"

func TestOneDimRampInteriorPatchPeaksAtCenter(t *testing.T) {
	// Patch [10,20) inside a 100-wide image, centre 14: interior on both sides.
	ramp := OneDimRamp(10, 20, 14, 100)

	centerIdx := 14 - 10
	if ramp[centerIdx] != 1.0 {
		t.Fatalf("ramp at centre = %v, want 1.0", ramp[centerIdx])
	}

	for i := 1; i <= centerIdx; i++ {
		if ramp[i] < ramp[i-1] {
			t.Fatalf("ramp not monotone non-decreasing before centre at %d: %v < %v", i, ramp[i], ramp[i-1])
		}
	}
	for i := centerIdx + 1; i < len(ramp); i++ {
		if ramp[i] > ramp[i-1] {
			t.Fatalf("ramp not monotone non-increasing after centre at %d: %v > %v", i, ramp[i], ramp[i-1])
		}
	}
}

func TestOneDimRampEdgeAbuttingLowSideIsFlat(t *testing.T) {
	ramp := OneDimRamp(0, 10, 4, 100)
	for i := 0; i <= 4; i++ {
		if ramp[i] != 1.0 {
			t.Fatalf("expected constant 1.0 on the edge-abutting low side at %d, got %v", i, ramp[i])
		}
	}
	// The high side still ramps down since hi != dim.
	if ramp[9] >= 1.0 {
		t.Fatalf("expected the non-abutting high side to ramp below 1.0, got %v", ramp[9])
	}
}

func TestOneDimRampEdgeAbuttingHighSideIsFlat(t *testing.T) {
	ramp := OneDimRamp(90, 100, 96, 100)
	for i := 6; i < len(ramp); i++ {
		if ramp[i] != 1.0 {
			t.Fatalf("expected constant 1.0 on the edge-abutting high side at %d, got %v", i, ramp[i])
		}
	}
	if ramp[0] >= 1.0 {
		t.Fatalf("expected the non-abutting low side to ramp below 1.0, got %v", ramp[0])
	}
}

func TestOneDimRampBothSidesAbutting(t *testing.T) {
	ramp := OneDimRamp(0, 20, 10, 20)
	for i, v := range ramp {
		if v != 1.0 {
			t.Fatalf("expected all-ones ramp when the patch spans the full dimension, index %d = %v", i, v)
		}
	}
}

func TestBuildMaskIsElementwiseMinimumNotProduct(t *testing.T) {
	mask := BuildMask(10, 20, 14, 10, 20, 14, 100, 100)
	h, w := mask.Dims()
	if h != 10 || w != 10 {
		t.Fatalf("expected a 10x10 mask, got %dx%d", h, w)
	}

	rampY := OneDimRamp(10, 20, 14, 100)
	rampX := OneDimRamp(10, 20, 14, 100)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := rampY[y]
			if rampX[x] < want {
				want = rampX[x]
			}
			got := mask.At(y, x)
			diff := got - float64(want)
			if diff < 0 {
				diff = -diff
			}
			if diff > 1e-6 {
				t.Fatalf("mask[%d][%d] = %v, want elementwise-min %v", y, x, got, want)
			}
		}
	}
}

func TestBuildMaskCenterIsOne(t *testing.T) {
	mask := BuildMask(10, 20, 14, 10, 20, 14, 100, 100)
	if got := mask.At(14-10, 14-10); got != 1.0 {
		t.Fatalf("mask at the shared centre = %v, want 1.0", got)
	}
}

func TestFlattenPreservesRowMajorOrder(t *testing.T) {
	mask := BuildMask(0, 4, 2, 0, 4, 2, 4, 4)
	flat := Flatten(mask)
	h, w := mask.Dims()
	if len(flat) != h*w {
		t.Fatalf("expected %d elements, got %d", h*w, len(flat))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if flat[y*w+x] != float32(mask.At(y, x)) {
				t.Fatalf("flatten mismatch at (%d,%d)", y, x)
			}
		}
	}
}
