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

import (
	"testing"

	"github.com/skystack/luckystack/internal/lucore"
)

func iotaFrame(h, w int32) []float32 {
	buf := make([]float32, h*w)
	for i := range buf {
		buf[i] = float32(i)
	}
	return buf
}

func TestRigidNoShiftCopiesRectangleExactly(t *testing.T) {
	frame := iotaFrame(10, 10)
	buf := make([]float32, 4*4)
	borders := &lucore.BorderCounters{}

	Rigid(frame, 10, 10, 1, buf, 2, 6, 2, 6, 0, 0, borders)

	for y := int32(0); y < 4; y++ {
		for x := int32(0); x < 4; x++ {
			want := frame[(2+y)*10+(2+x)]
			got := buf[y*4+x]
			if got != want {
				t.Fatalf("buf[%d][%d] = %v, want %v", y, x, got, want)
			}
		}
	}
	if borders.YLow != 0 || borders.YHigh != 0 || borders.XLow != 0 || borders.XHigh != 0 {
		t.Fatalf("expected zero border clip with no shift, got %+v", borders)
	}
}

func TestRigidAccumulatesAdditively(t *testing.T) {
	frame := iotaFrame(10, 10)
	buf := make([]float32, 4*4)
	borders := &lucore.BorderCounters{}

	Rigid(frame, 10, 10, 1, buf, 2, 6, 2, 6, 0, 0, borders)
	Rigid(frame, 10, 10, 1, buf, 2, 6, 2, 6, 0, 0, borders)

	for y := int32(0); y < 4; y++ {
		for x := int32(0); x < 4; x++ {
			want := 2 * frame[(2+y)*10+(2+x)]
			if buf[y*4+x] != want {
				t.Fatalf("buf[%d][%d] = %v, want %v (accumulated twice)", y, x, buf[y*4+x], want)
			}
		}
	}
}

func TestRigidClipsNegativeShiftAndUpdatesBorders(t *testing.T) {
	frame := iotaFrame(10, 10)
	buf := make([]float32, 4*4) // zero-initialized
	borders := &lucore.BorderCounters{}

	// Patch [0,4)x[0,4) shifted by (-2,-3): source would start at (-2,-3).
	Rigid(frame, 10, 10, 1, buf, 0, 4, 0, 4, -2, -3, borders)

	if borders.YLow != 2 {
		t.Fatalf("expected border_y_low = 2, got %d", borders.YLow)
	}
	if borders.XLow != 3 {
		t.Fatalf("expected border_x_low = 3, got %d", borders.XLow)
	}
	// Untouched destination rows/cols (the clipped region) must stay zero.
	if buf[0] != 0 {
		t.Fatalf("expected the clipped destination corner to remain untouched, got %v", buf[0])
	}
	// The valid region starts at destination (2,3): source (0,0).
	want := frame[0]
	if buf[2*4+3] != want {
		t.Fatalf("buf[2][3] = %v, want %v", buf[2*4+3], want)
	}
}

func TestRigidClipsPositiveOverrunAndUpdatesBorders(t *testing.T) {
	frame := iotaFrame(10, 10)
	buf := make([]float32, 4*4)
	borders := &lucore.BorderCounters{}

	// Patch [7,11)x[7,11) (already overruns frame=10 without any shift).
	Rigid(frame, 10, 10, 1, buf, 7, 11, 7, 11, 0, 0, borders)

	if borders.YHigh != 1 {
		t.Fatalf("expected border_y_high = 1, got %d", borders.YHigh)
	}
	if borders.XHigh != 1 {
		t.Fatalf("expected border_x_high = 1, got %d", borders.XHigh)
	}
	// Valid 3x3 region copied at destination origin (0,0).
	for y := int32(0); y < 3; y++ {
		for x := int32(0); x < 3; x++ {
			want := frame[(7+y)*10+(7+x)]
			if buf[y*4+x] != want {
				t.Fatalf("buf[%d][%d] = %v, want %v", y, x, buf[y*4+x], want)
			}
		}
	}
}

func TestRigidBorderCountersTrackMaxAcrossCalls(t *testing.T) {
	frame := iotaFrame(10, 10)
	buf := make([]float32, 4*4)
	borders := &lucore.BorderCounters{}

	Rigid(frame, 10, 10, 1, buf, 0, 4, 0, 4, -1, 0, borders)
	Rigid(frame, 10, 10, 1, buf, 0, 4, 0, 4, -3, 0, borders)
	Rigid(frame, 10, 10, 1, buf, 0, 4, 0, 4, -2, 0, borders)

	if borders.YLow != 3 {
		t.Fatalf("expected the max clip of 3 to stick, got %d", borders.YLow)
	}
}

func TestRigidIntoWritesAtAbsoluteTileCoordinates(t *testing.T) {
	frame := iotaFrame(10, 10)
	dst := make([]float32, 10*10)
	borders := &lucore.BorderCounters{}

	// Tile [4,8)x[4,8), no shift: must land at the SAME absolute offset in dst.
	RigidInto(frame, 10, 10, 1, dst, 10, 4, 8, 4, 8, 0, 0, borders)

	for y := int32(4); y < 8; y++ {
		for x := int32(4); x < 8; x++ {
			want := frame[y*10+x]
			got := dst[y*10+x]
			if got != want {
				t.Fatalf("dst[%d][%d] = %v, want %v", y, x, got, want)
			}
		}
	}
	// Nothing written outside the tile.
	if dst[0] != 0 {
		t.Fatalf("expected untouched region outside the tile to stay zero, got %v", dst[0])
	}
}

func TestRigidIntoClipsAtFrameEdgeWithOffsetTile(t *testing.T) {
	frame := iotaFrame(10, 10)
	dst := make([]float32, 10*10)
	borders := &lucore.BorderCounters{}

	// Tile [6,10)x[6,10) shifted by (+3,+3): source would run off the frame.
	RigidInto(frame, 10, 10, 1, dst, 10, 6, 10, 6, 10, 3, 3, borders)

	if borders.YHigh != 3 || borders.XHigh != 3 {
		t.Fatalf("expected border clip of 3 on both high sides, got YHigh=%d XHigh=%d", borders.YHigh, borders.XHigh)
	}
	// Valid region is dst [6,7)x[6,7) <- src [9,10)x[9,10).
	if dst[6*10+6] != frame[9*10+9] {
		t.Fatalf("dst[6][6] = %v, want %v", dst[6*10+6], frame[9*10+9])
	}
}

func TestRigidColorChannelsInterleaved(t *testing.T) {
	const h, w, ch = 6, 6, 3
	frame := make([]float32, h*w*ch)
	for i := range frame {
		frame[i] = float32(i)
	}
	buf := make([]float32, 4*4*ch)
	borders := &lucore.BorderCounters{}

	Rigid(frame, h, w, ch, buf, 1, 5, 1, 5, 0, 0, borders)

	for y := int32(0); y < 4; y++ {
		for x := int32(0); x < 4; x++ {
			for c := int32(0); c < ch; c++ {
				want := frame[((1+y)*w+(1+x))*ch+c]
				got := buf[(y*4+x)*ch+c]
				if got != want {
					t.Fatalf("buf[%d][%d][%d] = %v, want %v", y, x, c, got, want)
				}
			}
		}
	}
}
