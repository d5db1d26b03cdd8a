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

// Package background decides whether a background fill is needed to
// cover pixels left uncovered by alignment point patches, and if so,
// which source-coordinate tiles are worth computing it over. Per-pixel
// background computation is expensive; when holes are sparse, work is
// restricted to hole-bearing tiles.
package background

// Tile is a non-overlapping square region in source coordinates.
type Tile struct {
	YLow, YHigh int32
	XLow, XHigh int32
}

// Plan is the outcome of planning background coverage for one stacking run.
type Plan struct {
	// NumberStackingHoles is the count of drizzled pixels with
	// weight_sum < 1e-10 across the whole run.
	NumberStackingHoles int
	// NeedsBackground is true iff NumberStackingHoles > 0.
	NeedsBackground bool
	// Tiles lists the source-coordinate squares worth computing the
	// background over. A nil/empty slice while NeedsBackground is true
	// means the background must be computed over the entire image.
	Tiles []Tile
}

// BuildPlan decides whether background fill is needed and, if the holes
// are sparse, which tiles to restrict background computation to.
// weightSum is the drizzled-size weight accumulator,
// row-major (dimYDrizzled x dimXDrizzled). dimY, dimX are the
// source-resolution dimensions; drizzle is the drizzle factor relating
// them (dimYDrizzled == dimY*drizzle).
func BuildPlan(weightSum []float32, dimYDrizzled, dimXDrizzled int32, dimY, dimX int32, drizzle int32, stackSize float32, blendThreshold, backgroundFraction float32, patchSize int32) Plan {
	holes := countBelow(weightSum, 1e-10)
	if holes == 0 {
		return Plan{NumberStackingHoles: 0, NeedsBackground: false}
	}

	blendFloor := blendThreshold * stackSize
	pointsWhereBackgroundUsed := countBelow(weightSum, blendFloor)

	plan := Plan{NumberStackingHoles: holes, NeedsBackground: true}

	totalDrizzledPixels := float64(dimYDrizzled) * float64(dimXDrizzled)
	if totalDrizzledPixels == 0 || float64(pointsWhereBackgroundUsed)/totalDrizzledPixels >= float64(backgroundFraction) {
		// Holes are not sparse: leave Tiles empty, background covers the
		// whole image.
		return plan
	}

	if patchSize <= 0 {
		patchSize = 1
	}

	var tiles []Tile
	for yLow := int32(0); yLow < dimY; yLow += patchSize {
		yHigh := yLow + patchSize
		if yHigh > dimY-1 {
			yHigh = dimY - 1
		}
		if yLow == yHigh {
			continue
		}
		for xLow := int32(0); xLow < dimX; xLow += patchSize {
			xHigh := xLow + patchSize
			if xHigh > dimX-1 {
				xHigh = dimX - 1
			}
			if xLow == xHigh {
				continue
			}

			if tileHasHole(weightSum, dimXDrizzled, yLow*drizzle, yHigh*drizzle, xLow*drizzle, xHigh*drizzle, blendFloor) {
				tiles = append(tiles, Tile{YLow: yLow, YHigh: yHigh, XLow: xLow, XHigh: xHigh})
			}
		}
	}
	plan.Tiles = tiles
	return plan
}

func countBelow(weightSum []float32, threshold float32) int {
	count := 0
	for _, v := range weightSum {
		if v < threshold {
			count++
		}
	}
	return count
}

// tileHasHole reports whether the drizzled rectangle [yLow,yHigh) x
// [xLow,xHigh) of a dimXDrizzled-wide row-major buffer contains at least
// one pixel below threshold.
func tileHasHole(weightSum []float32, dimXDrizzled int32, yLow, yHigh, xLow, xHigh int32, threshold float32) bool {
	for y := yLow; y < yHigh; y++ {
		row := y * dimXDrizzled
		for x := xLow; x < xHigh; x++ {
			if weightSum[row+x] < threshold {
				return true
			}
		}
	}
	return false
}
