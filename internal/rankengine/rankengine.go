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

// Package rankengine scores every frame of a burst for sharpness,
// maintains the quality orderings derived from those scores, and finds
// the best contiguous window of frames on the capture timeline.
package rankengine

import (
	"fmt"
	"io"
	"sort"

	"github.com/skystack/luckystack/internal/frames"
	"github.com/skystack/luckystack/internal/lsconfig"
	"github.com/skystack/luckystack/internal/lucore"
	"github.com/skystack/luckystack/internal/sharpness"
)

// RankTable holds frame quality scores in two parallel views: ScoreAll
// populates the original view once; SetIndexTranslation and
// ResetIndexTranslation switch the active view without rescoring.
type RankTable struct {
	numberOriginal   int
	ranksOriginal    []float64
	sortedOriginal   []int
	rankIdxOriginal  []int
	maxIndexOriginal int
	maxValueOriginal float64

	number   int
	ranks    []float64
	sorted   []int
	rankIdx  []int
	maxIndex int
	maxValue float64
}

// New returns an empty RankTable. Call ScoreAll before using it.
func New() *RankTable {
	return &RankTable{}
}

// Number returns the size of the currently active view.
func (t *RankTable) Number() int { return t.number }

// FrameRanks returns the active, normalized (max == 1.0) per-frame scores.
func (t *RankTable) FrameRanks() []float64 { return t.ranks }

// QualitySortedIndices returns frame indices sorted by descending quality.
func (t *RankTable) QualitySortedIndices() []int { return t.sorted }

// RankIndices returns, for each frame index, its position in
// QualitySortedIndices (the permutation inverse).
func (t *RankTable) RankIndices() []int { return t.rankIdx }

// BestIndex returns the index of the single highest-ranked frame.
func (t *RankTable) BestIndex() int { return t.maxIndex }

// BestValue returns the pre-normalization score of the highest-ranked
// frame, i.e. the divisor every entry in FrameRanks was scaled by.
func (t *RankTable) BestValue() float64 { return t.maxValue }

// ScoreAll runs the configured sharpness kernel over every frame
// 0..src.Number()-1, emits progress to log every N/10 frames, and
// normalizes so the best score is 1.0. log may be nil.
func (t *RankTable) ScoreAll(src frames.Source, cfg *lsconfig.Config, log io.Writer) error {
	log = lucore.NullWriter(log)

	if src.IndexTranslationActive() {
		src.ResetIndexTranslation()
	}

	n := src.Number()
	h, w := src.Shape()
	stepSize := n / 10
	if stepSize < 1 {
		stepSize = 1
	}

	ranks := make([]float64, n)
	for i := 0; i < n; i++ {
		if i%stepSize == 1 {
			fmt.Fprintf(log, "Rank all frames: %d%%\n", lucore.ProgressPercent(i, n))
		}

		var score float32
		var err error
		switch cfg.RankFramesMethod {
		case lsconfig.RankLaplace:
			score, err = sharpness.Score(cfg.RankFramesMethod, nil, src.FrameMonoBlurredLaplacian(i), h, w, cfg.RankFramesPixelStride)
		default:
			score, err = sharpness.Score(cfg.RankFramesMethod, src.FrameMonoBlurred(i), nil, h, w, cfg.RankFramesPixelStride)
		}
		if err != nil {
			return err
		}

		if cfg.FramesNormalization {
			brightness := src.AverageBrightness(i)
			ranks[i] = float64(score) / (float64(brightness) + 1e-7)
		} else {
			ranks[i] = float64(score)
		}
	}
	fmt.Fprintf(log, "Rank all frames: 100%%\n")

	sorted, rankIdx, maxIndex, maxValue := normalize(ranks)

	t.numberOriginal = n
	t.ranksOriginal = ranks
	t.sortedOriginal = sorted
	t.rankIdxOriginal = rankIdx
	t.maxIndexOriginal = maxIndex
	t.maxValueOriginal = maxValue

	t.ResetIndexTranslation()
	return nil
}

// SetIndexTranslation restricts the active view to the frames named by T
// (each entry an index into the original frame set), renormalizes, and
// rebuilds both index views.
func (t *RankTable) SetIndexTranslation(T []int) {
	n := len(T)
	ranks := make([]float64, n)
	for i, orig := range T {
		ranks[i] = t.ranksOriginal[orig]
	}
	sorted, rankIdx, maxIndex, maxValue := normalize(ranks)

	t.number = n
	t.ranks = ranks
	t.sorted = sorted
	t.rankIdx = rankIdx
	t.maxIndex = maxIndex
	t.maxValue = maxValue
}

// ResetIndexTranslation restores the active view from the saved originals
// without recomputation.
func (t *RankTable) ResetIndexTranslation() {
	t.number = t.numberOriginal
	t.ranks = t.ranksOriginal
	t.sorted = t.sortedOriginal
	t.rankIdx = t.rankIdxOriginal
	t.maxIndex = t.maxIndexOriginal
	t.maxValue = t.maxValueOriginal
}

// BestFrames is the result of FindBestFrames.
type BestFrames struct {
	Indices            []int
	QualityLossPercent float64
	TimelinePosition   float64
}

// FindBestFrames returns the contiguous window of size window that
// maximizes the summed rank of its best k frames, together with the
// quality loss relative to the globally best k frames and the mean chosen
// index expressed as a percentage of the active frame count. Ties are
// broken by the smallest window start.
func (t *RankTable) FindBestFrames(k, window int) (BestFrames, error) {
	if k > window {
		return BestFrames{}, lucore.NewArgumentError("attempt to find %d good frames in an index interval of size %d", k, window)
	}
	if window > t.number {
		return BestFrames{}, lucore.NewArgumentError("size of best frames region %d larger than the total number of frames %d", window, t.number)
	}

	bestIndices := []int{}
	rankSumOpt := 0.0

	for start := 0; start <= t.number-window; start++ {
		end := start + window
		candidates := make([]int, end-start)
		for i := range candidates {
			candidates[i] = start + i
		}
		topK := topKByRank(candidates, t.ranks, k)
		rankSum := sumRanks(topK, t.ranks)
		if rankSum > rankSumOpt {
			rankSumOpt = rankSum
			bestIndices = topK
		}
	}

	globalTopK := topKByRank(t.sorted[:k], t.ranks, k)
	rankSumGlobal := sumRanks(globalTopK, t.ranks)

	qualityLoss := round1(100 * (rankSumGlobal - rankSumOpt) / rankSumGlobal)

	sum := 0
	for _, idx := range bestIndices {
		sum += idx
	}
	mean := float64(sum) / float64(len(bestIndices))
	cog := round1(100 * mean / float64(t.number))

	return BestFrames{
		Indices:            bestIndices,
		QualityLossPercent: qualityLoss,
		TimelinePosition:   cog,
	}, nil
}

// topKByRank returns the k highest-ranked entries of candidates, sorted by
// descending rank. The stable sort breaks ties by ascending index, since
// candidates arrive in ascending order.
func topKByRank(candidates []int, ranks []float64, k int) []int {
	cp := append([]int(nil), candidates...)
	sort.SliceStable(cp, func(i, j int) bool {
		return ranks[cp[i]] > ranks[cp[j]]
	})
	if k > len(cp) {
		k = len(cp)
	}
	out := append([]int(nil), cp[:k]...)
	return out
}

func sumRanks(indices []int, ranks []float64) float64 {
	sum := 0.0
	for _, i := range indices {
		sum += ranks[i]
	}
	return sum
}

// normalize sorts ranks in descending order, builds the permutation
// inverse, and divides every rank by the maximum so the best scores 1.0.
func normalize(ranks []float64) (sorted []int, rankIdx []int, maxIndex int, maxValue float64) {
	n := len(ranks)
	sorted = make([]int, n)
	for i := range sorted {
		sorted[i] = i
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return ranks[sorted[i]] > ranks[sorted[j]]
	})

	rankIdx = make([]int, n)
	for rank, idx := range sorted {
		rankIdx[idx] = rank
	}

	if n == 0 {
		return sorted, rankIdx, 0, 0
	}
	maxIndex = sorted[0]
	maxValue = ranks[maxIndex]
	if maxValue != 0 {
		for i := range ranks {
			ranks[i] /= maxValue
		}
	}
	return sorted, rankIdx, maxIndex, maxValue
}

func round1(v float64) float64 {
	if v < 0 {
		return -round1(-v)
	}
	scaled := v*10 + 0.5
	return float64(int64(scaled)) / 10
}
