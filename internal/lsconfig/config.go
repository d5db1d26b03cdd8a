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

// Package lsconfig collects the recognized configuration keys of the
// stacking core into a single JSON-tagged struct with seeded defaults.
package lsconfig

import "encoding/json"

type RankMethod string

const (
	RankXYGradient RankMethod = "xy gradient"
	RankLaplace    RankMethod = "Laplace"
	RankSobel      RankMethod = "Sobel"
)

type AlignmentPointsMethod string

const (
	APMethodMultiLevelCorrelation AlignmentPointsMethod = "MultiLevelCorrelation"
	APMethodOther                 AlignmentPointsMethod = ""
)

// Config holds every configuration key the stacking core recognizes.
type Config struct {
	RankFramesMethod      RankMethod `json:"rankFramesMethod"`
	RankFramesPixelStride int        `json:"rankFramesPixelStride"`
	FramesNormalization   bool       `json:"framesNormalization"`

	DrizzleFactor     int  `json:"drizzleFactor"` // 1, 2, or 3 (3 == internal "1.5x")
	DrizzleFactorIs15 bool `json:"drizzleFactorIs1_5"`

	AlignmentPointsMethod        AlignmentPointsMethod `json:"alignmentPointsMethod"`
	AlignmentPointsSearchWidth   int                   `json:"alignmentPointsSearchWidth"`
	AlignmentPointsPenaltyFactor float32               `json:"alignmentPointsPenaltyFactor"`
	AlignmentPointsDeWarp        bool                  `json:"alignmentPointsDeWarp"`

	StackFramesBackgroundBlendThreshold float32 `json:"stackFramesBackgroundBlendThreshold"`
	StackFramesBackgroundFraction       float32 `json:"stackFramesBackgroundFraction"`
	StackFramesBackgroundPatchSize      int     `json:"stackFramesBackgroundPatchSize"`
}

// NewDefaultConfig returns the configuration defaults used when a key is
// not set explicitly.
func NewDefaultConfig() *Config {
	return &Config{
		RankFramesMethod:      RankXYGradient,
		RankFramesPixelStride: 2,
		FramesNormalization:   false,

		DrizzleFactor:     1,
		DrizzleFactorIs15: false,

		AlignmentPointsMethod:        APMethodOther,
		AlignmentPointsSearchWidth:   10,
		AlignmentPointsPenaltyFactor: 0.2,
		AlignmentPointsDeWarp:        true,

		StackFramesBackgroundBlendThreshold: 0.2,
		StackFramesBackgroundFraction:       0.1,
		StackFramesBackgroundPatchSize:      64,
	}
}

// UnmarshalJSON seeds defaults for any key missing from data, following the
// `type defaults Config` trick used by OpStack.UnmarshalJSON.
func (c *Config) UnmarshalJSON(data []byte) error {
	type defaults Config
	def := defaults(*NewDefaultConfig())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*c = Config(def)
	return nil
}
