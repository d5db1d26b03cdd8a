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

// Package diagserver exposes the diagnostics report and rank table over
// a read-only HTTP API. The core engine has no dependency on this
// package; it exists purely as an observability surface a caller may
// wire up alongside it.
package diagserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skystack/luckystack/internal/diagnostics"
	"github.com/skystack/luckystack/internal/rankengine"
)

// Server serves the diagnostics report and rank table produced by a
// stacking run. The diagnostics and rank functions passed to New are
// polled on every request,
// so they can return a zero-value/nil result before the first run completes.
type Server struct {
	engine     *gin.Engine
	diagnostic func() diagnostics.Report
	rank       func() *rankengine.RankTable
}

// New builds a Server and wires its routes. Either function may be nil, in
// which case the corresponding endpoint always reports unavailable.
func New(diagnosticFn func() diagnostics.Report, rankFn func() *rankengine.RankTable) *Server {
	s := &Server{diagnostic: diagnosticFn, rank: rankFn}

	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", s.getPing)
			v1.GET("/diagnostics", s.getDiagnostics)
			v1.GET("/rank", s.getRank)
		}
	}
	s.engine = r
	return s
}

// Handler returns the underlying http.Handler, for use with httptest or a
// caller-managed http.Server.
func (s *Server) Handler() http.Handler { return s.engine }

// Run blocks serving on addr (default ":8080"), mirroring gin.Engine.Run.
func (s *Server) Run(addr ...string) error {
	return s.engine.Run(addr...)
}

func (s *Server) getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (s *Server) getDiagnostics(c *gin.Context) {
	if s.diagnostic == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "diagnostics not available"})
		return
	}
	report := s.diagnostic()
	bins := make([]gin.H, len(report.Bins))
	for i, bin := range report.Bins {
		bins[i] = gin.H{
			"magnitude": bin.Magnitude,
			"count":     bin.Count,
			"percent":   bin.Percent,
			"swatch":    bin.Swatch,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"bins":           bins,
		"failurePercent": report.FailurePercent,
	})
}

func (s *Server) getRank(c *gin.Context) {
	if s.rank == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rank table not available"})
		return
	}
	table := s.rank()
	if table == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rank table not yet computed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"number":               table.Number(),
		"frameRanks":           table.FrameRanks(),
		"qualitySortedIndices": table.QualitySortedIndices(),
		"bestIndex":            table.BestIndex(),
		"bestValue":            table.BestValue(),
	})
}
