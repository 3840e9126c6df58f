package core


/*
domhits — aggregate domain hit counts from access logs
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/x-stp/domhits/internal/hitlib"
	"github.com/x-stp/domhits/internal/logsource"
	"github.com/x-stp/domhits/internal/metrics"
)

// DomainCounter runs the aggregate-then-rank pipeline over a log source and
// keeps run statistics. The pipeline itself is pure; DomainCounter only adds
// logging, metrics and stats around it.
// Concurrency: A DomainCounter is not safe for concurrent use. Create one per run.
type DomainCounter struct {
	config     *DomainCounterConfig
	stats      DomainCounterStats
	logger     *zap.Logger
	metrics    *metrics.Metrics
	aggregator *hitlib.Aggregator
}

// DomainCounterConfig holds the pipeline parameters.
type DomainCounterConfig struct {
	MinHits     int64
	InputFormat string // hitlib.InputPlain or hitlib.InputNDJSON.
	Normalizer  string // hitlib.NormalizerLabels or hitlib.NormalizerPublicSuffix.
}

// DomainCounterStats describes the last run.
type DomainCounterStats struct {
	Source      string
	InputBytes  int64
	Entries     int64 // Log lines aggregated.
	TotalHits   int64 // Sum of all counts, before the threshold.
	Domains     int   // Distinct normalized domains.
	ReportLines int   // Domains at or above MinHits.
	Digest      string
	StartTime   time.Time
	Duration    time.Duration
}

// NewDomainCounter validates config and resolves the parser and normalizer.
// A nil logger disables logging.
func NewDomainCounter(config *DomainCounterConfig, logger *zap.Logger) (*DomainCounter, error) {
	if config == nil {
		config = &DomainCounterConfig{MinHits: DefaultMinHits}
	}
	if config.MinHits < 0 {
		return nil, fmt.Errorf("minimum hits must not be negative, got %d", config.MinHits)
	}
	parse, err := hitlib.ParserByName(config.InputFormat)
	if err != nil {
		return nil, err
	}
	normalize, err := hitlib.NormalizerByName(config.Normalizer)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dc := &DomainCounter{
		config:  config,
		logger:  logger,
		metrics: metrics.GetMetrics(),
		aggregator: &hitlib.Aggregator{
			Normalize: normalize,
			Parse:     parse,
		},
	}
	dc.aggregator.Observe = dc.observe
	return dc, nil
}

func (dc *DomainCounter) observe(e hitlib.Entry, key string) {
	dc.stats.Entries++
	if ce := dc.logger.Check(zap.DebugLevel, "Aggregated entry"); ce != nil {
		ce.Write(
			zap.Int("line", e.Line),
			zap.String("domain", e.Domain),
			zap.String("key", key),
			zap.Int64("count", e.Count))
	}
}

// Count aggregates src and ranks the result.
// On failure the error is returned unchanged so callers can classify it with
// errors.Is / errors.As against the hitlib error types.
func (dc *DomainCounter) Count(src *logsource.Source) (*hitlib.Report, error) {
	dc.stats = DomainCounterStats{
		Source:     src.Name,
		InputBytes: src.Bytes,
		StartTime:  time.Now(),
	}
	log := dc.logger.With(zap.String("source", src.Name))
	log.Info("Starting domain count",
		zap.Int64("bytes", src.Bytes),
		zap.Int64("min_hits", dc.config.MinHits),
		zap.String("input_format", dc.config.InputFormat),
		zap.String("normalizer", dc.config.Normalizer))
	if src.Bytes >= LargeInputWarnBytes {
		log.Warn("Large input is held in memory in full", zap.Int64("bytes", src.Bytes))
	}

	done := metrics.MeasureDuration(dc.metrics.PhaseDuration, prometheus.Labels{"source": src.Name, "phase": PhaseAggregate})
	counts, err := dc.aggregator.Aggregate(src.Text)
	done()
	if err != nil {
		errType := ErrorType(err)
		dc.metrics.RecordError(src.Name, errType)
		log.Error("Domain count failed",
			zap.String("error_type", errType),
			zap.Int64("entries_before_error", dc.stats.Entries),
			zap.Error(err))
		return nil, fmt.Errorf("failed to aggregate %s: %w", src.Name, err)
	}
	dc.stats.Domains = len(counts)
	dc.stats.TotalHits = counts.Total()
	log.Debug("Aggregation complete",
		zap.Int("domains", dc.stats.Domains),
		zap.Int64("total_hits", dc.stats.TotalHits))

	done = metrics.MeasureDuration(dc.metrics.PhaseDuration, prometheus.Labels{"source": src.Name, "phase": PhaseReport})
	report := hitlib.NewReport(counts, dc.config.MinHits)
	done()

	dc.stats.ReportLines = len(report.Domains)
	dc.stats.Digest = report.Digest()
	dc.stats.Duration = time.Since(dc.stats.StartTime)

	dc.metrics.RecordRun(src.Name, src.Bytes, dc.stats.Entries, dc.stats.TotalHits, dc.stats.Domains, dc.stats.ReportLines)
	log.Info("Domain count finished",
		zap.Int64("entries", dc.stats.Entries),
		zap.Int("domains", dc.stats.Domains),
		zap.Int("report_lines", dc.stats.ReportLines),
		zap.String("digest", dc.stats.Digest),
		zap.Duration("duration", dc.stats.Duration))
	return report, nil
}

// Stats returns the statistics of the last Count call.
func (dc *DomainCounter) Stats() DomainCounterStats { return dc.stats }
