package metrics

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
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun(t *testing.T) {
	EnableMetrics()
	m := GetMetrics()
	require.Same(t, m, GetMetrics())

	m.RecordRun("record_run", 100, 4, 1700, 3, 2)
	m.RecordRun("record_run", 50, 1, 10, 1, 0)

	assert.Equal(t, float64(150), testutil.ToFloat64(m.InputBytesTotal.WithLabelValues("record_run")))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.EntriesTotal.WithLabelValues("record_run")))
	assert.Equal(t, float64(1710), testutil.ToFloat64(m.HitsTotal.WithLabelValues("record_run")))
	// Gauges hold the last run only.
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DomainsAggregated.WithLabelValues("record_run")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ReportLines.WithLabelValues("record_run")))
	assert.Positive(t, testutil.ToFloat64(m.LastRunTimestamp.WithLabelValues("record_run")))
}

func TestRecordError(t *testing.T) {
	EnableMetrics()
	m := GetMetrics()
	m.RecordError("record_error", "malformed_line")
	m.RecordError("record_error", "malformed_line")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("record_error", "malformed_line")))
}

func TestMeasureDuration(t *testing.T) {
	EnableMetrics()
	m := GetMetrics()
	done := MeasureDuration(m.PhaseDuration, prometheus.Labels{"source": "measure", "phase": "aggregate"})
	done()
	assert.Equal(t, 1, testutil.CollectAndCount(m.PhaseDuration, "domhits_phase_duration_seconds"))
}

func TestWriteTextfile(t *testing.T) {
	EnableMetrics()
	GetMetrics().RecordRun("textfile", 1, 1, 1, 1, 1)

	path := filepath.Join(t.TempDir(), "domhits.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `domhits_entries_total{source="textfile"} 1`)
}
