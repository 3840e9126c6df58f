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
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/x-stp/domhits/internal/hitlib"
	"github.com/x-stp/domhits/internal/logsource"
	"github.com/x-stp/domhits/internal/metrics"
)

func textSource(name, text string) *logsource.Source {
	return &logsource.Source{Name: name, Text: text, Bytes: int64(len(text))}
}

func TestNewDomainCounter(t *testing.T) {
	dc, err := NewDomainCounter(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultMinHits, dc.config.MinHits)

	testCases := []struct {
		name   string
		config DomainCounterConfig
		errMsg string
	}{
		{"Negative threshold", DomainCounterConfig{MinHits: -1}, "must not be negative"},
		{"Unknown input format", DomainCounterConfig{InputFormat: "csv"}, `unknown input format "csv"`},
		{"Unknown normalizer", DomainCounterConfig{Normalizer: "tld"}, `unknown normalizer "tld"`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDomainCounter(&tc.config, zaptest.NewLogger(t))
			assert.ErrorContains(t, err, tc.errMsg)
		})
	}
}

func TestDomainCounterCount(t *testing.T) {
	dc, err := NewDomainCounter(&DomainCounterConfig{MinHits: 500}, zaptest.NewLogger(t))
	require.NoError(t, err)

	report, err := dc.Count(textSource("unit", "x.com 600\ny.com 400\n\nwww.x.com 100\n"))
	require.NoError(t, err)
	assert.Equal(t, "x.com,(700)", report.Text())

	stats := dc.Stats()
	assert.Equal(t, "unit", stats.Source)
	assert.Equal(t, int64(3), stats.Entries)
	assert.Equal(t, int64(1100), stats.TotalHits)
	assert.Equal(t, 2, stats.Domains)
	assert.Equal(t, 1, stats.ReportLines)
	assert.Equal(t, hitlib.Digest("x.com,(700)"), stats.Digest)
	assert.False(t, stats.StartTime.IsZero())

	// Stats reset between runs.
	_, err = dc.Count(textSource("unit", "a.com 1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), dc.Stats().Entries)
	assert.Equal(t, 0, dc.Stats().ReportLines)
}

func TestDomainCounterMatchesRun(t *testing.T) {
	src := logsource.Sample()
	want, err := hitlib.Run(src.Text, DefaultMinHits)
	require.NoError(t, err)
	require.NotEmpty(t, want)

	dc, err := NewDomainCounter(&DomainCounterConfig{MinHits: DefaultMinHits}, nil)
	require.NoError(t, err)
	report, err := dc.Count(src)
	require.NoError(t, err)
	assert.Equal(t, want, report.Text())
}

func TestDomainCounterNDJSONWithPublicSuffix(t *testing.T) {
	dc, err := NewDomainCounter(&DomainCounterConfig{
		MinHits:     10,
		InputFormat: hitlib.InputNDJSON,
		Normalizer:  hitlib.NormalizerPublicSuffix,
	}, nil)
	require.NoError(t, err)

	report, err := dc.Count(textSource("ndjson", `{"domain":"WWW.Example.com","count":6}
{"domain":"api.example.com","count":"5"}
{"domain":"shop.example.com.au","count":3}
`))
	require.NoError(t, err)
	assert.Equal(t, "example.com,(11)", report.Text())
}

func TestDomainCounterLogging(t *testing.T) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	dc, err := NewDomainCounter(&DomainCounterConfig{MinHits: 1}, zap.New(obsCore))
	require.NoError(t, err)

	_, err = dc.Count(textSource("observed", "www.a.com 2\nb.org 1"))
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("Starting domain count").Len())
	entries := logs.FilterMessage("Aggregated entry").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "www.a.com", fields["domain"])
	assert.Equal(t, "a.com", fields["key"])
	assert.Equal(t, int64(2), fields["count"])

	finished := logs.FilterMessage("Domain count finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, "observed", finished[0].ContextMap()["source"])
	assert.Equal(t, int64(2), finished[0].ContextMap()["entries"])
}

func TestDomainCounterNoDebugAtInfo(t *testing.T) {
	obsCore, logs := observer.New(zapcore.InfoLevel)
	dc, err := NewDomainCounter(nil, zap.New(obsCore))
	require.NoError(t, err)

	_, err = dc.Count(textSource("quiet", "a.com 1"))
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("Aggregated entry").Len())
	assert.Equal(t, int64(1), dc.Stats().Entries)
}

func TestDomainCounterErrors(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		target  error
		errType string
	}{
		{"Malformed line", "a.com 1\nb.com", hitlib.ErrMalformedLine, ErrorTypeMalformedLine},
		{"Malformed count", "a.com x", hitlib.ErrMalformedCount, ErrorTypeMalformedCount},
		{"Invalid domain", "localhost 1", hitlib.ErrInvalidDomain, ErrorTypeInvalidDomain},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			obsCore, logs := observer.New(zapcore.InfoLevel)
			dc, err := NewDomainCounter(nil, zap.New(obsCore))
			require.NoError(t, err)

			report, err := dc.Count(textSource("bad", tc.input))
			require.Error(t, err)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, tc.target)
			assert.Equal(t, ExitInputError, ExitCode(err))
			assert.Contains(t, err.Error(), "failed to aggregate bad")

			failed := logs.FilterMessage("Domain count failed").All()
			require.Len(t, failed, 1)
			assert.Equal(t, tc.errType, failed[0].ContextMap()["error_type"])
		})
	}
}

func TestDomainCounterMetrics(t *testing.T) {
	metrics.EnableMetrics()
	m := metrics.GetMetrics()

	dc, err := NewDomainCounter(&DomainCounterConfig{MinHits: 5}, nil)
	require.NoError(t, err)
	_, err = dc.Count(textSource("metrics-ok", "a.com 5\nb.com 1\nwww.a.com 2"))
	require.NoError(t, err)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.EntriesTotal.WithLabelValues("metrics-ok")))
	assert.Equal(t, float64(8), testutil.ToFloat64(m.HitsTotal.WithLabelValues("metrics-ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.DomainsAggregated.WithLabelValues("metrics-ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReportLines.WithLabelValues("metrics-ok")))

	_, err = dc.Count(textSource("metrics-bad", "a.com -1"))
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("metrics-bad", ErrorTypeMalformedCount)))
}
