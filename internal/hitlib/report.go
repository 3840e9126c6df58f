package hitlib

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
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/zeebo/xxh3"
)

// Output format names accepted by Report.Render.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
)

// Rank returns the domains with at least minHits hits, ordered by hits
// descending and then by domain ascending, so equal counts still have a
// total order.
func Rank(counts Counts, minHits int64) []DomainCount {
	ranked := make([]DomainCount, 0, len(counts))
	for domain, hits := range counts {
		if hits >= minHits {
			ranked = append(ranked, DomainCount{Domain: domain, Hits: hits})
		}
	}
	slices.SortFunc(ranked, func(a, b DomainCount) int {
		if a.Hits != b.Hits {
			if a.Hits > b.Hits {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Domain, b.Domain)
	})
	return ranked
}

// Format renders the ranked report as "<domain>,(<hits>)" lines joined by
// '\n', without a trailing newline. It returns "" when nothing passes minHits.
func Format(counts Counts, minHits int64) string {
	return formatLines(Rank(counts, minHits))
}

func formatLines(ranked []DomainCount) string {
	var sb strings.Builder
	for i, dc := range ranked {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(dc.String())
	}
	return sb.String()
}

// Run aggregates logText and formats the report for minHits.
func Run(logText string, minHits int64) (string, error) {
	counts, err := Aggregate(logText)
	if err != nil {
		return "", err
	}
	return Format(counts, minHits), nil
}

// Digest is a NON-CRYPTOGRAPHIC fingerprint (xxh3) of a rendered report.
// Identical inputs always produce the same digest.
func Digest(report string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(report))
}

// Report is a ranked result ready to be written in any output format.
type Report struct {
	MinHits int64
	Domains []DomainCount
}

// NewReport ranks counts for minHits.
func NewReport(counts Counts, minHits int64) *Report {
	return &Report{MinHits: minHits, Domains: Rank(counts, minHits)}
}

// Text is the canonical report text, identical to Format.
func (r *Report) Text() string {
	return formatLines(r.Domains)
}

// Digest fingerprints the canonical text.
func (r *Report) Digest() string {
	return Digest(r.Text())
}

// Render writes the report to w in the named format. The text format ends
// with a single newline unless the report is empty.
func (r *Report) Render(w io.Writer, format string) error {
	switch format {
	case "", FormatText:
		return r.renderText(w)
	case FormatTable:
		return r.RenderTable(w)
	case FormatJSON:
		return r.RenderJSON(w)
	default:
		return fmt.Errorf("unknown output format %q (want %q, %q or %q)", format, FormatText, FormatTable, FormatJSON)
	}
}

func (r *Report) renderText(w io.Writer) error {
	text := r.Text()
	if text == "" {
		return nil
	}
	_, err := io.WriteString(w, text+"\n")
	return err
}

// RenderTable writes the report as an aligned table.
func (r *Report) RenderTable(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header("Domain", "Hits")
	for _, dc := range r.Domains {
		if err := table.Append([]string{dc.Domain, strconv.FormatInt(dc.Hits, 10)}); err != nil {
			return fmt.Errorf("failed to append table row for %s: %w", dc.Domain, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// jsonReport is the JSON shape of a Report.
type jsonReport struct {
	MinHits int64         `json:"min_hits"`
	Digest  string        `json:"digest"`
	Total   int64         `json:"total_hits"`
	Domains []DomainCount `json:"domains"`
}

// RenderJSON writes the report as a single indented JSON document.
func (r *Report) RenderJSON(w io.Writer) error {
	out := jsonReport{
		MinHits: r.MinHits,
		Digest:  r.Digest(),
		Domains: r.Domains,
	}
	for _, dc := range r.Domains {
		out.Total = addSaturating(out.Total, dc.Hits)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
