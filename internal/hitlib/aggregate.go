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
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// LineParser turns one non-blank log line into an Entry.
type LineParser func(line int, text string) (Entry, error)

// Input format names accepted by ParserByName.
const (
	InputPlain  = "plain"
	InputNDJSON = "ndjson"
)

// ParserByName resolves a line parser from its configuration name.
func ParserByName(name string) (LineParser, error) {
	switch name {
	case "", InputPlain:
		return ParsePlainLine, nil
	case InputNDJSON:
		return ParseNDJSONLine, nil
	default:
		return nil, fmt.Errorf("unknown input format %q (want %q or %q)", name, InputPlain, InputNDJSON)
	}
}

// ParsePlainLine parses "<domain> <count>" separated by any whitespace.
func ParsePlainLine(line int, text string) (Entry, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Entry{}, &MalformedLineError{Line: line, Text: strings.TrimRight(text, "\r"), Tokens: len(fields)}
	}
	count, err := parseCount(line, fields[1])
	if err != nil {
		return Entry{}, err
	}
	return Entry{Line: line, Domain: fields[0], Count: count}, nil
}

func parseCount(line int, token string) (int64, error) {
	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, &MalformedCountError{Line: line, Token: token, Err: err}
	}
	if n < 0 {
		return 0, &MalformedCountError{Line: line, Token: token}
	}
	return n, nil
}

// Aggregator sums hit counts per normalized domain.
// The zero value parses plain lines and normalizes with NormalizeDomain.
type Aggregator struct {
	Normalize Normalizer
	Parse     LineParser
	// Observe, when set, is called for every accepted entry with the key it
	// was aggregated under.
	Observe func(e Entry, key string)
}

// Aggregate parses logText and returns the per-domain totals. Surrounding
// whitespace of the whole text and empty lines are ignored; any other bad
// line, including one holding only whitespace, aborts the run with an error
// naming the line.
func (a *Aggregator) Aggregate(logText string) (Counts, error) {
	normalize := a.Normalize
	if normalize == nil {
		normalize = NormalizeDomain
	}
	parse := a.Parse
	if parse == nil {
		parse = ParsePlainLine
	}

	trimmed := strings.TrimLeftFunc(logText, unicode.IsSpace)
	offset := strings.Count(logText[:len(logText)-len(trimmed)], "\n")
	trimmed = strings.TrimRightFunc(trimmed, unicode.IsSpace)

	counts := make(Counts)
	if trimmed == "" {
		return counts, nil
	}
	for i, text := range strings.Split(trimmed, "\n") {
		if strings.TrimRight(text, "\r") == "" {
			continue
		}
		line := offset + i + 1
		entry, err := parse(line, text)
		if err != nil {
			return nil, err
		}
		key, err := normalize(entry.Domain)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := counts.Add(key, entry.Count); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if a.Observe != nil {
			a.Observe(entry, key)
		}
	}
	return counts, nil
}

// Aggregate parses plain "<domain> <count>" lines with the default normalizer.
func Aggregate(logText string) (Counts, error) {
	return (&Aggregator{}).Aggregate(logText)
}
