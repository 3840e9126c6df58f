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
	"strings"

	"github.com/tidwall/gjson"
)

// ParseNDJSONLine parses one JSON object per line, e.g.
//
//	{"domain":"*.example.co.uk","count":42}
//
// The count may be a JSON number or a numeric string. Unknown fields are ignored.
func ParseNDJSONLine(line int, text string) (Entry, error) {
	text = strings.TrimSpace(text)
	if !gjson.Valid(text) || !gjson.Parse(text).IsObject() {
		return Entry{}, &MalformedLineError{Line: line, Text: text, Tokens: len(strings.Fields(text))}
	}

	fields := gjson.GetMany(text, "domain", "count")
	domain, count := fields[0], fields[1]
	if domain.Type != gjson.String || !count.Exists() {
		n := 0
		for _, f := range fields {
			if f.Exists() {
				n++
			}
		}
		return Entry{}, &MalformedLineError{Line: line, Text: text, Tokens: n}
	}

	var token string
	switch count.Type {
	case gjson.Number:
		token = count.Raw
	case gjson.String:
		token = count.Str
	default:
		return Entry{}, &MalformedCountError{Line: line, Token: count.Raw, Err: errNotNumber}
	}
	n, err := parseCount(line, token)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Line: line, Domain: domain.Str, Count: n}, nil
}
