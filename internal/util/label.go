package util

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
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxLabelLength bounds labels used in log fields and metric label values.
const maxLabelLength = 64

// SourceLabel derives a short, stable label from a log file path: the base
// name with path separators and shell-hostile characters replaced by
// underscores, truncated to maxLabelLength bytes.
func SourceLabel(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		base = path
	}
	return SanitizeLabel(base)
}

// SanitizeLabel replaces problematic characters and invalid UTF-8 with
// underscores and limits length without splitting a rune. Metric label
// values must be valid UTF-8.
func SanitizeLabel(input string) string {
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\t', '\n':
			return '_'
		}
		return r
	}, strings.ToValidUTF8(input, "_"))
	if len(replaced) > maxLabelLength {
		n := maxLabelLength
		for n > 0 && !utf8.RuneStart(replaced[n]) {
			n--
		}
		return replaced[:n]
	}
	if replaced == "" {
		return "_"
	}
	return replaced
}
