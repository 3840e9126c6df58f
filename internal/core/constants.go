/*
Package core constants shared by the report pipeline and the CLI.
By default a domain needs at least 500 hits to be reported.
*/
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

// Application-wide defaults.
const (
	// DefaultMinHits is the inclusive hit threshold used when none is configured.
	DefaultMinHits int64 = 500

	// LargeInputWarnBytes triggers a warning before aggregating inputs this big,
	// since the whole log is held in memory alongside its aggregation.
	LargeInputWarnBytes int64 = 256 * 1024 * 1024 // 256MiB

	// DefaultBufferSize is the write buffer used for report files.
	DefaultBufferSize = 64 * 1024

	// Phase labels used for timing metrics and log fields.
	PhaseAggregate = "aggregate"
	PhaseReport    = "report"
)

// Exit codes returned by the CLI.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitInputError = 2
)
