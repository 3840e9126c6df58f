/*
Package core provides the report pipeline orchestration for domhits: it runs
the pure aggregation and ranking functions from hitlib over a loaded log
source, and records stats, logs and metrics around them.
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

import (
	"errors"

	"github.com/x-stp/domhits/internal/hitlib"
)

// Error type labels, used for metrics and log fields.
const (
	ErrorTypeMalformedLine  = "malformed_line"
	ErrorTypeMalformedCount = "malformed_count"
	ErrorTypeInvalidDomain  = "invalid_domain"
	ErrorTypeOverflow       = "count_overflow"
	ErrorTypeOther          = "other"
)

// ErrorType classifies err for metrics and logs.
// If the error is nil, it returns "".
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, hitlib.ErrMalformedLine):
		return ErrorTypeMalformedLine
	case errors.Is(err, hitlib.ErrMalformedCount):
		return ErrorTypeMalformedCount
	case errors.Is(err, hitlib.ErrInvalidDomain):
		return ErrorTypeInvalidDomain
	case errors.Is(err, hitlib.ErrCountOverflow):
		return ErrorTypeOverflow
	default:
		return ErrorTypeOther
	}
}

// ExitCode maps an error to a process exit code. Bad log content exits with
// ExitInputError so scripts can tell it apart from operational failures.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case hitlib.IsInputError(err):
		return ExitInputError
	default:
		return ExitFailure
	}
}
