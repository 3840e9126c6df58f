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
	"errors"
	"fmt"
)

// Sentinel errors for broad classification. Each typed error below matches
// exactly one of them through errors.Is.
var (
	// ErrMalformedLine indicates a log line that is not exactly "<domain> <count>".
	ErrMalformedLine = errors.New("malformed log line")
	// ErrMalformedCount indicates a count token that is not a non-negative integer.
	ErrMalformedCount = errors.New("malformed count")
	// ErrInvalidDomain indicates a domain that does not reduce to at least two labels.
	ErrInvalidDomain = errors.New("invalid domain")
	// ErrCountOverflow indicates that accumulating a count would overflow int64.
	ErrCountOverflow = errors.New("hit count overflow")

	errNotNumber = errors.New("not a number")
)

// MalformedLineError reports a line that did not split into a domain and a count.
type MalformedLineError struct {
	Line   int    // 1-based line number within the log text.
	Text   string // The offending line as read.
	Tokens int    // Number of whitespace-separated tokens found.
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("line %d: %v: want 2 fields, got %d: %q", e.Line, ErrMalformedLine, e.Tokens, e.Text)
}

// Is lets errors.Is(err, ErrMalformedLine) match.
func (e *MalformedLineError) Is(target error) bool { return target == ErrMalformedLine }

// MalformedCountError reports a count token that could not be parsed.
type MalformedCountError struct {
	Line  int
	Token string
	Err   error // Underlying strconv error, nil for negative values.
}

func (e *MalformedCountError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %v %q: %v", e.Line, ErrMalformedCount, e.Token, e.Err)
	}
	return fmt.Sprintf("line %d: %v %q: must not be negative", e.Line, ErrMalformedCount, e.Token)
}

func (e *MalformedCountError) Is(target error) bool { return target == ErrMalformedCount }

func (e *MalformedCountError) Unwrap() error { return e.Err }

// InvalidDomainError reports a domain that cannot be normalized.
type InvalidDomainError struct {
	Domain string
	Reason string
	Err    error
}

func (e *InvalidDomainError) Error() string {
	msg := fmt.Sprintf("%v %q", ErrInvalidDomain, e.Domain)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidDomainError) Is(target error) bool { return target == ErrInvalidDomain }

func (e *InvalidDomainError) Unwrap() error { return e.Err }

// IsInputError reports whether err was caused by malformed log content
// rather than by an operational failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMalformedLine) ||
		errors.Is(err, ErrMalformedCount) ||
		errors.Is(err, ErrInvalidDomain) ||
		errors.Is(err, ErrCountOverflow)
}
