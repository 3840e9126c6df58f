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
	"math"
	"strconv"
)

// Entry is a single parsed log record: a raw domain and its hit count.
// Entries only live for the duration of one parse pass.
type Entry struct {
	Line   int    // 1-based line number in the source text.
	Domain string // Raw domain token, wildcards included.
	Count  int64
}

// Counts maps a normalized domain to its cumulative hit count.
type Counts map[string]int64

// Add accumulates n hits for domain, inserting the key on first sight.
// It returns ErrCountOverflow instead of wrapping around.
func (c Counts) Add(domain string, n int64) error {
	cur := c[domain]
	if n > 0 && cur > math.MaxInt64-n {
		return fmt.Errorf("%w: %s", ErrCountOverflow, domain)
	}
	c[domain] = cur + n
	return nil
}

// Merge folds other into c by summing per key. Partial mappings must be
// combined through Merge rather than by sharing one map.
func (c Counts) Merge(other Counts) error {
	for domain, n := range other {
		if err := c.Add(domain, n); err != nil {
			return err
		}
	}
	return nil
}

// Total returns the sum of all hit counts, saturating at math.MaxInt64.
// Each key is bounded by Add, the sum across keys is not.
func (c Counts) Total() int64 {
	var total int64
	for _, n := range c {
		total = addSaturating(total, n)
	}
	return total
}

func addSaturating(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// DomainCount is one report line.
type DomainCount struct {
	Domain string `json:"domain"`
	Hits   int64  `json:"hits"`
}

// String renders the line as "<domain>,(<hits>)".
func (d DomainCount) String() string {
	buf := make([]byte, 0, len(d.Domain)+24)
	buf = append(buf, d.Domain...)
	buf = append(buf, ',', '(')
	buf = strconv.AppendInt(buf, d.Hits, 10)
	buf = append(buf, ')')
	return string(buf)
}
