/*
Package logsource supplies raw log text to the aggregation pipeline.
Text comes from one of three places: the sample log compiled into the
binary, a file on disk, or standard input. The whole input is read into
memory; the pipeline works on a single string.
*/
package logsource

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
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/x-stp/domhits/internal/util"
)

// Source names used when the text does not come from a file.
const (
	EmbeddedName = "embedded"
	StdinName    = "stdin"
	// StdinPath is the path argument that selects standard input.
	StdinPath = "-"
)

// MaxInputSize caps how much log text is read into memory.
const MaxInputSize int64 = 1 << 30 // 1GiB

// ErrInputTooLarge is returned when the input exceeds MaxInputSize.
var ErrInputTooLarge = errors.New("log input exceeds maximum size")

//go:embed sample.log
var sampleLog string

// Source is log text plus a short label describing where it came from.
type Source struct {
	Name  string // Label safe for logs and metric labels.
	Path  string // Path as given, empty for the embedded sample.
	Text  string
	Bytes int64
}

// Sample returns the embedded sample log.
func Sample() *Source {
	return &Source{Name: EmbeddedName, Text: sampleLog, Bytes: int64(len(sampleLog))}
}

// Load reads log text from path. An empty path selects the embedded sample
// and "-" reads stdin until EOF.
func Load(path string, stdin io.Reader) (*Source, error) {
	switch path {
	case "":
		return Sample(), nil
	case StdinPath:
		if stdin == nil {
			return nil, errors.New("no stdin available")
		}
		text, err := readAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("error reading log from stdin: %w", err)
		}
		return &Source{Name: StdinName, Path: path, Text: text, Bytes: int64(len(text))}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}
	defer f.Close()

	text, err := readAll(f)
	if err != nil {
		return nil, fmt.Errorf("error reading log file %s: %w", path, err)
	}
	return &Source{Name: util.SourceLabel(path), Path: path, Text: text, Bytes: int64(len(text))}, nil
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > MaxInputSize {
		return "", ErrInputTooLarge
	}
	return string(data), nil
}
