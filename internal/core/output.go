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
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TempSuffix is appended to a report file path while it is being written.
const TempSuffix = ".tmp"

// ReportFile writes a report to a temporary file and moves it into place on
// Commit, so readers never see a partially written report. Paths ending in
// ".gz" are gzip-compressed.
type ReportFile struct {
	writer    *bufio.Writer
	gzWriter  *gzip.Writer // nil unless compressing
	file      *os.File
	filePath  string // temp path being written
	finalPath string
	done      bool
}

// CreateReportFile opens path+TempSuffix for writing. The parent directory
// must exist.
func CreateReportFile(path string) (*ReportFile, error) {
	if path == "" {
		return nil, errors.New("report file path is empty")
	}
	tempPath := path + TempSuffix
	file, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", tempPath, err)
	}

	rf := &ReportFile{file: file, filePath: tempPath, finalPath: path}
	if strings.EqualFold(filepath.Ext(path), ".gz") {
		rf.gzWriter, _ = gzip.NewWriterLevel(file, gzip.BestSpeed)
		rf.writer = bufio.NewWriterSize(rf.gzWriter, DefaultBufferSize)
	} else {
		rf.writer = bufio.NewWriterSize(file, DefaultBufferSize)
	}
	return rf, nil
}

// Write implements io.Writer.
func (rf *ReportFile) Write(p []byte) (int, error) {
	if rf.done {
		return 0, fmt.Errorf("write to closed report file %s", rf.finalPath)
	}
	return rf.writer.Write(p)
}

// Path is the final destination of the report.
func (rf *ReportFile) Path() string { return rf.finalPath }

// Commit flushes and closes the file, then renames it to its final path.
// Close order: bufio -> gzip -> file.
func (rf *ReportFile) Commit() error {
	if rf.done {
		return nil
	}
	rf.done = true

	var errs []error
	if err := rf.writer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush %s: %w", rf.filePath, err))
	}
	if rf.gzWriter != nil {
		if err := rf.gzWriter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gzip stream %s: %w", rf.filePath, err))
		}
	}
	if err := rf.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", rf.filePath, err))
	}
	if len(errs) > 0 {
		_ = os.Remove(rf.filePath)
		return errors.Join(errs...)
	}
	if err := os.Rename(rf.filePath, rf.finalPath); err != nil {
		_ = os.Remove(rf.filePath)
		return fmt.Errorf("failed to rename %s to %s: %w", rf.filePath, rf.finalPath, err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (rf *ReportFile) Abort() {
	if rf.done {
		return
	}
	rf.done = true
	if rf.gzWriter != nil {
		_ = rf.gzWriter.Close()
	}
	_ = rf.file.Close()
	_ = os.Remove(rf.filePath)
}
