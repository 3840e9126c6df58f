package logging


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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewInfoLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf})
	logger.Debug("hidden")
	logger.Info("shown", zap.String("source", "embedded"))
	_ = logger.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "embedded")
}

func TestNewDebugLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(Options{Debug: true, Writer: &buf})
	logger.Debug("visible")
	_ = logger.Sync()

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "logging_test.go")
}
