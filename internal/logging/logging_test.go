package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewQuietByDefault(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, Options{})
	logger.Debug("request sent", zap.String("path", "/health"))
	logger.Info("run started")
	assert.Empty(t, buf.String())

	logger.Warn("suite file skipped", zap.String("path", "x.yml"))
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "suite file skipped")
	assert.Contains(t, buf.String(), `"path": "x.yml"`)
}

func TestNewVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, Options{Verbose: true})
	logger.Debug("request sent", zap.Int("status", 200))
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "logging_test.go")
	assert.NotContains(t, buf.String(), "\x1b[")
}
