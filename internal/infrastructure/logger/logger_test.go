package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaults(t *testing.T) {
	log, err := New(nil)
	require.NoError(t, err)
	require.NotNil(t, log)

	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewWithLevel(t *testing.T) {
	log, err := New(&Config{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = New(&Config{Level: "error"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "verbose"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown level")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(&Config{Format: "logfmt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info("sync finished")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"sync finished"`)
	assert.Contains(t, string(data), `"level":"info"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{input: "", want: zapcore.InfoLevel},
		{input: "debug", want: zapcore.DebugLevel},
		{input: "INFO", want: zapcore.InfoLevel},
		{input: "warn", want: zapcore.WarnLevel},
		{input: "warning", want: zapcore.WarnLevel},
		{input: "error", want: zapcore.ErrorLevel},
		{input: "fatal", want: zapcore.FatalLevel},
		{input: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("level "+tt.input, func(t *testing.T) {
			got, err := parseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
