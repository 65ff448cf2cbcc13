package logx

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *LoggingConfig
		level   zerolog.Level
		wantErr bool
	}{
		{name: "nil config", cfg: nil, level: zerolog.InfoLevel},
		{name: "empty level", cfg: &LoggingConfig{ConsoleLogging: true}, level: zerolog.InfoLevel},
		{name: "debug", cfg: &LoggingConfig{Level: "debug"}, level: zerolog.DebugLevel},
		{name: "invalid level", cfg: &LoggingConfig{Level: "verbose"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Initialize(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.level, zerolog.GlobalLevel())
		})
	}
}

func TestInitialize_FileLogging(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(&LoggingConfig{Level: "info", FileLogging: true, Directory: dir}))

	As().Info().Str("path", "/data/upload").Msg("Monitoring directory")

	content, err := os.ReadFile(filepath.Join(dir, defaultFilename))
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"Monitoring directory"`)
	assert.Contains(t, string(content), `"pid":`)
}

func TestOutputs(t *testing.T) {
	assert.Len(t, outputs(&LoggingConfig{}), 1)
	assert.Len(t, outputs(&LoggingConfig{FileLogging: true, Directory: t.TempDir()}), 1)
	assert.Len(t, outputs(&LoggingConfig{ConsoleLogging: true, FileLogging: true, Directory: t.TempDir()}), 2)
}

func TestSetOutput(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	SetOutput(&buf)

	As().Debug().Str("path", "/data/upload/Case_id_1/report.img").Msg("Found new file")

	assert.Contains(t, buf.String(), `"path":"/data/upload/Case_id_1/report.img"`)
	assert.Contains(t, buf.String(), `"pid":`)
}

func TestExecutionTime(t *testing.T) {
	StartTimer()
	assert.Equal(t, "0s", ExecutionTime())
	assert.Equal(t, os.Getpid(), GetPid())
}
