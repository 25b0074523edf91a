package log

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFieldsToMap(t *testing.T) {
	fields := []zap.Field{
		zap.String("path", "etc/charts/price_chart.png"),
		zap.Int64("size", 2048),
		zap.Bool("persist", true),
		zap.Float64("egg", 3.25),
		zap.Error(errors.New("boom")),
		zap.Duration("delay", time.Second),
	}

	got := fieldsToMap(fields)

	assert.Equal(t, "etc/charts/price_chart.png", got["path"])
	assert.Equal(t, int64(2048), got["size"])
	assert.Equal(t, true, got["persist"])
	assert.Equal(t, 3.25, got["egg"])
	assert.Equal(t, "boom", got["error"])
	assert.Equal(t, int64(time.Second), got["delay"])
}

func TestExtractDuration(t *testing.T) {
	assert.Equal(t, int64(42), extractDuration([]zap.Field{zap.Int64("duration_ms", 42)}))
	assert.Equal(t, int64(0), extractDuration([]zap.Field{zap.Int("duration_ms", 42)}))
	assert.Equal(t, int64(0), extractDuration(nil))
}

func TestInitWritesFileLog(t *testing.T) {
	prevLogger, prevConsole := Logger, consoleLogger
	t.Cleanup(func() { Logger, consoleLogger = prevLogger, prevConsole })

	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Init(dir, "info"))

	LogDebug("hidden debug line")
	LogInfo("price update stored", zap.String("date", "2024-01-08"))
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "INFO price update stored")
	assert.Contains(t, content, `{"date":"2024-01-08"}`)
	assert.False(t, strings.Contains(content, "hidden debug line"))
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(t.TempDir(), "loud")
	assert.Error(t, err)
}

func TestFileEncoderLayout(t *testing.T) {
	enc := &fileEncoder{Encoder: zapcore.NewConsoleEncoder(zapcore.EncoderConfig{})}
	entry := zapcore.Entry{
		Level:   zapcore.WarnLevel,
		Time:    time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC),
		Message: "egg price unavailable",
	}

	buf, err := enc.EncodeEntry(entry, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08 09:30:00     WARN egg price unavailable\n", buf.String())
}
