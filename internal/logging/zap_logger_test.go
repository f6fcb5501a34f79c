package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

var _ ydbrpc.Logger = (*ZapLogger)(nil)
var _ ydbrpc.Logger = (*NullLogger)(nil)

// syncBuffer guards bytes.Buffer for concurrent writers
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestZapLogger_Verbose_WhenEnabled(t *testing.T) {
	var out syncBuffer
	logger := New(Options{Verbose: true, Output: &out})

	logger.Verbose("test message: %s", "value")

	assert.Equal(t, "DEBUG\ttest message: value\n", out.String())
}

func TestZapLogger_Verbose_WhenDisabled(t *testing.T) {
	var out syncBuffer
	logger := New(Options{Output: &out})

	logger.Verbose("test message: %s", "value")

	assert.Empty(t, out.String())
}

func TestZapLogger_InfoAndError(t *testing.T) {
	var out syncBuffer
	logger := New(Options{Output: &out})

	logger.Info("info message: %s", "value")
	logger.Error("error message: %d", 42)

	assert.Equal(t, "INFO\tinfo message: value\nERROR\terror message: 42\n", out.String())
}

func TestZapLogger_ConcurrentSafety(t *testing.T) {
	var out syncBuffer
	logger := New(Options{Verbose: true, Output: &out})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 30)
}

func TestZapLogger_FileSink(t *testing.T) {
	var out syncBuffer
	path := filepath.Join(t.TempDir(), "ydbrpc.log")
	logger := New(Options{Output: &out, File: path})

	logger.Info("refreshed token for %s", "sa-1")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "refreshed token for sa-1", entry["msg"])
	assert.Contains(t, out.String(), "refreshed token for sa-1")
}

func TestOrNull(t *testing.T) {
	assert.IsType(t, &NullLogger{}, OrNull(nil))

	logger := NewConsoleLogger(false)
	assert.Same(t, logger, OrNull(logger))
}

func TestNullLogger_ConcurrentSafety(t *testing.T) {
	logger := NewNullLogger()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()
}
