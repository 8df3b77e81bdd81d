package debug

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer guards a bytes.Buffer for the logger
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestLog_Disabled(t *testing.T) {
	Disable()
	assert.False(t, Enabled())
	Log("event", "dropped %d", 1) // must not panic
	Error("event", errors.New("dropped"))
}

func TestLog_Writer(t *testing.T) {
	var out syncBuffer
	EnableWriter(&out)
	defer Disable()

	assert.True(t, Enabled())
	Log("arena", "mapped %d slots", 4)

	assert.Contains(t, out.String(), "Debug logging started")
	assert.Contains(t, out.String(), "arena")
	assert.Contains(t, out.String(), "mapped 4 slots")
}

func TestEnableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	require.NoError(t, EnableFile(path))
	Log("event", "free")
	Disable()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "free")
}
