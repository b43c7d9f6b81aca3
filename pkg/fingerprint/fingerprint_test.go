package fingerprint

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestDeviceIDIsStableAndMemoized(t *testing.T) {
	var calls int32
	signals := Signals{MachineID: "abc", MAC: "aa:bb:cc:dd:ee:ff", Hostname: "pixel", OS: "linux", Arch: "arm64"}
	p := New(WithLogger(quiet), WithCollector(func() (Signals, error) {
		atomic.AddInt32(&calls, 1)
		return signals, nil
	}))

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = p.DeviceID()
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, Hash(signals), id)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.False(t, p.Degraded())

	// a second provider over the same environment derives the same id
	other := New(WithLogger(quiet), WithCollector(func() (Signals, error) { return signals, nil }))
	assert.Equal(t, p.DeviceID(), other.DeviceID())
}

func TestHashDistinguishesSignals(t *testing.T) {
	a := Hash(Signals{MachineID: "ab", Hostname: "c"})
	b := Hash(Signals{MachineID: "a", Hostname: "bc"})
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}

func TestDeviceIDFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		collect Collector
	}{
		{name: "collector error", collect: func() (Signals, error) { return Signals{}, errors.New("sandboxed") }},
		{name: "no usable signal", collect: func() (Signals, error) { return Signals{OS: "js", Arch: "wasm"}, nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(WithLogger(quiet), WithCollector(tt.collect))

			id := p.DeviceID()
			assert.True(t, strings.HasPrefix(id, FallbackPrefix))
			assert.True(t, p.Degraded())
			assert.Equal(t, id, p.DeviceID(), "fallback is memoized too")

			other := New(WithLogger(quiet), WithCollector(tt.collect))
			assert.NotEqual(t, id, other.DeviceID())
		})
	}
}

func TestFallbackFileSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "niyyah", "device_id")
	sandboxed := func() (Signals, error) { return Signals{}, errors.New("sandboxed") }

	first := New(WithLogger(quiet), WithCollector(sandboxed), WithFallbackFile(path))
	id := first.DeviceID()
	require.True(t, strings.HasPrefix(id, FallbackPrefix))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, id, strings.TrimSpace(string(raw)))

	restarted := New(WithLogger(quiet), WithCollector(sandboxed), WithFallbackFile(path))
	assert.Equal(t, id, restarted.DeviceID())
	assert.True(t, restarted.Degraded())
}

func TestFallbackFileIgnoresForeignContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_id")
	require.NoError(t, os.WriteFile(path, []byte("not-an-id\n"), 0o600))

	p := New(WithLogger(quiet), WithCollector(func() (Signals, error) { return Signals{}, errors.New("sandboxed") }), WithFallbackFile(path))
	id := p.DeviceID()
	assert.True(t, strings.HasPrefix(id, FallbackPrefix))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, id+"\n", string(raw))
}

func TestFallbackFileUnusedWhenSignalsExist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_id")
	signals := Signals{MachineID: "abc", OS: "linux", Arch: "amd64"}

	p := New(WithLogger(quiet), WithCollector(func() (Signals, error) { return signals, nil }), WithFallbackFile(path))
	assert.Equal(t, Hash(signals), p.DeviceID())
	assert.NoFileExists(t, path)
}

func TestReadMachineID(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	valid := filepath.Join(dir, "machine-id")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o644))
	require.NoError(t, os.WriteFile(valid, []byte("4c4c4544004d\n"), 0o644))

	assert.Equal(t, "4c4c4544004d", readMachineID([]string{filepath.Join(dir, "missing"), empty, valid}))
	assert.Equal(t, "", readMachineID([]string{filepath.Join(dir, "missing")}))
}
