package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}

	return buf, cleanup
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")
		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.Contains(t, out, "debug message")
		assert.Contains(t, out, "info message")
		assert.Contains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("InfoLevelFiltersDebug", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		Debug("debug message")
		Info("info message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.Contains(t, out, "info message")
	})

	t.Run("ErrorLevelShowsOnlyErrors", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")
		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.NotContains(t, out, "INFO")
		assert.NotContains(t, out, "WARN")
		assert.Contains(t, out, "error message")
	})
}

func TestSetLevel(t *testing.T) {
	t.Run("SetLevelIsCaseInsensitive", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("debug")
		Debug("test message")
		assert.Contains(t, buf.String(), "test message")
	})

	t.Run("SetLevelIgnoresInvalidValues", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		buf.Reset()

		SetLevel("INVALID")
		Debug("debug message")
		Info("info message 2")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.Contains(t, out, "info message 2")
	})
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

func TestConcurrentLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()
	SetLevel("DEBUG")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Info("concurrent write", "n", n)
		}(i)
	}
	wg.Wait()
	assert.Contains(t, buf.String(), "concurrent write")
}

func TestDefaultBehavior(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("text")

	Info("default behavior message")
	assert.Contains(t, buf.String(), "[INFO]")
	assert.Contains(t, buf.String(), "default behavior message")
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("json")

	Info("write committed", KeyFilename, "a.txt", "count", 42)

	out := strings.TrimSpace(buf.String())
	var entry map[string]any
	err := json.Unmarshal([]byte(out), &entry)
	require.NoError(t, err, "output should be valid JSON: %s", out)

	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "write committed", entry["msg"])
	assert.Equal(t, "a.txt", entry[KeyFilename])
	assert.Equal(t, float64(42), entry["count"])
	assert.Contains(t, entry, "time")
}

func TestFormatSwitching(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("text")
	Info("text message")
	assert.Contains(t, buf.String(), "[INFO]")
	buf.Reset()

	SetFormat("json")
	Info("json message")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))

	buf.Reset()
	SetFormat("xml") // invalid, ignored — stays json
	Info("still json")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestContextLogging(t *testing.T) {
	t.Run("LogContextInjectsFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("json")

		lc := &LogContext{
			TraceID:    "abc123",
			Role:       "ss",
			Command:    "WRITE",
			Username:   "alice",
			Filename:   "a.txt",
			RemoteAddr: "192.168.1.100:5555",
		}
		ctx := WithContext(context.Background(), lc)

		InfoCtx(ctx, "committed", "extra_field", "value")

		var entry map[string]any
		err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry)
		require.NoError(t, err)

		assert.Equal(t, "abc123", entry[KeyTraceID])
		assert.Equal(t, "ss", entry[KeyRole])
		assert.Equal(t, "WRITE", entry[KeyCommand])
		assert.Equal(t, "alice", entry[KeyUsername])
		assert.Equal(t, "a.txt", entry[KeyFilename])
		assert.Equal(t, "value", entry["extra_field"])
	})

	t.Run("NilContextHandled", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		require.NotPanics(t, func() { InfoCtx(nil, "test message") })
		assert.Contains(t, buf.String(), "test message")
	})

	t.Run("MissingContextFieldsOmitted", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("json")

		lc := &LogContext{Role: "nm"}
		ctx := WithContext(context.Background(), lc)
		InfoCtx(ctx, "dispatch")

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
		assert.Equal(t, "nm", entry[KeyRole])
		assert.NotContains(t, entry, KeyFilename)
		assert.NotContains(t, entry, KeyUsername)
	})
}

func TestLogContext(t *testing.T) {
	t.Run("NewLogContext", func(t *testing.T) {
		lc := NewLogContext("nm", "192.168.1.100:4242")
		assert.Equal(t, "nm", lc.Role)
		assert.Equal(t, "192.168.1.100:4242", lc.RemoteAddr)
		assert.False(t, lc.StartTime.IsZero())
	})

	t.Run("Clone", func(t *testing.T) {
		lc := &LogContext{TraceID: "t1", Command: "READ", Username: "bob"}
		clone := lc.Clone()
		assert.Equal(t, lc.Command, clone.Command)

		clone.Command = "WRITE"
		assert.Equal(t, "READ", lc.Command)
	})

	t.Run("CloneNil", func(t *testing.T) {
		var lc *LogContext
		assert.Nil(t, lc.Clone())
	})

	t.Run("WithCommand", func(t *testing.T) {
		lc := NewLogContext("ss", "127.0.0.1:1")
		lc2 := lc.WithCommand("WRITE")
		assert.Equal(t, "WRITE", lc2.Command)
		assert.Equal(t, "", lc.Command)
	})

	t.Run("WithFilenameUsernameTrace", func(t *testing.T) {
		lc := NewLogContext("ss", "127.0.0.1:1")
		lc = lc.WithFilename("notes.txt").WithUsername("carol").WithTrace("xyz")
		assert.Equal(t, "notes.txt", lc.Filename)
		assert.Equal(t, "carol", lc.Username)
		assert.Equal(t, "xyz", lc.TraceID)
	})

	t.Run("FromContextMissing", func(t *testing.T) {
		assert.Nil(t, FromContext(context.Background()))
	})
}

func TestFieldHelpers(t *testing.T) {
	t.Run("ErrHandlesNil", func(t *testing.T) {
		attr := Err(nil)
		assert.Equal(t, KeyError, attr.Key)
		assert.Equal(t, "", attr.Value.String())
	})

	t.Run("ErrFormatsError", func(t *testing.T) {
		attr := Err(assert.AnError)
		assert.Equal(t, KeyError, attr.Key)
		assert.Contains(t, attr.Value.String(), "assert.AnError")
	})

	t.Run("StatsReturnsThreeAttrs", func(t *testing.T) {
		attrs := Stats(12, 3, 12)
		require.Len(t, attrs, 3)
		assert.Equal(t, int64(12), attrs[0].Value.Int64())
		assert.Equal(t, int64(3), attrs[1].Value.Int64())
		assert.Equal(t, int64(12), attrs[2].Value.Int64())
	})

	t.Run("ShiftReturnsThreeAttrs", func(t *testing.T) {
		attrs := Shift(7, -2, 5)
		require.Len(t, attrs, 3)
		assert.Equal(t, KeyLogID, attrs[0].Key)
		assert.Equal(t, KeyShift, attrs[1].Key)
		assert.Equal(t, KeyRealIndex, attrs[2].Key)
	})

	t.Run("StatusCommandFilename", func(t *testing.T) {
		assert.Equal(t, KeyStatus, Status(200).Key)
		assert.Equal(t, KeyCommand, Command("WRITE").Key)
		assert.Equal(t, KeyFilename, Filename("a.txt").Key)
	})
}

func TestPrintfStyleLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("DEBUG")
	Debugf("debug %d", 1)
	Infof("info %s", "ok")
	Warnf("warn %v", true)
	Errorf("error %q", "oops")

	out := buf.String()
	assert.Contains(t, out, "debug 1")
	assert.Contains(t, out, "info ok")
	assert.Contains(t, out, "warn true")
	assert.Contains(t, out, `error "oops"`)
}

func TestEdgeCases(t *testing.T) {
	t.Run("LogWithNoFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		require.NotPanics(t, func() { Info("test") })
		assert.Contains(t, buf.String(), "test")
	})

	t.Run("DurationCalculation", func(t *testing.T) {
		lc := NewLogContext("nm", "127.0.0.1")
		assert.GreaterOrEqual(t, lc.DurationMs(), 0.0)
	})

	t.Run("DurationOnNilContext", func(t *testing.T) {
		var lc *LogContext
		assert.Equal(t, 0.0, lc.DurationMs())
	})

	t.Run("WithBindsAttrs", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("json")
		l := With(KeyRole, "ss")
		l.Info("bound logger")

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
		assert.Equal(t, "ss", entry[KeyRole])
	})
}

func TestInit(t *testing.T) {
	t.Run("InitWithWriter", func(t *testing.T) {
		buf := new(bytes.Buffer)
		InitWithWriter(buf, "DEBUG", "text", false)
		Debug("test message")
		assert.Contains(t, buf.String(), "test message")

		mu.Lock()
		output = os.Stdout
		mu.Unlock()
		reconfigure()
	})

	t.Run("InitWithConfig", func(t *testing.T) {
		err := Init(Config{Level: "DEBUG", Format: "text", Output: "stdout"})
		require.NoError(t, err)

		mu.Lock()
		output = os.Stdout
		mu.Unlock()
		reconfigure()
	})

	t.Run("InitWithEmptyConfig", func(t *testing.T) {
		require.NoError(t, Init(Config{}))
	})

	t.Run("InitWithFilePath", func(t *testing.T) {
		f, err := os.CreateTemp(t.TempDir(), "langos-log-*.log")
		require.NoError(t, err)
		f.Close()

		require.NoError(t, Init(Config{Output: f.Name()}))
		Info("written to file")

		mu.Lock()
		output = os.Stdout
		useColor = true
		mu.Unlock()
		reconfigure()

		data, err := os.ReadFile(f.Name())
		require.NoError(t, err)
		assert.Contains(t, string(data), "written to file")
	})
}

func BenchmarkLogDisabled(b *testing.B) {
	_, cleanup := captureOutput()
	defer cleanup()
	SetLevel("ERROR")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Debug("benchmark message", "i", i)
	}
}

func BenchmarkLogText(b *testing.B) {
	_, cleanup := captureOutput()
	defer cleanup()
	SetLevel("INFO")
	SetFormat("text")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Info("benchmark message", "i", i)
	}
}

func BenchmarkLogJSON(b *testing.B) {
	_, cleanup := captureOutput()
	defer cleanup()
	SetLevel("INFO")
	SetFormat("json")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Info("benchmark message", "i", i)
	}
}

func BenchmarkLogCtx(b *testing.B) {
	_, cleanup := captureOutput()
	defer cleanup()
	SetLevel("INFO")
	SetFormat("json")

	lc := NewLogContext("ss", "127.0.0.1:1").WithCommand("WRITE").WithFilename("a.txt")
	ctx := WithContext(context.Background(), lc)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		InfoCtx(ctx, "benchmark message", "i", i)
	}
}
