package utilities

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestIDGenerator_UniqueAndOrdered(t *testing.T) {
	g := NewIDGenerator(7)

	const n = 2000
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = g.Next()
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}

	a, err := strconv.ParseInt(g.Next(), 10, 64)
	require.NoError(t, err)
	b, err := strconv.ParseInt(g.Next(), 10, 64)
	require.NoError(t, err)
	require.Less(t, a, b)
}

func TestIDGenerator_FallsBackToKSUID(t *testing.T) {
	// snowflake nodes are limited to 0..1023
	g := NewIDGenerator(5000)
	id := g.Next()
	require.Len(t, id, 27)

	var nilGen *IDGenerator
	require.NotEmpty(t, nilGen.Next())
}

func TestIDConfigFromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_NODE", "42")
	cfg, err := IDConfigFromEnv()
	require.NoError(t, err)
	require.EqualValues(t, 42, cfg.SnowflakeNode)

	t.Setenv("SNOWFLAKE_NODE", "abc")
	_, err = IDConfigFromEnv()
	require.Error(t, err)
}

func TestLoggerConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")
	t.Setenv("LOG_DEV", "true")
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Level)

	t.Setenv("LOG_DEV", "false")
	cfg, err = ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Level)

	t.Setenv("LOG_LEVEL", "warn")
	cfg, err = ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Level)
}

func TestLevelFromString(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, levelFromString("debug"))
	require.Equal(t, zapcore.WarnLevel, levelFromString("warning"))
	require.Equal(t, zapcore.ErrorLevel, levelFromString("error"))
	require.Equal(t, zapcore.InfoLevel, levelFromString("loud"))
}

func TestInit_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	lg, err := Init(Config{Level: "info", File: path, MaxAge: time.Hour, RotationTime: time.Hour})
	require.NoError(t, err)

	lg.Info("hello from test")
	lg.Debug("filtered out")
	_ = lg.Sync()

	matches, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	var files []string
	for _, m := range matches {
		if !strings.HasSuffix(m, "_lock") {
			files = append(files, m)
		}
	}
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	require.Contains(t, string(data), "hello from test")
	require.NotContains(t, string(data), "filtered out")
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"ok", `{"name":"ann"}`, false},
		{"trailing", `{"name":"ann"} {"name":"bob"}`, true},
		{"malformed", `{"name":`, true},
		{"empty", ``, true},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			var b body
			err := DecodeJSON(httptest.NewRecorder(), req, &b)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "ann", b.Name)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"error":"missing"}`, rec.Body.String())
}
