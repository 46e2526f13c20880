package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joshmarlow/data-schema/pkg/config"
	"github.com/joshmarlow/data-schema/pkg/schema"
	"github.com/joshmarlow/data-schema/pkg/server/middleware"
)

func readings() *schema.DataSchema {
	return &schema.DataSchema{
		Name: "readings",
		Fields: []schema.FieldSchema{
			{FieldKey: "id", FieldPosition: schema.Int(0), UniquenessOrder: schema.Int(0), FieldType: schema.TypeInt},
			{FieldKey: "value", FieldPosition: schema.Int(1), FieldType: schema.TypeFloat},
		},
	}
}

func TestReadRecords(t *testing.T) {
	records, err := readRecords(strings.NewReader(`[[1, "2.5"], {"id": 12345678901234567}]`))
	require.NoError(t, err)
	require.Len(t, records, 2)

	obj, ok := records[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("12345678901234567"), obj["id"])

	_, err = readRecords(strings.NewReader(`{"id": 1}`))
	assert.Error(t, err)
}

func TestConvertAll(t *testing.T) {
	records, err := readRecords(strings.NewReader(`[["1", "2.5"], {"id": "2", "value": 3}]`))
	require.NoError(t, err)

	converted, err := convertAll(readings(), records)
	require.NoError(t, err)
	require.Len(t, converted, 2)
	assert.Equal(t, 2.5, converted[0].Values["value"])
	assert.Equal(t, []any{int64(2)}, converted[1].UniqueKey)

	_, err = convertAll(readings(), []any{[]any{"1", "2"}, []any{"3"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")
}

func TestFormatOutput(t *testing.T) {
	out, err := formatOutput(readings(), "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: readings")
	assert.Contains(t, out, "type: INT")

	out, err = formatOutput(readings(), "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "FLOAT"`)

	_, err = formatOutput(readings(), "xml")
	assert.Error(t, err)
}

func TestParseSteps(t *testing.T) {
	steps, err := parseSteps(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, steps)

	steps, err = parseSteps([]string{"3"})
	require.NoError(t, err)
	assert.Equal(t, 3, steps)

	for _, arg := range []string{"0", "-2", "three"} {
		_, err := parseSteps([]string{arg})
		assert.Error(t, err, arg)
	}
}

func TestIsReloadEvent(t *testing.T) {
	target := "/etc/data-schema/schemas.yml"

	tests := []struct {
		name   string
		event  fsnotify.Event
		reload bool
	}{
		{"write", fsnotify.Event{Name: target, Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: target, Op: fsnotify.Create}, true},
		{"chmod", fsnotify.Event{Name: target, Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: "/etc/data-schema/other.yml", Op: fsnotify.Write}, false},
		{"unclean path", fsnotify.Event{Name: "/etc/data-schema/./schemas.yml", Op: fsnotify.Write}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reload, isReloadEvent(tt.event, target))
		})
	}
}

func TestWatchLoopReloadsOnWrite(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	target := filepath.Join(dir, "schemas.yml")

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer func() { _ = watcher.Close() }()
	require.NoError(t, watcher.Add(dir))

	var reloads atomic.Int32
	stop := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(watcher, target, zap.NewNop(), stop, func() { reloads.Add(1) })
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yml"), []byte("name: other\n"), 0o600))
	require.NoError(t, os.WriteFile(target, []byte("name: feed\n"), 0o600))
	require.Eventually(t, func() bool { return reloads.Load() > 0 }, 5*time.Second, 10*time.Millisecond)

	stop <- os.Interrupt
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}

func TestWatchLoopEndsWhenWatcherCloses(t *testing.T) {
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- watchLoop(watcher, "/nonexistent/schemas.yml", zap.NewNop(), nil, func() {})
	}()
	require.NoError(t, watcher.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}

func TestApplyServerFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().IntP("port", "p", 0, "")
	cmd.Flags().StringP("bind-address", "b", "", "")

	cfg := &config.Config{BindAddress: "0.0.0.0", Port: 8080}
	applyServerFlags(cmd, cfg)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())

	require.NoError(t, cmd.Flags().Set("port", "9000"))
	require.NoError(t, cmd.Flags().Set("bind-address", "127.0.0.1"))
	applyServerFlags(cmd, cfg)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
}

func TestIssueTokenWithConfig(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret", JWTIssuer: "data-schema", TokenTTL: 60}

	token, err := issueTokenWithConfig(cfg, "loader", 0)
	require.NoError(t, err)

	claims, err := middleware.VerifyToken(token, []byte("secret"), "data-schema")
	require.NoError(t, err)
	assert.Equal(t, "loader", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt.Time, 5*time.Second)

	_, err = issueTokenWithConfig(&config.Config{TokenTTL: 60}, "loader", 0)
	assert.Error(t, err)
}

func TestWaitForServer(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	require.NoError(t, waitForServer(ts.URL+"/health", 5, time.Millisecond))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	err := waitForServer(ts.URL+"/missing", 0, time.Millisecond)
	assert.Error(t, err)
}
