package ui

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/lenses/internal/figure"
	"github.com/leapstack-labs/lenses/internal/testutil"
	"github.com/leapstack-labs/lenses/internal/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetchFigure(t *testing.T, base string) *figure.Figure {
	t.Helper()
	resp, err := http.Get(base + "/graph/figure.json") //nolint:noctx
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var fig figure.Figure
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fig))
	return &fig
}

func TestServer_ServesAndRefreshes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.dot")
	require.NoError(t, os.WriteFile(path, []byte("digraph { A -> B; B -> C }\n"), 0600))

	logger := testutil.NewTestLogger(t)
	poller, err := watch.NewPoller(context.Background(), watch.Config{Path: path, Logger: logger})
	require.NoError(t, err)

	srv := NewServer(Config{
		Poller:   poller,
		Interval: 20 * time.Millisecond,
		Heading:  "Test Viewer",
		Logger:   logger,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()

	resp, err := http.Get(base + "/") //nolint:noctx
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "Test Viewer")

	assert.Len(t, fetchFigure(t, base).EdgeTraces(), 2)

	require.NoError(t, os.WriteFile(path, []byte("digraph { A -> B; B -> C; C -> D }\n"), 0600))
	future := time.Now().Add(10 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Eventually(t, func() bool {
		return len(fetchFigure(t, base).EdgeTraces()) == 3
	}, 2*time.Second, 20*time.Millisecond)

	_, version := srv.notifier.Latest()
	assert.GreaterOrEqual(t, version, uint64(2))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_Addr(t *testing.T) {
	poller, err := watch.NewPoller(context.Background(), watch.Config{
		Path:               filepath.Join(t.TempDir(), "missing.dot"),
		PlaceholderOnError: true,
	})
	require.NoError(t, err)

	srv := NewServer(Config{Poller: poller, Port: 8050})
	assert.Equal(t, ":8050", srv.Addr())
}
