package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/poiesic/newsdigest/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	runner := &fakeRunner{}
	handler := NewRouter(NewHandlers(runner, seededStore(t), nil, nil))
	srv := NewServer("127.0.0.1:0", handler, runner, nil)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/topics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "LLMs")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done, "a clean shutdown is not an error")
}

func TestServer_StartCron(t *testing.T) {
	runner := &fakeRunner{result: &pipeline.RunResult{RunID: "run_1"}}
	srv := NewServer(":0", http.NotFoundHandler(), runner, nil)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	_, ok := srv.NextRun()
	assert.False(t, ok)

	require.NoError(t, srv.StartCron("0 6 * * *", pipeline.RunOptions{BackfillDays: 1}))

	next, ok := srv.NextRun()
	require.True(t, ok)
	assert.Equal(t, 6, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))

	// Rescheduling replaces the entry.
	require.NoError(t, srv.StartCron("30 7 * * *", pipeline.RunOptions{}))
	next, ok = srv.NextRun()
	require.True(t, ok)
	assert.Equal(t, 30, next.Minute())
}

func TestServer_StartCronInvalid(t *testing.T) {
	srv := NewServer(":0", http.NotFoundHandler(), &fakeRunner{}, nil)
	assert.Error(t, srv.StartCron("not a schedule", pipeline.RunOptions{}))

	noRunner := NewServer(":0", http.NotFoundHandler(), nil, nil)
	assert.Error(t, noRunner.StartCron("@daily", pipeline.RunOptions{}))
}
