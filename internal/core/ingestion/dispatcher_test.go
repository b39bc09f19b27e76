package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingProcessor struct {
	release chan struct{}
	mu      sync.Mutex
	ctxs    []context.Context
	err     error
}

func (p *blockingProcessor) Process(ctx context.Context, job Job) (*Result, error) {
	p.mu.Lock()
	p.ctxs = append(p.ctxs, ctx)
	p.mu.Unlock()

	if p.release != nil {
		<-p.release
	}
	if p.err != nil {
		return nil, p.err
	}
	return &Result{Status: StatusProcessed, Chunks: 1}, nil
}

func TestDispatcher_RunsJobsInBackground(t *testing.T) {
	completed := make(chan Job, 2)
	proc := &blockingProcessor{}
	d, err := NewDispatcher(proc,
		WithPoolSize(2),
		WithDispatcherLogger(discardLogger()),
		WithCompletionFunc(func(job Job, result *Result, err error) {
			assert.NoError(t, err)
			assert.Equal(t, StatusProcessed, result.Status)
			completed <- job
		}),
	)
	require.NoError(t, err)

	require.NoError(t, d.Enqueue(Job{Path: "a.txt"}))
	require.NoError(t, d.Enqueue(Job{Path: "b.txt"}))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case job := <-completed:
			got[job.Path] = true
		case <-time.After(5 * time.Second):
			t.Fatal("job did not complete")
		}
	}
	assert.Equal(t, map[string]bool{"a.txt": true, "b.txt": true}, got)
	require.NoError(t, d.Close(5*time.Second))
}

func TestDispatcher_JobContextIsDetached(t *testing.T) {
	done := make(chan struct{})
	proc := &blockingProcessor{}
	d, err := NewDispatcher(proc,
		WithDispatcherLogger(discardLogger()),
		WithCompletionFunc(func(Job, *Result, error) { close(done) }),
	)
	require.NoError(t, err)

	require.NoError(t, d.Enqueue(Job{Path: "a.txt"}))
	<-done

	proc.mu.Lock()
	defer proc.mu.Unlock()
	require.Len(t, proc.ctxs, 1)
	assert.NoError(t, proc.ctxs[0].Err())
	_, hasDeadline := proc.ctxs[0].Deadline()
	assert.False(t, hasDeadline)
	require.NoError(t, d.Close(time.Second))
}

func TestDispatcher_QueueFull(t *testing.T) {
	proc := &blockingProcessor{release: make(chan struct{})}
	d, err := NewDispatcher(proc,
		WithPoolSize(1),
		WithQueueSize(1),
		WithDispatcherLogger(discardLogger()),
	)
	require.NoError(t, err)

	// ワーカー1つが処理中・フィーダーが1つ保持・キューに1つ、の状態になるまで投入する
	var full bool
	for i := 0; i < 10; i++ {
		if err := d.Enqueue(Job{Path: "x.txt"}); err != nil {
			assert.ErrorIs(t, err, ErrQueueFull)
			full = true
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	assert.True(t, full)

	close(proc.release)
	require.NoError(t, d.Close(5*time.Second))
}

func TestDispatcher_ClosedRejectsJobs(t *testing.T) {
	d, err := NewDispatcher(&blockingProcessor{}, WithDispatcherLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, d.Close(time.Second))

	assert.ErrorIs(t, d.Enqueue(Job{Path: "late.txt"}), ErrDispatcherClosed)
	// 2回目の Close は何もしない
	assert.NoError(t, d.Close(time.Second))
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	var mu sync.Mutex
	var finished int
	proc := &blockingProcessor{err: errors.New("boom")}
	d, err := NewDispatcher(proc,
		WithPoolSize(1),
		WithDispatcherLogger(discardLogger()),
		WithCompletionFunc(func(_ Job, _ *Result, err error) {
			assert.Error(t, err)
			mu.Lock()
			finished++
			mu.Unlock()
		}),
	)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Enqueue(Job{Path: "f.txt"}))
	}
	require.NoError(t, d.Close(5*time.Second))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, finished)
}
