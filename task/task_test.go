package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/audiolib"
)

func items(names ...string) []audiolib.Item {
	out := make([]audiolib.Item, len(names))
	for i, n := range names {
		out[i] = audiolib.PlaylistItem{Location: "/music/" + n + ".mp3", Name: n}
	}
	return out
}

// stubReader reads titles from the stub and fails items named "bad".
func stubReader(ctx context.Context, item audiolib.Item) (*audiolib.Metadata, error) {
	p := item.(audiolib.PlaylistItem)
	if p.Name == "bad" {
		return nil, errors.New("unreadable")
	}
	if p.Name == "empty" {
		return audiolib.Empty, nil
	}
	return audiolib.FromStub(p), nil
}

func titles(ms []*audiolib.Metadata) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Title()
	}
	return out
}

func TestReadTask_Succeeds(t *testing.T) {
	task := NewReadTask(items("a", "bad", "b", "empty", "c"), WithReadFunc(stubReader))
	assert.Equal(t, Ready, task.State())
	assert.NotEqual(t, task.ID(), NewReadTask(nil).ID())

	var progress []Progress
	task.OnProgress(func(p Progress) { progress = append(progress, p) })
	var doneOK bool
	var doneResult []*audiolib.Metadata
	delivered := make(chan struct{})
	task.OnDone(func(ok bool, result []*audiolib.Metadata) {
		doneOK, doneResult = ok, result
		close(delivered)
	})

	ok, result, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, titles(result))
	assert.Equal(t, Succeeded, task.State())

	select {
	case <-delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("OnDone not delivered")
	}
	require.Len(t, progress, 5)
	assert.Equal(t, Progress{Completed: 5, Total: 5, Skipped: 2}, progress[4])
	assert.Equal(t, Progress{Completed: 2, Total: 5, Skipped: 1}, progress[1])
	assert.True(t, doneOK)
	assert.Equal(t, titles(result), titles(doneResult))

	select {
	case <-task.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestReadTask_CancelKeepsPartialResult(t *testing.T) {
	var task *ReadTask
	read := func(ctx context.Context, item audiolib.Item) (*audiolib.Metadata, error) {
		m, err := stubReader(ctx, item)
		if m.Title() == "b" {
			task.Cancel()
		}
		return m, err
	}
	task = NewReadTask(items("a", "b", "c", "d"), WithReadFunc(read))

	calls := make(chan []string, 2)
	task.OnDone(func(ok bool, result []*audiolib.Metadata) {
		assert.False(t, ok)
		calls <- titles(result)
	})

	ok, result, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, titles(result))
	assert.Equal(t, Cancelled, task.State())
	assert.Equal(t, 2, task.Progress().Completed)

	select {
	case got := <-calls:
		assert.Equal(t, []string{"a", "b"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("OnDone not delivered")
	}
	assert.Empty(t, calls)
}

func TestReadTask_CancelDuringLastItemSucceeds(t *testing.T) {
	var task *ReadTask
	read := func(ctx context.Context, item audiolib.Item) (*audiolib.Metadata, error) {
		if item.(audiolib.PlaylistItem).Name == "c" {
			task.Cancel()
		}
		return stubReader(context.Background(), item)
	}
	task = NewReadTask(items("a", "b", "c"), WithReadFunc(read))

	ok, result, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, titles(result))
	assert.Equal(t, Succeeded, task.State())
}

func TestReadTask_BlockedListenerDoesNotBlockRead(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	task := NewReadTask(items("a", "b", "c"), WithReadFunc(stubReader))
	task.OnProgress(func(Progress) { <-release })

	finished := make(chan bool, 1)
	go func() {
		ok, _, _ := task.Run(context.Background())
		finished <- ok
	}()

	select {
	case ok := <-finished:
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("read blocked on a progress listener")
	}
	assert.Equal(t, Progress{Completed: 3, Total: 3}, task.Progress())
}

func TestReadTask_CancelBeforeRun(t *testing.T) {
	task := NewReadTask(items("a"), WithReadFunc(stubReader))
	task.Cancel()

	ok, result, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, result)
	assert.Equal(t, Cancelled, task.State())
}

func TestReadTask_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	task := NewReadTask(items("a", "b"), WithReadFunc(stubReader))

	ok, _, _ := task.Run(ctx)
	assert.False(t, ok)
	assert.Equal(t, Cancelled, task.State())
}

func TestReadTask_RunTwice(t *testing.T) {
	task := NewReadTask(items("a"), WithReadFunc(stubReader))
	_, _, err := task.Run(context.Background())
	require.NoError(t, err)

	_, _, err = task.Run(context.Background())
	assert.ErrorIs(t, err, ErrStarted)
}

func TestReadTask_PanicFails(t *testing.T) {
	read := func(ctx context.Context, item audiolib.Item) (*audiolib.Metadata, error) {
		if item.(audiolib.PlaylistItem).Name == "boom" {
			panic("decoder exploded")
		}
		return stubReader(ctx, item)
	}
	task := NewReadTask(items("a", "boom", "c"), WithReadFunc(read))

	ok, result, err := task.Run(context.Background())
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Equal(t, []string{"a"}, titles(result))
	assert.Equal(t, Failed, task.State())
	assert.Equal(t, err, task.Err())
}

func TestReadTask_CallbackPanicDoesNotFailRead(t *testing.T) {
	task := NewReadTask(items("a", "b"), WithReadFunc(stubReader))
	task.OnProgress(func(Progress) { panic("ui gone") })

	ok, result, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, result, 2)
}

func TestReadTask_OnDoneAfterFinish(t *testing.T) {
	task := NewReadTask(items("a"), WithReadFunc(stubReader))
	_, _, err := task.Run(context.Background())
	require.NoError(t, err)

	called := false
	task.OnDone(func(ok bool, result []*audiolib.Metadata) {
		called = true
		assert.True(t, ok)
		assert.Len(t, result, 1)
	})
	assert.True(t, called)
}

func TestReadTask_DefaultReaderSkipsUnreadable(t *testing.T) {
	task := NewReadTask([]audiolib.Item{
		audiolib.FileItem("/nonexistent/a.flac"),
		audiolib.PlaylistItem{Location: "https://radio.example/live"},
		audiolib.PlaylistItem{Location: "/music/x.mp3", Corrupt: true},
	}, WithReadOptions(audiolib.WithStrictParsing()))

	ok, result, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, result)
	assert.Equal(t, Progress{Completed: 3, Total: 3, Skipped: 3}, task.Progress())
}

func TestProgress_Fraction(t *testing.T) {
	assert.Equal(t, 1.0, Progress{}.Fraction())
	assert.Equal(t, 0.25, Progress{Completed: 1, Total: 4}.Fraction())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "cancelled", Cancelled.String())
	assert.Equal(t, "State(9)", State(9).String())
	assert.False(t, Running.Terminal())
	assert.True(t, Failed.Terminal())
}

func TestSerialExecutor(t *testing.T) {
	exec := NewSerialExecutor()

	task := NewReadTask(items("a", "b", "c"), WithReadFunc(stubReader), WithExecutor(exec))
	var (
		mu    sync.Mutex
		order []int
	)
	task.OnProgress(func(p Progress) {
		mu.Lock()
		order = append(order, p.Completed)
		mu.Unlock()
	})
	done := make(chan bool, 1)
	task.OnDone(func(ok bool, _ []*audiolib.Metadata) { done <- ok })

	_, _, err := task.Run(context.Background())
	require.NoError(t, err)

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("OnDone not delivered")
	}
	exec.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, order)

	exec.Execute(func() { t.Error("ran after Close") })
	exec.Close()
}

func TestRunner(t *testing.T) {
	runner := NewRunner(context.Background(), 2)

	var futures []*Future
	for _, names := range [][]string{{"a", "b"}, {"c"}, {"bad", "d"}} {
		futures = append(futures, runner.Submit(NewReadTask(items(names...), WithReadFunc(stubReader))))
	}
	require.NoError(t, runner.Wait())

	var all []string
	for _, f := range futures {
		ok, result, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		all = append(all, titles(result)...)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, all)
}

func TestFuture_WaitContext(t *testing.T) {
	block := make(chan struct{})
	read := func(ctx context.Context, item audiolib.Item) (*audiolib.Metadata, error) {
		<-block
		return stubReader(ctx, item)
	}
	runner := NewRunner(context.Background(), 1)
	f := runner.Submit(NewReadTask(items("a", "b"), WithReadFunc(read)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	f.Cancel()
	close(block)
	ok, result, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, result, 1)
	assert.Equal(t, Cancelled, f.Task().State())
	require.NoError(t, runner.Wait())
}
