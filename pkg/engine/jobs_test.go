package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitCancelled(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("the job was not cancelled")
	}
}

func TestJobsCancel(t *testing.T) {
	jobs := newJobs()

	started := make(chan context.Context, 1)
	jobs.Add(1, func(ctx context.Context) {
		started <- ctx
		<-ctx.Done()
	})

	ctx := <-started
	jobs.Cancel(1)
	waitCancelled(t, ctx)
}

func TestJobsCancelAbsentKey(t *testing.T) {
	jobs := newJobs()
	jobs.Cancel(42)
}

func TestJobsAddSupersedes(t *testing.T) {
	jobs := newJobs()

	started := make(chan context.Context, 2)
	run := func(ctx context.Context) {
		started <- ctx
		<-ctx.Done()
	}

	jobs.Add(1, run)
	first := <-started

	// Reusing the key cancels the previous job.
	jobs.Add(1, run)
	second := <-started
	waitCancelled(t, first)

	select {
	case <-second.Done():
		t.Fatal("the superseding job must not be cancelled")
	default:
	}

	jobs.Cancel(1)
	waitCancelled(t, second)
}

func TestJobsCancelAll(t *testing.T) {
	jobs := newJobs()

	started := make(chan context.Context, 2)
	run := func(ctx context.Context) {
		started <- ctx
		<-ctx.Done()
	}

	jobs.Add(1, run)
	jobs.Add(2, run)
	first, second := <-started, <-started

	jobs.CancelAll()
	waitCancelled(t, first)
	waitCancelled(t, second)
}

func TestJobsEntryRemovedAfterCompletion(t *testing.T) {
	jobs := newJobs()

	done := make(chan struct{})
	jobs.Add(1, func(context.Context) {
		close(done)
	})
	<-done

	// The bookkeeping entry disappears once the goroutine returns.
	assert.Eventually(t, func() bool {
		jobs.mutex.Lock()
		defer jobs.mutex.Unlock()
		_, ok := jobs.entries[1]
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestJobsCompletionDoesNotRemoveSuccessor(t *testing.T) {
	jobs := newJobs()

	release := make(chan struct{})
	finished := make(chan struct{})
	jobs.Add(1, func(context.Context) {
		<-release
		close(finished)
	})

	blocked := make(chan context.Context, 1)
	jobs.Add(1, func(ctx context.Context) {
		blocked <- ctx
		<-ctx.Done()
	})
	ctx := <-blocked

	// Let the superseded job finish; its cleanup must not touch the
	// successor registered under the same key.
	close(release)
	<-finished

	time.Sleep(50 * time.Millisecond)
	select {
	case <-ctx.Done():
		t.Fatal("the successor was cancelled by the predecessor's cleanup")
	default:
	}

	jobs.Cancel(1)
	waitCancelled(t, ctx)
}
