package engine

import (
	"context"
	"sync"
)

// jobs tracks cancellable background jobs by key. Adding a job under a key
// that is already taken supersedes (cancels) the previous job. Cancelling an
// absent key is a no-op.
type jobs struct {
	mutex   sync.Mutex
	seq     uint64
	entries map[int]jobEntry
}

type jobEntry struct {
	seq    uint64
	cancel context.CancelFunc
}

func newJobs() *jobs {
	return &jobs{entries: make(map[int]jobEntry)}
}

// Add spawns `run` on its own goroutine under the given key. The context
// passed to `run` is cancelled when the job is superseded or cancelled.
func (j *jobs) Add(id int, run func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())

	j.mutex.Lock()
	if previous, ok := j.entries[id]; ok {
		previous.cancel()
	}
	j.seq++
	seq := j.seq
	j.entries[id] = jobEntry{seq: seq, cancel: cancel}
	j.mutex.Unlock()

	go func() {
		defer j.remove(id, seq)
		run(ctx)
	}()
}

// Cancel cancels the job under the given key, if any.
func (j *jobs) Cancel(id int) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if entry, ok := j.entries[id]; ok {
		entry.cancel()
		delete(j.entries, id)
	}
}

// CancelAll cancels every outstanding job.
func (j *jobs) CancelAll() {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	for id, entry := range j.entries {
		entry.cancel()
		delete(j.entries, id)
	}
}

// Drops the bookkeeping entry once the job's goroutine returns, unless the
// key has been taken over by a newer job in the meantime.
func (j *jobs) remove(id int, seq uint64) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if entry, ok := j.entries[id]; ok && entry.seq == seq {
		entry.cancel()
		delete(j.entries, id)
	}
}
