package common

import (
	"sync"
	"time"
)

// Watchdog fires a callback if no activity has been reported for the
// configured timeout. It is used to detect silently dead connections.
type Watchdog struct {
	timeout   time.Duration
	onTimeout func()

	mutex    sync.Mutex
	incoming chan struct{}
	closed   bool
}

func NewWatchdog(timeout time.Duration, onTimeout func()) *Watchdog {
	return &Watchdog{
		timeout:   timeout,
		onTimeout: onTimeout,
		incoming:  make(chan struct{}, UnboundedChannelSize),
	}
}

// Start spawns the watchdog goroutine. The returned channel is closed once
// the watchdog terminates (via Close).
func (w *Watchdog) Start() <-chan struct{} {
	terminated := make(chan struct{})

	go func() {
		defer close(terminated)
		for {
			select {
			case _, ok := <-w.incoming:
				if !ok {
					return
				}
			case <-time.After(w.timeout):
				w.onTimeout()
			}
		}
	}()

	return terminated
}

// Notify reports activity, rearming the timeout. Returns false if the
// watchdog is already closed.
func (w *Watchdog) Notify() bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return false
	}
	w.incoming <- struct{}{}
	return true
}

// Close stops the watchdog. Safe to call multiple times.
func (w *Watchdog) Close() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.closed {
		close(w.incoming)
		w.closed = true
	}
}
