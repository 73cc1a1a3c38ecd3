package common

import (
	"errors"
	"sync"
	"time"
)

// Errors that may occur when sending tasks to a worker.
var (
	ErrWorkerClosed  = errors.New("worker is closed")
	ErrWorkerTooBusy = errors.New("worker is already overloaded")
)

// Configuration for the worker.
type WorkerConfig[T any] struct {
	// The size of the bounded task channel.
	ChannelSize int
	// Timeout after which OnTimeout is called if no task arrived.
	Timeout time.Duration
	// Called once Timeout is reached.
	OnTimeout func()
	// Executed upon reception of a task.
	OnTask func(T)
}

// Worker processes tasks sequentially on its own goroutine. Sends never
// block: when the task channel is full the send fails with ErrWorkerTooBusy
// and the caller decides what to do about the overload.
type Worker[T any] struct {
	channel chan<- T
	mutex   sync.Mutex
	closed  bool
}

// Stop the worker unless already stopped.
func (c *Worker[T]) Stop() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.closed {
		close(c.channel)
		c.closed = true
	}
}

// Send a task to the worker.
func (c *Worker[T]) Send(task T) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return ErrWorkerClosed
	}

	select {
	case c.channel <- task:
		return nil
	default:
		return ErrWorkerTooBusy
	}
}

// StartWorker spawns a worker that executes `c.OnTask` for each received
// task and `c.OnTimeout` whenever no task has arrived for `c.Timeout`. The
// worker stops once the user calls Stop explicitly.
func StartWorker[T any](c WorkerConfig[T]) *Worker[T] {
	incoming := make(chan T, c.ChannelSize)

	go func() {
		for {
			select {
			case task, ok := <-incoming:
				if !ok {
					return
				}
				c.OnTask(task)
			case <-time.After(c.Timeout):
				c.OnTimeout()
			}
		}
	}()

	return &Worker[T]{channel: incoming}
}
