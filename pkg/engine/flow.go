package engine

import (
	"reflect"
	"sync"

	"github.com/rivulet-video/rivulet/pkg/state"
	"github.com/sirupsen/logrus"
)

// Size of the buffer of each subscriber channel. A subscriber that stops
// draining its channel backpressures the engine once the buffer fills up.
const subscriberBufferSize = 64

// stateFlow is a current-value observable holding the single CallState slot.
// Publishing a value that is structurally equal to the current one is
// suppressed, so that no-op event deliveries do not cause duplicate
// downstream work.
type stateFlow struct {
	mutex       sync.Mutex
	value       state.CallState
	subscribers []chan state.CallState
	logger      *logrus.Entry
}

func newStateFlow(logger *logrus.Entry) *stateFlow {
	return &stateFlow{
		value:  state.Idle{},
		logger: logger,
	}
}

// Value returns the currently held state.
func (f *stateFlow) Value() state.CallState {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.value
}

// Subscribe registers a new subscriber. The channel immediately receives the
// current value and then every published value in order, including the
// transient Drop values.
func (f *stateFlow) Subscribe() <-chan state.CallState {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	subscriber := make(chan state.CallState, subscriberBufferSize)
	subscriber <- f.value
	f.subscribers = append(f.subscribers, subscriber)
	return subscriber
}

// Post publishes a new state unless it is equal to the current one.
// Returns false if the publication was suppressed as a duplicate.
func (f *stateFlow) Post(newState state.CallState) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if reflect.DeepEqual(f.value, newState) {
		f.logger.Warnf("post: rejected (duplicate state): %s", newState)
		return false
	}

	f.logger.Infof("post: state: %s", newState)
	f.value = newState
	for _, subscriber := range f.subscribers {
		subscriber <- newState
	}
	return true
}
