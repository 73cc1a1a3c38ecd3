package common

import "sync/atomic"

// Default buffer size for channels that should effectively never block the
// producer under normal operation.
const UnboundedChannelSize = 128

// NewChannel creates a channel and returns its two counterparts, one that can
// only send and one that can only receive. Unlike a plain Go channel, the
// receiver can mark the channel as closed, after which sends fail gracefully
// instead of panicking on a closed channel.
func NewChannel[M any]() (Sender[M], Receiver[M]) {
	channel := make(chan M, UnboundedChannelSize)
	closed := &atomic.Bool{}
	return Sender[M]{channel, closed}, Receiver[M]{channel, closed}
}

type Sender[M any] struct {
	channel        chan<- M
	receiverClosed *atomic.Bool
}

// Send delivers the message unless the receiver closed the channel, in which
// case the rejected message is returned to the caller.
func (s *Sender[M]) Send(message M) *M {
	if s.receiverClosed.Load() {
		return &message
	}
	s.channel <- message
	return nil
}

type Receiver[M any] struct {
	Channel        <-chan M
	receiverClosed *atomic.Bool
}

// Close marks the channel as closed for the senders. Messages already
// buffered may still be drained from Channel.
func (r *Receiver[M]) Close() {
	r.receiverClosed.Store(true)
}
