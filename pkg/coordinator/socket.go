package coordinator

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rivulet-video/rivulet/pkg/common"
	"github.com/sirupsen/logrus"
)

const (
	socketPingInterval = 25 * time.Second
	socketPongTimeout  = 10 * time.Second
)

// Socket is the push feed of coordinator events. It maintains a websocket
// connection to the coordinator, reconnecting with exponential backoff, and
// delivers decoded events to the sink it was given.
type Socket struct {
	config Config
	events common.Sender[Event]
	logger *logrus.Entry
}

func NewSocket(config Config, events common.Sender[Event]) *Socket {
	return &Socket{
		config: config,
		events: events,
		logger: logrus.WithFields(logrus.Fields{
			"component": "coordinator-socket",
			"url":       config.WebsocketURL,
		}),
	}
}

// Run connects and reads events until the context is cancelled. Connection
// failures are retried with exponential backoff; the backoff resets after
// each successfully established connection.
func (s *Socket) Run(ctx context.Context) error {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

	for {
		err := backoff.Retry(func() error { return s.connectAndRead(ctx) }, policy)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			// The sink was closed: the consumer is gone.
			return nil
		}
		s.logger.WithError(err).Warn("connection lost, reconnecting")
		policy.Reset()
	}
}

func (s *Socket) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.config.WebsocketURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.logger.Info("connected")

	// The heartbeat owns the ping/pong exchange; a stalled connection is
	// torn down so that the outer loop reconnects.
	heartbeat := common.Heartbeat{
		Interval: socketPingInterval,
		Timeout:  socketPongTimeout,
		SendPing: func() bool {
			deadline := time.Now().Add(socketPongTimeout)
			return conn.WriteControl(websocket.PingMessage, nil, deadline) == nil
		},
		OnTimeout: func() {
			s.logger.Warn("pong timeout, closing connection")
			conn.Close()
		},
	}
	pong := heartbeat.Start()
	defer close(pong)

	conn.SetPongHandler(func(string) error {
		pong <- common.Pong{}
		return nil
	})

	// Tear the connection down when the context ends so that the blocking
	// read below returns.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		event, err := ParseEvent(data)
		if err != nil {
			s.logger.WithError(err).Warn("dropping malformed event")
			continue
		}

		if rejected := s.events.Send(event); rejected != nil {
			s.logger.Warn("event sink closed, stopping")
			return nil
		}
	}
}
