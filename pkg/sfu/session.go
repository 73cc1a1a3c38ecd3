package sfu

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rivulet-video/rivulet/pkg/common"
	"github.com/sirupsen/logrus"
)

// How long the session may stay silent (no events, no health checks) before
// it is considered dead.
const eventSilenceTimeout = 30 * time.Second

// ErrTokenExpired means the SFU token handed out by the coordinator already
// expired, so dialing the SFU would be pointless.
var ErrTokenExpired = errors.New("sfu token is expired")

// Session is a single media-session channel with the SFU. It delivers
// decoded SFU events to the sink it was given and transmits the join
// request. A session is bound to one call: once closed it is not reused.
type Session struct {
	url      string
	token    string
	conn     *websocket.Conn
	watchdog *common.Watchdog
	events   common.Sender[Event]
	logger   *logrus.Entry
}

func NewSession(url, token string, events common.Sender[Event]) *Session {
	return &Session{
		url:    url,
		token:  token,
		events: events,
		logger: logrus.WithFields(logrus.Fields{
			"component": "sfu-session",
			"url":       url,
		}),
	}
}

// Connect validates the token, dials the SFU and starts the read loop on its
// own goroutine.
func (s *Session) Connect() error {
	if err := checkToken(s.token); err != nil {
		return err
	}

	header := map[string][]string{"Authorization": {"Bearer " + s.token}}
	conn, _, err := websocket.DefaultDialer.Dial(s.url, header)
	if err != nil {
		return fmt.Errorf("failed to dial sfu: %w", err)
	}
	s.conn = conn

	// Dead-connection detection: the SFU is expected to emit health check
	// responses regularly, so prolonged silence means the channel is gone.
	s.watchdog = common.NewWatchdog(eventSilenceTimeout, func() {
		s.logger.Warn("no events received, closing session")
		conn.Close()
	})
	s.watchdog.Start()

	go s.readLoop()
	return nil
}

// Join transmits the join request. The caller reports the transmission to
// the engine via OnSfuJoinSent.
func (s *Session) Join(request JoinRequest) error {
	if s.conn == nil {
		return errors.New("session is not connected")
	}

	message := map[string]string{
		"type":       "join_request",
		"session_id": request.SessionID,
		"token":      request.Token,
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode join request: %w", err)
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send join request: %w", err)
	}
	return nil
}

// Close tears the session down.
func (s *Session) Close() {
	if s.watchdog != nil {
		s.watchdog.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *Session) readLoop() {
	defer s.watchdog.Close()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.logger.WithError(err).Debug("read loop finished")
			return
		}

		s.watchdog.Notify()

		event, err := ParseEvent(data)
		if err != nil {
			s.logger.WithError(err).Warn("dropping malformed event")
			continue
		}

		if rejected := s.events.Send(event); rejected != nil {
			s.logger.Warn("event sink closed, stopping")
			return
		}
	}
}

// The SFU token is a JWT. The signature is the SFU's business to verify; the
// client only peeks at the expiry to fail fast on stale credentials.
func checkToken(token string) error {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return fmt.Errorf("sfu token is not a valid JWT: %w", err)
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return ErrTokenExpired
	}
	return nil
}
