package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rivulet-video/rivulet/pkg/model"
	"github.com/sirupsen/logrus"
)

// How many times a failed REST call is retried before giving up.
const maxRequestRetries = 3

// ErrorResponse is a non-2xx reply from the coordinator.
type ErrorResponse struct {
	StatusCode int
	Message    string
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("coordinator returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the coordinator REST API: call creation, joining, call
// events and member queries.
type Client struct {
	config Config
	http   *http.Client
	logger *logrus.Entry
}

func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" || config.Token == "" || config.UserID == "" {
		return nil, errors.New("coordinator config is incomplete")
	}

	return &Client{
		config: config,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logrus.WithField("component", "coordinator"),
	}, nil
}

type createCallRequest struct {
	Type          string   `json:"type"`
	ID            string   `json:"id"`
	Ringing       bool     `json:"ringing"`
	MemberUserIDs []string `json:"member_user_ids"`
}

type callResponse struct {
	Call wireCall `json:"call"`
}

// CreateCall asks the coordinator to create (or get) a call with the given
// members. A ringing call starts ringing on the members' devices.
func (c *Client) CreateCall(
	ctx context.Context,
	callType, callID string,
	memberUserIDs []string,
	ringing bool,
) (model.CallMetadata, error) {
	request := createCallRequest{
		Type:          callType,
		ID:            callID,
		Ringing:       ringing,
		MemberUserIDs: memberUserIDs,
	}

	var response callResponse
	if err := c.post(ctx, "/calls", request, &response); err != nil {
		return model.CallMetadata{}, fmt.Errorf("failed to create call: %w", err)
	}

	return response.Call.toMetadata(), nil
}

type joinCallResponse struct {
	Call       wireCall        `json:"call"`
	CallURL    string          `json:"call_url"`
	SfuToken   string          `json:"sfu_token"`
	IceServers []wireIceServer `json:"ice_servers"`
}

type wireIceServer struct {
	URLs     []string `json:"urls"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
}

// JoinCall asks the coordinator for permission to join: the response carries
// the SFU URL, the SFU token and the ICE servers for the media session.
func (c *Client) JoinCall(ctx context.Context, callType, callID string) (model.JoinedCall, error) {
	path := fmt.Sprintf("/calls/%s/%s/join", callType, callID)

	var response joinCallResponse
	if err := c.post(ctx, path, struct{}{}, &response); err != nil {
		return model.JoinedCall{}, fmt.Errorf("failed to join call: %w", err)
	}

	iceServers := make([]model.IceServer, 0, len(response.IceServers))
	for _, server := range response.IceServers {
		iceServers = append(iceServers, model.IceServer{
			URLs:     server.URLs,
			Username: server.Username,
			Password: server.Password,
		})
	}

	return model.JoinedCall{
		Call:       response.Call.toMetadata(),
		CallURL:    response.CallURL,
		SfuToken:   response.SfuToken,
		IceServers: iceServers,
	}, nil
}

type sendEventRequest struct {
	EventType string `json:"event_type"`
}

// SendEvent sends a call event (accepted/rejected/cancelled) to the
// coordinator, which fans it out to the other members.
func (c *Client) SendEvent(ctx context.Context, callCID string, eventType model.CallEventType) error {
	path := fmt.Sprintf("/calls/%s/events", callCID)
	if err := c.post(ctx, path, sendEventRequest{EventType: eventType.String()}, nil); err != nil {
		return fmt.Errorf("failed to send %s event: %w", eventType, err)
	}
	return nil
}

type queryMembersRequest struct {
	Type    string   `json:"type"`
	ID      string   `json:"id"`
	UserIDs []string `json:"user_ids"`
}

type queryMembersResponse struct {
	Members []wireUser `json:"members"`
}

// QueryMembers resolves the given user IDs into full member records of the
// call.
func (c *Client) QueryMembers(
	ctx context.Context,
	callType, callID string,
	userIDs []string,
) ([]model.CallUser, error) {
	request := queryMembersRequest{Type: callType, ID: callID, UserIDs: userIDs}

	var response queryMembersResponse
	if err := c.post(ctx, "/members/query", request, &response); err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}

	members := make([]model.CallUser, 0, len(response.Members))
	for _, member := range response.Members {
		members = append(members, model.CallUser{
			ID:        member.ID,
			Name:      member.Name,
			Role:      member.Role,
			ImageURL:  member.ImageURL,
			CreatedAt: member.CreatedAt,
			UpdatedAt: member.UpdatedAt,
		})
	}
	return members, nil
}

// Posts a JSON body and decodes the JSON reply into `out` (if non-nil).
// Transient failures (network errors, 5xx) are retried with exponential
// backoff; 4xx replies fail permanently.
func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	operation := func() error {
		request, err := http.NewRequestWithContext(
			ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body),
		)
		if err != nil {
			return backoff.Permanent(err)
		}
		request.Header.Set("Content-Type", "application/json")
		request.Header.Set("Authorization", "Bearer "+c.config.Token)
		request.Header.Set("X-Api-Key", c.config.APIKey)

		response, err := c.http.Do(request)
		if err != nil {
			return err
		}
		defer response.Body.Close()

		if response.StatusCode >= 400 {
			message, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
			failure := &ErrorResponse{StatusCode: response.StatusCode, Message: string(message)}
			if response.StatusCode < 500 {
				return backoff.Permanent(failure)
			}
			return failure
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(response.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRequestRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		c.logger.WithError(err).Warnf("request failed: %s", path)
		return err
	}
	return nil
}
