package tokenapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"yinlink/internal/domain"
	"yinlink/internal/ports"
)

// Config controls the token endpoint client.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client implements ports.TokenIssuer against the yinlink-server token
// endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type tokenRequest struct {
	RoomName        string `json:"roomName"`
	ParticipantName string `json:"participantName"`
	TargetPhone     string `json:"targetPhone,omitempty"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	RoomName string `json:"roomName"`
	Error    string `json:"error"`
}

func (c *Client) Issue(ctx context.Context, req ports.TokenRequest) (ports.TokenGrant, error) {
	if strings.TrimSpace(c.cfg.Endpoint) == "" {
		return ports.TokenGrant{}, fmt.Errorf("%w: token endpoint is not configured", domain.ErrConfiguration)
	}

	body, err := json.Marshal(tokenRequest{
		RoomName:        req.RoomName,
		ParticipantName: req.ParticipantName,
		TargetPhone:     req.TargetPhone,
	})
	if err != nil {
		return ports.TokenGrant{}, fmt.Errorf("encode token request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.TokenGrant{}, fmt.Errorf("build token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ports.TokenGrant{}, fmt.Errorf("%w: token request: %v", domain.ErrConnection, err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var decoded tokenResponse
	_ = json.Unmarshal(payload, &decoded)

	switch {
	case resp.StatusCode == http.StatusOK:
		if decoded.Token == "" {
			return ports.TokenGrant{}, fmt.Errorf("%w: token response is missing a token", domain.ErrConnection)
		}
		return ports.TokenGrant{Token: decoded.Token, RoomName: decoded.RoomName}, nil
	case resp.StatusCode == http.StatusBadRequest:
		return ports.TokenGrant{}, fmt.Errorf("%w: %s", domain.ErrValidation, responseMessage(decoded, "request rejected"))
	default:
		return ports.TokenGrant{}, fmt.Errorf("%w: token service returned status %d: %s",
			domain.ErrConnection, resp.StatusCode, responseMessage(decoded, "unexpected response"))
	}
}

func responseMessage(decoded tokenResponse, fallback string) string {
	if strings.TrimSpace(decoded.Error) != "" {
		return decoded.Error
	}
	return fallback
}
