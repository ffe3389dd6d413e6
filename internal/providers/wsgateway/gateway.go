package wsgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"yinlink/internal/ports"
)

// Config controls gateway websocket settings.
type Config struct {
	HandshakeTimeout time.Duration
}

// Connector implements ports.MediaConnector over a plain websocket
// relay. It exists for development: the agent simulator relays
// transcript JSON straight over the socket, so the whole transcript
// pipeline runs without a LiveKit deployment. There is no local media;
// mic mute is relayed as a control message and acknowledged by write
// success.
type Connector struct {
	cfg Config
}

func NewConnector(cfg Config) *Connector {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &Connector{cfg: cfg}
}

func (c *Connector) Connect(ctx context.Context, rawURL string, token string) (ports.MediaSession, error) {
	wsURL, err := toWebsocketURL(rawURL)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway websocket: %w", err)
	}

	session := &gatewaySession{
		conn:   conn,
		events: make(chan ports.SessionEvent, 64),
		quit:   make(chan struct{}),
	}

	go session.readLoop()

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

type gatewaySession struct {
	conn *websocket.Conn

	events chan ports.SessionEvent

	// quit stops the send path and unblocks the read loop.
	quit chan struct{}

	// writeMu serializes frame writes; gorilla allows one writer.
	writeMu sync.Mutex

	errMu sync.Mutex
	err   error

	quitOnce  sync.Once
	closeOnce sync.Once
	termOnce  sync.Once
}

func (s *gatewaySession) Events() <-chan ports.SessionEvent {
	return s.events
}

// SendData writes the payload as one frame and reports the write
// result, so callers can treat a nil return as the relay having taken
// the message.
func (s *gatewaySession) SendData(ctx context.Context, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}

	select {
	case <-s.quit:
		if err := s.lastErr(); err != nil {
			return err
		}
		return errors.New("session is already closed")
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	err := s.conn.WriteMessage(websocket.TextMessage, payload)
	s.writeMu.Unlock()
	if err != nil {
		err = fmt.Errorf("failed to send gateway message: %w", err)
		s.fail(err)
		return err
	}
	return nil
}

// micControl is the relay's mute control message.
type micControl struct {
	Type  string `json:"type"`
	Muted bool   `json:"muted"`
}

func (s *gatewaySession) SetMicMuted(ctx context.Context, muted bool) error {
	payload, err := json.Marshal(micControl{Type: "mic", Muted: muted})
	if err != nil {
		return err
	}
	return s.SendData(ctx, payload)
}

func (s *gatewaySession) Close() error {
	s.closeOnce.Do(func() {
		s.stopSend()
		_ = s.conn.Close()
	})
	return nil
}

func (s *gatewaySession) readLoop() {
	defer s.terminate()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.fail(fmt.Errorf("failed to read gateway message: %w", err))
			return
		}
		if len(payload) == 0 {
			continue
		}
		select {
		case s.events <- ports.SessionEvent{Data: payload}:
		case <-s.quit:
			return
		}
	}
}

// fail records the error and tears the connection down.
func (s *gatewaySession) fail(err error) {
	s.setErr(err)
	s.stopSend()
	_ = s.conn.Close()
}

func (s *gatewaySession) stopSend() {
	s.quitOnce.Do(func() { close(s.quit) })
}

// terminate delivers the final SignalClosed once the read loop is done.
// A session that was closed without ever being consumed can have a full
// buffer; buffered data is expendable at that point, the terminal
// signal is not.
func (s *gatewaySession) terminate() {
	s.termOnce.Do(func() {
		closed := ports.SessionEvent{Signal: ports.SignalClosed}
		for {
			select {
			case s.events <- closed:
				return
			default:
			}
			select {
			case <-s.events:
			default:
			}
		}
	})
}

func (s *gatewaySession) lastErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *gatewaySession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func toWebsocketURL(raw string) (string, error) {
	base := strings.TrimSpace(raw)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid gateway url: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "", fmt.Errorf("invalid gateway url scheme %q", parsed.Scheme)
	}
	return parsed.String(), nil
}
