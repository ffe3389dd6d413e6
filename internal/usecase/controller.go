package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"yinlink/internal/domain"
	"yinlink/internal/ports"
)

var (
	ErrCallInProgress = errors.New("a call is already in progress")

	// ErrJoinAborted is returned when leave() overtakes a pending join;
	// the established session is discarded rather than installed.
	ErrJoinAborted = errors.New("join aborted")
)

// Config controls call establishment.
type Config struct {
	MediaURL string
}

// CallController owns the connection state machine. It converts join and
// leave intent into session lifecycle transitions and reflects transport
// connectivity signals into the current ConnectionState.
type CallController struct {
	tokens ports.TokenIssuer
	media  ports.MediaConnector
	events ports.EventSink
	cfg    Config
	now    func() time.Time

	mu         sync.Mutex
	state      domain.ConnectionState
	generation uint64
	current    *activeSession
	transcript *transcriptLog
}

func NewCallController(
	tokens ports.TokenIssuer,
	media ports.MediaConnector,
	events ports.EventSink,
	cfg Config,
) *CallController {
	return &CallController{
		tokens: tokens,
		media:  media,
		events: events,
		cfg:    cfg,
		now:    time.Now,
		state:  domain.ConnectionStateDisconnected,
	}
}

// Join validates intent, requests a token, and establishes a session.
// A blank room name gets a freshly generated one. The transcript and
// mute state reset here, on the next join, so a finished call's
// transcript stays visible until a new call starts.
func (c *CallController) Join(ctx context.Context, userName string, roomName string, targetPhone string) (domain.Status, error) {
	name := strings.TrimSpace(userName)
	if name == "" {
		c.events.SessionError(domain.ErrorCodeValidation, "participant name is required")
		return c.Status(), fmt.Errorf("%w: participant name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(c.cfg.MediaURL) == "" {
		c.events.SessionError(domain.ErrorCodeConfiguration, "media server url is not configured")
		return c.Status(), fmt.Errorf("%w: media server url is not configured", domain.ErrConfiguration)
	}

	room := strings.TrimSpace(roomName)
	if room == "" {
		room = "call-" + uuid.NewString()
	}

	c.mu.Lock()
	if c.state != domain.ConnectionStateDisconnected && c.state != domain.ConnectionStateFailed {
		c.mu.Unlock()
		return c.Status(), ErrCallInProgress
	}
	c.generation++
	gen := c.generation
	c.state = domain.ConnectionStateConnecting
	c.mu.Unlock()
	c.events.ConnectionStateChanged(domain.ConnectionStateConnecting, domain.StateReasonJoinRequested)

	grant, err := c.tokens.Issue(ctx, ports.TokenRequest{
		RoomName:        room,
		ParticipantName: name,
		TargetPhone:     strings.TrimSpace(targetPhone),
	})
	if err != nil {
		c.failJoin(gen, err)
		return c.Status(), err
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	media, err := c.media.Connect(sessionCtx, c.cfg.MediaURL, grant.Token)
	if err != nil {
		cancel()
		err = fmt.Errorf("%w: establish session: %v", domain.ErrConnection, err)
		c.failJoin(gen, err)
		return c.Status(), err
	}

	transcript := newTranscriptLog(c.now)
	active := &activeSession{
		cancel:   cancel,
		media:    media,
		roomName: grant.RoomName,
		pumpDone: make(chan struct{}),
	}

	c.mu.Lock()
	if c.generation != gen || c.state != domain.ConnectionStateConnecting {
		// leave() won the race: discard the session we just established
		c.mu.Unlock()
		cancel()
		_ = media.Close()
		return c.Status(), ErrJoinAborted
	}
	c.current = active
	c.transcript = transcript
	c.state = domain.ConnectionStateConnected
	c.mu.Unlock()

	c.events.ConnectionStateChanged(domain.ConnectionStateConnected, domain.StateReasonSessionEstablished)
	c.events.TranscriptAppended(transcript.Entries()[0])
	go c.pumpSessionEvents(active, transcript)

	return c.Status(), nil
}

// Leave tears down the active session from any state. The transcript is
// left in place so it stays readable after the call ends.
func (c *CallController) Leave() {
	c.mu.Lock()
	c.generation++
	active := c.current
	c.current = nil
	changed := c.state != domain.ConnectionStateDisconnected
	c.state = domain.ConnectionStateDisconnected
	c.mu.Unlock()

	if changed {
		c.events.ConnectionStateChanged(domain.ConnectionStateDisconnected, domain.StateReasonLeft)
	}

	if active != nil {
		active.cancel()
		_ = active.media.Close()
		<-active.pumpDone
	}
}

// Status returns the current connection status.
func (c *CallController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := domain.Status{State: c.state}
	switch c.state {
	case domain.ConnectionStateConnecting, domain.ConnectionStateConnected, domain.ConnectionStateReconnecting:
		status.Active = true
	}
	if c.current != nil {
		status.RoomName = c.current.roomName
		status.Muted = c.current.getMuted()
	}
	return status
}

// Transcript returns the current transcript snapshot. It survives
// leave() and is replaced only when the next join succeeds.
func (c *CallController) Transcript() []domain.TranscriptEntry {
	c.mu.Lock()
	transcript := c.transcript
	c.mu.Unlock()

	if transcript == nil {
		return nil
	}
	return transcript.Entries()
}

// DroppedMessages reports how many side-channel payloads the current
// transcript ignored as non-transcript traffic.
func (c *CallController) DroppedMessages() uint64 {
	c.mu.Lock()
	transcript := c.transcript
	c.mu.Unlock()

	if transcript == nil {
		return 0
	}
	return transcript.Dropped()
}

func (c *CallController) pumpSessionEvents(active *activeSession, transcript *transcriptLog) {
	defer close(active.pumpDone)

	for ev := range active.media.Events() {
		if ev.Signal != "" {
			c.onSignal(active, ev.Signal)
			if ev.Signal == ports.SignalClosed {
				return
			}
			continue
		}

		if !c.isCurrent(active) {
			continue
		}
		entry, ok := transcript.Ingest(ev.Data)
		if !ok {
			c.events.TranscriptDropped(ev.Data)
			continue
		}
		c.events.TranscriptAppended(entry)
	}
}

func (c *CallController) onSignal(active *activeSession, kind ports.SignalKind) {
	var state domain.ConnectionState
	var reason domain.StateReason
	changed := false

	c.mu.Lock()
	if c.current == active {
		switch kind {
		case ports.SignalReconnecting:
			if c.state == domain.ConnectionStateConnected {
				state, reason, changed = domain.ConnectionStateReconnecting, domain.StateReasonSignalLost, true
			}
		case ports.SignalReconnected:
			if c.state == domain.ConnectionStateReconnecting {
				state, reason, changed = domain.ConnectionStateConnected, domain.StateReasonSignalRestored, true
			}
		case ports.SignalClosed:
			// Terminal transport outcome. The transport owns the retry
			// budget; we only reflect how it ended.
			if c.state == domain.ConnectionStateReconnecting {
				state, reason = domain.ConnectionStateFailed, domain.StateReasonReconnectExhausted
			} else {
				state, reason = domain.ConnectionStateDisconnected, domain.StateReasonSessionClosed
			}
			changed = true
			c.current = nil
			active.cancel()
		}
		if changed {
			c.state = state
		}
	}
	c.mu.Unlock()

	if changed {
		c.events.ConnectionStateChanged(state, reason)
	}
}

// failJoin surfaces a join failure and resets to Disconnected so a
// retry is possible.
func (c *CallController) failJoin(gen uint64, err error) {
	c.mu.Lock()
	stale := c.generation != gen
	if !stale {
		c.state = domain.ConnectionStateDisconnected
	}
	c.mu.Unlock()

	if stale {
		// a concurrent leave already owns the state
		return
	}
	c.events.SessionError(errorCode(err), err.Error())
	c.events.ConnectionStateChanged(domain.ConnectionStateFailed, domain.StateReasonJoinFailed)
	c.events.ConnectionStateChanged(domain.ConnectionStateDisconnected, domain.StateReasonRetryAvailable)
}

func (c *CallController) currentSession() *activeSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *CallController) isCurrent(active *activeSession) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current == active
}

func errorCode(err error) domain.ErrorCode {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return domain.ErrorCodeValidation
	case errors.Is(err, domain.ErrConfiguration):
		return domain.ErrorCodeConfiguration
	case errors.Is(err, domain.ErrProvisioning):
		return domain.ErrorCodeProvisioning
	case errors.Is(err, domain.ErrDevice):
		return domain.ErrorCodeDevice
	default:
		return domain.ErrorCodeConnection
	}
}
