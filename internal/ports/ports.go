package ports

import (
	"context"
	"errors"

	"yinlink/internal/domain"
)

// TokenRequest asks for a join credential for one participant and room.
// TargetPhone, when set, is attached to the room as metadata so the
// outbound dialer knows which number to call.
type TokenRequest struct {
	RoomName        string
	ParticipantName string
	TargetPhone     string
}

// TokenGrant is an issued credential bound to a room.
type TokenGrant struct {
	Token    string
	RoomName string
}

// TokenIssuer mints join credentials.
type TokenIssuer interface {
	Issue(ctx context.Context, req TokenRequest) (TokenGrant, error)
}

// SignalKind classifies connectivity notifications from the transport.
type SignalKind string

const (
	SignalReconnecting SignalKind = "reconnecting"
	SignalReconnected  SignalKind = "reconnected"

	// SignalClosed is terminal: the transport gave up (retry budget
	// exhausted) or the session was torn down. A session always delivers
	// SignalClosed as its final event.
	SignalClosed SignalKind = "closed"
)

// SessionEvent is one inbound event from an established media session:
// a raw side-channel payload when Signal is empty, otherwise a
// connectivity signal.
type SessionEvent struct {
	Data   []byte
	Signal SignalKind
}

// ErrNoMicPublication is returned by SetMicMuted when the session has no
// local microphone publication to control.
var ErrNoMicPublication = errors.New("no local microphone publication")

// MediaSession is an established call session. Events delivers
// side-channel payloads and connectivity signals in arrival order,
// ending with SignalClosed; the channel itself is never closed.
type MediaSession interface {
	Events() <-chan SessionEvent
	SendData(ctx context.Context, payload []byte) error
	SetMicMuted(ctx context.Context, muted bool) error
	Close() error
}

// MediaConnector establishes media sessions against a signaling backend.
type MediaConnector interface {
	Connect(ctx context.Context, url string, token string) (MediaSession, error)
}

// EventSink delivers call state and transcript updates to the UI.
type EventSink interface {
	ConnectionStateChanged(state domain.ConnectionState, reason domain.StateReason)
	TranscriptAppended(entry domain.TranscriptEntry)
	TranscriptDropped(raw []byte)
	SessionError(code domain.ErrorCode, detail string)
}
