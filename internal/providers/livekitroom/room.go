package livekitroom

import (
	"context"
	"fmt"
	"sync"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"yinlink/internal/ports"
)

// Connector implements ports.MediaConnector over a LiveKit room. The
// room's data channel carries the transcript side channel; connectivity
// callbacks are forwarded as session signals. Reconnection retries are
// owned by the SDK, we only observe the outcome.
type Connector struct{}

func NewConnector() *Connector {
	return &Connector{}
}

func (c *Connector) Connect(ctx context.Context, url string, token string) (ports.MediaSession, error) {
	session := &roomSession{
		events: make(chan ports.SessionEvent, 64),
		done:   make(chan struct{}),
	}

	callback := &lksdk.RoomCallback{
		OnReconnecting: func() { session.signal(ports.SignalReconnecting) },
		OnReconnected:  func() { session.signal(ports.SignalReconnected) },
		OnDisconnected: func() { session.terminate() },
		ParticipantCallback: lksdk.ParticipantCallback{
			OnDataPacket: func(data lksdk.DataPacket, params lksdk.DataReceiveParams) {
				if user, ok := data.(*lksdk.UserDataPacket); ok {
					session.data(user.Payload)
				}
			},
		},
	}

	room, err := lksdk.ConnectToRoomWithToken(url, token, callback)
	if err != nil {
		return nil, fmt.Errorf("connect to room: %w", err)
	}
	session.room = room

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

type roomSession struct {
	room *lksdk.Room

	events chan ports.SessionEvent
	done   chan struct{}

	closeOnce sync.Once
	termOnce  sync.Once
}

func (s *roomSession) Events() <-chan ports.SessionEvent {
	return s.events
}

func (s *roomSession) SendData(ctx context.Context, payload []byte) error {
	return s.room.LocalParticipant.PublishDataPacket(lksdk.UserData(payload), lksdk.WithDataPublishReliable(true))
}

func (s *roomSession) SetMicMuted(ctx context.Context, muted bool) error {
	for _, pub := range s.room.LocalParticipant.TrackPublications() {
		if pub.Source() != livekit.TrackSource_MICROPHONE {
			continue
		}
		local, ok := pub.(*lksdk.LocalTrackPublication)
		if !ok {
			continue
		}
		local.SetMuted(muted)
		return nil
	}
	return ports.ErrNoMicPublication
}

func (s *roomSession) Close() error {
	s.closeOnce.Do(func() {
		s.room.Disconnect()
		s.terminate()
	})
	return nil
}

func (s *roomSession) data(payload []byte) {
	if len(payload) == 0 {
		return
	}
	copied := append([]byte(nil), payload...)
	s.emit(ports.SessionEvent{Data: copied})
}

func (s *roomSession) signal(kind ports.SignalKind) {
	s.emit(ports.SessionEvent{Signal: kind})
}

// terminate delivers the final SignalClosed and stops further emission.
func (s *roomSession) terminate() {
	s.termOnce.Do(func() {
		s.emit(ports.SessionEvent{Signal: ports.SignalClosed})
		close(s.done)
	})
}

func (s *roomSession) emit(ev ports.SessionEvent) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}
