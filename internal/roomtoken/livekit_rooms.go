package roomtoken

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

const (
	defaultEmptyTimeout    = 10 * time.Minute
	defaultMaxParticipants = 10
)

// RoomOptions bound freshly provisioned rooms.
type RoomOptions struct {
	EmptyTimeout    time.Duration
	MaxParticipants uint32
}

// LiveKitProvisioner implements RoomProvisioner against the LiveKit
// room service. CreateRoom is create-or-update on the server side,
// which is what gives EnsureRoom its idempotency.
type LiveKitProvisioner struct {
	client *lksdk.RoomServiceClient
	opts   RoomOptions
}

func NewLiveKitProvisioner(url string, apiKey string, apiSecret string, opts RoomOptions) *LiveKitProvisioner {
	if opts.EmptyTimeout <= 0 {
		opts.EmptyTimeout = defaultEmptyTimeout
	}
	if opts.MaxParticipants == 0 {
		opts.MaxParticipants = defaultMaxParticipants
	}

	p := &LiveKitProvisioner{opts: opts}
	if strings.TrimSpace(url) != "" {
		p.client = lksdk.NewRoomServiceClient(url, apiKey, apiSecret)
	}
	return p
}

func (p *LiveKitProvisioner) EnsureRoom(ctx context.Context, roomName string, metadata string) error {
	if p.client == nil {
		return errors.New("media backend url is not configured")
	}

	_, err := p.client.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:            roomName,
		Metadata:        metadata,
		EmptyTimeout:    uint32(p.opts.EmptyTimeout / time.Second),
		MaxParticipants: p.opts.MaxParticipants,
	})
	return err
}
