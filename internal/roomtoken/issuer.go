package roomtoken

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/livekit/protocol/auth"

	"yinlink/internal/domain"
	"yinlink/internal/ports"
)

// MetadataKeyTargetPhone is the room metadata key the outbound dialer
// reads to learn which external number to call.
const MetadataKeyTargetPhone = "target_phone"

const defaultTokenTTL = time.Hour

// RoomProvisioner writes room-level state on the media backend.
// EnsureRoom must be idempotent: repeated calls with the same name and
// metadata update rather than duplicate.
type RoomProvisioner interface {
	EnsureRoom(ctx context.Context, roomName string, metadata string) error
}

// Config holds the signing credentials for issued tokens.
type Config struct {
	APIKey    string
	APISecret string
	TokenTTL  time.Duration
}

// Issuer mints join tokens and, for outbound calls, provisions the
// room's target-phone metadata before issuing. Grants are fixed: join,
// publish audio/data, subscribe.
type Issuer struct {
	cfg   Config
	rooms RoomProvisioner
}

func NewIssuer(cfg Config, rooms RoomProvisioner) *Issuer {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &Issuer{cfg: cfg, rooms: rooms}
}

type roomMetadata struct {
	TargetPhone string `json:"target_phone"`
}

func (i *Issuer) Issue(ctx context.Context, req ports.TokenRequest) (ports.TokenGrant, error) {
	room := strings.TrimSpace(req.RoomName)
	name := strings.TrimSpace(req.ParticipantName)
	if room == "" {
		return ports.TokenGrant{}, fmt.Errorf("%w: roomName is required", domain.ErrValidation)
	}
	if name == "" {
		return ports.TokenGrant{}, fmt.Errorf("%w: participantName is required", domain.ErrValidation)
	}
	if strings.TrimSpace(i.cfg.APIKey) == "" || strings.TrimSpace(i.cfg.APISecret) == "" {
		return ports.TokenGrant{}, fmt.Errorf("%w: media backend credentials are not configured", domain.ErrConfiguration)
	}

	// The room metadata is the only channel by which the dialer learns
	// the target number, so it must be attached before the token exists.
	if phone := strings.TrimSpace(req.TargetPhone); phone != "" {
		metadata, err := json.Marshal(roomMetadata{TargetPhone: phone})
		if err != nil {
			return ports.TokenGrant{}, fmt.Errorf("%w: encode room metadata: %v", domain.ErrProvisioning, err)
		}
		if err := i.rooms.EnsureRoom(ctx, room, string(metadata)); err != nil {
			return ports.TokenGrant{}, fmt.Errorf("%w: attach target phone to room: %v", domain.ErrProvisioning, err)
		}
	}

	canPublish := true
	canSubscribe := true
	canPublishData := true
	token, err := auth.NewAccessToken(i.cfg.APIKey, i.cfg.APISecret).
		SetIdentity(name).
		SetName(name).
		SetVideoGrant(&auth.VideoGrant{
			RoomJoin:       true,
			Room:           room,
			CanPublish:     &canPublish,
			CanSubscribe:   &canSubscribe,
			CanPublishData: &canPublishData,
		}).
		SetValidFor(i.cfg.TokenTTL).
		ToJWT()
	if err != nil {
		return ports.TokenGrant{}, fmt.Errorf("%w: sign access token: %v", domain.ErrConfiguration, err)
	}

	return ports.TokenGrant{Token: token, RoomName: room}, nil
}
