package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Media provider selection for the client.
const (
	MediaProviderLiveKit = "livekit"
	MediaProviderWS      = "ws"
)

// Config stores runtime configuration for the client and server binaries.
type Config struct {
	Client ClientConfig
	Server ServerConfig
}

type ClientConfig struct {
	TokenEndpoint string
	MediaURL      string
	MediaProvider string
}

type ServerConfig struct {
	ListenAddr      string
	LiveKitURL      string
	APIKey          string
	APISecret       string
	TokenTTL        time.Duration
	EmptyTimeout    time.Duration
	MaxParticipants int
}

// Load resolves configuration from environment variables and sensible
// defaults.
func Load() (Config, error) {
	cfg := Config{
		Client: ClientConfig{
			TokenEndpoint: envOrDefault("YINLINK_TOKEN_ENDPOINT", "http://localhost:8080/api/token"),
			MediaURL: firstNonEmpty(
				os.Getenv("YINLINK_MEDIA_URL"),
				os.Getenv("LIVEKIT_URL"),
			),
			MediaProvider: envOrDefault("YINLINK_MEDIA_PROVIDER", MediaProviderLiveKit),
		},
		Server: ServerConfig{
			ListenAddr:      envOrDefault("YINLINK_LISTEN_ADDR", ":8080"),
			LiveKitURL:      strings.TrimSpace(os.Getenv("LIVEKIT_URL")),
			APIKey:          strings.TrimSpace(os.Getenv("LIVEKIT_API_KEY")),
			APISecret:       strings.TrimSpace(os.Getenv("LIVEKIT_API_SECRET")),
			TokenTTL:        time.Duration(envOrDefaultInt("YINLINK_TOKEN_TTL_MINUTES", 60)) * time.Minute,
			EmptyTimeout:    time.Duration(envOrDefaultInt("YINLINK_ROOM_EMPTY_TIMEOUT_SECONDS", 600)) * time.Second,
			MaxParticipants: envOrDefaultInt("YINLINK_ROOM_MAX_PARTICIPANTS", 10),
		},
	}

	switch cfg.Client.MediaProvider {
	case MediaProviderLiveKit, MediaProviderWS:
	default:
		return Config{}, fmt.Errorf("unknown media provider %q", cfg.Client.MediaProvider)
	}

	if cfg.Server.TokenTTL <= 0 {
		cfg.Server.TokenTTL = time.Hour
	}
	if cfg.Server.EmptyTimeout <= 0 {
		cfg.Server.EmptyTimeout = 10 * time.Minute
	}
	if cfg.Server.MaxParticipants <= 0 {
		cfg.Server.MaxParticipants = 10
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
