package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"yinlink/internal/api"
	"yinlink/internal/config"
	"yinlink/internal/roomtoken"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	root := &cobra.Command{
		Use:          "yinlink-server",
		Short:        "Serve the YinLink session token service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	issuer := roomtoken.NewIssuer(
		roomtoken.Config{
			APIKey:    cfg.Server.APIKey,
			APISecret: cfg.Server.APISecret,
			TokenTTL:  cfg.Server.TokenTTL,
		},
		roomtoken.NewLiveKitProvisioner(cfg.Server.LiveKitURL, cfg.Server.APIKey, cfg.Server.APISecret, roomtoken.RoomOptions{
			EmptyTimeout:    cfg.Server.EmptyTimeout,
			MaxParticipants: uint32(cfg.Server.MaxParticipants),
		}),
	)

	handler := &api.Handler{Issuer: issuer, Log: log.Logger}
	server := &http.Server{Addr: cfg.Server.ListenAddr, Handler: api.NewRouter(handler)}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	log.Info().Str("addr", cfg.Server.ListenAddr).Msg("token service listening")

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
