package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"yinlink/internal/bootstrap"
	"yinlink/internal/domain"
)

type options struct {
	name  string
	room  string
	phone string
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	opts := &options{}
	root := &cobra.Command{
		Use:          "yinlink",
		Short:        "Join a YinLink translated call from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	root.Flags().StringVarP(&opts.name, "name", "n", "", "participant display name")
	root.Flags().StringVarP(&opts.room, "room", "r", "", "room code (blank to start a new call)")
	root.Flags().StringVarP(&opts.phone, "phone", "p", "", "target phone number in E.164 form")
	_ = root.MarkFlagRequired("name")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("call ended with error")
	}
}

func run(ctx context.Context, opts *options) error {
	sink := newConsoleSink(os.Stdout)
	services, err := bootstrap.Build(sink)
	if err != nil {
		sink.SessionError(domain.ErrorCodeStartup, err.Error())
		return err
	}

	controller := services.Controller
	status, err := controller.Join(ctx, opts.name, opts.room, opts.phone)
	if err != nil {
		return err
	}
	defer controller.Leave()

	fmt.Printf("joined room %s\n", status.RoomName)
	fmt.Println("commands: m = toggle mute, q = leave")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sink.Failed():
			return errors.New("connection lost and could not be recovered")
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch line {
			case "m":
				muted, err := services.Media.ToggleMute(ctx)
				if err != nil {
					log.Warn().Err(err).Msg("mute toggle failed; call continues")
					continue
				}
				if muted {
					fmt.Println("microphone muted")
				} else {
					fmt.Println("microphone live")
				}
			case "q":
				return nil
			}
		}
	}
}
