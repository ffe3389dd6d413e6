package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"yinlink/internal/domain"
)

// consoleSink renders controller events to the terminal. Conversational
// entries are grouped under a speaker header; system notices are set
// apart and never show a translation line.
type consoleSink struct {
	mu   sync.Mutex
	out  io.Writer
	last domain.Speaker

	failOnce sync.Once
	failed   chan struct{}
}

func newConsoleSink(out io.Writer) *consoleSink {
	return &consoleSink{out: out, failed: make(chan struct{})}
}

// Failed is closed once the connection reaches a terminal failure.
func (s *consoleSink) Failed() <-chan struct{} {
	return s.failed
}

func (s *consoleSink) ConnectionStateChanged(state domain.ConnectionState, reason domain.StateReason) {
	log.Info().Str("state", string(state)).Str("reason", string(reason)).Msg("connection state")
	if state == domain.ConnectionStateFailed {
		s.failOnce.Do(func() { close(s.failed) })
	}
}

func (s *consoleSink) TranscriptAppended(entry domain.TranscriptEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.System() {
		fmt.Fprintf(s.out, "        -- %s --\n", entry.Original)
		s.last = domain.SpeakerSystem
		return
	}

	if entry.Speaker != s.last {
		fmt.Fprintf(s.out, "[Speaker %s]\n", entry.Speaker)
		s.last = entry.Speaker
	}
	fmt.Fprintf(s.out, "  %s  %s\n", entry.ReceivedAt.Format("15:04:05"), entry.Original)
	if entry.Translated != "" {
		fmt.Fprintf(s.out, "            > %s\n", entry.Translated)
	}
}

func (s *consoleSink) TranscriptDropped(raw []byte) {
	log.Debug().Int("bytes", len(raw)).Msg("ignored non-transcript payload")
}

func (s *consoleSink) SessionError(code domain.ErrorCode, detail string) {
	log.Warn().Str("code", string(code)).Msg(detail)
}
