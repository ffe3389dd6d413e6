package usecase

import (
	"sync"

	"yinlink/internal/ports"
)

type activeSession struct {
	cancel   func()
	media    ports.MediaSession
	roomName string

	pumpDone chan struct{}

	muteMu sync.Mutex
	muted  bool
}

func (s *activeSession) setMuted(muted bool) {
	s.muteMu.Lock()
	defer s.muteMu.Unlock()
	s.muted = muted
}

func (s *activeSession) getMuted() bool {
	s.muteMu.Lock()
	defer s.muteMu.Unlock()
	return s.muted
}
