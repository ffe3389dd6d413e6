package usecase

import (
	"context"
	"sync"

	"yinlink/internal/domain"
	"yinlink/internal/ports"
)

type fakeIssuer struct {
	mu       sync.Mutex
	requests []ports.TokenRequest
	err      error
}

func (f *fakeIssuer) Issue(ctx context.Context, req ports.TokenRequest) (ports.TokenGrant, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	err := f.err
	f.mu.Unlock()

	if err != nil {
		return ports.TokenGrant{}, err
	}
	return ports.TokenGrant{Token: "token", RoomName: req.RoomName}, nil
}

func (f *fakeIssuer) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeIssuer) snapshotRequests() []ports.TokenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.TokenRequest(nil), f.requests...)
}

type fakeConnector struct {
	mu       sync.Mutex
	sessions []*fakeSession
	err      error
	block    chan struct{}
}

func (f *fakeConnector) Connect(ctx context.Context, url string, token string) (ports.MediaSession, error) {
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	session := newFakeSession()
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakeConnector) lastSession() *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}

type fakeSession struct {
	events    chan ports.SessionEvent
	closeOnce sync.Once
	closed    chan struct{}

	// when set, SetMicMuted reports on muteEntered and then blocks on
	// muteGate, so a test can act while the request is in flight
	muteEntered chan struct{}
	muteGate    chan struct{}

	mu        sync.Mutex
	muteCalls []bool
	muteErr   error
	sent      [][]byte
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		events: make(chan ports.SessionEvent, 16),
		closed: make(chan struct{}),
	}
}

func (s *fakeSession) Events() <-chan ports.SessionEvent {
	return s.events
}

func (s *fakeSession) SendData(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, append([]byte(nil), payload...))
	return nil
}

func (s *fakeSession) SetMicMuted(ctx context.Context, muted bool) error {
	if s.muteEntered != nil {
		s.muteEntered <- struct{}{}
	}
	if s.muteGate != nil {
		<-s.muteGate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.muteErr != nil {
		return s.muteErr
	}
	s.muteCalls = append(s.muteCalls, muted)
	return nil
}

func (s *fakeSession) Close() error {
	s.closeOnce.Do(func() {
		s.events <- ports.SessionEvent{Signal: ports.SignalClosed}
		close(s.closed)
	})
	return nil
}

func (s *fakeSession) pushData(payload string) {
	s.events <- ports.SessionEvent{Data: []byte(payload)}
}

func (s *fakeSession) pushSignal(kind ports.SignalKind) {
	s.events <- ports.SessionEvent{Signal: kind}
}

func (s *fakeSession) snapshotMuteCalls() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.muteCalls...)
}

type stateChange struct {
	state  domain.ConnectionState
	reason domain.StateReason
}

type fakeEventSink struct {
	mu      sync.Mutex
	states  []stateChange
	entries []domain.TranscriptEntry
	drops   [][]byte
	errors  []domain.ErrorCode
}

func (f *fakeEventSink) ConnectionStateChanged(state domain.ConnectionState, reason domain.StateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateChange{state: state, reason: reason})
}

func (f *fakeEventSink) TranscriptAppended(entry domain.TranscriptEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
}

func (f *fakeEventSink) TranscriptDropped(raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drops = append(f.drops, append([]byte(nil), raw...))
}

func (f *fakeEventSink) SessionError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, code)
}

func (f *fakeEventSink) snapshotStates() []stateChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]stateChange(nil), f.states...)
}

func (f *fakeEventSink) snapshotEntries() []domain.TranscriptEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.TranscriptEntry(nil), f.entries...)
}

func (f *fakeEventSink) snapshotErrors() []domain.ErrorCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ErrorCode(nil), f.errors...)
}
