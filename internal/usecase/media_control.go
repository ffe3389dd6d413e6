package usecase

import (
	"context"
	"errors"
	"fmt"

	"yinlink/internal/domain"
	"yinlink/internal/ports"
)

// MediaControl toggles the local microphone publication on the active
// session. It never owns connection state; it only mutates the
// session's mute flag, and only after the transport acknowledges.
type MediaControl struct {
	controller *CallController
	events     ports.EventSink
}

func NewMediaControl(controller *CallController, events ports.EventSink) *MediaControl {
	return &MediaControl{controller: controller, events: events}
}

// ToggleMute flips the microphone mute state and returns the resulting
// value. Without an active session or a resolvable microphone
// publication there is nothing to toggle and the call is a no-op. A
// failed request leaves the state unchanged and surfaces a non-fatal
// device error; the call continues.
func (m *MediaControl) ToggleMute(ctx context.Context) (bool, error) {
	active := m.controller.currentSession()
	if active == nil {
		return false, nil
	}

	target := !active.getMuted()
	err := active.media.SetMicMuted(ctx, target)
	if !m.controller.isCurrent(active) {
		// the user left while the request was in flight; discard the
		// outcome either way
		return active.getMuted(), nil
	}
	if err != nil {
		if errors.Is(err, ports.ErrNoMicPublication) {
			return active.getMuted(), nil
		}
		err = fmt.Errorf("%w: %v", domain.ErrDevice, err)
		m.events.SessionError(domain.ErrorCodeDevice, err.Error())
		return active.getMuted(), err
	}

	active.setMuted(target)
	return target, nil
}

// Muted reports the mute state of the active session, or false without one.
func (m *MediaControl) Muted() bool {
	active := m.controller.currentSession()
	return active != nil && active.getMuted()
}
