package domain

import "time"

// ConnectionState models the call lifecycle. It is owned by the call
// controller; every other component only reads it.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateReconnecting ConnectionState = "reconnecting"
	ConnectionStateFailed       ConnectionState = "failed"
)

// StateReason provides a structured reason for state transitions.
type StateReason string

const (
	StateReasonJoinRequested      StateReason = "join_requested"
	StateReasonSessionEstablished StateReason = "session_established"
	StateReasonJoinFailed         StateReason = "join_failed"
	StateReasonRetryAvailable     StateReason = "retry_available"
	StateReasonSignalLost         StateReason = "signal_lost"
	StateReasonSignalRestored     StateReason = "signal_restored"
	StateReasonReconnectExhausted StateReason = "reconnect_exhausted"
	StateReasonSessionClosed      StateReason = "session_closed"
	StateReasonLeft               StateReason = "left"
)

// Speaker identifies who an utterance is attributed to.
type Speaker string

const (
	SpeakerA      Speaker = "A"
	SpeakerB      Speaker = "B"
	SpeakerSystem Speaker = "system"
)

// Language tags the source language of an utterance.
type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageMandarin Language = "zh"
)

// TranscriptMessageType discriminates transcript payloads on the side
// channel; anything else on the channel is not ours to interpret.
const TranscriptMessageType = "transcript"

// TranscriptMessage is the wire shape of one side-channel transcript
// payload as published by the translation agent.
type TranscriptMessage struct {
	Type       string `json:"type"`
	Speaker    string `json:"speaker,omitempty"`
	Original   string `json:"original"`
	Translated string `json:"translated,omitempty"`
	Language   string `json:"language,omitempty"`
}

// TranscriptEntry is one displayable, ordered, immutable record of an
// utterance and its translation. IDs increase monotonically within a
// session; ReceivedAt is the local receipt time.
type TranscriptEntry struct {
	ID         uint64    `json:"id"`
	Speaker    Speaker   `json:"speaker"`
	Original   string    `json:"original"`
	Translated string    `json:"translated,omitempty"`
	Language   Language  `json:"language"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// System reports whether the entry is a synthetic system notice rather
// than conversational speech.
func (e TranscriptEntry) System() bool {
	return e.Speaker == SpeakerSystem
}

// ErrorCode identifies non-fatal and fatal call errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeValidation    ErrorCode = "validation"
	ErrorCodeConfiguration ErrorCode = "configuration"
	ErrorCodeProvisioning  ErrorCode = "provisioning"
	ErrorCodeConnection    ErrorCode = "connection"
	ErrorCodeDevice        ErrorCode = "device"
	ErrorCodeStartup       ErrorCode = "startup"
)

// Status summarizes the current call status.
type Status struct {
	State    ConnectionState `json:"state"`
	RoomName string          `json:"roomName,omitempty"`
	Active   bool            `json:"active"`
	Muted    bool            `json:"muted"`
}
