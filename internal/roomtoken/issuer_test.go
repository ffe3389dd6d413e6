package roomtoken

import (
	"context"
	"errors"
	"strings"
	"testing"

	"yinlink/internal/domain"
	"yinlink/internal/ports"
)

const (
	testAPIKey    = "APIabcdef123456"
	testAPISecret = "0123456789abcdef0123456789abcdef"
)

type provisionCall struct {
	roomName string
	metadata string
}

type fakeProvisioner struct {
	calls []provisionCall
	err   error
}

func (f *fakeProvisioner) EnsureRoom(ctx context.Context, roomName string, metadata string) error {
	f.calls = append(f.calls, provisionCall{roomName: roomName, metadata: metadata})
	return f.err
}

func newTestIssuer(rooms RoomProvisioner) *Issuer {
	return NewIssuer(Config{APIKey: testAPIKey, APISecret: testAPISecret}, rooms)
}

func TestIssueWithoutPhoneSkipsProvisioning(t *testing.T) {
	t.Parallel()

	rooms := &fakeProvisioner{}
	issuer := newTestIssuer(rooms)

	grant, err := issuer.Issue(context.Background(), ports.TokenRequest{
		RoomName:        "call-1",
		ParticipantName: "Alice",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if grant.Token == "" || grant.RoomName != "call-1" {
		t.Fatalf("unexpected grant: %+v", grant)
	}
	if len(rooms.calls) != 0 {
		t.Fatalf("provisioning must not be attempted without a target phone")
	}
}

func TestIssueValidatesBeforeAnySideEffect(t *testing.T) {
	t.Parallel()

	cases := []ports.TokenRequest{
		{RoomName: "", ParticipantName: "Alice", TargetPhone: "+14155550100"},
		{RoomName: "   ", ParticipantName: "Alice", TargetPhone: "+14155550100"},
		{RoomName: "call-1", ParticipantName: "", TargetPhone: "+14155550100"},
	}

	for _, req := range cases {
		rooms := &fakeProvisioner{}
		issuer := newTestIssuer(rooms)

		_, err := issuer.Issue(context.Background(), req)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("request %+v: expected validation error, got %v", req, err)
		}
		if len(rooms.calls) != 0 {
			t.Fatalf("request %+v: validation must precede provisioning", req)
		}
	}
}

func TestIssueWithoutCredentialsIsConfigurationError(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer(Config{}, &fakeProvisioner{})

	_, err := issuer.Issue(context.Background(), ports.TokenRequest{
		RoomName:        "call-1",
		ParticipantName: "Alice",
	})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestIssueAttachesTargetPhoneMetadata(t *testing.T) {
	t.Parallel()

	rooms := &fakeProvisioner{}
	issuer := newTestIssuer(rooms)

	grant, err := issuer.Issue(context.Background(), ports.TokenRequest{
		RoomName:        "call-1",
		ParticipantName: "Alice",
		TargetPhone:     "+14155550100",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if grant.Token == "" {
		t.Fatalf("expected a token")
	}

	if len(rooms.calls) != 1 {
		t.Fatalf("expected one provisioning call, got %d", len(rooms.calls))
	}
	if rooms.calls[0].roomName != "call-1" {
		t.Fatalf("unexpected room: %q", rooms.calls[0].roomName)
	}
	if rooms.calls[0].metadata != `{"target_phone":"+14155550100"}` {
		t.Fatalf("unexpected metadata: %s", rooms.calls[0].metadata)
	}
}

func TestIssueProvisioningIsIdempotent(t *testing.T) {
	t.Parallel()

	rooms := &fakeProvisioner{}
	issuer := newTestIssuer(rooms)
	req := ports.TokenRequest{
		RoomName:        "call-1",
		ParticipantName: "Alice",
		TargetPhone:     "+14155550100",
	}

	if _, err := issuer.Issue(context.Background(), req); err != nil {
		t.Fatalf("first issue failed: %v", err)
	}
	if _, err := issuer.Issue(context.Background(), req); err != nil {
		t.Fatalf("second issue failed: %v", err)
	}

	if len(rooms.calls) != 2 {
		t.Fatalf("expected two provisioning calls, got %d", len(rooms.calls))
	}
	if rooms.calls[0] != rooms.calls[1] {
		t.Fatalf("repeated provisioning diverged: %+v vs %+v", rooms.calls[0], rooms.calls[1])
	}
}

func TestIssueAbortsOnProvisioningFailure(t *testing.T) {
	t.Parallel()

	rooms := &fakeProvisioner{err: errors.New("room service unavailable")}
	issuer := newTestIssuer(rooms)

	grant, err := issuer.Issue(context.Background(), ports.TokenRequest{
		RoomName:        "call-1",
		ParticipantName: "Alice",
		TargetPhone:     "+14155550100",
	})
	if !errors.Is(err, domain.ErrProvisioning) {
		t.Fatalf("expected provisioning error, got %v", err)
	}
	if grant.Token != "" {
		t.Fatalf("must not issue a token for a half-provisioned room")
	}
}

func TestIssueErrorsNeverLeakSecret(t *testing.T) {
	t.Parallel()

	rooms := &fakeProvisioner{err: errors.New("room service unavailable")}
	issuer := newTestIssuer(rooms)

	_, err := issuer.Issue(context.Background(), ports.TokenRequest{
		RoomName:        "call-1",
		ParticipantName: "Alice",
		TargetPhone:     "+14155550100",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if strings.Contains(err.Error(), testAPISecret) {
		t.Fatalf("error text leaks the signing secret: %v", err)
	}
}
