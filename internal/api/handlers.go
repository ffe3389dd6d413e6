package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"yinlink/internal/domain"
	"yinlink/internal/ports"
)

type Handler struct {
	Issuer ports.TokenIssuer
	Log    zerolog.Logger
}

type tokenRequest struct {
	RoomName        string `json:"roomName"`
	ParticipantName string `json:"participantName"`
	TargetPhone     string `json:"targetPhone"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	RoomName string `json:"roomName"`
}

// Token issues a join credential for a room, provisioning outbound-call
// metadata first when a target phone is supplied.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	grant, err := h.Issuer.Issue(r.Context(), ports.TokenRequest{
		RoomName:        req.RoomName,
		ParticipantName: req.ParticipantName,
		TargetPhone:     req.TargetPhone,
	})
	if err != nil {
		h.writeIssueError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: grant.Token, RoomName: grant.RoomName})
}

func (h *Handler) writeIssueError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrProvisioning):
		h.Log.Error().Err(err).Msg("room provisioning failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "room provisioning failed"})
	default:
		// Configuration and signing failures: detail goes to the log,
		// the response stays generic so credentials never leak.
		h.Log.Error().Err(err).Msg("token issuance failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server configuration error"})
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
