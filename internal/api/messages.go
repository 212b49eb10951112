package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// sendMessageRequest is the request body for POST /api/messages.
type sendMessageRequest struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

// sendMessageResponse is the response body for a dispatched message.
type sendMessageResponse struct {
	Status       string `json:"status"`
	ChannelIndex int    `json:"channel_index"`
	ChannelName  string `json:"channel_name"`
}

// handleSendMessage dispatches a text message to a named channel.
//
// The channel is resolved by name (a leading # is ignored, matching is
// case-insensitive). The request blocks until the device acknowledges the
// send or the acknowledgement window expires.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Channel) == "" {
		writeBadRequest(w, "channel is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeBadRequest(w, "message is required")
		return
	}

	ref, err := s.gateway.SendMessage(r.Context(), req.Channel, req.Message)
	if err != nil {
		writeMeshError(w, err, http.StatusBadGateway)
		return
	}

	s.events.MessageDispatched(ref)

	writeJSON(w, http.StatusOK, sendMessageResponse{
		Status:       "ok",
		ChannelIndex: ref.Index,
		ChannelName:  ref.Name,
	})
}
