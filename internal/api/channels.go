package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dwhitmore/meshgate-core/internal/mesh"
)

// channelsResponse is the response body for channel list and create.
type channelsResponse struct {
	Status   string             `json:"status"`
	Channels []mesh.ChannelInfo `json:"channels"`
}

// createChannelRequest is the request body for POST /api/channels.
// Password is accepted but unused: the device derives the channel secret
// from the name itself.
type createChannelRequest struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// handleListChannels scans the device's channel slots and returns the
// populated ones in slot order.
func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.gateway.ListChannels(r.Context())
	if err != nil {
		writeMeshError(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, channelsResponse{Status: "ok", Channels: channels})
}

// handleCreateChannel writes a new channel into the first free slot and
// returns the refreshed channel list.
//
// A device that accepts the session but never acknowledges the slot write
// is reported as 504: the write may or may not have stuck, and the caller
// should re-list before retrying.
func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req createChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeBadRequest(w, "channel name is required")
		return
	}

	channels, err := s.gateway.CreateChannel(r.Context(), req.Name)
	if err != nil {
		writeMeshError(w, err, http.StatusGatewayTimeout)
		return
	}

	s.publishCreated(req.Name, channels)

	writeJSON(w, http.StatusCreated, channelsResponse{Status: "ok", Channels: channels})
}

// publishCreated emits a channel-created event for the named channel.
func (s *Server) publishCreated(name string, channels []mesh.ChannelInfo) {
	for _, ch := range channels {
		if strings.EqualFold(strings.TrimLeft(ch.Name, "#"), strings.TrimLeft(strings.TrimSpace(name), "#")) {
			s.events.ChannelCreated(ch)
			return
		}
	}
}
