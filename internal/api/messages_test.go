package api

import (
	"net/http"
	"testing"

	"github.com/dwhitmore/meshgate-core/internal/mesh"
)

func TestSendMessage(t *testing.T) {
	gw := &fakeGateway{sendRef: mesh.ChannelRef{Index: 2, Name: "alerts"}}
	env := newTestEnv(t, gw)

	rec := env.request(t, http.MethodPost, "/api/messages", sendMessageRequest{
		Channel: "#Alerts",
		Message: "pump house flooding",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/messages = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp sendMessageResponse
	decodeBody(t, rec, &resp)
	if resp.ChannelIndex != 2 || resp.ChannelName != "alerts" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(gw.sentTexts) != 1 || gw.sentTexts[0] != "pump house flooding" {
		t.Errorf("sent texts = %v", gw.sentTexts)
	}
}

func TestSendMessageErrors(t *testing.T) {
	tests := []struct {
		name string
		body sendMessageRequest
		err  error
		want int
	}{
		{"missing channel", sendMessageRequest{Message: "hi"}, nil, http.StatusBadRequest},
		{"missing message", sendMessageRequest{Channel: "ops"}, nil, http.StatusBadRequest},
		{"unknown channel", sendMessageRequest{Channel: "ghost", Message: "hi"}, mesh.ErrChannelNotFound, http.StatusNotFound},
		{"device unreachable", sendMessageRequest{Channel: "ops", Message: "hi"}, mesh.ErrConnectionFailed, http.StatusBadGateway},
		{"device rejected", sendMessageRequest{Channel: "ops", Message: "hi"}, mesh.ErrDeviceRejected, http.StatusBadGateway},
		{"no acknowledgement", sendMessageRequest{Channel: "ops", Message: "hi"}, mesh.ErrDeviceTimeout, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &fakeGateway{sendErr: tt.err})

			rec := env.request(t, http.MethodPost, "/api/messages", tt.body)
			if rec.Code != tt.want {
				t.Errorf("POST /api/messages = %d, want %d; body %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
