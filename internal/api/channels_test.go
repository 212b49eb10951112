package api

import (
	"net/http"
	"testing"

	"github.com/dwhitmore/meshgate-core/internal/mesh"
)

func testChannels() []mesh.ChannelInfo {
	return []mesh.ChannelInfo{
		{Index: 0, Name: "Public", SecretHex: "8b3387e9c5cdea6ac9e5edbaa115cd72"},
		{Index: 2, Name: "alerts", SecretHex: "f1e2d3c4b5a6978869504132231405f6"},
	}
}

func TestListChannels(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{channels: testChannels()})

	rec := env.request(t, http.MethodGet, "/api/channels", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/channels = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp channelsResponse
	decodeBody(t, rec, &resp)
	if len(resp.Channels) != 2 {
		t.Fatalf("channels = %d, want 2", len(resp.Channels))
	}
	if resp.Channels[1].Name != "alerts" || resp.Channels[1].Index != 2 {
		t.Errorf("unexpected channel: %+v", resp.Channels[1])
	}
}

func TestListChannelsEmpty(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{channels: []mesh.ChannelInfo{}})

	rec := env.request(t, http.MethodGet, "/api/channels", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/channels = %d, want 200", rec.Code)
	}

	// An empty slot table must serialise as [], not null.
	var raw map[string]any
	decodeBody(t, rec, &raw)
	if _, ok := raw["channels"].([]any); !ok {
		t.Errorf("channels field = %v, want JSON array", raw["channels"])
	}
}

func TestListChannelsDeviceUnreachable(t *testing.T) {
	env := newTestEnv(t, &fakeGateway{channelsErr: mesh.ErrConnectionFailed})

	rec := env.request(t, http.MethodGet, "/api/channels", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("GET /api/channels = %d, want 502", rec.Code)
	}
}

func TestCreateChannel(t *testing.T) {
	gw := &fakeGateway{channels: testChannels()}
	env := newTestEnv(t, gw)

	rec := env.request(t, http.MethodPost, "/api/channels", createChannelRequest{Name: "alerts"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/channels = %d, want 201; body %s", rec.Code, rec.Body.String())
	}

	var resp channelsResponse
	decodeBody(t, rec, &resp)
	if len(resp.Channels) != 2 {
		t.Errorf("channels = %d, want 2", len(resp.Channels))
	}
	if len(gw.createdNames) != 1 || gw.createdNames[0] != "alerts" {
		t.Errorf("created names = %v, want [alerts]", gw.createdNames)
	}
}

func TestCreateChannelErrors(t *testing.T) {
	tests := []struct {
		name string
		body createChannelRequest
		err  error
		want int
	}{
		{"blank name", createChannelRequest{Name: "   "}, nil, http.StatusBadRequest},
		{"conflict", createChannelRequest{Name: "alerts"}, mesh.ErrChannelExists, http.StatusConflict},
		{"no free slot", createChannelRequest{Name: "extra"}, mesh.ErrNoFreeSlot, http.StatusBadRequest},
		{"device unreachable", createChannelRequest{Name: "extra"}, mesh.ErrConnectionFailed, http.StatusBadGateway},
		{"write unacknowledged", createChannelRequest{Name: "extra"}, mesh.ErrDeviceRejected, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{createErr: tt.err}
			env := newTestEnv(t, gw)

			rec := env.request(t, http.MethodPost, "/api/channels", tt.body)
			if rec.Code != tt.want {
				t.Errorf("POST /api/channels = %d, want %d; body %s", rec.Code, tt.want, rec.Body.String())
			}

			var resp errorResponse
			decodeBody(t, rec, &resp)
			if resp.Status != "error" || resp.Message == "" {
				t.Errorf("unexpected error envelope: %+v", resp)
			}
		})
	}
}
