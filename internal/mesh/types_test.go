package mesh

import (
	"bytes"
	"testing"
)

func TestChannelSlotIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		slot ChannelSlot
		want bool
	}{
		{
			name: "blank name and zero secret",
			slot: ChannelSlot{Secret: make([]byte, 16)},
			want: true,
		},
		{
			name: "blank name and no secret",
			slot: ChannelSlot{},
			want: true,
		},
		{
			name: "named slot with zero secret",
			slot: ChannelSlot{Name: "ops", Secret: make([]byte, 16)},
			want: false,
		},
		{
			name: "blank name with nonzero secret",
			slot: ChannelSlot{Secret: bytes.Repeat([]byte{0x01}, 16)},
			want: false,
		},
		{
			name: "populated slot",
			slot: ChannelSlot{Name: "ops", Secret: bytes.Repeat([]byte{0xff}, 16)},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.slot.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChannelSlotSecretHex(t *testing.T) {
	slot := ChannelSlot{Secret: []byte{0xde, 0xad, 0xbe, 0xef}}
	if got := slot.SecretHex(); got != "deadbeef" {
		t.Errorf("SecretHex() = %q, want %q", got, "deadbeef")
	}
	if got := (ChannelSlot{}).SecretHex(); got != "" {
		t.Errorf("SecretHex() on nil secret = %q, want empty", got)
	}
}

func TestNormalizeChannelName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"general", "general"},
		{"#general", "general"},
		{"##General", "general"},
		{"OPS", "ops"},
		{"#Mixed-Case", "mixed-case"},
		{"", ""},
		{"#", ""},
	}
	for _, tt := range tests {
		if got := normalizeChannelName(tt.in); got != tt.want {
			t.Errorf("normalizeChannelName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
