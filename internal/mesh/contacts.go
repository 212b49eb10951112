package mesh

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// statusKeyPrefixLen is how many public key bytes a status request
// carries to address the remote node.
const statusKeyPrefixLen = 6

// findContact syncs the contact list and picks the entry matching name
// (exact) or, failing that, the hex public key prefix. Name matching is
// case-sensitive; key matching is case-insensitive hex.
func (g *Gateway) findContact(ctx context.Context, s Session, name, publicKey string) (*Contact, error) {
	cctx, cancel := context.WithTimeout(ctx, g.cfg.CommandTimeout)
	defer cancel()
	ev, err := s.Contacts(cctx)
	if err != nil {
		return nil, fmt.Errorf("%w: contact sync: %v", ErrConnectionFailed, err)
	}
	if ev == nil || ev.Kind == EventError {
		return nil, fmt.Errorf("%w: contact sync not acknowledged", ErrDeviceRejected)
	}

	if name != "" {
		for i := range ev.Contacts {
			if ev.Contacts[i].Name == name {
				return &ev.Contacts[i], nil
			}
		}
	}
	if key := strings.ToLower(strings.TrimSpace(publicKey)); key != "" {
		for i := range ev.Contacts {
			if strings.HasPrefix(ev.Contacts[i].PublicKeyHex(), key) {
				return &ev.Contacts[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: name=%q public_key=%q", ErrContactNotFound, name, publicKey)
}

// queryRepeater resolves the contact and issues a status request to it.
// A silent remote is a timeout: the request crossed the mesh but nothing
// came back inside the acknowledgement window.
func (g *Gateway) queryRepeater(ctx context.Context, s Session, name, publicKey string) (*RepeaterTelemetry, error) {
	contact, err := g.findContact(ctx, s, name, publicKey)
	if err != nil {
		return nil, err
	}

	prefix := contact.PublicKey
	if len(prefix) > statusKeyPrefixLen {
		prefix = prefix[:statusKeyPrefixLen]
	}

	sctx, cancel := context.WithTimeout(ctx, g.cfg.SendAckTimeout)
	defer cancel()
	ev, err := s.StatusOf(sctx, prefix)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && sctx.Err() != nil {
			return nil, fmt.Errorf("%w: no status from %s within %s", ErrDeviceTimeout, contact.Name, g.cfg.SendAckTimeout)
		}
		return nil, fmt.Errorf("%w: status request: %v", ErrDeviceRejected, err)
	}
	if ev == nil || ev.Kind == EventError || ev.Status == nil {
		return nil, fmt.Errorf("%w: %s sent no status", ErrDeviceTimeout, contact.Name)
	}

	return &RepeaterTelemetry{
		ContactName: contact.Name,
		PublicKey:   hex.EncodeToString(contact.PublicKey),
		Status:      *ev.Status,
	}, nil
}
