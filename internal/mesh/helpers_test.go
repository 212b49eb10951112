package mesh

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/dwhitmore/meshgate-core/internal/infrastructure/config"
	"github.com/dwhitmore/meshgate-core/internal/infrastructure/logging"
)

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
}

func testConfig() Config {
	return Config{
		ProbeTimeout:      time.Second,
		CommandTimeout:    time.Second,
		SendAckTimeout:    100 * time.Millisecond,
		DisconnectTimeout: time.Second,
	}
}

type probeResult struct {
	ev  *Event
	err error
}

// fakeSession scripts per-slot probe results and records every call.
type fakeSession struct {
	mu sync.Mutex

	slots      map[int]probeResult
	setResult  probeResult
	sendResult probeResult
	sendBlocks bool
	infoResult probeResult
	contResult probeResult
	statResult probeResult
	statBlocks bool

	probes      []int
	setSlots    []int
	setNames    []string
	sendSlots   []int
	sendTexts   []string
	disconnects int
}

func okSlot(index int, name string) *Event {
	return &Event{Kind: EventOk, Slot: ChannelSlot{
		Index:  index,
		Name:   name,
		Secret: bytes.Repeat([]byte{0xab}, 16),
	}}
}

func emptySlot(index int) *Event {
	return &Event{Kind: EventOk, Slot: ChannelSlot{
		Index:  index,
		Secret: make([]byte, 16),
	}}
}

func errEvent(detail string) *Event {
	return &Event{Kind: EventError, Detail: detail}
}

func (f *fakeSession) GetSlot(ctx context.Context, index int) (*Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes = append(f.probes, index)
	if r, ok := f.slots[index]; ok {
		return r.ev, r.err
	}
	// Unscripted slots read as end of table.
	return errEvent("no such channel"), nil
}

func (f *fakeSession) SetChannel(ctx context.Context, index int, name string) (*Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setSlots = append(f.setSlots, index)
	f.setNames = append(f.setNames, name)
	if f.setResult.ev == nil && f.setResult.err == nil {
		// Default: acknowledge and make the slot readable on re-scan.
		if f.slots == nil {
			f.slots = make(map[int]probeResult)
		}
		f.slots[index] = probeResult{ev: okSlot(index, name)}
		return &Event{Kind: EventOk}, nil
	}
	return f.setResult.ev, f.setResult.err
}

func (f *fakeSession) SendToSlot(ctx context.Context, index int, text string) (*Event, error) {
	f.mu.Lock()
	blocks := f.sendBlocks
	f.sendSlots = append(f.sendSlots, index)
	f.sendTexts = append(f.sendTexts, text)
	result := f.sendResult
	f.mu.Unlock()
	if blocks {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return result.ev, result.err
}

func (f *fakeSession) AppStart(ctx context.Context) (*Event, error) {
	return f.infoResult.ev, f.infoResult.err
}

func (f *fakeSession) Contacts(ctx context.Context) (*Event, error) {
	return f.contResult.ev, f.contResult.err
}

func (f *fakeSession) StatusOf(ctx context.Context, publicKeyPrefix []byte) (*Event, error) {
	if f.statBlocks {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.statResult.ev, f.statResult.err
}

func (f *fakeSession) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

type fakeProvider struct {
	mu      sync.Mutex
	session *fakeSession
	openErr error
	opens   int
}

func (p *fakeProvider) Open(ctx context.Context) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opens++
	if p.openErr != nil {
		return nil, p.openErr
	}
	return p.session, nil
}

func newTestGateway(s *fakeSession) (*Gateway, *fakeProvider) {
	p := &fakeProvider{session: s}
	return New(p, testConfig(), testLogger()), p
}
