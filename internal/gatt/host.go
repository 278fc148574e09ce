// Package gatt adapts the frame codec and reassembly store to a
// characteristic-oriented transport: reads pull the next outbound frame of
// a characteristic, writes push one inbound frame.
package gatt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/blefrag/internal/observability"
	"github.com/danmuck/blefrag/internal/protocol/frame"
	"github.com/danmuck/blefrag/internal/protocol/reassembly"
	"github.com/rs/zerolog"
)

var ErrUnknownCharacteristic = errors.New("gatt: unknown characteristic")

// Source produces the outbound payload for a characteristic.
type Source interface {
	Payload(charID string) ([]byte, error)
}

// DeliverFunc receives every fully reassembled inbound payload.
type DeliverFunc func(charID string, payload []byte)

type HostOption func(*Host)

func WithDeliver(fn DeliverFunc) HostOption {
	return func(h *Host) {
		h.deliver = fn
	}
}

func WithLogger(logger zerolog.Logger) HostOption {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithClock overrides time.Now for both the store and the outbound cursors.
func WithClock(now func() time.Time) HostOption {
	return func(h *Host) {
		h.now = now
	}
}

// Host owns the single reassembly store and outbound cursor table shared by
// the read and write callback paths.
type Host struct {
	cfg     HostConfig
	source  Source
	store   *reassembly.Store
	cursors *cursorTable
	deliver DeliverFunc
	logger  zerolog.Logger
	now     func() time.Time
	allowed map[string]struct{}
}

func NewHost(cfg HostConfig, source Source, opts ...HostOption) *Host {
	h := &Host{
		cfg:     cfg.WithDefaults(),
		source:  source,
		cursors: newCursorTable(),
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.store = reassembly.NewStore(reassembly.WithClock(h.now))
	if len(h.cfg.Characteristics) > 0 {
		h.allowed = make(map[string]struct{}, len(h.cfg.Characteristics))
		for _, id := range h.cfg.Characteristics {
			h.allowed[normalizeID(id)] = struct{}{}
		}
	}
	h.logger = h.logger.With().Str("host", h.cfg.Name).Logger()
	return h
}

func (h *Host) Config() HostConfig {
	return h.cfg
}

func (h *Host) Store() *reassembly.Store {
	return h.store
}

// Cursors lists pending outbound cursors.
func (h *Host) Cursors() []CursorInfo {
	return h.cursors.list()
}

// OnRead returns the next 20-byte frame for charID, starting a new frame
// sequence from the Source when the previous one has been fully sent.
func (h *Host) OnRead(charID string) ([]byte, error) {
	id, err := h.resolve(charID)
	if err != nil {
		return nil, err
	}
	block, index, total, err := h.cursors.advance(id, h.now(), func() ([][]byte, error) {
		payload, err := h.source.Payload(id)
		if err != nil {
			return nil, fmt.Errorf("gatt: payload for %s: %w", id, err)
		}
		return frame.EncodeBytes(payload)
	})
	if err != nil {
		h.logger.Error().Err(err).Str("char", id).Msg("read failed")
		return nil, err
	}
	observability.RecordFrameSent(h.cfg.Name)
	h.logger.Debug().
		Str("char", id).
		Int("index", index).
		Int("total", total).
		Hex("frame", block).
		Msg("read frame")
	return block, nil
}

// OnWrite ingests one inbound block. It returns the payload and true when
// the block completed its stream; the stream's entry is reset under the
// same lock that assembled it. Malformed blocks are dropped without touching the store.
func (h *Host) OnWrite(charID string, block []byte) ([]byte, bool, error) {
	id, err := h.resolve(charID)
	if err != nil {
		return nil, false, err
	}
	f, err := frame.Validate(block)
	if err != nil {
		observability.RecordFrameDropped(h.cfg.Name, observability.DropMalformed)
		h.logger.Warn().Err(err).Str("char", id).Int("len", len(block)).Msg("dropped frame")
		return nil, false, err
	}
	observability.RecordFrameReceived(h.cfg.Name)

	key, payload, done, err := h.store.Take(id, f)
	if err != nil {
		observability.RecordFrameDropped(h.cfg.Name, observability.DropAssemble)
		h.logger.Warn().Err(err).Str("stream", key.String()).Msg("assemble failed")
		return nil, false, err
	}
	h.logger.Debug().
		Str("stream", key.String()).
		Uint8("index", f.Index).
		Uint8("total", f.TotalFrames).
		Msg("write frame")
	if !done {
		observability.SetStreamsResident(h.cfg.Name, h.store.Len())
		return nil, false, nil
	}

	observability.RecordStreamAssembled(h.cfg.Name, len(payload))
	observability.SetStreamsResident(h.cfg.Name, h.store.Len())
	h.logger.Info().Str("stream", key.String()).Int("bytes", len(payload)).Msg("stream assembled")
	if h.deliver != nil {
		h.deliver(id, payload)
	}
	return payload, true, nil
}

// Abandon drops the outbound cursor and every inbound stream of charID.
func (h *Host) Abandon(charID string) int {
	id := normalizeID(charID)
	n := h.store.ResetPeer(id)
	if h.cursors.drop(id) {
		n++
	}
	observability.SetStreamsResident(h.cfg.Name, h.store.Len())
	h.logger.Info().Str("char", id).Int("dropped", n).Msg("abandoned")
	return n
}

// Sweep evicts inbound streams and outbound cursors idle for longer than
// the configured timeout.
func (h *Host) Sweep() int {
	evicted := h.store.SweepIdle(h.cfg.StreamIdleTimeout)
	cursors := h.cursors.sweep(h.now().Add(-h.cfg.StreamIdleTimeout))
	for _, key := range evicted {
		h.logger.Info().Str("stream", key.String()).Msg("evicted idle stream")
	}
	for _, peer := range cursors {
		h.logger.Info().Str("char", peer).Msg("evicted idle cursor")
	}
	if len(evicted) > 0 {
		observability.RecordStreamsEvicted(h.cfg.Name, len(evicted))
	}
	if len(cursors) > 0 {
		observability.RecordCursorsEvicted(h.cfg.Name, len(cursors))
	}
	observability.SetStreamsResident(h.cfg.Name, h.store.Len())
	return len(evicted) + len(cursors)
}

// RunJanitor sweeps on every SweepInterval tick until ctx is done.
func (h *Host) RunJanitor(ctx context.Context) error {
	if h.cfg.SweepInterval <= 0 {
		return ErrInvalidSweepInterval
	}
	ticker := time.NewTicker(h.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := h.Sweep(); n > 0 {
				h.logger.Debug().Int("evicted", n).Msg("janitor sweep")
			}
		}
	}
}

func (h *Host) resolve(charID string) (string, error) {
	id := normalizeID(charID)
	if id == "" {
		return "", fmt.Errorf("%w: empty id", ErrUnknownCharacteristic)
	}
	if h.allowed != nil {
		if _, ok := h.allowed[id]; !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownCharacteristic, id)
		}
	}
	return id, nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
