package reassembly

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/danmuck/blefrag/internal/protocol/frame"
)

var ErrIncompleteStream = errors.New("reassembly: incomplete stream")

// StreamKey identifies one in-flight transfer. Total frames and payload
// length are part of the key so a new transfer from the same peer never
// lands in an older, still-resident entry.
type StreamKey struct {
	Peer          string
	TotalFrames   uint8
	PayloadLength uint16
}

// KeyFor derives the stream key for a frame received from peer.
func KeyFor(peer string, h frame.Header) StreamKey {
	return StreamKey{Peer: peer, TotalFrames: h.TotalFrames, PayloadLength: h.PayloadLength}
}

func (k StreamKey) String() string {
	return fmt.Sprintf("%s/%d/%d", k.Peer, k.TotalFrames, k.PayloadLength)
}

type entry struct {
	chunks        map[uint8][]byte
	totalFrames   uint8
	payloadLength uint16
	createdAt     time.Time
	touchedAt     time.Time
}

// EntryInfo is a read-only view of one resident entry.
type EntryInfo struct {
	Key           StreamKey
	Received      int
	TotalFrames   uint8
	PayloadLength uint16
	CreatedAt     time.Time
	TouchedAt     time.Time
}

// Store accumulates frames per stream. One mutex guards the whole map.
type Store struct {
	mu      sync.Mutex
	entries map[StreamKey]*entry
	now     func() time.Time
}

type Option func(*Store)

// WithClock overrides time.Now for last-touched bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[StreamKey]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset discards the entry for key, if any.
func (s *Store) Reset(key StreamKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// ResetPeer discards every entry belonging to peer and returns how many
// were dropped.
func (s *Store) ResetPeer(peer string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.entries {
		if key.Peer == peer {
			delete(s.entries, key)
			n++
		}
	}
	return n
}

// SavePacket stores chunk at index, last write wins. The asserted total and
// length are recorded as-is; bounds are the validator's job.
func (s *Store) SavePacket(key StreamKey, totalFrames, index uint8, payloadLength uint16, chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(key, totalFrames, index, payloadLength, chunk)
}

func (s *Store) saveLocked(key StreamKey, totalFrames, index uint8, payloadLength uint16, chunk []byte) {
	now := s.now()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{
			chunks:    make(map[uint8][]byte),
			createdAt: now,
		}
		s.entries[key] = e
	}
	e.chunks[index] = append([]byte(nil), chunk...)
	e.totalFrames = totalFrames
	e.payloadLength = payloadLength
	e.touchedAt = now
}

// IsComplete reports whether the entry holds totalFrames distinct indices.
func (s *Store) IsComplete(key StreamKey, totalFrames uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeLocked(key, totalFrames)
}

func (s *Store) completeLocked(key StreamKey, totalFrames uint8) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	return len(e.chunks) == int(totalFrames)
}

// Assemble concatenates indices 1..totalFrames and truncates to
// payloadLength. The entry is left in place; callers Reset after a
// successful assemble.
func (s *Store) Assemble(key StreamKey, totalFrames uint8, payloadLength uint16) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assembleLocked(key, totalFrames, payloadLength)
}

func (s *Store) assembleLocked(key StreamKey, totalFrames uint8, payloadLength uint16) ([]byte, error) {
	e, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s not resident", ErrIncompleteStream, key)
	}
	out := make([]byte, 0, int(totalFrames)*frame.ChunkLen)
	for i := 1; i <= int(totalFrames); i++ {
		chunk, ok := e.chunks[uint8(i)]
		if !ok {
			return nil, fmt.Errorf("%w: %s missing index %d", ErrIncompleteStream, key, i)
		}
		out = append(out, chunk...)
	}
	if len(out) < int(payloadLength) {
		return nil, fmt.Errorf("%w: %s has %d of %d bytes", ErrIncompleteStream, key, len(out), payloadLength)
	}
	return out[:payloadLength], nil
}

// Take saves f under peer's stream key and, when that completes the
// stream, assembles and resets the entry in the same critical section. A
// frame of a later transfer with the same key therefore always lands in a
// fresh entry, and a duplicated final frame completes the stream only once.
func (s *Store) Take(peer string, f frame.Frame) (StreamKey, []byte, bool, error) {
	key := KeyFor(peer, f.Header)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(key, f.TotalFrames, f.Index, f.PayloadLength, f.Chunk)
	if !s.completeLocked(key, f.TotalFrames) {
		return key, nil, false, nil
	}
	payload, err := s.assembleLocked(key, f.TotalFrames, f.PayloadLength)
	if err != nil {
		return key, nil, false, err
	}
	delete(s.entries, key)
	return key, payload, true, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Snapshot lists resident entries ordered by key.
func (s *Store) Snapshot() []EntryInfo {
	s.mu.Lock()
	out := make([]EntryInfo, 0, len(s.entries))
	for key, e := range s.entries {
		out = append(out, EntryInfo{
			Key:           key,
			Received:      len(e.chunks),
			TotalFrames:   e.totalFrames,
			PayloadLength: e.payloadLength,
			CreatedAt:     e.createdAt,
			TouchedAt:     e.touchedAt,
		})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// SweepIdle resets entries not touched within maxIdle and returns their keys.
func (s *Store) SweepIdle(maxIdle time.Duration) []StreamKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxIdle)
	var evicted []StreamKey
	for key, e := range s.entries {
		if e.touchedAt.Before(cutoff) {
			delete(s.entries, key)
			evicted = append(evicted, key)
		}
	}
	return evicted
}
