package gatt

import (
	"sort"
	"sync"
	"time"
)

// cursor tracks the outbound frames of one characteristic and the next one
// to hand out.
type cursor struct {
	frames    [][]byte
	next      int
	touchedAt time.Time
}

// CursorInfo is a read-only view of an outbound cursor.
type CursorInfo struct {
	Peer      string
	Next      int
	Total     int
	TouchedAt time.Time
}

type cursorTable struct {
	mu    sync.Mutex
	items map[string]*cursor
}

func newCursorTable() *cursorTable {
	return &cursorTable{
		items: make(map[string]*cursor),
	}
}

// advance returns the next block for peer, building a fresh frame sequence
// when none is pending. The cursor is dropped once its last block is out.
func (t *cursorTable) advance(peer string, now time.Time, build func() ([][]byte, error)) ([]byte, int, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.items[peer]
	if !ok || c.next >= len(c.frames) {
		frames, err := build()
		if err != nil {
			return nil, 0, 0, err
		}
		c = &cursor{frames: frames}
		t.items[peer] = c
	}
	block := c.frames[c.next]
	c.next++
	c.touchedAt = now
	index, total := c.next, len(c.frames)
	if c.next >= len(c.frames) {
		delete(t.items, peer)
	}
	return block, index, total, nil
}

func (t *cursorTable) drop(peer string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.items[peer]
	delete(t.items, peer)
	return ok
}

// sweep drops cursors last advanced before cutoff and returns their peers.
func (t *cursorTable) sweep(cutoff time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var evicted []string
	for peer, c := range t.items {
		if c.touchedAt.Before(cutoff) {
			delete(t.items, peer)
			evicted = append(evicted, peer)
		}
	}
	sort.Strings(evicted)
	return evicted
}

func (t *cursorTable) list() []CursorInfo {
	t.mu.Lock()
	out := make([]CursorInfo, 0, len(t.items))
	for peer, c := range t.items {
		out = append(out, CursorInfo{Peer: peer, Next: c.next, Total: len(c.frames), TouchedAt: c.touchedAt})
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Peer < out[j].Peer
	})
	return out
}
