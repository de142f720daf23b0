package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// idleTimeout is how long an unused session lock is kept around.
const idleTimeout = 24 * time.Hour

// Hub hands out one writer lock per session so that hands of the same
// session are never mutated concurrently.
type Hub struct {
	Mu       sync.Mutex
	Sessions map[uuid.UUID]*Lock
}

// Lock serialises writers of a single session.
type Lock struct {
	Mu       sync.Mutex
	LastSeen time.Time
	refs     int
}

// NewHub creates a new lock hub with cleanup goroutine
func NewHub() *Hub {
	h := &Hub{Sessions: make(map[uuid.UUID]*Lock)}
	// cleanup goroutine
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			h.Cleanup(time.Now())
		}
	}()
	return h
}

// Acquire blocks until the caller is the only writer of the session. The
// returned function releases the lock.
func (h *Hub) Acquire(id uuid.UUID) func() {
	h.Mu.Lock()
	l, ok := h.Sessions[id]
	if !ok {
		l = &Lock{}
		h.Sessions[id] = l
	}
	l.refs++
	h.Mu.Unlock()

	l.Mu.Lock()
	return func() {
		l.Mu.Unlock()
		h.Mu.Lock()
		l.refs--
		l.LastSeen = time.Now()
		h.Mu.Unlock()
	}
}

// Cleanup forgets locks that nobody holds or waits for and that have been
// idle for a day.
func (h *Hub) Cleanup(now time.Time) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	for id, l := range h.Sessions {
		if l.refs == 0 && now.Sub(l.LastSeen) > idleTimeout {
			delete(h.Sessions, id)
		}
	}
}
