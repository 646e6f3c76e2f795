// Package session owns the running engines of all users and turns wake,
// activity, pomodoro and sleep events into engine calls and stored records.
package session

import (
	"sync"
	"time"

	"github.com/sadopc/timesetor/internal/timeengine"
)

// Slot is one user's running day. It is only valid inside Registry.Do.
type Slot struct {
	Engine   *timeengine.Engine
	RecordID int64

	// Start of the interval the next time log will close.
	intervalReal    time.Time
	intervalVirtual time.Time
}

func (s *Slot) set(e *timeengine.Engine, recordID int64, real, virtual time.Time) {
	s.Engine = e
	s.RecordID = recordID
	s.intervalReal = real
	s.intervalVirtual = virtual
}

func (s *Slot) clear() { *s = Slot{} }

// Registry serialises all work for a user. Different users never block
// each other. A user's entry lives only while a call is in flight or an
// engine is running.
type Registry struct {
	mu    sync.Mutex
	slots map[int64]*entry
}

type entry struct {
	mu   sync.Mutex
	slot Slot
	refs int // guarded by Registry.mu
}

func NewRegistry() *Registry {
	return &Registry{slots: make(map[int64]*entry)}
}

// Do runs fn with the user's slot locked.
func (r *Registry) Do(userID int64, fn func(*Slot) error) error {
	r.mu.Lock()
	e, ok := r.slots[userID]
	if !ok {
		e = &entry{}
		r.slots[userID] = e
	}
	e.refs++
	r.mu.Unlock()

	defer r.release(userID, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.slot)
}

// release forgets the entry once no call holds it and no engine runs in it.
// With refs at zero no goroutine can reach the slot, so it is read without
// the entry lock.
func (r *Registry) release(userID int64, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	if e.refs == 0 && e.slot.Engine == nil {
		delete(r.slots, userID)
	}
}

// Len returns the number of users with a running engine.
func (r *Registry) Len() int {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.slots))
	for _, e := range r.slots {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	n := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.slot.Engine != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}
