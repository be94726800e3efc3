// Package session implements the client session table: the set of
// currently connected auth clients and their per-session state (spec.md
// §3.6, §4.5, §5).
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Frame is one of the three broadcast frame kinds the daemon sends to
// subscribed sessions (spec.md §4.5).
type Frame struct {
	Kind      FrameKind
	NodeIdx   uint32
	Revision  uuid.UUID
	Parent    uint32
	Child     uint32
	Owner     uint32
}

// FrameKind discriminates a Frame's payload.
type FrameKind int

const (
	FrameVaultNodeChanged FrameKind = iota
	FrameVaultNodeAdded
	FrameVaultNodeRemoved
)

// Player is the bound-player subset of a Session's state.
type Player struct {
	Idx         uint32
	Name        string
	AvatarShape string
	Explorer    uint32
}

// Session is one connected auth client's in-memory slot. The daemon owns
// every field; client connection threads only read Broadcast and only
// before the session is unregistered.
type Session struct {
	ID              uint64
	ServerChallenge uint32
	AcctUuid        uuid.UUID
	AcctFlags       uint32
	AccountIdx      uint32
	Player          *Player
	AgeNodeId       uint32
	Broadcast       chan Frame
}

// Table is the shared session set, guarded by one mutex (spec.md §5): the
// lock is held for the duration of lookup/iteration, including broadcast
// enqueue, so a session can't be removed mid-iteration.
type Table struct {
	mu       sync.Mutex
	sessions map[uint64]*Session
	nextID   uint64
}

// NewTable builds an empty session table.
func NewTable() *Table {
	return &Table{sessions: map[uint64]*Session{}}
}

// Add registers a new session with a broadcast channel of the given
// capacity and returns it.
func (t *Table) Add(serverChallenge uint32, broadcastCap int) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	s := &Session{
		ID:              t.nextID,
		ServerChallenge: serverChallenge,
		Broadcast:       make(chan Frame, broadcastCap),
	}
	t.sessions[s.ID] = s
	return s
}

// Remove unregisters a session and closes its broadcast channel.
func (t *Table) Remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[id]; ok {
		close(s.Broadcast)
		delete(t.sessions, id)
	}
}

// BindPlayer sets the current player for session id.
func (t *Table) BindPlayer(id uint64, p *Player) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[id]; ok {
		s.Player = p
	}
}

// SetAccount records the account a session authenticated as.
func (t *Table) SetAccount(id uint64, accountIdx uint32, acctUuid uuid.UUID, flags uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[id]; ok {
		s.AccountIdx = accountIdx
		s.AcctUuid = acctUuid
		s.AcctFlags = flags
	}
}

// SetAgeNode records the vault node idx of a session's current age.
func (t *Table) SetAgeNode(id uint64, nodeIdx uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[id]; ok {
		s.AgeNodeId = nodeIdx
	}
}

// Get returns the session for id, or nil.
func (t *Table) Get(id uint64) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions[id]
}

// IsPlayerBoundElsewhere reports whether playerIdx is already the bound
// player of some other live session (the SetPlayer collision check,
// spec.md's supplemented feature 2).
func (t *Table) IsPlayerBoundElsewhere(playerIdx, exceptSessionID uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, s := range t.sessions {
		if id == exceptSessionID {
			continue
		}
		if s.Player != nil && uint64(s.Player.Idx) == playerIdx {
			return true
		}
	}
	return false
}

// Count returns the number of live sessions, for the shutdown poll loop.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// CloseAll closes every session's broadcast channel under the lock, the
// first step of the shutdown sequence (spec.md §4.7).
func (t *Table) CloseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, s := range t.sessions {
		close(s.Broadcast)
		delete(t.sessions, id)
	}
}

// ForEach calls fn for every live session while holding the table's lock,
// the primitive the broadcast dispatcher's fan-out rule is built on.
func (t *Table) ForEach(fn func(*Session)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.sessions {
		fn(s)
	}
}
