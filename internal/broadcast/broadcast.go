// Package broadcast implements the targeted fan-out of vault changes to
// sessions subscribed by node interest (spec.md §4.5, component G).
package broadcast

import (
	"context"

	"github.com/google/uuid"

	"github.com/h-uru/moula-authd/internal/log"
	"github.com/h-uru/moula-authd/internal/session"
	"github.com/h-uru/moula-authd/internal/vault"
)

// edgeChecker is the subset of *vault.Store the dispatcher needs: it is an
// interface so tests can fake the has-edge-to relation without a database.
type edgeChecker interface {
	HasEdgeTo(ctx context.Context, ancestor, descendant uint32) (bool, error)
}

// Dispatcher fans vault change frames out to every interested session. The
// has-edge-to check always consults the vault; there is no cached
// per-session subscription set (spec.md §4.5).
type Dispatcher struct {
	vault edgeChecker
	table *session.Table
}

// New builds a Dispatcher over vs and table.
func New(vs edgeChecker, table *session.Table) *Dispatcher {
	return &Dispatcher{vault: vs, table: table}
}

// interested reports whether session s should receive a frame about
// nodeIdx: either its current age node, or its bound player's idx
// (Player.Idx), has an edge to nodeIdx.
func (d *Dispatcher) interested(ctx context.Context, s *session.Session, nodeIdx uint32) bool {
	if s.AgeNodeId != 0 {
		if ok, err := d.vault.HasEdgeTo(ctx, s.AgeNodeId, nodeIdx); err == nil && ok {
			return true
		}
	}
	if s.Player != nil {
		if ok, err := d.vault.HasEdgeTo(ctx, s.Player.Idx, nodeIdx); err == nil && ok {
			return true
		}
	}
	return false
}

// enqueue sends frame to s.Broadcast, recovering from a send on a closed
// channel: per spec.md §5, failure to enqueue is logged and non-fatal.
func (d *Dispatcher) enqueue(s *session.Session, frame session.Frame) {
	defer func() {
		if r := recover(); r != nil {
			log.W.F("broadcast: session %d: enqueue failed: %v", s.ID, r)
		}
	}()
	select {
	case s.Broadcast <- frame:
	default:
		log.W.F("broadcast: session %d: outbound channel full, dropping frame", s.ID)
	}
}

// NodeChanged fans VaultNodeChanged(nodeIdx, revision) out to every session
// with an edge to nodeIdx.
func (d *Dispatcher) NodeChanged(ctx context.Context, nodeIdx uint32, revision uuid.UUID) {
	frame := session.Frame{Kind: session.FrameVaultNodeChanged, NodeIdx: nodeIdx, Revision: revision}
	d.table.ForEach(func(s *session.Session) {
		if d.interested(ctx, s, nodeIdx) {
			d.enqueue(s, frame)
		}
	})
}

// NodeAdded fans VaultNodeAdded(parent, child, owner) out to every session
// interested in parent (a freshly created edge is interesting to anyone
// already watching the parent).
func (d *Dispatcher) NodeAdded(ctx context.Context, ref vault.NodeRef) {
	frame := session.Frame{Kind: session.FrameVaultNodeAdded, Parent: ref.Parent, Child: ref.Child, Owner: ref.Owner}
	d.table.ForEach(func(s *session.Session) {
		if d.interested(ctx, s, ref.Parent) {
			d.enqueue(s, frame)
		}
	})
}

// NodeRemoved fans VaultNodeRemoved(parent, child) out to every session
// interested in parent.
func (d *Dispatcher) NodeRemoved(ctx context.Context, parent, child uint32) {
	frame := session.Frame{Kind: session.FrameVaultNodeRemoved, Parent: parent, Child: child}
	d.table.ForEach(func(s *session.Session) {
		if d.interested(ctx, s, parent) {
			d.enqueue(s, frame)
		}
	})
}
