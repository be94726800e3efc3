package broadcast

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h-uru/moula-authd/internal/session"
	"github.com/h-uru/moula-authd/internal/vault"
)

// fakeEdges is a minimal edgeChecker double: a fixed set of
// (ancestor, descendant) pairs, no database involved.
type fakeEdges map[[2]uint32]bool

func (f fakeEdges) HasEdgeTo(ctx context.Context, ancestor, descendant uint32) (bool, error) {
	return f[[2]uint32{ancestor, descendant}], nil
}

func TestNodeChangedOnlyReachesSessionsWithAnEdge(t *testing.T) {
	edges := fakeEdges{{100, 200}: true}
	tbl := session.NewTable()
	d := New(edges, tbl)

	interested := tbl.Add(1, 4)
	tbl.SetAgeNode(interested.ID, 100)
	bystander := tbl.Add(2, 4)
	tbl.SetAgeNode(bystander.ID, 999)

	d.NodeChanged(context.Background(), 200, uuid.New())

	select {
	case f := <-interested.Broadcast:
		assert.Equal(t, session.FrameVaultNodeChanged, f.Kind)
		assert.Equal(t, uint32(200), f.NodeIdx)
	default:
		t.Fatal("expected interested session to receive a frame")
	}

	select {
	case <-bystander.Broadcast:
		t.Fatal("bystander should not have received a frame")
	default:
	}
}

func TestInterestedChecksBothAgeNodeAndBoundPlayer(t *testing.T) {
	edges := fakeEdges{{55, 77}: true}
	tbl := session.NewTable()
	d := New(edges, tbl)

	s := tbl.Add(1, 4)
	tbl.BindPlayer(s.ID, &session.Player{Idx: 55})

	assert.True(t, d.interested(context.Background(), tbl.Get(s.ID), 77))
	assert.False(t, d.interested(context.Background(), tbl.Get(s.ID), 1234))
}

func TestNodeAddedTargetsSessionsInterestedInParent(t *testing.T) {
	edges := fakeEdges{{10, 20}: true}
	tbl := session.NewTable()
	d := New(edges, tbl)

	s := tbl.Add(1, 4)
	tbl.SetAgeNode(s.ID, 10)

	d.NodeAdded(context.Background(), vault.NodeRef{Parent: 20, Child: 30, Owner: 1})

	require.Len(t, s.Broadcast, 1)
	f := <-s.Broadcast
	assert.Equal(t, session.FrameVaultNodeAdded, f.Kind)
	assert.Equal(t, uint32(20), f.Parent)
	assert.Equal(t, uint32(30), f.Child)
}

func TestNodeRemovedDoesNotPanicOnFullOrClosedChannel(t *testing.T) {
	edges := fakeEdges{{1, 2}: true}
	tbl := session.NewTable()
	d := New(edges, tbl)

	s := tbl.Add(1, 1)
	tbl.SetAgeNode(s.ID, 1)
	s.Broadcast <- session.Frame{}

	assert.NotPanics(t, func() {
		d.NodeRemoved(context.Background(), 2, 3)
	})

	close(s.Broadcast)
	assert.NotPanics(t, func() {
		d.NodeRemoved(context.Background(), 2, 3)
	})
}
