// Package gameserver defines the auth daemon's view of the external game
// server process: two in-process RPC endpoints used for SDL arbitration
// (spec.md §6.5). The game server itself is out of scope; this package
// only carries the interface the daemon calls through and a no-op/logging
// stand-in for environments that run without one.
package gameserver

import (
	"context"

	"github.com/h-uru/moula-authd/internal/log"
	"github.com/h-uru/moula-authd/internal/netresult"
	"github.com/h-uru/moula-authd/internal/vault"
)

// Peer is the RPC surface the auth daemon calls into a live game server
// process for SDL arbitration.
type Peer interface {
	// UpdateVaultSDL performs the authoritative merge of node into the
	// instance mcpId owns, returning AgeNotFound if no live instance owns
	// the node (spec.md §6.5).
	UpdateVaultSDL(ctx context.Context, node *vault.Node, mcpId uint32) (netresult.T, error)
	// UpdateGlobalSDL is a best-effort notification only; its error, if
	// any, is never surfaced to the auth client (spec.md §4.2 step 6).
	UpdateGlobalSDL(ctx context.Context, ageFilename string) error
}

// Unreachable is a Peer that always reports AgeNotFound, the behavior the
// arbitration algorithm needs when no game server is configured: every SDL
// update falls straight through to the ordinary vault write path.
type Unreachable struct{}

func (Unreachable) UpdateVaultSDL(ctx context.Context, node *vault.Node, mcpId uint32) (netresult.T, error) {
	return netresult.AgeNotFound, nil
}

func (Unreachable) UpdateGlobalSDL(ctx context.Context, ageFilename string) error {
	log.D.F("gameserver: no peer configured, dropping UpdateGlobalSDL(%s)", ageFilename)
	return nil
}
