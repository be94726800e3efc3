// Command authd runs the Myst Online auth daemon: the single process that
// owns the PostgreSQL connection and serializes every vault, account, age,
// and score mutation through one dispatch loop (spec.md §4.7).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/h-uru/moula-authd/internal/account"
	"github.com/h-uru/moula-authd/internal/age"
	"github.com/h-uru/moula-authd/internal/broadcast"
	"github.com/h-uru/moula-authd/internal/chk"
	"github.com/h-uru/moula-authd/internal/config"
	"github.com/h-uru/moula-authd/internal/daemon"
	"github.com/h-uru/moula-authd/internal/gameserver"
	"github.com/h-uru/moula-authd/internal/log"
	"github.com/h-uru/moula-authd/internal/pg"
	"github.com/h-uru/moula-authd/internal/score"
	"github.com/h-uru/moula-authd/internal/sdl"
	"github.com/h-uru/moula-authd/internal/session"
	"github.com/h-uru/moula-authd/internal/vault"
)

const version = "0.1.0"

func main() {
	cfg := config.New(version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := pg.Open(cfg.DSN())
	defer pool.Close()

	catalog, err := sdl.LoadDir(cfg.SdlDescriptorDir)
	if chk.E(err) {
		log.F.F("authd: failed to load SDL descriptors from %s: %v", cfg.SdlDescriptorDir, err)
		os.Exit(1)
	}

	vs := vault.New(pool)
	accounts := account.New(pool)
	ages := age.New(pool)
	scores := score.New(pool, vs)
	sdlStore := sdl.New(pool)
	sessions := session.NewTable()
	bcast := broadcast.New(vs, sessions)
	peer := gameserver.Unreachable{}

	d := daemon.New(cfg, pool, vs, accounts, ages, scores, sessions, bcast, peer, catalog, sdlStore)
	d.SetRestrictLogins(cfg.RestrictLogins)

	states, err := sdlStore.LoadAll(ctx, catalog)
	if chk.E(err) {
		log.F.F("authd: failed to load global SDL states: %v", err)
		os.Exit(1)
	}
	d.LoadGlobalStates(ctx, states)

	log.I.F("authd: starting, listening for dispatch requests")
	go d.Run(ctx)

	<-ctx.Done()
	log.I.F("authd: shutting down")
	d.Shutdown(context.Background())
}
