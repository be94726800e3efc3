// Package daemon implements the auth daemon's message dispatch loop: a
// single consumer of an inbound request channel that performs DB
// operations, possibly a synchronous RPC to the game server, mutates
// in-memory registries, emits broadcasts, and replies to the originating
// client (spec.md §4.7, component H).
package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/h-uru/moula-authd/internal/account"
	"github.com/h-uru/moula-authd/internal/age"
	"github.com/h-uru/moula-authd/internal/broadcast"
	"github.com/h-uru/moula-authd/internal/config"
	"github.com/h-uru/moula-authd/internal/gameserver"
	"github.com/h-uru/moula-authd/internal/log"
	"github.com/h-uru/moula-authd/internal/netresult"
	"github.com/h-uru/moula-authd/internal/pg"
	"github.com/h-uru/moula-authd/internal/score"
	"github.com/h-uru/moula-authd/internal/sdl"
	"github.com/h-uru/moula-authd/internal/session"
	"github.com/h-uru/moula-authd/internal/vault"
)

// Daemon bundles every piece of global mutable state the original design
// scattered across file-level statics: the DB pool, the session set (the
// only piece that needs a lock, since connection threads touch it too),
// the in-memory SDL cache, and the restrict-logins flag (spec.md §9).
type Daemon struct {
	cfg *config.C

	pool     *pg.Pool
	vault    *vault.Store
	accounts *account.Store
	ages     *age.Registry
	scores   scoreStore

	sessions *session.Table
	bcast    *broadcast.Dispatcher
	peer     gameserver.Peer
	catalog  *sdl.Catalog
	sdlStore *sdl.Store

	inbound chan *Request

	// globalStates is mutated and read only by the daemon worker goroutine;
	// no lock is required (spec.md §5).
	globalStates map[string]*sdl.State
	// restrictLogins is likewise worker-exclusive.
	restrictLogins bool

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// scoreStore is the subset of *score.Store the daemon calls through; kept
// as an interface boundary so handlers.go doesn't need to know about the
// concrete vault dependency score.Store carries.
type scoreStore interface {
	Create(ctx context.Context, owner uint32, t score.Type, name string, points int32) (int64, netresult.T, error)
	AddPoints(ctx context.Context, scoreId int64, delta int32) (netresult.T, error)
	TransferPoints(ctx context.Context, src, dst int64, points int32) (netresult.T, error)
	SetPoints(ctx context.Context, scoreId int64, points int32) (netresult.T, error)
	GetHighScores(ctx context.Context, owner uint32, name string, max int) ([]score.HighScore, error)
}

// New assembles a Daemon from its already-constructed dependencies. The
// inbound channel has a fixed 256-request buffer; callers enqueue with
// Enqueue and block once it's full (spec.md §5's stated backpressure gap).
func New(cfg *config.C, pool *pg.Pool, vs *vault.Store, accounts *account.Store, ages *age.Registry,
	scores scoreStore, sessions *session.Table, bcast *broadcast.Dispatcher, peer gameserver.Peer,
	catalog *sdl.Catalog, sdlStore *sdl.Store) *Daemon {
	return &Daemon{
		cfg:          cfg,
		pool:         pool,
		vault:        vs,
		accounts:     accounts,
		ages:         ages,
		scores:       scores,
		sessions:     sessions,
		bcast:        bcast,
		peer:         peer,
		catalog:      catalog,
		sdlStore:     sdlStore,
		inbound:      make(chan *Request, 256),
		globalStates: map[string]*sdl.State{},
		shutdown:     make(chan struct{}),
	}
}

// persistGlobalState writes the encoded global state blob through to the
// database, updateGlobal's persistence half (spec.md §4.2). It does not
// touch the in-memory cache; the caller has already mutated that State in
// place.
func (d *Daemon) persistGlobalState(ctx context.Context, ageFilename string, blob []byte) error {
	return d.sdlStore.Save(ctx, ageFilename, blob)
}

// Enqueue places req on the daemon's inbound channel. Requests are
// processed strictly in arrival order (spec.md §5).
func (d *Daemon) Enqueue(req *Request) {
	d.inbound <- req
}

// SetRestrictLogins sets the startup value of the restrict-logins gate
// (spec.md §9); later toggles go through TagRestrictLogins so they stay on
// the worker goroutine.
func (d *Daemon) SetRestrictLogins(restrict bool) { d.restrictLogins = restrict }

// LoadGlobalStates seeds the in-memory SDL cache from vault.GlobalStates at
// startup (spec.md §3.7, §4.2).
func (d *Daemon) LoadGlobalStates(ctx context.Context, states map[string]*sdl.State) {
	d.globalStates = states
}

// Run is the single consumer loop: it dequeues one request at a time and
// dispatches it, recovering from any panic inside a handler and turning it
// into an InternalError reply so the client never hangs (spec.md §4.7).
func (d *Daemon) Run(ctx context.Context) {
	for {
		select {
		case req, ok := <-d.inbound:
			if !ok {
				return
			}
			d.dispatchSafely(ctx, req)
			if req.Tag == TagShutdown {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (d *Daemon) dispatchSafely(ctx context.Context, req *Request) {
	defer func() {
		if r := recover(); r != nil {
			log.E.F("daemon: handler for tag %d panicked: %v", req.Tag, r)
			if req.Reply != nil {
				req.Reply <- Reply{Result: netresult.InternalError}
			}
		}
	}()
	d.dispatch(ctx, req)
}

func (d *Daemon) dispatch(ctx context.Context, req *Request) {
	switch req.Tag {
	case TagLogin:
		d.handleLogin(ctx, req)
	case TagSetPlayer:
		d.handleSetPlayer(ctx, req)
	case TagCreatePlayer:
		d.handleCreatePlayer(ctx, req)
	case TagDeletePlayer:
		d.handleDeletePlayer(ctx, req)
	case TagAddAcct:
		d.handleAddAcct(ctx, req)
	case TagDisconnect:
		d.handleDisconnect(ctx, req)
	case TagCreateAge:
		d.handleCreateAge(ctx, req)
	case TagFindGameServer:
		d.handleFindGameServer(ctx, req)
	case TagGetPublicAges:
		d.handleGetPublicAges(ctx, req)
	case TagSetPublic:
		d.handleSetPublic(ctx, req)
	case TagScoreCreate:
		d.handleScoreCreate(ctx, req)
	case TagScoreAddPoints:
		d.handleScoreAddPoints(ctx, req)
	case TagScoreTransferPoints:
		d.handleScoreTransferPoints(ctx, req)
	case TagScoreSetPoints:
		d.handleScoreSetPoints(ctx, req)
	case TagScoreGetHighScores:
		d.handleScoreGetHighScores(ctx, req)
	case TagUpdateAgeSrv:
		d.handleUpdateAgeSrv(ctx, req)
	case TagAcctFlags:
		d.handleAcctFlags(ctx, req)
	case TagRestrictLogins:
		d.handleRestrictLogins(ctx, req)
	case TagAddAllPlayers:
		d.handleAddAllPlayers(ctx, req)
	case TagFetchSDL:
		d.handleFetchSDL(ctx, req)
	case TagUpdateGlobalSDL:
		d.handleUpdateGlobalSDL(ctx, req)
	case TagVaultCreateNode:
		d.handleVaultCreateNode(ctx, req)
	case TagVaultFetchNode:
		d.handleVaultFetchNode(ctx, req)
	case TagVaultUpdateNode:
		d.handleVaultUpdateNode(ctx, req)
	case TagVaultRefNode:
		d.handleVaultRefNode(ctx, req)
	case TagVaultUnrefNode:
		d.handleVaultUnrefNode(ctx, req)
	case TagVaultSendNode:
		d.handleVaultSendNode(ctx, req)
	case TagVaultFetchNodeTree:
		d.handleVaultFetchNodeTree(ctx, req)
	case TagVaultFindNode:
		d.handleVaultFindNode(ctx, req)
	case TagShutdown:
		d.handleShutdown(ctx, req)
	default:
		log.F.F("daemon: unhandled tag %d, aborting", req.Tag)
		panic("daemon: unhandled message tag")
	}
}

// reply is a small helper every handler uses to guarantee exactly one
// write to req.Reply.
func reply(req *Request, r Reply) {
	if req.Reply != nil {
		req.Reply <- r
	}
}

func now() uint32 { return uint32(time.Now().Unix()) }

// Shutdown enqueues the shutdown message, then polls the session count
// every ShutdownPoll until it reaches zero or ShutdownGrace has elapsed, and
// closes the DB pool (spec.md §4.7). It does not wait for Run to process
// the shutdown message.
func (d *Daemon) Shutdown(ctx context.Context) {
	d.shutdownOnce.Do(func() {
		done := make(chan struct{})
		d.Enqueue(&Request{Tag: TagShutdown, Reply: nil})
		go func() {
			for i := 0; i < int(d.cfg.ShutdownGrace/d.cfg.ShutdownPoll); i++ {
				if d.sessions.Count() == 0 {
					break
				}
				time.Sleep(d.cfg.ShutdownPoll)
			}
			close(done)
		}()
		<-done
		d.pool.Close()
	})
}
