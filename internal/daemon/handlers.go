package daemon

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/h-uru/moula-authd/internal/account"
	"github.com/h-uru/moula-authd/internal/age"
	"github.com/h-uru/moula-authd/internal/log"
	"github.com/h-uru/moula-authd/internal/netresult"
	"github.com/h-uru/moula-authd/internal/sdl"
	"github.com/h-uru/moula-authd/internal/session"
	"github.com/h-uru/moula-authd/internal/vault"
)

func (d *Daemon) handleAddAcct(ctx context.Context, req *Request) {
	acctUuid, result, err := d.accounts.AddAccount(ctx, req.Login, req.Password)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: result, AcctUuid: acctUuid})
}

func (d *Daemon) handleLogin(ctx context.Context, req *Request) {
	s := d.sessions.Get(req.SessionID)
	if s == nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	acct, result, err := d.accounts.Login(ctx, req.Login, s.ServerChallenge, req.ClientChallenge, req.ClientHash)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	if result != netresult.Success {
		reply(req, Reply{Result: result})
		return
	}

	d.sessions.SetAccount(req.SessionID, acct.Idx, acct.AcctUuid, acct.Flags)

	if gate := account.CheckRestrictedLogin(acct.Flags, d.restrictLogins); gate != netresult.Success {
		reply(req, Reply{Result: gate})
		return
	}

	players, err := d.accounts.Players(ctx, acct.Idx)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: netresult.Success, AcctUuid: acct.AcctUuid, AcctFlags: acct.Flags, Players: players})
}

// handleSetPlayer implements the SetPlayer online-marking and collision
// check (spec.md's supplemented feature 2): reject an already-bound
// player with LoggedInElsewhere, otherwise mark the PlayerInfo node
// online, reset its current-age fields to the lobby, and broadcast.
func (d *Daemon) handleSetPlayer(ctx context.Context, req *Request) {
	if d.sessions.IsPlayerBoundElsewhere(uint64(req.PlayerId), req.SessionID) {
		reply(req, Reply{Result: netresult.LoggedInElsewhere})
		return
	}
	p, err := d.accounts.GetPlayer(ctx, req.PlayerId)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	if p == nil {
		reply(req, Reply{Result: netresult.PlayerNotFound})
		return
	}

	info := &vault.Node{}
	info.SetNodeIdx(p.PlayerInfoIdx)
	info.Int32_1 = 1 // online
	info.Set(vault.FieldInt32_1)
	info.String64_1 = ""
	info.Set(vault.FieldString64_1)
	info.Uuid_1 = uuid.UUID{}
	info.Set(vault.FieldUuid_1)
	if err := d.vault.Update(ctx, info, now()); err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	d.bcast.NodeChanged(ctx, p.PlayerInfoIdx, uuid.New())

	d.sessions.BindPlayer(req.SessionID, &session.Player{
		Idx: p.Idx, Name: p.PlayerName, AvatarShape: p.AvatarShape, Explorer: p.Explorer,
	})
	reply(req, Reply{Result: netresult.Success})
}

// handleCreatePlayer builds the per-player vault subtree and the
// auth.Players row, then links the player into AllPlayers (spec.md §4.3,
// §4.6). Duplicate names return PlayerAlreadyExists without touching the
// vault.
func (d *Daemon) handleCreatePlayer(ctx context.Context, req *Request) {
	s := d.sessions.Get(req.SessionID)
	if s == nil || s.AccountIdx == 0 {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	taken, err := d.accounts.PlayerNameTaken(ctx, req.PlayerName)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	if taken {
		reply(req, Reply{Result: netresult.PlayerAlreadyExists})
		return
	}

	shape := account.NormalizeShape(req.AvatarShape)
	playerIdx, err := d.accounts.InsertPlayer(ctx, s.AccountIdx, req.PlayerName, shape, 0)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	infoIdx, err := d.vault.BuildPlayerSubtree(ctx, playerIdx, req.PlayerName, now())
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	if err := d.accounts.SetPlayerInfoIdx(ctx, playerIdx, infoIdx); err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}

	allPlayers, err := d.ensureAllPlayersFolder(ctx)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	if ref, err := d.vault.Ref(ctx, vault.NodeRef{Parent: allPlayers, Child: infoIdx, Owner: playerIdx}); err == nil && ref {
		d.bcast.NodeAdded(ctx, vault.NodeRef{Parent: allPlayers, Child: infoIdx, Owner: playerIdx})
	}

	reply(req, Reply{Result: netresult.Success, Idx: playerIdx})
}

// ensureAllPlayersFolder resolves the single well-known AllPlayers folder,
// creating it the first time it's needed.
func (d *Daemon) ensureAllPlayersFolder(ctx context.Context) (uint32, error) {
	tmpl := &vault.Node{}
	tmpl.NodeType = int32(vault.NodeFolder)
	tmpl.Set(vault.FieldNodeType)
	tmpl.Int32_1 = int32(vault.FolderAllPlayersFolder)
	tmpl.Set(vault.FieldInt32_1)
	ids, err := d.vault.FindNodes(ctx, tmpl)
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		return ids[0], nil
	}
	folder := &vault.Node{}
	folder.NodeType = int32(vault.NodeFolder)
	folder.Set(vault.FieldNodeType)
	folder.Int32_1 = int32(vault.FolderAllPlayersFolder)
	folder.Set(vault.FieldInt32_1)
	folder.CreateTime, folder.ModifyTime = now(), now()
	folder.Set(vault.FieldCreateTime)
	folder.Set(vault.FieldModifyTime)
	return d.vault.Create(ctx, folder)
}

// handleDeletePlayer removes the player row and every incoming reference
// to its PlayerInfo node, leaving other per-player nodes orphaned
// (spec.md §4.3).
func (d *Daemon) handleDeletePlayer(ctx context.Context, req *Request) {
	p, err := d.accounts.GetPlayer(ctx, req.PlayerId)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	if p == nil {
		reply(req, Reply{Result: netresult.PlayerNotFound})
		return
	}
	refs, err := d.vault.FetchTree(ctx, p.PlayerInfoIdx)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	for _, r := range refs {
		if r.Child == p.PlayerInfoIdx {
			if removed, e := d.vault.Unref(ctx, r.Parent, r.Child); e == nil && removed {
				d.bcast.NodeRemoved(ctx, r.Parent, r.Child)
			}
		}
	}
	if err := d.accounts.DeletePlayer(ctx, p.Idx); err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: netresult.Success})
}

// handleDisconnect implements spec.md's supplemented feature 1: clear the
// bound player's online flag, best-effort, and always reply Success.
func (d *Daemon) handleDisconnect(ctx context.Context, req *Request) {
	s := d.sessions.Get(req.SessionID)
	if s != nil && s.Player != nil {
		info := &vault.Node{}
		p, err := d.accounts.GetPlayer(ctx, s.Player.Idx)
		if err == nil && p != nil {
			info.SetNodeIdx(p.PlayerInfoIdx)
			info.Int32_1 = 0
			info.Set(vault.FieldInt32_1)
			info.String64_1 = ""
			info.Set(vault.FieldString64_1)
			info.Uuid_1 = uuid.UUID{}
			info.Set(vault.FieldUuid_1)
			if err := d.vault.Update(ctx, info, now()); err == nil {
				d.bcast.NodeChanged(ctx, p.PlayerInfoIdx, uuid.New())
			} else {
				log.W.F("daemon: disconnect: marking player %d offline failed: %v", p.Idx, err)
			}
		}
	}
	d.sessions.Remove(req.SessionID)
	reply(req, Reply{Result: netresult.Success})
}

func (d *Daemon) handleCreateAge(ctx context.Context, req *Request) {
	ageIdx, infoIdx, err := age.CreateAge(ctx, d.vault, req.AgeInstanceUuid, req.AgeFilename, req.DisplayName, now())
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: netresult.Success, Idx: ageIdx, Ref: vault.NodeRef{Parent: ageIdx, Child: infoIdx}})
}

// handleFindGameServer implements §4.4's findAge: resolve or provision the
// routing record, then reflect the new age onto the caller's PlayerInfo
// node and broadcast.
func (d *Daemon) handleFindGameServer(ctx context.Context, req *Request) {
	srv, err := d.ages.FindAge(ctx, req.AgeInstanceUuid, req.AgeFilename, d.cfg.GameServerAddress)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}

	s := d.sessions.Get(req.SessionID)
	if s != nil && s.Player != nil {
		p, err := d.accounts.GetPlayer(ctx, s.Player.Idx)
		if err == nil && p != nil {
			info := &vault.Node{}
			info.SetNodeIdx(p.PlayerInfoIdx)
			info.String64_1 = srv.DisplayName
			info.Set(vault.FieldString64_1)
			info.Uuid_1 = req.AgeInstanceUuid
			info.Set(vault.FieldUuid_1)
			if err := d.vault.Update(ctx, info, now()); err == nil {
				d.bcast.NodeChanged(ctx, p.PlayerInfoIdx, uuid.New())
			}
		}
		d.sessions.SetAgeNode(req.SessionID, srv.AgeNodeIdx)
	}

	reply(req, Reply{Result: netresult.Success, Server: srv})
}

// handleGetPublicAges implements spec.md's supplemented feature 3: list
// AgeInfo nodes for ageFilename with the public flag (Int32_2) set.
func (d *Daemon) handleGetPublicAges(ctx context.Context, req *Request) {
	tmpl := &vault.Node{}
	tmpl.NodeType = int32(vault.NodeAgeInfo)
	tmpl.Set(vault.FieldNodeType)
	tmpl.String64_2 = req.AgeFilename
	tmpl.Set(vault.FieldString64_2)
	tmpl.Int32_2 = 1
	tmpl.Set(vault.FieldInt32_2)
	ids, err := d.vault.FindNodes(ctx, tmpl)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: netresult.Success, Nodes: ids})
}

// handleSetPublic flips AgeInfo.Int32_2 and broadcasts (spec.md's
// supplemented feature 3).
func (d *Daemon) handleSetPublic(ctx context.Context, req *Request) {
	n := &vault.Node{}
	n.SetNodeIdx(req.NodeIdx)
	if req.Public {
		n.Int32_2 = 1
	} else {
		n.Int32_2 = 0
	}
	n.Set(vault.FieldInt32_2)
	if err := d.vault.Update(ctx, n, now()); err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	d.bcast.NodeChanged(ctx, req.NodeIdx, uuid.New())
	reply(req, Reply{Result: netresult.Success})
}

func (d *Daemon) handleScoreCreate(ctx context.Context, req *Request) {
	id, result, err := d.scores.Create(ctx, req.ScoreOwner, req.ScoreType, req.ScoreName, req.ScorePoints)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: result, ScoreId: id})
}

func (d *Daemon) handleScoreAddPoints(ctx context.Context, req *Request) {
	result, err := d.scores.AddPoints(ctx, req.ScoreId, req.ScorePoints)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: result})
}

func (d *Daemon) handleScoreTransferPoints(ctx context.Context, req *Request) {
	result, err := d.scores.TransferPoints(ctx, req.ScoreId, req.ScoreDst, req.ScorePoints)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: result})
}

func (d *Daemon) handleScoreSetPoints(ctx context.Context, req *Request) {
	result, err := d.scores.SetPoints(ctx, req.ScoreId, req.ScorePoints)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: result})
}

func (d *Daemon) handleScoreGetHighScores(ctx context.Context, req *Request) {
	scores, err := d.scores.GetHighScores(ctx, req.ScoreOwner, req.ScoreName, req.Max)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: netresult.Success, HighScores: scores})
}

// handleUpdateAgeSrv binds the vault Age/SDL node indices onto an existing
// game.Servers row once CreateAge has built the subtree.
func (d *Daemon) handleUpdateAgeSrv(ctx context.Context, req *Request) {
	srv, err := d.ages.FindAge(ctx, req.AgeInstanceUuid, req.AgeFilename, d.cfg.GameServerAddress)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	if err := d.ages.BindVaultNodes(ctx, srv.McpId, req.NodeIdx, req.Child); err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: netresult.Success})
}

func (d *Daemon) handleAcctFlags(ctx context.Context, req *Request) {
	s := d.sessions.Get(req.SessionID)
	if s == nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	flags, err := d.accounts.SetAccountFlags(ctx, s.AccountIdx, req.ToggleMask)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: netresult.Success, AcctFlags: flags})
}

// handleRestrictLogins implements spec.md's supplemented feature 4: sets
// the daemon's in-memory flag to req.RestrictLogins and echoes the new
// state.
func (d *Daemon) handleRestrictLogins(ctx context.Context, req *Request) {
	d.restrictLogins = req.RestrictLogins
	reply(req, Reply{Result: netresult.Success, RestrictLogins: d.restrictLogins})
}

// handleAddAllPlayers implements spec.md's supplemented feature 5:
// idempotently add or remove playerId from the AllPlayers folder.
func (d *Daemon) handleAddAllPlayers(ctx context.Context, req *Request) {
	p, err := d.accounts.GetPlayer(ctx, req.PlayerId)
	if err != nil || p == nil {
		reply(req, Reply{Result: netresult.PlayerNotFound})
		return
	}
	allPlayers, err := d.ensureAllPlayersFolder(ctx)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	ref := vault.NodeRef{Parent: allPlayers, Child: p.PlayerInfoIdx, Owner: p.Idx}
	if req.Public {
		if created, err := d.vault.Ref(ctx, ref); err == nil && created {
			d.bcast.NodeAdded(ctx, ref)
		}
	} else {
		if removed, err := d.vault.Unref(ctx, ref.Parent, ref.Child); err == nil && removed {
			d.bcast.NodeRemoved(ctx, ref.Parent, ref.Child)
		}
	}
	reply(req, Reply{Result: netresult.Success})
}

func (d *Daemon) handleFetchSDL(ctx context.Context, req *Request) {
	global := d.globalStates[strings.ToLower(req.AgeFilename)]

	var local *sdl.State
	if req.NodeIdx == 0 {
		desc := d.catalog.Latest(req.AgeFilename)
		if desc != nil {
			local = sdl.NewState(desc)
		}
	} else {
		n, err := d.vault.Fetch(ctx, req.NodeIdx)
		if err != nil {
			reply(req, Reply{Result: netresult.InternalError})
			return
		}
		if n.IsNull() {
			reply(req, Reply{Result: netresult.VaultNodeNotFound})
			return
		}
		desc := d.catalog.Latest(req.AgeFilename)
		decoded, err := sdl.Decode(n.Blob_1, desc)
		if err != nil {
			reply(req, Reply{Result: netresult.InternalError})
			return
		}
		local = decoded
	}

	node := &vault.Node{}
	if global != nil {
		node.Blob_1 = sdl.Encode(global)
		node.Set(vault.FieldBlob_1)
	}
	if local != nil {
		node.Blob_2 = sdl.Encode(local)
		node.Set(vault.FieldBlob_2)
	}
	reply(req, Reply{Result: netresult.Success, Node: node})
}

// handleUpdateGlobalSDL implements the updateGlobal algorithm (spec.md
// §4.2).
func (d *Daemon) handleUpdateGlobalSDL(ctx context.Context, req *Request) {
	state := d.globalStates[strings.ToLower(req.AgeFilename)]
	if state == nil {
		reply(req, Reply{Result: netresult.StateObjectNotFound})
		return
	}
	v := state.Find(req.VarName)
	if v == nil {
		reply(req, Reply{Result: netresult.InvalidParameter})
		return
	}
	if !v.SetValue(req.Value, time.Now()) {
		reply(req, Reply{Result: netresult.NotSupported})
		return
	}

	blob := sdl.Encode(state)
	if err := d.persistGlobalState(ctx, req.AgeFilename, blob); err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}

	if err := d.peer.UpdateGlobalSDL(ctx, req.AgeFilename); err != nil {
		log.W.F("daemon: UpdateGlobalSDL notification for %s failed: %v", req.AgeFilename, err)
	}
	reply(req, Reply{Result: netresult.Success})
}

func (d *Daemon) handleVaultCreateNode(ctx context.Context, req *Request) {
	idx, err := d.vault.Create(ctx, req.Node)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: netresult.Success, Idx: idx})
}

func (d *Daemon) handleVaultFetchNode(ctx context.Context, req *Request) {
	n, err := d.vault.Fetch(ctx, req.NodeIdx)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: netresult.Success, Node: n})
}

// handleVaultUpdateNode implements the SDL update arbitration algorithm
// (spec.md §4.7) ahead of the plain vault write path.
func (d *Daemon) handleVaultUpdateNode(ctx context.Context, req *Request) {
	if !req.Internal && req.Node.Fields.Has(vault.FieldNodeType) && vault.NodeType(req.Node.NodeType) == vault.NodeSDL {
		srv, err := d.ages.FindBySdlIdx(ctx, req.Node.NodeIdx)
		if err != nil {
			reply(req, Reply{Result: netresult.InternalError})
			return
		}
		if srv != nil {
			result, err := d.peer.UpdateVaultSDL(ctx, req.Node, srv.McpId)
			if err != nil {
				reply(req, Reply{Result: netresult.InternalError})
				return
			}
			if result != netresult.AgeNotFound {
				reply(req, Reply{Result: result})
				return
			}
			// fall through: no live instance owns this node.
		}
	}

	revision := req.Revision
	if revision == uuid.Nil {
		revision = uuid.New()
	}
	if err := d.vault.Update(ctx, req.Node, now()); err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	d.bcast.NodeChanged(ctx, req.Node.NodeIdx, revision)
	reply(req, Reply{Result: netresult.Success})
}

func (d *Daemon) handleVaultRefNode(ctx context.Context, req *Request) {
	ref := vault.NodeRef{Parent: req.Parent, Child: req.Child, Owner: req.Owner}
	created, err := d.vault.Ref(ctx, ref)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	if created {
		d.bcast.NodeAdded(ctx, ref)
	}
	reply(req, Reply{Result: netresult.Success, Created: created})
}

func (d *Daemon) handleVaultUnrefNode(ctx context.Context, req *Request) {
	removed, err := d.vault.Unref(ctx, req.Parent, req.Child)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	if removed {
		d.bcast.NodeRemoved(ctx, req.Parent, req.Child)
	}
	reply(req, Reply{Result: netresult.Success, Created: removed})
}

func (d *Daemon) handleVaultSendNode(ctx context.Context, req *Request) {
	ref, err := d.vault.Send(ctx, req.NodeIdx, req.ToPlayer, req.FromPlayer)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	if ref != (vault.NodeRef{}) {
		d.bcast.NodeAdded(ctx, ref)
	}
	reply(req, Reply{Result: netresult.Success, Ref: ref})
}

func (d *Daemon) handleVaultFetchNodeTree(ctx context.Context, req *Request) {
	refs, err := d.vault.FetchTree(ctx, req.NodeIdx)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: netresult.Success, Refs: refs})
}

func (d *Daemon) handleVaultFindNode(ctx context.Context, req *Request) {
	ids, err := d.vault.FindNodes(ctx, req.Template)
	if err != nil {
		reply(req, Reply{Result: netresult.InternalError})
		return
	}
	reply(req, Reply{Result: netresult.Success, Nodes: ids})
}

// handleShutdown implements the shutdown sequence's first step: mark
// shutdown and close every client socket under the session lock (spec.md
// §4.7). The poll-then-force-exit and DB-close steps are driven by
// Daemon.Shutdown, which runs concurrently with Run.
func (d *Daemon) handleShutdown(ctx context.Context, req *Request) {
	d.sessions.CloseAll()
	reply(req, Reply{Result: netresult.Success})
}
