package daemon

import (
	"crypto/sha1"

	"github.com/google/uuid"

	"github.com/h-uru/moula-authd/internal/account"
	"github.com/h-uru/moula-authd/internal/age"
	"github.com/h-uru/moula-authd/internal/netresult"
	"github.com/h-uru/moula-authd/internal/score"
	"github.com/h-uru/moula-authd/internal/vault"
)

// Tag is a stable integer identifying a handler (spec.md §6.2). The
// dispatch switch in daemon.go is total over these; an unhandled tag
// aborts the process to surface protocol drift rather than silently
// ignoring a request.
type Tag int

const (
	TagLogin Tag = iota
	TagSetPlayer
	TagCreatePlayer
	TagDeletePlayer
	TagAddAcct
	TagDisconnect
	TagCreateAge
	TagFindGameServer
	TagGetPublicAges
	TagSetPublic
	TagScoreCreate
	TagScoreAddPoints
	TagScoreTransferPoints
	TagScoreSetPoints
	TagScoreGetHighScores
	TagUpdateAgeSrv
	TagAcctFlags
	TagRestrictLogins
	TagAddAllPlayers
	TagFetchSDL
	TagUpdateGlobalSDL
	TagVaultCreateNode
	TagVaultFetchNode
	TagVaultUpdateNode
	TagVaultRefNode
	TagVaultUnrefNode
	TagVaultSendNode
	TagVaultFetchNodeTree
	TagVaultFindNode
	TagShutdown
)

// Request is one tagged message enqueued on the daemon's inbound channel.
// Only the fields relevant to Tag are meaningful; the rest are zero.
type Request struct {
	Tag       Tag
	SessionID uint64
	Reply     chan Reply

	Login           string
	Password        string
	ClientChallenge uint32
	ClientHash      [sha1.Size]byte

	PlayerId    uint32
	PlayerName  string
	AvatarShape string

	AgeInstanceUuid uuid.UUID
	AgeFilename     string
	DisplayName     string

	Node     *vault.Node
	Template *vault.Node
	NodeIdx  uint32
	Revision uuid.UUID
	Internal bool // bypasses SDL arbitration; set for daemon-originated writes

	Parent, Child, Owner  uint32
	ToPlayer, FromPlayer  uint32

	VarName string
	Value   string

	ToggleMask uint32
	Public     bool

	ScoreOwner  uint32
	ScoreType   score.Type
	ScoreName   string
	ScorePoints int32
	ScoreId     int64
	ScoreDst    int64
	Max         int

	RestrictLogins bool
}

// Reply is the single response every handler writes to Request.Reply,
// exactly once, carrying a NetResult plus whatever payload that operation
// produces (spec.md §4.7).
type Reply struct {
	Result netresult.T

	Node  *vault.Node
	Nodes []uint32
	Refs  []vault.NodeRef
	Ref   vault.NodeRef

	Idx     uint32
	Created bool

	AcctUuid  uuid.UUID
	AcctFlags uint32
	Players   []*account.Player

	Server *age.Server

	ScoreId    int64
	HighScores []score.HighScore

	RestrictLogins bool
}
