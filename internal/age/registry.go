// Package age implements the age-instance registry and game-server routing
// table (spec.md §3.4, §4.4): the binding of an age UUID to the game.Servers
// row that owns it.
package age

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/h-uru/moula-authd/internal/chk"
	"github.com/h-uru/moula-authd/internal/log"
	"github.com/h-uru/moula-authd/internal/pg"
)

// Server is one row of game.Servers: an active or temporary binding of an
// age UUID to a game server process.
type Server struct {
	McpId           uint32
	AgeUuid         uuid.UUID
	AgeFilename     string
	DisplayName     string
	AgeNodeIdx      uint32
	SdlNodeIdx      uint32
	GameServerAddr  string
	Temporary       bool
}

// Registry is the age/game-server binding persistence layer.
type Registry struct {
	pool *pg.Pool
}

// New wraps pool as an age Registry.
func New(pool *pg.Pool) *Registry { return &Registry{pool: pool} }

// FindAge resolves instanceUuid to its routing record, creating a temporary
// one if none exists yet (spec.md §4.4). The open question of tolerating
// multiple matching rows is resolved per spec.md §9: log a warning and use
// row 0, rather than erroring — schema-level uniqueness is the real fix.
func (r *Registry) FindAge(ctx context.Context, instanceUuid uuid.UUID, name, gameServerAddr string) (*Server, error) {
	var servers []*Server
	err := r.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		rows, e := pool.Query(ctx,
			`SELECT McpId, AgeUuid, AgeFilename, DisplayName, AgeIdx, SdlIdx, GameServerAddr, Temporary
			 FROM game.Servers WHERE AgeUuid = $1`, instanceUuid)
		if e != nil {
			return e
		}
		defer rows.Close()
		for rows.Next() {
			s := &Server{}
			if e := rows.Scan(&s.McpId, &s.AgeUuid, &s.AgeFilename, &s.DisplayName,
				&s.AgeNodeIdx, &s.SdlNodeIdx, &s.GameServerAddr, &s.Temporary); e != nil {
				return e
			}
			servers = append(servers, s)
		}
		return rows.Err()
	})
	if chk.E(err) {
		return nil, err
	}

	if len(servers) > 1 {
		log.W.F("age: %s matches %d game.Servers rows, using row 0", instanceUuid, len(servers))
	}
	if len(servers) > 0 {
		return servers[0], nil
	}

	s := &Server{
		AgeUuid:        instanceUuid,
		AgeFilename:    name,
		DisplayName:    name,
		GameServerAddr: gameServerAddr,
		Temporary:      true,
	}
	err = r.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		return pool.QueryRow(ctx,
			`INSERT INTO game.Servers (AgeUuid, AgeFilename, DisplayName, AgeIdx, SdlIdx, GameServerAddr, Temporary)
			 VALUES ($1, $2, $3, 0, 0, $4, true) RETURNING McpId`,
			s.AgeUuid, s.AgeFilename, s.DisplayName, s.GameServerAddr).Scan(&s.McpId)
	})
	if chk.E(err) {
		return nil, err
	}
	return s, nil
}

// BindVaultNodes records the age's vault Age-node and SDL-node indices once
// CreateAge has built the subtree, so future FindAge lookups route correctly.
func (r *Registry) BindVaultNodes(ctx context.Context, mcpId, ageNodeIdx, sdlNodeIdx uint32) error {
	err := r.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		_, e := pool.Exec(ctx,
			`UPDATE game.Servers SET AgeIdx = $1, SdlIdx = $2 WHERE McpId = $3`,
			ageNodeIdx, sdlNodeIdx, mcpId)
		return e
	})
	chk.E(err)
	return err
}

// FindBySdlIdx looks up the game.Servers row whose SdlIdx matches node's
// idx, the lookup the SDL update arbitration algorithm needs (spec.md
// §4.7 step 1). Returns nil, nil when no row matches.
func (r *Registry) FindBySdlIdx(ctx context.Context, sdlIdx uint32) (*Server, error) {
	s := &Server{}
	found := false
	err := r.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		row := pool.QueryRow(ctx,
			`SELECT McpId, AgeUuid, AgeFilename, DisplayName, AgeIdx, SdlIdx, GameServerAddr, Temporary
			 FROM game.Servers WHERE SdlIdx = $1`, sdlIdx)
		e := row.Scan(&s.McpId, &s.AgeUuid, &s.AgeFilename, &s.DisplayName,
			&s.AgeNodeIdx, &s.SdlNodeIdx, &s.GameServerAddr, &s.Temporary)
		if e != nil {
			if pg.IsNoRows(e) {
				return nil
			}
			return e
		}
		found = true
		return nil
	})
	if chk.E(err) {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return s, nil
}
