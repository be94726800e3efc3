package sdl

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/h-uru/moula-authd/internal/chk"
	"github.com/h-uru/moula-authd/internal/pg"
)

// Store is the write-through persistence layer backing the in-memory
// global SDL cache (spec.md §3.5, §4.2): every mutation the daemon makes
// to a global State is saved here before the in-memory map is considered
// authoritative.
type Store struct {
	pool *pg.Pool
}

// New wraps pool as an SDL Store.
func New(pool *pg.Pool) *Store { return &Store{pool: pool} }

// LoadAll reads every persisted global state row, base64-decodes its blob,
// and decodes that against the latest descriptor the catalog knows for its
// age (spec.md §4.2) -- the startup step that seeds Daemon.globalStates.
// Rows are keyed lower-cased, since ageFilename lookups are case-insensitive
// throughout the global SDL registry.
func (s *Store) LoadAll(ctx context.Context, cat *Catalog) (map[string]*State, error) {
	states := map[string]*State{}
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		rows, e := pool.Query(ctx, `SELECT agefilename, sdlblob FROM vault.GlobalStates`)
		if e != nil {
			return e
		}
		defer rows.Close()
		for rows.Next() {
			var ageFilename, encoded string
			if e := rows.Scan(&ageFilename, &encoded); e != nil {
				return e
			}
			desc := cat.Latest(ageFilename)
			if desc == nil {
				continue
			}
			blob, e := base64.StdEncoding.DecodeString(encoded)
			if e != nil {
				return e
			}
			st, e := Decode(blob, desc)
			if e != nil {
				return e
			}
			states[strings.ToLower(ageFilename)] = st
		}
		return rows.Err()
	})
	if chk.E(err) {
		return nil, err
	}
	return states, nil
}

// Save base64-encodes blob and upserts it for ageFilename (lower-cased, to
// match LoadAll's keying), the write half of updateGlobal's write-through
// persistence (spec.md §4.2).
func (s *Store) Save(ctx context.Context, ageFilename string, blob []byte) error {
	encoded := base64.StdEncoding.EncodeToString(blob)
	key := strings.ToLower(ageFilename)
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		_, e := pool.Exec(ctx,
			`INSERT INTO vault.GlobalStates (AgeFilename, SdlBlob) VALUES ($1, $2)
			 ON CONFLICT (AgeFilename) DO UPDATE SET SdlBlob = EXCLUDED.SdlBlob`,
			key, encoded)
		return e
	})
	chk.E(err)
	return err
}
