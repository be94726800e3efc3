// Package score implements the typed point ledger: incremental, fixed, and
// transferable scores with leaderboard queries, delegating the arithmetic
// to PostgreSQL functions the way the schema defines them (spec.md §4.8,
// §6.6).
package score

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/h-uru/moula-authd/internal/chk"
	"github.com/h-uru/moula-authd/internal/netresult"
	"github.com/h-uru/moula-authd/internal/pg"
	"github.com/h-uru/moula-authd/internal/vault"
)

// Type is a score's arithmetic discipline (spec.md §4.8).
type Type int32

const (
	TypeFixed        Type = 1
	TypeAccumulative Type = 2
	TypeGolf         Type = 3
)

// Store is the score persistence layer.
type Store struct {
	pool *pg.Pool
	vs   *vault.Store
}

// New wraps pool and the vault store (needed for getHighScores' owner
// restriction) as a score Store.
func New(pool *pg.Pool, vs *vault.Store) *Store { return &Store{pool: pool, vs: vs} }

// Create delegates to auth.create_score, which signals a duplicate
// (owner, name) pair by returning -1 (spec.md §4.8).
func (s *Store) Create(ctx context.Context, owner uint32, t Type, name string, points int32) (scoreId int64, result netresult.T, err error) {
	err = s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		return pool.QueryRow(ctx, `SELECT auth.create_score($1, $2, $3, $4)`, owner, int32(t), name, points).Scan(&scoreId)
	})
	if chk.E(err) {
		return 0, netresult.InternalError, err
	}
	if scoreId < 0 {
		return 0, netresult.ScoreAlreadyExists, nil
	}
	return scoreId, netresult.Success, nil
}

// scoreType looks up the stored type of scoreId, needed before dispatching
// to the correct arithmetic rule.
func (s *Store) scoreType(ctx context.Context, scoreId int64) (Type, bool, error) {
	var t int32
	found := false
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		e := pool.QueryRow(ctx, `SELECT ScoreType FROM auth.Scores WHERE idx = $1`, scoreId).Scan(&t)
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
		return 0, false, err
	}
	return Type(t), found, nil
}

// AddPoints applies delta to scoreId. Fixed scores reject the operation;
// Golf scores may go negative, others clamp at the DB function's
// discretion (spec.md §4.8).
func (s *Store) AddPoints(ctx context.Context, scoreId int64, delta int32) (netresult.T, error) {
	t, found, err := s.scoreType(ctx, scoreId)
	if chk.E(err) {
		return netresult.InternalError, err
	}
	if !found {
		return netresult.ScoreNoDataFound, nil
	}
	if t == TypeFixed {
		return netresult.ScoreWrongType, nil
	}
	allowNegative := t == TypeGolf
	err = s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		_, e := pool.Exec(ctx, `SELECT auth.add_score_points($1, $2, $3)`, scoreId, delta, allowNegative)
		return e
	})
	if chk.E(err) {
		return netresult.InternalError, err
	}
	return netresult.Success, nil
}

// TransferPoints moves points from src to dst; neither may be Fixed, and
// both golf-typed scores are allowed to go negative on the source side
// (spec.md §4.8).
func (s *Store) TransferPoints(ctx context.Context, src, dst int64, points int32) (netresult.T, error) {
	srcType, srcFound, err := s.scoreType(ctx, src)
	if chk.E(err) {
		return netresult.InternalError, err
	}
	dstType, dstFound, err := s.scoreType(ctx, dst)
	if chk.E(err) {
		return netresult.InternalError, err
	}
	if !srcFound || !dstFound {
		return netresult.ScoreNoDataFound, nil
	}
	if srcType == TypeFixed || dstType == TypeFixed {
		return netresult.ScoreWrongType, nil
	}
	allowNegative := srcType == TypeGolf && dstType == TypeGolf

	var ok bool
	err = s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		return pool.QueryRow(ctx, `SELECT auth.transfer_score_points($1, $2, $3, $4)`, src, dst, points, allowNegative).Scan(&ok)
	})
	if chk.E(err) {
		return netresult.InternalError, err
	}
	if !ok {
		return netresult.ScoreNotEnoughPoints, nil
	}
	return netresult.Success, nil
}

// SetPoints overwrites a Fixed score's value.
func (s *Store) SetPoints(ctx context.Context, scoreId int64, points int32) (netresult.T, error) {
	t, found, err := s.scoreType(ctx, scoreId)
	if chk.E(err) {
		return netresult.InternalError, err
	}
	if !found {
		return netresult.ScoreNoDataFound, nil
	}
	if t != TypeFixed {
		return netresult.ScoreWrongType, nil
	}
	err = s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		_, e := pool.Exec(ctx, `UPDATE auth.Scores SET Points = $1 WHERE idx = $2`, points, scoreId)
		return e
	})
	if chk.E(err) {
		return netresult.InternalError, err
	}
	return netresult.Success, nil
}

// HighScore is one row of a leaderboard query's result.
type HighScore struct {
	ScoreId int64
	Owner   uint32
	Name    string
	Points  int32
}

// GetHighScores returns the top max scores named name. When owner is 0 the
// query is global; otherwise it is restricted to owner ids that are
// children of owner's AgeOwnersFolder (spec.md §4.8).
func (s *Store) GetHighScores(ctx context.Context, owner uint32, name string, max int) ([]HighScore, error) {
	var ownerFilter []uint32
	if owner != 0 {
		folder, err := s.vs.FindFolder(ctx, owner, vault.FolderAgeOwnersFolder)
		if chk.E(err) {
			return nil, err
		}
		if folder == 0 {
			return nil, nil
		}
		refs, err := s.vs.FetchTree(ctx, folder)
		if chk.E(err) {
			return nil, err
		}
		for _, r := range refs {
			if r.Parent == folder {
				ownerFilter = append(ownerFilter, r.Child)
			}
		}
		if len(ownerFilter) == 0 {
			return nil, nil
		}
	}

	var rows []HighScore
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		var r pgx.Rows
		var e error
		if owner == 0 {
			r, e = pool.Query(ctx,
				`SELECT idx, Owner, Name, Points FROM auth.Scores WHERE Name = $1 ORDER BY Points DESC LIMIT $2`,
				name, max)
		} else {
			r, e = pool.Query(ctx,
				`SELECT idx, Owner, Name, Points FROM auth.Scores WHERE Name = $1 AND Owner = ANY($2) ORDER BY Points DESC LIMIT $3`,
				name, ownerFilter, max)
		}
		if e != nil {
			return e
		}
		defer r.Close()
		for r.Next() {
			var h HighScore
			if e := r.Scan(&h.ScoreId, &h.Owner, &h.Name, &h.Points); e != nil {
				return e
			}
			rows = append(rows, h)
		}
		return r.Err()
	})
	if chk.E(err) {
		return nil, err
	}
	return rows, nil
}
