// Package account implements account creation, login verification, and the
// per-account player roster (spec.md §3.3, §4.3).
package account

import (
	"context"
	"crypto/sha1"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/h-uru/moula-authd/internal/chk"
	"github.com/h-uru/moula-authd/internal/netresult"
	"github.com/h-uru/moula-authd/internal/pg"
)

// AcctFlag is a bit in Account.Flags (spec.md §3.3).
type AcctFlag uint32

const (
	FlagAdmin      AcctFlag = 1 << 0
	FlagBanned     AcctFlag = 1 << 1
	FlagBetaTester AcctFlag = 1 << 2
)

// Account is one row of auth.Accounts.
type Account struct {
	Idx         uint32
	AcctUuid    uuid.UUID
	Login       string
	PassHash    [sha1.Size]byte
	Flags       uint32
	BillingType uint32
}

// Player is one row of auth.Players.
type Player struct {
	Idx          uint32
	AccountIdx   uint32
	PlayerName   string
	AvatarShape  string
	Explorer     uint32
	PlayerInfoIdx uint32
}

// Store is the account/player persistence layer.
type Store struct {
	pool *pg.Pool
}

// New wraps pool as an account Store.
func New(pool *pg.Pool) *Store { return &Store{pool: pool} }

// AddAccount creates a new account, hashing the password the way §4.3
// dictates based on whether login matches the email-auth heuristic.
func (s *Store) AddAccount(ctx context.Context, login, password string) (uuid.UUID, netresult.T, error) {
	exists, err := s.loginExists(ctx, login)
	if chk.E(err) {
		return uuid.UUID{}, netresult.InternalError, err
	}
	if exists {
		return uuid.UUID{}, netresult.AccountAlreadyExists, nil
	}

	var hash [sha1.Size]byte
	if isEmailAuth(login) {
		hash = BuggyHashPassword(login, password)
	} else {
		hash = HashPassword(password)
	}

	acctUuid := uuid.New()
	err = s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		_, e := pool.Exec(ctx,
			`INSERT INTO auth.Accounts (AcctUuid, Login, PassHash, AcctFlags, BillingType)
			 VALUES ($1, $2, $3, 0, 1)`,
			acctUuid, login, hash[:])
		return e
	})
	if chk.E(err) {
		return uuid.UUID{}, netresult.InternalError, err
	}
	return acctUuid, netresult.Success, nil
}

func (s *Store) loginExists(ctx context.Context, login string) (bool, error) {
	var count int
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		return pool.QueryRow(ctx, `SELECT count(*) FROM auth.Accounts WHERE LOWER(Login) = LOWER($1)`, login).Scan(&count)
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Login looks the account up by case-insensitive login and verifies
// clientHash against the stored password hash per §4.3's two paths.
// Ambiguous lookups (0 or >1 rows) and hash mismatches both collapse to
// AuthenticationFailed, so a caller can never distinguish "no such
// account" from "wrong password".
func (s *Store) Login(ctx context.Context, login string, serverChallenge, clientChallenge uint32, clientHash [sha1.Size]byte) (*Account, netresult.T, error) {
	var rows []*Account
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		r, e := pool.Query(ctx,
			`SELECT idx, AcctUuid, Login, PassHash, AcctFlags, BillingType
			 FROM auth.Accounts WHERE LOWER(Login) = LOWER($1)`, login)
		if e != nil {
			return e
		}
		defer r.Close()
		for r.Next() {
			a := &Account{}
			var hash []byte
			if e := r.Scan(&a.Idx, &a.AcctUuid, &a.Login, &hash, &a.Flags, &a.BillingType); e != nil {
				return e
			}
			copy(a.PassHash[:], hash)
			rows = append(rows, a)
		}
		return r.Err()
	})
	if chk.E(err) {
		return nil, netresult.InternalError, err
	}
	if len(rows) != 1 {
		return nil, netresult.AuthenticationFailed, nil
	}
	acct := rows[0]

	var ok bool
	if isEmailAuth(acct.Login) {
		ok = BuggyHashLogin(acct.PassHash, serverChallenge, clientChallenge) == clientHash
	} else {
		ok = acct.PassHash == SwapHashWords(clientHash)
	}
	if !ok {
		return nil, netresult.AuthenticationFailed, nil
	}

	if AcctFlag(acct.Flags)&FlagBanned != 0 {
		return acct, netresult.AccountBanned, nil
	}
	return acct, netresult.Success, nil
}

// CheckRestrictedLogin applies the global restrict-logins gate: when
// restrict is true, only Admin or BetaTester accounts may proceed.
func CheckRestrictedLogin(flags uint32, restrict bool) netresult.T {
	if !restrict {
		return netresult.Success
	}
	if AcctFlag(flags)&(FlagAdmin|FlagBetaTester) != 0 {
		return netresult.Success
	}
	return netresult.LoginDenied
}

// Players returns the account's player roster.
func (s *Store) Players(ctx context.Context, accountIdx uint32) ([]*Player, error) {
	var players []*Player
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		r, e := pool.Query(ctx,
			`SELECT idx, AccountIdx, PlayerName, AvatarShape, Explorer, PlayerInfoIdx
			 FROM auth.Players WHERE AccountIdx = $1`, accountIdx)
		if e != nil {
			return e
		}
		defer r.Close()
		for r.Next() {
			p := &Player{}
			if e := r.Scan(&p.Idx, &p.AccountIdx, &p.PlayerName, &p.AvatarShape, &p.Explorer, &p.PlayerInfoIdx); e != nil {
				return e
			}
			players = append(players, p)
		}
		return r.Err()
	})
	if chk.E(err) {
		return nil, err
	}
	return players, nil
}

// GetPlayer looks up a single player row by its idx, the lookup SetPlayer
// needs when the request only carries a player id.
func (s *Store) GetPlayer(ctx context.Context, playerIdx uint32) (*Player, error) {
	p := &Player{}
	found := false
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		e := pool.QueryRow(ctx,
			`SELECT idx, AccountIdx, PlayerName, AvatarShape, Explorer, PlayerInfoIdx
			 FROM auth.Players WHERE idx = $1`, playerIdx).
			Scan(&p.Idx, &p.AccountIdx, &p.PlayerName, &p.AvatarShape, &p.Explorer, &p.PlayerInfoIdx)
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
	return p, nil
}

// PlayerNameTaken reports whether name is already used by any player,
// case-insensitively, the check createPlayer makes before inserting.
func (s *Store) PlayerNameTaken(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		return pool.QueryRow(ctx, `SELECT count(*) FROM auth.Players WHERE LOWER(PlayerName) = LOWER($1)`, name).Scan(&count)
	})
	if chk.E(err) {
		return false, err
	}
	return count > 0, nil
}

// InsertPlayer creates the auth.Players row, linking it to its vault
// PlayerInfo node idx.
func (s *Store) InsertPlayer(ctx context.Context, accountIdx uint32, name, avatarShape string, playerInfoIdx uint32) (uint32, error) {
	var idx uint32
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		return pool.QueryRow(ctx,
			`INSERT INTO auth.Players (AccountIdx, PlayerName, AvatarShape, Explorer, PlayerInfoIdx)
			 VALUES ($1, $2, $3, 1, $4) RETURNING idx`,
			accountIdx, name, avatarShape, playerInfoIdx).Scan(&idx)
	})
	if chk.E(err) {
		return 0, err
	}
	return idx, nil
}

// DeletePlayer removes the auth.Players row for playerIdx.
func (s *Store) DeletePlayer(ctx context.Context, playerIdx uint32) error {
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		_, e := pool.Exec(ctx, `DELETE FROM auth.Players WHERE idx = $1`, playerIdx)
		return e
	})
	chk.E(err)
	return err
}

// SetPlayerInfoIdx records the vault PlayerInfo node idx built for
// playerIdx, the second half of createPlayer's two-step insert (the vault
// subtree needs the player's own idx before it can be built, so the link
// back can only be written after both exist).
func (s *Store) SetPlayerInfoIdx(ctx context.Context, playerIdx, infoIdx uint32) error {
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		_, e := pool.Exec(ctx, `UPDATE auth.Players SET PlayerInfoIdx = $1 WHERE idx = $2`, infoIdx, playerIdx)
		return e
	})
	chk.E(err)
	return err
}

// SetAccountFlags XORs toggleMask into the account's flags and returns the
// resulting value (spec.md §4.3).
func (s *Store) SetAccountFlags(ctx context.Context, accountIdx uint32, toggleMask uint32) (uint32, error) {
	var flags uint32
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		return pool.QueryRow(ctx,
			`UPDATE auth.Accounts SET AcctFlags = AcctFlags # $1 WHERE idx = $2 RETURNING AcctFlags`,
			toggleMask, accountIdx).Scan(&flags)
	})
	if chk.E(err) {
		return 0, err
	}
	return flags, nil
}

// NormalizeShape maps any non-"male" avatar request to "female", matching
// the two-shape invariant in spec.md §3.3.
func NormalizeShape(shape string) string {
	if strings.EqualFold(shape, "male") {
		return "male"
	}
	return "female"
}
