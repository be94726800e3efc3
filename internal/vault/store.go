package vault

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/h-uru/moula-authd/internal/chk"
	"github.com/h-uru/moula-authd/internal/pg"
)

// Store is the vault's persistence layer: vault.Nodes and vault.NodeRefs,
// addressed by the pool the daemon owns exclusively (spec.md §4.1).
type Store struct {
	pool *pg.Pool
}

// New wraps pool as a vault Store.
func New(pool *pg.Pool) *Store { return &Store{pool: pool} }

// Create allocates a NodeIdx and persists every field set in n's mask,
// never returning 0 on success (spec.md §4.1).
func (s *Store) Create(ctx context.Context, n *Node) (idx uint32, err error) {
	err = s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		cols := []string{"fields"}
		args := []any{int64(n.Fields)}
		for f := Field(0); f < fieldCount; f++ {
			if f == FieldNodeIdx || !n.Fields.Has(f) {
				continue
			}
			cols = append(cols, columnName(f))
			args = append(args, fieldValue(n, f))
		}
		placeholders := make([]string, len(args))
		for i := range args {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		q := fmt.Sprintf("INSERT INTO vault.Nodes (%s) VALUES (%s) RETURNING idx",
			strings.Join(cols, ", "), strings.Join(placeholders, ", "))
		return pool.QueryRow(ctx, q, args...).Scan(&idx)
	})
	if chk.E(err) {
		return 0, err
	}
	n.SetNodeIdx(idx)
	return idx, nil
}

// Fetch reads the full row for idx. It returns the null node (IsNull true),
// not an error, when no such row exists.
func (s *Store) Fetch(ctx context.Context, idx uint32) (*Node, error) {
	n := &Node{}
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		var mask int64
		err := pool.QueryRow(ctx, "SELECT fields FROM vault.Nodes WHERE idx=$1", idx).Scan(&mask)
		if err != nil {
			if pg.IsNoRows(err) {
				return nil
			}
			return err
		}
		n.Fields = Mask(mask)
		n.SetNodeIdx(idx)

		var present []Field
		for f := Field(0); f < fieldCount; f++ {
			if f != FieldNodeIdx && n.Fields.Has(f) {
				present = append(present, f)
			}
		}
		if len(present) == 0 {
			return nil
		}
		cols := make([]string, len(present))
		dest := make([]any, len(present))
		for i, f := range present {
			cols[i] = columnName(f)
			dest[i] = scanDest(n, f)
		}
		q := fmt.Sprintf("SELECT %s FROM vault.Nodes WHERE idx=$1", strings.Join(cols, ", "))
		return pool.QueryRow(ctx, q, idx).Scan(dest...)
	})
	if chk.E(err) {
		return nil, err
	}
	return n, nil
}

// Update writes only the fields present in n's mask (true partial update);
// n.NodeIdx must be set. ModifyTime is always refreshed. The caller is
// responsible for the broadcast spec.md §4.7 requires on top of this.
func (s *Store) Update(ctx context.Context, n *Node, now uint32) error {
	if !n.Fields.Has(FieldNodeIdx) {
		return fmt.Errorf("vault: Update requires NodeIdx")
	}
	n.ModifyTime = now
	n.Set(FieldModifyTime)

	return s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		var existing int64
		if err := pool.QueryRow(ctx, "SELECT fields FROM vault.Nodes WHERE idx=$1", n.NodeIdx).Scan(&existing); err != nil {
			return err
		}
		sets := []string{"fields = fields | $1"}
		args := []any{int64(n.Fields)}
		for f := Field(0); f < fieldCount; f++ {
			if f == FieldNodeIdx || !n.Fields.Has(f) {
				continue
			}
			args = append(args, fieldValue(n, f))
			sets = append(sets, fmt.Sprintf("%s = $%d", columnName(f), len(args)))
		}
		args = append(args, n.NodeIdx)
		q := fmt.Sprintf("UPDATE vault.Nodes SET %s WHERE idx = $%d", strings.Join(sets, ", "), len(args))
		_, err := pool.Exec(ctx, q, args...)
		return err
	})
}

// Ref inserts (parent, child, owner) idempotently and reports whether a new
// edge was created.
func (s *Store) Ref(ctx context.Context, ref NodeRef) (created bool, err error) {
	err = s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		tag, e := pool.Exec(ctx,
			`INSERT INTO vault.NodeRefs (parent, child, owner) VALUES ($1, $2, $3)
			 ON CONFLICT (parent, child) DO NOTHING`,
			ref.Parent, ref.Child, ref.Owner)
		if e != nil {
			return e
		}
		created = tag.RowsAffected() > 0
		return nil
	})
	if chk.E(err) {
		return false, err
	}
	return created, nil
}

// Unref removes the (parent, child) edge and reports whether one existed.
func (s *Store) Unref(ctx context.Context, parent, child uint32) (removed bool, err error) {
	err = s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		tag, e := pool.Exec(ctx, "DELETE FROM vault.NodeRefs WHERE parent=$1 AND child=$2", parent, child)
		if e != nil {
			return e
		}
		removed = tag.RowsAffected() > 0
		return nil
	})
	if chk.E(err) {
		return false, err
	}
	return removed, nil
}

// Send links nodeIdx under toPlayer's Inbox folder, returning the zero
// NodeRef when no new edge was created (e.g. the link already existed).
func (s *Store) Send(ctx context.Context, nodeIdx, toPlayer, fromPlayer uint32) (NodeRef, error) {
	inbox, err := s.FindFolder(ctx, toPlayer, FolderInbox)
	if chk.E(err) {
		return NodeRef{}, err
	}
	if inbox == 0 {
		return NodeRef{}, fmt.Errorf("vault: player %d has no Inbox folder", toPlayer)
	}
	ref := NodeRef{Parent: inbox, Child: nodeIdx, Owner: fromPlayer}
	created, err := s.Ref(ctx, ref)
	if chk.E(err) {
		return NodeRef{}, err
	}
	if !created {
		return NodeRef{}, nil
	}
	return ref, nil
}

// FindFolder resolves the canonical folder of folderType under parent,
// matching the vault.find_folder PostgreSQL function (spec.md §6.6).
func (s *Store) FindFolder(ctx context.Context, parent uint32, folderType FolderType) (idx uint32, err error) {
	err = s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		row := pool.QueryRow(ctx, "SELECT vault.find_folder($1, $2)", parent, int32(folderType))
		e := row.Scan(&idx)
		if e != nil && pg.IsNoRows(e) {
			return nil
		}
		return e
	})
	if chk.E(err) {
		return 0, err
	}
	return idx, nil
}

// FetchTree does a breadth-first walk of every edge reachable from root, in
// discovery order, with a visited set on child ids to tolerate cycles.
func (s *Store) FetchTree(ctx context.Context, root uint32) ([]NodeRef, error) {
	var refs []NodeRef
	visited := map[uint32]bool{root: true}
	queue := []uint32{root}

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		var children []NodeRef
		err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
			rows, e := pool.Query(ctx, "SELECT parent, child, owner FROM vault.NodeRefs WHERE parent=$1", parent)
			if e != nil {
				return e
			}
			defer rows.Close()
			for rows.Next() {
				var r NodeRef
				if e := rows.Scan(&r.Parent, &r.Child, &r.Owner); e != nil {
					return e
				}
				children = append(children, r)
			}
			return rows.Err()
		})
		if chk.E(err) {
			return nil, err
		}

		for _, r := range children {
			refs = append(refs, r)
			if !visited[r.Child] {
				visited[r.Child] = true
				queue = append(queue, r.Child)
			}
		}
	}
	return refs, nil
}

// FindNodes returns every node idx whose stored fields are a superset of
// template's mask and agree, field by field, with template's values
// (case-insensitively for IString64_*), per spec.md §4.1, §8 invariant 3.
func (s *Store) FindNodes(ctx context.Context, template *Node) ([]uint32, error) {
	var ids []uint32
	err := s.pool.Query(ctx, func(pool *pgxpool.Pool) error {
		conds := []string{"(fields & $1) = $1"}
		args := []any{int64(template.Fields)}
		for f := Field(0); f < fieldCount; f++ {
			if !template.Fields.Has(f) {
				continue
			}
			args = append(args, fieldValue(template, f))
			col := columnName(f)
			if istringFields[f] {
				conds = append(conds, fmt.Sprintf("lower(%s) = lower($%d)", col, len(args)))
			} else {
				conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
			}
		}
		q := fmt.Sprintf("SELECT idx FROM vault.Nodes WHERE %s", strings.Join(conds, " AND "))
		rows, e := pool.Query(ctx, q, args...)
		if e != nil {
			return e
		}
		defer rows.Close()
		for rows.Next() {
			var idx uint32
			if e := rows.Scan(&idx); e != nil {
				return e
			}
			ids = append(ids, idx)
		}
		return rows.Err()
	})
	if chk.E(err) {
		return nil, err
	}
	return ids, nil
}

// HasEdgeTo reports whether there is a path of any length from ancestor to
// descendant, the "has-edge-to" check the broadcast fan-out rule needs
// (spec.md §4.5). It is a bounded BFS, not a recursive CTE, to keep the
// query shape identical to FetchTree's.
func (s *Store) HasEdgeTo(ctx context.Context, ancestor, descendant uint32) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}
	refs, err := s.FetchTree(ctx, ancestor)
	if chk.E(err) {
		return false, err
	}
	for _, r := range refs {
		if r.Child == descendant {
			return true, nil
		}
	}
	return false, nil
}
