package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when no package with the name is indexed.
var ErrNotFound = errors.New("package not indexed")

// List returns all indexed packages ordered by name, modules in declared
// order.
func (s *Store) List(ctx context.Context) ([]Package, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, version, root, indexed_at FROM packages ORDER BY name, root`)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	defer rows.Close()

	var pkgs []Package
	for rows.Next() {
		var p Package
		var indexedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Version, &p.Root, &indexedAt); err != nil {
			return nil, fmt.Errorf("scanning package row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, indexedAt); err == nil {
			p.IndexedAt = t
		}
		pkgs = append(pkgs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range pkgs {
		mods, err := s.modulesOf(ctx, pkgs[i].ID)
		if err != nil {
			return nil, err
		}
		pkgs[i].Modules = mods
	}
	return pkgs, nil
}

// Get returns one indexed package by name. When several roots carry the
// same package name the lexically smallest root wins, matching List order.
func (s *Store) Get(ctx context.Context, name string) (*Package, error) {
	var p Package
	var indexedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, version, root, indexed_at FROM packages WHERE name = ? ORDER BY root LIMIT 1`,
		name,
	).Scan(&p.ID, &p.Name, &p.Version, &p.Root, &indexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading package %q: %w", name, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, indexedAt); err == nil {
		p.IndexedAt = t
	}

	mods, err := s.modulesOf(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Modules = mods
	return &p, nil
}

func (s *Store) modulesOf(ctx context.Context, packageID string) ([]Module, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, form FROM modules WHERE package_id = ? ORDER BY position`, packageID)
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}
	defer rows.Close()

	var mods []Module
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.Name, &m.Form); err != nil {
			return nil, fmt.Errorf("scanning module row: %w", err)
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}
