package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/elems-lang/elems/manifest"
)

// Package is one indexed package with its modules in declared order.
type Package struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Root      string    `json:"root"`
	IndexedAt time.Time `json:"indexed_at"`
	Modules   []Module  `json:"modules"`
}

// Module is one indexed module. Form records how the implementation was
// found: "dialect", "source", or "missing" when the manifest lists a
// module with no implementation file.
type Module struct {
	Name string `json:"name"`
	Form string `json:"form"`
}

// Record indexes one package, replacing any previous record for the same
// root. Forms maps module name to implementation form; modules absent
// from the map are recorded as "missing".
func (s *Store) Record(ctx context.Context, man *manifest.Manifest, forms map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM packages WHERE root = ?`, man.Root); err != nil {
		return fmt.Errorf("clearing previous record: %w", err)
	}

	id := s.newID()
	indexedAt := s.now().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO packages (id, name, version, root, indexed_at) VALUES (?, ?, ?, ?, ?)`,
		id, man.Name, man.Version, man.Root, indexedAt,
	); err != nil {
		return fmt.Errorf("inserting package %q: %w", man.Name, err)
	}

	for pos, mod := range man.Modules {
		form := forms[mod]
		if form == "" {
			form = "missing"
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO modules (package_id, position, name, form) VALUES (?, ?, ?, ?)`,
			id, pos, mod, form,
		); err != nil {
			return fmt.Errorf("inserting module %q: %w", mod, err)
		}
	}

	return tx.Commit()
}
