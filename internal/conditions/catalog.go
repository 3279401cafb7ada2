package conditions

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/specialistvlad/procgrid/internal/ctxlog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Alias is a catalog entry.
type Alias struct {
	Alias       string `json:"alias" yaml:"alias"`
	GlobalTag   string `json:"global_tag" yaml:"global_tag"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Catalog is a SQLite-backed alias store.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if needed) the catalog at path and migrates
// its schema to the latest version.
func OpenCatalog(ctx context.Context, path string) (*Catalog, error) {
	logger := ctxlog.FromContext(ctx)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open conditions catalog %s: %w", path, err)
	}
	// A single connection keeps in-memory databases coherent.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("Conditions catalog ready.", "path", path)
	return &Catalog{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load catalog migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	// The migrate instance is not closed because that would close db.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("catalog migration up failed: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Put inserts or replaces an alias.
func (c *Catalog) Put(ctx context.Context, a Alias) error {
	if a.Alias == "" || a.GlobalTag == "" {
		return fmt.Errorf("alias and global tag are required")
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO conditions_aliases (alias, global_tag, description)
		VALUES (?, ?, ?)
		ON CONFLICT(alias) DO UPDATE SET
			global_tag = excluded.global_tag,
			description = excluded.description,
			updated_at = CURRENT_TIMESTAMP
	`, a.Alias, a.GlobalTag, a.Description)
	if err != nil {
		return fmt.Errorf("failed to store alias %q: %w", a.Alias, err)
	}
	return nil
}

// Import stores every alias of the map, leaving descriptions empty.
func (c *Catalog) Import(ctx context.Context, aliases map[string]string) error {
	for alias, tag := range aliases {
		if err := c.Put(ctx, Alias{Alias: alias, GlobalTag: tag}); err != nil {
			return err
		}
	}
	return nil
}

// List returns every alias ordered by name.
func (c *Catalog) List(ctx context.Context) ([]Alias, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT alias, global_tag, description FROM conditions_aliases ORDER BY alias`)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	defer rows.Close()

	var out []Alias
	for rows.Next() {
		var a Alias
		if err := rows.Scan(&a.Alias, &a.GlobalTag, &a.Description); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Resolve implements Resolver.
func (c *Catalog) Resolve(ctx context.Context, requested string) (Resolved, error) {
	return resolveWith(requested, func(alias string) (string, bool, error) {
		var tag string
		err := c.db.QueryRowContext(ctx, `SELECT global_tag FROM conditions_aliases WHERE alias = ?`, alias).Scan(&tag)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return "", false, nil
		case err != nil:
			return "", false, fmt.Errorf("failed to look up alias %q: %w", alias, err)
		}
		return tag, true, nil
	})
}
