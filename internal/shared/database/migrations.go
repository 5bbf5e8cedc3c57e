package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
)

// Migration is one schema file and the digest recorded when it is applied.
type Migration struct {
	Version  string
	File     string
	Checksum string
	SQL      string
}

// LoadMigrations reads every .sql file of fsys, ordered by base name so
// nested directories interleave by version prefix.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	files, err := MigrationFiles(fsys)
	if err != nil {
		return nil, err
	}
	migrations := make([]Migration, 0, len(files))
	for _, f := range files {
		content, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		sum := sha256.Sum256(content)
		migrations = append(migrations, Migration{
			Version:  path.Base(f),
			File:     f,
			Checksum: hex.EncodeToString(sum[:]),
			SQL:      string(content),
		})
	}
	return migrations, nil
}

// MigrationFiles lists the .sql files of fsys in apply order.
func MigrationFiles(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".sql") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(files, func(a, b string) int { return strings.Compare(path.Base(a), path.Base(b)) })
	return files, nil
}

// RunMigrations applies the migrations of fsys that schema_migrations does
// not list yet, each in its own transaction. An applied migration whose file
// has since changed is an error; the schema would no longer match the file.
func (db *DB) RunMigrations(ctx context.Context, fsys fs.FS) error {
	logger := slog.With("component", "migrations", "operation", "run")

	migrations, err := LoadMigrations(fsys)
	if err != nil {
		logger.Error("Failed to load migrations", "error", err)
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		checksum CHAR(64) NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		logger.Error("Failed to create migrations table", "error", err)
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		ok, err := db.applyMigration(ctx, m)
		if err != nil {
			logger.Error("Migration failed", "migration", m.Version, "error", err)
			return fmt.Errorf("migration %s: %w", m.Version, err)
		}
		if ok {
			applied++
		}
	}

	logger.Info("Migrations up to date", "total", len(migrations), "applied", applied)
	return nil
}

func (db *DB) applyMigration(ctx context.Context, m Migration) (bool, error) {
	logger := slog.With("component", "migrations", "operation", "apply", "migration", m.Version)

	var recorded string
	err := db.QueryRowContext(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", m.Version).Scan(&recorded)
	switch {
	case err == nil:
		if recorded != m.Checksum {
			return false, fmt.Errorf("checksum mismatch: recorded %s, file %s", recorded, m.Checksum)
		}
		logger.Debug("Migration already applied")
		return false, nil
	case err != sql.ErrNoRows:
		return false, err
	}

	logger.Info("Applying migration", "size_bytes", len(m.SQL))
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)", m.Version, m.Checksum)
		return err
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
