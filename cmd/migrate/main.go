package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cafe-be/internal/config"
	"cafe-be/internal/db"
	"cafe-be/internal/logger"

	"go.uber.org/zap"
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up, down or status")
	dir := flag.String("dir", "./migrations", "directory holding the .sql migrations")
	steps := flag.Int("steps", 1, "number of migrations to roll back in down mode")
	flag.Parse()

	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv, cfg.LogLevel)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	m := &migrator{db: database, dir: *dir, out: os.Stdout}
	if err := m.run(context.Background(), *mode, *steps); err != nil {
		logger.L().Fatal("migration failed", zap.String("mode", *mode), zap.Error(err))
	}
}

// migration is one file under the migrations directory. Files apply in
// lexical order, so names carry a zero padded sequence prefix.
type migration struct {
	version string
	path    string
}

func (m migration) section(name string) (string, error) {
	content, err := os.ReadFile(m.path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", m.path, err)
	}
	return extractMigrationPart(string(content), name), nil
}

type migrator struct {
	db  *sql.DB
	dir string
	out io.Writer
}

func (m *migrator) run(ctx context.Context, mode string, steps int) error {
	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	files, err := m.discover()
	if err != nil {
		return err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	switch mode {
	case "up":
		return m.up(ctx, files, applied)
	case "down":
		return m.down(ctx, files, applied, steps)
	case "status":
		return m.status(files, applied)
	}
	return fmt.Errorf("unknown mode: %s (use up, down or status)", mode)
}

func (m *migrator) discover() ([]migration, error) {
	paths, err := filepath.Glob(filepath.Join(m.dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	sort.Strings(paths)

	files := make([]migration, 0, len(paths))
	for _, p := range paths {
		files = append(files, migration{version: filepath.Base(p), path: p})
	}
	return files, nil
}

// applied returns the recorded versions, most recent first.
func (m *migrator) applied(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT version FROM schema_migrations ORDER BY applied_at DESC, version DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// up applies every pending file, each in its own transaction together with
// its schema_migrations row.
func (m *migrator) up(ctx context.Context, files []migration, applied []string) error {
	log := logger.L()
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	count := 0
	for _, f := range files {
		if done[f.version] {
			continue
		}
		stmt, err := f.section("Up")
		if err != nil {
			return err
		}

		log.Info("applying migration", zap.String("version", f.version))
		err = db.WithTx(ctx, m.db, nil, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s failed: %w", f.version, err)
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, f.version)
			return err
		})
		if err != nil {
			return err
		}
		count++
	}

	log.Info("migrations up to date", zap.Int("applied", count), zap.Int("files", len(files)))
	return nil
}

// down rolls back the latest steps applied migrations, newest first.
func (m *migrator) down(ctx context.Context, files []migration, applied []string, steps int) error {
	log := logger.L()
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1, got %d", steps)
	}
	if len(applied) == 0 {
		log.Info("no migrations to roll back")
		return nil
	}

	byVersion := make(map[string]migration, len(files))
	for _, f := range files {
		byVersion[f.version] = f
	}

	for _, version := range applied[:min(steps, len(applied))] {
		f, ok := byVersion[version]
		if !ok {
			return fmt.Errorf("migration file not found for version: %s", version)
		}
		stmt, err := f.section("Down")
		if err != nil {
			return err
		}

		log.Info("rolling back migration", zap.String("version", version))
		err = db.WithTx(ctx, m.db, nil, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("rollback %s failed: %w", version, err)
			}
			_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, version)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *migrator) status(files []migration, applied []string) error {
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	for _, f := range files {
		state := "pending"
		if done[f.version] {
			state = "applied"
		}
		fmt.Fprintf(m.out, "%-8s %s\n", state, f.version)
	}
	return nil
}

// extractMigrationPart returns the lines between "-- +migrate <section>" and
// the next "-- +migrate" marker.
func extractMigrationPart(content, section string) string {
	var part strings.Builder
	in := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-- +migrate") {
			if in {
				break
			}
			in = trimmed == "-- +migrate "+section
			continue
		}
		if in {
			part.WriteString(line)
			part.WriteByte('\n')
		}
	}
	return part.String()
}
