package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationCommand selects the goose operation run by Migrate
type MigrationCommand string

const (
	MigrateUp     MigrationCommand = "up"
	MigrateDown   MigrationCommand = "down"
	MigrateStatus MigrationCommand = "status"
)

// MigrationReport describes one migration touched or inspected by Migrate
type MigrationReport struct {
	Version int64
	Path    string
	Applied bool
	Detail  string
}

// Migrations returns the embedded migration files, rooted at the migrations directory.
func Migrations() (fs.FS, error) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return sub, nil
}

// Migrate runs a goose command against the database behind db.
func (db *DB) Migrate(ctx context.Context, cmd MigrationCommand) ([]MigrationReport, error) {
	fsys, err := Migrations()
	if err != nil {
		return nil, err
	}

	sqlDB := stdlib.OpenDBFromPool(db.pool)
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	switch cmd {
	case MigrateUp:
		results, err := provider.Up(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		reports := make([]MigrationReport, 0, len(results))
		for _, r := range results {
			reports = append(reports, resultReport(r, true))
		}
		return reports, nil
	case MigrateDown:
		result, err := provider.Down(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to roll back migration: %w", err)
		}
		return []MigrationReport{resultReport(result, false)}, nil
	case MigrateStatus:
		statuses, err := provider.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration status: %w", err)
		}
		reports := make([]MigrationReport, 0, len(statuses))
		for _, s := range statuses {
			report := MigrationReport{Applied: s.State == goose.StateApplied, Detail: string(s.State)}
			if s.Source != nil {
				report.Version = s.Source.Version
				report.Path = s.Source.Path
			}
			if report.Applied {
				report.Detail = "applied " + s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			reports = append(reports, report)
		}
		return reports, nil
	default:
		return nil, fmt.Errorf("unknown migration command %q (want up, down, or status)", cmd)
	}
}

func resultReport(r *goose.MigrationResult, applied bool) MigrationReport {
	report := MigrationReport{Applied: applied}
	if r == nil {
		return report
	}
	if r.Source != nil {
		report.Version = r.Source.Version
		report.Path = r.Source.Path
	}
	report.Detail = fmt.Sprintf("%s in %s", r.Direction, r.Duration)
	if r.Empty {
		report.Detail += " (empty)"
	}
	return report
}
