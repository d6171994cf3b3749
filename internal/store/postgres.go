package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres reads and writes route polylines in the routes table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) RoutePolyline(ctx context.Context, tenantID, routeID string) (string, error) {
	var enc sql.NullString
	err := p.db.QueryRowContext(ctx, `SELECT polyline FROM routes WHERE tenant_id=$1 AND id=$2`, tenantID, routeID).Scan(&enc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	// a route without geometry decodes to no points
	return enc.String, nil
}

func (p *Postgres) SaveRoutePolyline(ctx context.Context, tenantID, routeID, encoded string) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO routes (tenant_id, id, polyline, updated_at) VALUES ($1,$2,$3,now())
        ON CONFLICT (tenant_id, id) DO UPDATE SET polyline=EXCLUDED.polyline, updated_at=now()`, tenantID, routeID, encoded)
	return err
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// MigrateDir applies every *.sql file in dir in lexical order. Statements
// must be idempotent.
func (p *Postgres) MigrateDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		body, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := p.db.Exec(string(body)); err != nil {
			return fmt.Errorf("migrate %s: %w", filepath.Base(f), err)
		}
	}
	return nil
}
