package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/base64"
	"fmt"

	_ "github.com/lib/pq"

	"estate-notify-go/internal/platform"
)

//go:embed schema.sql
var schemaSQL string

// PostgresProfileStore persists device profiles in PostgreSQL, one row per
// named profile. The profile key lets several agents (different identities
// or environments) share one database.
type PostgresProfileStore struct {
	db         *sql.DB
	profileKey string
}

func NewPostgresProfileStore(databaseURL, profileKey string) (*PostgresProfileStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if profileKey == "" {
		profileKey = "default"
	}
	return &PostgresProfileStore{db: db, profileKey: profileKey}, nil
}

// RunMigrations creates tables if they don't exist and applies schema updates.
func (s *PostgresProfileStore) RunMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return err
	}

	// Updates for tables created by earlier builds.
	migrations := []string{
		`ALTER TABLE device_profiles ADD COLUMN IF NOT EXISTS worker_scope VARCHAR(255);`,
		`ALTER TABLE device_profiles ADD COLUMN IF NOT EXISTS updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW();`,
	}
	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func (s *PostgresProfileStore) Load(ctx context.Context) (*platform.Profile, error) {
	var (
		permission   string
		workerScript sql.NullString
		workerScope  sql.NullString
		endpoint     sql.NullString
		p256dh       sql.NullString
		auth         sql.NullString
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT permission, worker_script, worker_scope, endpoint, p256dh, auth
		 FROM device_profiles WHERE profile_key = $1`,
		s.profileKey,
	).Scan(&permission, &workerScript, &workerScope, &endpoint, &p256dh, &auth)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	profile := &platform.Profile{
		Permission:   platform.PermissionState(permission),
		WorkerScript: workerScript.String,
		WorkerScope:  workerScope.String,
	}

	if endpoint.Valid && endpoint.String != "" {
		p256dhRaw, err := base64.StdEncoding.DecodeString(p256dh.String)
		if err != nil {
			return nil, fmt.Errorf("decode stored p256dh: %w", err)
		}
		authRaw, err := base64.StdEncoding.DecodeString(auth.String)
		if err != nil {
			return nil, fmt.Errorf("decode stored auth: %w", err)
		}
		profile.Subscription = &platform.Subscription{
			Endpoint: endpoint.String,
			P256dh:   p256dhRaw,
			Auth:     authRaw,
		}
	}

	return profile, nil
}

func (s *PostgresProfileStore) Save(ctx context.Context, p *platform.Profile) error {
	var endpoint, p256dh, auth sql.NullString
	if p.Subscription != nil {
		endpoint = sql.NullString{String: p.Subscription.Endpoint, Valid: true}
		p256dh = sql.NullString{String: base64.StdEncoding.EncodeToString(p.Subscription.P256dh), Valid: true}
		auth = sql.NullString{String: base64.StdEncoding.EncodeToString(p.Subscription.Auth), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO device_profiles (profile_key, permission, worker_script, worker_scope, endpoint, p256dh, auth, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 ON CONFLICT (profile_key) DO UPDATE SET
		   permission = EXCLUDED.permission,
		   worker_script = EXCLUDED.worker_script,
		   worker_scope = EXCLUDED.worker_scope,
		   endpoint = EXCLUDED.endpoint,
		   p256dh = EXCLUDED.p256dh,
		   auth = EXCLUDED.auth,
		   updated_at = NOW()`,
		s.profileKey, string(p.Permission), p.WorkerScript, p.WorkerScope, endpoint, p256dh, auth,
	)
	return err
}
