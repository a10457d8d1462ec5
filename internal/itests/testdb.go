package itests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/db"
)

// DeriveTestDSN swaps the database name for a throwaway "legal_test"
// and prepares an admin DSN against the "postgres" database.
func DeriveTestDSN(baseDSN string) (testDSN, adminDSN, testDBName string, err error) {
	u, e := url.Parse(baseDSN)
	if e != nil {
		return "", "", "", fmt.Errorf("parse DSN: %w", e)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", "", "", errors.New("only URL DSN supported: postgres://...")
	}

	// safety: refuse remote hosts for tests
	if host := u.Hostname(); host != "localhost" && host != "127.0.0.1" {
		return "", "", "", fmt.Errorf("refuse non-local host for tests: %s", host)
	}

	u.Path = "/legal_test"
	testDBName = "legal_test"
	testDSN = u.String()

	u.Path = "/postgres"
	adminDSN = u.String()

	return testDSN, adminDSN, testDBName, nil
}

func CreateTestDatabase(adminDSN, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	var exists bool
	if err := conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname=$1)`, dbName,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = conn.ExecContext(ctx, `CREATE DATABASE `+pqIdent(dbName))
	return err
}

func DropTestDatabase(adminDSN, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	// kill active connections to the test database first
	_, _ = conn.ExecContext(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`, dbName)

	_, err = conn.ExecContext(ctx, `DROP DATABASE IF EXISTS `+pqIdent(dbName))
	return err
}

func pqIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// SetupTestDB creates the throwaway database, applies the repo's
// migrations and connects the shared pool to it. The returned teardown
// closes the pool and drops the database.
func SetupTestDB(baseDSN string) (teardown func(), err error) {
	testDSN, adminDSN, dbName, err := DeriveTestDSN(baseDSN)
	if err != nil {
		return nil, err
	}
	if err := CreateTestDatabase(adminDSN, dbName); err != nil {
		return nil, fmt.Errorf("create test db: %w", err)
	}

	root, err := internal.FindRepoRoot()
	if err != nil {
		return nil, fmt.Errorf("repo root not found: %w", err)
	}
	if err := db.Migrate(testDSN, filepath.Join(root, "migrations")); err != nil {
		return nil, err
	}

	if err := db.InitPostgres(context.Background(), testDSN); err != nil {
		return nil, err
	}

	return func() {
		db.ClosePostgres()
		_ = DropTestDatabase(adminDSN, dbName)
	}, nil
}
