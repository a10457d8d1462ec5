package itests

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/config"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/db"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/handler"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/resource"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/router"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/store"
)

var (
	testBaseURL string
	skipReason  string
)

func skipWithoutDB(t *testing.T) {
	t.Helper()
	if skipReason != "" {
		t.Skip(skipReason)
	}
}

// TestMain spins up the full stack against a throwaway local database.
// Set ITESTS=1 (and POSTGRES_DSN when not using the default) to run.
func TestMain(m *testing.M) {
	if os.Getenv("ITESTS") != "1" {
		skipReason = "integration tests disabled; set ITESTS=1 to enable"
		os.Exit(m.Run())
	}

	cfg := config.LoadConfig()

	teardownDB, err := SetupTestDB(cfg.PostgresDSN)
	if err != nil {
		println("setup test DB failed:", err.Error())
		os.Exit(1)
	}

	root, err := internal.FindRepoRoot()
	if err != nil {
		teardownDB()
		println("FindRepoRoot failed:", err.Error())
		os.Exit(1)
	}
	if err := resource.InitRegistry(filepath.Join(root, "resources")); err != nil {
		teardownDB()
		println("InitRegistry failed:", err.Error())
		os.Exit(1)
	}

	h := handler.New(store.New(db.Pool))
	r, err := router.New(cfg, h)
	if err != nil {
		teardownDB()
		println("router init failed:", err.Error())
		os.Exit(1)
	}

	srv := httptest.NewServer(r)
	testBaseURL = srv.URL

	code := m.Run()

	srv.Close()
	teardownDB()
	os.Exit(code)
}
