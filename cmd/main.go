package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/config"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/db"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/handler"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/logger"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/resource"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/router"
	"github.com/ahmedhelmy200-rgb/ahmed-helmy-legal/internal/store"
)

func main() {
	debugFlag := flag.Bool("d", false, "enable debug logging")
	flag.Parse()

	cfg := config.LoadConfig()
	if err := logger.Init("."); err != nil {
		fmt.Fprintf(os.Stderr, "log init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	logger.SetDebug(*debugFlag)

	// PostgreSQL
	if err := db.InitPostgres(context.Background(), cfg.PostgresDSN); err != nil {
		logger.Error("postgres_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer db.ClosePostgres()
	logger.Info("postgres_connected", nil)

	if err := db.Migrate(cfg.PostgresDSN, cfg.MigrationsDir); err != nil {
		logger.Error("migrate_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("migrations_applied", nil)

	// Resource registry
	if err := resource.InitRegistry(cfg.ResourcesDir); err != nil {
		logger.Error("registry_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("resources_initialized", map[string]any{"count": len(resource.Registry)})

	h := handler.New(store.New(db.Pool))
	r, err := router.New(cfg, h)
	if err != nil {
		logger.Error("router_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	logger.Info("server_start", map[string]any{"port": cfg.Port})
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Error("server_error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
