package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tripline/internal/api"
	"tripline/internal/config"
	"tripline/internal/database"
	"tripline/internal/database/repository"
	"tripline/internal/service"
	"tripline/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}

	if err := database.RunMigrations(cfg.Database.Path, "internal/database/migrations"); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	sessions := repository.NewSessionRepo(db)
	if err := sessions.EnsureDefault(ctx, cfg.Session.DefaultUserID, cfg.Session.DefaultRole); err != nil {
		log.Fatalf("seed session: %v", err)
	}
	session, err := sessions.Current(ctx)
	if err != nil {
		log.Fatalf("read session: %v", err)
	}
	if session == nil {
		log.Fatal("no stored session; set TRIPLINE_SESSION_DEFAULT_USER_ID or log in first")
	}

	client := api.New(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second)

	queries := service.NewTripQueries(client)
	assigner := service.NewAssigner(client)
	offloader := service.NewOffloading(client)

	loc, err := time.LoadLocation(cfg.UI.Timezone)
	if err != nil {
		log.Printf("warn: using local timezone due to load failure: %v", err)
		loc = time.Local
	}

	p := tea.NewProgram(
		tui.New(ctx, cfg, queries, assigner, offloader, session.UserID, session.Role, loc),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}
