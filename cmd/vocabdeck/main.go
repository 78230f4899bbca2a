package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/declanmg/vocabdeck/internal/config"
	"github.com/declanmg/vocabdeck/internal/storage"
	"github.com/declanmg/vocabdeck/internal/sync"
	"github.com/declanmg/vocabdeck/internal/web"
)

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		slog.Error("failed to parse flags", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("failed to resolve time zone", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	if syncOnly, _ := flags.GetBool("sync"); syncOnly {
		if err := sync.RunSync(db); err != nil {
			slog.Error("sync failed", "error", err)
			os.Exit(1)
		}
		return
	}

	server := web.NewServer(db, loc)
	slog.Info("listening", "addr", cfg.Addr, "timezone", cfg.Timezone)
	if err := http.ListenAndServe(cfg.Addr, server); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
