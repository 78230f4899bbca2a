// Package sync pulls word-list sources into the card store. New words
// become immediately-due cards; cards already seeded are left alone so
// review progress is never overwritten.
package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/declanmg/vocabdeck/internal/gitsource"
	"github.com/declanmg/vocabdeck/internal/storage"
	"github.com/declanmg/vocabdeck/internal/wordlist"
)

// ReposDir is where git sources are checked out.
const ReposDir = "repos"

// RunSync reconciles every registered source.
func RunSync(db *storage.DB) error {
	slog.Info("starting sync for all word-list sources")
	sources, err := db.AllSources()
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("no sources configured")
		return nil
	}

	if err := os.MkdirAll(ReposDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		localPath := source.Path
		if source.Type == "git" {
			localPath, err = gitURLToLocalPath(ReposDir, source.Path)
			if err != nil {
				slog.Error("cannot determine local path for git source", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localPath); err != nil {
				slog.Error("failed to sync git source", "url", source.Path, "error", err)
				continue
			}
		}

		seedFromDirectory(db, source, localPath)
	}
	slog.Info("sync complete")
	return nil
}

func seedFromDirectory(db *storage.DB, source storage.Source, dir string) {
	var parsed, inserted, failed int

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		entries, parseErr := wordlist.ParseFile(path)
		if parseErr != nil {
			slog.Warn("failed to parse word list", "path", path, "error", parseErr)
			failed++
			return nil
		}
		parsed += len(entries)

		for _, entry := range entries {
			exists, err := db.CardExists(source.OwnerID, source.DeckID, entry.Word)
			if err != nil {
				slog.Warn("failed to check for existing card", "word", entry.Word, "error", err)
				failed++
				continue
			}
			if exists {
				continue
			}
			if _, err := db.CreateCard(source.OwnerID, source.DeckID, entry.Word, entry.Meaning); err != nil {
				slog.Warn("failed to insert seeded card", "word", entry.Word, "error", err)
				failed++
				continue
			}
			inserted++
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("failed to walk source directory", "path", dir, "error", walkErr)
		return
	}

	if err := db.UpdateSourceLastSynced(source.ID); err != nil {
		slog.Warn("failed to record sync time", "source_id", source.ID, "error", err)
	}

	slog.Info("source reconciled",
		"path", dir,
		"parsed_entries", parsed,
		"new_cards", inserted,
		"errors", failed,
	)
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err == nil && (parsedURL.Scheme == "https" || parsedURL.Scheme == "http") {
		sanitized := strings.TrimSuffix(parsedURL.Path, ".git")
		return filepath.Join(baseDir, parsedURL.Host, sanitized), nil
	}

	// scp-like syntax: git@host:user/repo.git
	if strings.Contains(repoURL, "@") {
		parts := strings.SplitN(repoURL, ":", 2)
		if len(parts) == 2 {
			hostAndUser := strings.SplitN(parts[0], "@", 2)
			if len(hostAndUser) == 2 {
				repoPath := strings.TrimSuffix(parts[1], ".git")
				return filepath.Join(baseDir, hostAndUser[1], repoPath), nil
			}
		}
	}

	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
