// Package sync reconciles configured template sources with the database and
// seeds card states for every user.
package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/memorank/internal/cardhash"
	"github.com/conorfennell/memorank/internal/domain"
	"github.com/conorfennell/memorank/internal/gitsource"
	"github.com/conorfennell/memorank/internal/parser"
	"github.com/conorfennell/memorank/internal/storage"
)

// ReposDir is where git sources are checked out locally.
const ReposDir = "repos"

// RunSync iterates over all sources, reconciles their templates, and seeds
// New card states for every user so freshly added templates are studyable.
func RunSync(db *storage.DB) error {
	slog.Info("starting sync process for all sources")
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("no sources configured; add one with --add-source <path/or/url.git>")
		return nil
	}

	if err := os.MkdirAll(ReposDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		sourceToReconcile := source

		switch source.Type {
		case "git":
			localRepoPath, err := gitURLToLocalPath(ReposDir, source.Path)
			if err != nil {
				slog.Error("error determining local path for git repo", "url", source.Path, "error", err)
				continue
			}

			if err := gitsource.Sync(source.Path, localRepoPath); err != nil {
				slog.Error("error syncing git repo", "url", source.Path, "error", err)
				continue
			}

			sourceToReconcile.Path = localRepoPath
			reconcileLocalSource(db, &sourceToReconcile)

		default:
			reconcileLocalSource(db, &sourceToReconcile)
		}
	}

	if err := seedAllUsers(db); err != nil {
		return err
	}

	slog.Info("sync process complete")
	return nil
}

// seedAllUsers creates New card states for every (user, template) pair that
// is missing one.
func seedAllUsers(db *storage.DB) error {
	users, err := db.GetAllUsers()
	if err != nil {
		return fmt.Errorf("failed to get users for seeding: %w", err)
	}
	now := time.Now()
	for _, u := range users {
		created, err := db.SeedMissingCardStates(u.ID, now)
		if err != nil {
			return fmt.Errorf("failed to seed card states for user %s: %w", u.ID, err)
		}
		if created > 0 {
			slog.Info("seeded new card states", "user", u.Name, "created", created)
		}
	}
	return nil
}

func reconcileLocalSource(db *storage.DB, source *storage.Source) {
	var parsedTemplates []domain.Template
	var parseErrors []error
	foundHashes := make(map[string]bool)

	walkErr := filepath.WalkDir(source.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			fileTemplates, parseErr := parser.ParseFile(path)
			if parseErr != nil {
				parseErrors = append(parseErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
			}
			for _, tpl := range fileTemplates {
				tpl.Hash = cardhash.Hash(tpl)
				tpl.SourceID = source.ID
				parsedTemplates = append(parsedTemplates, tpl)
				foundHashes[tpl.Hash] = true

				existing, findErr := db.FindTemplateByHash(tpl.Hash)
				if findErr != nil {
					parseErrors = append(parseErrors, fmt.Errorf("db check for %s: %w", tpl.Hash, findErr))
					continue
				}
				if existing == nil {
					slog.Info("new template found, inserting", "hash", tpl.Hash)
					if insertErr := db.InsertTemplate(tpl); insertErr != nil {
						parseErrors = append(parseErrors, fmt.Errorf("db insert for %s: %w", tpl.Hash, insertErr))
					}
				}
			}
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("error walking directory", "path", source.Path, "error", walkErr)
		return
	}

	dbTemplates, err := db.GetTemplatesBySourceID(source.ID)
	if err != nil {
		slog.Error("error getting templates for source", "source_id", source.ID, "error", err)
		return
	}

	var orphaned int
	for _, tpl := range dbTemplates {
		if _, found := foundHashes[tpl.Hash]; !found {
			slog.Info("orphaned template, deleting", "hash", tpl.Hash)
			orphaned++
			if err := db.DeleteTemplateByHash(tpl.Hash); err != nil {
				slog.Warn("failed to delete orphaned template", "hash", tpl.Hash, "error", err)
			}
		}
	}

	if err := db.UpdateSourceLastScanned(source.ID, time.Now()); err != nil {
		slog.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"parsed_templates", len(parsedTemplates),
		"orphaned_deleted", orphaned,
		"errors", len(parseErrors),
	)
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
