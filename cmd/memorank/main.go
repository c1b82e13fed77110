package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/conorfennell/memorank/internal/config"
	"github.com/conorfennell/memorank/internal/excel"
	"github.com/conorfennell/memorank/internal/fsrs"
	"github.com/conorfennell/memorank/internal/gitsource"
	"github.com/conorfennell/memorank/internal/storage"
	"github.com/conorfennell/memorank/internal/sync"
	"github.com/conorfennell/memorank/internal/web"
)

func main() {
	// 1. Define and parse command-line flags. The db and listen flags feed
	// into the layered config; the rest select an action.
	flags := pflag.NewFlagSet("memorank", pflag.ExitOnError)
	configPath := flags.String("config", "memorank.yaml", "Path to the YAML config file")
	flags.String("db", "memorank.db", "Path to the SQLite database file")
	flags.String("listen", ":8080", "Address for the web server to listen on")
	addSource := flags.String("add-source", "", "Register a card source (directory or git URL) and exit")
	importFile := flags.String("import-file", "", "Import card templates from an .xlsx or .csv file and exit")
	createUser := flags.String("create-user", "", "Create a named user and exit")
	runSync := flags.Bool("sync", false, "Sync all sources once and exit")
	flags.Parse(os.Args[1:])

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// 2. Load configuration: .env, then file, env vars and flags.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}
	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 3. Open the database.
	db, err := storage.Open(cfg.DB)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DB, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DB)

	// 4. Run the requested one-shot action, if any.
	switch {
	case *addSource != "":
		if err := addNewSource(db, *addSource); err != nil {
			slog.Error("failed to add source", "path", *addSource, "error", err)
			os.Exit(1)
		}
		return
	case *importFile != "":
		if err := importTemplates(db, *importFile); err != nil {
			slog.Error("import failed", "file", *importFile, "error", err)
			os.Exit(1)
		}
		return
	case *createUser != "":
		if err := createNewUser(db, *createUser); err != nil {
			slog.Error("failed to create user", "name", *createUser, "error", err)
			os.Exit(1)
		}
		return
	case *runSync:
		if err := sync.RunSync(db); err != nil {
			slog.Error("sync failed", "error", err)
			os.Exit(1)
		}
		slog.Info("sync complete")
		return
	}

	// 5. Default action: serve the web UI with periodic background sync.
	serve(db, cfg)
}

func serve(db *storage.DB, cfg *config.Config) {
	scheduler, err := fsrs.NewScheduler(cfg.SchedulerConfig())
	if err != nil {
		slog.Error("invalid scheduler configuration", "error", err)
		os.Exit(1)
	}

	if cfg.SyncInterval > 0 {
		periodic := sync.NewPeriodic(db)
		if err := periodic.Start(cfg.SyncInterval); err != nil {
			slog.Error("failed to start periodic sync", "error", err)
			os.Exit(1)
		}
		defer periodic.Stop()
		slog.Info("periodic sync started", "interval", cfg.SyncInterval)
	}

	server := web.NewServer(db, scheduler, cfg.Order(), cfg.BatchSize)
	slog.Info("starting web server", "listen", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, server); err != nil {
		slog.Error("web server stopped", "error", err)
		os.Exit(1)
	}
}

func addNewSource(db *storage.DB, path string) error {
	sourceType := "local"
	if gitsource.IsGitURL(path) {
		sourceType = "git"
	}
	id, err := db.InsertSource(path, sourceType)
	if err != nil {
		return err
	}
	slog.Info("source added", "id", id, "path", path, "type", sourceType)
	return nil
}

func importTemplates(db *storage.DB, path string) error {
	importCfg := excel.DefaultImportConfig()
	importCfg.FilePath = path
	result, err := excel.ImportTemplates(db, importCfg)
	if err != nil {
		return err
	}
	fmt.Printf("Processed %d rows: %d created, %d skipped.\n",
		result.TotalProcessed, result.Created, result.Skipped)
	if len(result.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range result.Errors {
			fmt.Printf("- %s\n", e)
		}
	}
	return nil
}

func createNewUser(db *storage.DB, name string) error {
	now := time.Now()
	user, err := db.CreateUser(name, now)
	if err != nil {
		return err
	}
	seeded, err := db.SeedMissingCardStates(user.ID, now)
	if err != nil {
		return err
	}
	slog.Info("user created", "id", user.ID, "name", user.Name, "cards", seeded)
	return nil
}
