package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/conorfennell/memorank/internal/storage"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestImportTemplatesFromCSV(t *testing.T) {
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	defer db.Close()

	csv := "front,back,category\n" +
		"What is Go?,A programming language,go\n" +
		",missing front,go\n" +
		"What is SQL?,A query language,sql\n"

	cfg := DefaultImportConfig()
	cfg.FilePath = writeCSV(t, csv)

	result, err := ImportTemplates(db, cfg)
	if err != nil {
		t.Fatalf("ImportTemplates: %v", err)
	}

	if result.Created != 2 {
		t.Errorf("Created = %d, want 2", result.Created)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (row with empty front)", result.Skipped)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}

	// Re-importing the same file only skips.
	result, err = ImportTemplates(db, cfg)
	if err != nil {
		t.Fatalf("ImportTemplates (repeat): %v", err)
	}
	if result.Created != 0 {
		t.Errorf("repeat import created %d templates, want 0", result.Created)
	}
}
