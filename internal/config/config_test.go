package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB != "memorank.db" || cfg.Listen != ":8080" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", cfg.BatchSize)
	}
	if cfg.FSRS.DesiredRetention != 0.9 {
		t.Errorf("DesiredRetention = %g, want 0.9", cfg.FSRS.DesiredRetention)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
db: /tmp/test.db
batch_size: 5
curriculum:
  - go
  - sql
fsrs:
  desired_retention: 0.85
  learning_steps: [2m, 15m]
`
	path := filepath.Join(t.TempDir(), "memorank.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB != "/tmp/test.db" {
		t.Errorf("DB = %q", cfg.DB)
	}
	if cfg.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.BatchSize)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("Listen should keep its default, got %q", cfg.Listen)
	}
	if cfg.FSRS.DesiredRetention != 0.85 {
		t.Errorf("DesiredRetention = %g, want 0.85", cfg.FSRS.DesiredRetention)
	}
	if len(cfg.FSRS.LearningSteps) != 2 || cfg.FSRS.LearningSteps[0] != 2*time.Minute {
		t.Errorf("LearningSteps = %v", cfg.FSRS.LearningSteps)
	}
	order := cfg.Order()
	if order.Rank("go") != 0 || order.Rank("sql") != 1 {
		t.Errorf("curriculum order not applied: %v", order)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MEMORANK_LISTEN", ":9999")
	t.Setenv("MEMORANK_FSRS__DESIRED_RETENTION", "0.8")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":9999" {
		t.Errorf("Listen = %q, want :9999", cfg.Listen)
	}
	if cfg.FSRS.DesiredRetention != 0.8 {
		t.Errorf("DesiredRetention = %g, want 0.8", cfg.FSRS.DesiredRetention)
	}
}

func TestLoadFromFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "database path")
	if err := flags.Parse([]string{"--db", "/tmp/flagged.db"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB != "/tmp/flagged.db" {
		t.Errorf("DB = %q, want /tmp/flagged.db", cfg.DB)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("MEMORANK_BATCH_SIZE", "0")
	if _, err := Load("", nil); err == nil {
		t.Error("Load should reject batch_size 0")
	}
}
