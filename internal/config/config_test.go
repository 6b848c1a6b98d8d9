package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Collection.BatchSize != 5 {
		t.Errorf("expected batch size 5, got %d", cfg.Collection.BatchSize)
	}
	if cfg.Collection.BatchDelay.Std() != 2*time.Second {
		t.Errorf("expected 2s batch delay, got %v", cfg.Collection.BatchDelay.Std())
	}
	if cfg.Scoring.GovBoost != 0.2 {
		t.Errorf("expected .gov boost of 0.2, got %v", cfg.Scoring.GovBoost)
	}
	if cfg.Scoring.CalendarURLMin <= cfg.Scoring.DefaultMin {
		t.Error("calendar-URL threshold should be stricter than the default threshold")
	}
	if cfg.HTTP.DomainTimeout >= cfg.HTTP.FetchTimeout {
		t.Error("domain checks should use a shorter timeout than feed fetches")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "collection:\n  batch_size: 3\n  batch_delay: 3s\nscoring:\n  gov_boost: 0.1\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Collection.BatchSize != 3 {
		t.Errorf("expected overridden batch size 3, got %d", cfg.Collection.BatchSize)
	}
	if cfg.Scoring.GovBoost != 0.1 {
		t.Errorf("expected overridden gov boost 0.1, got %v", cfg.Scoring.GovBoost)
	}
	if cfg.Collection.BatchDelay.Std() != 3*time.Second {
		t.Errorf("expected overridden batch delay 3s, got %v", cfg.Collection.BatchDelay.Std())
	}
	// Untouched keys keep defaults.
	if cfg.Collection.MaxEventsPerFeed != 10 {
		t.Errorf("expected default max events per feed 10, got %d", cfg.Collection.MaxEventsPerFeed)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
