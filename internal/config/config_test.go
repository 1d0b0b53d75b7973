package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h := cfg.Hyperparameters
	if h.BoulwareBeta != 0.1 || h.FinishTime != 0.4 || h.GiveUpTime != 1.0 {
		t.Errorf("unexpected time defaults: %+v", h)
	}
	if h.MaxListSize != 330 || h.RecentBidWindow != 10 {
		t.Errorf("expected sizes 330/10, got %d/%d", h.MaxListSize, h.RecentBidWindow)
	}
	if h.TransitionTime != 0.5 || h.MaxElicitationPenalty != 0.05 {
		t.Errorf("unexpected defaults: %+v", h)
	}
	if h.OpponentEstimate != "recent" {
		t.Errorf("expected recent opponent estimate, got %q", h.OpponentEstimate)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haggle.yaml")
	data := "boulwareBeta: 0.2\nmaxListSize: 50\nopponentModel: rank\nredisUrl: redis://localhost:6379/1\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HAGGLE_MAX_LIST_SIZE", "75")
	t.Setenv("HAGGLE_SEED", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BoulwareBeta != 0.2 {
		t.Errorf("expected beta 0.2 from file, got %v", cfg.BoulwareBeta)
	}
	if cfg.MaxListSize != 75 {
		t.Errorf("expected env to override file, got %d", cfg.MaxListSize)
	}
	if cfg.OpponentModel != "rank" {
		t.Errorf("expected rank, got %q", cfg.OpponentModel)
	}
	if cfg.RedisURL != "redis://localhost:6379/1" {
		t.Errorf("unexpected redis url %q", cfg.RedisURL)
	}
	if cfg.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Seed)
	}
	if cfg.FinishTime != 0.4 {
		t.Errorf("expected default finish time to survive, got %v", cfg.FinishTime)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("HAGGLE_BOULWARE_BETA", "steep")
	if _, err := Load(""); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	h := DefaultHyperparameters()
	if err := h.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	h.BoulwareBeta = 0
	h.GiveUpTime = 1.5
	h.OpponentModel = "oracle"
	err := h.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"boulwareBeta", "giveUpTime", "oracle"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got %v", want, err)
		}
	}
}

func TestDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	DefaultHyperparameters().Diagnostics(logger)
	out := buf.String()
	if !strings.Contains(out, `"maxListSize":330`) {
		t.Errorf("expected hyperparameters in log, got %s", out)
	}
	if !strings.Contains(out, "0.1,0.4,1,330,10,0.5,0.05") {
		t.Errorf("expected CSV values in log, got %s", out)
	}
}
