package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clinic_test")
	t.Setenv("ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default max conns 20, got %d", cfg.DBMaxConns)
	}
	if cfg.EvaluatorInterval != 15*time.Minute {
		t.Errorf("expected default evaluator interval 15m, got %s", cfg.EvaluatorInterval)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode")
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing DATABASE_URL")
	}
}

func TestValidate_ProductionRequiresAuth(t *testing.T) {
	cfg := &Config{Env: "production", EvaluatorInterval: 15 * time.Minute}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error: production without auth configuration")
	}

	cfg.AuthIssuer = "https://auth.example.com/realms/clinic"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_EvaluatorInterval(t *testing.T) {
	cfg := &Config{Env: "development", EvaluatorInterval: 10 * time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sub-minute evaluator interval")
	}
}
