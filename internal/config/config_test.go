package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.signing_secret", "test-secret")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected http address: %s", cfg.HTTPAddress)
	}
	if cfg.DatabasePath != "conduit.db" {
		t.Fatalf("unexpected database path: %s", cfg.DatabasePath)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("unexpected token ttl: %s", cfg.TokenTTL)
	}
	if cfg.TokenIssuer != "conduit-auth" || cfg.TokenAudience != "conduit-api" {
		t.Fatalf("unexpected token claims config: %+v", cfg)
	}
}

func TestLoadRejectsMissingSigningSecret(t *testing.T) {
	configViper := NewViper()

	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected error for missing signing secret")
	}
}

func TestLoadRejectsNonPositiveTokenTTL(t *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.signing_secret", "test-secret")
	configViper.Set("token.ttl_minutes", 0)

	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected error for zero token ttl")
	}
}
