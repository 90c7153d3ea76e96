package config

import "testing"

func TestLoadRequiresOperatorSecretKey(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://x/y")
	t.Setenv("OPERATOR_SECRET_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when OPERATOR_SECRET_KEY is unset")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://x/y")
	t.Setenv("OPERATOR_SECRET_KEY", "aa")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8545 {
		t.Errorf("expected default port 8545, got %d", cfg.Server.Port)
	}
	if cfg.Testnet {
		t.Error("expected testnet default false")
	}
	if cfg.Keyring.AdminUser != "orand" {
		t.Errorf("expected default admin user orand, got %q", cfg.Keyring.AdminUser)
	}
}

func TestLoadTestnetFromEnv(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://x/y")
	t.Setenv("OPERATOR_SECRET_KEY", "aa")
	t.Setenv("ORAND_TESTNET", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Testnet {
		t.Error("expected testnet true from env")
	}
}
