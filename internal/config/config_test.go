package config

import "testing"

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is empty")
	}
}

func TestLoadConfigReadsBookingSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DEMO_MODE", "yes")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("CHECKIN_RATE_LIMIT", "not-a-number")
	t.Setenv("APP_TIMEZONE", "UTC")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.DemoMode {
		t.Fatalf("expected demo mode to be enabled")
	}
	if cfg.AppEnv != "development" {
		t.Fatalf("expected development env, got %q", cfg.AppEnv)
	}
	if cfg.CheckInRateLimit != 30 {
		t.Fatalf("expected fallback rate limit 30, got %d", cfg.CheckInRateLimit)
	}
	if cfg.Location().String() != "UTC" {
		t.Fatalf("expected UTC location, got %s", cfg.Location())
	}
}

func TestLoadConfigRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestNormalizeEnv(t *testing.T) {
	cases := map[string]string{
		"prod":    "production",
		" Stage ": "staging",
		"testing": "test",
		"custom":  "custom",
	}
	for input, expected := range cases {
		if got := normalizeEnv(input); got != expected {
			t.Errorf("normalizeEnv(%q) = %q, want %q", input, got, expected)
		}
	}
}
