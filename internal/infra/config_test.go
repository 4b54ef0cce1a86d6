package infra

import (
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "LOG_LEVEL", "VENDOR_BACKEND", "VENDOR_TIMEOUT_SECONDS",
		"GOOGLE_CLOUD_PROJECT", "GOOGLE_CLOUD_REGION", "IMAGE_MODEL_ID", "VIDEO_MODEL_ID",
		"GOOGLE_SERVICE_ACCOUNT_BASE64", "GOOGLE_SERVICE_ACCOUNT_JSON", "AUTH_VERIFY",
		"CORS_ALLOWED_ORIGINS", "PUBLIC_STORAGE_BASE_URL", "TRUST_PROXY_HEADERS",
		"AUTH_REFRESH_SECONDS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.VendorBackend != BackendVertex {
		t.Fatalf("VendorBackend = %q, want %q", cfg.VendorBackend, BackendVertex)
	}
	if cfg.Region != "us-central1" {
		t.Fatalf("Region = %q, want us-central1", cfg.Region)
	}
	if cfg.VendorTimeout != 30*time.Second {
		t.Fatalf("VendorTimeout = %s, want 30s", cfg.VendorTimeout)
	}
	if cfg.ImageModel != "" {
		t.Fatalf("ImageModel = %q, want no default", cfg.ImageModel)
	}
	if cfg.VideoModel != "veo-3.0-generate-001" {
		t.Fatalf("VideoModel = %q, want veo-3.0-generate-001", cfg.VideoModel)
	}
	if !cfg.AuthVerify {
		t.Fatal("AuthVerify should default to true")
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("AllowedOrigins = %#v, want empty", cfg.AllowedOrigins)
	}
	if cfg.TrustProxy {
		t.Fatal("TrustProxy should default to false")
	}
	if cfg.AuthRefresh != 30*time.Second {
		t.Fatalf("AuthRefresh = %s, want 30s", cfg.AuthRefresh)
	}
}

func TestLoadConfigModelMapping(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("IMAGE_MODEL_ID", "imagen-custom")
	t.Setenv("VIDEO_MODEL_ID", "veo-custom")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ImageModel != "imagen-custom" || cfg.VideoModel != "veo-custom" {
		t.Fatalf("models = %q / %q", cfg.ImageModel, cfg.VideoModel)
	}
}

func TestLoadConfigServiceAccountPrefersBase64(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_BASE64", "ZW5jb2RlZA==")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"type":"service_account"}`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServiceAccount != "ZW5jb2RlZA==" {
		t.Fatalf("ServiceAccount = %q", cfg.ServiceAccount)
	}
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("VENDOR_BACKEND", "openai")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestLoadConfigRejectsNonPositiveTimeout(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("VENDOR_TIMEOUT_SECONDS", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for zero vendor timeout")
	}
}

func TestLoadConfigParsesOrigins(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, http://localhost:3000 ,")
	t.Setenv("AUTH_VERIFY", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"https://app.example.com", "http://localhost:3000"}
	if len(cfg.AllowedOrigins) != len(expected) {
		t.Fatalf("AllowedOrigins = %#v, want %#v", cfg.AllowedOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.AllowedOrigins[i] != origin {
			t.Fatalf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], origin)
		}
	}
	if cfg.AuthVerify {
		t.Fatal("AuthVerify should be false")
	}
}
