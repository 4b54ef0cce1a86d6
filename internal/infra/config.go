package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendVertex = "vertex"
	BackendGenAI  = "genai"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	VendorBackend   string
	VendorTimeout   time.Duration
	VertexBaseURL   string
	ProjectID       string
	Region          string
	// ImageModel has no default: Imagen models are served through :predict and
	// have no long-running form, so IMAGE launches stay LAUNCH_ERROR until set.
	ImageModel      string
	VideoModel      string
	OutputURI       string
	PublicBaseURL   string
	ServiceAccount  string
	AuthVerify      bool
	AdminJWTSecret  string
	DatabaseURL     string
	AllowedOrigins  []string
	RateLimitPerMin int
	TrustProxy      bool
	AuthRefresh     time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		VendorBackend:    strings.ToLower(getEnv("VENDOR_BACKEND", BackendVertex)),
		VendorTimeout:    time.Second * time.Duration(getEnvInt("VENDOR_TIMEOUT_SECONDS", 30)),
		VertexBaseURL:    os.Getenv("VERTEX_BASE_URL"),
		ProjectID:        os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Region:           getEnv("GOOGLE_CLOUD_REGION", "us-central1"),
		ImageModel:       os.Getenv("IMAGE_MODEL_ID"),
		VideoModel:       getEnv("VIDEO_MODEL_ID", "veo-3.0-generate-001"),
		OutputURI:        os.Getenv("OUTPUT_STORAGE_URI"),
		PublicBaseURL:    getEnv("PUBLIC_STORAGE_BASE_URL", "https://storage.googleapis.com/"),
		ServiceAccount:   firstEnv("GOOGLE_SERVICE_ACCOUNT_BASE64", "GOOGLE_SERVICE_ACCOUNT_JSON"),
		AuthVerify:       getEnvBool("AUTH_VERIFY", true),
		AdminJWTSecret:   os.Getenv("ADMIN_JWT_SECRET"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AllowedOrigins:   splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustProxy:       getEnvBool("TRUST_PROXY_HEADERS", false),
		AuthRefresh:      time.Second * time.Duration(getEnvInt("AUTH_REFRESH_SECONDS", 30)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	switch cfg.VendorBackend {
	case BackendVertex, BackendGenAI:
	default:
		return nil, fmt.Errorf("VENDOR_BACKEND must be %q or %q, got %q", BackendVertex, BackendGenAI, cfg.VendorBackend)
	}

	if cfg.VendorTimeout <= 0 {
		return nil, fmt.Errorf("VENDOR_TIMEOUT_SECONDS must be positive")
	}

	if strings.TrimSpace(cfg.Region) == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_REGION is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
