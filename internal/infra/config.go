package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	OpenAITimeout    time.Duration
	OpenAIMaxRetries int

	// StorageBackends selects which stores persist generated images, in
	// order. The first entry is the primary listing source.
	StorageBackends []string

	ImagesDir     string
	ImagesBaseURL string

	S3Bucket        string
	S3Region        string
	S3AccessKeyID   string
	S3SecretKey     string
	S3PublicBaseURL string
	S3IndexKey      string

	NotionToken      string
	NotionDatabaseID string
	NotionBaseURL    string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "4001"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAITimeout:    time.Second * time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 60)),
		OpenAIMaxRetries: getEnvInt("OPENAI_MAX_RETRIES", 2),
		StorageBackends:  splitList(getEnv("STORAGE_BACKENDS", "local")),
		ImagesDir:        getEnv("IMAGES_DIR", "public/images"),
		ImagesBaseURL:    getEnv("IMAGES_BASE_URL", "/images"),
		S3Bucket:         os.Getenv("S3_BUCKET"),
		S3Region:         getEnv("S3_REGION", "us-east-1"),
		S3AccessKeyID:    os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:      os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3PublicBaseURL:  os.Getenv("S3_PUBLIC_BASE_URL"),
		S3IndexKey:       getEnv("S3_INDEX_KEY", "data/images-metadata.json"),
		NotionToken:      os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID: strings.TrimSpace(os.Getenv("NOTION_DATABASE_ID")),
		NotionBaseURL:    os.Getenv("NOTION_BASE_URL"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if len(cfg.StorageBackends) == 0 {
		return nil, fmt.Errorf("STORAGE_BACKENDS must name at least one backend")
	}
	for _, backend := range cfg.StorageBackends {
		switch backend {
		case "local":
		case "blob":
			if cfg.S3Bucket == "" {
				return nil, fmt.Errorf("S3_BUCKET is required for the blob backend")
			}
			if cfg.S3AccessKeyID == "" || cfg.S3SecretKey == "" {
				return nil, fmt.Errorf("S3 credentials are required for the blob backend")
			}
		case "docdb":
			if cfg.NotionToken == "" || cfg.NotionDatabaseID == "" {
				return nil, fmt.Errorf("NOTION_TOKEN and NOTION_DATABASE_ID are required for the docdb backend")
			}
		default:
			return nil, fmt.Errorf("unknown storage backend %q", backend)
		}
	}

	return cfg, nil
}

// SecretPreview returns a short, truncated preview of a secret suitable for
// diagnostics. Full values never leave the process.
func SecretPreview(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:5] + "..."
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
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
