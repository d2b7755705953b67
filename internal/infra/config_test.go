package infra

import "testing"

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test-key-0123456789")
	t.Setenv("STORAGE_BACKENDS", "")
	t.Setenv("PORT", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "4001" {
		t.Fatalf("Port = %q, want 4001", cfg.Port)
	}
	if len(cfg.StorageBackends) != 1 || cfg.StorageBackends[0] != "local" {
		t.Fatalf("StorageBackends = %#v, want [local]", cfg.StorageBackends)
	}
	if cfg.OpenAIModel != "gpt-image-1" {
		t.Fatalf("OpenAIModel = %q", cfg.OpenAIModel)
	}
	if cfg.OpenAIMaxRetries != 2 {
		t.Fatalf("OpenAIMaxRetries = %d, want 2", cfg.OpenAIMaxRetries)
	}
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing OPENAI_API_KEY")
	}
}

func TestLoadConfigBlobBackendNeedsBucketAndCredentials(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_BACKENDS", "local, blob")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for blob backend without bucket")
	}

	t.Setenv("S3_BUCKET", "images")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for blob backend without credentials")
	}

	t.Setenv("S3_ACCESS_KEY_ID", "AKIA")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.StorageBackends) != 2 || cfg.StorageBackends[1] != "blob" {
		t.Fatalf("StorageBackends = %#v", cfg.StorageBackends)
	}
}

func TestLoadConfigDocDBBackendNeedsToken(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_BACKENDS", "docdb")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for docdb backend without token")
	}

	t.Setenv("NOTION_TOKEN", "ntn_token")
	t.Setenv("NOTION_DATABASE_ID", " db-id ")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.NotionDatabaseID != "db-id" {
		t.Fatalf("NotionDatabaseID = %q, want trimmed", cfg.NotionDatabaseID)
	}
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_BACKENDS", "local,tape")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestSecretPreviewNeverReturnsFullSecret(t *testing.T) {
	cases := map[string]string{
		"":                       "",
		"short":                  "****",
		"sk-test-key-0123456789": "sk-te...",
	}
	for in, want := range cases {
		if got := SecretPreview(in); got != want {
			t.Fatalf("SecretPreview(%q) = %q, want %q", in, got, want)
		}
		if in != "" && SecretPreview(in) == in {
			t.Fatalf("SecretPreview leaked the full value for %q", in)
		}
	}
}
