package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Scheduler.RunHour != 6 {
		t.Errorf("run hour = %d, want 6", cfg.Scheduler.RunHour)
	}
	if cfg.Scoring.GuaranteeThreshold != 0.40 {
		t.Errorf("guarantee threshold = %.2f, want 0.40", cfg.Scoring.GuaranteeThreshold)
	}
	if cfg.Scoring.Workers != 4 {
		t.Errorf("workers = %d, want 4", cfg.Scoring.Workers)
	}
	if len(cfg.Sources) == 0 {
		t.Error("no default sources configured")
	}
	if cfg.Scheduler.Location() == nil {
		t.Error("scheduler location not bound")
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
scheduler:
  runHour: 8
  timezone: Europe/Berlin
scoring:
  guaranteeThreshold: 0.55
sources:
  - name: custom-feed
    kind: rss
    feedUrls:
      - https://feeds.example.org/rss.xml
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://env-dsn")
	t.Setenv(classifierAPIKeyEnv, "env-classifier-key")

	cfg := Load()

	if cfg.Scheduler.RunHour != 8 {
		t.Errorf("run hour = %d, want file override 8", cfg.Scheduler.RunHour)
	}
	if cfg.Scheduler.Timezone != "Europe/Berlin" {
		t.Errorf("timezone = %q", cfg.Scheduler.Timezone)
	}
	if cfg.Scoring.GuaranteeThreshold != 0.55 {
		t.Errorf("guarantee threshold = %.2f, want 0.55", cfg.Scoring.GuaranteeThreshold)
	}
	if cfg.Database.DSN != "postgres://env-dsn" {
		t.Errorf("dsn = %q, env must beat file", cfg.Database.DSN)
	}
	if cfg.Classifier.APIKey != "env-classifier-key" {
		t.Errorf("classifier key = %q", cfg.Classifier.APIKey)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "custom-feed" {
		t.Errorf("sources = %+v, want the file-defined list", cfg.Sources)
	}
	// File overrides leave untouched sections at their defaults.
	if cfg.Retention.ArticleDays != 30 {
		t.Errorf("retention = %d, want default 30", cfg.Retention.ArticleDays)
	}
}

func TestNewsAPIKeyEnvAppliesToNewsAPISources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
sources:
  - name: headlines
    kind: newsapi
    url: https://newsapi.example/v2/top
  - name: feed
    kind: rss
    feedUrls: [https://feeds.example.org/rss.xml]
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(newsAPIKeyEnv, "env-news-key")

	cfg := Load()
	if cfg.Sources[0].APIKey != "env-news-key" {
		t.Errorf("newsapi source key = %q", cfg.Sources[0].APIKey)
	}
	if cfg.Sources[1].APIKey != "" {
		t.Errorf("rss source got an api key: %q", cfg.Sources[1].APIKey)
	}
}

func TestBindTimezoneFallsBack(t *testing.T) {
	cfg := defaultConfig()
	cfg.Scheduler.Timezone = "Mars/Olympus_Mons"
	cfg.bindTimezone()
	if got := cfg.Scheduler.Location().String(); got != "UTC" {
		t.Fatalf("location = %q, want UTC fallback", got)
	}
}
