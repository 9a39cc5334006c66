package config

import "testing"

func TestS3ConfigIsConfigured(t *testing.T) {
	t.Run("empty config is not configured", func(t *testing.T) {
		cfg := S3Config{}
		if cfg.IsConfigured() {
			t.Fatal("expected IsConfigured=false for empty config")
		}
	})

	t.Run("required fields set is configured", func(t *testing.T) {
		cfg := S3Config{
			Endpoint:        "https://s3.eu-central-1.amazonaws.com",
			Region:          "eu-central-1",
			Bucket:          "nomnom-images",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
			PublicBaseURL:   "https://nomnom-images.s3.eu-central-1.amazonaws.com",
		}
		if !cfg.IsConfigured() {
			t.Fatal("expected IsConfigured=true when all required fields are set")
		}
	})
}

func TestS3ConfigMissingRequired(t *testing.T) {
	cfg := S3Config{
		Endpoint: "https://s3.eu-central-1.amazonaws.com",
		Bucket:   "nomnom-images",
	}
	missing := cfg.MissingRequired()

	want := []string{"S3_REGION", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_PUBLIC_BASE_URL"}
	if len(missing) != len(want) {
		t.Fatalf("expected %d missing fields, got %d (%v)", len(want), len(missing), missing)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Fatalf("expected missing[%d]=%s, got %s", i, want[i], missing[i])
		}
	}
}

func TestS3ConfigDiagnostics(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		level, code, _ := (S3Config{}).Diagnostics()
		if level != "INFO" || code != "s3_not_configured" {
			t.Fatalf("expected INFO/s3_not_configured, got %s/%s", level, code)
		}
	})

	t.Run("partial config", func(t *testing.T) {
		level, code, _ := (S3Config{Endpoint: "https://s3.eu-central-1.amazonaws.com"}).Diagnostics()
		if level != "WARN" || code != "s3_partial_config" {
			t.Fatalf("expected WARN/s3_partial_config, got %s/%s", level, code)
		}
	})

	t.Run("ready", func(t *testing.T) {
		level, code, _ := (S3Config{
			Endpoint:        "https://s3.eu-central-1.amazonaws.com",
			Region:          "eu-central-1",
			Bucket:          "nomnom-images",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
			PublicBaseURL:   "https://nomnom-images.s3.eu-central-1.amazonaws.com",
		}).Diagnostics()
		if level != "INFO" || code != "s3_ready" {
			t.Fatalf("expected INFO/s3_ready, got %s/%s", level, code)
		}
	})
}

func TestParseEmailList(t *testing.T) {
	emails := parseEmailList(" Admin@Example.com , chef@nomnom.app ,,")
	if len(emails) != 2 {
		t.Fatalf("expected 2 emails, got %d (%v)", len(emails), emails)
	}
	if emails[0] != "admin@example.com" {
		t.Fatalf("expected lowercased trimmed email, got %q", emails[0])
	}
	if emails[1] != "chef@nomnom.app" {
		t.Fatalf("unexpected second email %q", emails[1])
	}

	if got := parseEmailList("   "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}

func TestParseCORSOrigins(t *testing.T) {
	t.Run("local default", func(t *testing.T) {
		origins := parseCORSOrigins("", "local")
		if len(origins) == 0 {
			t.Fatal("expected localhost defaults in local env")
		}
	})

	t.Run("prod deny by default", func(t *testing.T) {
		if origins := parseCORSOrigins("", "prod"); origins != nil {
			t.Fatalf("expected nil origins in prod, got %v", origins)
		}
	})

	t.Run("explicit list", func(t *testing.T) {
		origins := parseCORSOrigins("https://nomnom.app, https://admin.nomnom.app", "prod")
		if len(origins) != 2 || origins[0] != "https://nomnom.app" {
			t.Fatalf("unexpected origins %v", origins)
		}
	})
}
