package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/skylark-tools/letterpipe/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
paths:
  records: data/records.csv
  sender_profile: data/profile.txt
  assets_dir: assets
sender:
  address: sales@example.com
`

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Letter.DefaultLocale != "English" {
		t.Errorf("default locale = %q", cfg.Letter.DefaultLocale)
	}
	if cfg.Letter.AssetCount != 3 {
		t.Errorf("asset count = %d", cfg.Letter.AssetCount)
	}
	if cfg.Fetch.MaxContentLength != 3000 {
		t.Errorf("max content length = %d", cfg.Fetch.MaxContentLength)
	}
	if cfg.Fetch.Timeout.Std() != 20*time.Second {
		t.Errorf("fetch timeout = %v", cfg.Fetch.Timeout.Std())
	}
	if cfg.Calls.MaxRetries != 3 {
		t.Errorf("max retries = %d", cfg.Calls.MaxRetries)
	}
	if cfg.Calls.BackoffInitial.Std() != time.Second {
		t.Errorf("backoff initial = %v", cfg.Calls.BackoffInitial.Std())
	}
	if cfg.Paths.Results != "data/processed_records.csv" {
		t.Errorf("results path = %q", cfg.Paths.Results)
	}
	if cfg.Paths.OutboxDir != "outbox" {
		t.Errorf("outbox dir = %q", cfg.Paths.OutboxDir)
	}
}

func TestLoad_ParsesFullConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t, `
paths:
  records: in.csv
  sender_profile: profile.txt
  results: out.csv
  assets_dir: images
  outbox_dir: drafts
  brochure: brochure.pdf
sender:
  address: sales@example.com
letter:
  default_locale: German
  asset_count: 2
fetch:
  max_content_length: 500
  timeout: 5s
calls:
  max_retries: 7
  backoff_initial: 250ms
  backoff_max: 10s
inter_record_delay: 3s
logging:
  level: debug
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Letter.DefaultLocale != "German" || cfg.Letter.AssetCount != 2 {
		t.Errorf("letter = %+v", cfg.Letter)
	}
	if cfg.Fetch.Timeout.Std() != 5*time.Second {
		t.Errorf("fetch timeout = %v", cfg.Fetch.Timeout.Std())
	}
	if cfg.Calls.MaxRetries != 7 || cfg.Calls.BackoffInitial.Std() != 250*time.Millisecond || cfg.Calls.BackoffMax.Std() != 10*time.Second {
		t.Errorf("calls = %+v", cfg.Calls)
	}
	if cfg.InterRecordDelay.Std() != 3*time.Second {
		t.Errorf("inter record delay = %v", cfg.InterRecordDelay.Std())
	}
	if cfg.Paths.Brochure != "brochure.pdf" || cfg.Paths.OutboxDir != "drafts" {
		t.Errorf("paths = %+v", cfg.Paths)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
}

func TestLoad_MissingRequiredField(t *testing.T) {
	t.Parallel()

	_, err := config.Load(writeConfig(t, `
paths:
  records: data/records.csv
  assets_dir: assets
sender:
  address: sales@example.com
`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "paths.sender_profile") {
		t.Fatalf("error = %v, want mention of paths.sender_profile", err)
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("LETTERPIPE_TEST_DATA", "/srv/data")

	cfg, err := config.Load(writeConfig(t, `
paths:
  records: ${LETTERPIPE_TEST_DATA}/records.csv
  sender_profile: ${LETTERPIPE_TEST_DATA}/profile.txt
  assets_dir: ${LETTERPIPE_TEST_DATA}/assets
sender:
  address: sales@example.com
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Paths.Records != "/srv/data/records.csv" {
		t.Fatalf("records = %q", cfg.Paths.Records)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Parallel()

	_, err := config.Load(writeConfig(t, minimalConfig+`
fetch:
  timeout: soon
`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Fatalf("error = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected error")
	}
}
