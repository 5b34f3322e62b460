package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
poll:
  min_interval: 30s
  max_interval: 60s
search:
  keyword: warehouse
  cities:
    - Cambridge
    - Hamilton
  source: api
  base_url: https://hiring.example.ca
notification:
  type: log
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Poll.MinInterval != 30*time.Second {
		t.Errorf("MinInterval = %v, want 30s", cfg.Poll.MinInterval)
	}
	if cfg.Poll.MaxInterval != 60*time.Second {
		t.Errorf("MaxInterval = %v, want 60s", cfg.Poll.MaxInterval)
	}
	if len(cfg.Search.Cities) != 2 || cfg.Search.Cities[0] != "Cambridge" {
		t.Errorf("Cities = %v", cfg.Search.Cities)
	}
	if cfg.Search.Keyword != "warehouse" {
		t.Errorf("Keyword = %q", cfg.Search.Keyword)
	}
	// Defaults fill in what the file omits.
	if cfg.Store.Path != "shiftwatch.db" {
		t.Errorf("Store.Path = %q, want default", cfg.Store.Path)
	}
	if cfg.Poll.ErrorDelay != 5*time.Second {
		t.Errorf("ErrorDelay = %v, want default 5s", cfg.Poll.ErrorDelay)
	}
	if cfg.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("RequestsPerMinute = %d, want default 30", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "poll: [broken")); err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SW_TEST_SENDER", "bot@example.com")
	t.Setenv("SW_TEST_PASS", "hunter2")
	t.Setenv("SW_TEST_RCPT", "a@example.com, b@example.com")

	cfg, err := Load(writeConfig(t, `
search:
  cities: [Cambridge]
  base_url: https://hiring.example.ca
notification:
  type: email
  smtp_host: smtp.example.com
  sender: ${SW_TEST_SENDER}
  password: ${SW_TEST_PASS}
  recipients: ${SW_TEST_RCPT}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notification.Sender != "bot@example.com" {
		t.Errorf("Sender = %q, want expanded env value", cfg.Notification.Sender)
	}
	got := cfg.Notification.RecipientList()
	if len(got) != 2 || got[0] != "a@example.com" || got[1] != "b@example.com" {
		t.Errorf("RecipientList = %v", got)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{
			name: "no cities",
			yaml: `
search:
  cities: []
  base_url: https://hiring.example.ca
`,
		},
		{
			name: "missing base_url",
			yaml: `
search:
  cities: [Cambridge]
`,
		},
		{
			name: "unknown source",
			yaml: `
search:
  cities: [Cambridge]
  base_url: https://hiring.example.ca
  source: playwright
`,
		},
		{
			name: "email without credentials",
			yaml: `
search:
  cities: [Cambridge]
  base_url: https://hiring.example.ca
notification:
  type: email
  smtp_host: smtp.example.com
`,
		},
		{
			name: "email without recipients",
			yaml: `
search:
  cities: [Cambridge]
  base_url: https://hiring.example.ca
notification:
  type: email
  smtp_host: smtp.example.com
  sender: bot@example.com
  password: hunter2
`,
		},
		{
			name: "auto_apply without profile",
			yaml: `
search:
  cities: [Cambridge]
  base_url: https://hiring.example.ca
auto_apply: true
`,
		},
		{
			name: "max below min interval",
			yaml: `
poll:
  min_interval: 60s
  max_interval: 30s
search:
  cities: [Cambridge]
  base_url: https://hiring.example.ca
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Fatal("Load: expected validation error")
			}
		})
	}
}

func TestLoad_AutoApplyWithProfile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
search:
  cities: [Cambridge]
  base_url: https://hiring.example.ca
auto_apply: true
applicant:
  email: me@example.com
  phone: "555-0101"
  resume_path: resume.pdf
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.AutoApply {
		t.Error("AutoApply should be true")
	}
	if cfg.Applicant.ResumePath != "resume.pdf" {
		t.Errorf("ResumePath = %q", cfg.Applicant.ResumePath)
	}
}
