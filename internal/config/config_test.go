package config

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validConfig() *Config {
	cfg := New()
	cfg.Catalog.Path = "standards.yaml"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Output.Format != "human" {
		t.Errorf("want default format human, got %s", cfg.Output.Format)
	}
	if cfg.Runtime.Concurrency != 4 {
		t.Errorf("want default concurrency 4, got %d", cfg.Runtime.Concurrency)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing catalog",
			mutate:  func(c *Config) { c.Catalog.Path = "  " },
			wantErr: "--catalog is required",
		},
		{
			name:    "bad format",
			mutate:  func(c *Config) { c.Output.Format = "yaml" },
			wantErr: "unsupported --format",
		},
		{
			name:    "bad emit value",
			mutate:  func(c *Config) { c.Output.Emit = []string{"csv"} },
			wantErr: "unsupported --emit value",
		},
		{
			name:    "bad pull request ref",
			mutate:  func(c *Config) { c.Targets.PullRequest = "not-a-ref" },
			wantErr: "invalid --pr value",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Runtime.Concurrency = 0 },
			wantErr: "--concurrency must be >= 1",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Runtime.Timeout = 0 },
			wantErr: "--timeout must be > 0",
		},
		{
			name:    "zero collect timeout",
			mutate:  func(c *Config) { c.Runtime.CollectTimeout = 0 },
			wantErr: "--collect-timeout must be > 0",
		},
		{
			name:    "uninferable out extension",
			mutate:  func(c *Config) { c.Output.Out = "report.txt" },
			wantErr: "cannot infer output format",
		},
		{
			name: "bad explicit out format",
			mutate: func(c *Config) {
				c.Output.Out = "report.json"
				c.Output.OutFormat = "xml"
			},
			wantErr: "unsupported output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("want error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("want error containing %q, got %q", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_NormalizesAndInfers(t *testing.T) {
	cfg := validConfig()
	cfg.Output.Format = " JSON "
	cfg.Output.Emit = []string{"json, ndjson", ""}
	cfg.Output.Out = "out/report.ndjson"
	cfg.Targets.PullRequest = "octocat/hello-world#42"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("format not normalized: %q", cfg.Output.Format)
	}
	if diff := cmp.Diff([]string{"json", "ndjson"}, cfg.Output.Emit); diff != "" {
		t.Errorf("emit list mismatch (-want +got):\n%s", diff)
	}
	if cfg.Output.OutFormat != "ndjson" {
		t.Errorf("out format not inferred: %q", cfg.Output.OutFormat)
	}
}

func TestParsePullRequestRef(t *testing.T) {
	tests := []struct {
		ref       string
		wantOwner string
		wantRepo  string
		wantNum   int
		wantErr   bool
	}{
		{ref: "octocat/hello-world#42", wantOwner: "octocat", wantRepo: "hello-world", wantNum: 42},
		{ref: " octocat/hello-world#1 ", wantOwner: "octocat", wantRepo: "hello-world", wantNum: 1},
		{ref: "missing-number", wantErr: true},
		{ref: "no-slash#12", wantErr: true},
		{ref: "a/b/c#12", wantErr: true},
		{ref: "octocat/hello-world#zero", wantErr: true},
		{ref: "octocat/hello-world#0", wantErr: true},
		{ref: "octocat/hello-world#-3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			owner, repo, num, err := ParsePullRequestRef(tt.ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("want error, got %s/%s#%d", owner, repo, num)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePullRequestRef: %v", err)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo || num != tt.wantNum {
				t.Errorf("want %s/%s#%d, got %s/%s#%d",
					tt.wantOwner, tt.wantRepo, tt.wantNum, owner, repo, num)
			}
		})
	}
}
