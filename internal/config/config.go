package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Catalog Catalog
	Targets Targets
	Output  Output
	Runtime Runtime
}

type Catalog struct {
	// Path is the rule catalog file to load (see --catalog). Required.
	Path string
}

type Targets struct {
	// SourceDir enables the source collector on this directory (see --target).
	SourceDir string

	// CoverProfile enables the coverage collector on this `go test
	// -coverprofile` file (see --coverprofile).
	CoverProfile string

	// MetricsSnapshot enables the snapshot collector on this YAML/JSON metrics
	// export (see --metrics).
	MetricsSnapshot string

	// PullRequest enables the VCS collector on a pull request reference of the
	// form OWNER/REPO#NUMBER (see --pr).
	PullRequest string
}

type Output struct {
	// Format controls the console sink (see --format).
	// Allowed values: human, json.
	Format string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, inferred from the file extension.
	OutFormat string

	// Emit writes an additional structured stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Concurrency bounds parallel evidence collection (see --concurrency).
	Concurrency int

	// Timeout is the global run timeout (see --timeout).
	Timeout time.Duration

	// CollectTimeout bounds each individual collection so a hung backend
	// becomes a not_evaluated outcome instead of blocking the run
	// (see --collect-timeout).
	CollectTimeout time.Duration

	// Verbose enables diagnostic logging to stderr.
	Verbose bool
}

func New() *Config {
	return &Config{
		Output: Output{
			Format: "human",
		},
		Runtime: Runtime{
			Concurrency:    4,
			Timeout:        30 * time.Minute,
			CollectTimeout: 2 * time.Minute,
		},
	}
}

func (c *Config) Validate() error {
	c.Output.Emit = splitCommaList(c.Output.Emit)

	if strings.TrimSpace(c.Catalog.Path) == "" {
		return errors.New("--catalog is required")
	}

	c.Output.Format = normalizeEnumValue(c.Output.Format)
	if c.Output.Format == "" {
		c.Output.Format = "human"
	}
	if c.Output.Format != "human" && c.Output.Format != "json" {
		return fmt.Errorf("unsupported --format: %s (must be one of: human, json)", c.Output.Format)
	}

	for _, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
	}

	if c.Targets.PullRequest != "" {
		if _, _, _, err := ParsePullRequestRef(c.Targets.PullRequest); err != nil {
			return fmt.Errorf("invalid --pr value: %w", err)
		}
	}

	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	if c.Runtime.CollectTimeout <= 0 {
		return errors.New("--collect-timeout must be > 0")
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	return nil
}

// ParsePullRequestRef parses an OWNER/REPO#NUMBER pull request reference.
func ParsePullRequestRef(ref string) (owner, repo string, number int, err error) {
	ref = strings.TrimSpace(ref)
	repoPart, numPart, ok := strings.Cut(ref, "#")
	if !ok {
		return "", "", 0, fmt.Errorf("%q: expected OWNER/REPO#NUMBER", ref)
	}
	owner, repo, ok = strings.Cut(repoPart, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", 0, fmt.Errorf("%q: expected OWNER/REPO#NUMBER", ref)
	}
	number, err = strconv.Atoi(numPart)
	if err != nil || number <= 0 {
		return "", "", 0, fmt.Errorf("%q: pull request number must be a positive integer", ref)
	}
	return owner, repo, number, nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
