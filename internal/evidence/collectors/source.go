package collectors

import (
	"bufio"
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"standcheck/internal/evidence"
)

// Metric keys answered by the source collector.
const (
	MetricMaxFunctionLength = "source.max_function_length"
	MetricMaxFileLength     = "source.max_file_length"
	MetricGoFileCount       = "source.go_file_count"
)

// SourceCollector computes size metrics over a Go source tree: the longest
// function, the longest file, and the Go file count. The tree is walked once
// per run regardless of how many metrics are requested.
type SourceCollector struct {
	root string

	once    sync.Once
	stats   sourceStats
	scanErr error
}

type sourceStats struct {
	maxFuncLines int
	maxFileLines int
	goFiles      int
}

func NewSourceCollector(root string) *SourceCollector {
	return &SourceCollector{root: root}
}

func (c *SourceCollector) Name() string {
	return "source"
}

func (c *SourceCollector) Collect(ctx context.Context, metricKey string) (evidence.Evidence, bool, error) {
	switch metricKey {
	case MetricMaxFunctionLength, MetricMaxFileLength, MetricGoFileCount:
	default:
		return evidence.Evidence{}, false, nil
	}

	c.once.Do(func() { c.stats, c.scanErr = scanSourceTree(ctx, c.root) })
	if c.scanErr != nil {
		return evidence.Evidence{}, false, &evidence.CollectionUnavailableError{
			MetricKey: metricKey,
			Source:    c.root,
			Err:       c.scanErr,
		}
	}

	var n int
	switch metricKey {
	case MetricMaxFunctionLength:
		n = c.stats.maxFuncLines
	case MetricMaxFileLength:
		n = c.stats.maxFileLines
	case MetricGoFileCount:
		n = c.stats.goFiles
	}
	return evidence.New(metricKey, evidence.NumberValue(float64(n)), c.root), true, nil
}

func scanSourceTree(ctx context.Context, root string) (sourceStats, error) {
	info, err := os.Stat(root)
	if err != nil {
		return sourceStats{}, err
	}
	if !info.IsDir() {
		return sourceStats{}, &fs.PathError{Op: "scan", Path: root, Err: fs.ErrInvalid}
	}

	var stats sourceStats
	fset := token.NewFileSet()

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			name := d.Name()
			if name == ".git" || name == "vendor" || strings.HasPrefix(name, "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".go") {
			return nil
		}

		stats.goFiles++

		lines, err := countLines(path)
		if err != nil {
			return err
		}
		if lines > stats.maxFileLines {
			stats.maxFileLines = lines
		}

		// Files that fail to parse still count toward file metrics; they just
		// contribute no function lengths.
		file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return nil
		}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Body == nil {
				continue
			}
			funcLines := fset.Position(fn.Body.End()).Line - fset.Position(fn.Pos()).Line + 1
			if funcLines > stats.maxFuncLines {
				stats.maxFuncLines = funcLines
			}
		}
		return nil
	})
	if err != nil {
		return sourceStats{}, err
	}
	return stats, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	n := 0
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}
