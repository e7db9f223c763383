package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// mappingExtensions are stripped from input names to form output names.
var mappingExtensions = []string{".yml", ".yaml", ".yarrrml"}

// BatchResult is the outcome of one file in a batch.
type BatchResult struct {
	Input  string
	Output string
	Report *Report
	Err    error
}

// Batch runs the generator for every file matching pattern. Doublestar
// patterns are supported ("mappings/**/*.yml"). Outputs keep the directory
// layout below the pattern's static prefix, rooted at outDir, with the
// mapping extension replaced by suffix. A failing file does not stop the
// batch; the joined error of all failures is returned.
func (g *Generator) Batch(ctx context.Context, pattern, outDir, suffix string) ([]BatchResult, error) {
	base, rel := doublestar.SplitPattern(filepath.ToSlash(pattern))

	matches, err := doublestar.Glob(os.DirFS(filepath.FromSlash(base)), rel, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no mapping files match %q", pattern)
	}

	g.logger.Debug("Batch matched files",
		slog.String("pattern", pattern),
		slog.Int("count", len(matches)))

	results := make([]BatchResult, 0, len(matches))
	var errs []error
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		in := filepath.Join(filepath.FromSlash(base), filepath.FromSlash(match))
		out := filepath.Join(outDir, OutputName(filepath.FromSlash(match), suffix))

		report, err := g.Run(ctx, in, out)
		if err != nil {
			g.logger.Warn("Batch item failed",
				slog.String("input", in),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", in, err))
		}
		results = append(results, BatchResult{Input: in, Output: out, Report: report, Err: err})
	}

	return results, errors.Join(errs...)
}

// OutputName replaces the mapping extensions of path with suffix, e.g.
// "dcat/catalog.yarrrml.yml" becomes "dcat/catalog.shapes.ttl".
func OutputName(path, suffix string) string {
	stem := path
	for {
		ext := filepath.Ext(stem)
		if ext == "" || !isMappingExtension(ext) {
			break
		}
		stem = strings.TrimSuffix(stem, ext)
	}
	return stem + suffix
}

func isMappingExtension(ext string) bool {
	for _, e := range mappingExtensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
