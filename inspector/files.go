package inspector

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// skipDirs are directory names never descended into during discovery.
var skipDirs = map[string]bool{
	"node_modules":  true,
	"venv":          true,
	".venv":         true,
	"__pycache__":   true,
	"dist":          true,
	"build":         true,
	".git":          true,
	"site-packages": true,
}

// SourceFile is one discovered source file with its contents already read;
// all file I/O happens before graph population begins.
type SourceFile struct {
	Path   string
	Source []byte
}

// DiscoverSources walks roots and loads every file whose extension is in
// extensions. Roots may name single files. Results are sorted by path so
// node ids are reproducible across runs.
func DiscoverSources(ctx context.Context, roots []string, extensions []string, skipTests bool) ([]SourceFile, error) {
	fs := afs.New()
	extSet := map[string]bool{}
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}

	var paths []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to read source root %s: %w", root, err)
		}
		if !info.IsDir() {
			paths = append(paths, root)
			continue
		}
		visitor := func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
			if info.IsDir() {
				return !skipDirs[info.Name()], nil
			}
			name := info.Name()
			if !extSet[strings.ToLower(filepath.Ext(name))] {
				return true, nil
			}
			if skipTests && isTestFile(name) {
				return true, nil
			}
			full := url.Path(url.Join(baseURL, parent, name))
			paths = append(paths, full)
			return true, nil
		}
		if err := fs.Walk(ctx, root, visitor); err != nil {
			return nil, fmt.Errorf("failed to walk source root %s: %w", root, err)
		}
	}
	sort.Strings(paths)

	files := make([]SourceFile, 0, len(paths))
	for _, path := range paths {
		data, err := fs.DownloadWithURL(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, SourceFile{Path: path, Source: data})
	}
	return files, nil
}

func isTestFile(name string) bool {
	base := strings.ToLower(name)
	return strings.HasPrefix(base, "test_") ||
		strings.HasSuffix(base, "_test.py") ||
		strings.Contains(base, ".test.") ||
		strings.Contains(base, ".spec.")
}
