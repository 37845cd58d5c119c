package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	commonerrors "github.com/duynguyendang/coursepack/pkg/common/errors"
)

// DirSource lists .html documents under Root. Identifiers are slash
// separated paths relative to Root.
type DirSource struct {
	Root string
}

// List walks Root, skipping hidden and vendored directories.
func (d DirSource) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(d.Root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if e.IsDir() {
			name := e.Name()
			if path != d.Root && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "dist" || name == "build") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isSupportedFile(path) {
			return nil
		}
		rel, err := filepath.Rel(d.Root, path)
		if err != nil {
			return err
		}
		ids = append(ids, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", d.Root, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Read returns the raw bytes of one document.
func (d DirSource) Read(_ context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.Root, filepath.FromSlash(id)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commonerrors.ErrUnreadable, err)
	}
	return data, nil
}

func isSupportedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}
