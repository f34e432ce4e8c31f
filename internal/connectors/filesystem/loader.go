// Package filesystem reads documents from the local filesystem.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/normalisers"
)

// Ensure Loader implements the interfaces.
var (
	_ driven.SourceLoader = (*Loader)(nil)
	_ driven.SourceIndex  = (*Loader)(nil)
)

// Loader reads and locates document sources on disk.
type Loader struct{}

// NewLoader creates a filesystem source loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load implements driven.SourceLoader.
func (l *Loader) Load(ctx context.Context, doc domain.Document) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := ResolvePath(doc.SourcePath)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: source %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read source %s: %w", path, err)
	}

	return &domain.RawDocument{
		DocumentID: doc.ID,
		Path:       path,
		MIMEType:   normalisers.DetectMIMEType(path, content),
		Content:    content,
	}, nil
}

// Resolve implements driven.SourceIndex.
func (l *Loader) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(ResolvePath(path))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, abs)
		}
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, abs)
	}
	if !normalisers.SupportedExtension(abs) {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(abs))
	}
	return abs, nil
}

// Scan implements driven.SourceIndex.
func (l *Loader) Scan(root string) ([]string, error) {
	abs, err := filepath.Abs(ResolvePath(root))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	return Scan(abs)
}

// Scan walks root and returns the supported, non-hidden files beneath it
// in lexical order.
func Scan(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if isHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && normalisers.SupportedExtension(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return files, nil
}

// isHidden reports whether any component of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
