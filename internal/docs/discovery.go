// Package docs discovers source documents and assets and maps them to output paths.
package docs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	derrors "git.home.luguber.info/inful/pagebuilder/internal/docs/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
)

// DocFile is a discovered source document or asset.
type DocFile struct {
	Path         string // Path on disk
	RelativePath string // Slash-separated path relative to the source directory
	Section      string // Slash-separated directory, "" at the root
	Name         string // File name without extension
	Extension    string // Lowercased extension
	IsAsset      bool   // Copied verbatim instead of rendered
}

// OutputPath is the slash-separated output path relative to the output directory.
// Documents render to .html; assets keep their path.
func (df DocFile) OutputPath() string {
	if df.IsAsset {
		return df.RelativePath
	}
	return path.Join(df.Section, df.Name+".html")
}

// URL is the site-absolute path of the output.
func (df DocFile) URL() string {
	return "/" + df.OutputPath()
}

// Discovery finds source files below one directory.
type Discovery struct {
	root       string
	extensions []string
	exclude    []string
}

// NewDiscovery creates a discovery for the configured source directory.
func NewDiscovery(cfg config.SourceConfig) *Discovery {
	return &Discovery{
		root:       cfg.Directory,
		extensions: cfg.Extensions,
		exclude:    cfg.Exclude,
	}
}

// Discover walks the source directory. Hidden entries and entries starting with
// an underscore (chrome fragments, partials) are skipped. Results are sorted by
// relative path.
func (d *Discovery) Discover() ([]DocFile, error) {
	if st, err := os.Stat(d.root); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", derrors.ErrSourceDirNotFound, d.root)
	}

	var files []DocFile
	seen := make(map[string]string)
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if p != d.root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.excluded(rel) {
			slog.Debug("Excluded source file", logfields.Path(rel))
			return nil
		}

		ext := strings.ToLower(path.Ext(rel))
		isDoc := slices.Contains(d.extensions, ext)
		if !isDoc && !isAsset(ext) {
			return nil
		}

		section := path.Dir(rel)
		if section == "." {
			section = ""
		}
		df := DocFile{
			Path:         p,
			RelativePath: rel,
			Section:      section,
			Name:         strings.TrimSuffix(path.Base(rel), path.Ext(rel)),
			Extension:    ext,
			IsAsset:      !isDoc,
		}
		out := df.OutputPath()
		if prev, dup := seen[out]; dup {
			return fmt.Errorf("%w: %s and %s both map to %s", derrors.ErrPathCollision, prev, rel, out)
		}
		seen[out] = rel
		files = append(files, df)
		return nil
	})
	if err != nil {
		if errors.Is(err, derrors.ErrPathCollision) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrSourceDirWalkFailed, d.root, err)
	}

	slices.SortFunc(files, func(a, b DocFile) int { return strings.Compare(a.RelativePath, b.RelativePath) })
	slog.Info("Source documents discovered", logfields.Path(d.root), logfields.Pages(countDocs(files)))
	return files, nil
}

// Documents returns the non-asset entries of files.
func Documents(files []DocFile) []DocFile {
	out := make([]DocFile, 0, len(files))
	for _, f := range files {
		if !f.IsAsset {
			out = append(out, f)
		}
	}
	return out
}

// Assets returns the asset entries of files.
func Assets(files []DocFile) []DocFile {
	out := make([]DocFile, 0, len(files))
	for _, f := range files {
		if f.IsAsset {
			out = append(out, f)
		}
	}
	return out
}

func (d *Discovery) excluded(rel string) bool {
	for _, pattern := range d.exclude {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := path.Match(pattern, path.Base(rel)); ok {
			return true
		}
	}
	return false
}

func countDocs(files []DocFile) int {
	return len(Documents(files))
}

// isAsset checks if a file is copied to the output (image, etc.)
func isAsset(ext string) bool {
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".bmp", ".ico",
		".pdf", ".mp4", ".webm", ".ogv",
		".css", ".js", ".csv", ".json", ".txt":
		return true
	}
	return false
}
