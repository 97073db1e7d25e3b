package build

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// writeFile replaces path atomically, creating parent directories.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".pagebuilder-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// copyAsset copies src to dst unless dst already has the same size and mtime.
func copyAsset(src, dst string) (bool, error) {
	info, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	if cur, err := os.Stat(dst); err == nil && cur.Size() == info.Size() && cur.ModTime().Equal(info.ModTime()) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return false, err
	}

	// #nosec G304 -- src comes from source discovery.
	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return false, err
	}
	if err := out.Close(); err != nil {
		return false, err
	}
	return true, os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// removeStale deletes outputs listed in prev that the current batch no longer produces.
func removeStale(outDir string, prev, next *Manifest) []string {
	if prev == nil {
		return nil
	}
	var removed []string
	for output := range prev.Pages {
		if _, ok := next.Pages[output]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(outDir, filepath.FromSlash(output))); err == nil {
			removed = append(removed, output)
		}
	}
	return removed
}
