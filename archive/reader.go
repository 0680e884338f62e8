package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/leeineian/logbot/sys"
)

// List returns the log file names of folder in name order. combined.log and
// subdirectories are skipped. A folder that was never written to is empty.
func (a *Archive) List(folder Folder) ([]string, error) {
	entries, err := os.ReadDir(folder.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", folder.Path, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name() == CombinedFile {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Combine rebuilds folder/combined.log from every other file of folder,
// concatenated in name order, and returns its path with the number of
// source files used.
func (a *Archive) Combine(folder Folder) (string, int, error) {
	if _, err := os.Stat(folder.Path); errors.Is(err, fs.ErrNotExist) {
		return "", 0, ErrNotFound
	} else if err != nil {
		return "", 0, err
	}

	unlock := a.lock(folder.Path)
	defer unlock()

	out := folder.File(CombinedFile)
	if err := os.Remove(out); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", 0, fmt.Errorf("remove %s: %w", out, err)
	}

	sources, err := a.List(folder)
	if err != nil {
		return "", 0, err
	}

	dst, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", out, err)
	}
	for _, name := range sources {
		if err := appendFile(dst, folder.File(name)); err != nil {
			_ = dst.Close()
			return "", 0, err
		}
	}
	if err := dst.Close(); err != nil {
		return "", 0, err
	}

	sys.LogArchive(sys.MsgArchiveCombined, len(sources), out)
	return out, len(sources), nil
}

func appendFile(dst io.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path is a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
