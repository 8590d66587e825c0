package database

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrSeedCopy is returned when the bundled snapshot could not be copied into
// the store location. The store is left absent.
var ErrSeedCopy = errors.New("seed copy failed")

const (
	unseededSuffix = ".unseeded"
	preSeedSuffix  = ".pre-seed"
)

// sqlite keeps these next to the main file while a store is in WAL mode
var sidecarSuffixes = []string{"-wal", "-shm"}

// PreSeedPath is where Seed moves an unseeded store it replaces. Points added
// while the store was unseeded can be imported back from there.
func PreSeedPath(dst string) string {
	return dst + preSeedSuffix
}

// MarkUnseeded records that the store at dst is about to be created empty
// because seeding failed. A later Seed replaces such a store. It does nothing
// when a seeded store already exists at dst.
func MarkUnseeded(dst string) error {
	exists, err := fileExists(dst)
	if err != nil {
		return err
	}
	if exists && !isUnseeded(dst) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := os.WriteFile(dst+unseededSuffix, nil, 0o644); err != nil {
		return fmt.Errorf("failed to mark store unseeded: %w", err)
	}
	return nil
}

// Seed copies the snapshot at src to dst unless a seeded store already exists
// at dst. The bytes go to a temp file in dst's directory that is moved into
// place only after a complete, synced write, so a reader never observes a
// partial store. A store marked by MarkUnseeded is moved to PreSeedPath and
// replaced. It reports whether a copy took place.
func Seed(src, dst string) (bool, error) {
	exists, err := fileExists(dst)
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %v", ErrSeedCopy, dst, err)
	}
	replace := exists && isUnseeded(dst)
	if exists && !replace {
		return false, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return false, fmt.Errorf("%w: open snapshot: %v", ErrSeedCopy, err)
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("%w: create %s: %v", ErrSeedCopy, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dst)+".seed-*")
	if err != nil {
		return false, fmt.Errorf("%w: create temp file: %v", ErrSeedCopy, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return false, fmt.Errorf("%w: copy: %v", ErrSeedCopy, err)
	}
	if err := tmp.Sync(); err != nil {
		return false, fmt.Errorf("%w: sync: %v", ErrSeedCopy, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("%w: close: %v", ErrSeedCopy, err)
	}

	if replace {
		if err := replaceUnseeded(tmpName, dst); err != nil {
			return false, err
		}
		committed = true
		return true, nil
	}

	// Another process may have seeded while we copied; the first store wins.
	if err := os.Link(tmpName, dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			os.Remove(tmpName)
			committed = true
			return false, nil
		}
		if err := os.Rename(tmpName, dst); err != nil {
			return false, fmt.Errorf("%w: rename: %v", ErrSeedCopy, err)
		}
		committed = true
		return true, nil
	}
	os.Remove(tmpName)
	committed = true

	return true, nil
}

// replaceUnseeded moves the unseeded store and its sidecars to PreSeedPath,
// puts the snapshot copy in its place and clears the marker. The store must
// not be open.
func replaceUnseeded(tmpName, dst string) error {
	backup := PreSeedPath(dst)
	for _, suffix := range append([]string{""}, sidecarSuffixes...) {
		os.Remove(backup + suffix)
		if err := os.Rename(dst+suffix, backup+suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: move unseeded store aside: %v", ErrSeedCopy, err)
		}
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("%w: rename: %v", ErrSeedCopy, err)
	}
	if err := os.Remove(dst + unseededSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: clear unseeded marker: %v", ErrSeedCopy, err)
	}
	return nil
}

func isUnseeded(dst string) bool {
	ok, _ := fileExists(dst + unseededSuffix)
	return ok
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
