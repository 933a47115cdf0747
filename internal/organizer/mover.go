package organizer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// moveFolder relocates an entire book folder. Rename is tried first; a
// cross-device failure falls back to a verified copy followed by source
// removal. A failed copy removes the partial destination so the move is
// all-or-nothing.
func moveFolder(source, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent for %s: %w", target, err)
	}

	renameErr := os.Rename(source, target)
	if renameErr == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(renameErr, &linkErr) || !errors.Is(linkErr.Err, unix.EXDEV) {
		return fmt.Errorf("rename %s: %w", source, renameErr)
	}

	if err := copyTree(source, target); err != nil {
		_ = os.RemoveAll(target)
		return fmt.Errorf("cross-device copy to %s: %w", target, err)
	}
	if err := os.RemoveAll(source); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

func copyTree(source, target string) error {
	return filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(target, rel)
		if entry.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		return copyFile(path, dest)
	})
}

// copyFile copies one file and verifies the bytes that actually reached the
// destination by re-reading it after the sync.
func copyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	srcSum := hex.EncodeToString(srcHasher.Sum(nil))
	if err := verifyCopy(dst, srcSum, srcInfo.Size()); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// verifyCopy re-reads the destination file and checks it against the source
// size and checksum, catching writes torn between the page cache and disk.
func verifyCopy(dst, wantSum string, wantSize int64) error {
	info, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("stat copy: %w", err)
	}
	if info.Size() != wantSize {
		return fmt.Errorf("copy of %s landed at %d bytes, want %d", filepath.Base(dst), info.Size(), wantSize)
	}

	f, err := os.Open(dst)
	if err != nil {
		return fmt.Errorf("reopen copy: %w", err)
	}
	defer f.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return fmt.Errorf("re-read copy: %w", err)
	}
	if sum := hex.EncodeToString(hasher.Sum(nil)); sum != wantSum {
		return fmt.Errorf("copy checksum mismatch for %s", filepath.Base(dst))
	}
	return nil
}
