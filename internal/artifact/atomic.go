package artifact

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hpungsan/ghost/internal/errors"
)

// readArtifact returns the file content, or exists=false when it is missing.
func readArtifact(path string) (data []byte, exists bool, err error) {
	f, err := openFileNoFollowRead(path)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, false, nil
		}
		if errors.Is(err, errors.ErrInvalidRequest) {
			return nil, false, err
		}
		return nil, false, errors.NewIOFailure(path, err)
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		return nil, false, errors.NewIOFailure(path, err)
	}
	return data, true, nil
}

// writeAtomic replaces path with data. The content goes to a temp file in the
// same directory which is synced and renamed over path, so readers see either
// the old file or the new one. On failure the old file is untouched.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIOFailure(dir, fmt.Errorf("failed to create directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return errors.NewIOFailure(tempPath, err)
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewIOFailure(tempPath, err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewIOFailure(tempPath, err)
	}

	// Close before rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return errors.NewIOFailure(tempPath, fmt.Errorf("failed to close temp file: %w", err))
	}
	file = nil

	// os.Rename would replace a symlink rather than its target; refuse instead.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewIOFailure(path, fmt.Errorf("replacing an existing file is not supported on Windows: %w", err))
			}
		}
		return errors.NewIOFailure(path, fmt.Errorf("failed to replace file: %w", err))
	}

	success = true
	return nil
}
