package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/ghost/internal/errors"
)

// allowedExts are the artifact extensions the store will write.
var allowedExts = map[string]bool{".js": true, ".ts": true, ".mjs": true}

// ValidatePath checks an artifact path before it is read or rewritten:
//  1. no ".." components
//  2. a .js, .ts or .mjs extension
//  3. inside root, unless allowUnsafe is set
//  4. the file itself and its parent directory are not symlinks
//
// Symlink checks apply even when allowUnsafe is set; O_NOFOLLOW opens would
// reject the file anyway. It returns the cleaned absolute path.
func ValidatePath(path, root string, allowUnsafe bool) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if !allowedExts[strings.ToLower(filepath.Ext(cleaned))] {
		return "", errors.NewInvalidRequest("path must have a .js, .ts or .mjs extension")
	}

	if !filepath.IsAbs(cleaned) && root != "" {
		cleaned = filepath.Join(root, cleaned)
	}
	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if !allowUnsafe {
		if root == "" {
			return "", errors.NewInvalidRequest("project root is not configured")
		}
		absRoot, err := filepath.Abs(filepath.Clean(root))
		if err != nil {
			return "", errors.NewInvalidRequest(fmt.Sprintf("invalid project root: %v", err))
		}
		if !isWithin(absPath, absRoot) {
			return "", errors.NewInvalidRequest(
				fmt.Sprintf("path must be inside the project root %s (set allow_unsafe_paths to override)", absRoot))
		}
	}

	if info, err := os.Lstat(filepath.Dir(absPath)); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return "", errors.NewInvalidRequest("parent directory must not be a symlink")
	}
	if info, err := os.Lstat(absPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return "", errors.NewInvalidRequest("path must not be a symlink")
	}

	return absPath, nil
}

// isWithin reports whether path is root or lies beneath it.
func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// Also check forward slashes on all platforms (e.g., user input)
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
