package artifact

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hpungsan/ghost/internal/errors"
)

func TestValidatePath_TraversalRejected(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../pages/PageObjects.js"},
		{"deep traversal", "../../etc/x.js"},
		{"mid-path traversal", "cypress/../../outside.js"},
		{"absolute with traversal", filepath.Join(root, "a", "..", "..", "x.js")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidatePath(tc.path, root, false)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_ExtensionRequired(t *testing.T) {
	root := t.TempDir()

	for _, p := range []string{"spec", "spec.json", "spec.jsx", "spec.txt"} {
		t.Run(p, func(t *testing.T) {
			_, err := ValidatePath(p, root, true)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}

	for _, p := range []string{"a.js", "a.ts", "a.mjs", "A.JS"} {
		if _, err := ValidatePath(p, root, false); err != nil {
			t.Errorf("ValidatePath(%q) failed: %v", p, err)
		}
	}
}

func TestValidatePath_RelativeResolvedAgainstRoot(t *testing.T) {
	root := t.TempDir()

	got, err := ValidatePath("cypress/pages/PageObjects.js", root, false)
	if err != nil {
		t.Fatalf("ValidatePath failed: %v", err)
	}
	want := filepath.Join(root, "cypress", "pages", "PageObjects.js")
	if got != want {
		t.Errorf("ValidatePath = %q, want %q", got, want)
	}
}

func TestValidatePath_OutsideRoot(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()

	outside := filepath.Join(other, "spec.cy.js")
	if _, err := ValidatePath(outside, root, false); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}

	if _, err := ValidatePath(outside, root, true); err != nil {
		t.Errorf("allow unsafe paths: unexpected error: %v", err)
	}
}

func TestValidatePath_RootRequiredWhenSafe(t *testing.T) {
	if _, err := ValidatePath("/tmp/a.js", "", false); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidatePath_SymlinkRejected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	target := filepath.Join(root, "real.js")
	if err := os.WriteFile(target, []byte("export class A {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "link.js")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	for _, unsafe := range []bool{false, true} {
		if _, err := ValidatePath(link, root, unsafe); !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("unsafe=%v: expected ErrInvalidRequest, got: %v", unsafe, err)
		}
	}
}

func TestIsWithin(t *testing.T) {
	root := filepath.FromSlash("/p/root")
	cases := map[string]bool{
		"/p/root":           true,
		"/p/root/a.js":      true,
		"/p/root/x/y.js":    true,
		"/p/rootother/a.js": false,
		"/p/a.js":           false,
	}
	for p, want := range cases {
		if got := isWithin(filepath.FromSlash(p), root); got != want {
			t.Errorf("isWithin(%q) = %v, want %v", p, got, want)
		}
	}
}
