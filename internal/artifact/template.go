package artifact

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/hpungsan/ghost/internal/jslit"
)

// pageObjectSeed is the content of a freshly created page-object file.
func pageObjectSeed(className string) string {
	return "export class " + className + " {\n}\n"
}

// specSeed is the content of a freshly created test-spec file.
func specSeed(t Templates, importPath, visitURL string) string {
	var b strings.Builder
	b.WriteString("import { " + t.ClassName + " } from " + jslit.Quote(importPath) + ";\n")
	b.WriteString("\n")
	b.WriteString("describe(" + jslit.Quote(t.SuiteName) + ", () => {\n")
	b.WriteString("  const " + t.PageVar + " = new " + t.ClassName + "();\n")
	b.WriteString("  it(" + jslit.Quote(t.TestName) + ", () => {\n")
	b.WriteString("    cy.visit(" + jslit.Quote(visitURL) + ");\n")
	b.WriteString("  });\n")
	b.WriteString("});\n")
	return b.String()
}

// importPath returns the module specifier that imports pageObjectFile from a
// spec living at specFile: relative, slash separated, without extension.
func importPath(specFile, pageObjectFile string) string {
	if pageObjectFile == "" {
		return "../pages/" + DefaultClassName
	}
	rel, err := filepath.Rel(filepath.Dir(specFile), pageObjectFile)
	if err != nil {
		rel = filepath.Base(pageObjectFile)
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}
