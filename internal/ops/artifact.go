package ops

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/ghost/internal/artifact"
	"github.com/hpungsan/ghost/internal/config"
	"github.com/hpungsan/ghost/internal/errors"
)

// NewStore builds the artifact store for cfg: paths are confined to the
// automation output directory unless allow_unsafe_paths is set.
func NewStore(cfg *config.Config, log logrus.FieldLogger) (*artifact.Store, error) {
	root, err := cfg.OutputDir()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return artifact.NewStore(artifact.Options{
		Root:             root,
		AllowUnsafePaths: cfg.AllowUnsafePaths,
		PageObjectFile:   cfg.PageObjectPath,
		Templates: artifact.Templates{
			ClassName: cfg.ClassName,
			SuiteName: cfg.SuiteName,
			TestName:  cfg.TestName,
			PageVar:   cfg.PageVar,
		},
	}, log), nil
}

// AppendAccessorInput contains parameters for the AppendAccessor operation.
type AppendAccessorInput struct {
	Path    string // default: cfg.PageObjectPath
	Name    string // optional; empty picks the next <prefix><n>
	Prefix  string // default: cfg.AccessorPrefix
	Locator string // required
}

// AppendAccessor adds one accessor to the page-object file.
func AppendAccessor(ctx context.Context, store *artifact.Store, cfg *config.Config, input AppendAccessorInput) (*artifact.AccessorResult, error) {
	if strings.TrimSpace(input.Locator) == "" {
		return nil, errors.NewInvalidRequest("locator is required")
	}
	path := pick(input.Path, cfg.PageObjectPath)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		var err error
		name, err = store.NextAccessorName(ctx, path, pick(input.Prefix, cfg.AccessorPrefix))
		if err != nil {
			return nil, err
		}
	}
	return store.AppendAccessor(ctx, path, name, input.Locator)
}

// AppendStatementInput contains parameters for the AppendStatement operation.
type AppendStatementInput struct {
	Path      string // default: cfg.SpecPath
	Statement string // required
	VisitURL  string // default: cfg.TargetURL; only used when the file is created
}

// AppendStatement adds one statement to the last test case of the spec file.
func AppendStatement(ctx context.Context, store *artifact.Store, cfg *config.Config, input AppendStatementInput) (*artifact.StatementResult, error) {
	if strings.TrimSpace(input.Statement) == "" {
		return nil, errors.NewInvalidRequest("statement is required")
	}
	return store.AppendStatement(ctx, pick(input.Path, cfg.SpecPath), input.Statement, pick(input.VisitURL, cfg.TargetURL))
}

func pick(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
