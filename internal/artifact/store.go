// Package artifact owns the generated page-object and test-spec files. Every
// change is a structural insertion into an existing body, written back with
// one atomic replace while the file's lock is held.
package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/ghost/internal/codegen"
	"github.com/hpungsan/ghost/internal/errors"
	"github.com/hpungsan/ghost/internal/jslit"
)

// DefaultClassName is the page-object container class used when none is configured.
const DefaultClassName = "PageObjects"

// memberIndent is added to the container's indentation for inserted lines.
const memberIndent = "  "

// Templates holds the names used when a missing artifact is seeded.
type Templates struct {
	ClassName string
	SuiteName string
	TestName  string
	PageVar   string
}

// Options configures a Store.
type Options struct {
	// Root is the project root artifact paths must live under. Relative paths
	// are resolved against it.
	Root string

	// AllowUnsafePaths lifts the Root restriction. Symlinks are still refused.
	AllowUnsafePaths bool

	// PageObjectFile is imported by a freshly seeded spec.
	PageObjectFile string

	Templates Templates
}

// Store inserts accessors and statements into artifact files.
type Store struct {
	opts Options
	log  logrus.FieldLogger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// write replaces a file's content; tests swap it to inject failures.
	write func(path string, data []byte) error
}

// AccessorResult describes an AppendAccessor call.
type AccessorResult struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Declaration string `json:"declaration"`
	Inserted    bool   `json:"inserted"`
	Created     bool   `json:"created"`
}

// StatementResult describes an AppendStatement call.
type StatementResult struct {
	Path      string `json:"path"`
	Statement string `json:"statement"`
	Created   bool   `json:"created"`
}

// NewStore creates a Store. A nil logger discards output.
func NewStore(opts Options, log logrus.FieldLogger) *Store {
	if opts.Templates.ClassName == "" {
		opts.Templates.ClassName = DefaultClassName
	}
	if opts.Templates.SuiteName == "" {
		opts.Templates.SuiteName = "Automation Suite"
	}
	if opts.Templates.TestName == "" {
		opts.Templates.TestName = "Generated User Flow"
	}
	if opts.Templates.PageVar == "" {
		opts.Templates.PageVar = codegen.DefaultPageVar
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Store{
		opts:  opts,
		log:   log,
		locks: make(map[string]*sync.Mutex),
		write: writeAtomic,
	}
}

// lockFor returns the mutex serializing read-modify-write cycles on path.
func (s *Store) lockFor(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	return l
}

func (s *Store) resolve(path string) (string, error) {
	return ValidatePath(path, s.opts.Root, s.opts.AllowUnsafePaths)
}

// AppendAccessor adds `get name() { return locator; }` to the container class
// in file, creating the file from the page-object template if it is missing.
// Re-adding an identical accessor changes nothing; reusing the name for a
// different locator fails with ACCESSOR_EXISTS.
func (s *Store) AppendAccessor(ctx context.Context, file, name, locator string) (*AccessorResult, error) {
	decl, err := s.checkAccessor(name, locator)
	if err != nil {
		return nil, err
	}
	path, err := s.resolve(file)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("append accessor")
	}

	lock := s.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	edit, err := s.planAccessor(path, name, locator, decl)
	if err != nil {
		return nil, err
	}
	if err := s.commit(edit); err != nil {
		return nil, err
	}
	return edit.accessor, nil
}

// AppendStatement adds code as the last statement of the last test case in
// file, creating the file from the spec template (visiting visitURL) if it is
// missing.
func (s *Store) AppendStatement(ctx context.Context, file, code, visitURL string) (*StatementResult, error) {
	code, err := s.checkStatement(code)
	if err != nil {
		return nil, err
	}
	path, err := s.resolve(file)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("append statement")
	}

	lock := s.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	edit, err := s.planStatement(path, code, visitURL)
	if err != nil {
		return nil, err
	}
	if err := s.commit(edit); err != nil {
		return nil, err
	}
	return edit.statement, nil
}

// Pair is an accessor and the statement that uses it.
type Pair struct {
	PageObjectFile string
	Name           string
	Locator        string

	SpecFile  string
	Statement string
	VisitURL  string
}

// AppendPair adds p's accessor and statement together. Both new file contents
// are computed while both files are locked, so a spec that cannot take the
// statement leaves the page object untouched. If the spec write fails after
// the page object was written, the page object is put back.
func (s *Store) AppendPair(ctx context.Context, p Pair) (*AccessorResult, *StatementResult, error) {
	decl, err := s.checkAccessor(p.Name, p.Locator)
	if err != nil {
		return nil, nil, err
	}
	code, err := s.checkStatement(p.Statement)
	if err != nil {
		return nil, nil, err
	}
	pomPath, err := s.resolve(p.PageObjectFile)
	if err != nil {
		return nil, nil, err
	}
	specPath, err := s.resolve(p.SpecFile)
	if err != nil {
		return nil, nil, err
	}
	if pomPath == specPath {
		return nil, nil, errors.NewInvalidRequest("page object and spec must be different files")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.NewCancelled("append pair")
	}

	// Lock in path order so two pairs over the same files cannot deadlock.
	first, second := pomPath, specPath
	if second < first {
		first, second = second, first
	}
	l1, l2 := s.lockFor(first), s.lockFor(second)
	l1.Lock()
	defer l1.Unlock()
	l2.Lock()
	defer l2.Unlock()

	st, err := s.planStatement(specPath, code, p.VisitURL)
	if err != nil {
		return nil, nil, err
	}
	acc, err := s.planAccessor(pomPath, p.Name, p.Locator, decl)
	if err != nil {
		return nil, nil, err
	}

	if err := s.commit(acc); err != nil {
		return nil, nil, err
	}
	if err := s.commit(st); err != nil {
		s.rollback(acc)
		return nil, nil, err
	}
	return acc.accessor, st.statement, nil
}

// edit is a planned change to one artifact, computed under its lock.
type edit struct {
	path    string
	before  []byte // content on disk when planned; nil if the file was missing
	existed bool
	out     []byte // new content; nil when nothing changes

	accessor  *AccessorResult
	statement *StatementResult
}

func (s *Store) checkAccessor(name, locator string) (string, error) {
	decl, err := codegen.AccessorDeclaration(name, locator)
	if err != nil {
		return "", err
	}
	if _, err := scan([]byte(decl)); err != nil {
		return "", errors.NewInvalidSpec(fmt.Sprintf("accessor does not balance: %v", err))
	}
	if err := s.checkTemplates(); err != nil {
		return "", err
	}
	return decl, nil
}

func (s *Store) checkStatement(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errors.NewInvalidSpec("statement is required")
	}
	if strings.ContainsAny(code, "\r\n") {
		return "", errors.NewInvalidSpec("statement must be a single line")
	}
	if _, err := scan([]byte(code)); err != nil {
		return "", errors.NewInvalidSpec(fmt.Sprintf("statement does not balance: %v", err))
	}
	if err := s.checkTemplates(); err != nil {
		return "", err
	}
	return code, nil
}

// planAccessor computes the page-object change. The caller holds path's lock.
func (s *Store) planAccessor(path, name, locator, decl string) (*edit, error) {
	src, exists, err := readArtifact(path)
	if err != nil {
		return nil, err
	}
	e := &edit{path: path, before: src, existed: exists}
	if !exists {
		src = []byte(pageObjectSeed(s.opts.Templates.ClassName))
	}

	sc, err := scan(src)
	if err != nil {
		return nil, errors.NewCorruptArtifact(path, err.Error())
	}
	body, err := findClassBody(sc, s.opts.Templates.ClassName)
	if err != nil {
		return nil, errors.NewCorruptArtifact(path, err.Error())
	}

	e.accessor = &AccessorResult{Path: path, Name: name, Declaration: decl, Created: !exists}
	for _, a := range findAccessors(sc, body) {
		if a.Name != name {
			continue
		}
		if a.Locator == strings.TrimSpace(locator) {
			return e, nil
		}
		return nil, errors.NewAccessorExists(path, name)
	}

	out, _ := insertBefore(src, body, body.indent+memberIndent+decl)
	if err := verify(path, out); err != nil {
		return nil, err
	}
	e.out = out
	e.accessor.Inserted = true
	return e, nil
}

// planStatement computes the spec change. The caller holds path's lock.
func (s *Store) planStatement(path, code, visitURL string) (*edit, error) {
	src, exists, err := readArtifact(path)
	if err != nil {
		return nil, err
	}
	e := &edit{path: path, before: src, existed: exists}
	if !exists {
		pom := s.opts.PageObjectFile
		if pom != "" && !filepath.IsAbs(pom) && s.opts.Root != "" {
			pom = filepath.Join(s.opts.Root, pom)
		}
		src = []byte(specSeed(s.opts.Templates, importPath(path, pom), visitURL))
	}

	sc, err := scan(src)
	if err != nil {
		return nil, errors.NewCorruptArtifact(path, err.Error())
	}
	body, err := findTestBody(sc)
	if err != nil {
		return nil, errors.NewCorruptArtifact(path, err.Error())
	}

	out, _ := insertBefore(src, body, body.indent+memberIndent+code)
	if err := verify(path, out); err != nil {
		return nil, err
	}
	e.out = out
	e.statement = &StatementResult{Path: path, Statement: code, Created: !exists}
	return e, nil
}

// commit writes a planned edit. An edit with no new content is a no-op.
func (s *Store) commit(e *edit) error {
	if e.out == nil {
		if e.accessor != nil {
			s.log.WithFields(logrus.Fields{"path": e.path, "accessor": e.accessor.Name}).Debug("accessor already present")
		}
		return nil
	}
	if err := s.write(e.path, e.out); err != nil {
		return err
	}
	switch {
	case e.accessor != nil:
		s.log.WithFields(logrus.Fields{"path": e.path, "accessor": e.accessor.Name, "created": !e.existed}).Info("accessor appended")
	case e.statement != nil:
		s.log.WithFields(logrus.Fields{"path": e.path, "created": !e.existed}).Info("statement appended")
	}
	return nil
}

// rollback restores a committed edit's previous content, removing a file the
// edit created.
func (s *Store) rollback(e *edit) {
	if e.out == nil {
		return
	}
	var err error
	if e.existed {
		err = s.write(e.path, e.before)
	} else {
		err = os.Remove(e.path)
	}
	if err != nil {
		s.log.WithError(err).WithField("path", e.path).Error("failed to restore artifact")
		return
	}
	s.log.WithField("path", e.path).Warn("artifact restored after failed write")
}

// Accessors lists the accessor names declared in the container class of file,
// in file order. A missing file has none.
func (s *Store) Accessors(file string) ([]string, error) {
	found, err := s.accessors(file)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(found))
	for _, a := range found {
		names = append(names, a.Name)
	}
	return names, nil
}

func (s *Store) accessors(file string) ([]accessor, error) {
	path, err := s.resolve(file)
	if err != nil {
		return nil, err
	}

	lock := s.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	src, exists, err := readArtifact(path)
	if err != nil || !exists {
		return nil, err
	}
	sc, err := scan(src)
	if err != nil {
		return nil, errors.NewCorruptArtifact(path, err.Error())
	}
	body, err := findClassBody(sc, s.opts.Templates.ClassName)
	if err != nil {
		return nil, errors.NewCorruptArtifact(path, err.Error())
	}
	return findAccessors(sc, body), nil
}

// NextAccessorName returns prefix followed by one more than the highest
// numeric suffix already used with prefix in file, starting at 1.
func (s *Store) NextAccessorName(ctx context.Context, file, prefix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.NewCancelled("next accessor name")
	}
	if err := codegen.ValidateIdentifier(prefix + "1"); err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid accessor prefix %q", prefix))
	}

	found, err := s.accessors(file)
	if err != nil {
		return "", err
	}
	highest := 0
	for _, a := range found {
		suffix, ok := strings.CutPrefix(a.Name, prefix)
		if !ok || suffix == "" {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return prefix + strconv.Itoa(highest+1), nil
}

func (s *Store) checkTemplates() error {
	t := s.opts.Templates
	if !jslit.IsIdentifier(t.ClassName) {
		return errors.NewInvalidRequest(fmt.Sprintf("class name %q is not a valid identifier", t.ClassName))
	}
	if !jslit.IsIdentifier(t.PageVar) {
		return errors.NewInvalidRequest(fmt.Sprintf("page variable %q is not a valid identifier", t.PageVar))
	}
	return nil
}

// verify re-scans content about to be written. A failure here means the
// insertion itself broke the file, which is an internal error.
func verify(path string, out []byte) error {
	if _, err := scan(out); err != nil {
		return errors.NewInternal(fmt.Errorf("insertion into %s left it unbalanced: %w", path, err))
	}
	return nil
}
