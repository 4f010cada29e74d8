// Package session runs the interactive capture loop: clicks are polled from
// the page, queued, and turned one at a time into an accessor plus a test
// statement through a series of user choices.
package session

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/ghost/internal/artifact"
	"github.com/hpungsan/ghost/internal/codegen"
	"github.com/hpungsan/ghost/internal/config"
	"github.com/hpungsan/ghost/internal/element"
	"github.com/hpungsan/ghost/internal/errors"
	"github.com/hpungsan/ghost/internal/ops"
)

// Capturer reads clicks from the page under test.
type Capturer interface {
	// CaptureClick returns the most recently clicked element and clears it,
	// or nil when nothing was clicked since the last call.
	CaptureClick(ctx context.Context) (*element.RawElement, error)
	IsReady(ctx context.Context) bool
	CurrentURL(ctx context.Context) (string, error)
}

// Chooser asks the user how a captured element should be recorded. Each
// method blocks until the user answers. A cancelled choice returns an error
// with code CANCELLED.
type Chooser interface {
	ChooseLocator(ctx context.Context, e element.RawElement, candidates []element.LocatorCandidate) (element.LocatorCandidate, error)
	ChooseAction(ctx context.Context, e element.RawElement) (codegen.ActionKind, error)
	ChooseWait(ctx context.Context, kind codegen.ActionKind) (codegen.WaitCondition, error)
	ChooseForce(ctx context.Context) (bool, error)
	ChooseMultiple(ctx context.Context) (bool, error)
	// TypedValue returns the text to type; nil means none was given.
	TypedValue(ctx context.Context) (*string, error)
}

// OutcomeKind classifies the end of one capture.
type OutcomeKind int

const (
	Persisted OutcomeKind = iota
	Cancelled
	Failed
	Dropped
)

func (k OutcomeKind) String() string {
	switch k {
	case Persisted:
		return "persisted"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	case Dropped:
		return "dropped"
	}
	return "unknown"
}

// Outcome reports what happened to one captured element.
type Outcome struct {
	Kind    OutcomeKind
	Element element.RawElement
	Result  *ops.RecordOutput // set when Persisted
	Err     error             // set when Failed
}

// Observer receives outcomes. Dropped outcomes are reported from the polling
// goroutine, all others from the goroutine running Run.
type Observer func(Outcome)

// Options configures a Session.
type Options struct {
	Config   *config.Config
	Store    *artifact.Store
	DB       *sql.DB // optional journal
	Capturer Capturer
	Chooser  Chooser
	Log      logrus.FieldLogger
	Observer Observer

	// SessionID links captures to a journal session. Empty skips the journal.
	SessionID string
}

// Session is one recording run. A Session is single use: Run may be called once.
type Session struct {
	cfg      *config.Config
	store    *artifact.Store
	db       *sql.DB
	capturer Capturer
	chooser  Chooser
	log      logrus.FieldLogger
	observer Observer
	id       string

	machine machine
	queue   chan element.RawElement

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

// New validates opts and creates an idle Session.
func New(opts Options) (*Session, error) {
	if opts.Config == nil || opts.Store == nil {
		return nil, errors.NewInvalidRequest("session requires a config and an artifact store")
	}
	if opts.Capturer == nil || opts.Chooser == nil {
		return nil, errors.NewInvalidRequest("session requires a capturer and a chooser")
	}
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	observer := opts.Observer
	if observer == nil {
		observer = func(Outcome) {}
	}
	size := opts.Config.QueueSize
	if size <= 0 {
		size = 1
	}
	return &Session{
		cfg:      opts.Config,
		store:    opts.Store,
		db:       opts.DB,
		capturer: opts.Capturer,
		chooser:  opts.Chooser,
		log:      log.WithField("session", opts.SessionID),
		observer: observer,
		id:       opts.SessionID,
		queue:    make(chan element.RawElement, size),
	}, nil
}

// State returns the current state.
func (s *Session) State() State {
	return s.machine.current()
}

// Run polls for clicks and processes them until ctx is done or Stop is
// called. It returns nil on a normal stop.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.NewInvalidRequest("session already started")
	}
	s.started = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.poll(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
		s.machine.stop()
		s.log.Info("session stopped")
	}()

	s.log.Info("monitoring clicks")
	for {
		if err := s.machine.transition(Idle, Capturing); err != nil {
			return errors.NewInternal(err)
		}
		// A stop wins over a queued element.
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case e := <-s.queue:
			s.observer(s.cycle(ctx, e))
			if err := s.machine.reset(); err != nil {
				return errors.NewInternal(err)
			}
		}
	}
}

// Stop ends Run. Polling stops immediately; a capture being persisted
// completes first.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Session) poll(ctx context.Context) {
	interval := time.Duration(s.cfg.PollIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 300 * time.Millisecond
	}
	timeout := time.Duration(s.cfg.CaptureTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !s.capturer.IsReady(ctx) {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, timeout)
		e, err := s.capturer.CaptureClick(cctx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.WithError(err).Warn("click capture failed")
			continue
		}
		if e != nil {
			s.offer(*e)
		}
	}
}

// offer queues e, dropping it when the queue is full.
func (s *Session) offer(e element.RawElement) {
	select {
	case s.queue <- e:
		s.log.WithField("element", e.Describe()).Debug("capture queued")
	default:
		s.log.WithField("element", e.Describe()).Warn("capture queue full, dropping click")
		s.observer(Outcome{Kind: Dropped, Element: e})
	}
}

// cycle takes one element from Capturing through the choices to Persisting.
// On return the machine is left wherever the cycle stopped; Run resets it.
func (s *Session) cycle(ctx context.Context, e element.RawElement) Outcome {
	out := Outcome{Element: e}
	abandon := func(err error) Outcome {
		if errors.Is(err, errors.ErrCancelled) || ctx.Err() != nil {
			s.log.WithField("element", e.Describe()).Info("capture cancelled")
			out.Kind = Cancelled
			return out
		}
		s.log.WithError(err).WithField("element", e.Describe()).Error("capture failed")
		out.Kind = Failed
		out.Err = err
		return out
	}
	step := func(from, to State) error {
		if err := s.machine.transition(from, to); err != nil {
			return errors.NewInternal(err)
		}
		return nil
	}

	candidates := element.Generate(e, element.Options{TextMaxLen: s.cfg.TextMaxLen})

	if err := step(Capturing, AwaitingLocatorChoice); err != nil {
		return abandon(err)
	}
	locator, err := s.chooser.ChooseLocator(ctx, e, candidates)
	if err != nil {
		return abandon(err)
	}

	if err := step(AwaitingLocatorChoice, AwaitingActionChoice); err != nil {
		return abandon(err)
	}
	kind, err := s.chooser.ChooseAction(ctx, e)
	if err != nil {
		return abandon(err)
	}

	if err := step(AwaitingActionChoice, AwaitingWaitChoice); err != nil {
		return abandon(err)
	}
	wait, err := s.chooser.ChooseWait(ctx, kind)
	if err != nil {
		return abandon(err)
	}

	if err := step(AwaitingWaitChoice, AwaitingModifierChoices); err != nil {
		return abandon(err)
	}
	spec := codegen.ActionSpec{Kind: kind, Wait: wait}
	if spec.Force, err = s.chooser.ChooseForce(ctx); err != nil {
		return abandon(err)
	}
	if spec.Multiple, err = s.chooser.ChooseMultiple(ctx); err != nil {
		return abandon(err)
	}

	var prepared *ops.Prepared
	for attempt := 0; ; attempt++ {
		if kind == codegen.Type {
			if spec.TypedValue, err = s.chooser.TypedValue(ctx); err != nil {
				return abandon(err)
			}
		}
		if err := step(AwaitingModifierChoices, Synthesizing); err != nil {
			return abandon(err)
		}
		prepared, err = ops.Prepare(ctx, s.store, s.cfg, ops.RecordInput{
			SessionID: s.id,
			Locator:   locator,
			Spec:      spec,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, errors.ErrInvalidSpec) || attempt >= s.cfg.MaxReprompts {
			return abandon(err)
		}
		s.log.WithError(err).Warn("incomplete action, asking again")
		if err := step(Synthesizing, AwaitingModifierChoices); err != nil {
			return abandon(err)
		}
	}

	if err := step(Synthesizing, Persisting); err != nil {
		return abandon(err)
	}
	// Persisting is not interrupted by Stop.
	pctx := context.WithoutCancel(ctx)
	prepared.VisitURL = s.visitURL(pctx)
	result, err := ops.Persist(pctx, s.db, s.store, prepared)
	if err != nil {
		out.Kind = Failed
		out.Err = err
		s.log.WithError(err).WithField("accessor", prepared.Accessor).Error("failed to record capture")
		return out
	}

	s.log.WithFields(logrus.Fields{
		"accessor":  result.Accessor,
		"statement": result.Statement,
	}).Info("capture recorded")
	out.Kind = Persisted
	out.Result = result
	return out
}

// visitURL is what a freshly seeded spec visits: the configured target, or
// the page currently open when none is configured.
func (s *Session) visitURL(ctx context.Context) string {
	if s.cfg.TargetURL != "" {
		return s.cfg.TargetURL
	}
	u, err := s.capturer.CurrentURL(ctx)
	if err != nil {
		s.log.WithError(err).Debug("current url unavailable")
		return ""
	}
	return u
}
