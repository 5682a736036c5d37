package ml

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"claimguard/apperrors"
	"claimguard/monitoring"
)

// State is the lifecycle of a Provider.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	}
	return "unknown"
}

var allStates = []string{
	StateUninitialized.String(),
	StateLoading.String(),
	StateReady.String(),
	StateUnavailable.String(),
}

// ErrAlreadyReady is returned by Reload once a model has been loaded.
var ErrAlreadyReady = errors.New("model already loaded")

// Loader turns an artifact path into a classifier.
type Loader func(path string) (Classifier, error)

// FileLoader is the default Loader, backed by LoadModel.
func FileLoader(path string) (Classifier, error) {
	model, err := LoadModel(path)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Status is a snapshot of the provider for display.
type Status struct {
	State    string     `json:"state"`
	Path     string     `json:"path"`
	Reason   string     `json:"reason,omitempty"`
	Code     string     `json:"code,omitempty"`
	Model    *Metadata  `json:"model,omitempty"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	Attempts int        `json:"attempts"`
}

// Provider owns the single classifier of the process. The load runs at most
// once; a successful result is kept for the life of the process. Only an
// unavailable provider can be asked to Reload.
type Provider struct {
	path   string
	load   Loader
	logger *zap.Logger

	mu       sync.RWMutex
	state    State
	model    Classifier
	err      error
	loadedAt time.Time
	attempts int
	done     chan struct{}
}

// NewProvider creates an uninitialized provider. A nil loader means
// FileLoader; a nil logger discards output.
func NewProvider(path string, load Loader, logger *zap.Logger) *Provider {
	if load == nil {
		load = FileLoader
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		path:   path,
		load:   load,
		logger: logger.Named("model"),
	}
}

// Load resolves the provider, blocking until the load completes. Subsequent
// calls return the memoized outcome without touching the artifact.
func (p *Provider) Load(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case StateReady, StateUnavailable:
		err := p.err
		p.mu.Unlock()
		return err
	case StateLoading:
		done := p.done
		p.mu.Unlock()
		return p.wait(ctx, done)
	}
	done := p.begin()
	p.mu.Unlock()

	p.run(done)
	return p.Err()
}

// Reload retries a failed load. It returns ErrAlreadyReady when a model is
// already being served.
func (p *Provider) Reload(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case StateReady:
		p.mu.Unlock()
		return ErrAlreadyReady
	case StateLoading:
		done := p.done
		p.mu.Unlock()
		return p.wait(ctx, done)
	}
	done := p.begin()
	p.mu.Unlock()

	p.logger.Info("retrying model load", zap.String("path", p.path))
	p.run(done)
	return p.Err()
}

// Capability returns the classifier when ready, or a typed error explaining
// why inference is not possible.
func (p *Provider) Capability() (Classifier, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch p.state {
	case StateReady:
		return p.model, nil
	case StateUnavailable:
		return nil, p.err
	case StateLoading:
		return nil, apperrors.NewModelUnavailable("model is loading")
	}
	return nil, apperrors.NewModelUnavailable("model has not been loaded")
}

// State returns the current lifecycle state.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Err returns the load failure, or nil.
func (p *Provider) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

func (p *Provider) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := Status{
		State:    p.state.String(),
		Path:     p.path,
		Attempts: p.attempts,
	}
	if !p.loadedAt.IsZero() {
		loadedAt := p.loadedAt
		st.LoadedAt = &loadedAt
	}
	if p.err != nil {
		st.Reason = p.err.Error()
		st.Code = string(apperrors.CodeOf(p.err))
	}
	if d, ok := p.model.(Describer); ok {
		meta := d.Metadata()
		st.Model = &meta
	}
	return st
}

// begin moves to Loading. Callers hold p.mu.
func (p *Provider) begin() chan struct{} {
	p.state = StateLoading
	monitoring.SetModelState(p.state.String(), allStates...)
	p.attempts++
	p.done = make(chan struct{})
	return p.done
}

func (p *Provider) run(done chan struct{}) {
	start := time.Now()
	model, err := p.load(p.path)
	if err == nil && model == nil {
		err = errors.New("loader returned no model")
	}
	if err != nil && apperrors.CodeOf(err) == "" {
		err = apperrors.NewArtifactLoadFailure(p.path, err)
	}

	p.mu.Lock()
	if err != nil {
		p.state = StateUnavailable
		p.model = nil
		p.err = err
	} else {
		p.state = StateReady
		p.model = model
		p.err = nil
		p.loadedAt = time.Now()
	}
	monitoring.SetModelState(p.state.String(), allStates...)
	close(done)
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("model unavailable",
			zap.String("path", p.path),
			zap.String("code", string(apperrors.CodeOf(err))),
			zap.Error(err))
		return
	}
	p.logger.Info("model loaded",
		zap.String("path", p.path),
		zap.Duration("took", time.Since(start)))
}

func (p *Provider) wait(ctx context.Context, done chan struct{}) error {
	select {
	case <-done:
		return p.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
