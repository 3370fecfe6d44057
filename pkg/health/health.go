// Package health serves liveness and readiness checks.
//
// Every registered check runs in its own loop. A check turns unhealthy after
// FailureThreshold consecutive failures and healthy again after
// SuccessThreshold consecutive successes, so a single slow dependency call
// does not flap the endpoint.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"
)

// CheckFunc reports nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Kind selects the endpoint a check contributes to.
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

// CheckOptions tune a single check. Zero values take the defaults.
type CheckOptions struct {
	Timeout          time.Duration
	FailureThreshold int
	SuccessThreshold int
}

func (o CheckOptions) withDefaults() CheckOptions {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = 3
	}
	if o.SuccessThreshold <= 0 {
		o.SuccessThreshold = 1
	}
	return o
}

// checker holds one check and its state. The counters are owned by the check
// loop; healthy and lastErr are read concurrently by the endpoints.
type checker struct {
	name  string
	kind  Kind
	opts  CheckOptions
	check CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func (p *checker) run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	err := p.check(ctx)
	p.lastErr.Store(&err)
	if err != nil {
		p.oks = 0
		p.fails++
		if p.fails >= p.opts.FailureThreshold {
			p.healthy.Store(false)
		}
		return err
	}
	p.fails = 0
	p.oks++
	if p.oks >= p.opts.SuccessThreshold {
		p.healthy.Store(true)
	}
	return nil
}

func (p *checker) failure() string {
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error()
	}
	return "check is unhealthy"
}

// Health aggregates checks. It starts not ready; call SetReady once the
// service has initialized.
type Health struct {
	ready atomic.Bool

	mu       sync.RWMutex
	checkers []*checker
	cancel   context.CancelFunc
	group    *errgroup.Group
}

// New returns an empty Health.
func New() *Health {
	return &Health{}
}

// Register adds a check. Checks start healthy until proven otherwise.
func (h *Health) Register(kind Kind, name string, opts CheckOptions, check CheckFunc) {
	p := &checker{name: name, kind: kind, opts: opts.withDefaults(), check: check}
	p.healthy.Store(true)

	h.mu.Lock()
	h.checkers = append(h.checkers, p)
	h.mu.Unlock()
}

func (h *Health) snapshot(kind Kind) []*checker {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.DeleteFunc(slices.Clone(h.checkers), func(p *checker) bool { return p.kind != kind })
}

// CheckReadiness runs every readiness check once, concurrently, and returns
// the first failure.
func (h *Health) CheckReadiness(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range h.snapshot(Readiness) {
		g.Go(func() error {
			if err := p.check(ctx); err != nil {
				return errors.Wrapf(err, "check %s", p.name)
			}
			return nil
		})
	}
	return g.Wait()
}

// Start runs every check at interval until Stop is called or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	g := &errgroup.Group{}

	h.mu.Lock()
	h.cancel = cancel
	h.group = g
	checkers := slices.Clone(h.checkers)
	h.mu.Unlock()

	for _, p := range checkers {
		g.Go(func() error {
			loop(ctx, p, interval)
			return nil
		})
	}
}

func loop(ctx context.Context, p *checker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_ = p.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.run(ctx)
		}
	}
}

// Stop cancels the check loops and waits for them to exit. It is safe to
// call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	cancel, g := h.cancel, h.group
	h.cancel, h.group = nil, nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		_ = g.Wait()
	}
}

// SetReady toggles the manual readiness gate.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness check is
// healthy.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	for _, p := range h.snapshot(Readiness) {
		if !p.healthy.Load() {
			return false
		}
	}
	return true
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, failures(h.snapshot(Liveness)))
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	f := failures(h.snapshot(Readiness))
	if !h.ready.Load() {
		f = append(f, failure{name: "_readiness", msg: "service is not ready"})
	}
	writeStatus(w, f)
}

type failure struct {
	name string
	msg  string
}

func failures(checkers []*checker) []failure {
	var out []failure
	for _, p := range checkers {
		if !p.healthy.Load() {
			out = append(out, failure{name: p.name, msg: p.failure()})
		}
	}
	return out
}

func writeStatus(w http.ResponseWriter, failures []failure) {
	status, text := http.StatusOK, "ok"
	if len(failures) > 0 {
		status, text = http.StatusServiceUnavailable, "unhealthy"
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(text) })
		if len(failures) == 0 {
			return
		}
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, f := range failures {
					e.Field(f.name, func(e *jx.Encoder) { e.Str(f.msg) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
