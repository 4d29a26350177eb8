package reactor

import "time"

// reactorOptions holds configuration resolved from a set of
// [ReactorOption] values at construction time.
type reactorOptions struct {
	clock           func() time.Time
	installSignals  bool
	logger          Logger
	hookRateLimiter *hookErrorLimiter
}

// ReactorOption configures a [Reactor] at construction time.
type ReactorOption interface {
	applyReactor(*reactorOptions)
}

type reactorOptionFunc func(*reactorOptions)

func (f reactorOptionFunc) applyReactor(o *reactorOptions) { f(o) }

// WithClock overrides the wall-clock source used for timer deadlines.
// Tests use this to supply a deterministic, manually-advanced clock; by
// default [time.Now] is used, with monotonic sub-second resolution as
// permitted by §9's time-source note.
func WithClock(now func() time.Time) ReactorOption {
	return reactorOptionFunc(func(o *reactorOptions) {
		if now != nil {
			o.clock = now
		}
	})
}

// WithSignalHandling controls whether the reactor installs its
// SIGINT/SIGTERM latch on first Run/Iterate. Defaults to enabled; tests
// that construct many reactors in one process, or embedders that wish to
// own signal handling themselves, can disable it.
func WithSignalHandling(enabled bool) ReactorOption {
	return reactorOptionFunc(func(o *reactorOptions) {
		o.installSignals = enabled
	})
}

// WithLogger overrides the structured [Logger] this reactor instance
// reports swallowed callback failures to.
// Defaults to the package-level logger installed via SetLogger (or the
// no-op logger, if none was installed).
func WithLogger(l Logger) ReactorOption {
	return reactorOptionFunc(func(o *reactorOptions) {
		if l != nil {
			o.logger = l
		}
	})
}

// resolveReactorOptions applies opts over a defaulted reactorOptions,
// mirroring the teacher's resolveLoopOptions: nil options are skipped
// rather than treated as an error, and defaults are filled in first so
// options only need to override what they care about.
func resolveReactorOptions(opts []ReactorOption) *reactorOptions {
	cfg := &reactorOptions{
		clock:          time.Now,
		installSignals: true,
		logger:         getLogger(),
		hookRateLimiter: newHookErrorLimiter(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyReactor(cfg)
	}
	return cfg
}
