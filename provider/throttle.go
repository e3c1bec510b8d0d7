package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"trophyroom/library"
)

// Throttled wraps a Provider and paces its scans to respect a platform rate
// limit. Games are fed to the inner provider one at a time with a limiter
// wait between them; local progress is remapped onto the full batch.
type Throttled struct {
	inner   Provider
	limiter *rate.Limiter
}

// Throttle wraps p so that at most perSecond games are scanned per second,
// with the given burst allowance.
func Throttle(p Provider, perSecond float64, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// ThrottleEvery wraps p so that games are scanned at most once per interval.
func ThrottleEvery(p Provider, interval time.Duration) *Throttled {
	return &Throttled{
		inner:   p,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (t *Throttled) Name() string { return t.inner.Name() }

func (t *Throttled) IsAuthenticated() bool { return t.inner.IsAuthenticated() }

func (t *Throttled) IsCapable(game library.Entry) (bool, error) {
	return t.inner.IsCapable(game)
}

// Scan feeds games to the wrapped provider one at a time, waiting on the
// limiter before each. Inner per-game progress (1/1) is rewritten to the
// batch-wide index so callers see the same stream an unwrapped provider
// would emit.
func (t *Throttled) Scan(ctx context.Context, games []library.Entry, progress ProgressFunc, completed CompletedFunc) (*ScanSummary, error) {
	summary := &ScanSummary{}

	for i, game := range games {
		if err := t.limiter.Wait(ctx); err != nil {
			return summary, err
		}

		idx := i
		remapped := func(p Progress) {
			if progress == nil {
				return
			}
			p.Current = idx + 1
			p.Total = len(games)
			progress(p)
		}

		sub, err := t.inner.Scan(ctx, []library.Entry{game}, remapped, completed)
		if sub != nil {
			summary.Add(*sub)
		}
		if err != nil {
			return summary, err
		}
	}

	return summary, nil
}
