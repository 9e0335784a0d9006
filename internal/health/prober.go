// Package health exercises the object store with bounded retries and turns
// opaque transport failures into actionable diagnoses. R2 and friends tend
// to report bad credentials as generic TLS handshake errors, which operators
// then mis-read as SSL misconfiguration; the diagnosis table exists to stop
// that.
package health

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/venuekit/backupd/internal/store"
)

const (
	defaultAttempts  = 3
	defaultBaseDelay = time.Second
)

// Prober checks store reachability.
type Prober struct {
	Store  store.Store
	Prefix string
	Log    zerolog.Logger

	Attempts  int
	BaseDelay time.Duration

	// Sleep is swappable for tests; zero value sleeps for real.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Probe attempts a one-object listing with exponential backoff between
// attempts (base, 2*base, 4*base, ...). It never returns an error: true on
// any success, false after exhausting retries with the final diagnosis
// logged alongside a suggested remediation.
func (p *Prober) Probe(ctx context.Context) bool {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	baseDelay := p.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastDiagnosis Diagnosis
	for attempt := 1; attempt <= attempts; attempt++ {
		_, err := p.Store.List(ctx, p.Prefix, 1)
		if err == nil {
			return true
		}
		lastDiagnosis = Classify(err)
		p.Log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Str("diagnosis", string(lastDiagnosis.Category)).
			Msg("store probe failed")

		if attempt == attempts {
			break
		}
		delay := baseDelay << (attempt - 1)
		if err := sleep(ctx, delay); err != nil {
			break
		}
	}

	p.Log.Error().
		Str("diagnosis", string(lastDiagnosis.Category)).
		Str("remediation", lastDiagnosis.Remediation).
		Msg("store unreachable after retries")
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
