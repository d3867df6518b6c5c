// Package resolve drives extractors in priority order and turns the
// winning descriptor into a single downloadable URL.
package resolve

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"snag/internal/credentials"
	"snag/internal/extract"
	"snag/internal/failure"
	"snag/internal/media"
	"snag/internal/platform"
)

// Observer receives one call per extractor attempt and per finished request.
type Observer interface {
	ObserveAttempt(extractor string, outcome string, elapsed time.Duration)
	ObserveResolution(platform media.Platform, code string)
}

type nopObserver struct{}

func (nopObserver) ObserveAttempt(string, string, time.Duration) {}
func (nopObserver) ObserveResolution(media.Platform, string)       {}

// OutcomeSuccess is the attempt outcome label for a winning extractor.
const OutcomeSuccess = "success"

// Resolution is the winning extractor's output.
type Resolution struct {
	Descriptor *media.Descriptor
	Extractor  extract.Extractor
	Target     extract.Target
}

// Orchestrator tries extractors one at a time until one succeeds.
// Attempts are sequential: a lower-priority success never preempts a
// higher-priority extractor.
type Orchestrator struct {
	extractors []extract.Extractor
	creds      credentials.Provider
	gated      credentials.Gated
	observer   Observer
	log        zerolog.Logger
}

// NewOrchestrator registers extractors in priority order. Nil creds and
// observer are replaced with no-ops.
func NewOrchestrator(extractors []extract.Extractor, creds credentials.Provider, gated credentials.Gated, observer Observer, log zerolog.Logger) *Orchestrator {
	if creds == nil {
		creds = credentials.None{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Orchestrator{
		extractors: extractors,
		creds:      creds,
		gated:      gated,
		observer:   observer,
		log:        log.With().Str("component", "orchestrator").Logger(),
	}
}

// Candidates returns the extractors that will be tried for t, in order:
// those specialised for t's platform, then generic fallbacks.
func (o *Orchestrator) Candidates(t extract.Target) []extract.Extractor {
	var specific, generic []extract.Extractor
	for _, e := range o.extractors {
		if !e.Supports(t) {
			continue
		}
		if extract.Generic(e) {
			generic = append(generic, e)
		} else {
			specific = append(specific, e)
		}
	}
	return append(specific, generic...)
}

// Resolve classifies rawURL and returns the first successful descriptor.
// When every candidate fails the error is a *failure.ResolutionFailed with
// one entry per attempted extractor. Cancelling ctx stops the chain and
// returns ctx's error.
func (o *Orchestrator) Resolve(ctx context.Context, rawURL string) (*Resolution, error) {
	p := platform.Classify(rawURL)
	if p == media.Unknown {
		return nil, failure.New(failure.InvalidInput, "not an http(s) URL: %q", rawURL)
	}
	t, err := extract.NewTarget(rawURL, p)
	if err != nil {
		return nil, err
	}

	auth, err := o.creds.Lookup(ctx, t.URL, p)
	if err != nil {
		o.log.Warn().Err(err).Str("platform", string(p)).Msg("credential lookup failed; continuing without")
	}
	t.Auth = auth

	log := o.log.With().Str("url", t.URL).Str("platform", string(p)).Logger()
	rf := &failure.ResolutionFailed{URL: t.URL}

	for _, e := range o.Candidates(t) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := e.Name()
		if extract.UsesCredentials(e) && o.gated.Requires(p) && t.Auth.Empty() {
			fe := &failure.Error{Kind: failure.AuthRequired, Source: name, Msg: "no cookies available for " + string(p)}
			rf.Attempts = append(rf.Attempts, fe)
			o.observer.ObserveAttempt(name, fe.Kind.String(), 0)
			log.Debug().Str("extractor", name).Msg("skipped: login required and no cookies")
			continue
		}

		start := time.Now()
		d, fe := o.attempt(ctx, e, t)
		elapsed := time.Since(start)

		if fe == nil {
			o.observer.ObserveAttempt(name, OutcomeSuccess, elapsed)
			log.Debug().Str("extractor", name).Dur("elapsed", elapsed).Int("formats", len(d.Formats)).Msg("resolved")
			return &Resolution{Descriptor: d, Extractor: e, Target: t}, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rf.Attempts = append(rf.Attempts, fe)
		o.observer.ObserveAttempt(name, fe.Kind.String(), elapsed)
		log.Debug().Str("extractor", name).Dur("elapsed", elapsed).Str("kind", fe.Kind.String()).Str("detail", fe.Msg).Err(fe.Err).Msg("attempt failed")
	}

	return nil, rf
}

// attempt runs one extractor under its own deadline.
func (o *Orchestrator) attempt(ctx context.Context, e extract.Extractor, t extract.Target) (*media.Descriptor, *failure.Error) {
	callCtx, cancel := context.WithTimeout(ctx, extract.TimeoutOf(e))
	defer cancel()

	d, err := e.Extract(callCtx, t)
	if err == nil && (d == nil || len(d.Formats) == 0) {
		err = failure.New(failure.Internal, "extractor returned an empty descriptor")
	}
	if err == nil {
		return d, nil
	}

	fe := failure.Attribute(e.Name(), err)
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		fe.Kind = failure.Timeout
	}
	return nil, fe
}
