// Package extract turns a media page URL into a normalized descriptor.
// Each Extractor wraps one upstream source; the resolve package decides
// which ones to try and in what order.
package extract

import (
	"context"
	"net/url"
	"strings"
	"time"

	"snag/internal/credentials"
	"snag/internal/failure"
	"snag/internal/media"
)

// DefaultTimeout bounds a single extractor call when none is configured.
const DefaultTimeout = 60 * time.Second

// Target is the URL under resolution plus what the pipeline knows about it.
type Target struct {
	URL      string
	Parsed   *url.URL
	Platform media.Platform
	Auth     credentials.Material
}

// NewTarget parses rawURL. Callers classify before building a target, so
// a parse failure here is an input error.
func NewTarget(rawURL string, platform media.Platform) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Target{}, failure.Wrap(failure.InvalidInput, err, "parsing url")
	}
	u.Fragment = ""
	u.RawFragment = ""
	return Target{URL: u.String(), Parsed: u, Platform: platform}, nil
}

// Extractor resolves a target into a descriptor using one upstream source.
type Extractor interface {
	// Name identifies the extractor in logs, metrics and failure reports.
	Name() string
	// Platforms lists the platforms this extractor specializes in.
	// Nil means it is a generic fallback applicable to any URL.
	Platforms() []media.Platform
	// Supports is a cheap, local check; no network access.
	Supports(t Target) bool
	Extract(ctx context.Context, t Target) (*media.Descriptor, error)
}

// Bounded is implemented by extractors with their own call budget.
type Bounded interface {
	Timeout() time.Duration
}

// CredentialUser is implemented by extractors that can use cookies.
type CredentialUser interface {
	UsesCredentials() bool
}

// Merger can produce a single playable stream when the selected
// rendition is video-only.
type Merger interface {
	Playable(ctx context.Context, t Target, maxHeight int) (string, error)
}

// Materializer turns a format without a direct URL into one that has it.
type Materializer interface {
	Materialize(ctx context.Context, t Target, f media.Format) (string, error)
}

// TimeoutOf returns the call budget for e.
func TimeoutOf(e Extractor) time.Duration {
	if b, ok := e.(Bounded); ok && b.Timeout() > 0 {
		return b.Timeout()
	}
	return DefaultTimeout
}

// UsesCredentials reports whether e consumes auth material.
func UsesCredentials(e Extractor) bool {
	c, ok := e.(CredentialUser)
	return ok && c.UsesCredentials()
}

// Generic reports whether e is a platform-agnostic fallback.
func Generic(e Extractor) bool { return len(e.Platforms()) == 0 }

// base carries the per-extractor timeout.
type base struct {
	timeout time.Duration
}

func (b base) Timeout() time.Duration { return b.timeout }

func supportsPlatform(e Extractor, t Target) bool {
	for _, p := range e.Platforms() {
		if p == t.Platform {
			return true
		}
	}
	return false
}

func fail(kind failure.Kind, format string, args ...any) error {
	return failure.New(kind, format, args...)
}

// statusErr classifies a non-2xx upstream response.
func statusErr(status int, what string) error {
	return failure.New(failure.FromStatus(status), "%s returned status %d", what, status)
}

// transportErr classifies an error from the HTTP client itself.
func transportErr(err error, what string) error {
	return failure.Wrap(failure.KindOf(err), err, "requesting %s", what)
}
