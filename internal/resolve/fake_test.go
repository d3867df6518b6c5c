package resolve

import (
	"context"
	"sync"
	"time"

	"snag/internal/extract"
	"snag/internal/media"
)

// fakeExtractor records calls and returns a scripted result.
type fakeExtractor struct {
	name      string
	platforms []media.Platform
	supports  func(extract.Target) bool
	timeout   time.Duration
	creds     bool
	desc      *media.Descriptor
	err       error
	block     bool

	mu    sync.Mutex
	calls int
	auth  []string
}

func (f *fakeExtractor) Name() string                { return f.name }
func (f *fakeExtractor) Platforms() []media.Platform { return f.platforms }
func (f *fakeExtractor) Timeout() time.Duration      { return f.timeout }
func (f *fakeExtractor) UsesCredentials() bool       { return f.creds }

func (f *fakeExtractor) Supports(t extract.Target) bool {
	if f.supports != nil {
		return f.supports(t)
	}
	if len(f.platforms) == 0 {
		return true
	}
	for _, p := range f.platforms {
		if p == t.Platform {
			return true
		}
	}
	return false
}

func (f *fakeExtractor) Extract(ctx context.Context, t extract.Target) (*media.Descriptor, error) {
	f.mu.Lock()
	f.calls++
	f.auth = append(f.auth, t.Auth.CookieFile)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.desc, f.err
}

func (f *fakeExtractor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// mergingExtractor adds follow-up support.
type mergingExtractor struct {
	*fakeExtractor
	playable    string
	playableErr error
	gotHeight   int
	material    string
	materialErr error
}

func (m *mergingExtractor) Playable(_ context.Context, _ extract.Target, maxHeight int) (string, error) {
	m.gotHeight = maxHeight
	return m.playable, m.playableErr
}

func (m *mergingExtractor) Materialize(_ context.Context, _ extract.Target, f media.Format) (string, error) {
	return m.material, m.materialErr
}

type recordingObserver struct {
	mu          sync.Mutex
	attempts    []string
	resolutions []string
}

func (r *recordingObserver) ObserveAttempt(extractor, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, extractor+":"+outcome)
}

func (r *recordingObserver) ObserveResolution(p media.Platform, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolutions = append(r.resolutions, string(p)+":"+code)
}

func videoDescriptor(formats ...media.Format) *media.Descriptor {
	return &media.Descriptor{
		ID:           "vid",
		Title:        "A video",
		Uploader:     "Unknown",
		UploaderID:   "Unknown",
		Duration:     10,
		Kind:         media.Video,
		Platform:     media.Other,
		CanonicalURL: "https://example.com/v",
		Formats:      formats,
	}
}

func muxed(h int, url string) media.Format {
	return media.Format{FormatID: url, Extension: "mp4", Height: h, VideoCodec: "avc1", AudioCodec: "mp4a", DirectURL: url}
}
