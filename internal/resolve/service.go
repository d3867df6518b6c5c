package resolve

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"snag/internal/extract"
	"snag/internal/failure"
	"snag/internal/format"
	"snag/internal/media"
	"snag/internal/platform"
)

// DefaultFollowUpTimeout bounds merge and materialize calls.
const DefaultFollowUpTimeout = 120 * time.Second

// Result is a fully resolved request.
type Result struct {
	Descriptor  *media.Descriptor
	Extractor   string
	Format      media.Format
	DownloadURL string
	// Degraded is set when a video-only rendition is returned because no
	// muxed stream could be obtained.
	Degraded bool
}

// Recorder persists a summary of each handled request.
type Recorder interface {
	Record(ctx context.Context, req media.Request, resp media.Response) error
}

// Service runs the whole pipeline for one request: resolve, select,
// then merge or materialize as needed.
type Service struct {
	orch     *Orchestrator
	followUp time.Duration
	observer Observer
	recorder Recorder
	log      zerolog.Logger
}

// NewService wraps an orchestrator. A zero followUp uses DefaultFollowUpTimeout.
func NewService(orch *Orchestrator, followUp time.Duration, log zerolog.Logger) *Service {
	if followUp <= 0 {
		followUp = DefaultFollowUpTimeout
	}
	return &Service{
		orch:     orch,
		followUp: followUp,
		observer: orch.observer,
		log:      log.With().Str("component", "service").Logger(),
	}
}

// SetRecorder makes Handle persist every response through r.
func (s *Service) SetRecorder(r Recorder) { s.recorder = r }

// Run resolves req into a downloadable URL.
func (s *Service) Run(ctx context.Context, req media.Request) (*Result, error) {
	tier, err := media.ParseTier(req.Quality)
	if err != nil {
		return nil, failure.Wrap(failure.InvalidInput, err, "quality")
	}
	hint, err := media.ParseKindHint(string(req.Kind))
	if err != nil {
		return nil, failure.Wrap(failure.InvalidInput, err, "media kind")
	}
	if strings.TrimSpace(req.URL) == "" {
		return nil, failure.New(failure.InvalidInput, "url is required")
	}

	res, err := s.orch.Resolve(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	d := res.Descriptor

	photo := hint == media.HintPhoto || (hint == media.HintAuto && d.Kind == media.Photo)
	var chosen media.Format
	if photo {
		chosen, err = format.SelectPhoto(d.Formats)
	} else {
		chosen, err = format.Select(d.Formats, tier)
	}
	if err != nil {
		return nil, err
	}

	out := &Result{Descriptor: d, Extractor: res.Extractor.Name(), Format: chosen}

	if !photo && chosen.HasVideo() && !chosen.HasAudio() {
		out.DownloadURL, out.Degraded = s.merge(ctx, res, tier, chosen)
	}
	if out.DownloadURL == "" {
		out.DownloadURL = chosen.DirectURL
	}
	if out.DownloadURL == "" {
		u, err := s.materialize(ctx, res, chosen)
		if err != nil {
			return nil, err
		}
		out.DownloadURL = u
	}
	return out, nil
}

// merge asks the winning extractor for a single stream carrying both
// tracks. On any failure the video-only rendition is kept and the result
// is marked degraded.
func (s *Service) merge(ctx context.Context, res *Resolution, tier media.Tier, chosen media.Format) (string, bool) {
	m, ok := res.Extractor.(extract.Merger)
	if !ok {
		return "", true
	}
	ceiling := max(format.TierHeight(tier), chosen.Height)

	callCtx, cancel := context.WithTimeout(ctx, s.followUp)
	defer cancel()
	u, err := m.Playable(callCtx, res.Target, ceiling)
	if err != nil {
		s.log.Warn().Err(err).Str("extractor", res.Extractor.Name()).Int("max_height", ceiling).Msg("merge failed; returning video-only stream")
		return "", true
	}
	return u, false
}

func (s *Service) materialize(ctx context.Context, res *Resolution, chosen media.Format) (string, error) {
	m, ok := res.Extractor.(extract.Materializer)
	if !ok {
		return "", failure.New(failure.Internal, "format %q has no direct url and %s cannot resolve one", chosen.FormatID, res.Extractor.Name())
	}
	callCtx, cancel := context.WithTimeout(ctx, s.followUp)
	defer cancel()
	u, err := m.Materialize(callCtx, res.Target, chosen)
	if err != nil {
		return "", failure.Attribute(res.Extractor.Name(), err)
	}
	return u, nil
}

// Handle runs req and renders the response envelope. It never fails;
// errors become a failure response with an actionable message.
func (s *Service) Handle(ctx context.Context, req media.Request) media.Response {
	resp := s.respond(ctx, req)

	code := resp.Code
	if resp.Success {
		code = "OK"
	}
	s.observer.ObserveResolution(platform.Classify(req.URL), code)

	if s.recorder != nil {
		if err := s.recorder.Record(context.WithoutCancel(ctx), req, resp); err != nil {
			s.log.Warn().Err(err).Msg("recording history")
		}
	}
	return resp
}

func (s *Service) respond(ctx context.Context, req media.Request) media.Response {
	res, err := s.Run(ctx, req)
	if err != nil {
		kind := failure.KindOf(err)
		s.log.Info().Str("url", req.URL).Str("kind", kind.String()).Err(err).Msg("resolution failed")
		return media.Response{
			Success: false,
			Error:   failure.Message(err),
			Code:    string(kind.Code()),
		}
	}

	f := res.Format
	return media.Response{
		Success:        true,
		Info:           media.NewInfo(res.Descriptor, res.Extractor),
		DownloadURL:    res.DownloadURL,
		SelectedFormat: &f,
		Degraded:       res.Degraded,
	}
}
