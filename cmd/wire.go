package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"snag/internal/credentials"
	"snag/internal/discover"
	"snag/internal/extract"
	"snag/internal/history"
	"snag/internal/httputil"
	"snag/internal/metrics"
	"snag/internal/resolve"
)

// extractors returns the registry in priority order: platform-specific
// sources first, generic fallbacks last.
func extractors() []extract.Extractor {
	meta := cfg.Timeouts.Metadata
	hc := httputil.NewClient(meta)
	rc := httputil.NewResty(meta)
	tools := discover.Discover(cfg.YTDLPPath)
	if tools.YTDLP == "" {
		logger.Debug().Str("tool", cfg.YTDLPPath).Msg("yt-dlp not found; tool fallback disabled")
	}

	return []extract.Extractor{
		extract.NewYouTube(hc, meta),
		extract.NewVxTwitter(rc, cfg.VxTwitterAPI, meta),
		extract.NewTikTok(hc, meta),
		extract.NewVimeo(rc, "", meta),
		extract.NewDirect(hc, meta),
		extract.NewYTDLP(tools.YTDLP, extract.ExecRunner, cfg.Timeouts.Tool),
		extract.NewOpenGraph(hc, meta),
	}
}

func credentialProvider() (credentials.Provider, error) {
	dir, err := cfg.ExpandCookiesDir()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return credentials.None{}, nil
	}
	return credentials.Dir{Root: dir}, nil
}

// buildService wires the pipeline. reg may be nil when metrics are not
// exported. The returned cleanup closes the history store, if any.
func buildService(reg prometheus.Registerer) (*resolve.Service, func(), error) {
	creds, err := credentialProvider()
	if err != nil {
		return nil, nil, fmt.Errorf("cookies: %w", err)
	}
	gated, err := credentials.NewGated(cfg.AuthGated)
	if err != nil {
		return nil, nil, fmt.Errorf("auth_gated: %w", err)
	}

	var observer resolve.Observer
	if reg != nil {
		observer = metrics.New(reg)
	}

	orch := resolve.NewOrchestrator(extractors(), creds, gated, observer, logger)
	svc := resolve.NewService(orch, cfg.Timeouts.Merge, logger)

	cleanup := func() {}
	if cfg.History {
		path, err := historyPath()
		if err != nil {
			return nil, nil, err
		}
		store, err := history.Open(path)
		if err != nil {
			logger.Warn().Err(err).Msg("history disabled")
		} else {
			svc.SetRecorder(store)
			cleanup = func() { store.Close() }
		}
	}
	return svc, cleanup, nil
}
