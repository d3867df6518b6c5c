package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"snag/internal/failure"
	"snag/internal/media"
)

const vimeoPlayer = "https://player.vimeo.com"

var vimeoIDPattern = regexp.MustCompile(`vimeo\.com/(?:video/|channels/[^/]+/|groups/[^/]+/videos/)?(\d+)`)

// Vimeo reads the player config, which lists progressive MP4 renditions
// for embeddable videos.
type Vimeo struct {
	base
	client    *resty.Client
	playerURL string
}

// NewVimeo creates the extractor. An empty playerURL uses player.vimeo.com.
func NewVimeo(client *resty.Client, playerURL string, timeout time.Duration) *Vimeo {
	if playerURL == "" {
		playerURL = vimeoPlayer
	}
	return &Vimeo{base: base{timeout: timeout}, client: client, playerURL: strings.TrimRight(playerURL, "/")}
}

func (v *Vimeo) Name() string                { return "vimeo" }
func (v *Vimeo) Platforms() []media.Platform { return []media.Platform{media.Vimeo} }

func (v *Vimeo) Supports(t Target) bool {
	return supportsPlatform(v, t) && vimeoIDPattern.MatchString(t.URL)
}

type vimeoConfig struct {
	Request struct {
		Files struct {
			Progressive []struct {
				Width   int    `json:"width"`
				Height  int    `json:"height"`
				URL     string `json:"url"`
				Quality string `json:"quality"`
				Mime    string `json:"mime"`
				FPS     int    `json:"fps"`
			} `json:"progressive"`
		} `json:"files"`
	} `json:"request"`
	Video struct {
		ID       int64             `json:"id"`
		Title    string            `json:"title"`
		Duration float64           `json:"duration"`
		URL      string            `json:"url"`
		Thumbs   map[string]string `json:"thumbs"`
		Owner    struct {
			Name string `json:"name"`
			ID   int64  `json:"id"`
			URL  string `json:"url"`
		} `json:"owner"`
	} `json:"video"`
}

func (v *Vimeo) Extract(ctx context.Context, t Target) (*media.Descriptor, error) {
	m := vimeoIDPattern.FindStringSubmatch(t.URL)
	if m == nil {
		return nil, fail(failure.UnsupportedSource, "no vimeo id in url")
	}
	id := m[1]

	var cfg vimeoConfig
	resp, err := v.client.R().
		SetContext(ctx).
		SetHeader("Referer", "https://vimeo.com/"+id).
		SetResult(&cfg).
		Get(fmt.Sprintf("%s/video/%s/config", v.playerURL, id))
	if err != nil {
		return nil, transportErr(err, "vimeo player config")
	}
	if resp.IsError() {
		return nil, statusErr(resp.StatusCode(), "vimeo player config")
	}
	return parseVimeoConfig(&cfg, t.URL)
}

func parseVimeoConfig(cfg *vimeoConfig, pageURL string) (*media.Descriptor, error) {
	progressive := cfg.Request.Files.Progressive
	if len(progressive) == 0 {
		return nil, fail(failure.NotFound, "no progressive renditions; the video may be private or stream-only")
	}

	raw := Raw{
		Title:    cfg.Video.Title,
		Duration: cfg.Video.Duration,
		Uploader: cfg.Video.Owner.Name,
		URL:      pageURL,
	}
	if cfg.Video.ID > 0 {
		raw.ID = strconv.FormatInt(cfg.Video.ID, 10)
	}
	if cfg.Video.Owner.ID > 0 {
		raw.UploaderID = strconv.FormatInt(cfg.Video.Owner.ID, 10)
	}
	if cfg.Video.URL != "" {
		raw.URL = cfg.Video.URL
	}
	raw.Thumbnail = largestThumb(cfg.Video.Thumbs)

	for _, p := range progressive {
		ext := "mp4"
		if _, sub, ok := strings.Cut(p.Mime, "/"); ok {
			ext = sub
		}
		raw.Formats = append(raw.Formats, media.Format{
			FormatID:  p.Quality,
			Extension: ext,
			Width:     p.Width,
			Height:    p.Height,
			DirectURL: p.URL,
		})
	}
	return Normalize(raw, media.Vimeo)
}

// largestThumb picks the widest thumbnail; keys are widths plus "base".
func largestThumb(thumbs map[string]string) string {
	best, bestW := "", -1
	for k, u := range thumbs {
		w, err := strconv.Atoi(k)
		if err != nil {
			w = 0
		}
		if w > bestW || (w == bestW && u > best) {
			best, bestW = u, w
		}
	}
	return best
}
