package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"snag/internal/failure"
	"snag/internal/media"
)

// Runner executes an external command and returns its stdout. On failure
// the returned error should carry stderr so it can be classified.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &ToolError{Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	return stdout.Bytes(), nil
}

// ToolError is a failed external command.
type ToolError struct {
	Err    error
	Stderr string
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, lastLine(e.Stderr))
}

func (e *ToolError) Unwrap() error { return e.Err }

// YTDLP shells out to yt-dlp, which covers over a thousand sites.
type YTDLP struct {
	base
	path string
	run  Runner
}

// NewYTDLP creates the extractor for the binary at path.
func NewYTDLP(path string, run Runner, timeout time.Duration) *YTDLP {
	if run == nil {
		run = ExecRunner
	}
	return &YTDLP{base: base{timeout: timeout}, path: path, run: run}
}

func (y *YTDLP) Name() string                { return "ytdlp" }
func (y *YTDLP) Platforms() []media.Platform { return nil }
func (y *YTDLP) Supports(t Target) bool      { return y.path != "" }
func (y *YTDLP) UsesCredentials() bool       { return true }

func (y *YTDLP) Extract(ctx context.Context, t Target) (*media.Descriptor, error) {
	args := []string{"-J", "--no-playlist", "--no-warnings", "--skip-download"}
	args = append(args, y.cookieArgs(t)...)
	args = append(args, "--", t.URL)

	out, err := y.run(ctx, y.path, args...)
	if err != nil {
		return nil, y.classify(ctx, err, t)
	}
	return parseYTDLP(out, t.Platform, t.URL)
}

// Playable asks yt-dlp for a single muxed stream no taller than maxHeight,
// falling back to the best muxed stream of any height. Selectors that pair
// separate video and audio print two URLs and are never requested.
func (y *YTDLP) Playable(ctx context.Context, t Target, maxHeight int) (string, error) {
	selector := fmt.Sprintf("b[height<=%d][vcodec!=none][acodec!=none]/b[vcodec!=none][acodec!=none]", maxHeight)
	return y.urls(ctx, t, selector)
}

// Materialize asks yt-dlp for the URL of one specific format.
func (y *YTDLP) Materialize(ctx context.Context, t Target, f media.Format) (string, error) {
	if f.FormatID == "" {
		return "", fail(failure.Internal, "format has neither url nor id")
	}
	return y.urls(ctx, t, f.FormatID)
}

func (y *YTDLP) urls(ctx context.Context, t Target, selector string) (string, error) {
	args := []string{"-g", "-f", selector, "--no-playlist", "--no-warnings"}
	args = append(args, y.cookieArgs(t)...)
	args = append(args, "--", t.URL)

	out, err := y.run(ctx, y.path, args...)
	if err != nil {
		return "", y.classify(ctx, err, t)
	}
	lines := strings.Fields(strings.TrimSpace(string(out)))
	if len(lines) != 1 {
		return "", fail(failure.NoSuitableFormat, "format %q yields %d streams", selector, len(lines))
	}
	return lines[0], nil
}

func (y *YTDLP) cookieArgs(t Target) []string {
	if t.Auth.Empty() {
		return nil
	}
	return []string{"--cookies", t.Auth.CookieFile}
}

// classify maps yt-dlp's stderr onto the failure taxonomy.
func (y *YTDLP) classify(ctx context.Context, err error, t Target) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return failure.Wrap(failure.Timeout, err, "yt-dlp")
	}
	var te *ToolError
	if !errors.As(err, &te) {
		return failure.Wrap(failure.KindOf(err), err, "running yt-dlp")
	}
	return failure.Wrap(ytdlpKind(te.Stderr, !t.Auth.Empty()), err, "yt-dlp")
}

func ytdlpKind(stderr string, hadCookies bool) failure.Kind {
	s := strings.ToLower(stderr)
	switch {
	case strings.Contains(s, "unsupported url"):
		return failure.UnsupportedSource
	case containsAny(s, "login required", "log in", "sign in", "cookies", "rate-limit reached", "requires authentication"):
		if hadCookies {
			return failure.UpstreamBlocked
		}
		return failure.AuthRequired
	case containsAny(s, "private", "unavailable", "not available", "geo", "removed", "does not exist", "404"):
		return failure.NotFound
	case containsAny(s, "403", "429", "too many requests", "blocked", "forbidden"):
		return failure.UpstreamBlocked
	case containsAny(s, "timed out", "timeout"):
		return failure.Timeout
	default:
		return failure.Internal
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

type ytdlpInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Thumbnail   string  `json:"thumbnail"`
	Duration    float64 `json:"duration"`
	Uploader    string  `json:"uploader"`
	UploaderID  string  `json:"uploader_id"`
	WebpageURL  string  `json:"webpage_url"`
	URL         string  `json:"url"`
	Ext         string  `json:"ext"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Thumbnails  []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
	Formats []ytdlpFormat `json:"formats"`
	Entries []ytdlpInfo   `json:"entries"`
}

type ytdlpFormat struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	Width          *int     `json:"width"`
	Height         *int     `json:"height"`
	FileSize       *float64 `json:"filesize"`
	FileSizeApprox *float64 `json:"filesize_approx"`
	VCodec         string   `json:"vcodec"`
	ACodec         string   `json:"acodec"`
	URL            string   `json:"url"`
}

// parseYTDLP is a pure function of yt-dlp's -J output.
func parseYTDLP(out []byte, source media.Platform, pageURL string) (*media.Descriptor, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, failure.Wrap(failure.Internal, err, "decoding yt-dlp json")
	}

	// Multi-item posts come back as a playlist; take the first real item.
	if len(info.Formats) == 0 && info.URL == "" {
		for _, e := range info.Entries {
			if len(e.Formats) > 0 || e.URL != "" {
				if e.Title == "" {
					e.Title = info.Title
				}
				if e.Uploader == "" {
					e.Uploader = info.Uploader
				}
				info = e
				break
			}
		}
	}

	raw := Raw{
		ID:          info.ID,
		Title:       info.Title,
		Description: info.Description,
		Thumbnail:   info.Thumbnail,
		Duration:    info.Duration,
		Uploader:    info.Uploader,
		UploaderID:  info.UploaderID,
		URL:         firstNonEmpty(info.WebpageURL, pageURL),
	}
	for _, th := range info.Thumbnails {
		raw.Thumbnails = append(raw.Thumbnails, th.URL)
	}
	for _, f := range info.Formats {
		mf := media.Format{
			FormatID:   f.FormatID,
			Extension:  f.Ext,
			Width:      deref(f.Width),
			Height:     deref(f.Height),
			VideoCodec: f.VCodec,
			AudioCodec: f.ACodec,
			DirectURL:  f.URL,
		}
		mf.FileSize = firstSize(f.FileSize, f.FileSizeApprox)
		raw.Formats = append(raw.Formats, mf)
	}
	if len(raw.Formats) == 0 && info.URL != "" {
		f := media.Format{
			FormatID:  "0",
			Extension: info.Ext,
			Width:     info.Width,
			Height:    info.Height,
			DirectURL: info.URL,
		}
		if media.ImageExtensions[strings.ToLower(info.Ext)] {
			f.VideoCodec, f.AudioCodec = media.CodecNone, media.CodecNone
		}
		raw.Formats = append(raw.Formats, f)
	}
	return Normalize(raw, source)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func firstSize(vals ...*float64) *int64 {
	for _, v := range vals {
		if v != nil && *v > 0 {
			n := int64(*v)
			return &n
		}
	}
	return nil
}
