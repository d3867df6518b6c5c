package extract

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"snag/internal/credentials"
	"snag/internal/failure"
	"snag/internal/httputil"
	"snag/internal/media"
)

// loginPaths are where gated platforms bounce anonymous visitors.
var loginPaths = []string{"/accounts/login", "/login", "/i/flow/login", "/checkpoint"}

// OpenGraph reads og:video / og:image tags from the page itself. Most
// sites emit them for link previews, so it works as a last resort.
type OpenGraph struct {
	base
	client *http.Client
}

// NewOpenGraph creates the extractor.
func NewOpenGraph(client *http.Client, timeout time.Duration) *OpenGraph {
	return &OpenGraph{base: base{timeout: timeout}, client: client}
}

func (o *OpenGraph) Name() string                { return "opengraph" }
func (o *OpenGraph) Platforms() []media.Platform { return nil }
func (o *OpenGraph) Supports(t Target) bool      { return true }
func (o *OpenGraph) UsesCredentials() bool       { return true }

func (o *OpenGraph) Extract(ctx context.Context, t Target) (*media.Descriptor, error) {
	client := o.client
	if !t.Auth.Empty() {
		jar, err := credentials.LoadJar(t.Auth.CookieFile)
		if err != nil {
			return nil, failure.Wrap(failure.Internal, err, "loading cookies")
		}
		client = httputil.WithJar(client, jar)
	}

	resp, err := httputil.Get(ctx, client, t.URL, httputil.BotUA)
	if err != nil {
		return nil, transportErr(err, "page")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, statusErr(resp.StatusCode, "page")
	}
	final := resp.Request.URL
	if isLoginWall(final) {
		resp.Body.Close()
		return nil, fail(failure.AuthRequired, "redirected to login page %s", final.Path)
	}
	body, err := httputil.ReadAll(resp)
	if err != nil {
		return nil, transportErr(err, "page")
	}
	return parseOpenGraph(body, final.String(), t.Platform)
}

func isLoginWall(u *url.URL) bool {
	for _, p := range loginPaths {
		if strings.HasPrefix(u.Path, p) {
			return true
		}
	}
	return false
}

// parseOpenGraph is a pure function of the page body.
func parseOpenGraph(body []byte, pageURL string, source media.Platform) (*media.Descriptor, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, failure.Wrap(failure.Internal, err, "parsing html")
	}

	meta := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key := s.AttrOr("property", s.AttrOr("name", ""))
		key = strings.ToLower(strings.TrimSpace(key))
		val := strings.TrimSpace(s.AttrOr("content", ""))
		if key == "" || val == "" {
			return
		}
		// The first occurrence is the primary item on multi-image pages.
		if _, seen := meta[key]; !seen {
			meta[key] = val
		}
	})

	raw := Raw{
		Title:       firstNonEmpty(meta["og:title"], meta["twitter:title"], strings.TrimSpace(doc.Find("title").First().Text())),
		Description: firstNonEmpty(meta["og:description"], meta["description"]),
		Uploader:    firstNonEmpty(meta["author"], meta["article:author"], meta["og:site_name"]),
		URL:         resolveRef(pageURL, firstNonEmpty(meta["og:url"], pageURL)),
		Duration:    atof(firstNonEmpty(meta["video:duration"], meta["og:video:duration"])),
	}

	image := resolveRef(pageURL, firstNonEmpty(meta["og:image:secure_url"], meta["og:image:url"], meta["og:image"], meta["twitter:image"]))
	video := resolveRef(pageURL, firstNonEmpty(
		meta["og:video:secure_url"], meta["og:video:url"], meta["og:video"], meta["twitter:player:stream"],
	))

	switch {
	case video != "" && !isEmbedPlayer(meta["og:video:type"]):
		f := media.Format{
			FormatID:  "og:video",
			Extension: mimeExt(meta["og:video:type"]),
			Width:     atoi(firstNonEmpty(meta["og:video:width"], meta["twitter:player:width"])),
			Height:    atoi(firstNonEmpty(meta["og:video:height"], meta["twitter:player:height"])),
			DirectURL: video,
		}
		raw.Thumbnail = image
		raw.Formats = []media.Format{f}
	case image != "":
		raw.Thumbnail = image
		raw.Formats = []media.Format{{
			FormatID:   "og:image",
			Extension:  extOf(image),
			Width:      atoi(meta["og:image:width"]),
			Height:     atoi(meta["og:image:height"]),
			VideoCodec: media.CodecNone,
			AudioCodec: media.CodecNone,
			DirectURL:  image,
		}}
		if !media.ImageExtensions[raw.Formats[0].Extension] {
			raw.Formats[0].Extension = mimeExt(meta["og:image:type"])
		}
	default:
		return nil, fail(failure.UnsupportedSource, "page exposes no media tags")
	}
	return Normalize(raw, source)
}

// isEmbedPlayer reports whether og:video points at an HTML player rather
// than a media file.
func isEmbedPlayer(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "text/html")
}

func mimeExt(mimeType string) string {
	_, sub, ok := strings.Cut(strings.ToLower(mimeType), "/")
	if !ok {
		return ""
	}
	sub, _, _ = strings.Cut(sub, ";")
	switch sub {
	case "jpeg":
		return "jpg"
	case "quicktime":
		return "mov"
	}
	return strings.TrimSpace(sub)
}

func resolveRef(pageURL, ref string) string {
	if ref == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
